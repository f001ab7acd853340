package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Logger defines the interface for logging operations within the postgres package.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=postgres
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Postgres is a thread-safe wrapper around gorm.DB that provides connection
// monitoring, automatic reconnection, and the execution primitives the
// search core builds on. It guards all database operations with a mutex and
// includes mechanisms for graceful shutdown and connection health monitoring.
type Postgres struct {
	client          *gorm.DB
	cfg             Config
	logger          Logger
	mu              *sync.RWMutex
	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once
}

// NewPostgres creates a new Postgres instance with the provided configuration
// and logger. It establishes the initial database connection and sets up the
// internal state for connection monitoring and recovery.
//
// A construction-time connection failure is returned to the caller; it is a
// deployment problem, distinct from the per-query execution failures wrapped
// in *QueryExecutionError.
func NewPostgres(cfg Config, logger Logger) (*Postgres, error) {
	conn, err := connectToPostgres(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: initial connection failed: %w", err)
	}

	return &Postgres{
		client:          conn,
		cfg:             cfg,
		logger:          logger,
		mu:              &sync.RWMutex{},
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}, nil
}

// connectToPostgres establishes a connection to the PostgreSQL database using
// the provided configuration and configures the connection pool.
func connectToPostgres(logger Logger, cfg Config) (*gorm.DB, error) {
	pgConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Connection.Host,
		cfg.Connection.Port,
		cfg.Connection.User,
		cfg.Connection.Password,
		cfg.Connection.DbName,
		cfg.Connection.SSLMode)

	database, err := gorm.Open(
		postgres.Open(pgConnStr),
		&gorm.Config{
			TranslateError: true,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	databaseInstance, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgreSQL database instance: %w", err)
	}

	details := cfg.ConnectionDetails
	if details.MaxOpenConns <= 0 {
		details.MaxOpenConns = 50
	}
	if details.MaxIdleConns <= 0 {
		details.MaxIdleConns = 25
	}
	if details.ConnMaxLifetime <= 0 {
		details.ConnMaxLifetime = time.Minute
	}
	databaseInstance.SetMaxOpenConns(details.MaxOpenConns)
	databaseInstance.SetMaxIdleConns(details.MaxIdleConns)
	databaseInstance.SetConnMaxLifetime(details.ConnMaxLifetime)

	logger.Info("Successfully connected to PostgreSQL database", nil, nil)

	return database, nil
}

// DB returns the underlying GORM client for cases where direct access is
// needed.
func (p *Postgres) DB() *gorm.DB {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

// Shutdown signals the monitoring goroutines to stop and closes the
// underlying connection pool.
func (p *Postgres) Shutdown() error {
	p.closeShutdownOnce.Do(func() {
		close(p.shutdownSignal)
	})

	p.mu.RLock()
	defer p.mu.RUnlock()

	db, err := p.client.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// RetryConnection continuously attempts to reconnect to the database when
// notified of a connection failure. It operates as a goroutine that waits
// for signals on retryChanSignal before attempting reconnection, and
// respects context cancellation and shutdown signals.
func (p *Postgres) RetryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-p.shutdownSignal:
			p.logger.Info("Stopping RetryConnection loop due to shutdown signal", nil, nil)
			return
		case <-ctx.Done():
			return
		case <-p.retryChanSignal:
		innerLoop:
			for {
				select {
				case <-p.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
					newConn, err := connectToPostgres(p.logger, p.cfg)
					if err != nil {
						p.logger.Error("Reconnection failed", err, nil)
						time.Sleep(time.Second)
						continue innerLoop
					}
					p.mu.Lock()
					p.client = newConn
					p.mu.Unlock()
					p.logger.Info("Reconnected to PostgreSQL database", nil, nil)
					continue outerLoop
				}
			}
		}
	}
}

// MonitorConnection periodically checks the health of the database
// connection and signals the RetryConnection goroutine when a failure is
// detected.
func (p *Postgres) MonitorConnection(ctx context.Context) {
	defer p.closeRetryChanOnce.Do(func() {
		close(p.retryChanSignal)
	})

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdownSignal:
			p.logger.Info("Stopping MonitorConnection loop due to shutdown signal", nil, nil)
			return
		case <-ticker.C:
			err := p.healthCheck()
			if err != nil {
				select {
				case p.retryChanSignal <- err:
				default:
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// healthCheck pings the database with a 5 second timeout.
func (p *Postgres) healthCheck() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.client == nil {
		return fmt.Errorf("database client is not initialized")
	}

	db, err := p.client.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}

	return nil
}
