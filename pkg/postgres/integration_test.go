package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type testLogger struct{ t *testing.T }

func (l testLogger) Info(msg string, err error, _ ...map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, err) }
func (l testLogger) Debug(msg string, err error, _ ...map[string]interface{}) { l.t.Logf("DEBUG: %s %v", msg, err) }
func (l testLogger) Warn(msg string, err error, _ ...map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, err) }
func (l testLogger) Error(msg string, err error, _ ...map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, err) }
func (l testLogger) Fatal(msg string, err error, _ ...map[string]interface{}) { l.t.Logf("FATAL: %s %v", msg, err) }

// postgresContainer represents a PostgreSQL container for testing.
type postgresContainer struct {
	testcontainers.Container
	Config Config
}

// setupPostgresContainer starts a pgvector-enabled PostgreSQL container.
func setupPostgresContainer(ctx context.Context) (*postgresContainer, error) {
	req := testcontainers.ContainerRequest{
		Image: "pgvector/pgvector:pg16",
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.AutoRemove = true
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}
	mappedPort, err := c.MappedPort(ctx, nat.Port("5432"))
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	if err := waitForPostgresReady(host, mappedPort.Port(), 30*time.Second); err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("postgres container not ready: %w", err)
	}

	cfg := NewConfig()
	cfg.Connection.Host = host
	cfg.Connection.Port = mappedPort.Port()
	cfg.Connection.User = "testuser"
	cfg.Connection.Password = "testpass"
	cfg.Connection.DbName = "testdb"
	cfg.Connection.SSLMode = "disable"

	return &postgresContainer{Container: c, Config: cfg}, nil
}

// waitForPostgresReady polls until the server accepts real connections; the
// log wait above fires once per initdb restart and can race.
func waitForPostgresReady(host, port string, timeout time.Duration) error {
	dsn := fmt.Sprintf("host=%s port=%s user=testuser password=testpass dbname=testdb sslmode=disable", host, port)
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			err = db.Ping()
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("postgres not ready on %s:%s after %s", host, port, timeout)
}

func TestPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	c, err := setupPostgresContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}()

	pg, err := NewPostgres(c.Config, testLogger{t})
	require.NoError(t, err)
	defer func() { _ = pg.Shutdown() }()

	t.Run("Execute", func(t *testing.T) {
		rows, err := pg.Execute(ctx, "SELECT :a + :b AS total", map[string]any{"a": 1, "b": 2})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		total, ok := rows[0]["total"]
		require.True(t, ok)
		assert.EqualValues(t, 3, total)
	})

	t.Run("StatementsAndIntrospection", func(t *testing.T) {
		require.NoError(t, pg.ExecRaw(ctx, `CREATE TABLE "it_things" ("id" TEXT PRIMARY KEY, "amount" BIGINT)`))

		exists, err := pg.TableExists(ctx, "it_things")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = pg.TableExists(ctx, "it_missing")
		require.NoError(t, err)
		assert.False(t, exists)

		columns, err := pg.GetColumns(ctx, "it_things")
		require.NoError(t, err)
		names := make([]string, len(columns))
		for i, col := range columns {
			names[i] = col.Name
		}
		assert.ElementsMatch(t, []string{"id", "amount"}, names)

		affected, err := pg.ExecuteStatement(ctx,
			`INSERT INTO "it_things" ("id", "amount") VALUES (:id, :amount)`,
			map[string]any{"id": "a", "amount": 7})
		require.NoError(t, err)
		assert.EqualValues(t, 1, affected)

		found, err := pg.Exists(ctx, `SELECT 1 FROM "it_things" WHERE "amount" > :floor`, map[string]any{"floor": 5})
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("QueryExecutionError", func(t *testing.T) {
		_, err := pg.Execute(ctx, `SELECT * FROM "it_does_not_exist"`, nil)
		var queryErr *QueryExecutionError
		require.ErrorAs(t, err, &queryErr)
		assert.Equal(t, "42P01", queryErr.Code) // undefined_table
	})

	t.Run("TransactionRollsBack", func(t *testing.T) {
		sentinel := errors.New("abort")
		err := pg.WithTransaction(ctx, func(tx Runner) error {
			if _, err := tx.ExecuteStatement(ctx,
				`INSERT INTO "it_things" ("id", "amount") VALUES (:id, :amount)`,
				map[string]any{"id": "rollback-me", "amount": 1}); err != nil {
				return err
			}
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)

		found, err := pg.Exists(ctx, `SELECT 1 FROM "it_things" WHERE "id" = :id`, map[string]any{"id": "rollback-me"})
		require.NoError(t, err)
		assert.False(t, found)
	})
}
