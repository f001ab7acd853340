package postgres

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pgsearch/pkg/logger"
)

// FXModule is an fx module that provides the Postgres database component.
// It registers the Postgres constructor for dependency injection and sets up
// lifecycle hooks to start the connection monitor and shut the pool down
// cleanly.
var FXModule = fx.Module("postgres",
	fx.Provide(
		NewConfig,
		NewPostgresClientWithDI,
		func(l *logger.Logger) Logger { return l },
	),
	fx.Invoke(RegisterPostgresLifecycle),
)

// PostgresParams groups the dependencies needed to create a Postgres client
// via dependency injection.
type PostgresParams struct {
	fx.In

	Config Config
	Logger Logger
}

// NewPostgresClientWithDI creates a new Postgres client using dependency
// injection. It delegates to NewPostgres.
func NewPostgresClientWithDI(params PostgresParams) (*Postgres, error) {
	return NewPostgres(params.Config, params.Logger)
}

// RegisterPostgresLifecycle starts the connection monitoring goroutines on
// application start and shuts the connection down on stop.
func RegisterPostgresLifecycle(lc fx.Lifecycle, pg *Postgres) {
	monitorCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go pg.MonitorConnection(monitorCtx)
			go pg.RetryConnection(monitorCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return pg.Shutdown()
		},
	})
}
