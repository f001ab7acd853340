package metrics

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"
)

// FXModule provides the Metrics instance and runs the scrape endpoint for the
// lifetime of the application.
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewConfig,
		NewMetrics,
	),
	fx.Invoke(registerServerHooks),
)

func registerServerHooks(lc fx.Lifecycle, m *Metrics) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := m.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return m.Server.Shutdown(ctx)
		},
	})
}
