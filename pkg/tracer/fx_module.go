package tracer

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pgsearch/pkg/logger"
)

var FXModule = fx.Module("tracer",
	fx.Provide(
		NewConfig,
		NewClient,
		func(l *logger.Logger) Logger { return l },
	),
	fx.Invoke(RegisterTracerLifecycle),
)

func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			tracer.logger.Info("shutting down tracer...", nil, nil)
			if tracer.tracer == nil {
				tracer.logger.Warn("tracer was nil during shutdown", nil, nil)
				return nil
			}
			return tracer.tracer.Shutdown(ctx)
		},
	})
}
