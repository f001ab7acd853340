package search

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pgsearch/pkg/logger"
	"github.com/Aleph-Alpha/pgsearch/pkg/metrics"
	"github.com/Aleph-Alpha/pgsearch/pkg/postgres"
	"github.com/Aleph-Alpha/pgsearch/pkg/query"
	"github.com/Aleph-Alpha/pgsearch/pkg/tracer"
)

// FXModule provides the search Service to the fx dependency graph.
var FXModule = fx.Module("search",
	fx.Provide(
		newServiceFromParams,
		func(l *logger.Logger) Logger { return l },
	),
)

type serviceParams struct {
	fx.In

	Builder  *query.Builder
	Postgres *postgres.Postgres
	Logger   Logger
	Metrics  *metrics.Metrics `optional:"true"`
	Tracer   *tracer.Tracer   `optional:"true"`
}

func newServiceFromParams(p serviceParams) *Service {
	return NewService(p.Builder, p.Postgres, p.Logger, p.Metrics, p.Tracer)
}
