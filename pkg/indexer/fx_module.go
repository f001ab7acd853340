package indexer

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pgsearch/pkg/embedding"
	"github.com/Aleph-Alpha/pgsearch/pkg/logger"
	"github.com/Aleph-Alpha/pgsearch/pkg/metrics"
	"github.com/Aleph-Alpha/pgsearch/pkg/postgres"
	"github.com/Aleph-Alpha/pgsearch/pkg/schema"
)

// FXModule provides the Indexer to the fx dependency graph.
var FXModule = fx.Module("indexer",
	fx.Provide(
		NewConfig,
		newIndexerFromParams,
		func(l *logger.Logger) Logger { return l },
	),
)

type indexerParams struct {
	fx.In

	Config       Config
	SchemaConfig schema.Config
	Postgres     *postgres.Postgres
	Provider     embedding.Provider `optional:"true"`
	Logger       Logger
	Metrics      *metrics.Metrics `optional:"true"`
}

func newIndexerFromParams(p indexerParams) *Indexer {
	return NewIndexer(p.Config, p.SchemaConfig, p.Postgres, p.Provider, p.Logger, p.Metrics)
}
