package query

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pgsearch/pkg/embedding"
	"github.com/Aleph-Alpha/pgsearch/pkg/logger"
	"github.com/Aleph-Alpha/pgsearch/pkg/schema"
)

// FXModule provides the query Builder to the fx dependency graph.
var FXModule = fx.Module("query",
	fx.Provide(
		NewConfig,
		newBuilderFromParams,
		func(l *logger.Logger) Logger { return l },
	),
)

type builderParams struct {
	fx.In

	Config       Config
	SchemaConfig schema.Config
	Provider     embedding.Provider `optional:"true"`
	Logger       Logger
}

func newBuilderFromParams(p builderParams) (*Builder, error) {
	return NewBuilder(p.Config, p.SchemaConfig, p.Provider, p.Logger)
}
