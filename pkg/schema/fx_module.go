package schema

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pgsearch/pkg/logger"
	"github.com/Aleph-Alpha/pgsearch/pkg/postgres"
)

// FXModule provides the schema Manager to the fx dependency graph. The
// Executor is satisfied by the postgres module's connection.
var FXModule = fx.Module("schema",
	fx.Provide(
		NewConfig,
		NewManager,
		func(l *logger.Logger) Logger { return l },
		func(pg *postgres.Postgres) Executor { return pg },
	),
)
