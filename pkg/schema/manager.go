package schema

import (
	"context"
	"fmt"
)

// Logger defines the interface for logging operations within the schema package.
//
//go:generate mockgen -source=manager.go -destination=mock_manager.go -package=schema
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Executor is the slice of the database connector the Manager needs: raw
// statement execution plus an existence probe. *postgres.Postgres satisfies it.
type Executor interface {
	ExecRaw(ctx context.Context, sql string) error
	Exists(ctx context.Context, sql string, params map[string]any) (bool, error)
}

// Config holds the schema manager settings.
type Config struct {
	// TablePrefix is prepended to every index ID to form the physical table
	// name. Default "search_api_".
	TablePrefix string `yaml:"table_prefix" envconfig:"SEARCH_TABLE_PREFIX"`

	// FulltextConfig is the PostgreSQL text search configuration used for
	// to_tsvector/to_tsquery. Default "english".
	FulltextConfig string `yaml:"fulltext_config" envconfig:"SEARCH_FULLTEXT_CONFIG"`
}

// NewConfig returns a Config with defaults applied.
func NewConfig() Config {
	return Config{
		TablePrefix:    "search_api_",
		FulltextConfig: "english",
	}
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.TablePrefix == "" {
		out.TablePrefix = "search_api_"
	}
	if out.FulltextConfig == "" {
		out.FulltextConfig = "english"
	}
	return out
}

// Manager creates and drops the physical schema backing search indexes.
type Manager struct {
	cfg    Config
	db     Executor
	logger Logger
}

// NewManager constructs a Manager. Both dependencies are required.
func NewManager(cfg Config, db Executor, logger Logger) *Manager {
	return &Manager{cfg: cfg.withDefaults(), db: db, logger: logger}
}

// TablePrefix exposes the configured prefix for consumers that build query
// SQL against manager-created tables.
func (m *Manager) TablePrefix() string {
	return m.cfg.TablePrefix
}

// FulltextConfig exposes the configured text search configuration.
func (m *Manager) FulltextConfig() string {
	return m.cfg.FulltextConfig
}

// EnsureVectorExtension verifies pgvector is installed when the index needs
// it. Returns *VectorExtensionUnavailableError if the extension is missing.
func (m *Manager) EnsureVectorExtension(ctx context.Context, index *Index) error {
	if !index.HasVector() {
		return nil
	}

	installed, err := m.db.Exists(ctx, "SELECT 1 FROM pg_extension WHERE extname = 'vector'", nil)
	if err != nil {
		return fmt.Errorf("schema: probing pgvector extension: %w", err)
	}
	if !installed {
		return &VectorExtensionUnavailableError{IndexID: index.ID}
	}
	return nil
}

// CreateIndex creates the table, supporting indexes, and the tsvector
// trigger for the given index description.
func (m *Manager) CreateIndex(ctx context.Context, index *Index) error {
	if err := m.EnsureVectorExtension(ctx, index); err != nil {
		return err
	}

	builder, err := newDDLBuilder(index, m.cfg.TablePrefix, m.cfg.FulltextConfig)
	if err != nil {
		return err
	}

	createTable, err := builder.createTable()
	if err != nil {
		return err
	}
	if err := m.db.ExecRaw(ctx, createTable); err != nil {
		return fmt.Errorf("schema: creating table for index %s: %w", index.ID, err)
	}

	ftIndex, err := builder.fulltextIndex()
	if err != nil {
		return err
	}
	if err := m.db.ExecRaw(ctx, ftIndex); err != nil {
		return fmt.Errorf("schema: creating fulltext index for %s: %w", index.ID, err)
	}

	if index.HasVector() {
		if err := m.createVectorIndex(ctx, builder, index); err != nil {
			return err
		}
	}

	fieldIndexes, err := builder.fieldIndexes()
	if err != nil {
		return err
	}
	for _, stmt := range fieldIndexes {
		if err := m.db.ExecRaw(ctx, stmt); err != nil {
			return fmt.Errorf("schema: creating field index for %s: %w", index.ID, err)
		}
	}

	function, err := builder.tsvectorFunction()
	if err != nil {
		return err
	}
	if err := m.db.ExecRaw(ctx, function); err != nil {
		return fmt.Errorf("schema: creating tsvector function for %s: %w", index.ID, err)
	}

	trigger, err := builder.tsvectorTrigger()
	if err != nil {
		return err
	}
	if err := m.db.ExecRaw(ctx, trigger); err != nil {
		return fmt.Errorf("schema: creating tsvector trigger for %s: %w", index.ID, err)
	}

	m.logger.Info("created search index schema", nil, map[string]interface{}{
		"index":  index.ID,
		"vector": index.HasVector(),
	})
	return nil
}

// createVectorIndex attempts an HNSW index and falls back to IVFFlat when
// the server's pgvector build rejects it.
func (m *Manager) createVectorIndex(ctx context.Context, builder *ddlBuilder, index *Index) error {
	hnsw, err := builder.vectorIndexHNSW()
	if err != nil {
		return err
	}
	hnswErr := m.db.ExecRaw(ctx, hnsw)
	if hnswErr == nil {
		return nil
	}
	m.logger.Warn("HNSW index creation failed, falling back to IVFFlat", hnswErr, map[string]interface{}{
		"index": index.ID,
	})

	ivfflat, err := builder.vectorIndexIVFFlat()
	if err != nil {
		return err
	}
	if err := m.db.ExecRaw(ctx, ivfflat); err != nil {
		return fmt.Errorf("schema: creating vector index for %s: %w", index.ID, err)
	}
	return nil
}

// DropIndex removes the index table and its trigger function.
func (m *Manager) DropIndex(ctx context.Context, index *Index) error {
	builder, err := newDDLBuilder(index, m.cfg.TablePrefix, m.cfg.FulltextConfig)
	if err != nil {
		return err
	}

	if err := m.db.ExecRaw(ctx, builder.dropTable()); err != nil {
		return fmt.Errorf("schema: dropping table for index %s: %w", index.ID, err)
	}

	dropFunction, err := builder.dropFunction()
	if err != nil {
		return err
	}
	if err := m.db.ExecRaw(ctx, dropFunction); err != nil {
		return fmt.Errorf("schema: dropping tsvector function for %s: %w", index.ID, err)
	}

	m.logger.Info("dropped search index schema", nil, map[string]interface{}{"index": index.ID})
	return nil
}

// AddField alters the index table with a column for a new field and rebuilds
// the tsvector function so searchable content is picked up. The caller must
// have added the field to index.Fields already.
func (m *Manager) AddField(ctx context.Context, index *Index, field Field) error {
	builder, err := newDDLBuilder(index, m.cfg.TablePrefix, m.cfg.FulltextConfig)
	if err != nil {
		return err
	}

	alter, err := builder.addField(field)
	if err != nil {
		return err
	}
	if err := m.db.ExecRaw(ctx, alter); err != nil {
		return fmt.Errorf("schema: adding field %s to index %s: %w", field.ID, index.ID, err)
	}

	if field.Searchable {
		function, err := builder.tsvectorFunction()
		if err != nil {
			return err
		}
		if err := m.db.ExecRaw(ctx, function); err != nil {
			return fmt.Errorf("schema: rebuilding tsvector function for %s: %w", index.ID, err)
		}
	}
	return nil
}
