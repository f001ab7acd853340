package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/pgsearch/pkg/condition"
	"github.com/Aleph-Alpha/pgsearch/pkg/embedding"
	"github.com/Aleph-Alpha/pgsearch/pkg/fieldmap"
	"github.com/Aleph-Alpha/pgsearch/pkg/identifier"
	"github.com/Aleph-Alpha/pgsearch/pkg/schema"
)

// Logger defines the interface for logging operations within the query package.
//
//go:generate mockgen -source=builder.go -destination=mock_builder.go -package=query
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Builder compiles Requests into SQL Artifacts. It holds no connection; the
// produced Artifacts are executed elsewhere.
type Builder struct {
	cfg      Config
	prefix   string
	provider embedding.Provider
	logger   Logger
}

// NewBuilder constructs a Builder. The provider may be nil, which disables
// vector and hybrid modes.
func NewBuilder(cfg Config, schemaCfg schema.Config, provider embedding.Provider, logger Logger) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prefix := schemaCfg.TablePrefix
	if prefix == "" {
		prefix = "search_api_"
	}
	return &Builder{cfg: cfg, prefix: prefix, provider: provider, logger: logger}, nil
}

// Compiled is the shared base of one request: the resolved mode, the WHERE
// clause, and its parameters. The main query and every facet over the same
// request derive from it, so the embedding provider is called at most once
// per request.
type Compiled struct {
	// Mode is the effectively used mode, after any fallback.
	Mode Mode

	builder *Builder
	index   *schema.Index
	req     Request
	table   identifier.Identifier
	where   []string
	params  map[string]any

	tsQueryParam      string
	embedParam        string
	textWeightParam   string
	vectorWeightParam string
}

// Compile validates the request against the index, resolves the search mode,
// fetches the query embedding when needed, and prepares the shared WHERE
// clause. A provider failure downgrades to text-only and never errors.
func (b *Builder) Compile(ctx context.Context, index *schema.Index, req Request) (*Compiled, error) {
	if err := index.Validate(); err != nil {
		return nil, err
	}
	table, err := index.TableName(b.prefix)
	if err != nil {
		return nil, err
	}

	c := &Compiled{builder: b, index: index, req: req, table: table, params: map[string]any{}}

	mode, vec := b.resolveMode(ctx, index, req)
	c.Mode = mode

	if err := c.compileWhere(vec); err != nil {
		return nil, err
	}
	return c, nil
}

// Build is Compile followed by Query, for callers without facets.
func (b *Builder) Build(ctx context.Context, index *schema.Index, req Request) (*Artifact, error) {
	c, err := b.Compile(ctx, index, req)
	if err != nil {
		return nil, err
	}
	return c.Query()
}

// resolveMode picks the effective mode and, for vector-capable modes, the
// query embedding. Any condition that makes vectors unusable (no keys, no
// provider, no embedding column, provider failure) degrades to text-only.
func (b *Builder) resolveMode(ctx context.Context, index *schema.Index, req Request) (Mode, []float32) {
	mode := req.Mode
	if mode == ModeAuto {
		if index.HasVector() && b.provider != nil && !req.Keys.IsEmpty() {
			mode = ModeHybrid
		} else {
			mode = ModeTextOnly
		}
	}
	if mode == ModeTextOnly {
		return ModeTextOnly, nil
	}

	if req.Keys.IsEmpty() || b.provider == nil || !index.HasVector() {
		b.logger.Debug("vector search unavailable for request, using text-only", nil, map[string]interface{}{
			"index":          index.ID,
			"requested_mode": mode.String(),
			"has_keys":       !req.Keys.IsEmpty(),
			"has_provider":   b.provider != nil,
			"has_vector":     index.HasVector(),
		})
		return ModeTextOnly, nil
	}

	vec, err := b.provider.GenerateEmbedding(ctx, req.Keys.FlatText())
	if err != nil {
		b.logger.Warn("embedding provider failed, falling back to text-only search", err, map[string]interface{}{
			"index":          index.ID,
			"requested_mode": mode.String(),
		})
		return ModeTextOnly, nil
	}
	if err := fieldmap.ValidateDimension(vec, index.VectorDimension); err != nil {
		b.logger.Warn("embedding dimension mismatch, falling back to text-only search", err, map[string]interface{}{
			"index": index.ID,
		})
		return ModeTextOnly, nil
	}
	return mode, vec
}

func (c *Compiled) compileWhere(vec []float32) error {
	cfg := c.builder.cfg

	// The reserved parameters are bound first so the ranking expressions are
	// available to condition leaves; condition placeholders pick fresh names
	// on collision.
	keyed := !c.req.Keys.IsEmpty()
	if keyed && c.Mode != ModeVectorOnly {
		c.tsQueryParam = c.bindParam("ts_query", tsQueryText(c.req.Keys))
	}

	textPredicate := ""
	if c.tsQueryParam != "" {
		textPredicate = fmt.Sprintf(`%s @@ to_tsquery('%s', :%s)`,
			quoted(schema.ColumnSearchVector), cfg.FulltextConfig, c.tsQueryParam)
	}

	vectorPredicate := ""
	if vec != nil {
		c.embedParam = c.bindParam("query_embedding", fieldmap.FormatVector(vec))
		threshold := c.bindParam("similarity_threshold", cfg.SimilarityThreshold)
		vectorPredicate = fmt.Sprintf(`(%s IS NOT NULL AND (1 - (%s <=> :%s)) >= :%s)`,
			quoted(schema.ColumnEmbedding), quoted(schema.ColumnEmbedding), c.embedParam, threshold)
	}

	if c.Mode == ModeHybrid {
		c.textWeightParam = c.bindParam("text_weight", cfg.TextWeight)
		c.vectorWeightParam = c.bindParam("vector_weight", cfg.VectorWeight)
	}

	if c.req.Condition != nil {
		clause, params, err := condition.TranslateWith(c.req.Condition, c.index, condition.Options{
			Expressions: map[string]string{
				schema.ColumnRelevance: c.relevanceExpr(),
				schema.ColumnRandom:    "RANDOM()",
			},
			Reserved: c.paramNames(),
		})
		if err != nil {
			return err
		}
		if clause != "" {
			c.where = append(c.where, "("+clause+")")
			for name, value := range params {
				c.params[name] = value
			}
		}
	}

	switch c.Mode {
	case ModeTextOnly:
		if textPredicate != "" {
			c.where = append(c.where, textPredicate)
		}
	case ModeVectorOnly:
		c.where = append(c.where, vectorPredicate)
	case ModeHybrid:
		c.where = append(c.where, "("+textPredicate+" OR "+vectorPredicate+")")
	}

	if len(c.req.Languages) > 0 {
		placeholders := make([]string, len(c.req.Languages))
		for i, lang := range c.req.Languages {
			name := c.bindParam(fmt.Sprintf("language_%d", i), lang)
			placeholders[i] = ":" + name
		}
		c.where = append(c.where, fmt.Sprintf("%s IN (%s)", quoted(schema.ColumnLanguage), strings.Join(placeholders, ", ")))
	}

	return nil
}

// bindParam stores a value under the given name, appending a numeric suffix
// when the name is already taken.
func (c *Compiled) bindParam(name string, value any) string {
	actual := name
	for i := 2; ; i++ {
		if _, taken := c.params[actual]; !taken {
			break
		}
		actual = fmt.Sprintf("%s_%d", name, i)
	}
	c.params[actual] = value
	return actual
}

// paramNames returns the names bound so far, for handing to the condition
// translator as reserved.
func (c *Compiled) paramNames() []string {
	names := make([]string, 0, len(c.params))
	for name := range c.params {
		names = append(names, name)
	}
	return names
}

// Query assembles the main SELECT for the request.
func (c *Compiled) Query() (*Artifact, error) {
	columns, err := c.selectColumns()
	if err != nil {
		return nil, err
	}
	orderBy, err := c.orderBy()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(c.table.Quoted())
	if len(c.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(c.where, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderBy)
	if c.req.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", c.req.Limit)
	}
	if c.req.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", c.req.Offset)
	}

	return &Artifact{SQL: sb.String(), Params: c.cloneParams(), Mode: c.Mode}, nil
}

func (c *Compiled) selectColumns() ([]string, error) {
	columns := []string{
		quoted(schema.ColumnItemID),
		quoted(schema.ColumnDatasource),
		quoted(schema.ColumnLanguage),
	}

	fieldIDs := c.req.Fields
	if len(fieldIDs) == 0 {
		fieldIDs = c.index.FieldIDs()
	}
	for _, id := range fieldIDs {
		column, ok := c.index.Column(id)
		if !ok {
			return nil, &condition.UnknownFieldError{Field: id, Index: c.index.ID}
		}
		col, err := identifier.Validate(column, identifier.KindColumn)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col.Quoted())
	}

	return append(columns, c.scoreColumns()...), nil
}

// scoreColumns returns the ranking expressions. The relevance column is
// always emitted; consumers read it regardless of mode or keys.
func (c *Compiled) scoreColumns() []string {
	if c.Mode == ModeHybrid {
		hybrid := c.hybridScoreExpr()
		return []string{
			c.textScoreExpr() + ` AS "text_score"`,
			c.vectorScoreExpr() + ` AS "vector_score"`,
			hybrid + ` AS "hybrid_score"`,
			hybrid + ` AS "relevance"`,
		}
	}
	return []string{c.relevanceExpr() + ` AS "relevance"`}
}

// relevanceExpr is the expression behind the "relevance" output column for
// the effective mode. Condition leaves on the relevance field compare against
// it directly, since SELECT aliases are not visible in WHERE.
func (c *Compiled) relevanceExpr() string {
	switch c.Mode {
	case ModeVectorOnly:
		return c.vectorScoreExpr()
	case ModeHybrid:
		return c.hybridScoreExpr()
	default:
		if c.tsQueryParam != "" {
			return c.textScoreExpr()
		}
		return "1.0"
	}
}

func (c *Compiled) textScoreExpr() string {
	return fmt.Sprintf(`ts_rank(%s, to_tsquery('%s', :%s))`,
		quoted(schema.ColumnSearchVector), c.builder.cfg.FulltextConfig, c.tsQueryParam)
}

// vectorScoreExpr is cosine similarity, coalesced to 0 so rows matched only
// by text in hybrid mode never carry a NULL score.
func (c *Compiled) vectorScoreExpr() string {
	return fmt.Sprintf(`COALESCE(1 - (%s <=> :%s), 0)`, quoted(schema.ColumnEmbedding), c.embedParam)
}

func (c *Compiled) hybridScoreExpr() string {
	return fmt.Sprintf(`(:%s * %s + :%s * %s)`,
		c.textWeightParam, c.textScoreExpr(), c.vectorWeightParam, c.vectorScoreExpr())
}

func (c *Compiled) orderBy() (string, error) {
	if len(c.req.Sorts) == 0 {
		if c.tsQueryParam != "" || c.Mode != ModeTextOnly {
			return `"relevance" DESC`, nil
		}
		return quoted(schema.ColumnItemID) + " ASC", nil
	}

	parts := make([]string, 0, len(c.req.Sorts))
	for _, sort := range c.req.Sorts {
		direction := sort.Direction
		if direction == "" {
			direction = Ascending
		}
		if direction != Ascending && direction != Descending {
			return "", &InvalidSortError{Field: sort.Field, Reason: fmt.Sprintf("invalid direction %q", string(sort.Direction))}
		}

		switch sort.Field {
		case schema.ColumnRelevance:
			parts = append(parts, fmt.Sprintf(`"relevance" %s`, direction))
			continue
		case schema.ColumnRandom:
			parts = append(parts, "RANDOM()")
			continue
		}

		column, ok := c.index.Column(sort.Field)
		if !ok {
			return "", &InvalidSortError{Field: sort.Field, Reason: "unknown field"}
		}
		if field, isField := c.index.Fields[sort.Field]; isField && !field.Sortable {
			return "", &InvalidSortError{Field: sort.Field, Reason: "field is not sortable"}
		}
		col, err := identifier.Validate(column, identifier.KindColumn)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s %s", col.Quoted(), direction))
	}
	return strings.Join(parts, ", "), nil
}

func (c *Compiled) cloneParams() map[string]any {
	out := make(map[string]any, len(c.params))
	for name, value := range c.params {
		out[name] = value
	}
	return out
}

func quoted(column string) string {
	return `"` + column + `"`
}

// tsQueryText lowers a keys tree into to_tsquery input. Terms are stripped of
// tsquery metacharacters so user input can never alter the query structure.
func tsQueryText(keys *Keys) string {
	return tsQueryGroup(keys)
}

func tsQueryGroup(keys *Keys) string {
	if keys == nil {
		return ""
	}
	var parts []string
	for _, term := range keys.Terms {
		if clean := sanitizeTerm(term); clean != "" {
			parts = append(parts, clean)
		}
	}
	for _, group := range keys.Groups {
		if sub := tsQueryGroup(group); sub != "" {
			parts = append(parts, "("+sub+")")
		}
	}

	separator := " & "
	if keys.Conjunction == condition.Or {
		separator = " | "
	}
	return strings.Join(parts, separator)
}

// sanitizeTerm drops tsquery syntax characters from a user-supplied term so
// the term text can never alter the query structure.
func sanitizeTerm(term string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '&', '|', '!', '(', ')', ':', '*', '\'', '\\', '<', '>':
			return -1
		}
		return r
	}, strings.TrimSpace(term))
}
