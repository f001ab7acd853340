package condition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/pgsearch/pkg/fieldmap"
	"github.com/Aleph-Alpha/pgsearch/pkg/schema"
)

func testIndex() *schema.Index {
	return &schema.Index{
		ID: "articles",
		Fields: map[string]schema.Field{
			"title":    {ID: "title", Type: fieldmap.TypeText, Searchable: true},
			"category": {ID: "category", Type: fieldmap.TypeString, Facetable: true},
			"created":  {ID: "created", Type: fieldmap.TypeDate, Sortable: true},
			"price":    {ID: "price", Type: fieldmap.TypeDecimal},
			"status":   {ID: "status", Type: fieldmap.TypeBoolean, RequiresBooleanCast: true},
		},
	}
}

func TestTranslate_BinaryComparison(t *testing.T) {
	clause, params, err := Translate(New("category", OpEquals, "news"), testIndex())
	require.NoError(t, err)

	assert.Equal(t, `"category" = :category`, clause)
	assert.Equal(t, map[string]any{"category": "news"}, params)
}

func TestTranslate_AllComparisonOperators(t *testing.T) {
	for _, tc := range []struct {
		op   Operator
		want string
	}{
		{OpEquals, "="},
		{OpNotEquals, "<>"},
		{OpLess, "<"},
		{OpLessEqual, "<="},
		{OpGreater, ">"},
		{OpGreaterEqual, ">="},
	} {
		clause, _, err := Translate(New("price", tc.op, 10), testIndex())
		require.NoError(t, err)
		assert.Equal(t, `"price" `+tc.want+` :price`, clause)
	}
}

func TestTranslate_UnknownField(t *testing.T) {
	_, _, err := Translate(New("nope", OpEquals, 1), testIndex())

	var unknown *UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "nope", unknown.Field)
	assert.Equal(t, "articles", unknown.Index)
}

func TestTranslate_SystemFieldBypassesSchema(t *testing.T) {
	clause, params, err := Translate(New(schema.ColumnLanguage, OpEquals, "en"), testIndex())
	require.NoError(t, err)

	assert.Equal(t, `"search_api_language" = :search_api_language`, clause)
	assert.Equal(t, "en", params["search_api_language"])
}

func TestTranslate_In(t *testing.T) {
	clause, params, err := Translate(New("category", OpIn, []any{"a", "b", "c"}), testIndex())
	require.NoError(t, err)

	assert.Equal(t, `"category" IN (:category_in_0, :category_in_1, :category_in_2)`, clause)
	assert.Equal(t, map[string]any{
		"category_in_0": "a",
		"category_in_1": "b",
		"category_in_2": "c",
	}, params)
}

func TestTranslate_InAcceptsTypedSlices(t *testing.T) {
	clause, params, err := Translate(New("price", OpIn, []int{1, 2}), testIndex())
	require.NoError(t, err)
	assert.Equal(t, `"price" IN (:price_in_0, :price_in_1)`, clause)
	assert.Equal(t, 1, params["price_in_0"])
}

func TestTranslate_EmptyIn(t *testing.T) {
	clause, params, err := Translate(New("category", OpIn, []any{}), testIndex())
	require.NoError(t, err)
	assert.Equal(t, "1 = 0", clause)
	assert.Empty(t, params)
}

func TestTranslate_EmptyNotIn(t *testing.T) {
	clause, params, err := Translate(New("category", OpNotIn, []any{}), testIndex())
	require.NoError(t, err)
	assert.Equal(t, "1 = 1", clause)
	assert.Empty(t, params)
}

func TestTranslate_Between(t *testing.T) {
	clause, params, err := Translate(New("price", OpBetween, []any{1.5, 9.5}), testIndex())
	require.NoError(t, err)

	assert.Equal(t, `"price" BETWEEN :price_min AND :price_max`, clause)
	assert.Equal(t, 1.5, params["price_min"])
	assert.Equal(t, 9.5, params["price_max"])
}

func TestTranslate_BetweenWrongArity(t *testing.T) {
	for _, value := range []any{[]any{1}, []any{1, 2, 3}, "not a slice"} {
		_, _, err := Translate(New("price", OpBetween, value), testIndex())

		var arity *ArityError
		require.True(t, errors.As(err, &arity), "value %v", value)
		assert.Equal(t, OpBetween, arity.Operator)
	}
}

func TestTranslate_PatternOperators(t *testing.T) {
	clause, params, err := Translate(New("title", OpContains, "fox"), testIndex())
	require.NoError(t, err)
	assert.Equal(t, `"title" ILIKE :title`, clause)
	assert.Equal(t, "%fox%", params["title"])

	_, params, err = Translate(New("title", OpStartsWith, "qui"), testIndex())
	require.NoError(t, err)
	assert.Equal(t, "qui%", params["title"])

	_, params, err = Translate(New("title", OpEndsWith, "own"), testIndex())
	require.NoError(t, err)
	assert.Equal(t, "%own", params["title"])
}

func TestTranslate_PatternEscapesWildcards(t *testing.T) {
	_, params, err := Translate(New("title", OpContains, "50%_off\\now"), testIndex())
	require.NoError(t, err)
	assert.Equal(t, `%50\%\_off\\now%`, params["title"])
}

func TestTranslate_NullOperators(t *testing.T) {
	clause, params, err := Translate(New("price", OpIsNull, nil), testIndex())
	require.NoError(t, err)
	assert.Equal(t, `"price" IS NULL`, clause)
	assert.Empty(t, params)

	clause, _, err = Translate(New("price", OpIsNotNull, nil), testIndex())
	require.NoError(t, err)
	assert.Equal(t, `"price" IS NOT NULL`, clause)
}

func TestTranslate_BooleanCastOnNumericValue(t *testing.T) {
	clause, params, err := Translate(New("status", OpEquals, 1), testIndex())
	require.NoError(t, err)

	assert.Equal(t, `"status" = :status::boolean`, clause)
	assert.Equal(t, 1, params["status"])
}

func TestTranslate_NoBooleanCastOnBoolValue(t *testing.T) {
	clause, _, err := Translate(New("status", OpEquals, true), testIndex())
	require.NoError(t, err)
	assert.Equal(t, `"status" = :status`, clause)
}

func TestTranslate_NestedGroups(t *testing.T) {
	tree := OrGroup(
		New("category", OpEquals, "a"),
		AndGroup(
			New("price", OpGreater, 5),
			New("price", OpLess, 10),
		),
	)

	clause, params, err := Translate(tree, testIndex())
	require.NoError(t, err)

	assert.Equal(t, `"category" = :category OR ("price" > :price AND "price" < :price_2)`, clause)
	assert.Equal(t, 5, params["price"])
	assert.Equal(t, 10, params["price_2"])
}

func TestTranslate_RepeatedFieldsGetUniquePlaceholders(t *testing.T) {
	tree := AndGroup(
		New("category", OpEquals, "a"),
		New("category", OpNotEquals, "b"),
		New("category", OpEquals, "c"),
	)

	clause, params, err := Translate(tree, testIndex())
	require.NoError(t, err)

	assert.Equal(t, `"category" = :category AND "category" <> :category_2 AND "category" = :category_3`, clause)
	assert.Len(t, params, 3)
}

func TestTranslate_GeneratedNamesShareOneNamespace(t *testing.T) {
	idx := testIndex()
	idx.Fields["category_in_0"] = schema.Field{ID: "category_in_0", Type: fieldmap.TypeString}

	tree := AndGroup(
		New("category", OpIn, []any{"x"}),
		New("category_in_0", OpEquals, "y"),
	)

	clause, params, err := Translate(tree, idx)
	require.NoError(t, err)

	assert.Equal(t, `"category" IN (:category_in_0) AND "category_in_0" = :category_in_0_2`, clause)
	assert.Equal(t, map[string]any{
		"category_in_0":   "x",
		"category_in_0_2": "y",
	}, params)
}

func TestTranslateWith_VirtualFieldExpression(t *testing.T) {
	clause, params, err := TranslateWith(New(schema.ColumnRelevance, OpGreater, 0.5), testIndex(), Options{
		Expressions: map[string]string{schema.ColumnRelevance: `ts_rank("search_vector", to_tsquery('english', :ts_query))`},
	})
	require.NoError(t, err)

	assert.Equal(t, `ts_rank("search_vector", to_tsquery('english', :ts_query)) > :search_api_relevance`, clause)
	assert.Equal(t, 0.5, params["search_api_relevance"])
}

func TestTranslateWith_ReservedNamesAreAvoided(t *testing.T) {
	clause, params, err := TranslateWith(New("category", OpEquals, "news"), testIndex(), Options{
		Reserved: []string{"category"},
	})
	require.NoError(t, err)

	assert.Equal(t, `"category" = :category_2`, clause)
	assert.Equal(t, map[string]any{"category_2": "news"}, params)
}

func TestTranslate_EmptyGroup(t *testing.T) {
	clause, params, err := Translate(AndGroup(), testIndex())
	require.NoError(t, err)
	assert.Equal(t, "", clause)
	assert.Empty(t, params)
}

func TestTranslate_GroupErrorPropagates(t *testing.T) {
	tree := AndGroup(
		New("category", OpEquals, "a"),
		New("missing", OpEquals, "b"),
	)
	_, _, err := Translate(tree, testIndex())
	assert.Error(t, err)
}

func TestParseOperator(t *testing.T) {
	op, err := ParseOperator("!=")
	require.NoError(t, err)
	assert.Equal(t, OpNotEquals, op)

	_, err = ParseOperator("LIKE")
	var unsupported *UnsupportedOperatorError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "LIKE", unsupported.Operator)
}

func TestParseConjunction(t *testing.T) {
	conj, err := ParseConjunction("OR")
	require.NoError(t, err)
	assert.Equal(t, Or, conj)

	_, err = ParseConjunction("XOR")
	assert.Error(t, err)
}
