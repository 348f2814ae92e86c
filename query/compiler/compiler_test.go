package compiler_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/docql/query/ast"
	"github.com/satishbabariya/docql/query/builder"
	"github.com/satishbabariya/docql/query/cache"
	"github.com/satishbabariya/docql/query/compiler"
)

func nestedExample(t *testing.T) *ast.Query {
	t.Helper()
	q, err := builder.New().
		Where("id", 2).
		OrWhere("name", "John").
		And(func(g *builder.QueryBuilder) *builder.QueryBuilder {
			return g.And(func(g2 *builder.QueryBuilder) *builder.QueryBuilder {
				return g2.NotEq("id", 1).
					Eq("name", "Felipe").
					And(func(g3 *builder.QueryBuilder) *builder.QueryBuilder {
						return g3.Gt("age", 18)
					})
			})
		}).
		Build()
	require.NoError(t, err)
	return q
}

func TestToSQL_BuilderExample(t *testing.T) {
	sql, params, err := compiler.ToSQL("users", nestedExample(t))
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT data FROM users WHERE data->'id' = $1 OR data->'name' = $2 AND ((data->'id' <> $3 AND data->'name' = $4 AND (data->'age' > $5)))",
		sql)
	assert.Equal(t, []any{json.Number("2"), "John", json.Number("1"), "Felipe", json.Number("18")}, params)
}

func TestToSQL_ParsedExample(t *testing.T) {
	q := ast.MustParse(`{"filter":[{"type":"filter","operation":"and","filter":{"field":"id","operator":"equals","value":2}},{"type":"filter","operation":"or","filter":{"field":"name","operator":"equals","value":"John"}},{"type":"condition","operation":"and","filter":[{"type":"condition","operation":"and","filter":[{"type":"filter","operation":"and","filter":{"field":"id","operator":"notEquals","value":1}},{"type":"filter","operation":"and","filter":{"field":"name","operator":"equals","value":"Felipe"}},{"type":"condition","operation":"and","filter":[{"type":"filter","operation":"and","filter":{"field":"age","operator":"greaterThan","value":18}}]}]}]}],"sort":null,"limit":null}`)

	sql, params, err := compiler.ToSQL("users", q)
	require.NoError(t, err)

	want, wantParams, err := compiler.ToSQL("users", nestedExample(t))
	require.NoError(t, err)
	assert.Equal(t, want, sql)
	assert.Equal(t, wantParams, params)
}

func TestToSQL_Shapes(t *testing.T) {
	tests := []struct {
		name   string
		query  *ast.Query
		sql    string
		params []any
	}{
		{
			name:   "no query",
			query:  nil,
			sql:    "SELECT data FROM users",
			params: []any{},
		},
		{
			name:   "absent filter",
			query:  &ast.Query{},
			sql:    "SELECT data FROM users",
			params: []any{},
		},
		{
			name:   "limit and offset",
			query:  builder.New().Where("a", "x").Limit(10).Offset(30).MustBuild(),
			sql:    "SELECT data FROM users WHERE data->'a' = $1 LIMIT 10 OFFSET 30",
			params: []any{"x"},
		},
		{
			name:   "offset only",
			query:  builder.New().Where("a", "x").Offset(30).MustBuild(),
			sql:    "SELECT data FROM users WHERE data->'a' = $1 OFFSET 30",
			params: []any{"x"},
		},
		{
			name:   "sort is not rendered by default",
			query:  builder.New().Where("a", "x").SortBy("a", ast.Descending).MustBuild(),
			sql:    "SELECT data FROM users WHERE data->'a' = $1",
			params: []any{"x"},
		},
		{
			name: "leading operation is not rendered",
			query: &ast.Query{Filter: []ast.FilterItem{
				ast.NewFilter(ast.Or, "a", ast.Equals, 1),
				ast.NewCondition(ast.Not, ast.NewFilter(ast.Not, "b", ast.Equals, 2)),
			}},
			sql:    "SELECT data FROM users WHERE data->'a' = $1 NOT (data->'b' = $2)",
			params: []any{1, 2},
		},
		{
			name: "values are never interpolated",
			query: &ast.Query{Filter: []ast.FilterItem{
				ast.NewFilter(ast.And, "a", ast.Equals, "'; DROP TABLE users; --?"),
			}},
			sql:    "SELECT data FROM users WHERE data->'a' = $1",
			params: []any{"'; DROP TABLE users; --?"},
		},
		{
			name: "field names cannot inject placeholders or quotes",
			query: &ast.Query{Filter: []ast.FilterItem{
				ast.NewFilter(ast.And, "x' = ? OR '1", ast.Equals, 1),
				ast.NewFilter(ast.And, "y", ast.Equals, 2),
			}},
			sql:    "SELECT data FROM users WHERE data->'x'' = ? OR ''1' = $1 AND data->'y' = $2",
			params: []any{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compiler.ToSQL("users", tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestToSQL_PlaceholdersAreSequential(t *testing.T) {
	const n = 25

	b := builder.New()
	for i := 0; i < n; i++ {
		if i%3 == 0 {
			b.And(func(g *builder.QueryBuilder) *builder.QueryBuilder {
				return g.Eq(fmt.Sprintf("f%d", i), i)
			})
			continue
		}
		b.OrWhere(fmt.Sprintf("f%d", i), i)
	}
	q := b.MustBuild()

	sql, params, err := compiler.ToSQL("t", q)
	require.NoError(t, err)
	require.Len(t, params, n)

	last := -1
	for i := 1; i <= n; i++ {
		marker := fmt.Sprintf("$%d", i)
		idx := strings.Index(sql, marker+" ")
		if idx < 0 {
			idx = strings.Index(sql, marker+")")
		}
		if idx < 0 && strings.HasSuffix(sql, marker) {
			idx = len(sql) - len(marker)
		}
		require.GreaterOrEqual(t, idx, 0, "missing %s in %s", marker, sql)
		assert.Greater(t, idx, last)
		last = idx
		assert.Equal(t, json.Number(fmt.Sprint(i-1)), params[i-1])
	}
	assert.NotContains(t, sql, fmt.Sprintf("$%d", n+1))
	assert.NotContains(t, sql, "?")
}

func TestToSQL_Errors(t *testing.T) {
	tests := []struct {
		name   string
		table  compiler.Table
		query  *ast.Query
		target error
	}{
		{
			name:   "unsupported operator",
			table:  "users",
			query:  builder.New().Lt("age", 3).MustBuild(),
			target: compiler.ErrUnsupportedOperator,
		},
		{
			name:   "empty group",
			table:  "users",
			query:  &ast.Query{Filter: []ast.FilterItem{ast.NewCondition(ast.And)}},
			target: compiler.ErrEmptyGroup,
		},
		{
			name:   "table with spaces",
			table:  "users; DROP TABLE users",
			query:  nil,
			target: compiler.ErrInvalidTable,
		},
		{
			name:   "empty table",
			table:  "",
			query:  nil,
			target: compiler.ErrInvalidTable,
		},
		{
			name:   "quoted table",
			table:  `"users"`,
			query:  nil,
			target: ast.ErrInvalidTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compiler.ToSQL(tt.table, tt.query)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Empty(t, sql)
			assert.Nil(t, params)
		})
	}
}

func TestCompiler_Dialects(t *testing.T) {
	q := builder.New().Where("a", 1).OrWhere("b", "x").SortBy("a", ast.Ascending).Limit(2).MustBuild()

	tests := []struct {
		provider string
		want     string
	}{
		{"postgres", "SELECT data FROM docs WHERE data->'a' = $1 OR data->'b' = $2 ORDER BY data->'a' ASC LIMIT 2"},
		{"sqlite", "SELECT data FROM docs WHERE data->>'a' = ?1 OR data->>'b' = ?2 ORDER BY data->>'a' ASC LIMIT 2"},
		{"mysql", `SELECT data FROM docs WHERE data->'$."a"' = ? OR data->'$."b"' = ? ORDER BY data->'$."a"' ASC LIMIT 2`},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			c, err := compiler.New(tt.provider, compiler.WithOrderBy())
			require.NoError(t, err)

			sql, params, err := c.ToSQL("docs", q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
			assert.Equal(t, []any{json.Number("1"), "x"}, params)
		})
	}

	_, err := compiler.New("oracle")
	assert.Error(t, err)
}

func TestCompiler_Cache(t *testing.T) {
	lru := cache.NewLRUCache(16, 0)
	c, err := compiler.New("postgres", compiler.WithCache(lru))
	require.NoError(t, err)

	q1 := builder.New().Where("a", 1).Gt("b", 2).MustBuild()
	sql1, params1, err := c.ToSQL("docs", q1)
	require.NoError(t, err)

	sql2, params2, err := c.ToSQL("docs", q1)
	require.NoError(t, err)
	assert.Equal(t, sql1, sql2)
	assert.Equal(t, params1, params2)

	// Mutating returned params does not affect later calls.
	params2[0] = "changed"
	_, params3, err := c.ToSQL("docs", q1)
	require.NoError(t, err)
	assert.Equal(t, json.Number("1"), params3[0])

	stats := lru.GetStats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)

	_, _, err = c.ToSQL("other", q1)
	require.NoError(t, err)
	assert.Equal(t, 2, lru.GetStats().Size)

	c.Invalidate("docs")
	assert.Equal(t, 1, lru.GetStats().Size)

	// Failures are not cached.
	_, _, err = c.ToSQL("docs", builder.New().Lt("a", 1).MustBuild())
	require.Error(t, err)
	assert.Equal(t, 1, lru.GetStats().Size)
}
