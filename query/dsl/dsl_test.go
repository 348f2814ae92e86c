package dsl_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/docql/query/ast"
	"github.com/satishbabariya/docql/query/compiler"
	"github.com/satishbabariya/docql/query/dsl"
)

func TestParse_BuilderExample(t *testing.T) {
	items, err := dsl.Parse(`id = 2 or name = "John" and ((id != 1 and name = "Felipe" and (age > 18)))`)
	require.NoError(t, err)

	sql, params, err := compiler.ToSQL("users", &ast.Query{Filter: items})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT data FROM users WHERE data->'id' = $1 OR data->'name' = $2 AND ((data->'id' <> $3 AND data->'name' = $4 AND (data->'age' > $5)))",
		sql)
	assert.Equal(t, []any{json.Number("2"), "John", json.Number("1"), "Felipe", json.Number("18")}, params)
}

func TestParse_Leaves(t *testing.T) {
	tests := []struct {
		input string
		want  *ast.Filter
	}{
		{`a = "x"`, ast.NewFilter(ast.And, "a", ast.Equals, "x")},
		{`a <> 1`, ast.NewFilter(ast.And, "a", ast.NotEquals, json.Number("1"))},
		{`a != -1.5e3`, ast.NewFilter(ast.And, "a", ast.NotEquals, json.Number("-1.5e3"))},
		{`a >= 2`, ast.NewFilter(ast.And, "a", ast.GreaterThanOrEquals, json.Number("2"))},
		{`a < 2`, ast.NewFilter(ast.And, "a", ast.LessThan, json.Number("2"))},
		{`a <= 2`, ast.NewFilter(ast.And, "a", ast.LessThanOrEquals, json.Number("2"))},
		{`a = true`, ast.NewFilter(ast.And, "a", ast.Equals, true)},
		{`a = FALSE`, ast.NewFilter(ast.And, "a", ast.Equals, false)},
		{`a = null`, ast.NewFilter(ast.And, "a", ast.Equals, nil)},
		{`a in [1, "b", [true]]`, ast.NewFilter(ast.And, "a", ast.In, []any{json.Number("1"), "b", []any{true}})},
		{`a nin []`, ast.NewFilter(ast.And, "a", ast.NotIn, []any{})},
		{`a exists`, ast.NewFilter(ast.And, "a", ast.Exists, nil)},
		{`a NOTEXISTS`, ast.NewFilter(ast.And, "a", ast.NotExists, nil)},
		{`"first name" = "Ada"`, ast.NewFilter(ast.And, "first name", ast.Equals, "Ada")},
		{`user.email = "a@b.c"`, ast.NewFilter(ast.And, "user.email", ast.Equals, "a@b.c")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			items, err := dsl.Parse(tt.input)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0])
		})
	}
}

func TestParse_Joiners(t *testing.T) {
	items, err := dsl.Parse(`a = 1 OR b = 2 Not (c = 3)`)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, ast.And, items[0].Operation())
	assert.Equal(t, ast.Or, items[1].Operation())
	assert.Equal(t, ast.Not, items[2].Operation())

	group, ok := items[2].(*ast.Condition)
	require.True(t, ok)
	assert.Len(t, group.Children, 1)
}

func TestParse_Errors(t *testing.T) {
	for _, input := range []string{
		``,
		`a`,
		`a = `,
		`a = 1 and`,
		`(a = 1`,
		`()`,
		`a ~ 1`,
		`a = [1,`,
		`a = 1 xor b = 2`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := dsl.Parse(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ast.ErrMalformedQuery)

			var merr *ast.MalformedQueryError
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, input, merr.Input)
		})
	}
}

func TestParseQuery_Empty(t *testing.T) {
	q, err := dsl.ParseQuery("   ")
	require.NoError(t, err)
	assert.False(t, q.HasFilter())
}

func TestFormat_RoundTrip(t *testing.T) {
	inputs := []string{
		`id = 2 or name = "John" and ((id != 1 and name = "Felipe" and (age > 18)))`,
		`a in [1, "b", null] not b nin [] or c exists and d notExists`,
		`"and" = "quoted keyword" and "with space" >= -3`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			items, err := dsl.Parse(input)
			require.NoError(t, err)

			out, err := dsl.Format(items)
			require.NoError(t, err)
			assert.Equal(t, input, out)

			again, err := dsl.Parse(out)
			require.NoError(t, err)
			assert.Equal(t, items, again)
		})
	}
}

func TestFormat_Unsupported(t *testing.T) {
	_, err := dsl.Format([]ast.FilterItem{ast.NewFilter(ast.And, "a", ast.Equals, map[string]any{"k": 1})})
	assert.Error(t, err)

	_, err = dsl.Format([]ast.FilterItem{ast.NewCondition(ast.And)})
	assert.ErrorIs(t, err, ast.ErrEmptyGroup)
}
