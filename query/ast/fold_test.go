package ast_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/docql/query/ast"
)

// traceVisitor renders the fold as a prefix expression.
type traceVisitor struct {
	leaves []string
}

func (v *traceVisitor) Filter(f *ast.Filter) (string, error) {
	v.leaves = append(v.leaves, f.Leaf.Field)
	return f.Leaf.Field, nil
}

func (v *traceVisitor) Group(_ *ast.Condition, inner string) (string, error) {
	return "[" + inner + "]", nil
}

func (v *traceVisitor) Combine(acc string, op ast.CombineOp, next string) (string, error) {
	return fmt.Sprintf("%s(%s,%s)", op, acc, next), nil
}

func TestFold_LeftToRight(t *testing.T) {
	items := []ast.FilterItem{
		ast.NewFilter(ast.Or, "a", ast.Equals, 1),
		ast.NewFilter(ast.Or, "b", ast.Equals, 1),
		ast.NewCondition(ast.And,
			ast.NewFilter(ast.Not, "c", ast.Equals, 1),
			ast.NewFilter(ast.And, "d", ast.Equals, 1),
		),
		ast.NewFilter(ast.And, "e", ast.Equals, 1),
	}

	v := &traceVisitor{}
	out, err := ast.Fold[string](items, v)
	require.NoError(t, err)

	// The leading operations (Or on "a", Not on "c") are never applied.
	assert.Equal(t, "and(and(or(a,b),[and(c,d)]),e)", out)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, v.leaves)
}

func TestFold_EmptyGroup(t *testing.T) {
	items := []ast.FilterItem{
		ast.NewFilter(ast.And, "a", ast.Equals, 1),
		ast.NewCondition(ast.And, ast.NewCondition(ast.And)),
	}

	_, err := ast.Fold[string](items, &traceVisitor{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ast.ErrEmptyGroup)

	var gerr *ast.EmptyGroupError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 2, gerr.Depth)

	_, err = ast.Fold[string](nil, &traceVisitor{})
	assert.ErrorIs(t, err, ast.ErrEmptyGroup)
}

func TestFold_DeepNesting(t *testing.T) {
	const depth = 200000

	var item ast.FilterItem = ast.NewFilter(ast.And, "leaf", ast.Equals, 1)
	for i := 0; i < depth; i++ {
		item = ast.NewCondition(ast.And, item)
	}

	v := &countVisitor{}
	n, err := ast.Fold[int]([]ast.FilterItem{item}, v)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, depth, v.groups)
}

type countVisitor struct {
	groups int
}

func (v *countVisitor) Filter(*ast.Filter) (int, error) { return 1, nil }

func (v *countVisitor) Group(_ *ast.Condition, inner int) (int, error) {
	v.groups++
	return inner, nil
}

func (v *countVisitor) Combine(acc int, _ ast.CombineOp, next int) (int, error) {
	return acc + next, nil
}

func TestLeaves(t *testing.T) {
	q := ast.MustParse(builderFixture)

	var fields []string
	for _, f := range ast.Leaves(q.Filter) {
		fields = append(fields, f.Leaf.Field)
	}
	assert.Equal(t, "id,name,id,name,age", strings.Join(fields, ","))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"numbers across representations", json.Number("18"), 18, true},
		{"float and integer", json.Number("18.0"), json.Number("18"), true},
		{"string is not a number", "123", json.Number("123"), false},
		{"number is not a string", 123, "123", false},
		{"null", nil, nil, true},
		{"null and false", nil, false, false},
		{"bools", true, true, true},
		{"arrays", []any{json.Number("1"), "a"}, []any{1, "a"}, true},
		{"array order matters", []any{1, 2}, []any{2, 1}, false},
		{"typed slice", []string{"a", "b"}, []any{"a", "b"}, true},
		{"objects", map[string]any{"a": json.Number("1")}, map[string]any{"a": 1.0}, true},
		{"object keys differ", map[string]any{"a": 1}, map[string]any{"b": 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ast.Equal(tt.a, tt.b))
		})
	}
}

func TestNormalize(t *testing.T) {
	v, err := ast.Normalize(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": json.Number("1")}, v)

	v, err = ast.Normalize(18)
	require.NoError(t, err)
	assert.Equal(t, json.Number("18"), v)

	v, err = ast.Normalize(2.5)
	require.NoError(t, err)
	assert.Equal(t, json.Number("2.5"), v)

	_, err = ast.Normalize(make(chan int))
	assert.Error(t, err)
}
