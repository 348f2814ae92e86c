package sqlgen

import (
	"strings"

	"github.com/satishbabariya/docql/query/ast"
)

const backend = "sql compiler"

// fragment is compiled SQL with unnumbered '?' placeholders.
type fragment struct {
	sql  string
	args []any
}

// whereEmitter lowers filter items to SQL through ast.Fold.
type whereEmitter struct {
	g *Generator
}

func (e *whereEmitter) Filter(f *ast.Filter) (fragment, error) {
	token, err := operatorToken(f.Leaf.Operator)
	if err != nil {
		return fragment{}, err
	}
	return fragment{
		sql:  e.g.FieldRef(f.Leaf.Field) + " " + token + " ?",
		args: []any{f.Leaf.Value},
	}, nil
}

func (e *whereEmitter) Group(_ *ast.Condition, inner fragment) (fragment, error) {
	return fragment{sql: "(" + inner.sql + ")", args: inner.args}, nil
}

func (e *whereEmitter) Combine(acc fragment, op ast.CombineOp, next fragment) (fragment, error) {
	token, err := combineToken(op)
	if err != nil {
		return fragment{}, err
	}
	var sb strings.Builder
	sb.Grow(len(acc.sql) + len(token) + len(next.sql) + 2)
	sb.WriteString(acc.sql)
	sb.WriteByte(' ')
	sb.WriteString(token)
	sb.WriteByte(' ')
	sb.WriteString(next.sql)
	return fragment{sql: sb.String(), args: append(acc.args, next.args...)}, nil
}

// BuildWhere compiles items into a WHERE body with the dialect's placeholders.
// Arguments are returned in placeholder order.
func (g *Generator) BuildWhere(items []ast.FilterItem) (string, []any, error) {
	if len(items) == 0 {
		return "", []any{}, nil
	}
	frag, err := ast.Fold[fragment](items, &whereEmitter{g: g})
	if err != nil {
		return "", nil, err
	}
	if frag.args == nil {
		frag.args = []any{}
	}
	return g.renumber(frag.sql), frag.args, nil
}

func (g *Generator) renumber(sql string) string {
	if g.dialect == MySQL {
		return sql
	}
	return Renumber(sql, g.Placeholder)
}

func operatorToken(op ast.Operator) (string, error) {
	switch op {
	case ast.Equals:
		return "=", nil
	case ast.NotEquals:
		return "<>", nil
	case ast.GreaterThan:
		return ">", nil
	default:
		return "", &ast.UnsupportedOperatorError{Operator: string(op), Backend: backend}
	}
}

func combineToken(op ast.CombineOp) (string, error) {
	switch op {
	case ast.And:
		return "AND", nil
	case ast.Or:
		return "OR", nil
	case ast.Not:
		return "NOT", nil
	default:
		return "", &ast.UnsupportedOperatorError{Operator: string(op), Backend: backend}
	}
}
