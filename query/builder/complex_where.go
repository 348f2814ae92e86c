package builder

import (
	"github.com/satishbabariya/docql/query/ast"
)

// GroupFunc fills a fresh builder with the items of a nested group.
type GroupFunc func(g *QueryBuilder) *QueryBuilder

// And appends the items built by fn as a parenthesized group joined with AND.
// A group without items is an *ast.EmptyGroupError.
func (b *QueryBuilder) And(fn GroupFunc) *QueryBuilder {
	return b.group(ast.And, fn)
}

// Or appends the items built by fn as a parenthesized group joined with OR
func (b *QueryBuilder) Or(fn GroupFunc) *QueryBuilder {
	return b.group(ast.Or, fn)
}

func (b *QueryBuilder) group(op ast.CombineOp, fn GroupFunc) *QueryBuilder {
	if b.err != nil {
		return b
	}

	sub := New()
	sub.depth = b.depth + 1
	if fn != nil {
		if out := fn(sub); out != nil {
			sub = out
		}
	}

	if sub.err != nil {
		b.err = sub.err
		return b
	}
	if len(sub.items) == 0 {
		b.err = &ast.EmptyGroupError{Depth: b.depth + 1}
		return b
	}

	b.items = append(b.items, ast.NewCondition(op, sub.items...))
	return b
}
