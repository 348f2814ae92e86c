// Package builder provides a fluent query builder API.
package builder

import (
	"fmt"
	"reflect"

	"github.com/satishbabariya/docql/query/ast"
)

// QueryBuilder appends filter items in call order. The first error raised by
// any call is kept and returned by Build; later calls are ignored.
//
// A QueryBuilder is not safe for concurrent use.
type QueryBuilder struct {
	items []ast.FilterItem
	sort  []ast.SortItem
	limit *ast.Limit
	depth int
	err   error
}

// New creates a new query builder
func New() *QueryBuilder {
	return &QueryBuilder{items: []ast.FilterItem{}}
}

// Where adds an equality condition joined with AND
func (b *QueryBuilder) Where(field string, value any) *QueryBuilder {
	return b.add(ast.And, field, ast.Equals, value)
}

// OrWhere adds an equality condition joined with OR
func (b *QueryBuilder) OrWhere(field string, value any) *QueryBuilder {
	return b.add(ast.Or, field, ast.Equals, value)
}

// AndWhere is an alias of Where
func (b *QueryBuilder) AndWhere(field string, value any) *QueryBuilder {
	return b.Where(field, value)
}

// Eq adds an equality condition
func (b *QueryBuilder) Eq(field string, value any) *QueryBuilder {
	return b.add(ast.And, field, ast.Equals, value)
}

// NotEq adds a not-equals condition
func (b *QueryBuilder) NotEq(field string, value any) *QueryBuilder {
	return b.add(ast.And, field, ast.NotEquals, value)
}

// Gt adds a greater-than condition
func (b *QueryBuilder) Gt(field string, value any) *QueryBuilder {
	return b.add(ast.And, field, ast.GreaterThan, value)
}

// Lt adds a less-than condition
func (b *QueryBuilder) Lt(field string, value any) *QueryBuilder {
	return b.add(ast.And, field, ast.LessThan, value)
}

// In adds a membership condition. The candidates are given either as
// separate arguments, In("id", 1, 2), or as a single slice, In("id", ids).
func (b *QueryBuilder) In(field string, values ...any) *QueryBuilder {
	return b.add(ast.And, field, ast.In, memberList(values))
}

// NotIn adds a non-membership condition. Arguments are read as for In.
func (b *QueryBuilder) NotIn(field string, values ...any) *QueryBuilder {
	return b.add(ast.And, field, ast.NotIn, memberList(values))
}

// SortBy appends a sort key
func (b *QueryBuilder) SortBy(field string, direction ast.Direction) *QueryBuilder {
	b.sort = append(b.sort, ast.SortItem{Field: field, Direction: direction})
	return b
}

// Limit caps the number of results
func (b *QueryBuilder) Limit(n uint32) *QueryBuilder {
	if b.limit == nil {
		b.limit = &ast.Limit{}
	}
	b.limit.Limit = &n
	return b
}

// Offset skips the first n results
func (b *QueryBuilder) Offset(n uint32) *QueryBuilder {
	if b.limit == nil {
		b.limit = &ast.Limit{}
	}
	b.limit.Offset = &n
	return b
}

// Build finalizes the query. The returned query shares nothing with the builder.
func (b *QueryBuilder) Build() (*ast.Query, error) {
	if b.err != nil {
		return nil, b.err
	}

	q := &ast.Query{Filter: append([]ast.FilterItem{}, b.items...)}
	if b.sort != nil {
		q.Sort = append([]ast.SortItem{}, b.sort...)
	}
	if b.limit != nil {
		l := ast.Limit{}
		if b.limit.Limit != nil {
			n := *b.limit.Limit
			l.Limit = &n
		}
		if b.limit.Offset != nil {
			n := *b.limit.Offset
			l.Offset = &n
		}
		q.Limit = &l
	}
	return q, nil
}

// MustBuild is like Build but panics on error.
func (b *QueryBuilder) MustBuild() *ast.Query {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}

// Err returns the first error recorded by the builder.
func (b *QueryBuilder) Err() error {
	return b.err
}

func (b *QueryBuilder) add(op ast.CombineOp, field string, operator ast.Operator, value any) *QueryBuilder {
	if b.err != nil {
		return b
	}
	v, err := ast.Normalize(value)
	if err != nil {
		b.err = fmt.Errorf("builder: %s %s: %w", field, operator, err)
		return b
	}
	b.items = append(b.items, ast.NewFilter(op, field, operator, v))
	return b
}

// memberList spreads a lone slice or array argument. []byte is a single
// value, as encoding/json treats it.
func memberList(values []any) any {
	if len(values) == 1 && values[0] != nil {
		rv := reflect.ValueOf(values[0])
		switch rv.Kind() {
		case reflect.Slice:
			if rv.Type().Elem().Kind() == reflect.Uint8 {
				break
			}
			if rv.IsNil() {
				return []any{}
			}
			return values[0]
		case reflect.Array:
			return values[0]
		}
	}
	if values == nil {
		return []any{}
	}
	return values
}
