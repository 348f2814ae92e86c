// Package matcher evaluates queries against in-memory documents.
//
// Evaluation uses the same left fold as the SQL compiler: every item is
// evaluated in order and combined with the running result using its own
// operation. The first error encountered in that order is returned.
package matcher

import (
	"github.com/satishbabariya/docql/query/ast"
)

const backend = "matcher"

// Matches reports whether doc satisfies q. A nil query or an empty filter
// matches every document.
func Matches(q *ast.Query, doc Document) (bool, error) {
	if !q.HasFilter() {
		return true, nil
	}
	return ast.Fold[bool](q.Filter, &evaluator{doc: doc})
}

// MatchItems folds items against doc. An empty list matches.
func MatchItems(items []ast.FilterItem, doc Document) (bool, error) {
	if len(items) == 0 {
		return true, nil
	}
	return ast.Fold[bool](items, &evaluator{doc: doc})
}

// Filter returns the documents that match q, preserving order.
func Filter[D Document](q *ast.Query, docs []D) ([]D, error) {
	out := make([]D, 0, len(docs))
	for _, doc := range docs {
		ok, err := Matches(q, doc)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

type evaluator struct {
	doc Document
}

func (e *evaluator) Filter(f *ast.Filter) (bool, error) {
	return evalLeaf(f.Leaf, e.doc)
}

func (e *evaluator) Group(_ *ast.Condition, inner bool) (bool, error) {
	return inner, nil
}

func (e *evaluator) Combine(acc bool, op ast.CombineOp, next bool) (bool, error) {
	switch op {
	case ast.And:
		return acc && next, nil
	case ast.Or:
		return acc || next, nil
	default:
		// Not has no binary meaning in the fold.
		return false, &ast.UnsupportedOperatorError{Operator: string(op), Backend: backend}
	}
}

func evalLeaf(leaf ast.Leaf, doc Document) (bool, error) {
	switch leaf.Operator {
	case ast.Equals, ast.NotEquals, ast.LessThan, ast.GreaterThan, ast.In, ast.NotIn:
	default:
		return false, &ast.UnsupportedOperatorError{Operator: string(leaf.Operator), Backend: backend}
	}

	actual, ok := doc.Lookup(leaf.Field)
	if !ok {
		return false, &ast.FieldNotFoundError{Field: leaf.Field}
	}

	switch leaf.Operator {
	case ast.Equals:
		return ast.Equal(actual, leaf.Value), nil

	case ast.NotEquals:
		return !ast.Equal(actual, leaf.Value), nil

	case ast.LessThan, ast.GreaterThan:
		a, ok := ast.Float(actual)
		if !ok {
			return false, mismatch(leaf, "a numeric field", actual)
		}
		b, ok := ast.Float(leaf.Value)
		if !ok {
			return false, mismatch(leaf, "a numeric value", leaf.Value)
		}
		if leaf.Operator == ast.LessThan {
			return a < b, nil
		}
		return a > b, nil

	default:
		list, ok := asList(leaf.Value)
		if !ok {
			return false, mismatch(leaf, "an array value", leaf.Value)
		}
		found := false
		for _, candidate := range list {
			if ast.Equal(actual, candidate) {
				found = true
				break
			}
		}
		if leaf.Operator == ast.In {
			return found, nil
		}
		return !found, nil
	}
}

// asList accepts canonical []any values and typed slices built by hand.
func asList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	if v == nil {
		return nil, false
	}
	n, err := ast.Normalize(v)
	if err != nil {
		return nil, false
	}
	list, ok := n.([]any)
	return list, ok
}

func mismatch(leaf ast.Leaf, expected string, got any) error {
	return &ast.TypeMismatchError{
		Field:    leaf.Field,
		Operator: leaf.Operator,
		Expected: expected,
		Value:    got,
	}
}
