// Package ast defines the query AST (Abstract Syntax Tree).
//
// A Query carries an ordered list of FilterItem values that is evaluated as a
// left fold: the first item seeds the result and every later item combines
// with the running result using its own CombineOp. The first item's CombineOp
// is kept for serialization but never applied.
package ast

import "math"

// Query is a filter tree plus sort and pagination metadata.
type Query struct {
	// Filter is nil when absent. A nil or empty Filter matches everything.
	Filter []FilterItem
	Sort   []SortItem
	Limit  *Limit
}

// HasFilter reports whether the query restricts results at all.
func (q *Query) HasFilter() bool {
	return q != nil && len(q.Filter) > 0
}

// FilterItem is either a *Filter leaf or a *Condition group.
type FilterItem interface {
	// Operation returns how the item combines with the items before it.
	Operation() CombineOp
	filterItem()
}

// Filter is a single field comparison.
type Filter struct {
	Op   CombineOp
	Leaf Leaf
}

func (f *Filter) Operation() CombineOp { return f.Op }
func (*Filter) filterItem()            {}

// Condition is a parenthesized group of items folded like a top-level list.
type Condition struct {
	Op       CombineOp
	Children []FilterItem
}

func (c *Condition) Operation() CombineOp { return c.Op }
func (*Condition) filterItem()            {}

// Leaf compares the value stored under Field with Value.
type Leaf struct {
	Field    string
	Operator Operator
	Value    any
}

// CombineOp joins an item to the running result.
type CombineOp string

const (
	And CombineOp = "and"
	Or  CombineOp = "or"
	Not CombineOp = "not"
)

// Valid reports whether op is one of the known combine operations.
func (op CombineOp) Valid() bool {
	switch op {
	case And, Or, Not:
		return true
	}
	return false
}

// Operator is a leaf comparison.
type Operator string

const (
	Equals              Operator = "equals"
	NotEquals           Operator = "notEquals"
	GreaterThan         Operator = "greaterThan"
	GreaterThanOrEquals Operator = "greaterThanOrEquals"
	LessThan            Operator = "lessThan"
	LessThanOrEquals    Operator = "lessThanOrEquals"
	Exists              Operator = "exists"
	NotExists           Operator = "notExists"
	In                  Operator = "in"
	NotIn               Operator = "notIn"
)

// Operators lists every operator in wire order.
var Operators = []Operator{
	Equals, NotEquals,
	GreaterThan, GreaterThanOrEquals,
	LessThan, LessThanOrEquals,
	Exists, NotExists,
	In, NotIn,
}

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// SortItem orders results by a single field.
type SortItem struct {
	Field     string
	Direction Direction
}

// Direction is the sort order of a SortItem.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

func (d Direction) String() string {
	if d == Descending {
		return "-1"
	}
	return "1"
}

// Limit holds optional pagination bounds.
type Limit struct {
	Limit  *uint32
	Offset *uint32
}

// NewLimit returns a Limit with both bounds set. Pass -1 to leave one unset.
// Values above math.MaxUint32 are clamped to it.
func NewLimit(limit, offset int64) *Limit {
	return &Limit{Limit: bound(limit), Offset: bound(offset)}
}

func bound(n int64) *uint32 {
	if n < 0 {
		return nil
	}
	v := uint32(math.MaxUint32)
	if n < math.MaxUint32 {
		v = uint32(n)
	}
	return &v
}

// NewFilter builds a leaf item.
func NewFilter(op CombineOp, field string, operator Operator, value any) *Filter {
	return &Filter{Op: op, Leaf: Leaf{Field: field, Operator: operator, Value: value}}
}

// NewCondition builds a group item.
func NewCondition(op CombineOp, children ...FilterItem) *Condition {
	return &Condition{Op: op, Children: children}
}
