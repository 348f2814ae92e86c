package ast

import "fmt"

// Visitor is a fold backend. Fold calls Filter for every leaf and Group for
// every finished condition, in left-to-right order, and merges sibling results
// with Combine using the later sibling's operation.
type Visitor[T any] interface {
	Filter(f *Filter) (T, error)
	Group(c *Condition, inner T) (T, error)
	Combine(acc T, op CombineOp, next T) (T, error)
}

type frame[T any] struct {
	cond  *Condition
	items []FilterItem
	next  int
	acc   T
	depth int
}

// absorb merges the result of items[next] into the frame.
func (f *frame[T]) absorb(v Visitor[T], val T) error {
	if f.next == 0 {
		f.acc = val
	} else {
		acc, err := v.Combine(f.acc, f.items[f.next].Operation(), val)
		if err != nil {
			return err
		}
		f.acc = acc
	}
	f.next++
	return nil
}

// Fold reduces items with v. The traversal uses an explicit stack, so nesting
// depth is not limited by the goroutine stack. An empty list or group yields
// an *EmptyGroupError; callers treat an empty top-level filter as match-all
// before folding.
func Fold[T any](items []FilterItem, v Visitor[T]) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, &EmptyGroupError{Depth: 0}
	}

	stack := []*frame[T]{{items: items}}
	for {
		top := stack[len(stack)-1]

		if top.next == len(top.items) {
			stack = stack[:len(stack)-1]
			if top.cond == nil {
				return top.acc, nil
			}
			grouped, err := v.Group(top.cond, top.acc)
			if err != nil {
				return zero, err
			}
			if err := stack[len(stack)-1].absorb(v, grouped); err != nil {
				return zero, err
			}
			continue
		}

		item := top.items[top.next]
		if isNilItem(item) {
			return zero, fmt.Errorf("filter item %d at depth %d is nil", top.next, top.depth)
		}
		switch item := item.(type) {
		case *Filter:
			val, err := v.Filter(item)
			if err != nil {
				return zero, err
			}
			if err := top.absorb(v, val); err != nil {
				return zero, err
			}
		case *Condition:
			if len(item.Children) == 0 {
				return zero, &EmptyGroupError{Depth: top.depth + 1}
			}
			stack = append(stack, &frame[T]{cond: item, items: item.Children, depth: top.depth + 1})
		default:
			return zero, fmt.Errorf("unknown filter item %T", item)
		}
	}
}

// Leaves returns every leaf under items in left-to-right order.
func Leaves(items []FilterItem) []*Filter {
	var out []*Filter
	stack := [][]FilterItem{items}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		if len(cur) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		stack[len(stack)-1] = cur[1:]
		switch item := cur[0].(type) {
		case *Filter:
			out = append(out, item)
		case *Condition:
			stack = append(stack, item.Children)
		}
	}
	return out
}
