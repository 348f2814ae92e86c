package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Wire shapes. Key order matches the serialized form consumers expect:
// {"filter":[...],"sort":null,"limit":null}.
type wireQuery struct {
	Filter *[]json.RawMessage `json:"filter"`
	Sort   *[]SortItem        `json:"sort"`
	Limit  *Limit             `json:"limit"`
}

type wireItem struct {
	Type      string          `json:"type"`
	Operation CombineOp       `json:"operation"`
	Filter    json.RawMessage `json:"filter"`
}

type wireLeaf struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

const (
	tagFilter    = "filter"
	tagCondition = "condition"
)

// MarshalJSON encodes the query in wire form. Absent members are emitted as null.
func (q Query) MarshalJSON() ([]byte, error) {
	var w wireQuery
	if q.Filter != nil {
		items, err := marshalItems(q.Filter)
		if err != nil {
			return nil, err
		}
		w.Filter = &items
	}
	if q.Sort != nil {
		sort := q.Sort
		w.Sort = &sort
	}
	w.Limit = q.Limit
	return json.Marshal(w)
}

// UnmarshalJSON decodes a wire-form query. Numbers are kept as json.Number.
func (q *Query) UnmarshalJSON(data []byte) error {
	var w wireQuery
	if err := decodeStrict(data, &w); err != nil {
		return malformed(data, "", err)
	}

	out := Query{Limit: w.Limit}
	if w.Filter != nil {
		items, err := unmarshalItems(*w.Filter, 1)
		if err != nil {
			return malformed(data, "", err)
		}
		out.Filter = items
	}
	if w.Sort != nil {
		out.Sort = append([]SortItem{}, (*w.Sort)...)
	}
	*q = out
	return nil
}

func (f *Filter) MarshalJSON() ([]byte, error) {
	leaf, err := json.Marshal(wireLeaf{Field: f.Leaf.Field, Operator: f.Leaf.Operator, Value: f.Leaf.Value})
	if err != nil {
		return nil, fmt.Errorf("failed to encode value of field %q: %w", f.Leaf.Field, err)
	}
	return json.Marshal(wireItem{Type: tagFilter, Operation: f.Op, Filter: leaf})
}

func (c *Condition) MarshalJSON() ([]byte, error) {
	children, err := marshalItems(c.Children)
	if err != nil {
		return nil, err
	}
	inner, err := json.Marshal(children)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireItem{Type: tagCondition, Operation: c.Op, Filter: inner})
}

func marshalItems(items []FilterItem) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for i, item := range items {
		if isNilItem(item) {
			return nil, fmt.Errorf("filter item %d is nil", i)
		}
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func isNilItem(item FilterItem) bool {
	switch item := item.(type) {
	case nil:
		return true
	case *Filter:
		return item == nil
	case *Condition:
		return item == nil
	}
	return false
}

func unmarshalItems(raws []json.RawMessage, depth int) ([]FilterItem, error) {
	items := make([]FilterItem, 0, len(raws))
	for i, raw := range raws {
		item, err := unmarshalItem(raw, depth)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func unmarshalItem(raw json.RawMessage, depth int) (FilterItem, error) {
	var w wireItem
	if err := decodeStrict(raw, &w); err != nil {
		return nil, err
	}
	if !w.Operation.Valid() {
		return nil, fmt.Errorf("unknown operation %q", w.Operation)
	}
	if len(w.Filter) == 0 || bytes.Equal(bytes.TrimSpace(w.Filter), []byte("null")) {
		return nil, fmt.Errorf("missing member \"filter\" in %s item", w.Type)
	}

	switch w.Type {
	case tagFilter:
		var leaf struct {
			Field    *string         `json:"field"`
			Operator Operator        `json:"operator"`
			Value    json.RawMessage `json:"value"`
		}
		if err := decodeStrict(w.Filter, &leaf); err != nil {
			return nil, err
		}
		if leaf.Field == nil {
			return nil, fmt.Errorf("missing member \"field\" in leaf")
		}
		if !leaf.Operator.Valid() {
			return nil, fmt.Errorf("unknown operator %q", leaf.Operator)
		}
		if len(leaf.Value) == 0 {
			return nil, fmt.Errorf("missing member \"value\" in leaf")
		}
		var value any
		if err := decodeStrict(leaf.Value, &value); err != nil {
			return nil, err
		}
		return NewFilter(w.Operation, *leaf.Field, leaf.Operator, value), nil

	case tagCondition:
		var raws []json.RawMessage
		if err := decodeStrict(w.Filter, &raws); err != nil {
			return nil, err
		}
		if len(raws) == 0 {
			return nil, &EmptyGroupError{Depth: depth}
		}
		children, err := unmarshalItems(raws, depth+1)
		if err != nil {
			return nil, err
		}
		return &Condition{Op: w.Operation, Children: children}, nil

	default:
		return nil, fmt.Errorf("unknown item type %q", w.Type)
	}
}

// MarshalJSON encodes the direction as "1" or "-1".
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "1", "-1", 1 or -1.
func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid sort direction %s", data)
		}
		s = n.String()
	}
	switch s {
	case "1":
		*d = Ascending
	case "-1":
		*d = Descending
	default:
		return fmt.Errorf("invalid sort direction %q", s)
	}
	return nil
}

type wireSort struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

func (s SortItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSort(s))
}

func (s *SortItem) UnmarshalJSON(data []byte) error {
	var w struct {
		Field     *string    `json:"field"`
		Direction *Direction `json:"direction"`
	}
	if err := decodeStrict(data, &w); err != nil {
		return err
	}
	if w.Field == nil || w.Direction == nil {
		return fmt.Errorf("sort item requires field and direction")
	}
	*s = SortItem{Field: *w.Field, Direction: *w.Direction}
	return nil
}

type wireLimit struct {
	Limit  *uint32 `json:"limit"`
	Offset *uint32 `json:"offset"`
}

func (l Limit) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireLimit(l))
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	var w wireLimit
	if err := decodeStrict(data, &w); err != nil {
		return err
	}
	*l = Limit(w)
	return nil
}

// decodeStrict decodes a single JSON value, keeping numbers as json.Number and
// rejecting trailing data.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

func malformed(input []byte, reason string, cause error) error {
	return &MalformedQueryError{Input: string(input), Reason: reason, Cause: cause}
}
