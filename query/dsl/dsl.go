// Package dsl parses a compact infix filter syntax into query filter items.
//
//	age > 18 and (name = "Ada" or name = "Grace") and tags in ["a", "b"]
//
// Operands are folded left to right exactly like wire-format items: the
// joining keyword becomes the operation of the operand that follows it.
package dsl

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/satishbabariya/docql/query/ast"
)

var operators = map[string]ast.Operator{
	"=":         ast.Equals,
	"!=":        ast.NotEquals,
	"<>":        ast.NotEquals,
	">":         ast.GreaterThan,
	">=":        ast.GreaterThanOrEquals,
	"<":         ast.LessThan,
	"<=":        ast.LessThanOrEquals,
	"in":        ast.In,
	"nin":       ast.NotIn,
	"exists":    ast.Exists,
	"notexists": ast.NotExists,
}

// Parse parses a filter expression. Errors are *ast.MalformedQueryError.
func Parse(input string) ([]ast.FilterItem, error) {
	raw, err := parser.ParseString("", input)
	if err != nil {
		return nil, &ast.MalformedQueryError{Input: input, Reason: "invalid filter expression", Cause: err}
	}
	items, err := convertExpr(raw)
	if err != nil {
		return nil, &ast.MalformedQueryError{Input: input, Reason: "invalid filter expression", Cause: err}
	}
	return items, nil
}

// ParseQuery parses a filter expression into a query without sort or limit.
func ParseQuery(input string) (*ast.Query, error) {
	if strings.TrimSpace(input) == "" {
		return &ast.Query{}, nil
	}
	items, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return &ast.Query{Filter: items}, nil
}

func convertExpr(raw *rawExpr) ([]ast.FilterItem, error) {
	items := make([]ast.FilterItem, 0, 1+len(raw.Tail))

	head, err := convertOperand(ast.And, raw.Head)
	if err != nil {
		return nil, err
	}
	items = append(items, head)

	for _, joined := range raw.Tail {
		item, err := convertOperand(ast.CombineOp(strings.ToLower(joined.Op)), joined.Operand)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func convertOperand(op ast.CombineOp, raw *rawOperand) (ast.FilterItem, error) {
	if raw.Group != nil {
		children, err := convertExpr(raw.Group)
		if err != nil {
			return nil, err
		}
		return ast.NewCondition(op, children...), nil
	}

	leaf := raw.Leaf
	if leaf.Unary != "" {
		return ast.NewFilter(op, leaf.Field, operators[strings.ToLower(leaf.Unary)], nil), nil
	}

	operator, ok := operators[strings.ToLower(leaf.Op)]
	if !ok {
		return nil, fmt.Errorf("%s: unknown operator %q", leaf.Pos, leaf.Op)
	}
	value, err := convertValue(leaf.Value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", leaf.Pos, err)
	}
	return ast.NewFilter(op, leaf.Field, operator, value), nil
}

func convertValue(raw *rawValue) (any, error) {
	switch {
	case raw.String != nil:
		return *raw.String, nil
	case raw.Number != nil:
		return json.Number(*raw.Number), nil
	case raw.True:
		return true, nil
	case raw.False:
		return false, nil
	case raw.Null:
		return nil, nil
	case raw.IsList:
		list := make([]any, 0, len(raw.Items))
		for _, item := range raw.Items {
			v, err := convertValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("missing value")
	}
}

var bareField = regexp.MustCompile(`^[\p{L}_$][\p{L}\p{N}_$.-]*$`)

var keywords = map[string]bool{
	"and": true, "or": true, "not": true,
	"in": true, "nin": true, "exists": true, "notexists": true,
	"true": true, "false": true, "null": true,
}

// Format renders items in the filter syntax. Parse(Format(items)) yields
// items equal to the input, except that the leading operation of each list
// is normalized to and.
func Format(items []ast.FilterItem) (string, error) {
	var sb strings.Builder
	if err := formatItems(&sb, items); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatItems(sb *strings.Builder, items []ast.FilterItem) error {
	for i, item := range items {
		if i > 0 {
			sb.WriteByte(' ')
			sb.WriteString(string(item.Operation()))
			sb.WriteByte(' ')
		}
		switch item := item.(type) {
		case *ast.Filter:
			if err := formatLeaf(sb, item.Leaf); err != nil {
				return err
			}
		case *ast.Condition:
			if len(item.Children) == 0 {
				return &ast.EmptyGroupError{}
			}
			sb.WriteByte('(')
			if err := formatItems(sb, item.Children); err != nil {
				return err
			}
			sb.WriteByte(')')
		}
	}
	return nil
}

func formatLeaf(sb *strings.Builder, leaf ast.Leaf) error {
	sb.WriteString(formatField(leaf.Field))

	switch leaf.Operator {
	case ast.Exists:
		sb.WriteString(" exists")
		return nil
	case ast.NotExists:
		sb.WriteString(" notExists")
		return nil
	}

	sb.WriteByte(' ')
	sb.WriteString(operatorSymbol(leaf.Operator))
	sb.WriteByte(' ')
	return formatValue(sb, leaf.Value)
}

func formatField(field string) string {
	if bareField.MatchString(field) && !keywords[strings.ToLower(field)] {
		return field
	}
	return strconv.Quote(field)
}

func operatorSymbol(op ast.Operator) string {
	symbols := make([]string, 0, len(operators))
	for sym, o := range operators {
		if o == op {
			symbols = append(symbols, sym)
		}
	}
	// "!=" sorts before "<>".
	sort.Strings(symbols)
	if len(symbols) == 0 {
		return string(op)
	}
	return symbols[0]
}

func formatValue(sb *strings.Builder, v any) error {
	v, err := ast.Normalize(v)
	if err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		sb.WriteString(strconv.FormatBool(v))
	case string:
		sb.WriteString(strconv.Quote(v))
	case json.Number:
		sb.WriteString(v.String())
	case []any:
		sb.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := formatValue(sb, item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	default:
		return fmt.Errorf("value of type %T has no filter syntax", v)
	}
	return nil
}
