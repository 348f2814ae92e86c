package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// Normalize converts v into the canonical JSON value domain used by decoded
// queries: nil, bool, string, json.Number, []any and map[string]any.
func Normalize(v any) (any, error) {
	switch v := v.(type) {
	case nil, bool, string, json.Number:
		return v, nil
	case int:
		return json.Number(strconv.Itoa(v)), nil
	case int64:
		return json.Number(strconv.FormatInt(v, 10)), nil
	case uint32:
		return json.Number(strconv.FormatUint(uint64(v), 10)), nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value %v is not JSON encodable: %w", v, err)
	}
	var out any
	if err := decodeStrict(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Float returns v as a float64 if it is a JSON number in any Go
// representation, including named numeric types.
func Float(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// exact returns v as an exact rational. Non-finite floats have no rational
// form and report false. Exponent notation goes through float64 so a huge
// exponent cannot force a huge rational.
func exact(v any) (*big.Rat, bool) {
	if n, ok := v.(json.Number); ok {
		if strings.ContainsAny(n.String(), "eE") {
			f, err := n.Float64()
			if err != nil || math.IsInf(f, 0) {
				return nil, false
			}
			return new(big.Rat).SetFloat64(f), true
		}
		return new(big.Rat).SetString(n.String())
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return new(big.Rat).SetInt64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Rat).SetUint64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return new(big.Rat).SetFloat64(f), true
	}
	return nil, false
}

// numberEqual compares two numbers by exact value, so integers beyond 2^53
// stay distinct.
func numberEqual(a, b any) bool {
	ra, okA := exact(a)
	rb, okB := exact(b)
	if okA && okB {
		return ra.Cmp(rb) == 0
	}
	fa, _ := Float(a)
	fb, _ := Float(b)
	return fa == fb
}

// Equal reports structural equality of two JSON values. Numbers compare by
// exact value regardless of representation; no other cross-type conversion
// happens.
func Equal(a, b any) bool {
	if _, ok := Float(a); ok {
		if _, ok := Float(b); !ok {
			return false
		}
		return numberEqual(a, b)
	}

	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	}

	// Non-canonical composite values: compare their JSON encodings.
	na, errA := Normalize(a)
	nb, errB := Normalize(b)
	if errA != nil || errB != nil {
		return false
	}
	if _, ok := na.([]any); ok {
		return Equal(na, nb)
	}
	if _, ok := na.(map[string]any); ok {
		return Equal(na, nb)
	}
	ra, _ := json.Marshal(na)
	rb, _ := json.Marshal(nb)
	return bytes.Equal(ra, rb)
}
