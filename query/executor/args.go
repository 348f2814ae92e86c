package executor

import (
	"encoding/json"
	"fmt"

	"github.com/satishbabariya/docql/query/ast"
	"github.com/satishbabariya/docql/query/sqlgen"
)

// EncodeArgs converts leaf values into driver arguments comparable with the
// dialect's field extraction. Postgres compares jsonb, so every value is
// sent as JSON text. SQLite's ->> and MySQL yield SQL scalars, so scalars
// are sent natively and composite values as JSON text.
func EncodeArgs(dialect sqlgen.Dialect, values []any) ([]any, error) {
	args := make([]any, len(values))
	for i, v := range values {
		arg, err := encodeArg(dialect, v)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		args[i] = arg
	}
	return args, nil
}

func encodeArg(dialect sqlgen.Dialect, v any) (any, error) {
	v, err := ast.Normalize(v)
	if err != nil {
		return nil, err
	}

	if dialect == sqlgen.Postgres {
		return jsonText(v)
	}

	switch v := v.(type) {
	case nil, string:
		return v, nil
	case bool:
		if dialect == sqlgen.SQLite {
			// json true extracts as integer 1.
			if v {
				return int64(1), nil
			}
			return int64(0), nil
		}
		return v, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		return v.Float64()
	default:
		return jsonText(v)
	}
}

func jsonText(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
