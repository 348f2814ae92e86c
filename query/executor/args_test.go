package executor_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/docql/query/executor"
	"github.com/satishbabariya/docql/query/sqlgen"
)

func TestEncodeArgs(t *testing.T) {
	values := []any{
		"John",
		json.Number("2"),
		json.Number("2.5"),
		true,
		nil,
		[]any{json.Number("1"), "a"},
		map[string]any{"k": "v"},
	}

	tests := []struct {
		dialect sqlgen.Dialect
		want    []any
	}{
		{
			dialect: sqlgen.Postgres,
			want:    []any{`"John"`, "2", "2.5", "true", "null", `[1,"a"]`, `{"k":"v"}`},
		},
		{
			dialect: sqlgen.SQLite,
			want:    []any{"John", int64(2), 2.5, int64(1), nil, `[1,"a"]`, `{"k":"v"}`},
		},
		{
			dialect: sqlgen.MySQL,
			want:    []any{"John", int64(2), 2.5, true, nil, `[1,"a"]`, `{"k":"v"}`},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			args, err := executor.EncodeArgs(tt.dialect, values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, args)
		})
	}
}

func TestEncodeArgs_Unencodable(t *testing.T) {
	_, err := executor.EncodeArgs(sqlgen.SQLite, []any{"ok", func() {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument 2")
}
