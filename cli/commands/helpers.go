package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/satishbabariya/docql/query/ast"
	"github.com/satishbabariya/docql/query/dsl"
)

// queryFlags select where a query comes from and override its sort and limit.
type queryFlags struct {
	query  string
	file   string
	where  string
	sort   []string
	limit  int64
	offset int64
}

func (f *queryFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.query, "query", "q", "", "Query in wire-format JSON")
	fs.StringVarP(&f.file, "file", "f", "", "File holding a wire-format JSON query (- for stdin)")
	fs.StringVarP(&f.where, "where", "w", "", "Filter expression, e.g. 'age > 18 and name = \"Ada\"'")
	fs.StringSliceVar(&f.sort, "sort", nil, "Sort key as field[:asc|desc], repeatable")
	fs.Int64Var(&f.limit, "limit", -1, "Maximum number of results")
	fs.Int64Var(&f.offset, "offset", -1, "Number of results to skip")
}

// load builds the query. With no source at all it returns an empty query.
func (f *queryFlags) load(stdin io.Reader) (*ast.Query, error) {
	sources := 0
	for _, s := range []string{f.query, f.file, f.where} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return nil, errors.New("use only one of --query, --file and --where")
	}

	var (
		q   *ast.Query
		err error
	)
	switch {
	case f.query != "":
		q, err = ast.ParseString(f.query)
	case f.file != "":
		var data []byte
		data, err = readSource(f.file, stdin)
		if err == nil {
			q, err = ast.Parse(data)
		}
	default:
		q, err = dsl.ParseQuery(f.where)
	}
	if err != nil {
		return nil, err
	}

	if len(f.sort) > 0 {
		q.Sort, err = parseSort(f.sort)
		if err != nil {
			return nil, err
		}
	}
	if f.limit >= 0 || f.offset >= 0 {
		if f.limit > int64(^uint32(0)) || f.offset > int64(^uint32(0)) {
			return nil, errors.New("--limit and --offset must fit in 32 bits")
		}
		q.Limit = ast.NewLimit(f.limit, f.offset)
	}
	return q, nil
}

func parseSort(keys []string) ([]ast.SortItem, error) {
	items := make([]ast.SortItem, 0, len(keys))
	for _, key := range keys {
		field, dir, _ := strings.Cut(key, ":")
		if field == "" {
			return nil, fmt.Errorf("invalid sort key %q", key)
		}
		item := ast.SortItem{Field: field, Direction: ast.Ascending}
		switch strings.ToLower(dir) {
		case "", "asc", "1":
		case "desc", "-1":
			item.Direction = ast.Descending
		default:
			return nil, fmt.Errorf("invalid sort direction %q", dir)
		}
		items = append(items, item)
	}
	return items, nil
}

func readSource(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// readDocuments accepts a JSON array of documents or a stream of JSON
// values, one document each (JSON Lines).
func readDocuments(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var docs []json.RawMessage
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("invalid document array: %w", err)
		}
		return docs, nil
	}

	var docs []json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var doc json.RawMessage
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return docs, nil
			}
			return nil, fmt.Errorf("invalid document %d: %w", len(docs)+1, err)
		}
		docs = append(docs, doc)
	}
}

func writeJSONLines(w io.Writer, docs []json.RawMessage) error {
	for _, doc := range docs {
		var buf bytes.Buffer
		if err := json.Compact(&buf, doc); err != nil {
			return err
		}
		buf.WriteByte('\n')
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
