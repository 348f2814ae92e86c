// Package memory implements store.Persistence over in-process document
// lists, evaluating filters with the document matcher.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/satishbabariya/docql/internal/debug"
	"github.com/satishbabariya/docql/query/ast"
	"github.com/satishbabariya/docql/query/matcher"
	"github.com/satishbabariya/docql/store"
)

// IDField is the member holding a document's id.
const IDField = "_id"

type record struct {
	raw json.RawMessage
	doc matcher.MapDocument
}

// Store keeps documents in memory, in insertion order per collection.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]record
}

// New creates an empty store.
func New() *Store {
	return &Store{collections: make(map[string][]record)}
}

// Insert implements store.Persistence.
func (s *Store) Insert(ctx context.Context, collection string, doc json.RawMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fields := make(map[string]any)
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return "", store.NewOpError("insert", collection, store.ErrInvalidDocument)
	}

	id, ok := fields[IDField].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		fields[IDField] = id
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return "", store.NewOpError("insert", collection, err)
	}

	s.mu.Lock()
	s.collections[collection] = append(s.collections[collection], record{raw: raw, doc: fields})
	s.mu.Unlock()

	debug.Debug("Inserted document", "collection", collection, "id", id)
	return id, nil
}

// Find implements store.Persistence. Documents are filtered, then sorted,
// then offset and limit are applied.
func (s *Store) Find(ctx context.Context, collection string, q *ast.Query) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	records := append([]record(nil), s.collections[collection]...)
	s.mu.RUnlock()

	if q == nil {
		q = &ast.Query{}
	}

	matched := records
	if q.HasFilter() {
		matched = make([]record, 0, len(records))
		for _, r := range records {
			ok, err := matcher.MatchItems(q.Filter, r.doc)
			if err != nil {
				return nil, store.NewOpError("find", collection, err)
			}
			if ok {
				matched = append(matched, r)
			}
		}
	}

	if len(q.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return less(q.Sort, matched[i].doc, matched[j].doc)
		})
	}

	matched = window(matched, q.Limit)

	out := make([]json.RawMessage, len(matched))
	for i, r := range matched {
		out[i] = r.raw
	}
	return out, nil
}

// Load inserts every document, stopping at the first error.
func (s *Store) Load(ctx context.Context, collection string, docs []json.RawMessage) error {
	for i, doc := range docs {
		if _, err := s.Insert(ctx, collection, doc); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return nil
}

// Len returns the number of documents in collection.
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func window(records []record, limit *ast.Limit) []record {
	if limit == nil {
		return records
	}
	if limit.Offset != nil {
		off := int(*limit.Offset)
		if off >= len(records) {
			return nil
		}
		records = records[off:]
	}
	if limit.Limit != nil && int(*limit.Limit) < len(records) {
		records = records[:*limit.Limit]
	}
	return records
}

func less(keys []ast.SortItem, a, b matcher.MapDocument) bool {
	for _, key := range keys {
		av, aok := a.Lookup(key.Field)
		bv, bok := b.Lookup(key.Field)
		c := compareValues(av, aok, bv, bok)
		if c == 0 {
			continue
		}
		if key.Direction == ast.Descending {
			return c > 0
		}
		return c < 0
	}
	return false
}

// Ordering across kinds: missing, null, bool, number, string, array, object.
func kindRank(v any, present bool) int {
	if !present {
		return 0
	}
	switch v.(type) {
	case nil:
		return 1
	case bool:
		return 2
	case json.Number:
		return 3
	case string:
		return 4
	case []any:
		return 5
	default:
		return 6
	}
}

func compareValues(a any, aok bool, b any, bok bool) int {
	ra, rb := kindRank(a, aok), kindRank(b, bok)
	if ra != rb {
		return ra - rb
	}

	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case json.Number:
		af, _ := ast.Float(av)
		bf, _ := ast.Float(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	}
	return 0
}
