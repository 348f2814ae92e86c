// Package store defines the persistence contract that consumes queries and
// produces JSON documents, plus helpers shared by every backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/satishbabariya/docql/query/ast"
)

// Error types for store operations.
var (
	// ErrUnknownCollection is returned when a collection is not registered.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrInvalidDocument is returned when a document is not a JSON object.
	ErrInvalidDocument = errors.New("document must be a JSON object")

	// ErrClosed is returned when a store is used after Close.
	ErrClosed = errors.New("store closed")
)

// Persistence finds and inserts JSON documents by collection.
type Persistence interface {
	// Find returns the documents of collection matching q in result order.
	// A nil q returns every document.
	Find(ctx context.Context, collection string, q *ast.Query) ([]json.RawMessage, error)

	// Insert stores a JSON object and returns its id. An "_id" member is
	// used as the id when present, otherwise one is generated.
	Insert(ctx context.Context, collection string, doc json.RawMessage) (string, error)
}

// OpError records a failed store operation.
type OpError struct {
	Op         string
	Collection string
	Cause      error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Collection, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Cause
}

// NewOpError creates a new OpError.
func NewOpError(op, collection string, cause error) *OpError {
	return &OpError{Op: op, Collection: collection, Cause: cause}
}

// Find runs q against collection and decodes every document into T.
func Find[T any](ctx context.Context, p Persistence, collection string, q *ast.Query) ([]T, error) {
	docs, err := p.Find(ctx, collection, q)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(docs))
	for i, raw := range docs {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, NewOpError("decode", collection, fmt.Errorf("document %d: %w", i, err))
		}
		out = append(out, v)
	}
	return out, nil
}

// InsertValue encodes v and inserts it into collection.
func InsertValue(ctx context.Context, p Persistence, collection string, v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", NewOpError("encode", collection, err)
	}
	return p.Insert(ctx, collection, raw)
}
