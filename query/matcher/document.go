package matcher

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is a semi-structured record whose top-level fields can be looked up by name.
type Document interface {
	Lookup(field string) (any, bool)
}

// MapDocument adapts a decoded JSON object.
type MapDocument map[string]any

func (d MapDocument) Lookup(field string) (any, bool) {
	v, ok := d[field]
	return v, ok
}

// FromJSON decodes a JSON object into a Document, keeping numbers as json.Number.
// A non-object value yields a document without fields.
func FromJSON(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return MapDocument{}, nil
	}
	return MapDocument(obj), nil
}

// FromValue wraps an arbitrary value. Structs and other non-map values are
// converted through their JSON encoding.
func FromValue(v any) (Document, error) {
	switch doc := v.(type) {
	case Document:
		return doc, nil
	case map[string]any:
		return MapDocument(doc), nil
	case json.RawMessage:
		return FromJSON(doc)
	case []byte:
		return FromJSON(doc)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return FromJSON(raw)
}
