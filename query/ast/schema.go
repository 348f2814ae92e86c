package ast

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaJSON is the JSON Schema (draft-07) of the query wire format.
const SchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Query",
  "type": "object",
  "properties": {
    "filter": {
      "oneOf": [
        {"type": "null"},
        {"type": "array", "items": {"$ref": "#/definitions/item"}}
      ]
    },
    "sort": {
      "oneOf": [
        {"type": "null"},
        {"type": "array", "items": {"$ref": "#/definitions/sortItem"}}
      ]
    },
    "limit": {
      "oneOf": [
        {"type": "null"},
        {"$ref": "#/definitions/limit"}
      ]
    }
  },
  "definitions": {
    "operation": {"enum": ["and", "or", "not"]},
    "operator": {
      "enum": [
        "equals", "notEquals",
        "greaterThan", "greaterThanOrEquals",
        "lessThan", "lessThanOrEquals",
        "exists", "notExists",
        "in", "notIn"
      ]
    },
    "item": {
      "oneOf": [
        {"$ref": "#/definitions/filterItem"},
        {"$ref": "#/definitions/conditionItem"}
      ]
    },
    "filterItem": {
      "type": "object",
      "required": ["type", "operation", "filter"],
      "properties": {
        "type": {"const": "filter"},
        "operation": {"$ref": "#/definitions/operation"},
        "filter": {"$ref": "#/definitions/leaf"}
      }
    },
    "conditionItem": {
      "type": "object",
      "required": ["type", "operation", "filter"],
      "properties": {
        "type": {"const": "condition"},
        "operation": {"$ref": "#/definitions/operation"},
        "filter": {
          "type": "array",
          "minItems": 1,
          "items": {"$ref": "#/definitions/item"}
        }
      }
    },
    "leaf": {
      "type": "object",
      "required": ["field", "operator", "value"],
      "properties": {
        "field": {"type": "string"},
        "operator": {"$ref": "#/definitions/operator"}
      }
    },
    "sortItem": {
      "type": "object",
      "required": ["field", "direction"],
      "properties": {
        "field": {"type": "string"},
        "direction": {"enum": ["1", "-1", 1, -1]}
      }
    },
    "uint": {"type": "integer", "minimum": 0, "maximum": 4294967295},
    "limit": {
      "type": "object",
      "properties": {
        "limit": {"oneOf": [{"type": "null"}, {"$ref": "#/definitions/uint"}]},
        "offset": {"oneOf": [{"type": "null"}, {"$ref": "#/definitions/uint"}]}
      }
    }
  }
}`

var querySchema = mustLoadSchema()

func mustLoadSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(SchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("ast: invalid query schema: %v", err))
	}
	return schema
}

// Validate checks data against the wire schema without decoding it.
func Validate(data []byte) error {
	result, err := querySchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return malformed(data, "invalid JSON", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return malformed(data, strings.Join(msgs, "; "), nil)
}

// Parse validates data against the wire schema and decodes it.
func Parse(data []byte) (*Query, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var q Query
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ParseString is Parse for string input.
func ParseString(s string) (*Query, error) {
	return Parse([]byte(s))
}

// MustParse is like Parse but panics on error. Intended for tests and fixtures.
func MustParse(s string) *Query {
	q, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return q
}
