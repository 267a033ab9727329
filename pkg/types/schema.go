package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-propsync/pkg/wrappers"
)

// JSONSchema accepts JSON-compatible values that validate against schema.
// Values are normalised to their decoded JSON form (float64 numbers,
// []any, map[string]any) before validation and storage.
func JSONSchema(schema *jsonschema.Schema, opts ...Option) *Scalar {
	name := "JSONSchema"
	if schema != nil && schema.Location != "" {
		name = "JSONSchema(" + schema.Location + ")"
	}
	return Checked(name, func(v any) error {
		if schema == nil {
			return nil
		}
		if err := schema.Validate(v); err != nil {
			return fmt.Errorf("schema validation: %w", err)
		}
		return nil
	}, opts...)
}

// Checked accepts JSON-compatible values approved by check. check sees the
// normalised value; nil is passed through without checking.
func Checked(name string, check func(any) error, opts ...Option) *Scalar {
	return newScalar(name, nil, func(v any) (any, error) {
		normalised, err := normaliseJSON(wrappers.Unwrap(v))
		if err != nil {
			return nil, err
		}
		if normalised == nil || check == nil {
			return normalised, nil
		}
		if err := check(normalised); err != nil {
			return nil, err
		}
		return normalised, nil
	}, opts)
}

// CompileJSONSchema compiles a schema document held in memory. url names the
// document in error messages.
func CompileJSONSchema(url, source string) (*jsonschema.Schema, error) {
	if strings.TrimSpace(url) == "" {
		url = "schema.json"
	}
	schema, err := jsonschema.CompileString(url, source)
	if err != nil {
		return nil, fmt.Errorf("types: compile schema %s: %w", url, err)
	}
	return schema, nil
}

func normaliseJSON(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON compatible: %w", err)
	}
	var out any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("value is not JSON compatible: %w", err)
	}
	return out, nil
}
