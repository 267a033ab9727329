package openapi

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

var (
	classExtensionKeys    = []string{"overrides", "parent"}
	propertyExtensionKeys = []string{"default_units", "spec", "units"}
	specKinds             = []string{"distance", "number", "string", "units"}
)

// Violation is one unsupported use of the x-propsync extension.
type Violation struct {
	Location string
	Message  string
}

func (v Violation) String() string {
	return v.Location + " -> " + v.Message
}

// Lint reports x-propsync extensions LoadClasses would reject or ignore.
// Violations are sorted by location.
func Lint(ctx context.Context, data []byte) ([]Violation, error) {
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if spec.Components == nil {
		return nil, nil
	}

	var result []Violation
	for _, name := range sortedProperties(spec.Components.Schemas) {
		ref := spec.Components.Schemas[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		base := []string{"components", "schemas", name}
		result = append(result, lintExtension(base, ref.Value.Extensions, classExtensionKeys, nil)...)
		for _, prop := range sortedProperties(ref.Value.Properties) {
			propRef := ref.Value.Properties[prop]
			if propRef == nil || propRef.Value == nil || propRef.Ref != "" {
				continue
			}
			path := appendPath(base, "properties."+prop)
			result = append(result, lintExtension(path, propRef.Value.Extensions, propertyExtensionKeys, lintSpec)...)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Location == result[j].Location {
			return result[i].Message < result[j].Message
		}
		return result[i].Location < result[j].Location
	})
	return result, nil
}

func lintExtension(path []string, extensions map[string]any, allowed []string, check func([]string, map[string]any) []Violation) []Violation {
	value, ok := extensions[ExtensionKey]
	if !ok {
		return nil
	}
	nested, ok := value.(map[string]any)
	if !ok {
		return []Violation{{
			Location: formatLocation(path),
			Message:  fmt.Sprintf("%s must be an object, found %T", ExtensionKey, value),
		}}
	}

	var result []Violation
	for _, key := range sortedKeys(nested) {
		if !contains(allowed, key) {
			result = append(result, Violation{
				Location: formatLocation(appendPath(path, key)),
				Message:  fmt.Sprintf("unsupported %s key %q (supported: %s)", ExtensionKey, key, strings.Join(allowed, ", ")),
			})
		}
	}
	if check != nil {
		result = append(result, check(path, nested)...)
	}
	return result
}

func lintSpec(path []string, nested map[string]any) []Violation {
	raw, ok := nested["spec"]
	if !ok {
		return nil
	}
	kind, _ := raw.(string)
	if !contains(specKinds, kind) {
		return []Violation{{
			Location: formatLocation(appendPath(path, "spec")),
			Message:  fmt.Sprintf("unknown spec kind %v (supported: %s)", raw, strings.Join(specKinds, ", ")),
		}}
	}
	if kind == "units" {
		if units, err := stringList(nested["units"]); err != nil || len(units) == 0 {
			return []Violation{{
				Location: formatLocation(appendPath(path, "units")),
				Message:  "units spec needs a non-empty list of strings",
			}}
		}
	}
	return nil
}

func contains(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}

func appendPath(path []string, segment string) []string {
	next := append([]string(nil), path...)
	return append(next, segment)
}

func formatLocation(path []string) string {
	return strings.Join(path, " > ")
}
