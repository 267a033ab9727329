package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

// FromSelection converts the tokens of a go-theme selection into themed
// attribute values. Only tokens named `<Class>.<attr>` are used; their
// values are decoded as JSON when possible and kept as strings otherwise.
func FromSelection(selection *gotheme.Selection) (*Theme, error) {
	out := New(nil)
	if selection == nil {
		return out, nil
	}
	for key, raw := range selection.Tokens() {
		class, attr, ok := strings.Cut(key, ".")
		class, attr = strings.TrimSpace(class), strings.TrimSpace(attr)
		if !ok || class == "" || attr == "" {
			continue
		}
		if out.classes[class] == nil {
			out.classes[class] = make(map[string]any)
		}
		out.classes[class][attr] = decodeToken(raw)
	}
	return out, nil
}

// Resolve selects name/variant through selector and converts the selection.
func Resolve(selector gotheme.ThemeSelector, name, variant string, opts ...gotheme.QueryOption) (*Theme, error) {
	if selector == nil {
		return nil, errors.New("theme: selector is required")
	}
	selection, err := selector.Select(name, variant, opts...)
	if err != nil {
		return nil, fmt.Errorf("theme: select %s/%s: %w", name, variant, err)
	}
	return FromSelection(selection)
}

func decodeToken(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err == nil {
		return value
	}
	return raw
}
