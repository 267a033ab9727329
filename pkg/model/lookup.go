package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/goliatone/go-propsync/pkg/property"
)

const maxSuggestions = 3

func unknownAttribute(cls *property.Class, name string) error {
	names := cls.Properties()
	var detail string
	if similar := similarNames(name, names); len(similar) > 0 {
		detail = fmt.Sprintf("unexpected attribute %q to %s, similar attributes are %s",
			name, cls.Name(), strings.Join(similar, ", "))
	} else {
		detail = fmt.Sprintf("unexpected attribute %q to %s, possible attributes are %s",
			name, cls.Name(), strings.Join(names, ", "))
	}
	return &property.Error{
		Kind:  property.ErrUnknownAttribute,
		Class: cls.Name(),
		Attr:  name,
		Err:   fmt.Errorf("%s", detail),
	}
}

// similarNames returns up to maxSuggestions candidates within an edit
// distance proportional to the length of name, closest first.
func similarNames(name string, candidates []string) []string {
	limit := len(name) / 3
	if limit < 2 {
		limit = 2
	}

	type scored struct {
		name     string
		distance int
	}
	var matches []scored
	for _, candidate := range candidates {
		distance := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(candidate))
		if distance <= limit {
			matches = append(matches, scored{name: candidate, distance: distance})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].distance == matches[j].distance {
			return matches[i].name < matches[j].name
		}
		return matches[i].distance < matches[j].distance
	})
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	out := make([]string, len(matches))
	for idx, match := range matches {
		out[idx] = match.name
	}
	return out
}
