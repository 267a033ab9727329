package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

// ParseManifest decodes a go-theme manifest from JSON or YAML and
// validates it. source names the payload in errors.
func ParseManifest(data []byte, source string) (*gotheme.Manifest, error) {
	manifest, err := gotheme.LoadBytes(data, "")
	if err != nil {
		return nil, fmt.Errorf("theme: parse manifest %s: %w", source, err)
	}
	return manifest, nil
}

// LoadManifest reads a manifest file, inferring the format from its
// extension.
func LoadManifest(path string) (*gotheme.Manifest, error) {
	manifest, err := gotheme.LoadFile(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("theme: load %s: %w", path, err)
	}
	return manifest, nil
}

// ManifestSelector is a go-theme Selector over an in-memory registry.
// Setting DefaultTheme or DefaultVariant enables the go-theme fallbacks.
type ManifestSelector struct {
	gotheme.Selector

	registry *gotheme.MemoryRegistry
}

var _ gotheme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector registers manifests and returns a selector over them.
func NewManifestSelector(manifests ...*gotheme.Manifest) (*ManifestSelector, error) {
	registry := gotheme.NewRegistry()
	for _, manifest := range manifests {
		if manifest == nil {
			continue
		}
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("theme: register manifest %s: %w", manifest.Name, err)
		}
	}
	return &ManifestSelector{
		Selector: gotheme.Selector{Registry: registry},
		registry: registry,
	}, nil
}

// Select resolves name/variant through the go-theme selector. An empty
// name picks the only registered theme when no DefaultTheme is set, and a
// variant the manifest does not declare is an error.
func (s *ManifestSelector) Select(name, variant string, opts ...gotheme.QueryOption) (*gotheme.Selection, error) {
	if strings.TrimSpace(name) == "" && s.DefaultTheme == "" {
		if names := s.names(); len(names) == 1 {
			name = names[0]
		}
	}
	selection, err := s.Selector.Select(name, variant, opts...)
	if err != nil {
		return nil, fmt.Errorf("theme: %w (available: %s)", err, strings.Join(s.names(), ", "))
	}
	if selection.Variant != "" {
		if _, ok := selection.Manifest.Variants[selection.Variant]; !ok {
			return nil, fmt.Errorf("theme: theme %q has no variant %q", selection.Manifest.Name, selection.Variant)
		}
	}
	return selection, nil
}

func (s *ManifestSelector) names() []string {
	refs := s.registry.Themes()
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	sort.Strings(names)
	return slices.Compact(names)
}
