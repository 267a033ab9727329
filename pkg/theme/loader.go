package theme

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFS walks the provided filesystem and merges every JSON/YAML theme file.
// When fsys is nil or holds no theme files, the returned theme is empty. A
// class attribute themed by two files is an error.
func LoadFS(fsys fs.FS) (*Theme, error) {
	merged := New(nil)
	if fsys == nil {
		return merged, nil
	}

	owners := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isThemeFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("theme: read %s: %w", path, err)
		}
		doc, err := Parse(data, path)
		if err != nil {
			return err
		}

		for class, values := range doc.classes {
			if merged.classes[class] == nil {
				merged.classes[class] = make(map[string]any, len(values))
			}
			for name, value := range values {
				key := class + "." + name
				if previous, exists := owners[key]; exists {
					return fmt.Errorf("theme: duplicate value for %s (files %s and %s)", key, previous, path)
				}
				owners[key] = path
				merged.classes[class][name] = value
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// LoadFile parses a single JSON/YAML theme file.
func LoadFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("theme: read %s: %w", path, err)
	}
	return Parse(data, path)
}

type documentFile struct {
	Attrs map[string]map[string]any `json:"attrs" yaml:"attrs"`
}

// Parse decodes a theme document of the form {"attrs": {"Class": {"attr":
// value}}}. JSON is tried first, then YAML.
func Parse(data []byte, source string) (*Theme, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("theme: file %s is empty", source)
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = documentFile{}
		if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
			return nil, fmt.Errorf("theme: parse %s: invalid JSON or YAML", source)
		}
	}

	for class := range doc.Attrs {
		if strings.TrimSpace(class) == "" {
			return nil, fmt.Errorf("theme: file %s themes an empty class name", source)
		}
	}
	return New(doc.Attrs), nil
}

func isThemeFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
