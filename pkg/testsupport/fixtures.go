package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-propsync/pkg/model"
	"github.com/goliatone/go-propsync/pkg/openapi"
	"github.com/goliatone/go-propsync/pkg/property"
)

// LoadClasses reads an OpenAPI fixture and declares its component schemas
// in a fresh registry. Testing helpers fail the test on error to keep
// contract tests concise.
func LoadClasses(t *testing.T, path string) *property.Registry {
	t.Helper()

	registry, err := LoadClassesFromPath(path)
	if err != nil {
		t.Fatalf("load classes: %v", err)
	}
	return registry
}

// LoadClassesFromPath returns a populated registry without requiring
// testing.T, allowing callers to wire fixtures in setup functions.
func LoadClassesFromPath(path string) (*property.Registry, error) {
	if path == "" {
		return nil, errors.New("testsupport: document path is required")
	}

	data, err := openapi.Read(Context(), openapi.SourceFromFile(path), nil)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read document: %w", err)
	}
	registry := property.NewRegistry()
	if _, err := openapi.LoadClasses(Context(), data, registry); err != nil {
		return nil, fmt.Errorf("testsupport: load classes: %w", err)
	}
	return registry, nil
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// CompareJSON decodes both payloads and returns a diff string if they differ.
// Key order and whitespace are ignored.
func CompareJSON(t *testing.T, want, got []byte) string {
	t.Helper()

	var wantValue, gotValue any
	if err := json.Unmarshal(want, &wantValue); err != nil {
		t.Fatalf("decode want: %v", err)
	}
	if err := json.Unmarshal(got, &gotValue); err != nil {
		t.Fatalf("decode got: %v", err)
	}
	return cmp.Diff(wantValue, gotValue)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// Notice is one change seen by a Recorder, without the model pointer so
// tests can compare with cmp.
type Notice struct {
	Model  string
	Attr   string
	Old    any
	New    any
	Hint   string
	Setter any
}

// Recorder collects model changes. It can be used as a model.Sink or as a
// per-attribute callback.
type Recorder struct {
	Notices []Notice
}

var _ model.Sink = (*Recorder)(nil)

// ModelChanged implements model.Sink.
func (r *Recorder) ModelChanged(change model.Change) error {
	notice := Notice{
		Attr:   change.Attr,
		Old:    change.Old,
		New:    change.New,
		Setter: change.Setter,
	}
	if change.Model != nil {
		notice.Model = change.Model.ID()
	}
	if change.Hint != nil {
		notice.Hint = change.Hint.HintKind()
	}
	r.Notices = append(r.Notices, notice)
	return nil
}

// Callback returns a model.Callback feeding the recorder.
func (r *Recorder) Callback() model.Callback {
	return r.ModelChanged
}

// Attrs returns the attribute names of the recorded changes in order.
func (r *Recorder) Attrs() []string {
	out := make([]string, 0, len(r.Notices))
	for _, notice := range r.Notices {
		out = append(out, notice.Attr)
	}
	return out
}

// Reset drops every recorded change.
func (r *Recorder) Reset() {
	r.Notices = nil
}
