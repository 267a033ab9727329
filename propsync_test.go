package propsync_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-propsync"
	"github.com/goliatone/go-propsync/pkg/model"
	"github.com/goliatone/go-propsync/pkg/openapi"
	"github.com/goliatone/go-propsync/pkg/property"
	"github.com/goliatone/go-propsync/pkg/theme"
	"github.com/goliatone/go-propsync/pkg/types"
)

const axisDocument = `{
  "openapi": "3.0.3",
  "info": {"title": "axes", "version": "1.0.0"},
  "paths": {},
  "components": {"schemas": {
    "Axis": {
      "type": "object",
      "x-propsync": {"parent": "Renderable"},
      "properties": {
        "line_color": {"type": "string", "default": "black"},
        "line_width": {"type": "integer", "default": 1},
        "visible": {"type": "boolean", "default": true}
      }
    }
  }}
}`

func schemaFS() fstest.MapFS {
	return fstest.MapFS{"schemas/axes.json": {Data: []byte(axisDocument)}}
}

func goRegistry(t *testing.T) *property.Registry {
	t.Helper()
	registry := property.NewRegistry()
	registry.MustRegister(property.NewClass("Renderable", nil).
		Property("level", types.Enum([]string{"glyph", "overlay"})).
		MustBuild())
	return registry
}

func TestOpenAndNewModel(t *testing.T) {
	selector, err := theme.NewManifestSelector(&gotheme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens:  map[string]string{"Axis.line_width": "2"},
		Variants: map[string]gotheme.Variant{
			"bold": {Tokens: map[string]string{"Axis.line_width": "3"}},
		},
	})
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	base := theme.New(map[string]map[string]any{"Axis": {"line_color": "gray", "line_width": 5}})

	session, err := propsync.Open(context.Background(), openapi.SourceFromFS("schemas/axes.json"),
		propsync.WithFileSystem(schemaFS()),
		propsync.WithRegistry(goRegistry(t)),
		propsync.WithTheme(base),
		propsync.WithThemeSelector(selector, "acme", "bold"),
	)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if diff := cmp.Diff([]string{"Axis", "Renderable"}, session.Registry.List()); diff != "" {
		t.Fatalf("registry mismatch (-want +got):\n%s", diff)
	}

	axis, err := session.NewModel("Axis", map[string]any{"visible": false}, model.WithID("x-axis"))
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	if got, _ := session.Document.Get("x-axis"); got != axis {
		t.Fatalf("model must be a document root")
	}

	want := map[string]any{
		"level":      "glyph",
		"line_color": "gray",
		"line_width": 3,
		"visible":    false,
	}
	got, err := axis.PropertiesWithValues(true)
	if err != nil {
		t.Fatalf("properties: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := propsync.Open(ctx, openapi.SourceFromFS("schemas/axes.json")); err == nil ||
		!strings.Contains(err.Error(), "filesystem is not configured") {
		t.Fatalf("expected filesystem error, got %v", err)
	}
	if _, err := propsync.Open(ctx, openapi.SourceFromFS("schemas/axes.json"), propsync.WithFileSystem(schemaFS())); err == nil ||
		!strings.Contains(err.Error(), `class "Renderable" not found`) {
		t.Fatalf("expected missing parent error, got %v", err)
	}

	selector, err := theme.NewManifestSelector(&gotheme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens:  map[string]string{"Axis.line_color": "red"},
	})
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	_, err = propsync.Open(ctx, openapi.SourceFromFS("schemas/axes.json"),
		propsync.WithFileSystem(schemaFS()),
		propsync.WithRegistry(goRegistry(t)),
		propsync.WithThemeSelector(selector, "other", ""),
	)
	if err == nil {
		t.Fatalf("expected unknown theme error")
	}
}

func TestSessionNewModelErrors(t *testing.T) {
	var closed *propsync.Session
	if _, err := closed.NewModel("Axis", nil); err == nil {
		t.Fatalf("expected error for a nil session")
	}

	session, err := propsync.Open(context.Background(), openapi.SourceFromFS("schemas/axes.json"),
		propsync.WithFileSystem(schemaFS()),
		propsync.WithRegistry(goRegistry(t)),
	)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := session.NewModel("Missing", nil); err == nil {
		t.Fatalf("expected unknown class error")
	}
	if _, err := session.NewModel("Axis", map[string]any{"line_width": "wide"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := session.NewModel("Axis", nil, model.WithID("a")); err != nil {
		t.Fatalf("new model: %v", err)
	}
	if _, err := session.NewModel("Axis", nil, model.WithID("a")); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
