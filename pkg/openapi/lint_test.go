package openapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-propsync/pkg/openapi"
)

func TestLint(t *testing.T) {
	doc := []byte(`{
	  "openapi": "3.0.3",
	  "info": {"title": "t", "version": "1"},
	  "paths": {},
	  "components": {"schemas": {
	    "Plot": {
	      "type": "object",
	      "x-propsync": {"parent": "Model", "colour": "red"},
	      "properties": {
	        "a": {"x-propsync": {"spec": "volume"}},
	        "b": {"x-propsync": {"spec": "units"}},
	        "c": {"x-propsync": "oops"},
	        "d": {"x-propsync": {"foo": 1, "spec": "number"}},
	        "e": {"x-propsync": {"spec": "units", "units": ["a", "b"], "default_units": "b"}}
	      }
	    },
	    "Model": {"type": "object"}
	  }}
	}`)

	got, err := openapi.Lint(context.Background(), doc)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	want := []openapi.Violation{
		{
			Location: "components > schemas > Plot > colour",
			Message:  `unsupported x-propsync key "colour" (supported: overrides, parent)`,
		},
		{
			Location: "components > schemas > Plot > properties.a > spec",
			Message:  "unknown spec kind volume (supported: distance, number, string, units)",
		},
		{
			Location: "components > schemas > Plot > properties.b > units",
			Message:  "units spec needs a non-empty list of strings",
		},
		{
			Location: "components > schemas > Plot > properties.c",
			Message:  "x-propsync must be an object, found string",
		},
		{
			Location: "components > schemas > Plot > properties.d > foo",
			Message:  `unsupported x-propsync key "foo" (supported: default_units, spec, units)`,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
	if got[0].String() != "components > schemas > Plot > colour -> "+want[0].Message {
		t.Fatalf("unexpected violation string %q", got[0].String())
	}
}

func TestLintCleanDocument(t *testing.T) {
	got, err := openapi.Lint(context.Background(), []byte(plotDocument))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no violations, got %v", got)
	}
}

func TestRead(t *testing.T) {
	fsys := fstest.MapFS{
		"schemas/plot.json": {Data: []byte(plotDocument)},
	}

	data, err := openapi.Read(context.Background(), openapi.SourceFromFS("schemas/plot.json"), fsys)
	if err != nil {
		t.Fatalf("read fs: %v", err)
	}
	if string(data) != plotDocument {
		t.Fatalf("unexpected fs payload")
	}

	path := filepath.Join(t.TempDir(), "plot.json")
	if err := os.WriteFile(path, []byte(plotDocument), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	src := openapi.SourceFromFile(path)
	if src.Kind() != openapi.SourceKindFile || src.Location() != path {
		t.Fatalf("unexpected source %v %q", src.Kind(), src.Location())
	}
	if _, err := openapi.Read(context.Background(), src, nil); err != nil {
		t.Fatalf("read file: %v", err)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  openapi.Source
		fsys fstest.MapFS
		want string
	}{
		{name: "nil source", want: "source is nil"},
		{name: "fs without filesystem", src: openapi.SourceFromFS("plot.json"), want: "filesystem is not configured"},
		{name: "missing fs entry", src: openapi.SourceFromFS("plot.json"), fsys: fstest.MapFS{}, want: "read plot.json"},
		{name: "missing file", src: openapi.SourceFromFile(filepath.Join(os.TempDir(), "propsync-missing.json")), want: "openapi: read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fsys fstest.MapFS
			if tt.fsys != nil {
				fsys = tt.fsys
			}
			var err error
			if fsys == nil {
				_, err = openapi.Read(context.Background(), tt.src, nil)
			} else {
				_, err = openapi.Read(context.Background(), tt.src, fsys)
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := openapi.Read(ctx, openapi.SourceFromFS("plot.json"), fstest.MapFS{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestReaderURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plot.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(plotDocument))
	}))
	defer srv.Close()

	src := openapi.SourceFor(srv.URL + "/plot.json")
	if src.Kind() != openapi.SourceKindURL {
		t.Fatalf("expected url source, got %v", src.Kind())
	}
	if got := openapi.SourceFor("schemas/plot.json").Kind(); got != openapi.SourceKindFile {
		t.Fatalf("expected file source, got %v", got)
	}

	reader := openapi.Reader{HTTPClient: srv.Client(), Timeout: 5 * time.Second}
	data, err := reader.Read(context.Background(), src)
	if err != nil {
		t.Fatalf("read url: %v", err)
	}
	if string(data) != plotDocument {
		t.Fatalf("unexpected url payload")
	}

	_, err = reader.Read(context.Background(), openapi.SourceFromURL(srv.URL+"/missing.json"))
	if err == nil || !strings.Contains(err.Error(), "unexpected status 404") {
		t.Fatalf("expected status error, got %v", err)
	}
	_, err = openapi.Read(context.Background(), src, nil)
	if err == nil || !strings.Contains(err.Error(), "http support disabled") {
		t.Fatalf("expected disabled http error, got %v", err)
	}
}
