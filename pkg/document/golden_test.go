package document_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-propsync/pkg/document"
	"github.com/goliatone/go-propsync/pkg/model"
	"github.com/goliatone/go-propsync/pkg/property"
	"github.com/goliatone/go-propsync/pkg/testsupport"
)

func fixtureDocument(t *testing.T) (*document.Document, *property.Registry) {
	t.Helper()

	registry := testsupport.LoadClasses(t, filepath.Join("testdata", "plots.json"))
	plotCls, err := registry.Get("Plot")
	if err != nil {
		t.Fatalf("get plot: %v", err)
	}
	rangeCls, err := registry.Get("Range")
	if err != nil {
		t.Fatalf("get range: %v", err)
	}

	r := model.MustNew(rangeCls, map[string]any{"start": 2.5}, model.WithID("r1"))
	p := model.MustNew(plotCls, map[string]any{
		"title":   "Sales",
		"x_range": r,
		"tags":    []any{"q1"},
		"x":       "revenue",
	}, model.WithID("p1"))

	doc := document.New(document.WithRegistry(registry))
	if err := doc.AddRoot(p); err != nil {
		t.Fatalf("add root: %v", err)
	}
	if err := p.Set("title", "Revenue"); err != nil {
		t.Fatalf("set title: %v", err)
	}
	return doc, registry
}

func TestSnapshotGolden(t *testing.T) {
	doc, _ := fixtureDocument(t)
	goldenPath := filepath.Join("testdata", "snapshot.golden.json")

	got, err := doc.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	testsupport.WriteGolden(t, goldenPath, json.RawMessage(got))

	want := testsupport.MustReadGolden(t, goldenPath)
	if diff := testsupport.CompareJSON(t, want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchGolden(t *testing.T) {
	doc, registry := fixtureDocument(t)
	goldenPath := filepath.Join("testdata", "patch.golden.json")

	got, err := doc.PatchJSON(nil)
	if err != nil {
		t.Fatalf("patch json: %v", err)
	}
	testsupport.WriteGolden(t, goldenPath, json.RawMessage(got))

	want := testsupport.MustReadGolden(t, goldenPath)
	if diff := testsupport.CompareJSON(t, want, got); diff != "" {
		t.Fatalf("patch mismatch (-want +got):\n%s", diff)
	}

	server := document.New(document.WithRegistry(registry))
	if err := server.ApplyPatch(want, "client"); err != nil {
		t.Fatalf("apply patch: %v", err)
	}
	serverJSON, err := server.ToJSON()
	if err != nil {
		t.Fatalf("server to json: %v", err)
	}

	var wantSnapshot, gotSnapshot document.Snapshot
	if err := json.Unmarshal(testsupport.MustReadGolden(t, filepath.Join("testdata", "snapshot.golden.json")), &wantSnapshot); err != nil {
		t.Fatalf("decode golden snapshot: %v", err)
	}
	if err := json.Unmarshal(serverJSON, &gotSnapshot); err != nil {
		t.Fatalf("decode server snapshot: %v", err)
	}
	if diff := testsupport.CompareGolden(wantSnapshot.Models, gotSnapshot.Models); diff != "" {
		t.Fatalf("server models mismatch (-want +got):\n%s", diff)
	}
}
