package document_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-propsync/pkg/document"
	"github.com/goliatone/go-propsync/pkg/model"
	"github.com/goliatone/go-propsync/pkg/property"
	"github.com/goliatone/go-propsync/pkg/testsupport"
	"github.com/goliatone/go-propsync/pkg/theme"
	"github.com/goliatone/go-propsync/pkg/types"
	"github.com/goliatone/go-propsync/pkg/wrappers"
)

var (
	rangeClass = property.NewClass("Range", nil).
			Property("start", types.Float()).
			Property("end", types.Float(types.WithDefault(1))).
			MustBuild()

	plotClass = property.NewClass("Plot", nil).
			Property("title", types.String(types.WithDefault("untitled"))).
			Property("x_range", types.Nullable(types.Instance(rangeClass))).
			Property("data", types.Map(types.Any())).
			Property("cache", types.Any(types.NotSerialized())).
			MustBuild()
)

func newRegistry(t *testing.T) *property.Registry {
	t.Helper()
	registry := property.NewRegistry()
	if err := registry.Register(rangeClass); err != nil {
		t.Fatalf("register range: %v", err)
	}
	if err := registry.Register(plotClass); err != nil {
		t.Fatalf("register plot: %v", err)
	}
	return registry
}

func clientDocument(t *testing.T) (*document.Document, *model.Model) {
	t.Helper()

	doc := document.New(document.WithRegistry(newRegistry(t)))
	r := model.MustNew(rangeClass, map[string]any{"start": 2}, model.WithID("r1"))
	p := model.MustNew(plotClass, map[string]any{"title": "Sales", "x_range": r}, model.WithID("p1"))
	if err := doc.AddRoot(p); err != nil {
		t.Fatalf("add root: %v", err)
	}
	return doc, p
}

func modelIDs(models []*model.Model) []string {
	ids := make([]string, len(models))
	for idx, m := range models {
		ids[idx] = m.ID()
	}
	return ids
}

func TestAddRootIndexesReferences(t *testing.T) {
	doc, p := clientDocument(t)

	if diff := cmp.Diff([]string{"p1", "r1"}, modelIDs(doc.Models())); diff != "" {
		t.Fatalf("models mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"p1"}, modelIDs(doc.Roots())); diff != "" {
		t.Fatalf("roots mismatch (-want +got):\n%s", diff)
	}
	if p.Sink() != model.Sink(doc) {
		t.Fatalf("models must be attached to the document")
	}
	if err := doc.AddRoot(p); err != nil || len(doc.Roots()) != 1 {
		t.Fatalf("adding a root twice must be a no-op, got %v", err)
	}
	if owner, ok := doc.ResolveRef("r1"); !ok || owner.(*model.Model).ID() != "r1" {
		t.Fatalf("expected r1 to resolve")
	}
	if len(doc.Events()) != 0 {
		t.Fatalf("adding models must not record events, got %+v", doc.Events())
	}
}

func TestAddRootRejectsConflicts(t *testing.T) {
	doc, _ := clientDocument(t)

	clash := model.MustNew(rangeClass, nil, model.WithID("r1"))
	if err := doc.AddRoot(clash); err == nil || !strings.Contains(err.Error(), "duplicate model id") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}

	other := document.New()
	foreign := model.MustNew(rangeClass, nil, model.WithID("r9"))
	if err := other.AddRoot(foreign); err != nil {
		t.Fatalf("add root: %v", err)
	}
	if err := doc.AddRoot(foreign); err == nil || !strings.Contains(err.Error(), "another document") {
		t.Fatalf("expected foreign model error, got %v", err)
	}
}

func TestChangesRecordEvents(t *testing.T) {
	doc, p := clientDocument(t)

	if err := p.SetWithSetter("title", "Costs", "ui"); err != nil {
		t.Fatalf("set title: %v", err)
	}
	if err := p.Set("cache", "skipped"); err != nil {
		t.Fatalf("set cache: %v", err)
	}
	value, _ := p.Get("data")
	if err := value.(*wrappers.Map).Stream(map[string][]any{"x": {1}}, 0); err != nil {
		t.Fatalf("stream: %v", err)
	}

	want := []document.Event{
		{Kind: document.EventModelChanged, Model: "p1", Attr: "title", New: "Costs", Setter: "ui"},
		{Kind: document.EventModelChanged, Model: "p1", Attr: "data", New: map[string]any{"x": []any{1}}, Hint: wrappers.HintStreamed},
	}
	if diff := cmp.Diff(want, doc.Events()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestNewReferenceJoinsDocument(t *testing.T) {
	doc, p := clientDocument(t)
	if _, err := doc.CreatePatch(nil); err != nil {
		t.Fatalf("drain: %v", err)
	}

	r2 := model.MustNew(rangeClass, map[string]any{"end": 5}, model.WithID("r2"))
	if err := p.Set("x_range", r2); err != nil {
		t.Fatalf("set x_range: %v", err)
	}
	if _, ok := doc.Get("r2"); !ok {
		t.Fatalf("newly referenced model must join the document")
	}

	patch, err := doc.CreatePatch(nil)
	if err != nil {
		t.Fatalf("create patch: %v", err)
	}
	want := document.Patch{
		Events: []document.Event{
			{Kind: document.EventModelChanged, Model: "p1", Attr: "x_range", New: map[string]any{"id": "r2"}},
		},
		References: []model.Serialized{
			{Type: "Range", ID: "r2", Attributes: map[string]any{"end": 5.0}},
		},
	}
	if diff := cmp.Diff(want, patch); diff != "" {
		t.Fatalf("patch mismatch (-want +got):\n%s", diff)
	}
	if len(doc.Events()) != 0 {
		t.Fatalf("create patch must drain the events")
	}
}

func TestPatchRoundTripBetweenPeers(t *testing.T) {
	client, clientPlot := clientDocument(t)
	server := document.New(document.WithRegistry(newRegistry(t)))

	initial, err := client.PatchJSON(nil)
	if err != nil {
		t.Fatalf("client patch: %v", err)
	}
	if err := server.ApplyPatch(initial, "client"); err != nil {
		t.Fatalf("server apply: %v", err)
	}
	if diff := cmp.Diff([]string{"p1", "r1"}, modelIDs(server.Models())); diff != "" {
		t.Fatalf("server models mismatch (-want +got):\n%s", diff)
	}
	serverPlot, _ := server.Get("p1")
	serverRange, _ := server.Get("r1")
	if got, _ := serverPlot.Get("x_range"); got != any(serverRange) {
		t.Fatalf("reference must resolve to the server copy, got %v", got)
	}
	if got, _ := serverRange.Get("start"); got != 2.0 {
		t.Fatalf("expected start 2, got %v", got)
	}

	echo, err := server.CreatePatch("client")
	if err != nil {
		t.Fatalf("server echo patch: %v", err)
	}
	if len(echo.Events) != 0 || len(echo.References) != 0 {
		t.Fatalf("changes from the client must not be echoed back, got %+v", echo)
	}

	if err := serverPlot.Set("title", "Costs"); err != nil {
		t.Fatalf("server set: %v", err)
	}
	update, err := server.PatchJSON("client")
	if err != nil {
		t.Fatalf("server patch: %v", err)
	}
	if err := client.ApplyPatch(update, "server"); err != nil {
		t.Fatalf("client apply: %v", err)
	}
	if got, _ := clientPlot.Get("title"); got != "Costs" {
		t.Fatalf("expected title from server, got %v", got)
	}
	back, err := client.CreatePatch("server")
	if err != nil {
		t.Fatalf("client echo patch: %v", err)
	}
	if len(back.Events) != 0 {
		t.Fatalf("server changes must not be echoed back, got %+v", back.Events)
	}
}

func TestCreatePatchWithUncomparableSetter(t *testing.T) {
	doc, p := clientDocument(t)
	doc.ClearEvents()

	setter := map[string]any{"session": "a"}
	if err := p.SetWithSetter("title", "Mapped", setter); err != nil {
		t.Fatalf("set title: %v", err)
	}
	patch, err := doc.CreatePatch(map[string]any{"session": "a"})
	if err != nil {
		t.Fatalf("create patch: %v", err)
	}
	if len(patch.Events) != 0 {
		t.Fatalf("expected event to be excluded, got %+v", patch.Events)
	}
}

func TestApplyPatchErrors(t *testing.T) {
	tests := []struct {
		name  string
		patch string
		want  string
	}{
		{name: "invalid json", patch: `{`, want: "decode patch"},
		{name: "unknown kind", patch: `{"events":[{"kind":"RootAdded","model":"p1"}]}`, want: "unsupported event kind"},
		{name: "unknown model", patch: `{"events":[{"kind":"ModelChanged","model":"zz","attr":"title","new":"x"}]}`, want: "unknown model"},
		{name: "unknown class", patch: `{"events":[],"references":[{"type":"Ghost","id":"g1","attributes":{}}]}`, want: "not found"},
		{name: "invalid value", patch: `{"events":[{"kind":"ModelChanged","model":"p1","attr":"title","new":3}]}`, want: "invalid value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _ := clientDocument(t)
			err := doc.ApplyPatch([]byte(tt.patch), "peer")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	bare := document.New()
	err := bare.ApplyPatch([]byte(`{"events":[],"references":[{"type":"Plot","id":"p1","attributes":{}}]}`), nil)
	if err == nil || !strings.Contains(err.Error(), "registry is required") {
		t.Fatalf("expected registry error, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	client, _ := clientDocument(t)

	data, err := client.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	want := []byte(`{
		"roots": ["p1"],
		"models": [
			{"type": "Plot", "id": "p1", "attributes": {"title": "Sales", "x_range": {"id": "r1"}}},
			{"type": "Range", "id": "r1", "attributes": {"start": 2}}
		]
	}`)
	if diff := testsupport.CompareJSON(t, want, data); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	loaded, err := document.FromJSON(data, document.WithRegistry(newRegistry(t)))
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if len(loaded.Events()) != 0 {
		t.Fatalf("loading must not leave events behind")
	}
	again, err := loaded.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	if diff := testsupport.CompareJSON(t, data, again); diff != "" {
		t.Fatalf("reloaded snapshot mismatch (-want +got):\n%s", diff)
	}

	if _, err := document.FromJSON([]byte(`{"roots":["missing"],"models":[]}`)); err == nil {
		t.Fatalf("expected unknown root error")
	}
}

func TestThemeChangesAreNotRecorded(t *testing.T) {
	th := theme.New(map[string]map[string]any{"Plot": {"title": "Themed"}})
	doc := document.New(document.WithTheme(th))
	p := model.MustNew(plotClass, nil, model.WithID("p1"))

	if err := doc.AddRoot(p); err != nil {
		t.Fatalf("add root: %v", err)
	}
	if got, _ := p.Get("title"); got != "Themed" {
		t.Fatalf("expected themed title, got %v", got)
	}
	if err := doc.SetTheme(nil); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	if got, _ := p.Get("title"); got != "untitled" {
		t.Fatalf("expected declared default after removing the theme, got %v", got)
	}
	if len(doc.Events()) != 0 {
		t.Fatalf("theme changes must not be recorded, got %+v", doc.Events())
	}

	if err := p.Set("title", "Mine"); err != nil {
		t.Fatalf("set title: %v", err)
	}
	if len(doc.Events()) != 1 {
		t.Fatalf("explicit writes must still be recorded, got %+v", doc.Events())
	}
}

func TestSetThemeRestoresPreviousThemeOnFailure(t *testing.T) {
	th := theme.New(map[string]map[string]any{
		"Plot":  {"title": "Themed"},
		"Range": {"start": 1},
	})
	doc := document.New(document.WithTheme(th))
	p := model.MustNew(plotClass, nil, model.WithID("p1"))
	r := model.MustNew(rangeClass, nil, model.WithID("r1"))
	for _, root := range []*model.Model{p, r} {
		if err := doc.AddRoot(root); err != nil {
			t.Fatalf("add root: %v", err)
		}
	}

	bad := theme.New(map[string]map[string]any{
		"Plot":  {"title": "Other"},
		"Range": {"start": "far"},
	})
	if err := doc.SetTheme(bad); !errors.Is(err, property.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if doc.Theme() != th {
		t.Fatalf("the previous theme must stay current")
	}
	if got, _ := p.Get("title"); got != "Themed" {
		t.Fatalf("expected the previous themed title, got %v", got)
	}
	if got, err := r.Get("start"); err != nil || got != 1.0 {
		t.Fatalf("expected start 1, got %v (%v)", got, err)
	}
	if len(doc.Events()) != 0 {
		t.Fatalf("theme changes must not be recorded, got %+v", doc.Events())
	}
}

func TestPatchJSONShape(t *testing.T) {
	doc, p := clientDocument(t)
	doc.ClearEvents()
	if err := p.Set("title", "Shape"); err != nil {
		t.Fatalf("set title: %v", err)
	}

	data, err := doc.PatchJSON(nil)
	if err != nil {
		t.Fatalf("patch json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"events": []any{
			map[string]any{"kind": "ModelChanged", "model": "p1", "attr": "title", "new": "Shape"},
		},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Fatalf("patch mismatch (-want +got):\n%s", diff)
	}
}

func TestStdLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := &document.StdLogger{Logger: log.New(&buf, "", 0)}

	logger.Debug("hidden", "k", 1)
	logger.With("doc", "a").Error("failed", "k", 1)

	if got, want := buf.String(), "ERR failed doc=a k=1\n"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
