package prompt

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-propsync/pkg/model"
	"github.com/goliatone/go-propsync/pkg/property"
	"github.com/goliatone/go-propsync/pkg/testsupport"
	"github.com/goliatone/go-propsync/pkg/types"
)

type scriptedDriver struct {
	inputs   map[string]string
	confirms map[string]bool

	asked      []string
	validators map[string]func(string) error
	defaults   map[string]string
	info       []string
}

func newScriptedDriver(inputs map[string]string, confirms map[string]bool) *scriptedDriver {
	return &scriptedDriver{
		inputs:     inputs,
		confirms:   confirms,
		validators: make(map[string]func(string) error),
		defaults:   make(map[string]string),
	}
}

func (d *scriptedDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	d.validators[cfg.Message] = cfg.Validator
	d.defaults[cfg.Message] = cfg.Default
	answer, ok := d.inputs[cfg.Message]
	if !ok {
		return cfg.Default, nil
	}
	return answer, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	d.asked = append(d.asked, cfg.Message)
	answer, ok := d.confirms[cfg.Message]
	if !ok {
		return cfg.Default, nil
	}
	return answer, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.info = append(d.info, msg)
	return nil
}

var (
	targetClass = property.NewClass("Target", nil).MustBuild()
	widgetClass = property.NewClass("Widget", nil).
			Property("label", types.String(types.WithDefault("w"), types.WithHelp("Visible label"))).
			Property("size", types.Int(types.WithDefault(1))).
			Property("target", types.Nullable(types.Instance(targetClass))).
			Property("version", types.Int(types.WithDefault(1), types.AsReadonly())).
			Property("visible", types.Bool(types.WithDefault(true))).
			MustBuild()
)

func TestEditModel(t *testing.T) {
	rec := &testsupport.Recorder{}
	m := model.MustNew(widgetClass, nil, model.WithID("w1"), model.WithSink(rec))
	driver := newScriptedDriver(
		map[string]string{"label": "42", "size": "7"},
		map[string]bool{"visible": false},
	)

	if err := EditModel(context.Background(), driver, m); err != nil {
		t.Fatalf("edit model: %v", err)
	}

	wantAsked := []string{"Edit Widget attributes?", "label", "size", "visible"}
	if diff := cmp.Diff(wantAsked, driver.asked); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"label": "w", "size": "1"}, driver.defaults); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}

	want := map[string]any{"label": "42", "size": 7, "visible": false}
	got, err := m.PropertiesWithValues(false)
	if err != nil {
		t.Fatalf("properties: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	for _, notice := range rec.Notices {
		if notice.Setter != Setter {
			t.Fatalf("expected setter %q, got %+v", Setter, notice)
		}
	}
	if diff := cmp.Diff([]string{`Widget(id="w1") updated`}, driver.info); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}

	if err := driver.validators["size"]("abc"); err == nil {
		t.Fatalf("expected validator to reject a non-integer")
	}
	if err := driver.validators["size"]("3"); err != nil {
		t.Fatalf("expected validator to accept 3, got %v", err)
	}
}

func TestEditModelDeclined(t *testing.T) {
	m := model.MustNew(widgetClass, nil)
	driver := newScriptedDriver(nil, map[string]bool{"Edit Widget attributes?": false})

	if err := EditModel(context.Background(), driver, m); err != nil {
		t.Fatalf("edit model: %v", err)
	}
	if len(driver.asked) != 1 || len(driver.info) != 0 {
		t.Fatalf("declining must stop the flow, asked %v", driver.asked)
	}
}

func TestEditModelRequiresArguments(t *testing.T) {
	if err := EditModel(context.Background(), nil, model.MustNew(widgetClass, nil)); err == nil {
		t.Fatalf("expected error for a nil driver")
	}
	if err := EditModel(context.Background(), newScriptedDriver(nil, nil), nil); err == nil {
		t.Fatalf("expected error for a nil model")
	}
}

func TestResolveAnswer(t *testing.T) {
	tests := []struct {
		name    string
		t       property.Type
		raw     string
		want    any
		wantErr bool
	}{
		{name: "json number", t: types.Int(), raw: "12", want: 12.0},
		{name: "raw text for strings", t: types.String(), raw: "12", want: "12"},
		{name: "plain text", t: types.String(), raw: "hello", want: "hello"},
		{name: "json list", t: types.List(types.String()), raw: `["a", "b"]`, want: []any{"a", "b"}},
		{name: "rejected", t: types.Int(), raw: "twelve", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveAnswer(tt.t, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("answer mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
