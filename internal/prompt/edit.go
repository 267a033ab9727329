package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-propsync/pkg/model"
	"github.com/goliatone/go-propsync/pkg/property"
)

// Setter tags changes made through EditModel.
const Setter = "prompt"

type helper interface {
	Help() string
}

// EditModel walks the writable serialised attributes of m and asks for a new
// value for each. Answers are decoded as JSON, falling back to the raw text,
// and written through the model's JSON path. Attributes holding references
// are skipped.
func EditModel(ctx context.Context, driver Driver, m *model.Model) error {
	if driver == nil {
		return errors.New("prompt: driver is required")
	}
	if m == nil {
		return errors.New("prompt: model is required")
	}

	ok, err := driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Edit %s attributes?", m.Class().Name()),
		Default: true,
	})
	if err != nil || !ok {
		return err
	}

	for _, name := range m.Class().Properties() {
		d, _ := m.Class().Descriptor(name)
		if d.Readonly() || !d.Serialized() || d.HasRef() {
			continue
		}
		if err := editAttribute(ctx, driver, m, d); err != nil {
			return err
		}
	}
	return driver.Info(ctx, fmt.Sprintf("%s updated", m))
}

func editAttribute(ctx context.Context, driver Driver, m *model.Model, d property.Descriptor) error {
	current, err := d.SerializableValue(m)
	if err != nil {
		return err
	}
	help := ""
	if h, ok := d.Property().(helper); ok {
		help = h.Help()
	}

	if b, isBool := current.(bool); isBool {
		answer, err := driver.Confirm(ctx, ConfirmConfig{Message: d.Name(), Default: b, Help: help})
		if err != nil {
			return err
		}
		return m.SetFromJSON(d.Name(), answer, nil, Setter)
	}

	raw, err := driver.Input(ctx, InputConfig{
		Message: d.Name(),
		Default: formatAnswer(current),
		Help:    help,
		Validator: func(answer string) error {
			_, err := resolveAnswer(d.Property(), answer)
			return err
		},
	})
	if err != nil {
		return err
	}
	value, err := resolveAnswer(d.Property(), raw)
	if err != nil {
		return err
	}
	return m.SetFromJSON(d.Name(), value, nil, Setter)
}

// resolveAnswer returns the wire value for raw. The JSON reading is tried
// first; when t rejects it the raw text is tried, so "42" can still be typed
// into a string attribute.
func resolveAnswer(t property.Type, raw string) (any, error) {
	decoded := decodeAnswer(raw)
	err := checkAnswer(t, decoded)
	if err == nil {
		return decoded, nil
	}
	if _, isString := decoded.(string); !isString && checkAnswer(t, raw) == nil {
		return raw, nil
	}
	return nil, err
}

func checkAnswer(t property.Type, value any) error {
	decoded, err := t.FromJSON(value, nil)
	if err != nil {
		return err
	}
	return t.Validate(decoded)
}

func formatAnswer(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(data)
}

// decodeAnswer reads an answer as JSON, keeping the raw text when it is not
// valid JSON.
func decodeAnswer(raw string) any {
	trimmed := strings.TrimSpace(raw)
	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err == nil {
		return value
	}
	return raw
}
