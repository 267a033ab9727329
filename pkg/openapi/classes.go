// Package openapi declares property classes from the component schemas of an
// OpenAPI 3 document. Each object schema becomes a class; its properties
// become attributes with types derived from the schema keywords. The
// x-propsync extension names a parent class, class-level default overrides,
// and data spec attributes.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-propsync/pkg/property"
	"github.com/goliatone/go-propsync/pkg/types"
)

const (
	// ExtensionKey is the schema extension read by the loader.
	ExtensionKey = "x-propsync"

	componentPrefix = "#/components/schemas/"
)

// Options configures LoadClasses.
type Options struct {
	// Validate runs kin-openapi document validation before conversion.
	Validate bool
	// AllowExternalRefs lets the loader follow references outside the
	// document.
	AllowExternalRefs bool
}

// Option mutates Options.
type Option func(*Options)

// WithValidation enables document validation.
func WithValidation() Option {
	return func(o *Options) {
		o.Validate = true
	}
}

// WithExternalRefs allows references to other documents.
func WithExternalRefs() Option {
	return func(o *Options) {
		o.AllowExternalRefs = true
	}
}

// LoadClasses converts the component schemas of data into classes, parents
// and referenced classes first. When registry is non-nil every class is
// registered; parents missing from the document are looked up there.
func LoadClasses(ctx context.Context, data []byte, registry *property.Registry, opts ...Option) ([]*property.Class, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	var options Options
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: options.AllowExternalRefs,
	}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if options.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, errors.New("openapi: document declares no component schemas")
	}

	c := &converter{
		schemas:  spec.Components.Schemas,
		registry: registry,
		built:    make(map[string]*property.Class),
	}
	order, err := c.order()
	if err != nil {
		return nil, err
	}

	classes := make([]*property.Class, 0, len(order))
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cls, err := c.build(name)
		if err != nil {
			return nil, err
		}
		if registry != nil {
			if err := registry.Register(cls); err != nil {
				return nil, err
			}
		}
		c.built[name] = cls
		classes = append(classes, cls)
	}
	return classes, nil
}

type classExtension struct {
	parent    string
	overrides map[string]any
}

type converter struct {
	schemas  openapi3.Schemas
	registry *property.Registry
	built    map[string]*property.Class
}

// order sorts the component schemas so every class comes after its parent
// and the classes it references.
func (c *converter) order() ([]string, error) {
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(names))
	out := make([]string, 0, len(names))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("openapi: schema cycle %s", strings.Join(append(path, name), " -> "))
		}
		state[name] = visiting
		deps, err := c.dependencies(name)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if _, local := c.schemas[dep]; !local {
				continue
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		out = append(out, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *converter) dependencies(name string) ([]string, error) {
	ref := c.schemas[name]
	if ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("openapi: schema %q is empty", name)
	}
	ext, err := readClassExtension(ref.Value.Extensions)
	if err != nil {
		return nil, fmt.Errorf("openapi: schema %q: %w", name, err)
	}
	seen := make(map[string]struct{})
	var deps []string
	add := func(dep string) {
		if dep == "" {
			return
		}
		if _, ok := seen[dep]; ok {
			return
		}
		seen[dep] = struct{}{}
		deps = append(deps, dep)
	}
	add(ext.parent)
	for _, prop := range sortedProperties(ref.Value.Properties) {
		collectRefs(ref.Value.Properties[prop], add)
	}
	return deps, nil
}

func collectRefs(ref *openapi3.SchemaRef, add func(string)) {
	if ref == nil {
		return
	}
	if name := componentName(ref.Ref); name != "" {
		add(name)
		return
	}
	if ref.Value == nil {
		return
	}
	collectRefs(ref.Value.Items, add)
	collectRefs(ref.Value.AdditionalProperties.Schema, add)
}

func (c *converter) build(name string) (*property.Class, error) {
	src := c.schemas[name].Value
	if kind := firstSchemaType(src.Type); kind != "" && kind != "object" {
		return nil, fmt.Errorf("openapi: schema %q has type %q, expected object", name, kind)
	}
	ext, err := readClassExtension(src.Extensions)
	if err != nil {
		return nil, fmt.Errorf("openapi: schema %q: %w", name, err)
	}

	var parent *property.Class
	if ext.parent != "" {
		parent, err = c.class(ext.parent)
		if err != nil {
			return nil, fmt.Errorf("openapi: schema %q parent: %w", name, err)
		}
	}

	builder := property.NewClass(name, parent)
	for _, prop := range sortedProperties(src.Properties) {
		t, err := c.convertType(src.Properties[prop])
		if err != nil {
			return nil, fmt.Errorf("openapi: %s.%s: %w", name, prop, err)
		}
		builder.Property(prop, t)
	}
	for _, attr := range sortedKeys(ext.overrides) {
		override, err := property.NewOverride(map[string]any{property.OverrideDefaultKey: ext.overrides[attr]})
		if err != nil {
			return nil, err
		}
		builder.Override(attr, override)
	}
	return builder.Build()
}

func (c *converter) class(name string) (*property.Class, error) {
	if cls, ok := c.built[name]; ok {
		return cls, nil
	}
	if c.registry != nil {
		return c.registry.Get(name)
	}
	return nil, fmt.Errorf("class %q not found", name)
}

// convertType maps a property schema onto a property type.
func (c *converter) convertType(ref *openapi3.SchemaRef) (property.Type, error) {
	if ref == nil {
		return types.Any(), nil
	}
	if name := componentName(ref.Ref); name != "" {
		cls, err := c.class(name)
		if err != nil {
			return nil, err
		}
		return types.Instance(cls), nil
	}
	if ref.Value == nil {
		return nil, fmt.Errorf("unresolved reference %q", ref.Ref)
	}
	src := ref.Value

	var opts []types.Option
	if src.Default != nil {
		opts = append(opts, types.WithDefault(src.Default))
	}
	if src.ReadOnly {
		opts = append(opts, types.AsReadonly())
	}
	if src.Description != "" {
		opts = append(opts, types.WithHelp(src.Description))
	}

	if spec, ok, err := convertSpec(src, opts); ok || err != nil {
		return spec, err
	}

	base, err := c.convertPlain(src, opts)
	if err != nil {
		return nil, err
	}
	if src.Nullable {
		return types.Nullable(base, opts...), nil
	}
	return base, nil
}

func (c *converter) convertPlain(src *openapi3.Schema, opts []types.Option) (property.Type, error) {
	if len(src.Enum) > 0 {
		allowed := make([]string, 0, len(src.Enum))
		for _, value := range src.Enum {
			s, ok := value.(string)
			if !ok {
				return checked("Enum", src, opts), nil
			}
			allowed = append(allowed, s)
		}
		return types.Enum(allowed, opts...), nil
	}

	switch kind := firstSchemaType(src.Type); kind {
	case "string":
		if strings.EqualFold(src.Format, "html") {
			return types.HTML(nil, opts...), nil
		}
		return types.String(opts...), nil
	case "integer":
		return types.Int(opts...), nil
	case "number":
		return types.Float(opts...), nil
	case "boolean":
		return types.Bool(opts...), nil
	case "array":
		item, err := c.convertType(src.Items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		return types.List(item, opts...), nil
	case "object":
		if len(src.Properties) == 0 && src.AdditionalProperties.Schema != nil {
			value, err := c.convertType(src.AdditionalProperties.Schema)
			if err != nil {
				return nil, fmt.Errorf("additionalProperties: %w", err)
			}
			return types.Map(value, opts...), nil
		}
		return checked("Object", src, opts), nil
	case "":
		return types.Any(opts...), nil
	default:
		return checked(kind, src, opts), nil
	}
}

// checked validates values with the schema itself.
func checked(name string, src *openapi3.Schema, opts []types.Option) property.Type {
	return types.Checked(name, func(v any) error {
		return src.VisitJSON(v)
	}, opts...)
}

// convertSpec handles properties tagged with {"spec": "number"|"string"|"distance"|"units"}.
func convertSpec(src *openapi3.Schema, opts []types.Option) (property.Type, bool, error) {
	raw, ok := src.Extensions[ExtensionKey].(map[string]any)
	if !ok {
		return nil, false, nil
	}
	kind, _ := raw["spec"].(string)
	switch kind {
	case "":
		return nil, false, nil
	case "number":
		return types.NumberSpec(opts...), true, nil
	case "string":
		return types.StringSpec(opts...), true, nil
	case "distance":
		return types.DistanceSpec(opts...), true, nil
	case "units":
		units, err := stringList(raw["units"])
		if err != nil || len(units) == 0 {
			return nil, true, fmt.Errorf("units spec needs a non-empty units list")
		}
		def, _ := raw["default_units"].(string)
		if def == "" {
			def = units[0]
		}
		return types.UnitsSpec(units, def, opts...), true, nil
	default:
		return nil, true, fmt.Errorf("unknown spec kind %q", kind)
	}
}

func readClassExtension(raw map[string]any) (classExtension, error) {
	var ext classExtension
	value, ok := raw[ExtensionKey]
	if !ok || value == nil {
		return ext, nil
	}
	mapped, ok := value.(map[string]any)
	if !ok {
		return ext, fmt.Errorf("%s must be an object", ExtensionKey)
	}
	if parent, ok := mapped["parent"]; ok {
		name, isString := parent.(string)
		if !isString {
			return ext, fmt.Errorf("%s.parent must be a string", ExtensionKey)
		}
		if ref := componentName(name); ref != "" {
			name = ref
		}
		ext.parent = name
	}
	if overrides, ok := mapped["overrides"]; ok {
		values, isMap := overrides.(map[string]any)
		if !isMap {
			return ext, fmt.Errorf("%s.overrides must be an object", ExtensionKey)
		}
		ext.overrides = values
	}
	return ext, nil
}

func componentName(ref string) string {
	if !strings.HasPrefix(ref, componentPrefix) {
		return ""
	}
	return strings.TrimPrefix(ref, componentPrefix)
}

func firstSchemaType(schemaTypes *openapi3.Types) string {
	if schemaTypes == nil {
		return ""
	}
	values := schemaTypes.Slice()
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return strings.Join(values, ",")
	}
}

func stringList(value any) ([]string, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, errors.New("expected a list")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, errors.New("expected a list of strings")
		}
		out = append(out, s)
	}
	return out, nil
}

func sortedProperties(props openapi3.Schemas) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
