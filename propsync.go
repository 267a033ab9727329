package propsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-propsync/pkg/document"
	"github.com/goliatone/go-propsync/pkg/model"
	"github.com/goliatone/go-propsync/pkg/openapi"
	"github.com/goliatone/go-propsync/pkg/property"
	"github.com/goliatone/go-propsync/pkg/theme"
)

// Class aliases property.Class for callers that only need the top-level
// package.
type Class = property.Class

// Registry aliases property.Registry.
type Registry = property.Registry

// Model aliases model.Model.
type Model = model.Model

// Document aliases document.Document.
type Document = document.Document

// Theme aliases theme.Theme.
type Theme = theme.Theme

type options struct {
	fsys         fs.FS
	httpClient   *http.Client
	httpTimeout  time.Duration
	validate     bool
	theme        *theme.Theme
	selector     gotheme.ThemeSelector
	themeName    string
	themeVariant string
	logger       document.Logger
	registry     *property.Registry
}

// Option configures Open.
type Option func(*options)

// WithFileSystem resolves openapi.SourceFromFS sources against fsys.
func WithFileSystem(fsys fs.FS) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// WithHTTPClient enables openapi.SourceFromURL sources. timeout bounds each
// request when positive.
func WithHTTPClient(client *http.Client, timeout time.Duration) Option {
	return func(o *options) {
		o.httpClient = client
		o.httpTimeout = timeout
	}
}

// WithValidation validates the OpenAPI document before declaring classes.
func WithValidation() Option {
	return func(o *options) {
		o.validate = true
	}
}

// WithTheme applies t to every model of the session document.
func WithTheme(t *theme.Theme) Option {
	return func(o *options) {
		o.theme = t
	}
}

// WithThemeSelector resolves name/variant through selector and overlays the
// selected tokens on any theme passed with WithTheme.
func WithThemeSelector(selector gotheme.ThemeSelector, name, variant string) Option {
	return func(o *options) {
		o.selector = selector
		o.themeName = name
		o.themeVariant = variant
	}
}

// WithLogger sets the document logger.
func WithLogger(logger document.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry declares classes into registry instead of a fresh one, so
// parents declared in Go are available to the document schemas.
func WithRegistry(registry *property.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// Session ties the classes declared by a schema document to a document
// holding their instances.
type Session struct {
	Registry *property.Registry
	Document *document.Document
}

// Open reads src, declares its component schemas as classes and returns a
// session whose document applies the configured theme.
func Open(ctx context.Context, src openapi.Source, opts ...Option) (*Session, error) {
	var cfg options
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	reader := openapi.Reader{FS: cfg.fsys, HTTPClient: cfg.httpClient, Timeout: cfg.httpTimeout}
	data, err := reader.Read(ctx, src)
	if err != nil {
		return nil, err
	}

	registry := cfg.registry
	if registry == nil {
		registry = property.NewRegistry()
	}
	var loadOpts []openapi.Option
	if cfg.validate {
		loadOpts = append(loadOpts, openapi.WithValidation())
	}
	if _, err := openapi.LoadClasses(ctx, data, registry, loadOpts...); err != nil {
		return nil, err
	}

	resolved := cfg.theme
	if cfg.selector != nil {
		selected, err := theme.Resolve(cfg.selector, cfg.themeName, cfg.themeVariant)
		if err != nil {
			return nil, err
		}
		resolved = resolved.Merge(selected)
	}

	docOpts := []document.Option{document.WithRegistry(registry)}
	if resolved != nil {
		docOpts = append(docOpts, document.WithTheme(resolved))
	}
	if cfg.logger != nil {
		docOpts = append(docOpts, document.WithLogger(cfg.logger))
	}

	return &Session{
		Registry: registry,
		Document: document.New(docOpts...),
	}, nil
}

// NewModel instantiates the named class with values and adds it to the
// document as a root.
func (s *Session) NewModel(class string, values map[string]any, opts ...model.Option) (*model.Model, error) {
	if s == nil || s.Registry == nil || s.Document == nil {
		return nil, errors.New("propsync: session is not open")
	}
	cls, err := s.Registry.Get(class)
	if err != nil {
		return nil, err
	}
	m, err := model.New(cls, values, opts...)
	if err != nil {
		return nil, fmt.Errorf("propsync: new %s: %w", class, err)
	}
	if err := s.Document.AddRoot(m); err != nil {
		return nil, err
	}
	return m, nil
}
