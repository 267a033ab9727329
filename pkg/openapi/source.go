package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SourceKind enumerates where a schema document is read from.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source identifies a schema document.
type Source interface {
	Location() string
	Kind() SourceKind
}

// fileSource identifies on-disk documents.
type fileSource struct {
	path string
}

func (s fileSource) Location() string { return s.path }

func (s fileSource) Kind() SourceKind { return SourceKindFile }

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

// fsSource references a path within an fs.FS.
type fsSource struct {
	name string
}

func (s fsSource) Location() string { return s.name }

func (s fsSource) Kind() SourceKind { return SourceKindFS }

// SourceFromFS returns a Source identifying a resource inside an fs.FS.
func SourceFromFS(name string) Source {
	return fsSource{name: name}
}

type urlSource struct {
	url string
}

func (s urlSource) Location() string { return s.url }

func (s urlSource) Kind() SourceKind { return SourceKindURL }

// SourceFromURL returns a Source fetched over HTTP.
func SourceFromURL(url string) Source {
	return urlSource{url: url}
}

// SourceFor picks a URL source for http(s) locations and a file source
// otherwise.
func SourceFor(location string) Source {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return SourceFromURL(location)
	}
	return SourceFromFile(location)
}

// Reader resolves sources. FS serves fs sources; HTTPClient serves URL
// sources and leaves them disabled when nil.
type Reader struct {
	FS         fs.FS
	HTTPClient *http.Client
	// Timeout bounds each HTTP request when positive.
	Timeout time.Duration
}

// Read returns the raw bytes of src. fsys is only consulted for fs sources.
func Read(ctx context.Context, src Source, fsys fs.FS) ([]byte, error) {
	return Reader{FS: fsys}.Read(ctx, src)
}

// Read returns the raw bytes of src.
func (r Reader) Read(ctx context.Context, src Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("openapi: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch src.Kind() {
	case SourceKindFile:
		data, err := os.ReadFile(src.Location())
		if err != nil {
			return nil, fmt.Errorf("openapi: read %s: %w", src.Location(), err)
		}
		return data, nil
	case SourceKindFS:
		if r.FS == nil {
			return nil, errors.New("openapi: filesystem is not configured")
		}
		data, err := fs.ReadFile(r.FS, src.Location())
		if err != nil {
			return nil, fmt.Errorf("openapi: read %s: %w", src.Location(), err)
		}
		return data, nil
	case SourceKindURL:
		if r.HTTPClient == nil {
			return nil, errors.New("openapi: http support disabled")
		}
		data, err := r.fetch(ctx, src.Location())
		if err != nil {
			return nil, fmt.Errorf("openapi: fetch %s: %w", src.Location(), err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("openapi: unsupported source kind %q", src.Kind())
	}
}

func (r Reader) fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("url is required")
	}

	reqCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("unexpected status " + resp.Status)
	}
	return io.ReadAll(resp.Body)
}
