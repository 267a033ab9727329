package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/goliatone/go-propsync"
	"github.com/goliatone/go-propsync/internal/config"
	"github.com/goliatone/go-propsync/internal/prompt"
	"github.com/goliatone/go-propsync/pkg/document"
	"github.com/goliatone/go-propsync/pkg/model"
	"github.com/goliatone/go-propsync/pkg/openapi"
	"github.com/goliatone/go-propsync/pkg/theme"
)

// patchSetter tags changes applied from the -patch file.
const patchSetter = "patch-file"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	schema := flag.String("schema", cfg.Schema.Path, "OpenAPI document declaring the classes (file or http(s) URL)")
	themePath := flag.String("theme", cfg.Theme.Path, "theme file or directory")
	themeName := flag.String("theme-name", cfg.Theme.Name, "go-theme manifest name (theme must point at a manifest)")
	variant := flag.String("variant", cfg.Theme.Variant, "go-theme manifest variant")
	class := flag.String("class", cfg.Model.Class, "class to instantiate")
	id := flag.String("id", "", "model id (generated when empty)")
	values := flag.String("values", "", "initial attribute values as a JSON object")
	patch := flag.String("patch", "", "patch file applied after creation")
	edit := flag.Bool("edit", false, "prompt for attribute values")
	indent := flag.Bool("indent", cfg.Output.Indent, "indent the JSON output")
	debug := flag.Bool("debug", cfg.Log.Debug, "log document activity")
	output := flag.String("output", "", "output file (stdout if empty)")
	flag.Parse()

	if strings.TrimSpace(*schema) == "" {
		log.Fatalf("a schema document is required (-schema or schema.path)")
	}
	if strings.TrimSpace(*class) == "" {
		log.Fatalf("a class is required (-class or model.class)")
	}

	ctx := context.Background()
	logger := &document.StdLogger{
		Logger:  log.New(os.Stderr, "propsync ", log.LstdFlags),
		Verbose: *debug,
	}

	opts := []propsync.Option{
		propsync.WithLogger(logger),
		propsync.WithHTTPClient(&http.Client{}, cfg.Schema.Timeout),
	}
	themeOpt, err := themeOption(*themePath, *themeName, *variant)
	if err != nil {
		log.Fatalf("Failed to load theme: %v", err)
	}
	if themeOpt != nil {
		opts = append(opts, themeOpt)
	}

	session, err := propsync.Open(ctx, openapi.SourceFor(*schema), opts...)
	if err != nil {
		log.Fatalf("Failed to open schema: %v", err)
	}

	initial, err := parseValues(*values)
	if err != nil {
		log.Fatalf("Invalid -values: %v", err)
	}
	m, err := session.NewModel(*class, initial, model.WithID(*id))
	if err != nil {
		log.Fatalf("Failed to create model: %v", err)
	}

	if *patch != "" {
		data, err := os.ReadFile(*patch)
		if err != nil {
			log.Fatalf("Failed to read patch: %v", err)
		}
		if err := session.Document.ApplyPatch(data, patchSetter); err != nil {
			log.Fatalf("Failed to apply patch: %v", err)
		}
	}

	if *edit {
		if err := prompt.EditModel(ctx, prompt.NewSurveyDriver(), m); err != nil {
			log.Fatalf("Failed to edit model: %v", err)
		}
	}

	payload, err := session.Document.ToJSON()
	if err != nil {
		log.Fatalf("Failed to encode document: %v", err)
	}
	if *indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, payload, "", "  "); err != nil {
			log.Fatalf("Failed to indent output: %v", err)
		}
		payload = buf.Bytes()
	}

	if *output != "" {
		if err := os.WriteFile(*output, payload, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Document written to %s\n", *output)
	} else {
		fmt.Println(string(payload))
	}
}

func themeOption(path, name, variant string) (propsync.Option, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	if name != "" || variant != "" {
		manifest, err := theme.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		selector, err := theme.NewManifestSelector(manifest)
		if err != nil {
			return nil, err
		}
		return propsync.WithThemeSelector(selector, name, variant), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	var loaded *theme.Theme
	if info.IsDir() {
		loaded, err = theme.LoadFS(os.DirFS(path))
	} else {
		loaded, err = theme.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return propsync.WithTheme(loaded), nil
}

func parseValues(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
