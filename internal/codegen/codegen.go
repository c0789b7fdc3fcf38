// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package codegen renders a minimal Express project from a free-text
// description and drives the live generation flow.
package codegen

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/specforge/specforge/internal/progress"
	"github.com/specforge/specforge/internal/staging"
	"github.com/specforge/specforge/internal/tree"
)

// MinDescriptionLength is the shortest accepted description.
const MinDescriptionLength = 10

// Generated file names.
const (
	AppFile     = "app.js"
	PackageFile = "package.json"
)

// ErrInvalidDescription is returned for descriptions that are too short.
var ErrInvalidDescription = errors.New("invalid description")

var (
	//go:embed templates/app.js.tmpl
	appSource string

	//go:embed templates/package.json.tmpl
	packageSource string

	funcs = template.FuncMap{"json": jsonString}

	appTemplate     = template.Must(template.New("app").Funcs(funcs).Parse(appSource))
	packageTemplate = template.Must(template.New("package").Funcs(funcs).Parse(packageSource))
)

// Options configures the generated project and the live flow.
type Options struct {
	// Name is the package name written to package.json
	Name string

	// Endpoint is the single route of the generated app
	Endpoint string

	// Method is the lower-case Express router method
	Method string

	// Port is the port the generated app listens on
	Port int

	// StagingRoot is where Run allocates its working directory
	StagingRoot string

	// Delay pauses between stages of Run. Zero emits each stage as soon as
	// it completes.
	Delay time.Duration
}

// DefaultOptions returns the options of the stock example project.
func DefaultOptions() Options {
	return Options{
		Name:     "generated-api",
		Endpoint: "/example",
		Method:   "get",
		Port:     3000,
	}
}

// Generator renders projects.
type Generator struct {
	opts Options
}

// New creates a generator. Unset fields fall back to DefaultOptions.
func New(opts Options) *Generator {
	def := DefaultOptions()
	if opts.Name == "" {
		opts.Name = def.Name
	}
	if opts.Endpoint == "" {
		opts.Endpoint = def.Endpoint
	}
	if opts.Method == "" {
		opts.Method = def.Method
	}
	if opts.Port == 0 {
		opts.Port = def.Port
	}
	opts.Method = strings.ToLower(opts.Method)
	return &Generator{opts: opts}
}

// ValidateDescription rejects descriptions shorter than MinDescriptionLength.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(strings.TrimSpace(description)) < MinDescriptionLength {
		return fmt.Errorf("%w: description must be at least %d characters long", ErrInvalidDescription, MinDescriptionLength)
	}
	return nil
}

type templateData struct {
	Name        string
	Description string
	Endpoint    string
	Method      string
	Port        int
}

// Render returns the project files for description.
func (g *Generator) Render(description string) (*tree.Tree, error) {
	if err := ValidateDescription(description); err != nil {
		return nil, err
	}

	data := templateData{
		Name:        g.opts.Name,
		Description: strings.TrimSpace(description),
		Endpoint:    g.opts.Endpoint,
		Method:      g.opts.Method,
		Port:        g.opts.Port,
	}

	t := tree.New(tree.CollisionReject)
	for _, f := range []struct {
		name string
		tmpl *template.Template
	}{
		{AppFile, appTemplate},
		{PackageFile, packageTemplate},
	} {
		var buf bytes.Buffer
		if err := f.tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", f.name, err)
		}
		if err := t.Add(f.name, buf.Bytes(), "template "+f.name); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Project renders the project for description into dir.
func (g *Generator) Project(ctx context.Context, description, dir string) (*tree.Tree, error) {
	t, err := g.Render(description)
	if err != nil {
		return nil, err
	}
	if err := t.Materialize(ctx, dir); err != nil {
		return nil, err
	}
	return t, nil
}

// Run generates a project in a fresh staging directory and reports each
// stage to r as it completes. The staging directory is released before
// Run returns. Failures after the first stage are also reported to r.
func (g *Generator) Run(ctx context.Context, description string, r *progress.Reporter) (err error) {
	if err := ValidateDescription(description); err != nil {
		return err
	}

	if err := r.Advance(ctx, progress.StageInitializing, "Initializing generation...", ""); err != nil {
		return err
	}
	defer func() {
		if err != nil && ctx.Err() == nil && !r.Done() {
			_ = r.Fail(ctx, err)
		}
	}()

	if err := g.pause(ctx); err != nil {
		return err
	}
	dir, err := staging.New(g.opts.StagingRoot)
	if err != nil {
		return err
	}
	defer dir.Release()

	if err := r.Advance(ctx, progress.StageDirectoryReady, "Directory created.", ""); err != nil {
		return err
	}

	if err := g.pause(ctx); err != nil {
		return err
	}
	t, err := g.Project(ctx, description, dir.Path)
	if err != nil {
		return err
	}
	code, _ := t.Get(AppFile)
	if err := r.Advance(ctx, progress.StageCodeGenerated, "Code generated", string(code)); err != nil {
		return err
	}

	if err := g.pause(ctx); err != nil {
		return err
	}
	return r.Advance(ctx, progress.StageComplete, "Generation complete!", "")
}

func (g *Generator) pause(ctx context.Context) error {
	if g.opts.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.opts.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func jsonString(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
