// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package pipeline turns a project document and model definitions into a
// packaged project archive.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/specforge/specforge/internal/archive"
	"github.com/specforge/specforge/internal/bundle"
	"github.com/specforge/specforge/internal/config"
	"github.com/specforge/specforge/internal/dsl"
	"github.com/specforge/specforge/internal/logging"
	"github.com/specforge/specforge/internal/openapi"
	"github.com/specforge/specforge/internal/schema"
	"github.com/specforge/specforge/internal/staging"
	"github.com/specforge/specforge/internal/tree"
	"github.com/specforge/specforge/pkg/types"
)

// Options configures a Generator.
type Options struct {
	// Layout of the decomposed document; Layout.Writer is optional
	Layout openapi.DecomposeOptions

	// Map configures the model to schema mapping
	Map schema.MapOptions

	// IncludeModelComponents merges mapped models into components.schemas
	IncludeModelComponents bool

	// Merge resolves conflicts between document and model components
	Merge openapi.MergeOptions

	// BundleFile is the path of the consolidated model definitions file
	BundleFile string

	// StagingRoot is where staging directories are created
	StagingRoot string

	// Archive configures packaging
	Archive archive.Options

	// DefaultInfo is used when a document is built from endpoints without info
	DefaultInfo types.Info
}

// OptionsFromConfig derives generator options from the configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	policy, err := tree.ParsePolicy(cfg.Generation.Collisions)
	if err != nil {
		return Options{}, err
	}
	strategy, err := openapi.ParseMergeStrategy(cfg.Generation.MergeStrategy)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Layout: openapi.DecomposeOptions{
			Policy:        policy,
			MetadataFile:  cfg.Generation.MetadataFile,
			PathsDir:      cfg.Generation.PathsDir,
			ComponentsDir: cfg.Generation.ComponentsDir,
		},
		Map:                    schema.MapOptions{PropertyRequired: cfg.Generation.PropertyRequired},
		IncludeModelComponents: cfg.Generation.IncludeModelComponents,
		Merge:                  openapi.MergeOptions{Strategy: strategy},
		BundleFile:             cfg.Generation.BundleFile,
		StagingRoot:            cfg.Staging.Root,
		Archive: archive.Options{
			Level:           cfg.Archive.Level,
			PreserveModTime: cfg.Archive.PreserveModTime,
			Exclude:         cfg.Archive.Exclude,
		},
		DefaultInfo: types.Info{
			Title:       cfg.Info.Title,
			Description: cfg.Info.Description,
			Version:     cfg.Info.Version,
		},
	}, nil
}

// Request is one generation request.
type Request struct {
	// Document is the raw JSON or YAML project document
	Document []byte

	// Endpoints build the document when Document is empty
	Endpoints []types.EndpointSpec

	// Components are added to a built document
	Components map[string]json.RawMessage

	// Info of a built document (default: Options.DefaultInfo)
	Info *types.Info

	// Models are raw model definition texts
	Models []string

	// Declarations are non-model blocks (datasource, generator, enum)
	// copied into the bundle ahead of the models without being parsed
	Declarations []string
}

// Result describes a successful generation.
type Result struct {
	// StagingID identifies the staging directory used for the request
	StagingID string `json:"stagingId"`

	// Files lists the generated paths in emission order
	Files []string `json:"files"`

	// Models lists the names of the parsed models
	Models []string `json:"models"`

	// Diagnostics lists skipped or overwritten input items
	Diagnostics []types.Diagnostic `json:"diagnostics,omitempty"`

	// Collisions lists overwritten output files
	Collisions []tree.Collision `json:"collisions,omitempty"`

	// ArchiveSize is the number of bytes written
	ArchiveSize int64 `json:"archiveSize"`
}

// Generator runs the schema-to-project pipeline.
type Generator struct {
	opts Options
	log  *logrus.Entry
}

// New creates a generator.
func New(opts Options) *Generator {
	if opts.BundleFile == "" {
		opts.BundleFile = bundle.DefaultFileName
	}
	if opts.Merge.Strategy == "" {
		opts.Merge = openapi.DefaultMergeOptions()
	}
	return &Generator{
		opts: opts,
		log:  logging.WithFields(logrus.Fields{"component": "pipeline"}),
	}
}

// Build resolves the request into a file tree without touching the
// filesystem.
func (g *Generator) Build(req Request) (*tree.Tree, *Result, error) {
	res := &Result{}

	doc, err := g.document(req, res)
	if err != nil {
		return nil, nil, err
	}

	components, err := g.models(req.Models, res)
	if err != nil {
		return nil, nil, err
	}
	if g.opts.IncludeModelComponents {
		merger := openapi.NewMerger(g.opts.Merge)
		res.Diagnostics = append(res.Diagnostics, merger.MergeComponents(doc, components)...)
	}

	t, diags, err := openapi.Decompose(doc, g.opts.Layout)
	if err != nil {
		return nil, nil, err
	}
	res.Diagnostics = append(res.Diagnostics, diags...)

	texts := make([]string, 0, len(req.Declarations)+len(req.Models))
	texts = append(texts, req.Declarations...)
	texts = append(texts, req.Models...)

	before := len(t.Collisions())
	if err := t.Add(g.opts.BundleFile, []byte(bundle.Bundle(texts)), "models"); err != nil {
		return nil, nil, err
	}
	if collisions := t.Collisions(); len(collisions) > before {
		c := collisions[len(collisions)-1]
		res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
			Kind:    types.DiagnosticCollision,
			Source:  c.Path,
			Message: fmt.Sprintf("%s overwrote %s", c.Current, c.Previous),
		})
	}

	res.Files = t.Paths()
	res.Collisions = t.Collisions()
	return t, res, nil
}

// Generate builds the project, stages it in a fresh directory and writes
// the archive to w. Nothing is written to w on failure.
func (g *Generator) Generate(ctx context.Context, req Request, w io.Writer) (*Result, error) {
	t, res, err := g.Build(req)
	if err != nil {
		return nil, err
	}

	packaged, err := g.Package(ctx, t, w)
	if err != nil {
		return nil, err
	}

	res.StagingID = packaged.StagingID
	res.ArchiveSize = packaged.Size
	g.log.WithFields(logrus.Fields{
		"staging":     packaged.StagingID,
		"files":       len(res.Files),
		"bytes":       packaged.Size,
		"diagnostics": len(res.Diagnostics),
	}).Info("project packaged")

	return res, nil
}

// Packaged describes a written archive.
type Packaged struct {
	StagingID string
	Size      int64
	Manifest  *archive.Manifest
}

// Package materializes t in a request-scoped staging directory and writes
// its archive to w. The staging directory is released before Package
// returns; a cleanup failure after a delivered archive is only logged.
func (g *Generator) Package(ctx context.Context, t *tree.Tree, w io.Writer) (_ *Packaged, err error) {
	dir, err := staging.New(g.opts.StagingRoot)
	if err != nil {
		return nil, ioErr("stage", err)
	}
	log := g.log.WithField("staging", dir.ID)
	defer func() {
		if releaseErr := dir.Release(); releaseErr != nil {
			log.WithError(releaseErr).Warn("staging cleanup failed")
			if err != nil {
				err = multierr.Append(err, releaseErr)
			}
		}
	}()

	if err := t.Materialize(ctx, dir.Path); err != nil {
		return nil, ioErr("materialize", err)
	}
	log.WithField("files", t.Len()).Debug("project staged")

	var packaged archive.AsyncResult
	select {
	case packaged = <-archive.PackageAsync(ctx, dir.Path, g.opts.Archive):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if packaged.Err != nil {
		return nil, ioErr("package", packaged.Err)
	}

	n, err := io.Copy(w, bytes.NewReader(packaged.Data))
	if err != nil {
		return nil, ioErr("write archive", err)
	}

	return &Packaged{StagingID: dir.ID, Size: n, Manifest: packaged.Manifest}, nil
}

func (g *Generator) document(req Request, res *Result) (*types.Document, error) {
	hasDocument := len(bytes.TrimSpace(req.Document)) > 0

	switch {
	case hasDocument && (len(req.Endpoints) > 0 || len(req.Components) > 0):
		return nil, inputErr("schema and endpoints are mutually exclusive", nil)
	case hasDocument:
		doc, diags, err := openapi.ReadDocument(req.Document)
		if err != nil {
			return nil, inputErr("invalid schema document", err)
		}
		res.Diagnostics = append(res.Diagnostics, diags...)
		return doc, nil
	case len(req.Endpoints) == 0:
		return nil, inputErr("a schema document or at least one endpoint is required", nil)
	}

	info := g.opts.DefaultInfo
	if req.Info != nil {
		info = *req.Info
	}
	b := openapi.NewBuilder(info)
	for _, e := range req.Endpoints {
		if err := b.AddEndpoint(e); err != nil {
			return nil, inputErr("invalid endpoint", err)
		}
	}
	names := make([]string, 0, len(req.Components))
	for name := range req.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := b.AddRawComponent(name, req.Components[name]); err != nil {
			return nil, inputErr("invalid component", err)
		}
	}
	return b.Build(), nil
}

// models parses every definition. A definition without a name or fields
// is rejected only when its component is going to be used.
func (g *Generator) models(texts []string, res *Result) ([]types.ComponentSchema, error) {
	registry := schema.NewRegistry()

	for i, parsed := range dsl.ParseAll(texts) {
		for _, d := range parsed.Diagnostics {
			if d.Source == "" {
				d.Source = fmt.Sprintf("model definition %d", i+1)
			}
			res.Diagnostics = append(res.Diagnostics, d)
		}

		if err := parsed.Validate(); err != nil {
			if g.opts.IncludeModelComponents {
				return nil, inputErr(fmt.Sprintf("model definition %d", i+1), err)
			}
			res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
				Kind:    types.DiagnosticSkipped,
				Source:  fmt.Sprintf("model definition %d", i+1),
				Message: err.Error(),
			})
			continue
		}

		if registry.AddComponent(schema.Map(parsed.Model, g.opts.Map)) {
			res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
				Kind:    types.DiagnosticCollision,
				Source:  parsed.Model.Name,
				Message: "model defined more than once, last definition wins",
			})
		} else {
			res.Models = append(res.Models, parsed.Model.Name)
		}
	}

	return registry.Components(), nil
}

// ErrorStatus maps an error to its HTTP-equivalent severity: 400 for input
// problems and 500 for everything else.
func ErrorStatus(err error) int {
	switch {
	case err == nil:
		return 200
	case IsInputError(err):
		return 400
	default:
		return 500
	}
}
