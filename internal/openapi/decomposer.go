// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package openapi

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/specforge/specforge/internal/tree"
	"github.com/specforge/specforge/pkg/types"
)

// Default layout of a decomposed document.
const (
	DefaultMetadataFile  = "info.json"
	DefaultPathsDir      = "paths"
	DefaultComponentsDir = "components"
)

// DecomposeOptions configures the output layout.
type DecomposeOptions struct {
	// Policy decides how filename collisions are handled
	Policy tree.CollisionPolicy

	// MetadataFile is the path of the info file
	MetadataFile string

	// PathsDir holds one file per (path, method)
	PathsDir string

	// ComponentsDir holds one file per component schema
	ComponentsDir string

	// Writer encodes file contents (default: NewWriter())
	Writer *Writer
}

func (o *DecomposeOptions) applyDefaults() {
	if o.Policy == "" {
		o.Policy = tree.CollisionOverwrite
	}
	if o.MetadataFile == "" {
		o.MetadataFile = DefaultMetadataFile
	}
	if o.PathsDir == "" {
		o.PathsDir = DefaultPathsDir
	}
	if o.ComponentsDir == "" {
		o.ComponentsDir = DefaultComponentsDir
	}
	if o.Writer == nil {
		o.Writer = NewWriter()
	}
}

// metadataFile is the body of the metadata file.
type metadataFile struct {
	OpenAPI string     `json:"openapi,omitempty"`
	Info    types.Info `json:"info"`
}

// endpointFile is the body of a per-endpoint file.
type endpointFile struct {
	Summary    string `json:"summary"`
	Parameters any    `json:"parameters"`
	Responses  any    `json:"responses"`
}

// EndpointFileName derives the file name for a (path, method) pair: the
// normalized path with every "/" replaced by "-", then the method.
func EndpointFileName(p string, method types.Method) string {
	return strings.ReplaceAll(types.NormalizePath(p), "/", "-") + "." + string(method) + ".json"
}

// ComponentFileName derives the file name for a component schema: the
// lower-cased name with path separators replaced by "-", so every component
// stays inside the components directory.
func ComponentFileName(name string) string {
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(name)
	return cases.Lower(language.Und).String(name) + ".json"
}

// Decompose lays a document out as a file tree: one metadata file, one file
// per (path, method) and one file per component schema. Entries that cannot
// be emitted are skipped and reported; the only error is a collision under
// tree.CollisionReject or an encoding failure.
func Decompose(doc *types.Document, opts DecomposeOptions) (*tree.Tree, []types.Diagnostic, error) {
	opts.applyDefaults()

	d := &decomposer{
		opts: opts,
		tree: tree.New(opts.Policy),
	}

	if err := d.metadata(doc); err != nil {
		return nil, nil, err
	}
	if err := d.endpoints(doc.Paths); err != nil {
		return nil, nil, err
	}
	if err := d.components(doc.Components.Schemas); err != nil {
		return nil, nil, err
	}

	return d.tree, d.diags, nil
}

type decomposer struct {
	opts  DecomposeOptions
	tree  *tree.Tree
	diags []types.Diagnostic
}

func (d *decomposer) skip(source, format string, args ...any) {
	d.diags = append(d.diags, types.Diagnostic{
		Kind:    types.DiagnosticSkipped,
		Source:  source,
		Message: fmt.Sprintf(format, args...),
	})
}

// add stores an entry and turns a recorded overwrite into a diagnostic.
func (d *decomposer) add(p string, v any, origin string) error {
	content, err := d.opts.Writer.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", origin, err)
	}

	before := len(d.tree.Collisions())
	if err := d.tree.Add(p, content, origin); err != nil {
		return err
	}
	if collisions := d.tree.Collisions(); len(collisions) > before {
		c := collisions[len(collisions)-1]
		d.diags = append(d.diags, types.Diagnostic{
			Kind:    types.DiagnosticCollision,
			Source:  c.Path,
			Message: fmt.Sprintf("%s overwrote %s", c.Current, c.Previous),
		})
	}
	return nil
}

func (d *decomposer) metadata(doc *types.Document) error {
	return d.add(d.opts.MetadataFile, metadataFile{OpenAPI: doc.OpenAPI, Info: doc.Info}, "info")
}

func (d *decomposer) endpoints(paths map[string]types.PathItem) error {
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	for _, p := range keys {
		item := paths[p]
		normalized := types.NormalizePath(p)

		for _, method := range types.Methods {
			op, present := item[string(method)]
			if !present {
				continue
			}
			origin := strings.ToUpper(string(method)) + " " + p
			if op == nil {
				d.skip(origin, "operation has no body")
				continue
			}

			body := endpointFile{
				Summary:    op.Summary,
				Parameters: op.Parameters,
				Responses:  op.Responses,
			}
			if body.Parameters == nil {
				body.Parameters = []any{}
			}
			if body.Responses == nil {
				body.Responses = map[string]any{}
			}

			target := path.Join(d.opts.PathsDir, EndpointFileName(normalized, method))
			if err := d.add(target, body, origin); err != nil {
				return err
			}
		}

		for _, key := range unknownMethods(item) {
			d.skip(p, "unsupported method %q", key)
		}
	}
	return nil
}

func (d *decomposer) components(schemas map[string]any) error {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := schemas[name]
		if strings.TrimSpace(name) == "" {
			d.skip("components.schemas", "schema with empty name")
			continue
		}
		if def == nil {
			d.skip(name, "schema has no definition")
			continue
		}
		if s, ok := def.(*types.Schema); ok && s == nil {
			d.skip(name, "schema has no definition")
			continue
		}

		target := path.Join(d.opts.ComponentsDir, ComponentFileName(name))
		if err := d.add(target, def, "component "+name); err != nil {
			return err
		}
	}
	return nil
}

func unknownMethods(item types.PathItem) []string {
	var keys []string
	for key := range item {
		if _, ok := types.ParseMethod(key); !ok || key != strings.ToLower(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
