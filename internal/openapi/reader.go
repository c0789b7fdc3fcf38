// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package openapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/specforge/specforge/pkg/types"
)

// ErrInvalidDocument is wrapped by every error ReadDocument returns.
var ErrInvalidDocument = errors.New("invalid document")

// requiredKeys must be present at the top level of a project document.
var requiredKeys = []string{"info", "paths"}

// pathItemFields are path-level keys that are valid but carry no operation.
var pathItemFields = map[string]bool{
	"$ref":        true,
	"summary":     true,
	"description": true,
	"servers":     true,
	"parameters":  true,
}

// ReadFile reads a project document from a JSON or YAML file.
func ReadFile(path string) (*types.Document, []types.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ReadDocument(data)
}

// ReadDocument decodes a JSON or YAML project document. Entries that cannot
// be represented (non-string path keys, non-object path items) are skipped
// and reported as diagnostics; structural problems return ErrInvalidDocument.
func ReadDocument(data []byte) (*types.Document, []types.Diagnostic, error) {
	return readDocument(data, true)
}

func readDocument(data []byte, unwrap bool) (*types.Document, []types.Diagnostic, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, fmt.Errorf("%w: document is empty", ErrInvalidDocument)
	}

	root, err := parseNode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	node := root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	// The editor sends the document as a JSON string.
	if unwrap && node.Kind == yaml.ScalarNode && node.Tag == "!!str" {
		return readDocument([]byte(node.Value), false)
	}

	if node.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("%w: document must be an object", ErrInvalidDocument)
	}

	r := &reader{}
	doc, err := r.readRoot(node)
	if err != nil {
		return nil, nil, err
	}
	return doc, r.diags, nil
}

// parseNode decodes JSON strictly and everything else as YAML. JSON is
// validated and compacted, then parsed as YAML so key order and number
// literals survive. JSON the YAML parser rejects (surrogate pair escapes)
// is decoded generically instead.
func parseNode(data []byte) (*yaml.Node, error) {
	trimmed := bytes.TrimSpace(data)
	if trimmed[0] != '{' && trimmed[0] != '[' && trimmed[0] != '"' {
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, err
		}
		return &node, nil
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(compact.Bytes(), &node); err == nil {
		return &node, nil
	}

	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, err
	}
	node = yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	return &node, nil
}

type reader struct {
	diags []types.Diagnostic
}

func (r *reader) skip(source, format string, args ...any) {
	r.diags = append(r.diags, types.Diagnostic{
		Kind:    types.DiagnosticSkipped,
		Source:  source,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *reader) readRoot(node *yaml.Node) (*types.Document, error) {
	fields := make(map[string]*yaml.Node)
	for i := 0; i+1 < len(node.Content); i += 2 {
		fields[node.Content[i].Value] = node.Content[i+1]
	}

	for _, key := range requiredKeys {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: missing required key %q", ErrInvalidDocument, key)
		}
	}

	doc := &types.Document{
		Components: types.Components{Schemas: make(map[string]any)},
		Paths:      make(map[string]types.PathItem),
	}

	if v, ok := fields["openapi"]; ok && v.Kind == yaml.ScalarNode {
		doc.OpenAPI = v.Value
	}

	info := fields["info"]
	if info.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: info must be an object", ErrInvalidDocument)
	}
	if err := info.Decode(&doc.Info); err != nil {
		return nil, fmt.Errorf("%w: info: %v", ErrInvalidDocument, err)
	}

	if comps, ok := fields["components"]; ok {
		if err := r.readComponents(doc, comps); err != nil {
			return nil, err
		}
	}

	paths := fields["paths"]
	switch paths.Kind {
	case yaml.MappingNode:
		r.readPaths(doc, paths)
	case yaml.ScalarNode:
		if paths.Tag != "!!null" {
			return nil, fmt.Errorf("%w: paths must be an object", ErrInvalidDocument)
		}
	default:
		return nil, fmt.Errorf("%w: paths must be an object", ErrInvalidDocument)
	}

	return doc, nil
}

func (r *reader) readComponents(doc *types.Document, node *yaml.Node) error {
	if isNull(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: components must be an object", ErrInvalidDocument)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "schemas" {
			continue
		}
		schemas := node.Content[i+1]
		if isNull(schemas) {
			return nil
		}
		if schemas.Kind != yaml.MappingNode {
			return fmt.Errorf("%w: components.schemas must be an object", ErrInvalidDocument)
		}

		for j := 0; j+1 < len(schemas.Content); j += 2 {
			key, value := schemas.Content[j], schemas.Content[j+1]
			if !isStringKey(key) {
				r.skip("components.schemas", "non-string schema name %q", key.Value)
				continue
			}
			if isNull(value) {
				doc.Components.Schemas[key.Value] = nil
				continue
			}
			def, err := rawJSON(value)
			if err != nil {
				r.skip(key.Value, "undecodable schema: %v", err)
				continue
			}
			doc.Components.Schemas[key.Value] = def
		}
	}
	return nil
}

func (r *reader) readPaths(doc *types.Document, node *yaml.Node) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if !isStringKey(key) {
			r.skip("paths", "non-string path key %q", key.Value)
			continue
		}
		if value.Kind != yaml.MappingNode {
			r.skip(key.Value, "path item is not an object")
			continue
		}

		item := make(types.PathItem)
		for j := 0; j+1 < len(value.Content); j += 2 {
			mkey, mvalue := value.Content[j], value.Content[j+1]
			method, ok := types.ParseMethod(mkey.Value)
			if !ok {
				if !pathItemFields[mkey.Value] {
					r.skip(key.Value, "unknown path item key %q", mkey.Value)
				}
				continue
			}
			if mvalue.Kind != yaml.MappingNode {
				// Kept as nil so the decomposer reports the missing body.
				item[string(method)] = nil
				continue
			}
			op, err := decodeOperation(mvalue)
			if err != nil {
				r.skip(key.Value, "%s: %v", method, err)
				continue
			}
			item[string(method)] = op
		}
		doc.Paths[key.Value] = item
	}
}

func decodeOperation(node *yaml.Node) (*types.Operation, error) {
	var op types.Operation
	if err := node.Decode(&op); err != nil {
		return nil, err
	}
	op.Parameters, op.RequestBody, op.Responses = nil, nil, nil

	for i := 0; i+1 < len(node.Content); i += 2 {
		var field *any
		switch node.Content[i].Value {
		case "parameters":
			field = &op.Parameters
		case "requestBody":
			field = &op.RequestBody
		case "responses":
			field = &op.Responses
		default:
			continue
		}
		value := node.Content[i+1]
		if isNull(value) {
			continue
		}
		raw, err := rawJSON(value)
		if err != nil {
			return nil, err
		}
		*field = raw
	}
	return &op, nil
}

func isStringKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!str"
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

// rawJSON encodes a YAML subtree as JSON in document order. Number literals
// that are already valid JSON are copied verbatim.
func rawJSON(node *yaml.Node) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, node, 0); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

// maxDepth bounds alias expansion.
const maxDepth = 512

func writeJSON(buf *bytes.Buffer, node *yaml.Node, depth int) error {
	if depth > maxDepth {
		return errors.New("document nested too deeply")
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeJSON(buf, node.Content[0], depth+1)
	case yaml.AliasNode:
		return writeJSON(buf, node.Alias, depth+1)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, node.Content[i].Value); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, node.Content[i+1], depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.ScalarNode:
		return writeScalar(buf, node)
	default:
		return fmt.Errorf("unsupported node kind %d", node.Kind)
	}
}

func writeScalar(buf *bytes.Buffer, node *yaml.Node) error {
	tag := node.ShortTag()
	switch {
	case tag == "!!null":
		buf.WriteString("null")
		return nil
	case tag == "!!str":
	case (tag == "!!int" || tag == "!!float") && isJSONNumber(node.Value):
		buf.WriteString(node.Value)
		return nil
	default:
		var v any
		if err := node.Decode(&v); err == nil {
			if out, err := json.Marshal(v); err == nil {
				buf.Write(out)
				return nil
			}
		}
	}

	return writeString(buf, node.Value)
}

// writeString quotes s without HTML escaping, matching Writer.
func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

func isJSONNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	return json.Valid([]byte(s))
}
