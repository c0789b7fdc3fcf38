// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package openapi reads, assembles and decomposes OpenAPI project documents.
package openapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/specforge/specforge/pkg/types"
)

// DefaultVersion is the OpenAPI version of built documents.
const DefaultVersion = "3.0.0"

// ErrUnsupportedMethod is returned for endpoint methods outside get/post/put/delete.
var ErrUnsupportedMethod = errors.New("unsupported endpoint method")

// Builder assembles a project document from form-level endpoint and
// component definitions.
type Builder struct {
	doc *types.Document
}

// NewBuilder creates a builder for a document with the given info.
func NewBuilder(info types.Info) *Builder {
	return &Builder{
		doc: &types.Document{
			OpenAPI: DefaultVersion,
			Info:    info,
			Components: types.Components{
				Schemas: make(map[string]any),
			},
			Paths: make(map[string]types.PathItem),
		},
	}
}

// AddComponent registers a mapped component schema.
func (b *Builder) AddComponent(c types.ComponentSchema) *Builder {
	b.doc.Components.Schemas[c.Name] = c.Definition
	return b
}

// AddRawComponent registers a component given as raw JSON (object or
// JSON-encoded string).
func (b *Builder) AddRawComponent(name string, raw json.RawMessage) error {
	def, err := decodeLoose(raw, map[string]any{})
	if err != nil {
		return fmt.Errorf("component %s: %w", name, err)
	}
	b.doc.Components.Schemas[name] = def
	return nil
}

// AddEndpoint adds an operation for the endpoint. Methods sharing a path
// share one path item.
func (b *Builder) AddEndpoint(e types.EndpointSpec) error {
	method, ok := types.ParseMethod(e.Method)
	if !ok || !isEndpointMethod(method) {
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, e.Method)
	}
	if strings.TrimSpace(e.Path) == "" {
		return errors.New("endpoint path is empty")
	}
	p := types.NormalizePath(e.Path)

	params, err := decodeLoose(e.Parameters, []any{})
	if err != nil {
		return fmt.Errorf("%s %s parameters: %w", method, p, err)
	}
	resp, err := decodeLoose(e.ResponseSchema, map[string]any{})
	if err != nil {
		return fmt.Errorf("%s %s response schema: %w", method, p, err)
	}
	errResp, err := decodeLoose(e.ErrorResponseSchema, map[string]any{})
	if err != nil {
		return fmt.Errorf("%s %s error response schema: %w", method, p, err)
	}

	item, exists := b.doc.Paths[p]
	if !exists {
		item = make(types.PathItem)
		b.doc.Paths[p] = item
	}
	item[string(method)] = &types.Operation{
		Summary:    e.Summary,
		Parameters: params,
		Responses: types.Responses{
			"200": types.JSONResponse("Successful response", resp),
			"400": types.JSONResponse("Error response", errResp),
		},
	}
	return nil
}

// Build returns the assembled document.
func (b *Builder) Build() *types.Document {
	return b.doc
}

func isEndpointMethod(m types.Method) bool {
	for _, allowed := range types.EndpointMethods {
		if m == allowed {
			return true
		}
	}
	return false
}

// decodeLoose decodes raw JSON. A JSON string holding JSON text (as the
// editor widgets produce) is decoded once more.
func decodeLoose(raw json.RawMessage, empty any) (any, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return empty, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	s, ok := v.(string)
	if !ok {
		if v == nil {
			return empty, nil
		}
		return v, nil
	}
	if strings.TrimSpace(s) == "" {
		return empty, nil
	}
	var inner any
	if err := json.Unmarshal([]byte(s), &inner); err != nil {
		return nil, fmt.Errorf("invalid JSON text: %w", err)
	}
	return inner, nil
}
