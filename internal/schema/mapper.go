// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package schema maps parsed model definitions to OpenAPI component schemas.
package schema

import (
	"golang.org/x/text/cases"

	"github.com/specforge/specforge/pkg/types"
)

// RequiredOption is the field modifier that marks a property as required.
const RequiredOption = "required"

// MapOptions configures schema mapping.
type MapOptions struct {
	// PropertyRequired additionally emits `required: true` on each required
	// property, as older consumers of generated projects expect.
	PropertyRequired bool
}

// primitive is the JSON Schema type/format pair for a DSL type token.
type primitive struct {
	Type   string
	Format string
}

// typeTable is keyed by case-folded DSL type tokens.
var typeTable = map[string]primitive{
	"int":      {Type: "integer", Format: "int32"},
	"integer":  {Type: "integer", Format: "int32"},
	"float":    {Type: "number", Format: "double"},
	"double":   {Type: "number", Format: "double"},
	"boolean":  {Type: "boolean"},
	"datetime": {Type: "string", Format: "date-time"},
}

var fallback = primitive{Type: "string"}

// Map converts a parsed model into a named object schema. Property order
// follows field order; required-ness is collected into the object-level
// required list.
func Map(model types.ParsedModel, opts MapOptions) types.ComponentSchema {
	obj := &types.Schema{
		Type:       "object",
		Properties: make(types.Properties, 0, len(model.Fields)),
	}

	for _, field := range model.Fields {
		if field.Name == "" || field.Type == "" {
			continue
		}

		typ, format := PrimitiveFor(field.Type)
		prop := &types.Schema{Type: typ, Format: format}
		if field.HasOption(RequiredOption) {
			obj.Required = append(obj.Required, field.Name)
			prop.RequiredMarker = opts.PropertyRequired
		}
		obj.Properties = append(obj.Properties, types.Property{Name: field.Name, Schema: prop})
	}

	return types.ComponentSchema{Name: model.Name, Definition: obj}
}

// PrimitiveFor returns the JSON Schema type and format for a DSL type token.
func PrimitiveFor(token string) (typ, format string) {
	p, ok := typeTable[cases.Fold().String(token)]
	if !ok {
		p = fallback
	}
	return p.Type, p.Format
}
