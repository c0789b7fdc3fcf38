// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specforge/specforge/internal/dsl"
	"github.com/specforge/specforge/pkg/types"
)

func TestMap_TypeTable(t *testing.T) {
	tests := []struct {
		token      string
		wantType   string
		wantFormat string
	}{
		{"Int", "integer", "int32"},
		{"integer", "integer", "int32"},
		{"INTEGER", "integer", "int32"},
		{"Float", "number", "double"},
		{"double", "number", "double"},
		{"Boolean", "boolean", ""},
		{"DateTime", "string", "date-time"},
		{"String", "string", ""},
		{"Json", "string", ""},
		{"Bool", "string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			typ, format := PrimitiveFor(tt.token)
			assert.Equal(t, tt.wantType, typ)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestMap_UserScenario(t *testing.T) {
	res := dsl.Parse("model User {\n  id Int required\n  name String\n}")
	require.NoError(t, res.Validate())

	comp := Map(res.Model, MapOptions{})

	assert.Equal(t, "User", comp.Name)
	assert.Equal(t, "object", comp.Definition.Type)
	assert.Equal(t, []string{"id", "name"}, propertyNames(comp.Definition.Properties))
	assert.Equal(t, []string{"id"}, comp.Definition.Required)

	data, err := json.Marshal(comp.Definition)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"id": {"type": "integer", "format": "int32"},
			"name": {"type": "string"}
		},
		"required": ["id"]
	}`, string(data))
}

func TestMap_PropertyRequiredMarker(t *testing.T) {
	res := dsl.Parse("model User {\n  id Int required\n  name String\n}")

	comp := Map(res.Model, MapOptions{PropertyRequired: true})

	data, err := json.Marshal(comp.Definition)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"id": {"type": "integer", "format": "int32", "required": true},
			"name": {"type": "string"}
		},
		"required": ["id"]
	}`, string(data))
}

func TestMap_PreservesFieldOrder(t *testing.T) {
	res := dsl.Parse("model Order {\n  zeta String\n  alpha Int\n  mid Boolean\n}")

	comp := Map(res.Model, MapOptions{})

	data, err := json.Marshal(comp.Definition.Properties)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":{"type":"string"},"alpha":{"type":"integer","format":"int32"},"mid":{"type":"boolean"}}`, string(data))
}

func TestMap_PropertyCountMatchesWellFormedFields(t *testing.T) {
	inputs := []string{
		"model A {\n  id Int\n}",
		"model B {\n  id Int\n  broken\n  name String?\n  @@unique([id])\n}",
		"model C {\n  a Float\n  b Double\n  c DateTime required\n  d Boolean\n}",
	}

	for _, input := range inputs {
		res := dsl.Parse(input)
		require.NoError(t, res.Validate())

		comp := Map(res.Model, MapOptions{})
		assert.Len(t, comp.Definition.Properties, len(res.Model.Fields), input)
	}
}

func TestMap_SkipsIncompleteFields(t *testing.T) {
	model := types.ParsedModel{
		Name: "Loose",
		Fields: []types.ModelField{
			{Name: "ok", Type: "Int"},
			{Name: "noType"},
			{Type: "String"},
		},
	}

	comp := Map(model, MapOptions{})
	assert.Equal(t, []string{"ok"}, propertyNames(comp.Definition.Properties))
}

func TestSchema_UnmarshalRoundTrip(t *testing.T) {
	input := `{"type":"object","properties":{"b":{"type":"string"},"a":{"type":"integer","required":true}},"required":["b"]}`

	var s types.Schema
	require.NoError(t, json.Unmarshal([]byte(input), &s))

	assert.Equal(t, []string{"b", "a"}, propertyNames(s.Properties))
	assert.Equal(t, []string{"b"}, s.Required)
	require.Len(t, s.Properties, 2)
	assert.True(t, s.Properties[1].Schema.RequiredMarker)
}

func propertyNames(props types.Properties) []string {
	names := make([]string, 0, len(props))
	for _, p := range props {
		names = append(names, p.Name)
	}
	return names
}
