// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package openapi

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specforge/specforge/internal/tree"
	"github.com/specforge/specforge/pkg/types"
)

func createTestDoc() *types.Document {
	return &types.Document{
		OpenAPI: "3.0.0",
		Info:    types.Info{Title: "Test API", Version: "1.0.0"},
		Components: types.Components{
			Schemas: map[string]any{
				"User":  map[string]any{"type": "object"},
				"Error": &types.Schema{Type: "object"},
			},
		},
		Paths: map[string]types.PathItem{
			"/users": {
				"get":  {Summary: "List users", Responses: map[string]any{"200": map[string]any{"description": "ok"}}},
				"post": {Summary: "Create user"},
			},
			"/users/{id}": {
				"delete": {Summary: "Delete user", Parameters: []any{map[string]any{"name": "id", "in": "path"}}},
			},
		},
	}
}

func TestEndpointFileName(t *testing.T) {
	tests := []struct {
		path   string
		method types.Method
		want   string
	}{
		{"/users", types.MethodGet, "-users.get.json"},
		{"users", types.MethodGet, "-users.get.json"},
		{"/users/{id}", types.MethodDelete, "-users-{id}.delete.json"},
		{"/", types.MethodPost, "-.post.json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, EndpointFileName(tt.path, tt.method))
		})
	}
}

func TestComponentFileName(t *testing.T) {
	assert.Equal(t, "user.json", ComponentFileName("User"))
	assert.Equal(t, "orderitem.json", ComponentFileName("OrderItem"))
	assert.Equal(t, "..-info.json", ComponentFileName("../Info"))
	assert.Equal(t, "..-..-evil.json", ComponentFileName(`..\\../Evil`))
}

func TestDecompose_ComponentNamesStayInDirectory(t *testing.T) {
	doc := &types.Document{
		Info:  types.Info{Title: "Meta", Version: "1"},
		Paths: map[string]types.PathItem{},
		Components: types.Components{Schemas: map[string]any{
			"../Info":     map[string]any{"type": "object"},
			"../../Evil":  map[string]any{"type": "string"},
			"nested/Name": map[string]any{"type": "integer"},
		}},
	}

	tr, diags, err := Decompose(doc, DecomposeOptions{Policy: tree.CollisionReject})
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, []string{
		"info.json",
		"components/..-..-evil.json",
		"components/..-info.json",
		"components/nested-name.json",
	}, tr.Paths())

	content, ok := tr.Get("info.json")
	require.True(t, ok)
	assert.Contains(t, string(content), `"title": "Meta"`)
}

func TestDecompose_SingleEndpoint(t *testing.T) {
	doc := &types.Document{
		Info:  types.Info{Title: "x", Version: "1"},
		Paths: map[string]types.PathItem{"/users": {"get": {Summary: "List"}}},
	}

	tr, diags, err := Decompose(doc, DecomposeOptions{})
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, []string{"info.json", "paths/-users.get.json"}, tr.Paths())

	content, ok := tr.Get("paths/-users.get.json")
	require.True(t, ok)
	assert.JSONEq(t, `{"summary": "List", "parameters": [], "responses": {}}`, string(content))
}

func TestDecompose_EmptyPaths(t *testing.T) {
	doc := &types.Document{
		Info:  types.Info{Title: "Empty", Version: "0.1.0"},
		Paths: map[string]types.PathItem{},
	}

	tr, _, err := Decompose(doc, DecomposeOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"info.json"}, tr.Paths())

	content, _ := tr.Get("info.json")
	var meta map[string]any
	require.NoError(t, json.Unmarshal(content, &meta))
	assert.Equal(t, "Empty", meta["info"].(map[string]any)["title"])
}

func TestDecompose_Layout(t *testing.T) {
	tr, diags, err := Decompose(createTestDoc(), DecomposeOptions{})
	require.NoError(t, err)
	assert.Empty(t, diags)

	want := []string{
		"info.json",
		"paths/-users.get.json",
		"paths/-users.post.json",
		"paths/-users-{id}.delete.json",
		"components/error.json",
		"components/user.json",
	}
	if diff := cmp.Diff(want, tr.Paths()); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestDecompose_Deterministic(t *testing.T) {
	first, _, err := Decompose(createTestDoc(), DecomposeOptions{})
	require.NoError(t, err)
	second, _, err := Decompose(createTestDoc(), DecomposeOptions{})
	require.NoError(t, err)

	if diff := cmp.Diff(first.Entries(), second.Entries()); diff != "" {
		t.Errorf("decompose is not deterministic (-first +second):\n%s", diff)
	}
}

func TestDecompose_SkipsMissingBodies(t *testing.T) {
	doc := &types.Document{
		Info: types.Info{Title: "x", Version: "1"},
		Paths: map[string]types.PathItem{
			"/a": {"get": nil, "post": {Summary: "ok"}, "fetch": {Summary: "bad"}},
		},
	}

	tr, diags, err := Decompose(doc, DecomposeOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"info.json", "paths/-a.post.json"}, tr.Paths())

	require.Len(t, diags, 2)
	assert.Equal(t, "GET /a", diags[0].Source)
	assert.Equal(t, types.DiagnosticSkipped, diags[0].Kind)
	assert.Contains(t, diags[1].Message, `"fetch"`)
}

func TestDecompose_CollisionOverwrite(t *testing.T) {
	doc := &types.Document{
		Info: types.Info{Title: "x", Version: "1"},
		Paths: map[string]types.PathItem{
			"/users": {"get": {Summary: "slash"}},
			"users":  {"get": {Summary: "bare"}},
		},
		Components: types.Components{Schemas: map[string]any{
			"User": map[string]any{"title": "upper"},
			"user": map[string]any{"title": "lower"},
		}},
	}

	tr, diags, err := Decompose(doc, DecomposeOptions{Policy: tree.CollisionOverwrite})
	require.NoError(t, err)

	// Sorted input order decides the winner: "users" sorts after "/users".
	content, _ := tr.Get("paths/-users.get.json")
	assert.Contains(t, string(content), `"bare"`)
	content, _ = tr.Get("components/user.json")
	assert.Contains(t, string(content), `"lower"`)

	assert.Len(t, tr.Collisions(), 2)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, types.DiagnosticCollision, d.Kind)
	}
}

func TestDecompose_CollisionReject(t *testing.T) {
	doc := &types.Document{
		Info: types.Info{Title: "x", Version: "1"},
		Paths: map[string]types.PathItem{
			"/users": {"get": {}},
			"users":  {"get": {}},
		},
	}

	_, _, err := Decompose(doc, DecomposeOptions{Policy: tree.CollisionReject})

	var collErr *tree.CollisionError
	require.ErrorAs(t, err, &collErr)
	assert.Equal(t, "paths/-users.get.json", collErr.Collision.Path)
}

func TestDecompose_CustomLayout(t *testing.T) {
	doc := createTestDoc()

	tr, _, err := Decompose(doc, DecomposeOptions{
		MetadataFile:  "meta/project.json",
		PathsDir:      "api/endpoints",
		ComponentsDir: "api/schemas",
		Writer:        &Writer{Indent: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, "meta/project.json", tr.Paths()[0])
	_, ok := tr.Get("api/schemas/user.json")
	assert.True(t, ok)
	content, ok := tr.Get("api/endpoints/-users.get.json")
	require.True(t, ok)
	assert.NotContains(t, string(content), "\n  ")
}
