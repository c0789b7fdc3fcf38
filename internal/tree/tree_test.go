// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package tree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_AddKeepsOrder(t *testing.T) {
	tr := New(CollisionOverwrite)

	require.NoError(t, tr.Add("info.json", []byte("{}"), "info"))
	require.NoError(t, tr.Add("paths/-users.get.json", []byte("{}"), "GET /users"))
	require.NoError(t, tr.Add("components/user.json", []byte("{}"), "User"))

	assert.Equal(t, []string{"info.json", "paths/-users.get.json", "components/user.json"}, tr.Paths())
	assert.Equal(t, 3, tr.Len())
	assert.Empty(t, tr.Collisions())
}

func TestTree_CollisionOverwrite(t *testing.T) {
	tr := New(CollisionOverwrite)

	require.NoError(t, tr.Add("components/user.json", []byte("first"), "User"))
	require.NoError(t, tr.Add("other.json", []byte("x"), "other"))
	require.NoError(t, tr.Add("components/user.json", []byte("second"), "user"))

	assert.Equal(t, []string{"components/user.json", "other.json"}, tr.Paths())
	content, ok := tr.Get("components/user.json")
	require.True(t, ok)
	assert.Equal(t, "second", string(content))

	require.Len(t, tr.Collisions(), 1)
	assert.Equal(t, Collision{Path: "components/user.json", Previous: "User", Current: "user"}, tr.Collisions()[0])
}

func TestTree_CollisionReject(t *testing.T) {
	tr := New(CollisionReject)

	require.NoError(t, tr.Add("paths/-users.get.json", []byte("a"), "GET /users"))
	err := tr.Add("paths/-users.get.json", []byte("b"), "GET users")

	var collErr *CollisionError
	require.ErrorAs(t, err, &collErr)
	assert.Equal(t, "paths/-users.get.json", collErr.Collision.Path)

	content, _ := tr.Get("paths/-users.get.json")
	assert.Equal(t, "a", string(content))
}

func TestTree_AddRejectsInvalidPaths(t *testing.T) {
	tr := New("")

	for _, p := range []string{"", "/etc/passwd", "../escape", "a/../../b", "."} {
		assert.ErrorIs(t, tr.Add(p, nil, "test"), ErrInvalidPath, p)
	}
	assert.Equal(t, CollisionOverwrite, tr.Policy())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, CollisionOverwrite, p)

	p, err = ParsePolicy("error")
	require.NoError(t, err)
	assert.Equal(t, CollisionReject, p)

	_, err = ParsePolicy("rename")
	assert.Error(t, err)
}

func TestTree_Materialize(t *testing.T) {
	tr := New(CollisionOverwrite)
	require.NoError(t, tr.Add("info.json", []byte(`{"title":"x"}`), "info"))
	require.NoError(t, tr.Add("paths/-users.get.json", []byte(`{}`), "GET /users"))
	require.NoError(t, tr.Add("components/user.json", []byte(`{"type":"object"}`), "User"))

	dir := t.TempDir()
	require.NoError(t, tr.Materialize(context.Background(), dir))

	for _, e := range tr.Entries() {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(e.Path)))
		require.NoError(t, err)
		assert.Equal(t, e.Content, data)
	}
}

func TestTree_MaterializeCanceled(t *testing.T) {
	tr := New(CollisionOverwrite)
	require.NoError(t, tr.Add("info.json", []byte(`{}`), "info"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.Materialize(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
