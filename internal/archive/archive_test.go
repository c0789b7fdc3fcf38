// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package archive

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

var project = map[string]string{
	"info.json":                 `{"info": {"title": "Shop"}}`,
	"paths/-users.get.json":     `{"summary": "List"}`,
	"paths/-users.post.json":    `{"summary": "Create"}`,
	"components/user.json":      `{"type": "object"}`,
	"schema.prisma":             "model User {\n  id Int\n}",
	"components/.DS_Store":      "junk",
	"paths/-orders.delete.json": `{}`,
}

func TestPackage(t *testing.T) {
	dir := writeTree(t, project)

	var buf bytes.Buffer
	manifest, err := Package(context.Background(), dir, &buf, Options{})
	require.NoError(t, err)

	want := []string{
		"components/.DS_Store",
		"components/user.json",
		"info.json",
		"paths/-orders.delete.json",
		"paths/-users.get.json",
		"paths/-users.post.json",
		"schema.prisma",
	}
	assert.Equal(t, want, entryNames(manifest))
	assert.Equal(t, int64(buf.Len()), manifest.Size)

	names, err := List(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, want, names)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	for _, f := range zr.File {
		assert.Equal(t, zip.Deflate, f.Method)
		assert.True(t, f.Modified.Equal(FixedModTime), "entry %s has time %s", f.Name, f.Modified)
		if f.Name == "schema.prisma" {
			rc, err := f.Open()
			require.NoError(t, err)
			content, err := io.ReadAll(rc)
			require.NoError(t, err)
			rc.Close()
			assert.Equal(t, project["schema.prisma"], string(content))
		}
	}
}

func TestPackage_Idempotent(t *testing.T) {
	dir := writeTree(t, project)

	var first, second bytes.Buffer
	_, err := Package(context.Background(), dir, &first, Options{})
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "info.json"), later, later))

	_, err = Package(context.Background(), dir, &second, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestPackage_PreserveModTime(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.txt": "a"})
	stamp := time.Date(2024, time.May, 4, 10, 30, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "a.txt"), stamp, stamp))

	var buf bytes.Buffer
	_, err := Package(context.Background(), dir, &buf, Options{PreserveModTime: true})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.True(t, zr.File[0].Modified.Equal(stamp))
}

func TestPackage_Exclude(t *testing.T) {
	dir := writeTree(t, project)

	var buf bytes.Buffer
	manifest, err := Package(context.Background(), dir, &buf, Options{
		Exclude: []string{"**/.DS_Store", "paths/*.delete.json"},
	})
	require.NoError(t, err)

	assert.NotContains(t, entryNames(manifest), "components/.DS_Store")
	assert.NotContains(t, entryNames(manifest), "paths/-orders.delete.json")
	assert.Len(t, manifest.Entries, 5)
}

func TestPackage_Errors(t *testing.T) {
	dir := writeTree(t, project)
	file := filepath.Join(dir, "info.json")

	tests := []struct {
		name string
		dir  string
		opts Options
		ctx  func() context.Context
	}{
		{name: "missing dir", dir: filepath.Join(dir, "nope")},
		{name: "not a directory", dir: file},
		{name: "level too high", dir: dir, opts: Options{Level: 12}},
		{name: "bad exclude", dir: dir, opts: Options{Exclude: []string{"[unclosed"}}},
		{name: "cancelled", dir: dir, ctx: func() context.Context {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			return ctx
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.ctx != nil {
				ctx = tt.ctx()
			}

			var buf bytes.Buffer
			manifest, err := Package(ctx, tt.dir, &buf, tt.opts)
			assert.Error(t, err)
			assert.Nil(t, manifest)
			assert.Zero(t, buf.Len(), "no partial archive may be written")
		})
	}
}

func TestPackage_FastLevel(t *testing.T) {
	dir := writeTree(t, project)

	var best, fast bytes.Buffer
	_, err := Package(context.Background(), dir, &best, Options{})
	require.NoError(t, err)
	_, err = Package(context.Background(), dir, &fast, Options{Level: 1})
	require.NoError(t, err)

	names, err := List(fast.Bytes())
	require.NoError(t, err)
	assert.Len(t, names, len(project))
}

func TestPackageAsync(t *testing.T) {
	dir := writeTree(t, project)

	result := <-PackageAsync(context.Background(), dir, Options{})
	require.NoError(t, result.Err)
	assert.Len(t, result.Manifest.Entries, len(project))
	assert.Equal(t, int64(len(result.Data)), result.Manifest.Size)

	failed := <-PackageAsync(context.Background(), filepath.Join(dir, "missing"), Options{})
	assert.Error(t, failed.Err)
	assert.Nil(t, failed.Data)
}

func TestList_Invalid(t *testing.T) {
	_, err := List([]byte("not a zip"))
	assert.Error(t, err)
}

func entryNames(m *Manifest) []string {
	names := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		names = append(names, e.Name)
	}
	return names
}
