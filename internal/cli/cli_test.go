// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specforge/specforge/internal/archive"
	"github.com/specforge/specforge/internal/pipeline"
)

// resetFlags restores every flag variable between command runs.
func resetFlags() {
	cfgFile, output, format = "", "", ""
	verbose, quiet = false, false

	generateSchema, generateDryRun = "", false
	generateInclude, generateExclude = nil, nil
	parsePropertyRequired = false
	streamDelay, streamShowCode = -1, false
	serveAddr = ""
	watchSchema, watchDebounce = "", 0
	initForce, initInteractive = false, false
	initTitle, initVersion, initDescription = "", "", ""

	for _, c := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		if f := c.Flags().Lookup("help"); f != nil {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	}
}

// executeCommand runs a command and returns output and error.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	resetFlags()

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// setupProject creates a project in a temporary working directory.
func setupProject(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for path, content := range files {
		fullPath := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
	t.Chdir(dir)
	return dir
}

const openapiYAML = `openapi: 3.0.0
info:
  title: Shop
  version: 1.0.0
paths:
  /users:
    get:
      summary: List users
`

const schemaPrisma = `datasource db {
  provider = "postgresql"
}

model User {
  id    Int    required
  email String
}

model Post {
  id    Int    required
  title String
}
`

func TestRootCommand_Help(t *testing.T) {
	output, err := executeCommand(rootCmd, "--help")
	require.NoError(t, err)

	assert.Contains(t, output, "specforge")
	assert.Contains(t, output, "downloadable project archive")
	assert.NotEmpty(t, rootCmd.Short)
	assert.Contains(t, output, "Available Commands")
	for _, name := range []string{"generate", "parse", "stream", "serve", "watch", "init", "version"} {
		assert.Contains(t, output, name)
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		expected string
	}{
		{name: "config flag short", flag: "-c", expected: "config file"},
		{name: "config flag long", flag: "--config", expected: "config file"},
		{name: "output flag short", flag: "-o", expected: "output file path"},
		{name: "output flag long", flag: "--output", expected: "output file path"},
		{name: "format flag short", flag: "-f", expected: "output format"},
		{name: "format flag long", flag: "--format", expected: "output format"},
		{name: "verbose flag short", flag: "-v", expected: "verbose output"},
		{name: "verbose flag long", flag: "--verbose", expected: "verbose output"},
		{name: "quiet flag short", flag: "-q", expected: "suppress"},
		{name: "quiet flag long", flag: "--quiet", expected: "suppress"},
	}

	output, err := executeCommand(rootCmd, "--help")
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, output, tt.flag)
			assert.Contains(t, output, tt.expected)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand(rootCmd, "version")
	require.NoError(t, err)

	assert.Contains(t, output, "specforge")
	assert.Contains(t, output, "Commit:")
	assert.Contains(t, output, "Go Version:")
	assert.Contains(t, GetVersionInfo(), Version)
}

func TestGenerateCommand(t *testing.T) {
	dir := setupProject(t, map[string]string{
		"openapi.yaml":         openapiYAML,
		"prisma/schema.prisma": schemaPrisma,
	})

	output, err := executeCommand(rootCmd, "generate", "-s", "openapi.yaml", "./prisma", "-o", "out/api.zip")
	require.NoError(t, err)
	assert.Contains(t, output, "Generated out/api.zip (3 files")

	data, err := os.ReadFile(filepath.Join(dir, "out", "api.zip"))
	require.NoError(t, err)
	names, err := archive.List(data)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"info.json", "paths/-users.get.json", "schema.prisma"}, names)

	bundled := readArchiveEntry(t, data, "schema.prisma")
	assert.Contains(t, bundled, `provider = "postgresql"`)
	assert.Contains(t, bundled, "model User {")

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")

	info, err := os.Stat(filepath.Join(dir, "out", "api.zip"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestGenerateCommand_VerboseListsArchive(t *testing.T) {
	setupProject(t, map[string]string{"openapi.yaml": openapiYAML})

	output, err := executeCommand(rootCmd, "generate", "-v", "-s", "openapi.yaml")
	require.NoError(t, err)
	assert.Contains(t, output, "Generated api.zip")
	assert.Contains(t, output, "  info.json\n")
	assert.Contains(t, output, "  paths/-users.get.json\n")
	assert.Contains(t, output, "  schema.prisma\n")
}

func TestGenerateCommand_DryRun(t *testing.T) {
	dir := setupProject(t, map[string]string{"openapi.yaml": openapiYAML})

	output, err := executeCommand(rootCmd, "generate", "--schema", "openapi.yaml", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, output, "Dry run mode")
	assert.Contains(t, output, "paths/-users.get.json")
	assert.NoFileExists(t, filepath.Join(dir, "api.zip"))
}

func TestGenerateCommand_Diagnostics(t *testing.T) {
	setupProject(t, map[string]string{
		"openapi.yaml":         openapiYAML,
		"prisma/schema.prisma": "model User {\n  id Int\n  orphan\n}\n",
	})

	output, err := executeCommand(rootCmd, "generate", "-s", "openapi.yaml", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, output, "1 diagnostic(s):")
	assert.Contains(t, output, `field "orphan" has no type`)
}

func TestGenerateCommand_InvalidDocument(t *testing.T) {
	dir := setupProject(t, map[string]string{"openapi.yaml": "info: {title: x}\n"})

	_, err := executeCommand(rootCmd, "generate", "-s", "openapi.yaml")
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no archive or temporary file may be left behind")
}

func TestGenerateCommand_MissingSchemaFile(t *testing.T) {
	setupProject(t, nil)

	_, err := executeCommand(rootCmd, "generate", "-s", "missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read schema")
}

func TestParseCommand(t *testing.T) {
	setupProject(t, map[string]string{"schema.prisma": schemaPrisma})

	output, err := executeCommand(rootCmd, "parse", "schema.prisma")
	require.NoError(t, err)

	var models []parsedModel
	require.NoError(t, json.Unmarshal([]byte(output), &models))
	require.Len(t, models, 2)
	assert.Equal(t, "User", models[0].Name)
	assert.Equal(t, "Post", models[1].Name)
	assert.Equal(t, "schema.prisma", models[0].Source)
	assert.Equal(t, []string{"id"}, models[0].Schema.Required)
	require.Len(t, models[0].Schema.Properties, 2)
	assert.Equal(t, "id", models[0].Schema.Properties[0].Name)
	assert.Equal(t, "email", models[0].Schema.Properties[1].Name)
}

func TestParseCommand_YAML(t *testing.T) {
	setupProject(t, map[string]string{"schema.prisma": schemaPrisma})

	output, err := executeCommand(rootCmd, "parse", "-f", "yaml", "schema.prisma")
	require.NoError(t, err)
	assert.Contains(t, output, "name: User")
	assert.Contains(t, output, "type: integer")
}

func TestParseCommand_OutputFile(t *testing.T) {
	setupProject(t, map[string]string{"schema.prisma": schemaPrisma})

	output, err := executeCommand(rootCmd, "parse", "-o", "out/models.yaml", "schema.prisma")
	require.NoError(t, err)
	assert.Contains(t, output, "Wrote 2 model(s) to out/models.yaml")

	content, err := os.ReadFile(filepath.Join("out", "models.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "name: User")
	assert.Contains(t, string(content), "name: Post")
}

func TestParseCommand_Errors(t *testing.T) {
	setupProject(t, map[string]string{"notes.txt": "nothing"})

	_, err := executeCommand(rootCmd, "parse")
	assert.Error(t, err)

	_, err = executeCommand(rootCmd, "parse", "notes.txt")
	assert.ErrorContains(t, err, "no model files")
}

func TestStreamCommand(t *testing.T) {
	setupProject(t, nil)

	output, err := executeCommand(rootCmd, "stream", "--delay", "0", "--code", "Create a sample API with /orders route")
	require.NoError(t, err)

	assert.Contains(t, output, "[1/4] initializing: Initializing generation...")
	assert.Contains(t, output, "[2/4] directory-ready: Directory created.")
	assert.Contains(t, output, "[3/4] code-generated: Code generated")
	assert.Contains(t, output, "[4/4] complete: Generation complete!")
	assert.Contains(t, output, "express")
}

func TestStreamCommand_ShortDescription(t *testing.T) {
	setupProject(t, nil)

	_, err := executeCommand(rootCmd, "stream", "--delay", "0", "short")
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 130, ExitCode(context.Canceled))
	assert.Equal(t, 2, ExitCode(&pipeline.InputError{Message: "bad"}))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
}

func readArchiveEntry(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(content)
	}
	t.Fatalf("archive has no entry %q", name)
	return ""
}
