// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/specforge/specforge/internal/archive"
	"github.com/specforge/specforge/internal/config"
	"github.com/specforge/specforge/internal/pipeline"
	"github.com/specforge/specforge/internal/scanner"
)

var (
	generateSchema  string
	generateDryRun  bool
	generateInclude []string
	generateExclude []string
)

var generateCmd = &cobra.Command{
	Use:   "generate [model paths...]",
	Short: "Generate a project archive from a document and model files",
	Long: `Generate a project archive from an OpenAPI document and model definitions.

The document is split into info.json, one file per endpoint under paths/ and
one file per component schema under components/. Model definitions found in
the given paths are bundled into a single schema file. The archive is written
only once generation has fully succeeded.

Example:
  specforge generate --schema openapi.yaml              # Document only
  specforge generate -s openapi.json ./prisma           # Document and models
  specforge generate -s openapi.yaml -o build/api.zip   # Custom output path
  specforge generate -s openapi.yaml --dry-run          # List files without writing`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateSchema, "schema", "s", "", "OpenAPI document (JSON or YAML)")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "list generated files without writing the archive")
	generateCmd.Flags().StringSliceVarP(&generateInclude, "include", "i", nil, "glob patterns for model files to include")
	generateCmd.Flags().StringSliceVarP(&generateExclude, "exclude", "e", nil, "glob patterns for model files to exclude")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(generateInclude) > 0 {
		cfg.Models.Include = generateInclude
	}
	if len(generateExclude) > 0 {
		cfg.Models.Exclude = generateExclude
	}
	if len(args) > 0 {
		cfg.Models.Paths = args
	}

	printVerbose("Configuration:")
	printVerbose("  Schema: %s", generateSchema)
	printVerbose("  Models: %s", strings.Join(cfg.Models.Paths, ", "))
	printVerbose("  Output: %s", cfg.Output)

	job := &generateJob{cfg: cfg, schemaPath: generateSchema}

	if generateDryRun {
		printInfo("Dry run mode - no files will be written")
		return job.dryRun()
	}

	res, err := job.run(cmd.Context())
	if err != nil {
		return err
	}

	printInfo("Generated %s (%d files, %s)", cfg.Output, len(res.Files), humanize.Bytes(uint64(res.ArchiveSize)))
	if verbose {
		return listArchive(cfg.Output)
	}
	return nil
}

// listArchive prints the entries of a written archive.
func listArchive(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	names, err := archive.List(data)
	if err != nil {
		return err
	}
	for _, name := range names {
		printVerbose("  %s", name)
	}
	return nil
}

// generateJob runs the pipeline for a document file and model paths.
type generateJob struct {
	cfg        *config.Config
	schemaPath string
}

func (j *generateJob) scanner() *scanner.Scanner {
	return scanner.New(scanner.Config{
		IncludePatterns: j.cfg.Models.Include,
		ExcludePatterns: j.cfg.Models.Exclude,
	})
}

func (j *generateJob) request() (pipeline.Request, error) {
	var req pipeline.Request

	if j.schemaPath != "" {
		data, err := os.ReadFile(j.schemaPath)
		if err != nil {
			return req, fmt.Errorf("failed to read schema: %w", err)
		}
		req.Document = data
	}

	files, err := j.scanner().ScanPaths(j.cfg.Models.Paths)
	if err != nil {
		return req, fmt.Errorf("failed to scan model files: %w", err)
	}
	for _, f := range files {
		printVerbose("  Model file: %s", f.Rel)
	}
	req.Models = scanner.Definitions(files)
	req.Declarations = scanner.Declarations(files)

	return req, nil
}

func (j *generateJob) generator() (*pipeline.Generator, error) {
	opts, err := pipeline.OptionsFromConfig(j.cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.New(opts), nil
}

func (j *generateJob) dryRun() error {
	req, err := j.request()
	if err != nil {
		return err
	}
	gen, err := j.generator()
	if err != nil {
		return err
	}

	_, res, err := gen.Build(req)
	if err != nil {
		return err
	}

	for _, f := range res.Files {
		printInfo("  %s", f)
	}
	reportDiagnostics(res)
	return nil
}

// run writes the archive to a temporary file next to the output and renames
// it into place on success.
func (j *generateJob) run(ctx context.Context) (res *pipeline.Result, err error) {
	req, err := j.request()
	if err != nil {
		return nil, err
	}
	gen, err := j.generator()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(j.cfg.Output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".specforge-*.zip")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	res, err = gen.Generate(ctx, req, tmp)
	if err != nil {
		return nil, err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}
	if err = os.Rename(tmp.Name(), j.cfg.Output); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}

	reportDiagnostics(res)
	return res, nil
}

func reportDiagnostics(res *pipeline.Result) {
	if len(res.Diagnostics) == 0 {
		return
	}
	printInfo("%d diagnostic(s):", len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		printInfo("  %s", d)
	}
}

// ExitCode maps a generation error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	case pipeline.IsInputError(err):
		return 2
	default:
		return 1
	}
}
