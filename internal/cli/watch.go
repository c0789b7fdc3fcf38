// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package cli

import (
	"context"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/specforge/specforge/internal/watcher"
)

var (
	watchSchema   string
	watchDebounce int
)

var watchCmd = &cobra.Command{
	Use:   "watch [model paths...]",
	Short: "Watch the document and model files and regenerate the archive",
	Long: `Watch the OpenAPI document and model definition files and regenerate the
project archive whenever they change.

The archive is generated once on start. Failed regenerations are reported
and the previous archive is kept.

Example:
  specforge watch --schema openapi.yaml            # Watch the document and ./
  specforge watch -s openapi.yaml ./prisma         # Watch specific model paths
  specforge watch -s openapi.yaml --debounce 1000  # Wait 1s before regenerating`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchSchema, "schema", "s", "", "OpenAPI document (JSON or YAML)")
	watchCmd.Flags().IntVar(&watchDebounce, "debounce", 0, "debounce duration in milliseconds (default: from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if watchDebounce > 0 {
		cfg.Watch.Debounce = watchDebounce
	}
	if len(args) > 0 {
		cfg.Models.Paths = args
	}

	job := &generateJob{cfg: cfg, schemaPath: watchSchema}
	sc := job.scanner()

	paths := append([]string{}, cfg.Models.Paths...)
	if watchSchema != "" {
		paths = append(paths, watchSchema)
	}

	w, err := watcher.New(watcher.Options{
		Paths:    paths,
		Debounce: time.Duration(cfg.Watch.Debounce) * time.Millisecond,
		Filter:   sc.Matches,
		SkipDir:  sc.SkipDir,
	})
	if err != nil {
		return err
	}

	printVerbose("Watch configuration:")
	printVerbose("  Debounce: %dms", cfg.Watch.Debounce)
	printVerbose("  Output: %s", cfg.Output)
	for _, dir := range w.WatchList() {
		printVerbose("  Watching: %s", dir)
	}

	regenerate := func(ctx context.Context, e watcher.Event) error {
		for _, p := range e.Paths {
			printVerbose("  Changed: %s", p)
		}
		res, err := job.run(ctx)
		if err != nil {
			printError("%v", err)
			return err
		}
		printInfo("Generated %s (%d files, %s)", cfg.Output, len(res.Files), humanize.Bytes(uint64(res.ArchiveSize)))
		return nil
	}

	_ = regenerate(cmd.Context(), watcher.Event{})

	printInfo("Watching for changes in: %s", strings.Join(paths, ", "))
	printInfo("Press Ctrl+C to stop")

	return w.Run(cmd.Context(), regenerate)
}
