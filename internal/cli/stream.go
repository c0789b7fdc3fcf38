// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/internal/codegen"
	"github.com/specforge/specforge/internal/progress"
	"github.com/specforge/specforge/internal/server"
)

var (
	streamDelay    time.Duration
	streamShowCode bool
)

var streamCmd = &cobra.Command{
	Use:   "stream [description]",
	Short: "Generate a sample project and print progress as it happens",
	Long: `Generate a sample Express project from a short description and print
each progress stage as it completes.

Example:
  specforge stream "Create a sample API with /example route"
  specforge stream --delay 1s --code "Orders API with /orders route"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStream,
}

func init() {
	streamCmd.Flags().DurationVar(&streamDelay, "delay", -1, "pause between stages (default: from config)")
	streamCmd.Flags().BoolVar(&streamShowCode, "code", false, "print the generated code")
}

func runStream(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	description := server.DefaultDescription
	if len(args) > 0 {
		description = strings.TrimSpace(args[0])
	}

	opts := server.CodegenOptions(cfg)
	if streamDelay >= 0 {
		opts.Delay = streamDelay
	}

	sink := progress.NewChannelSink(len(progress.Stages) + 1)
	errCh := make(chan error, 1)
	go func() {
		defer sink.Close()
		errCh <- codegen.New(opts).Run(cmd.Context(), description, progress.NewReporter(sink))
	}()

	out := cmd.OutOrStdout()
	for e := range sink.Events() {
		if quiet && e.Stage != progress.StageError {
			continue
		}
		fmt.Fprintf(out, "[%d/%d] %s: %s\n", e.Step, len(progress.Stages), e.Stage, e.Message)
		if streamShowCode && e.Code != "" {
			fmt.Fprintln(out, e.Code)
		}
	}

	return <-errCh
}
