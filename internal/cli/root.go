// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package cli provides the command-line interface for specforge.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/internal/config"
	"github.com/specforge/specforge/internal/logging"
)

// Global flags
var (
	cfgFile string
	output  string
	format  string
	verbose bool
	quiet   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "specforge",
	Short: "OpenAPI project generator",
	Long: `specforge turns an OpenAPI document and a set of data model definitions
into a downloadable project archive.

The document is split into one file per endpoint and one file per component
schema, the model definitions are bundled into a single schema file, and the
result is packaged as a zip archive.

Example:
  specforge generate --schema openapi.yaml       # Generate api.zip from a document
  specforge generate -s api.json ./prisma        # Include model files from ./prisma
  specforge parse prisma/schema.prisma           # Show the schemas for each model
  specforge serve                                # Start the HTTP API
  specforge watch --schema openapi.yaml          # Regenerate on changes`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// ExecuteContext adds all child commands to the root command and sets flags
// appropriately. Running commands stop when ctx is cancelled.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: specforge.yaml)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "output file path (default: api.zip)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "", "output format for printed documents: yaml, json (default: json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}

// setupLogging routes library logs to stderr as text. Commands that run
// long-lived services reconfigure logging from the config file.
func setupLogging(cmd *cobra.Command, _ []string) error {
	level := "warn"
	switch {
	case quiet:
		level = "error"
	case verbose:
		level = "debug"
	}
	return logging.Configure(level, logging.FormatText, cmd.ErrOrStderr())
}

// loadConfig loads and validates the configuration, applying global flag
// overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if output != "" {
		cfg.Output = output
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// printInfo prints a message if not in quiet mode.
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(rootCmd.OutOrStdout(), format+"\n", args...)
	}
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(rootCmd.OutOrStdout(), format+"\n", args...)
	}
}

// printError prints an error message.
func printError(format string, args ...any) {
	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: "+format+"\n", args...)
}
