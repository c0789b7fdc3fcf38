// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package cli

import (
	"github.com/spf13/cobra"

	"github.com/specforge/specforge/internal/logging"
	"github.com/specforge/specforge/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the generation HTTP API",
	Long: `Start the HTTP API used by the project builder UI.

Endpoints:
  POST /api/generate-api-from-schema   Document and models to a zip archive
  POST /api/generate                   Description to a sample project archive
  GET  /api/generate-stream            Server-sent progress events
  POST /api/models/schema              Model definition to component schema

Example:
  specforge serve                      # Listen on the configured address
  specforge serve --addr :8080         # Listen on port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: :3000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	if err := logging.Configure(level, cfg.Log.Format, cmd.ErrOrStderr()); err != nil {
		return err
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	printInfo("%s listening on %s", GetVersionInfo(), cfg.Server.Addr)
	return srv.ListenAndServe(cmd.Context())
}
