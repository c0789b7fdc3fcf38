// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package server exposes the generation pipeline over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/specforge/specforge/internal/codegen"
	"github.com/specforge/specforge/internal/config"
	"github.com/specforge/specforge/internal/dsl"
	"github.com/specforge/specforge/internal/logging"
	"github.com/specforge/specforge/internal/pipeline"
	"github.com/specforge/specforge/internal/progress"
	"github.com/specforge/specforge/internal/schema"
	"github.com/specforge/specforge/pkg/types"
)

// DefaultDescription is streamed when the request carries none.
const DefaultDescription = "Create a sample API with /example route"

// ArchiveName is the download file name of generated projects.
const ArchiveName = "api.zip"

// Server wraps the generation API handlers.
type Server struct {
	cfg     *config.Config
	gen     *pipeline.Generator
	codegen *codegen.Generator
	mapOpts schema.MapOptions
	mux     *http.ServeMux
	log     *logrus.Entry
}

// New constructs a new Server with routes registered.
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:     cfg,
		gen:     pipeline.New(opts),
		codegen: codegen.New(CodegenOptions(cfg)),
		mapOpts: opts.Map,
		mux:     http.NewServeMux(),
		log:     logging.WithFields(logrus.Fields{"component": "server"}),
	}
	srv.registerRoutes()
	return srv, nil
}

// CodegenOptions derives the live generation options from the configuration.
func CodegenOptions(cfg *config.Config) codegen.Options {
	return codegen.Options{
		Name:        cfg.Codegen.Name,
		Endpoint:    cfg.Codegen.Endpoint,
		Method:      cfg.Codegen.Method,
		Port:        cfg.Codegen.Port,
		StagingRoot: cfg.Staging.Root,
		Delay:       time.Duration(cfg.Codegen.Delay) * time.Millisecond,
	}
}

// Handler returns the http handler.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.cors(s.mux))
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Server.Addr).Info("server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.Server.ShutdownTimeout) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/generate-api-from-schema", s.handleGenerateFromSchema)
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("GET /api/generate-stream", s.handleGenerateStream)
	s.mux.HandleFunc("POST /api/models/schema", s.handleModelSchema)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

type generateFromSchemaRequest struct {
	Schema       json.RawMessage            `json:"schema"`
	PrismaModels []string                   `json:"prismaModels"`
	Endpoints    []types.EndpointSpec       `json:"endpoints"`
	Components   map[string]json.RawMessage `json:"components"`
	Info         *types.Info                `json:"info"`
}

func (s *Server) handleGenerateFromSchema(w http.ResponseWriter, r *http.Request) {
	var req generateFromSchemaRequest
	if !s.decode(w, r, &req) {
		return
	}

	document, err := schemaDocument(req.Schema)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid schema", err.Error())
		return
	}

	var buf bytes.Buffer
	res, err := s.gen.Generate(r.Context(), pipeline.Request{
		Document:   document,
		Endpoints:  req.Endpoints,
		Components: req.Components,
		Info:       req.Info,
		Models:     req.PrismaModels,
	}, &buf)
	if err != nil {
		s.fail(w, r, "API generation failed", err)
		return
	}

	w.Header().Set("X-Specforge-Files", strconv.Itoa(len(res.Files)))
	w.Header().Set("X-Specforge-Diagnostics", strconv.Itoa(len(res.Diagnostics)))
	writeArchive(w, buf.Bytes())
}

// schemaDocument accepts the document either inline or as editor text.
func schemaDocument(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return nil, nil
	case raw[0] == '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
		return []byte(text), nil
	default:
		return raw, nil
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	t, err := s.codegen.Render(req.Description)
	if err != nil {
		s.fail(w, r, "API generation failed", err)
		return
	}

	var buf bytes.Buffer
	if _, err := s.gen.Package(r.Context(), t, &buf); err != nil {
		s.fail(w, r, "API generation failed", err)
		return
	}
	writeArchive(w, buf.Bytes())
}

func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	description := strings.TrimSpace(r.URL.Query().Get("description"))
	if description == "" {
		description = DefaultDescription
	}
	if err := codegen.ValidateDescription(description); err != nil {
		s.fail(w, r, "invalid description", err)
		return
	}

	sink, err := newEventSink(w)
	if err != nil {
		s.fail(w, r, "streaming unsupported", err)
		return
	}

	reporter := progress.NewReporter(sink)
	if err := s.codegen.Run(r.Context(), description, reporter); err != nil {
		// The failure has already been streamed as an error event.
		s.log.WithError(err).WithField("stage", reporter.Current()).Warn("stream ended early")
	}
}

type modelSchemaResponse struct {
	Name        string             `json:"name"`
	Schema      *types.Schema      `json:"schema"`
	Diagnostics []types.Diagnostic `json:"diagnostics"`
}

func (s *Server) handleModelSchema(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	parsed := dsl.Parse(req.Model)
	if err := parsed.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid model definition", err.Error())
		return
	}

	component := schema.Map(parsed.Model, s.mapOpts)
	diags := parsed.Diagnostics
	if diags == nil {
		diags = []types.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, modelSchemaResponse{
		Name:        component.Name,
		Schema:      component.Definition,
		Diagnostics: diags,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body, answering 400 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json", err.Error())
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := pipeline.ErrorStatus(err)
	entry := s.log.WithError(err).WithField("path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		entry.Error(message)
		writeError(w, status, message, err.Error())
		return
	}
	entry.Info(message)
	writeError(w, status, err.Error(), "")
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeArchive(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ArchiveName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
