// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/specforge/specforge/internal/progress"
)

// eventSink writes progress events as server-sent events.
type eventSink struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func newEventSink(w http.ResponseWriter) (*eventSink, error) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		return nil, err
	}
	return &eventSink{w: w, rc: rc}, nil
}

func (s *eventSink) Emit(ctx context.Context, e progress.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return s.rc.Flush()
}
