// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package types

import "fmt"

// DiagnosticKind classifies a recoverable problem found while processing input.
type DiagnosticKind string

const (
	// DiagnosticParseWarning marks a malformed model definition line that was skipped.
	DiagnosticParseWarning DiagnosticKind = "parse-warning"

	// DiagnosticSkipped marks a document entry that could not be turned into a file.
	DiagnosticSkipped DiagnosticKind = "skipped"

	// DiagnosticCollision marks two inputs that produced the same output file.
	DiagnosticCollision DiagnosticKind = "collision"
)

// Diagnostic describes a skipped or overwritten input item.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Source  string         `json:"source,omitempty"`
	Line    int            `json:"line,omitempty"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	switch {
	case d.Source != "" && d.Line > 0:
		return fmt.Sprintf("%s: %s:%d: %s", d.Kind, d.Source, d.Line, d.Message)
	case d.Source != "":
		return fmt.Sprintf("%s: %s: %s", d.Kind, d.Source, d.Message)
	case d.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", d.Kind, d.Line, d.Message)
	default:
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
}
