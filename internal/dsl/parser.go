// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package dsl parses compact, line-oriented model definitions such as
//
//	model User {
//	  id    Int      required
//	  email String?  unique
//	}
//
// into a model name and an ordered list of typed fields.
package dsl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specforge/specforge/pkg/types"
)

const (
	modelKeyword   = "model"
	openBrace      = "{"
	closeBrace     = "}"
	commentPrefix  = "//"
	blockAttribute = "@@"
	optionalMarker = "?"
)

// ErrNoModelName is returned by Validate when no declaration line was found.
var ErrNoModelName = errors.New("model name is missing")

// ErrNoFields is returned by Validate when every field line was rejected.
var ErrNoFields = errors.New("model has no valid fields")

// Result holds a parsed model together with the lines that were skipped.
type Result struct {
	Model       types.ParsedModel
	Diagnostics []types.Diagnostic
}

// Validate reports whether the model can be used downstream.
func (r Result) Validate() error {
	if r.Model.Name == "" {
		return ErrNoModelName
	}
	if len(r.Model.Fields) == 0 {
		return fmt.Errorf("model %s: %w", r.Model.Name, ErrNoFields)
	}
	return nil
}

// Parse parses a single model definition. It never fails: malformed lines
// are skipped and reported in Result.Diagnostics.
func Parse(text string) Result {
	var (
		res  Result
		seen = make(map[string]int)
	)

	warn := func(line int, format string, args ...any) {
		res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
			Kind:    types.DiagnosticParseWarning,
			Line:    line,
			Message: fmt.Sprintf(format, args...),
		})
	}

	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)

		if line == "" || line == openBrace || line == closeBrace || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		tokens := strings.Fields(line)

		if tokens[0] == modelKeyword {
			name := ""
			if len(tokens) > 1 {
				name = strings.TrimSuffix(tokens[1], openBrace)
			}
			switch {
			case name == "":
				warn(lineNo, "model declaration without a name")
			case res.Model.Name != "":
				warn(lineNo, "additional model declaration %q ignored", name)
			default:
				res.Model.Name = name
			}
			continue
		}

		if strings.HasPrefix(tokens[0], blockAttribute) {
			warn(lineNo, "block attribute %q ignored", tokens[0])
			continue
		}

		field := parseField(tokens)
		if field.Type == "" {
			warn(lineNo, "field %q has no type", field.Name)
			continue
		}
		if prev, dup := seen[field.Name]; dup {
			warn(lineNo, "duplicate field %q (first declared on line %d)", field.Name, prev)
			continue
		}
		seen[field.Name] = lineNo
		res.Model.Fields = append(res.Model.Fields, field)
	}

	// Lines before the declaration are attributed to the model as well.
	for i := range res.Diagnostics {
		res.Diagnostics[i].Source = res.Model.Name
	}
	return res
}

// ParseAll parses each definition independently.
func ParseAll(texts []string) []Result {
	results := make([]Result, 0, len(texts))
	for _, text := range texts {
		results = append(results, Parse(text))
	}
	return results
}

// parseField splits a field line into (name, type, options...). A line with
// a single token yields a field with an empty type.
func parseField(tokens []string) types.ModelField {
	field := types.ModelField{Name: tokens[0]}
	if len(tokens) < 2 {
		return field
	}
	field.Type = strings.TrimSuffix(tokens[1], optionalMarker)
	field.Options = strings.Join(tokens[2:], " ")
	return field
}
