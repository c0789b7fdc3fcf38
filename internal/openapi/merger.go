// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package openapi

import (
	"fmt"

	"github.com/specforge/specforge/pkg/types"
)

// MergeStrategy defines how to handle conflicts during merge.
type MergeStrategy string

const (
	// MergeStrategyKeepExisting keeps the document's schema on conflict.
	MergeStrategyKeepExisting MergeStrategy = "keep-existing"

	// MergeStrategyOverwrite replaces the document's schema with the mapped one.
	MergeStrategyOverwrite MergeStrategy = "overwrite"
)

// ParseMergeStrategy validates a strategy name. An empty name selects
// MergeStrategyKeepExisting.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch MergeStrategy(s) {
	case "", MergeStrategyKeepExisting:
		return MergeStrategyKeepExisting, nil
	case MergeStrategyOverwrite:
		return MergeStrategyOverwrite, nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q", s)
	}
}

// MergeOptions configures the merge behavior.
type MergeOptions struct {
	// Strategy defines the conflict strategy.
	Strategy MergeStrategy
}

// DefaultMergeOptions returns the default merge options.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{
		Strategy: MergeStrategyKeepExisting,
	}
}

// Merger merges model-derived component schemas into a document.
type Merger struct {
	options MergeOptions
}

// NewMerger creates a new Merger with the given options.
func NewMerger(options MergeOptions) *Merger {
	return &Merger{
		options: options,
	}
}

// MergeComponents adds the components to doc.Components.Schemas. Name
// conflicts are resolved by the strategy and reported.
func (m *Merger) MergeComponents(doc *types.Document, components []types.ComponentSchema) []types.Diagnostic {
	if doc.Components.Schemas == nil {
		doc.Components.Schemas = make(map[string]any, len(components))
	}

	var diags []types.Diagnostic
	for _, c := range components {
		if _, exists := doc.Components.Schemas[c.Name]; exists {
			if m.options.Strategy == MergeStrategyKeepExisting {
				diags = append(diags, types.Diagnostic{
					Kind:    types.DiagnosticCollision,
					Source:  c.Name,
					Message: "document schema kept over model definition",
				})
				continue
			}
			diags = append(diags, types.Diagnostic{
				Kind:    types.DiagnosticCollision,
				Source:  c.Name,
				Message: "model definition replaced document schema",
			})
		}
		doc.Components.Schemas[c.Name] = c.Definition
	}
	return diags
}
