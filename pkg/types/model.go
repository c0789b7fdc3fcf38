// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package types

import "strings"

// ModelField is a single field line of a model definition.
type ModelField struct {
	// Name is the field name, unique within its model
	Name string `json:"name"`

	// Type is the free-form type token as written (e.g. "Int", "String")
	Type string `json:"type"`

	// Options holds the space-joined modifier tokens (e.g. "required unique")
	Options string `json:"options"`
}

// HasOption reports whether the field carries the given modifier token.
func (f ModelField) HasOption(option string) bool {
	for _, opt := range strings.Fields(f.Options) {
		if opt == option {
			return true
		}
	}
	return false
}

// ParsedModel is the structured form of one model definition.
type ParsedModel struct {
	// Name is the model name taken from the declaration line
	Name string `json:"name"`

	// Fields are the surviving field lines in declaration order
	Fields []ModelField `json:"fields"`
}

// ComponentSchema is a named, reusable schema definition.
type ComponentSchema struct {
	Name       string  `json:"name"`
	Definition *Schema `json:"definition"`
}
