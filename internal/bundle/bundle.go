// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package bundle concatenates raw model definitions into one definitions file.
package bundle

import "strings"

// Separator joins consecutive model definitions.
const Separator = "\n\n"

// DefaultFileName is the name of the consolidated definitions file.
const DefaultFileName = "schema.prisma"

// Bundle joins the raw definitions in order. The texts are not validated
// or normalized, so a text that ends in a newline is followed by an extra
// blank line and the bundle cannot be split back on Separator alone.
func Bundle(texts []string) string {
	return strings.Join(texts, Separator)
}
