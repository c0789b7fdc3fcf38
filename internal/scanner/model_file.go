// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package scanner

import (
	"strings"
	"time"
)

// DefaultExtension is the extension of model definition files.
const DefaultExtension = ".prisma"

// ModelFile represents a discovered model definition file.
type ModelFile struct {
	// Path is the absolute path to the file
	Path string

	// Rel is the slash-separated path relative to the scan base
	Rel string

	// Content is the file content
	Content []byte

	// ModTime is the last modification time
	ModTime time.Time
}

// Definitions returns the model blocks of the file in order.
func (f ModelFile) Definitions() []string {
	return SplitDefinitions(string(f.Content))
}

// Declarations returns the non-model top-level blocks of the file in order.
func (f ModelFile) Declarations() []string {
	return SplitDeclarations(string(f.Content))
}

var (
	modelKeywords       = map[string]bool{"model": true}
	declarationKeywords = map[string]bool{"datasource": true, "generator": true, "enum": true, "type": true, "view": true}
)

// SplitDefinitions extracts every `model Name { ... }` block from a
// definitions file. An unterminated block runs to the end of the text.
func SplitDefinitions(content string) []string {
	return splitBlocks(content, modelKeywords)
}

// SplitDeclarations extracts the datasource, generator, enum, type and view
// blocks that accompany the models in a definitions file.
func SplitDeclarations(content string) []string {
	return splitBlocks(content, declarationKeywords)
}

func splitBlocks(content string, keywords map[string]bool) []string {
	var (
		blocks  []string
		current []string
		depth   int
		inBlock bool
	)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if !inBlock && depth == 0 {
			fields := strings.Fields(trimmed)
			if len(fields) > 0 && keywords[fields[0]] {
				inBlock = true
				current = current[:0]
			}
		}

		if inBlock {
			current = append(current, strings.TrimRight(line, " \t\r"))
		}

		depth += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
		if depth < 0 {
			depth = 0
		}

		if inBlock && depth == 0 && strings.Contains(trimmed, "}") {
			blocks = append(blocks, strings.Join(current, "\n"))
			inBlock = false
		}
	}

	if inBlock && len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}

	return blocks
}

// Definitions flattens the model blocks of all files.
func Definitions(files []ModelFile) []string {
	var defs []string
	for _, f := range files {
		defs = append(defs, f.Definitions()...)
	}
	return defs
}

// Declarations flattens the non-model blocks of all files. A block repeated
// verbatim in several files is kept once.
func Declarations(files []ModelFile) []string {
	var decls []string
	seen := make(map[string]bool)
	for _, f := range files {
		for _, d := range f.Declarations() {
			if !seen[d] {
				seen[d] = true
				decls = append(decls, d)
			}
		}
	}
	return decls
}
