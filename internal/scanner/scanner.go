// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package scanner discovers model definition files.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Config holds scanner configuration.
type Config struct {
	// BasePath is the base directory for scanning (defaults to current directory)
	BasePath string

	// IncludePatterns are glob patterns for files to include (e.g., "**/*.prisma")
	IncludePatterns []string

	// ExcludePatterns are glob patterns for files to exclude (e.g., "node_modules/**")
	ExcludePatterns []string

	// Extensions filters files by extension (default: .prisma)
	Extensions []string
}

// Scanner discovers model definition files in a project.
type Scanner struct {
	config Config
	base   string
}

// New creates a new Scanner with the given configuration.
func New(config Config) *Scanner {
	if config.BasePath == "" {
		config.BasePath = "."
	}
	if len(config.IncludePatterns) == 0 {
		config.IncludePatterns = []string{"**/*" + DefaultExtension}
	}
	if len(config.Extensions) == 0 {
		config.Extensions = []string{DefaultExtension}
	}

	base, err := filepath.Abs(config.BasePath)
	if err != nil {
		base = config.BasePath
	}

	return &Scanner{
		config: config,
		base:   base,
	}
}

// ScanPath scans a file or directory. A file given explicitly is returned
// when it carries a model file extension, regardless of include patterns.
func (s *Scanner) ScanPath(path string) ([]ModelFile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("path does not exist: %s", absPath)
		}
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	if !info.IsDir() {
		if !s.hasExtension(absPath) {
			return nil, nil
		}
		f, err := s.read(absPath, info)
		if err != nil {
			return nil, err
		}
		return []ModelFile{f}, nil
	}

	var files []ModelFile
	err = filepath.WalkDir(absPath, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip inaccessible paths
			return nil
		}

		if d.IsDir() {
			if s.shouldExcludeDir(s.rel(filePath)) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.shouldIncludeFile(filePath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		f, err := s.read(filePath, info)
		if err != nil {
			// Skip files we can't read
			return nil
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return files, nil
}

// ScanPaths scans multiple paths, dropping duplicates.
func (s *Scanner) ScanPaths(paths []string) ([]ModelFile, error) {
	var allFiles []ModelFile
	seen := make(map[string]bool)

	for _, path := range paths {
		files, err := s.ScanPath(path)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !seen[f.Path] {
				seen[f.Path] = true
				allFiles = append(allFiles, f)
			}
		}
	}

	return allFiles, nil
}

// Matches reports whether path would be picked up by a directory scan.
func (s *Scanner) Matches(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return s.shouldIncludeFile(absPath)
}

// SkipDir reports whether a directory scan would skip dir.
func (s *Scanner) SkipDir(dir string) bool {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	return s.shouldExcludeDir(s.rel(absPath))
}

func (s *Scanner) read(path string, info fs.FileInfo) (ModelFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return ModelFile{}, fmt.Errorf("failed to read file: %w", err)
	}
	return ModelFile{
		Path:    path,
		Rel:     s.rel(path),
		Content: content,
		ModTime: info.ModTime(),
	}, nil
}

// rel returns the slash-separated path relative to the base.
func (s *Scanner) rel(path string) string {
	relPath, err := filepath.Rel(s.base, path)
	if err != nil {
		return filepath.ToSlash(filepath.Base(path))
	}
	return filepath.ToSlash(relPath)
}

func (s *Scanner) hasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.config.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// shouldIncludeFile checks a file against extensions and patterns.
func (s *Scanner) shouldIncludeFile(filePath string) bool {
	if !s.hasExtension(filePath) {
		return false
	}

	relPath := s.rel(filePath)

	// Check exclude patterns first
	if matchesPatterns(relPath, s.config.ExcludePatterns) {
		return false
	}

	return matchesPatterns(relPath, s.config.IncludePatterns)
}

// shouldExcludeDir checks if a directory should be excluded.
func (s *Scanner) shouldExcludeDir(relPath string) bool {
	if relPath == "" || relPath == "." {
		return false
	}

	for _, pattern := range s.config.ExcludePatterns {
		// "node_modules" matches "node_modules/**"
		dirPattern := strings.TrimSuffix(pattern, "/**")
		dirPattern = strings.TrimSuffix(dirPattern, "/*")

		if relPath == dirPattern {
			return true
		}

		// Also check if the pattern would match any file in this directory
		matched, _ := doublestar.Match(pattern, relPath+"/dummy"+DefaultExtension)
		if matched {
			return true
		}
	}

	return false
}

// matchesPatterns checks if a path matches any of the given patterns.
func matchesPatterns(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			// Invalid pattern, skip
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
