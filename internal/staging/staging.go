// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package staging allocates request-scoped working directories so that
// concurrent generations never share a filesystem location.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Prefix starts every staging directory name.
const Prefix = "specforge-"

// Dir is an owned staging directory. Release removes it.
type Dir struct {
	// ID uniquely identifies the request that owns the directory
	ID string

	// Path is the absolute directory path
	Path string

	once sync.Once
	err  error
}

// New creates a fresh staging directory below root. An empty root uses the
// system temporary directory.
func New(root string) (*Dir, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging root: %w", err)
	}

	id := uuid.NewString()
	path := filepath.Join(root, Prefix+id)
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve staging directory: %w", err)
	}

	return &Dir{ID: id, Path: abs}, nil
}

// Release removes the directory and everything below it. It is safe to
// call more than once.
func (d *Dir) Release() error {
	d.once.Do(func() {
		if err := os.RemoveAll(d.Path); err != nil {
			d.err = fmt.Errorf("failed to release staging directory %s: %w", d.ID, err)
		}
	})
	return d.err
}
