// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package tree holds the generated project file set before it is written
// to disk and packaged.
package tree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// CollisionPolicy decides what happens when two entries share a path.
type CollisionPolicy string

const (
	// CollisionOverwrite keeps the entry position and replaces its content.
	CollisionOverwrite CollisionPolicy = "overwrite"

	// CollisionReject rejects the second entry.
	CollisionReject CollisionPolicy = "error"
)

// Policies lists the supported collision policies.
var Policies = []CollisionPolicy{CollisionOverwrite, CollisionReject}

// ParsePolicy validates a policy name. An empty name selects CollisionOverwrite.
func ParsePolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case "", CollisionOverwrite:
		return CollisionOverwrite, nil
	case CollisionReject:
		return CollisionReject, nil
	default:
		return "", fmt.Errorf("unknown collision policy %q", s)
	}
}

// ErrInvalidPath is returned for absolute or escaping entry paths.
var ErrInvalidPath = errors.New("invalid entry path")

// Entry is a single generated file.
type Entry struct {
	// Path is the slash-separated path relative to the project root
	Path string

	// Content is the file body
	Content []byte

	// Origin names the input that produced the entry (e.g. "GET /users")
	Origin string
}

// Collision records an overwritten entry.
type Collision struct {
	Path     string `json:"path"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// CollisionError is returned by Add under CollisionReject.
type CollisionError struct {
	Collision Collision
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("output collision on %s: %s and %s", e.Collision.Path, e.Collision.Previous, e.Collision.Current)
}

// Tree is an ordered set of generated files.
type Tree struct {
	policy     CollisionPolicy
	entries    []Entry
	index      map[string]int
	collisions []Collision
}

// New creates an empty tree with the given collision policy.
func New(policy CollisionPolicy) *Tree {
	if policy == "" {
		policy = CollisionOverwrite
	}
	return &Tree{
		policy: policy,
		index:  make(map[string]int),
	}
}

// Add appends an entry, applying the collision policy when the path exists.
func (t *Tree) Add(p string, content []byte, origin string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}

	if i, exists := t.index[clean]; exists {
		c := Collision{Path: clean, Previous: t.entries[i].Origin, Current: origin}
		if t.policy == CollisionReject {
			return &CollisionError{Collision: c}
		}
		t.collisions = append(t.collisions, c)
		t.entries[i].Content = content
		t.entries[i].Origin = origin
		return nil
	}

	t.index[clean] = len(t.entries)
	t.entries = append(t.entries, Entry{Path: clean, Content: content, Origin: origin})
	return nil
}

// Entries returns a copy of the entries in insertion order.
func (t *Tree) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Paths returns the entry paths in insertion order.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		paths = append(paths, e.Path)
	}
	return paths
}

// Get returns the content stored at p.
func (t *Tree) Get(p string) ([]byte, bool) {
	i, ok := t.index[p]
	if !ok {
		return nil, false
	}
	return t.entries[i].Content, true
}

// Len returns the number of entries.
func (t *Tree) Len() int {
	return len(t.entries)
}

// Collisions returns the overwrites recorded so far.
func (t *Tree) Collisions() []Collision {
	out := make([]Collision, len(t.collisions))
	copy(out, t.collisions)
	return out
}

// Policy returns the tree's collision policy.
func (t *Tree) Policy() CollisionPolicy {
	return t.policy
}

// maxWriters bounds concurrent file writes during Materialize.
const maxWriters = 8

// Materialize writes every entry below dir.
func (t *Tree) Materialize(ctx context.Context, dir string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWriters)

	for _, e := range t.entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			target := filepath.Join(dir, filepath.FromSlash(e.Path))
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", e.Path, err)
			}
			if err := os.WriteFile(target, e.Content, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", e.Path, err)
			}
			return nil
		})
	}

	return g.Wait()
}

func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}
