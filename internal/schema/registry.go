// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package schema

import (
	"sync"

	"github.com/specforge/specforge/pkg/types"
)

// Registry stores mapped component schemas by name.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*types.Schema
	order   []string
}

// NewRegistry creates a new schema registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*types.Schema),
	}
}

// Add adds a schema to the registry. It reports whether an existing schema
// with the same name was replaced.
func (r *Registry) Add(name string, schema *types.Schema) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced := r.schemas[name]
	if !replaced {
		r.order = append(r.order, name)
	}
	r.schemas[name] = schema
	return replaced
}

// AddComponent adds a mapped component.
func (r *Registry) AddComponent(c types.ComponentSchema) bool {
	return r.Add(c.Name, c.Definition)
}

// Components returns the registered schemas in insertion order.
func (r *Registry) Components() []types.ComponentSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]types.ComponentSchema, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, types.ComponentSchema{Name: name, Definition: r.schemas[name]})
	}
	return result
}
