// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Schema represents an OpenAPI schema object.
// It follows the JSON Schema Specification with OpenAPI extensions.
type Schema struct {
	// Ref is a reference to another schema ($ref)
	Ref string `json:"$ref,omitempty"`

	// Type is the data type (string, number, integer, boolean, array, object)
	Type string `json:"type,omitempty"`

	// Format is the data format (int32, double, date-time, etc.)
	Format string `json:"format,omitempty"`

	// Title is a short title for the schema
	Title string `json:"title,omitempty"`

	// Description is a detailed description of the schema
	Description string `json:"description,omitempty"`

	// Nullable indicates if the value can be null
	Nullable bool `json:"nullable,omitempty"`

	// Items is the schema for array items
	Items *Schema `json:"items,omitempty"`

	// Properties holds the object properties in declaration order
	Properties Properties `json:"properties,omitempty"`

	// Required is a list of required property names
	Required []string `json:"required,omitempty"`

	// RequiredMarker emits the legacy property-level `required: true` flag.
	// It is never combined with a non-empty Required list.
	RequiredMarker bool `json:"-"`
}

// MarshalJSON encodes the schema, adding the property-level required
// marker when RequiredMarker is set.
func (s Schema) MarshalJSON() ([]byte, error) {
	type alias Schema
	if !s.RequiredMarker || len(s.Required) > 0 {
		return json.Marshal(alias(s))
	}
	return json.Marshal(struct {
		alias
		Required bool `json:"required"`
	}{alias: alias(s), Required: true})
}

// UnmarshalJSON decodes a schema, accepting both the `required: [...]`
// list and the legacy `required: true` marker.
func (s *Schema) UnmarshalJSON(data []byte) error {
	type alias Schema
	var raw struct {
		alias
		Required json.RawMessage `json:"required,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Schema(raw.alias)
	s.Required = nil
	s.RequiredMarker = false

	req := bytes.TrimSpace(raw.Required)
	switch {
	case len(req) == 0 || bytes.Equal(req, []byte("null")):
	case req[0] == '[':
		if err := json.Unmarshal(req, &s.Required); err != nil {
			return fmt.Errorf("invalid required list: %w", err)
		}
	default:
		if err := json.Unmarshal(req, &s.RequiredMarker); err != nil {
			return fmt.Errorf("invalid required marker: %w", err)
		}
	}
	return nil
}

// Property is a single named entry of an object schema.
type Property struct {
	Name   string
	Schema *Schema
}

// Properties is an ordered list of object properties. It encodes as a JSON
// object whose key order follows the slice order.
type Properties []Property

// MarshalJSON encodes the properties as an ordered JSON object.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		if prop.Schema == nil {
			buf.WriteString("{}")
			continue
		}
		value, err := json.Marshal(prop.Schema)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop.Name, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("properties must be an object")
	}

	var props Properties
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected property key %v", tok)
		}
		var schema Schema
		if err := dec.Decode(&schema); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		props = append(props, Property{Name: name, Schema: &schema})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*p = props
	return nil
}
