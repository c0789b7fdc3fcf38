// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package types provides the data structures shared by the document,
// model and generation packages.
package types

import (
	"encoding/json"
	"strings"
)

// Document is the project document fed to the decomposer: an OpenAPI
// subset made of info, reusable component schemas and paths.
type Document struct {
	// OpenAPI is the OpenAPI specification version (e.g., "3.0.0")
	OpenAPI string `json:"openapi,omitempty" yaml:"openapi,omitempty"`

	// Info provides metadata about the API
	Info Info `json:"info" yaml:"info"`

	// Components holds reusable objects
	Components Components `json:"components" yaml:"components"`

	// Paths maps each path to its operations keyed by lower-case method
	Paths map[string]PathItem `json:"paths" yaml:"paths"`
}

// Info provides metadata about the API.
type Info struct {
	// Title is the title of the API
	Title string `json:"title" yaml:"title"`

	// Summary is a short summary of the API
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Description is a description of the API
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// TermsOfService is a URL to the Terms of Service
	TermsOfService string `json:"termsOfService,omitempty" yaml:"termsOfService,omitempty"`

	// Contact provides contact information
	Contact *Contact `json:"contact,omitempty" yaml:"contact,omitempty"`

	// License provides license information
	License *License `json:"license,omitempty" yaml:"license,omitempty"`

	// Version is the version of the API
	Version string `json:"version" yaml:"version"`
}

// Contact provides contact information.
type Contact struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// License provides license information.
type License struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Components holds reusable objects.
type Components struct {
	// Schemas maps a component name to its definition. Values are either
	// *Schema (mapped from models) or generic decoded JSON.
	Schemas map[string]any `json:"schemas" yaml:"schemas"`
}

// PathItem maps a lower-case HTTP method to its operation. A nil operation
// means the method key was present without a body.
type PathItem map[string]*Operation

// Operation represents an API operation.
type Operation struct {
	Summary     string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	OperationID string `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Parameters  any    `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody any    `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   any    `json:"responses,omitempty" yaml:"responses,omitempty"`
}

// Method is a lower-case HTTP method name as used for OpenAPI path items.
type Method string

const (
	MethodGet     Method = "get"
	MethodPut     Method = "put"
	MethodPost    Method = "post"
	MethodDelete  Method = "delete"
	MethodOptions Method = "options"
	MethodHead    Method = "head"
	MethodPatch   Method = "patch"
	MethodTrace   Method = "trace"
)

// Methods lists the operation methods in OpenAPI path item order.
var Methods = []Method{
	MethodGet, MethodPut, MethodPost, MethodDelete,
	MethodOptions, MethodHead, MethodPatch, MethodTrace,
}

// ParseMethod returns the Method for s, ignoring case.
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// EndpointSpec is the form-level description of one endpoint: a path,
// a method and the raw JSON for its parameters and response schemas.
type EndpointSpec struct {
	Path                string          `json:"path"`
	Method              string          `json:"method"`
	Summary             string          `json:"summary,omitempty"`
	Parameters          json.RawMessage `json:"parameters,omitempty"`
	ResponseSchema      json.RawMessage `json:"responseSchema,omitempty"`
	ErrorResponseSchema json.RawMessage `json:"errorResponseSchema,omitempty"`
}

// EndpointMethods are the methods an EndpointSpec may use.
var EndpointMethods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete}

// NormalizePath returns p with a guaranteed leading slash.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
