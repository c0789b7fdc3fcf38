// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package types

// MediaTypeJSON is the media type of generated response bodies.
const MediaTypeJSON = "application/json"

// Responses maps a status code to its response.
type Responses map[string]Response

// Response represents an OpenAPI response.
type Response struct {
	// Description is a brief description of the response
	Description string `json:"description" yaml:"description"`

	// Content maps media types to their schemas
	Content map[string]MediaType `json:"content,omitempty" yaml:"content,omitempty"`
}

// MediaType represents an OpenAPI media type.
type MediaType struct {
	// Schema is the body schema as supplied, passed through verbatim
	Schema any `json:"schema" yaml:"schema"`
}

// JSONResponse returns a response with a single JSON body schema.
func JSONResponse(description string, schema any) Response {
	return Response{
		Description: description,
		Content: map[string]MediaType{
			MediaTypeJSON: {Schema: schema},
		},
	}
}
