// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/specforge/specforge/internal/codegen"
	"github.com/specforge/specforge/internal/openapi"
	"github.com/specforge/specforge/internal/tree"
)

// InputError reports a request rejected before any file was written.
type InputError struct {
	Message string
	Err     error
}

func (e *InputError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// IOError reports a staging or packaging failure. No output is delivered.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err was caused by the request itself.
func IsInputError(err error) bool {
	var inputErr *InputError
	var collisionErr *tree.CollisionError
	return errors.As(err, &inputErr) ||
		errors.As(err, &collisionErr) ||
		errors.Is(err, tree.ErrInvalidPath) ||
		errors.Is(err, openapi.ErrInvalidDocument) ||
		errors.Is(err, codegen.ErrInvalidDescription)
}

func inputErr(message string, err error) error {
	return &InputError{Message: message, Err: err}
}

// ioErr wraps err unless it is a cancellation, which is passed through.
func ioErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &IOError{Op: op, Err: err}
}
