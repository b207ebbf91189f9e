// Package errors provides error handling for KNOT.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "did you mean #id?")
//
//	// Check errors
//	if errors.Is(err, errors.ErrExpansionDepthExceeded) {
//	    // abort this document only
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is         = crdb.Is
	IsAny      = crdb.IsAny
	As         = crdb.As
	Unwrap     = crdb.Unwrap
	UnwrapOnce = crdb.UnwrapOnce
	UnwrapAll  = crdb.UnwrapAll

	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Common sentinel errors for use across KNOT.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidInput indicates the input was malformed or invalid
	ErrInvalidInput = New("invalid input")

	// ErrUnresolvedReference indicates a #id reference with no matching entity
	ErrUnresolvedReference = New("unresolved reference")

	// ErrInheritanceCycle indicates the inheritance relation is not a DAG
	ErrInheritanceCycle = New("inheritance cycle")

	// ErrArityMismatch indicates a template instantiation with the wrong
	// number of arguments
	ErrArityMismatch = New("template arity mismatch")

	// ErrExpansionDepthExceeded indicates runaway template recursion.
	// This is the only per-document fatal condition.
	ErrExpansionDepthExceeded = New("template expansion depth exceeded")

	// ErrBootstrapMissing indicates no recognizable bootstrap marker at the
	// head of a compressed stream
	ErrBootstrapMissing = New("bootstrap marker missing")

	// ErrChecksumMismatch indicates an embedded integrity directive failed
	ErrChecksumMismatch = New("checksum mismatch")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsFatalExpansionError checks if an error is or wraps ErrExpansionDepthExceeded
func IsFatalExpansionError(err error) bool {
	return err != nil && Is(err, ErrExpansionDepthExceeded)
}

// NewInvalidInputError creates an invalid-input error with a formatted message
func NewInvalidInputError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidInput, Newf(format, args...).Error())
}

// NewUnresolvedReferenceError creates an unresolved-reference error naming the id
func NewUnresolvedReferenceError(id string) error {
	return Wrapf(ErrUnresolvedReference, "#%s", id)
}
