// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package patch

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the patch engine. Typed errors below unwrap to these
// so callers can classify failures with errors.Is without losing detail.
var (
	// ErrInvalidPath is the class of all path tokenization failures.
	ErrInvalidPath = errors.New("invalid field path")

	// ErrInvalidSection is the class of allow-list validation failures.
	ErrInvalidSection = errors.New("field outside the portfolio schema")

	// ErrUnparsableValue is the class of unrecoverable value coercion
	// failures (a list field whose string value is not a readable list).
	ErrUnparsableValue = errors.New("unparsable field value")

	// ErrConflict is the class of expectedCurrent mismatches.
	ErrConflict = errors.New("document changed since suggestions were generated")
)

// PathSyntaxError reports a malformed path string. Raised by Tokenize before
// any transformation runs; the whole batch is rejected.
type PathSyntaxError struct {
	Path   string
	Reason string
}

func (e *PathSyntaxError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

func (e *PathSyntaxError) Unwrap() error { return ErrInvalidPath }

// ValidationError reports root segments outside the section allow-list.
// Validation is exhaustive: Fields names every offending path in the batch,
// not just the first.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("unsupported target section(s): %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSection }

// CoercionError reports a string value that could not be recovered into the
// list shape its path requires.
type CoercionError struct {
	Field string
	Cause error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %q: value is not a readable list: %v", e.Field, e.Cause)
}

func (e *CoercionError) Unwrap() error { return ErrUnparsableValue }

// Conflict is one expectedCurrent mismatch, reported back to the caller with
// the value currently in the document.
type Conflict struct {
	Field        string `json:"field"`
	CurrentValue any    `json:"currentValue"`
}

// ConflictError carries every mismatch found in the batch. The batch is
// rejected before any store access, so the write stays all-or-nothing.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	fields := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		fields[i] = c.Field
	}
	return fmt.Sprintf("stale expectedCurrent for field(s): %s", strings.Join(fields, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
