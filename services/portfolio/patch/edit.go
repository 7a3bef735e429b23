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

// Update is one caller-supplied field edit, pre-tokenization. Value is
// whatever arrived on the wire and may itself be a string encoding JSON.
type Update struct {
	// Field is the path string, e.g. "experience[0].role".
	Field string

	// Value is the new value for the field.
	Value any

	// ExpectedCurrent is what the caller believes the field currently
	// holds. Only consulted when HasExpected is true and conflict
	// verification is enabled.
	ExpectedCurrent any

	// HasExpected distinguishes "expected nil" from "no expectation".
	HasExpected bool
}

// Edit is one in-flight edit moving through the pipeline. Edits are
// constructed per batch by buildEdits and never shared across requests.
type Edit struct {
	// Field is the path string, re-projected after alias rewrites so
	// error messages and logs name canonical fields.
	Field string

	// Tokens is the parsed path. Immutable once parsed except for the
	// alias stage, which replaces the final key token.
	Tokens []Token

	// Value is the edit value at the current pipeline stage.
	Value any

	// Expected / HasExpected carry the caller's expectedCurrent.
	// Synthesized whole-item edits (coalescing) have HasExpected false.
	Expected    any
	HasExpected bool
}

// Root returns the top-level section the edit targets. Tokenize rejects
// paths whose first segment is an index, so Tokens[0] is always a key.
func (e Edit) Root() string {
	return e.Tokens[0].Key
}

// buildEdits tokenizes every update and validates all root segments against
// the section allow-list. Both checks are exhaustive before any other stage
// runs: a single bad path or foreign section rejects the whole batch.
func buildEdits(updates []Update) ([]Edit, error) {
	edits := make([]Edit, 0, len(updates))
	var badRoots []string
	for _, u := range updates {
		tokens, err := Tokenize(u.Field)
		if err != nil {
			return nil, err
		}
		if tokens[0].IsIndex || !AllowedRoot(tokens[0].Key) {
			badRoots = append(badRoots, u.Field)
			continue
		}
		edits = append(edits, Edit{
			Field:       u.Field,
			Tokens:      tokens,
			Value:       u.Value,
			Expected:    u.ExpectedCurrent,
			HasExpected: u.HasExpected,
		})
	}
	if len(badRoots) > 0 {
		return nil, &ValidationError{Fields: badRoots}
	}
	return edits, nil
}
