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
	"reflect"
	"time"
)

// TimestampKey is the dotted storage key that carries the modification
// timestamp. Every compiled mutation includes it.
const TimestampKey = "lastUpdated"

// Options tunes one Compile run.
type Options struct {
	// VerifyExpected enables optimistic-concurrency checking: every edit
	// carrying expectedCurrent is compared against the snapshot, and any
	// mismatch rejects the batch with a *ConflictError before compilation.
	VerifyExpected bool

	// Now supplies the modification timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Compile runs the full pipeline over a patch batch and produces the flat
// mutation map for one atomic store write.
//
// The snapshot is read-only throughout; it informs conflict checks and the
// array-vs-dotted-set decision in the compiler. Every failure mode
// (PathSyntaxError, ValidationError, CoercionError, ConflictError) surfaces
// before the returned map exists, so the store write is all-or-nothing.
func Compile(snapshot map[string]any, updates []Update, opts Options) (map[string]any, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	edits, err := buildEdits(updates)
	if err != nil {
		return nil, err
	}
	if opts.VerifyExpected {
		if err := verifyExpected(snapshot, edits); err != nil {
			return nil, err
		}
	}

	edits = ExpandLegacyContacts(edits)
	edits = PruneRootsWithChildren(edits)
	edits, err = CoerceValues(edits)
	if err != nil {
		return nil, err
	}
	edits = CoalesceItemFields(edits)
	edits = PruneChildrenOfParents(edits)

	return compileMutations(snapshot, edits, now()), nil
}

// verifyExpected compares each edit's expectedCurrent against the snapshot.
// A field absent from the snapshot never conflicts: there is nothing to
// clobber, and callers use placeholder expectations ("not present") for
// fields they are introducing.
func verifyExpected(snapshot map[string]any, edits []Edit) error {
	var conflicts []Conflict
	for _, e := range edits {
		if !e.HasExpected {
			continue
		}
		current, ok := ReadAt(snapshot, e.Tokens)
		if !ok {
			continue
		}
		if !reflect.DeepEqual(current, e.Expected) {
			conflicts = append(conflicts, Conflict{Field: e.Field, CurrentValue: current})
		}
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

// compileMutations turns the surviving edits into the final mutation map.
//
// Whole-array replaces are staged per root so that a later single-index edit
// joins the staged array instead of emitting a second, conflicting key. A
// single-index edit against a root that is not currently a list starts a new
// padded array (empty-object placeholders up to the index). Only when the
// store already holds a real list does a single-index edit fall back to a
// dotted positional set, relying on the store to extend the array when the
// index is out of bounds.
//
// The staging discipline upholds the invariant that no two mutation keys are
// prefixes of one another: earlier pruning has removed every whole-section
// edit that coexists with a finer one, and coalescing has removed every
// item-field edit that coexists with its whole item.
func compileMutations(snapshot map[string]any, edits []Edit, now time.Time) map[string]any {
	mutations := make(map[string]any, len(edits)+1)
	staged := make(map[string][]any)

	for _, e := range edits {
		root := e.Root()
		kind, isList := ListSectionKind(root)
		switch {
		case len(e.Tokens) == 1 && isList:
			if list, ok := e.Value.([]any); ok {
				staged[root] = NormalizeSection(kind, list)
				continue
			}
			mutations[root] = e.Value

		case len(e.Tokens) == 2 && isList && e.Tokens[1].IsIndex:
			index := e.Tokens[1].Index
			item := NormalizeEntity(kind, e.Value)
			if arr, ok := staged[root]; ok {
				arr = padWithPlaceholders(arr, index)
				arr[index] = item
				staged[root] = arr
				continue
			}
			if _, hasList := snapshot[root].([]any); !hasList {
				arr := padWithPlaceholders(nil, index)
				arr[index] = item
				staged[root] = arr
				continue
			}
			mutations[Project(e.Tokens)] = item

		default:
			mutations[Project(e.Tokens)] = e.Value
		}
	}

	for root, arr := range staged {
		mutations[root] = arr
	}
	mutations[TimestampKey] = now.UnixMilli()
	return mutations
}

// padWithPlaceholders grows arr with empty placeholder objects so index is
// addressable.
func padWithPlaceholders(arr []any, index int) []any {
	for len(arr) <= index {
		arr = append(arr, map[string]any{})
	}
	return arr
}
