// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package patch implements the portfolio patch-application engine.
//
// A patch batch is a list of field-level updates addressed by path strings
// such as "experience[0].role" or "contacts[2]". The engine merges a batch
// into a point-in-time document snapshot and compiles it down to one flat
// mutation map that the store applies atomically.
//
// The pipeline runs in a fixed order:
//
//	tokenize + validate roots
//	   │
//	   ▼
//	ExpandLegacyContacts      (shorthand contact edits → canonical 4-field edits)
//	   │
//	   ▼
//	PruneRootsWithChildren    (whole-section edit loses to finer edits)
//	   │
//	   ▼
//	CoerceValues              (JSON recovery, aliases, booleans, list parsing)
//	   │
//	   ▼
//	CoalesceItemFields        (item-field edits → one whole-item edit)
//	   │
//	   ▼
//	PruneChildrenOfParents    (whole-item edit wins over item-field edits)
//	   │
//	   ▼
//	compile                   (entity normalization + mutation map assembly)
//
// Each stage is a pure function over the edit slice so stages can be tested
// in isolation. The snapshot is never mutated; it is only consulted for
// "what is already there" decisions.
//
// # Thread Safety
//
// The engine holds no state across calls. All functions are safe for
// concurrent use as long as callers do not share Edit slices.
package patch

import (
	"strconv"
	"strings"
)

// Token is one step in a field path: an object key or a list index.
// The zero value is not meaningful; tokens are produced by Tokenize only.
type Token struct {
	// Key is the object key. Valid only when IsIndex is false.
	Key string

	// Index is the list index, always >= 0. Valid only when IsIndex is true.
	Index int

	// IsIndex distinguishes index tokens from key tokens.
	IsIndex bool
}

// KeyToken returns a key token for s.
func KeyToken(s string) Token {
	return Token{Key: s}
}

// IndexToken returns an index token for i.
func IndexToken(i int) Token {
	return Token{Index: i, IsIndex: true}
}

// String renders the token the way Project does: keys verbatim, indices
// as decimal strings.
func (t Token) String() string {
	if t.IsIndex {
		return strconv.Itoa(t.Index)
	}
	return t.Key
}

// Tokenize parses a path string like "experience[0].role" into tokens.
//
// The scan is left to right: '.' flushes the accumulated bare word into a
// key token (an empty buffer flush is a no-op), '[' flushes the buffer and
// scans to the matching ']' whose enclosed substring must be all digits.
// End of string flushes any remaining buffer as a final key token.
//
// Returns a *PathSyntaxError for an empty path, an unmatched '[', or a
// non-digit index. Tokenize is the only place malformed paths fail; reads
// against a snapshot never raise.
func Tokenize(path string) ([]Token, error) {
	if path == "" {
		return nil, &PathSyntaxError{Path: path, Reason: "path is empty"}
	}
	var tokens []Token
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, KeyToken(buf.String()))
			buf.Reset()
		}
	}
	for i := 0; i < len(path); {
		switch c := path[i]; c {
		case '.':
			flush()
			i++
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end == -1 {
				return nil, &PathSyntaxError{Path: path, Reason: "missing closing bracket"}
			}
			end += i
			// Atoi alone would admit signed forms like "+1".
			raw := path[i+1 : end]
			if raw == "" || strings.Trim(raw, "0123456789") != "" {
				return nil, &PathSyntaxError{Path: path, Reason: "array index must be all digits"}
			}
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return nil, &PathSyntaxError{Path: path, Reason: "array index out of range"}
			}
			tokens = append(tokens, IndexToken(idx))
			i = end + 1
		default:
			buf.WriteByte(c)
			i++
		}
	}
	flush()
	if len(tokens) == 0 {
		return nil, &PathSyntaxError{Path: path, Reason: "path has no segments"}
	}
	return tokens, nil
}

// Project renders tokens as the flat dotted storage key, with index tokens
// as plain decimal segments: [a 0 b] → "a.0.b". This is the key grammar the
// document store understands for positional updates.
func Project(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, ".")
}

// ReadAt walks the snapshot one token at a time and returns the value at the
// path. An index token requires the current node to be a list with the index
// in bounds; a key token requires a map containing the key. Any mismatch
// returns (nil, false) without raising.
func ReadAt(snapshot map[string]any, tokens []Token) (any, bool) {
	var current any = snapshot
	for _, t := range tokens {
		if t.IsIndex {
			list, ok := current.([]any)
			if !ok || t.Index >= len(list) {
				return nil, false
			}
			current = list[t.Index]
			continue
		}
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[t.Key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
