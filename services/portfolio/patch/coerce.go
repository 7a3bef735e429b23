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
	"encoding/json"
	"errors"
	"strings"
)

// CoerceValues recovers structured values from string-encoded input and
// renames deprecated field suffixes to their canonical forms.
//
// Per edit, in priority order:
//
//  1. A string beginning with '{' or '[' is tentatively parsed as JSON.
//     Failure keeps the original string; this step never raises.
//  2. Deprecated suffixes are renamed (.organization → .company,
//     .position → .role, projects[i].name → .title).
//  3. A string on a path ending in ".current" that reads "true"/"false"
//     case-insensitively becomes a boolean.
//  4. A string replacing a whole list section must parse as a JSON array,
//     retried on the substring between the first '[' and last ']'.
//  5. A string on a list-leaf path (.highlights, .items, .tags, .bio,
//     .outcomes, .screenshots) is parsed as strict JSON, then as a
//     permissive single-quoted literal, then via bracket extraction.
//
// Steps 4 and 5 raise a *CoercionError naming the field when the value is
// unrecoverable; the whole batch is rejected before any store access.
func CoerceValues(edits []Edit) ([]Edit, error) {
	out := make([]Edit, len(edits))
	for i, e := range edits {
		e.Value = maybeParseJSON(e.Value)
		e = mapAliases(e)

		if s, ok := e.Value.(string); ok {
			switch {
			case hasSuffixToken(e, "current"):
				e.Value = coerceBool(s)
			case len(e.Tokens) == 1 && isListSection(e.Root()):
				list, err := parseListValue(s, false)
				if err != nil {
					return nil, &CoercionError{Field: e.Field, Cause: err}
				}
				e.Value = list
			case hasListLeafSuffix(e.Field):
				list, err := parseListValue(s, true)
				if err != nil {
					return nil, &CoercionError{Field: e.Field, Cause: err}
				}
				e.Value = list
			}
		}
		out[i] = e
	}
	return out, nil
}

// mapAliases rewrites the final path segment when it matches a deprecated
// name. The edit's Field is re-projected so downstream errors and mutation
// keys use canonical names only.
func mapAliases(e Edit) Edit {
	last := len(e.Tokens) - 1
	if last < 1 || e.Tokens[last].IsIndex {
		return e
	}
	renamed := ""
	for from, to := range fieldAliases {
		if "."+e.Tokens[last].Key == from {
			renamed = strings.TrimPrefix(to, ".")
			break
		}
	}
	if e.Root() == "projects" && e.Tokens[last].Key == "name" {
		renamed = "title"
	}
	if renamed == "" {
		return e
	}
	tokens := make([]Token, len(e.Tokens))
	copy(tokens, e.Tokens)
	tokens[last] = KeyToken(renamed)
	e.Tokens = tokens
	e.Field = Project(tokens)
	return e
}

// maybeParseJSON attempts to decode a string that looks like embedded JSON.
// Best effort: anything unparsable passes through unchanged.
func maybeParseJSON(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return value
	}
	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return value
	}
	return parsed
}

// coerceBool maps "true"/"false" (any case) to booleans. Anything else is
// left as the original string for the caller to see verbatim.
func coerceBool(s string) any {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// parseListValue recovers a list from a string-encoded value.
//
// Strict JSON first. When permissive is set, a second pass tolerates
// single-quoted literals (the shape LLM output tends to arrive in). The
// final fallback extracts the substring between the first '[' and the last
// ']' and retries both forms.
func parseListValue(s string, permissive bool) ([]any, error) {
	if list, err := decodeList(s, permissive); err == nil {
		return list, nil
	}
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end <= start {
		return nil, errors.New("no list literal found")
	}
	return decodeList(s[start:end+1], permissive)
}

func decodeList(s string, permissive bool) ([]any, error) {
	var list []any
	err := json.Unmarshal([]byte(strings.TrimSpace(s)), &list)
	if err == nil {
		return list, nil
	}
	if permissive {
		relaxed := strings.ReplaceAll(strings.TrimSpace(s), "'", `"`)
		if err2 := json.Unmarshal([]byte(relaxed), &list); err2 == nil {
			return list, nil
		}
	}
	return nil, err
}

func hasSuffixToken(e Edit, key string) bool {
	last := len(e.Tokens) - 1
	return last >= 1 && !e.Tokens[last].IsIndex && e.Tokens[last].Key == key
}

func hasListLeafSuffix(field string) bool {
	for _, suffix := range listLeafSuffixes {
		if strings.HasSuffix(field, suffix) {
			return true
		}
	}
	return false
}

func isListSection(root string) bool {
	_, ok := ListSectionKind(root)
	return ok
}
