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

import "fmt"

// The two pruning rules point in opposite directions and must not share
// logic: root-vs-children keeps the NARROWER edit, parent-vs-child keeps
// the BROADER one.

// PruneRootsWithChildren drops whole-section edits that are superseded by a
// finer edit on the same section in the same batch. A batch holding both
// {field:"theme"} and {field:"theme.accent_primary"} keeps only the latter,
// regardless of input order.
func PruneRootsWithChildren(edits []Edit) []Edit {
	refined := make(map[string]bool)
	for _, e := range edits {
		if len(e.Tokens) > 1 {
			refined[e.Root()] = true
		}
	}
	out := edits[:0]
	for _, e := range edits {
		if len(e.Tokens) == 1 && refined[e.Root()] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// PruneChildrenOfParents drops item-field edits that are superseded by a
// whole-item edit on the same list element. A batch holding both
// {field:"experience[0]"} and {field:"experience[0].role"} keeps only the
// whole-item edit, regardless of input order. Runs after coalescing so
// synthesized whole items do not mask explicit field edits by accident.
func PruneChildrenOfParents(edits []Edit) []Edit {
	parents := make(map[string]bool)
	for _, e := range edits {
		if id, ok := wholeItemID(e); ok {
			parents[id] = true
		}
	}
	out := edits[:0]
	for _, e := range edits {
		if len(e.Tokens) > 2 {
			if id, ok := itemID(e); ok && parents[id] {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// CoalesceItemFields merges multiple item-field edits targeting the same
// list element into one synthesized whole-item edit.
//
// Indices already covered by an explicit whole-item edit are left alone:
// their field edits survive this stage and fall to PruneChildrenOfParents.
// Every other contacts[i].x / experience[i].y.z style edit is folded into a
// per-index accumulator map, building nested structure along the remaining
// path. One whole-item edit per accumulated index is appended, in first-seen
// index order, with no expectedCurrent (the per-field expectations cannot be
// carried onto a synthesized object).
func CoalesceItemFields(edits []Edit) []Edit {
	parents := make(map[string]bool)
	for _, e := range edits {
		if id, ok := wholeItemID(e); ok {
			parents[id] = true
		}
	}

	type bucket struct {
		root  string
		index int
		value map[string]any
	}
	merged := make(map[string]*bucket)
	var order []string

	out := edits[:0]
	for _, e := range edits {
		id, ok := itemID(e)
		if !ok || len(e.Tokens) <= 2 || parents[id] {
			out = append(out, e)
			continue
		}
		b := merged[id]
		if b == nil {
			b = &bucket{root: e.Root(), index: e.Tokens[1].Index, value: make(map[string]any)}
			merged[id] = b
			order = append(order, id)
		}
		setNested(b.value, e.Tokens[2:], e.Value)
	}

	for _, id := range order {
		b := merged[id]
		out = append(out, Edit{
			Field:  fmt.Sprintf("%s[%d]", b.root, b.index),
			Tokens: []Token{KeyToken(b.root), IndexToken(b.index)},
			Value:  b.value,
		})
	}
	return out
}

// wholeItemID identifies an explicit whole-item edit: path exactly R[i] for
// a list section R.
func wholeItemID(e Edit) (string, bool) {
	if len(e.Tokens) != 2 {
		return "", false
	}
	return itemID(e)
}

// itemID returns the (section, index) identity of an edit rooted at a list
// element, or ok=false when the edit is not shaped R[i]...
func itemID(e Edit) (string, bool) {
	if len(e.Tokens) < 2 || !e.Tokens[1].IsIndex {
		return "", false
	}
	if _, ok := ListSectionKind(e.Root()); !ok {
		return "", false
	}
	return fmt.Sprintf("%s[%d]", e.Root(), e.Tokens[1].Index), true
}

// setNested writes value into obj along the token path, creating
// intermediate maps for key tokens and growing lists for index tokens.
// The final segment receives the value, overwriting anything present.
func setNested(obj map[string]any, tokens []Token, value any) {
	var current any = obj
	for i, t := range tokens {
		last := i == len(tokens)-1
		switch node := current.(type) {
		case map[string]any:
			if t.IsIndex {
				// A list index under a map key means the map was built
				// for a key path first; fall back to the decimal key so
				// no leaf value is ever dropped.
				if last {
					node[t.String()] = value
					return
				}
				current = ensureChild(node, t.String(), tokens[i+1])
				continue
			}
			if last {
				node[t.Key] = value
				return
			}
			current = ensureChild(node, t.Key, tokens[i+1])
		case []any:
			// Reached only via ensureChild, which sizes the list.
			if last {
				node[t.Index] = value
				return
			}
			switch node[t.Index].(type) {
			case map[string]any, []any:
			default:
				node[t.Index] = childContainer(tokens[i+1])
			}
			current = node[t.Index]
		}
	}
}

// ensureChild returns node[key], creating a container sized for the next
// token when absent or scalar. Lists are grown in place so the caller's
// reference stays valid.
func ensureChild(node map[string]any, key string, next Token) any {
	child, ok := node[key]
	if next.IsIndex {
		list, isList := child.([]any)
		if !isList {
			list = nil
		}
		for len(list) <= next.Index {
			list = append(list, nil)
		}
		node[key] = list
		return list
	}
	if obj, isMap := child.(map[string]any); ok && isMap {
		return obj
	}
	obj := make(map[string]any)
	node[key] = obj
	return obj
}

func childContainer(next Token) any {
	if next.IsIndex {
		list := make([]any, next.Index+1)
		return list
	}
	return make(map[string]any)
}
