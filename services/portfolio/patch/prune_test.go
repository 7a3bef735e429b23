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
	"testing"
)

func fields(edits []Edit) []string {
	out := make([]string, len(edits))
	for i, e := range edits {
		out[i] = Project(e.Tokens)
	}
	return out
}

func TestPruneRootsWithChildren(t *testing.T) {
	t.Run("whole section loses to finer edit", func(t *testing.T) {
		edits := editsFor(t,
			Update{Field: "theme", Value: map[string]any{"accent_primary": "#fff"}},
			Update{Field: "theme.accent_primary", Value: "#000"},
		)
		got := fields(PruneRootsWithChildren(edits))
		want := []string{"theme.accent_primary"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("surviving edits = %v, want %v", got, want)
		}
	})

	t.Run("order independent", func(t *testing.T) {
		edits := editsFor(t,
			Update{Field: "theme.accent_primary", Value: "#000"},
			Update{Field: "theme", Value: map[string]any{}},
		)
		got := fields(PruneRootsWithChildren(edits))
		if !reflect.DeepEqual(got, []string{"theme.accent_primary"}) {
			t.Errorf("surviving edits = %v", got)
		}
	})

	t.Run("unrelated sections untouched", func(t *testing.T) {
		edits := editsFor(t,
			Update{Field: "theme", Value: map[string]any{}},
			Update{Field: "hero.name", Value: "Ada"},
		)
		got := fields(PruneRootsWithChildren(edits))
		want := []string{"theme", "hero.name"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("surviving edits = %v, want %v", got, want)
		}
	})
}

func TestPruneChildrenOfParents(t *testing.T) {
	t.Run("whole item wins regardless of order", func(t *testing.T) {
		for name, batch := range map[string][]Update{
			"item first":  {{Field: "experience[0]", Value: map[string]any{"role": "Eng"}}, {Field: "experience[0].role", Value: "Senior Eng"}},
			"field first": {{Field: "experience[0].role", Value: "Senior Eng"}, {Field: "experience[0]", Value: map[string]any{"role": "Eng"}}},
		} {
			t.Run(name, func(t *testing.T) {
				got := PruneChildrenOfParents(editsFor(t, batch...))
				if len(got) != 1 {
					t.Fatalf("surviving edits = %v, want exactly experience[0]", fields(got))
				}
				if Project(got[0].Tokens) != "experience.0" {
					t.Errorf("survivor = %s, want experience.0", Project(got[0].Tokens))
				}
				item := got[0].Value.(map[string]any)
				if item["role"] != "Eng" {
					t.Errorf("role = %v, want the whole-item value Eng", item["role"])
				}
			})
		}
	})

	t.Run("different index untouched", func(t *testing.T) {
		edits := editsFor(t,
			Update{Field: "experience[0]", Value: map[string]any{}},
			Update{Field: "experience[1].role", Value: "Eng"},
		)
		if got := PruneChildrenOfParents(edits); len(got) != 2 {
			t.Errorf("surviving edits = %v, want both", fields(got))
		}
	})
}

func TestCoalesceItemFields(t *testing.T) {
	t.Run("fields merge into one synthesized item", func(t *testing.T) {
		edits := editsFor(t,
			Update{Field: "projects[2].title", Value: "T"},
			Update{Field: "projects[2].tags", Value: []any{"x", "y"}},
		)
		out := CoalesceItemFields(edits)
		if len(out) != 1 {
			t.Fatalf("got %d edits, want one synthesized projects[2]: %v", len(out), fields(out))
		}
		e := out[0]
		if Project(e.Tokens) != "projects.2" {
			t.Fatalf("synthesized path = %s", Project(e.Tokens))
		}
		if e.HasExpected {
			t.Error("synthesized item must not carry expectedCurrent")
		}
		item := e.Value.(map[string]any)
		if item["title"] != "T" {
			t.Errorf("title = %v", item["title"])
		}
		if !reflect.DeepEqual(item["tags"], []any{"x", "y"}) {
			t.Errorf("tags = %v", item["tags"])
		}
	})

	t.Run("nested paths build nested objects", func(t *testing.T) {
		edits := editsFor(t,
			Update{Field: "projects[0].caseStudy.overview", Value: "o"},
			Update{Field: "projects[0].caseStudy.goal", Value: "g"},
		)
		out := CoalesceItemFields(edits)
		if len(out) != 1 {
			t.Fatalf("got %d edits: %v", len(out), fields(out))
		}
		caseStudy := out[0].Value.(map[string]any)["caseStudy"].(map[string]any)
		if caseStudy["overview"] != "o" || caseStudy["goal"] != "g" {
			t.Errorf("caseStudy = %v", caseStudy)
		}
	})

	t.Run("parent marker leaves field edits for the pruner", func(t *testing.T) {
		edits := editsFor(t,
			Update{Field: "projects[1]", Value: map[string]any{"title": "whole"}},
			Update{Field: "projects[1].title", Value: "field"},
		)
		out := CoalesceItemFields(edits)
		got := fields(out)
		want := []string{"projects.1", "projects.1.title"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("edits after coalescing = %v, want %v", got, want)
		}
	})

	t.Run("non-list sections pass through", func(t *testing.T) {
		edits := editsFor(t, Update{Field: "hero.availability.status", Value: "open"})
		out := CoalesceItemFields(edits)
		if len(out) != 1 || Project(out[0].Tokens) != "hero.availability.status" {
			t.Errorf("edits = %v", fields(out))
		}
	})
}
