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

func TestNormalizeContact(t *testing.T) {
	t.Run("label from method synonym", func(t *testing.T) {
		got := NormalizeEntity(KindContact, map[string]any{
			"method": "email",
			"value":  "x@y.com",
		}).(map[string]any)
		if got["label"] != "Email" {
			t.Errorf("label = %v, want Email", got["label"])
		}
		if got["href"] != "mailto:x@y.com" {
			t.Errorf("href = %v, want mailto link", got["href"])
		}
	})

	t.Run("phone label derives tel href", func(t *testing.T) {
		got := NormalizeEntity(KindContact, map[string]any{
			"label": "Phone",
			"value": "+15551234",
		}).(map[string]any)
		if got["href"] != "tel:+15551234" {
			t.Errorf("href = %v", got["href"])
		}
	})

	t.Run("other labels use value as href", func(t *testing.T) {
		got := NormalizeEntity(KindContact, map[string]any{
			"label": "Website",
			"value": "https://example.com",
		}).(map[string]any)
		if got["href"] != "https://example.com" {
			t.Errorf("href = %v", got["href"])
		}
	})

	t.Run("explicit href preserved", func(t *testing.T) {
		got := NormalizeEntity(KindContact, map[string]any{
			"label": "Email",
			"value": "x@y.com",
			"href":  "custom",
		}).(map[string]any)
		if got["href"] != "custom" {
			t.Errorf("href = %v, want custom", got["href"])
		}
	})
}

func TestNormalizeExperience(t *testing.T) {
	got := NormalizeEntity(KindExperience, map[string]any{
		"duration":         "2020-2023",
		"role":             "Engineer",
		"company":          "Acme",
		"location":         "Remote",
		"responsibilities": []any{"shipped"},
	}).(map[string]any)

	if got["date"] != "2020-2023" {
		t.Errorf("date = %v, want the duration synonym", got["date"])
	}
	if got["description"] != "Remote" {
		t.Errorf("description = %v, want the location synonym", got["description"])
	}
	if !reflect.DeepEqual(got["highlights"], []any{"shipped"}) {
		t.Errorf("highlights = %v, want responsibilities fallback", got["highlights"])
	}
	if got["current"] != false {
		t.Errorf("current = %v, want default false", got["current"])
	}
}

func TestNormalizeProject(t *testing.T) {
	t.Run("link defaults to title slug", func(t *testing.T) {
		got := NormalizeEntity(KindProject, map[string]any{
			"title": "My  Cool App!",
		}).(map[string]any)
		if got["link"] != "/projects/my-cool-app" {
			t.Errorf("link = %v", got["link"])
		}
	})

	t.Run("synonyms and role placeholder", func(t *testing.T) {
		got := NormalizeEntity(KindProject, map[string]any{
			"title":        "App",
			"technologies": []any{"go"},
			"achievements": []any{"win"},
		}).(map[string]any)
		if !reflect.DeepEqual(got["tags"], []any{"go"}) {
			t.Errorf("tags = %v, want technologies fallback", got["tags"])
		}
		caseStudy := got["caseStudy"].(map[string]any)
		if !reflect.DeepEqual(caseStudy["outcomes"], []any{"win"}) {
			t.Errorf("outcomes = %v, want achievements fallback", caseStudy["outcomes"])
		}
		role := caseStudy["role"].(map[string]any)
		if role["title"] != defaultProjectRoleTitle {
			t.Errorf("role title = %v, want placeholder", role["title"])
		}
	})

	t.Run("nested caseStudy fields preserved", func(t *testing.T) {
		got := NormalizeEntity(KindProject, map[string]any{
			"title": "App",
			"caseStudy": map[string]any{
				"overview": "An overview",
				"goal":     "Ship it",
				"role": map[string]any{
					"title":   "Creator",
					"bullets": []any{"led design"},
				},
				"outcomes": []any{"adopted"},
			},
		}).(map[string]any)
		caseStudy := got["caseStudy"].(map[string]any)
		if caseStudy["overview"] != "An overview" {
			t.Errorf("overview = %v, want nested value kept", caseStudy["overview"])
		}
		if caseStudy["goal"] != "Ship it" {
			t.Errorf("goal = %v", caseStudy["goal"])
		}
		role := caseStudy["role"].(map[string]any)
		if role["title"] != "Creator" {
			t.Errorf("role title = %v, want nested value over placeholder", role["title"])
		}
		if !reflect.DeepEqual(role["bullets"], []any{"led design"}) {
			t.Errorf("bullets = %v, want nested value kept", role["bullets"])
		}
		if !reflect.DeepEqual(caseStudy["outcomes"], []any{"adopted"}) {
			t.Errorf("outcomes = %v", caseStudy["outcomes"])
		}
	})

	t.Run("nested caseStudy wins over top-level synonym", func(t *testing.T) {
		got := NormalizeEntity(KindProject, map[string]any{
			"title":     "App",
			"overview":  "stale top-level",
			"caseStudy": map[string]any{"overview": "nested"},
		}).(map[string]any)
		caseStudy := got["caseStudy"].(map[string]any)
		if caseStudy["overview"] != "nested" {
			t.Errorf("overview = %v, want nested value", caseStudy["overview"])
		}
	})

	t.Run("idempotent on canonical entry", func(t *testing.T) {
		once := NormalizeEntity(KindProject, map[string]any{
			"title":        "Tidepool",
			"tags":         []any{"go"},
			"description":  "Feature flags.",
			"achievements": []any{"win"},
			"role":         "Creator",
		})
		twice := NormalizeEntity(KindProject, once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("re-normalization changed the entry:\nonce  = %#v\ntwice = %#v", once, twice)
		}
	})
}

func TestNormalizeSkillGroup(t *testing.T) {
	got := NormalizeEntity(KindSkillGroup, map[string]any{
		"category": "Backend",
		"skills":   []any{"Go", "Postgres"},
	}).(map[string]any)
	if got["title"] != "Backend" {
		t.Errorf("title = %v, want category fallback", got["title"])
	}
	if !reflect.DeepEqual(got["items"], []any{"Go", "Postgres"}) {
		t.Errorf("items = %v, want skills fallback", got["items"])
	}
}

func TestNormalizeEntity_SingletonUnwrap(t *testing.T) {
	got := NormalizeEntity(KindSkillGroup, []any{
		map[string]any{"title": "Go", "items": []any{"x"}},
	})
	obj, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("value = %#v, want unwrapped object", got)
	}
	if obj["title"] != "Go" {
		t.Errorf("title = %v", obj["title"])
	}
}

func TestNormalizeEntity_PassThrough(t *testing.T) {
	if got := NormalizeEntity(KindPlain, map[string]any{"free": "form"}); !reflect.DeepEqual(got, map[string]any{"free": "form"}) {
		t.Errorf("plain entity changed: %#v", got)
	}
	if got := NormalizeEntity(KindContact, "not an object"); got != "not an object" {
		t.Errorf("non-object changed: %#v", got)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"My Cool App", "my-cool-app"},
		{"  spaced  out  ", "spaced-out"},
		{"Doux: Crypto!", "doux-crypto"},
		{"already-fine", "already-fine"},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
