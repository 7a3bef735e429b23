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
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []Token
	}{
		{
			name: "keys and index",
			path: "a.b[0].c",
			want: []Token{KeyToken("a"), KeyToken("b"), IndexToken(0), KeyToken("c")},
		},
		{
			name: "single key",
			path: "hero",
			want: []Token{KeyToken("hero")},
		},
		{
			name: "index directly after index",
			path: "projects[2][0]",
			want: []Token{KeyToken("projects"), IndexToken(2), IndexToken(0)},
		},
		{
			name: "trailing key after bracket",
			path: "experience[10].role",
			want: []Token{KeyToken("experience"), IndexToken(10), KeyToken("role")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.path)
			if err != nil {
				t.Fatalf("Tokenize(%q) failed: %v", tt.path, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"non-digit index", "a[x]"},
		{"unmatched bracket", "a[0"},
		{"negative index", "a[-1]"},
		{"signed index", "a[+1]"},
		{"empty index", "a[]"},
		{"empty path", ""},
		{"dots only", "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.path)
			if err == nil {
				t.Fatalf("Tokenize(%q) succeeded, want error", tt.path)
			}
			if !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Tokenize(%q) error = %v, want ErrInvalidPath class", tt.path, err)
			}
			var syntaxErr *PathSyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Errorf("Tokenize(%q) error is not a *PathSyntaxError: %v", tt.path, err)
			}
		})
	}
}

func TestProject_RoundTrip(t *testing.T) {
	// project(tokenize(p)) must equal p with brackets turned into dot
	// segments around the index.
	tests := []struct {
		path string
		want string
	}{
		{"a[0].b", "a.0.b"},
		{"contacts[2]", "contacts.2"},
		{"hero.name", "hero.name"},
		{"projects[1].caseStudy.role.title", "projects.1.caseStudy.role.title"},
	}
	for _, tt := range tests {
		tokens, err := Tokenize(tt.path)
		if err != nil {
			t.Fatalf("Tokenize(%q) failed: %v", tt.path, err)
		}
		if got := Project(tokens); got != tt.want {
			t.Errorf("Project(Tokenize(%q)) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestReadAt(t *testing.T) {
	snapshot := map[string]any{
		"hero": map[string]any{"name": "Ada"},
		"experience": []any{
			map[string]any{"role": "Engineer"},
		},
	}

	t.Run("nested key", func(t *testing.T) {
		v, ok := ReadAt(snapshot, mustTokenize(t, "hero.name"))
		if !ok || v != "Ada" {
			t.Errorf("ReadAt(hero.name) = %v, %v; want Ada, true", v, ok)
		}
	})

	t.Run("list element field", func(t *testing.T) {
		v, ok := ReadAt(snapshot, mustTokenize(t, "experience[0].role"))
		if !ok || v != "Engineer" {
			t.Errorf("ReadAt(experience[0].role) = %v, %v; want Engineer, true", v, ok)
		}
	})

	t.Run("index out of bounds is absent", func(t *testing.T) {
		if _, ok := ReadAt(snapshot, mustTokenize(t, "experience[5].role")); ok {
			t.Error("out-of-bounds read reported present")
		}
	})

	t.Run("index into a map is absent", func(t *testing.T) {
		if _, ok := ReadAt(snapshot, mustTokenize(t, "hero[0]")); ok {
			t.Error("index into an object reported present")
		}
	})

	t.Run("missing key is absent", func(t *testing.T) {
		if _, ok := ReadAt(snapshot, mustTokenize(t, "hero.title")); ok {
			t.Error("missing key reported present")
		}
	})
}

func mustTokenize(t *testing.T, path string) []Token {
	t.Helper()
	tokens, err := Tokenize(path)
	if err != nil {
		t.Fatalf("Tokenize(%q) failed: %v", path, err)
	}
	return tokens
}
