// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package suggest turns free-form source text (a resume, a pasted bio) into
// patch batches for the portfolio document, using an LLM as a strict
// extractor constrained by the section's canonical shape.
package suggest

import (
	"encoding/json"
	"fmt"

	"github.com/AleutianAI/PortfolioLocal/services/portfolio/patch"
)

// sectionShapes holds the canonical example shape for each patchable root.
// The extractor prompt embeds the shape so the model emits fields that the
// patch pipeline recognizes.
var sectionShapes = map[string]any{
	"hero": map[string]any{
		"name":  "Jane Doe",
		"title": "Backend Engineer",
		"bio":   []any{"First paragraph.", "Second paragraph."},
		"availability": map[string]any{
			"label":  "Open to work",
			"status": "available",
		},
	},
	"experience": []any{map[string]any{
		"date":        "2020 - 2023",
		"role":        "Senior Engineer",
		"company":     "Acme Corp",
		"description": "Team and scope in one sentence.",
		"highlights":  []any{"Shipped X", "Led Y"},
		"current":     false,
	}},
	"projects": []any{map[string]any{
		"title":       "Project Name",
		"tags":        []any{"go", "grpc"},
		"description": "One-sentence summary.",
		"link":        "https://example.com",
	}},
	"skillGroups": []any{map[string]any{
		"title": "Backend",
		"items": []any{"Go", "PostgreSQL"},
	}},
	"contacts": []any{map[string]any{
		"label": "Email",
		"value": "jane@example.com",
		"href":  "mailto:jane@example.com",
		"icon":  "email",
	}},
	"education": []any{map[string]any{
		"school": "State University",
		"degree": "B.S. Computer Science",
		"date":   "2016 - 2020",
	}},
	"footer": map[string]any{
		"copyright": "© 2025 Jane Doe",
		"tagline":   "Built with care.",
	},
	"metadata": map[string]any{
		"title":       "Jane Doe — Portfolio",
		"description": "Personal portfolio site.",
		"author":      "Jane Doe",
	},
	"navItems":  []any{map[string]any{"label": "Projects", "href": "#projects"}},
	"resumeUrl": "https://example.com/resume.pdf",
}

// SchemaFor returns the example shape for a target path, rendered as JSON
// for embedding in the extractor prompt.
//
// The path is validated against the patch grammar first; indexes descend
// into the section's element shape, keys into object fields. A path that
// runs past the known shape falls back to the deepest shape reached.
func SchemaFor(targetPath string) (string, error) {
	tokens, err := patch.Tokenize(targetPath)
	if err != nil {
		return "", err
	}
	root := tokens[0]
	if root.IsIndex || !patch.AllowedRoot(root.Key) {
		return "", fmt.Errorf("%w: %s", patch.ErrInvalidSection, targetPath)
	}

	shape, ok := sectionShapes[root.Key]
	if !ok {
		shape = map[string]any{}
	}
	for _, tok := range tokens[1:] {
		next, found := descend(shape, tok)
		if !found {
			break
		}
		shape = next
	}

	blob, err := json.MarshalIndent(shape, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode schema for %s: %w", targetPath, err)
	}
	return string(blob), nil
}

func descend(shape any, tok patch.Token) (any, bool) {
	if tok.IsIndex {
		list, ok := shape.([]any)
		if !ok || len(list) == 0 {
			return nil, false
		}
		// Every element shares the element shape.
		return list[0], true
	}
	obj, ok := shape.(map[string]any)
	if !ok {
		return nil, false
	}
	next, found := obj[tok.Key]
	return next, found
}

// TargetIsList reports whether the target path addresses a whole list
// section, which tells the patcher to wrap a lone extracted object.
func TargetIsList(targetPath string) bool {
	tokens, err := patch.Tokenize(targetPath)
	if err != nil || len(tokens) != 1 || tokens[0].IsIndex {
		return false
	}
	_, isList := patch.ListSectionKind(tokens[0].Key)
	return isList
}
