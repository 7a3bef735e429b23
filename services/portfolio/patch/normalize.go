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
	"strings"
	"unicode"
)

// defaultProjectRoleTitle fills caseStudy.role.title when the source text
// never named the author's role on the project.
const defaultProjectRoleTitle = "Full-Stack Engineer"

// NormalizeEntity fills the canonical shape and defaults for one list-section
// element. Values that are not objects pass through untouched, as do elements
// of sections without a canonical shape (education, navItems).
//
// A single-element list containing one object is unwrapped to the object
// first; AI extractors frequently wrap a lone item that way.
func NormalizeEntity(kind EntityKind, value any) any {
	value = unwrapSingleton(value)
	entry, ok := value.(map[string]any)
	if !ok {
		return value
	}
	switch kind {
	case KindContact:
		return normalizeContact(entry)
	case KindExperience:
		return normalizeExperience(entry)
	case KindProject:
		return normalizeProject(entry)
	case KindSkillGroup:
		return normalizeSkillGroup(entry)
	}
	return entry
}

// NormalizeSection normalizes every element of a whole-section list value.
func NormalizeSection(kind EntityKind, list []any) []any {
	out := make([]any, len(list))
	for i, item := range list {
		out[i] = NormalizeEntity(kind, item)
	}
	return out
}

// NormalizeDocumentSections sweeps a full document and returns the flat
// updates needed to bring every entity-bearing list section into canonical
// shape. An empty map means the document is already canonical. Used by the
// store's read-repair path when a stored document predates a schema change.
func NormalizeDocumentSections(doc map[string]any) map[string]any {
	updates := make(map[string]any)
	for section, kind := range listSections {
		if kind == KindPlain {
			continue
		}
		list, ok := doc[section].([]any)
		if !ok {
			continue
		}
		normalized := NormalizeSection(kind, list)
		if !reflect.DeepEqual(list, normalized) {
			updates[section] = normalized
		}
	}
	return updates
}

func unwrapSingleton(value any) any {
	if list, ok := value.([]any); ok && len(list) == 1 {
		if _, isObj := list[0].(map[string]any); isObj {
			return list[0]
		}
	}
	return value
}

func normalizeContact(entry map[string]any) map[string]any {
	label := stringField(entry, "label")
	value := stringField(entry, "value")
	href := stringField(entry, "href")
	if label == "" {
		if method := stringField(entry, "method"); method != "" {
			label = titleCase(strings.TrimSpace(method))
		}
	}
	if href == "" && value != "" {
		switch strings.ToLower(label) {
		case "email":
			href = "mailto:" + value
		case "phone":
			href = "tel:" + value
		default:
			href = value
		}
	}
	return map[string]any{
		"label": label,
		"value": value,
		"href":  href,
		"icon":  entry["icon"],
	}
}

func normalizeExperience(entry map[string]any) map[string]any {
	current := entry["current"]
	if current == nil {
		current = false
	}
	return map[string]any{
		"date":        firstString(entry, "date", "duration"),
		"role":        stringField(entry, "role"),
		"company":     stringField(entry, "company"),
		"link":        entry["link"],
		"description": firstNonNil(entry, "description", "location"),
		"highlights":  firstList(entry, "highlights", "responsibilities"),
		"current":     current,
	}
}

// normalizeProject fills the canonical project shape. Case-study fields may
// arrive nested under caseStudy (canonical documents, coalesced item edits)
// or as top-level synonyms (extractor output); nested values win, so an
// already-canonical entry normalizes to itself.
func normalizeProject(entry map[string]any) map[string]any {
	caseStudy, _ := entry["caseStudy"].(map[string]any)

	title := stringField(entry, "title")
	link := firstString(entry, "link", "url")
	if link == "" && title != "" {
		link = "/projects/" + slugify(title)
	}

	var roleTitle string
	bullets := []any{}
	switch role := caseStudy["role"].(type) {
	case map[string]any:
		roleTitle = stringField(role, "title")
		bullets = firstList(role, "bullets")
	case string:
		roleTitle = role
	}
	if roleTitle == "" {
		roleTitle = stringField(entry, "role")
	}
	if roleTitle == "" {
		roleTitle = defaultProjectRoleTitle
	}

	return map[string]any{
		"title":       title,
		"tags":        firstList(entry, "tags", "technologies"),
		"description": stringField(entry, "description"),
		"link":        link,
		"caseStudy": map[string]any{
			"overview": caseStudyString(caseStudy, entry, "overview"),
			"goal":     caseStudyString(caseStudy, entry, "goal"),
			"role": map[string]any{
				"title":   roleTitle,
				"bullets": bullets,
			},
			"screenshots": caseStudyList(caseStudy, entry, "screenshots"),
			"outcomes":    caseStudyList(caseStudy, entry, "outcomes", "achievements"),
		},
	}
}

// caseStudyString reads a case-study string field, preferring the nested
// caseStudy object over the top-level synonym.
func caseStudyString(caseStudy, entry map[string]any, key string) string {
	if s := stringField(caseStudy, key); s != "" {
		return s
	}
	return stringField(entry, key)
}

// caseStudyList reads a case-study list field, preferring the nested
// caseStudy object over the top-level synonyms.
func caseStudyList(caseStudy, entry map[string]any, keys ...string) []any {
	if list := firstList(caseStudy, keys...); len(list) > 0 {
		return list
	}
	return firstList(entry, keys...)
}

func normalizeSkillGroup(entry map[string]any) map[string]any {
	return map[string]any{
		"title": firstString(entry, "title", "category"),
		"items": firstList(entry, "items", "skills"),
	}
}

// slugify lowercases, replaces non-alphanumerics with hyphens, collapses
// runs, and trims: "My  Cool App!" → "my-cool-app".
func slugify(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func stringField(entry map[string]any, key string) string {
	s, _ := entry[key].(string)
	return s
}

// firstString returns the first key holding a non-empty string.
func firstString(entry map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringField(entry, k); s != "" {
			return s
		}
	}
	return ""
}

// firstNonNil returns the first key holding any non-nil value.
func firstNonNil(entry map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := entry[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstList returns the first key holding a non-empty list, else an empty
// list so the canonical shape always carries the field.
func firstList(entry map[string]any, keys ...string) []any {
	for _, k := range keys {
		if list, ok := entry[k].([]any); ok && len(list) > 0 {
			return list
		}
	}
	return []any{}
}
