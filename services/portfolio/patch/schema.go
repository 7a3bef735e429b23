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

// Static schema configuration for the portfolio document. Everything the
// pipeline needs to know about the document shape lives in this file so
// schema evolution touches one place.

// EntityKind identifies the canonical shape of one list-section element.
type EntityKind string

const (
	KindContact    EntityKind = "contact"
	KindExperience EntityKind = "experience"
	KindProject    EntityKind = "project"
	KindSkillGroup EntityKind = "skillGroup"

	// KindPlain marks list sections whose elements have no canonical
	// shape and pass through normalization untouched.
	KindPlain EntityKind = "plain"
)

// allowedRoots is the fixed set of top-level document sections. Any edit
// whose root segment is not listed here rejects the whole batch.
var allowedRoots = map[string]bool{
	"navItems":    true,
	"footer":      true,
	"hero":        true,
	"experience":  true,
	"projects":    true,
	"skillGroups": true,
	"contacts":    true,
	"education":   true,
	"theme":       true,
	"animations":  true,
	"metadata":    true,
	"resumeUrl":   true,
}

// listSections maps list-valued sections to the entity kind of their
// elements. Sections absent from this map are object- or scalar-valued.
var listSections = map[string]EntityKind{
	"contacts":    KindContact,
	"experience":  KindExperience,
	"projects":    KindProject,
	"skillGroups": KindSkillGroup,
	"education":   KindPlain,
	"navItems":    KindPlain,
}

// fieldAliases rewrites deprecated field-name suffixes to canonical ones.
// The projects[i].name → title rename is conditional on the root and
// handled separately in mapAliases.
var fieldAliases = map[string]string{
	".organization": ".company",
	".position":     ".role",
}

// listLeafSuffixes marks leaf fields that must hold lists. String values
// arriving on these paths go through list recovery (strict JSON, then a
// permissive single-quote form, then bracket-substring extraction).
var listLeafSuffixes = []string{
	".highlights",
	".items",
	".tags",
	".bio",
	".outcomes",
	".screenshots",
}

// legacyContactKeys are the shorthand contact-method fields accepted for
// backwards compatibility on contacts[i]. Each expands into the canonical
// {label, value, href, icon} quartet.
var legacyContactKeys = map[string]bool{
	"email":    true,
	"phone":    true,
	"linkedin": true,
	"github":   true,
	"x":        true,
	"twitter":  true,
}

// AllowedRoot reports whether section is a valid top-level document key.
func AllowedRoot(section string) bool {
	return allowedRoots[section]
}

// ListSectionKind returns the entity kind for a list-valued section, or
// ("", false) when the section is not list-valued.
func ListSectionKind(section string) (EntityKind, bool) {
	kind, ok := listSections[section]
	return kind, ok
}
