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
	"fmt"
	"strings"
)

// contactFields is a derived canonical contact object in emission order.
type contactFields struct {
	label string
	value string
	href  string
	icon  string
}

// ExpandLegacyContacts rewrites shorthand contact-method edits into canonical
// multi-field edits.
//
// An edit whose path is exactly contacts[i].<key> with key in the legacy set
// (email, phone, linkedin, github, x, twitter) is replaced by up to four
// derived edits at contacts[i].label / .value / .href / .icon. A derived edit
// is suppressed when the same canonical path already appears in the original
// batch: explicit values always win over derived ones.
//
// When several legacy edits target the same (index, key) pair, only the last
// one in input order is used; earlier duplicates are dropped silently.
func ExpandLegacyContacts(edits []Edit) []Edit {
	// Last duplicate wins per (index, key).
	latest := make(map[string]Edit)
	var order []string
	var passthrough []Edit
	explicit := make(map[string]bool)

	for _, e := range edits {
		explicit[Project(e.Tokens)] = true
		if isLegacyContactEdit(e) {
			id := fmt.Sprintf("%d/%s", e.Tokens[1].Index, e.Tokens[2].Key)
			if _, seen := latest[id]; !seen {
				order = append(order, id)
			}
			latest[id] = e
			continue
		}
		passthrough = append(passthrough, e)
	}
	if len(latest) == 0 {
		return edits
	}

	out := passthrough
	for _, id := range order {
		legacy := latest[id]
		index := legacy.Tokens[1].Index
		derived := deriveContactFields(legacy.Tokens[2].Key, fmt.Sprint(legacy.Value))
		for _, f := range []struct {
			name  string
			value string
		}{
			{"label", derived.label},
			{"value", derived.value},
			{"href", derived.href},
			{"icon", derived.icon},
		} {
			tokens := []Token{KeyToken("contacts"), IndexToken(index), KeyToken(f.name)}
			if explicit[Project(tokens)] {
				continue
			}
			out = append(out, Edit{
				Field:  fmt.Sprintf("contacts[%d].%s", index, f.name),
				Tokens: tokens,
				Value:  f.value,
			})
		}
	}
	return out
}

func isLegacyContactEdit(e Edit) bool {
	return len(e.Tokens) == 3 &&
		e.Tokens[0].Key == "contacts" &&
		e.Tokens[1].IsIndex &&
		!e.Tokens[2].IsIndex &&
		legacyContactKeys[e.Tokens[2].Key]
}

// deriveContactFields builds the canonical contact quartet for one legacy
// method. Handles are cleaned of scheme and www prefixes before profile URL
// construction so both bare handles and pasted URLs normalize identically.
func deriveContactFields(key, raw string) contactFields {
	value := strings.TrimSpace(raw)
	switch key {
	case "email":
		return contactFields{label: "Email", value: value, href: "mailto:" + value, icon: "email"}
	case "phone":
		return contactFields{label: "Phone", value: value, href: "tel:" + value, icon: "phone"}
	case "linkedin":
		handle := stripProfilePrefix(value, "linkedin.com/in/")
		return contactFields{
			label: "LinkedIn",
			value: handle,
			href:  "https://www.linkedin.com/in/" + handle,
			icon:  "linkedin",
		}
	case "github":
		handle := stripProfilePrefix(value, "github.com/")
		return contactFields{
			label: "GitHub",
			value: handle,
			href:  "https://github.com/" + handle,
			icon:  "github",
		}
	case "x", "twitter":
		handle := stripProfilePrefix(value, "x.com/")
		handle = stripProfilePrefix(handle, "twitter.com/")
		handle = strings.TrimPrefix(handle, "@")
		return contactFields{
			label: "X",
			value: handle,
			href:  "https://x.com/" + handle,
			icon:  "x",
		}
	}
	// Unreachable while isLegacyContactEdit gates the key set.
	return contactFields{value: value, href: value}
}

// stripProfilePrefix removes http(s)://, www. and the site-specific profile
// prefix, leaving the bare handle.
func stripProfilePrefix(value, sitePrefix string) string {
	v := strings.TrimSpace(value)
	v = strings.TrimPrefix(v, "https://")
	v = strings.TrimPrefix(v, "http://")
	v = strings.TrimPrefix(v, "www.")
	v = strings.TrimPrefix(v, sitePrefix)
	return strings.Trim(v, "/")
}
