// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

// seedDocument is the demo portfolio installed by the seed command. It
// exercises every canonical section so a fresh deployment has something to
// render and patch against.
func seedDocument(userID string) map[string]any {
	return map[string]any{
		"userId": userID,
		"navItems": []any{
			map[string]any{"label": "Experience", "href": "#experience"},
			map[string]any{"label": "Projects", "href": "#projects"},
			map[string]any{"label": "Contact", "href": "#contact"},
		},
		"footer": map[string]any{
			"copyright": "© 2025 Jordan Rivers",
			"tagline":   "Built with the portfolio service.",
		},
		"hero": map[string]any{
			"name":  "Jordan Rivers",
			"title": "Full-Stack Engineer",
			"bio": []any{
				"I build resilient backend systems and the interfaces that drive them.",
				"Currently focused on developer tooling and applied AI.",
			},
			"availability": map[string]any{
				"label":  "Open to new projects",
				"status": "available",
			},
		},
		"experience": []any{
			map[string]any{
				"date":        "2022 - Present",
				"role":        "Senior Engineer",
				"company":     "Harborline Systems",
				"link":        nil,
				"description": "Platform team, remote.",
				"highlights": []any{
					"Led migration of the billing pipeline to event sourcing",
					"Cut p99 API latency from 900ms to 120ms",
				},
				"current": true,
			},
			map[string]any{
				"date":        "2019 - 2022",
				"role":        "Backend Engineer",
				"company":     "Driftwood Labs",
				"link":        nil,
				"description": "Data infrastructure team.",
				"highlights": []any{
					"Built the ingestion service handling 2B events/day",
				},
				"current": false,
			},
		},
		"projects": []any{
			map[string]any{
				"title":       "Tidepool",
				"tags":        []any{"go", "grpc", "postgres"},
				"description": "Open source feature-flag service with audit trails.",
				"link":        "/projects/tidepool",
				"caseStudy": map[string]any{
					"overview":    "A feature-flag service for regulated environments.",
					"goal":        "Flag changes with a full audit trail.",
					"role":        map[string]any{"title": "Creator", "bullets": []any{}},
					"screenshots": []any{},
					"outcomes":    []any{"Adopted by three internal teams"},
				},
			},
		},
		"skillGroups": []any{
			map[string]any{"title": "Backend", "items": []any{"Go", "PostgreSQL", "gRPC"}},
			map[string]any{"title": "Infrastructure", "items": []any{"Kubernetes", "Terraform"}},
		},
		"contacts": []any{
			map[string]any{
				"label": "Email",
				"value": "jordan@example.com",
				"href":  "mailto:jordan@example.com",
				"icon":  "email",
			},
			map[string]any{
				"label": "GitHub",
				"value": "jordanrivers",
				"href":  "https://github.com/jordanrivers",
				"icon":  "github",
			},
		},
		"education": []any{
			map[string]any{
				"school": "Pacific State University",
				"degree": "B.S. Computer Science",
				"date":   "2015 - 2019",
			},
		},
		"theme": map[string]any{
			"text_primary":     "#e6edf3",
			"text_secondary":   "#9aa7b3",
			"text_muted":       "#6b7680",
			"bg_primary":       "#0b0f14",
			"bg_surface":       "#111820",
			"bg_surface_hover": "#18212b",
			"bg_divider":       "#1f2a35",
			"accent_primary":   "#4cc38a",
			"accent_muted":     "#2d7a5a",
		},
		"animations": map[string]any{
			"staggerChildren": 0.08,
			"delayChildren":   0.1,
			"duration":        0.45,
			"ease":            "easeOut",
		},
		"metadata": map[string]any{
			"title":       "Jordan Rivers — Portfolio",
			"description": "Full-stack engineer portfolio.",
			"author":      "Jordan Rivers",
		},
		"resumeUrl": "",
	}
}

func runSeedCommand(cmd *cobra.Command, args []string) {
	user := mustUserID()
	doc, err := doRequest(http.MethodPost, "/v1/portfolios", map[string]any{
		"userId":   user,
		"document": seedDocument(user),
	})
	if err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
	logger.Info("Seeded demo portfolio", "user_id", user)
	printJSON(doc)
}
