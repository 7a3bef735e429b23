// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the portfolio document shape and the request
// and response types of the portfolio service API.
package datatypes

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Request Size Limits
// =============================================================================

const (
	// MaxUpdatesPerBatch caps one apply request. Larger batches are a sign
	// of a runaway client, not a portfolio edit.
	MaxUpdatesPerBatch = 200

	// MaxFieldPathLength caps a single path string.
	MaxFieldPathLength = 256
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// portfolioValidate is the validator instance for portfolio datatypes.
// Initialized in init() with custom validators.
var portfolioValidate *validator.Validate

func init() {
	portfolioValidate = validator.New()
	_ = portfolioValidate.RegisterValidation("fieldpath", validateFieldPath)
}

// validateFieldPath rejects paths that are empty, oversized, or contain
// characters outside the path grammar. Full syntax checking belongs to the
// patch engine's tokenizer; this validator only blocks obvious garbage
// before it reaches the pipeline.
func validateFieldPath(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" || len(path) > MaxFieldPathLength {
		return false
	}
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '[' || r == ']' || r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

// =============================================================================
// Patch Batch Types
// =============================================================================

// UpdateItem is one field-level edit in an apply request.
type UpdateItem struct {
	// Field is the path string, e.g. "experience[0].role".
	Field string `json:"field" validate:"required,fieldpath"`

	// Value is the new value. May be a string encoding JSON; the patch
	// engine recovers structure best-effort.
	Value any `json:"value"`

	// ExpectedCurrent optionally carries the value the suggestion was
	// generated against, for optimistic-concurrency checking.
	ExpectedCurrent any `json:"expectedCurrent,omitempty"`
}

// ApplyRequest is the body of PATCH /v1/portfolio/apply.
type ApplyRequest struct {
	Updates []UpdateItem `json:"updates" validate:"required,min=1,max=200,dive"`

	// VerifyExpected turns on conflict detection against expectedCurrent.
	VerifyExpected bool `json:"verifyExpected,omitempty"`
}

// Validate checks the request against the validator tags.
func (r *ApplyRequest) Validate() error {
	if err := portfolioValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid apply request: %w", err)
	}
	return nil
}

// ConflictResponse is the 409 body listing every stale field.
type ConflictResponse struct {
	Error     string         `json:"error"`
	Conflicts []FieldCurrent `json:"conflicts"`
}

// FieldCurrent pairs a conflicted field with its stored value.
type FieldCurrent struct {
	Field        string `json:"field"`
	CurrentValue any    `json:"currentValue"`
}

// =============================================================================
// Portfolio CRUD Types
// =============================================================================

// CreateRequest is the body of POST /v1/portfolios. An empty Document
// bootstraps the canonical empty portfolio for the user.
type CreateRequest struct {
	UserID   string         `json:"userId" validate:"required,min=1,max=128"`
	Document map[string]any `json:"document,omitempty"`
}

// Validate checks the request against the validator tags.
func (r *CreateRequest) Validate() error {
	if err := portfolioValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid create request: %w", err)
	}
	return nil
}

// SuggestRequest is the body of POST /v1/suggestions/generate.
type SuggestRequest struct {
	// TargetPath is the portfolio section or field to generate a patch
	// for, e.g. "hero.title" or "experience[0]".
	TargetPath string `json:"targetPath" validate:"required,fieldpath"`

	// Text is inline source text. When empty the handler falls back to an
	// uploaded file, then the stored resume.
	Text string `json:"text,omitempty"`

	// UseExistingResume pulls source text from the user's stored resume.
	UseExistingResume bool `json:"useExistingResume,omitempty"`
}

// Validate checks the request against the validator tags.
func (r *SuggestRequest) Validate() error {
	if err := portfolioValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid suggest request: %w", err)
	}
	return nil
}

// =============================================================================
// Canonical Empty Document
// =============================================================================

// EmptyPortfolio returns the canonical empty document for a new user. Every
// top-level section is present so path-addressed edits always have a root
// to land on.
func EmptyPortfolio(userID string) map[string]any {
	return map[string]any{
		"userId":   userID,
		"navItems": []any{},
		"footer":   map[string]any{"copyright": "", "tagline": ""},
		"hero": map[string]any{
			"name":  "",
			"title": "",
			"bio":   []any{},
			"availability": map[string]any{
				"label":  "",
				"status": "",
			},
		},
		"experience":  []any{},
		"projects":    []any{},
		"skillGroups": []any{},
		"contacts":    []any{},
		"education":   []any{},
		"theme": map[string]any{
			"text_primary":     "",
			"text_secondary":   "",
			"text_muted":       "",
			"bg_primary":       "",
			"bg_surface":       "",
			"bg_surface_hover": "",
			"bg_divider":       "",
			"accent_primary":   "",
			"accent_muted":     "",
		},
		"animations": map[string]any{
			"staggerChildren": 0,
			"delayChildren":   0,
			"duration":        0,
			"ease":            "",
		},
		"metadata": map[string]any{
			"title":       "",
			"description": "",
			"author":      "",
		},
		"resumeUrl": "",
	}
}
