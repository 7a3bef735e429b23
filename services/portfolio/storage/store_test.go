// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *PortfolioStore {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPortfolioStore(db, nil)
}

// TestCreateAndGet verifies the create/read round trip and the empty
// bootstrap document.
func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Create(ctx, "user-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "user-1", doc["userId"])
	assert.NotEmpty(t, doc["id"])
	assert.Contains(t, doc, "hero")
	assert.Contains(t, doc, "experience")

	got, err := store.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, doc["id"], got["id"])
}

// TestCreateRejectsDuplicate verifies one portfolio per user.
func TestCreateRejectsDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "user-1", nil)
	require.NoError(t, err)

	_, err = store.Create(ctx, "user-1", nil)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

// TestGetByID verifies the id index resolves back to the document.
func TestGetByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Create(ctx, "user-1", nil)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, doc["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "user-1", got["userId"])

	_, err = store.GetByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestGetMissing verifies the not-found sentinel.
func TestGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetByUserID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestDelete verifies both the document and its id index entry go away.
func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Create(ctx, "user-1", nil)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "user-1"))

	_, err = store.GetByUserID(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetByID(ctx, doc["id"].(string))
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestApplyFields verifies flat field mutations against nested paths.
func TestApplyFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "user-1", nil)
	require.NoError(t, err)

	t.Run("nested scalar set", func(t *testing.T) {
		doc, err := store.ApplyFields(ctx, "user-1", map[string]any{
			"hero.name":   "Ada",
			"lastUpdated": int64(1700000000000),
		})
		require.NoError(t, err)
		hero := doc["hero"].(map[string]any)
		assert.Equal(t, "Ada", hero["name"])
	})

	t.Run("positional set grows the list with placeholders", func(t *testing.T) {
		doc, err := store.ApplyFields(ctx, "user-1", map[string]any{
			"experience.2.role": "Engineer",
		})
		require.NoError(t, err)
		list := doc["experience"].([]any)
		require.Len(t, list, 3)
		assert.Equal(t, map[string]any{}, list[0])
		assert.Equal(t, "Engineer", list[2].(map[string]any)["role"])
	})

	t.Run("whole array replace", func(t *testing.T) {
		doc, err := store.ApplyFields(ctx, "user-1", map[string]any{
			"projects": []any{map[string]any{"title": "P"}},
		})
		require.NoError(t, err)
		list := doc["projects"].([]any)
		require.Len(t, list, 1)
	})

	t.Run("scalar in the path is replaced not descended", func(t *testing.T) {
		_, err := store.ApplyFields(ctx, "user-1", map[string]any{
			"resumeUrl": "https://example.com/r.pdf",
		})
		require.NoError(t, err)
		doc, err := store.ApplyFields(ctx, "user-1", map[string]any{
			"resumeUrl.nested": "x",
		})
		require.NoError(t, err)
		nested := doc["resumeUrl"].(map[string]any)
		assert.Equal(t, "x", nested["nested"])
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := store.ApplyFields(ctx, "ghost", map[string]any{"hero.name": "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("mutations persist", func(t *testing.T) {
		doc, err := store.GetByUserID(ctx, "user-1")
		require.NoError(t, err)
		hero := doc["hero"].(map[string]any)
		assert.Equal(t, "Ada", hero["name"])
	})
}

// TestGetByUserID_ReadRepair verifies legacy-shaped entities are normalized
// on read and the repair persists.
func TestGetByUserID_ReadRepair(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	legacy := map[string]any{
		"userId": "user-1",
		"experience": []any{
			map[string]any{"duration": "2020-2023", "role": "Eng", "responsibilities": []any{"x"}},
		},
	}
	_, err := store.Create(ctx, "user-1", legacy)
	require.NoError(t, err)

	doc, err := store.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	entry := doc["experience"].([]any)[0].(map[string]any)
	assert.Equal(t, "2020-2023", entry["date"])
	assert.Equal(t, []any{"x"}, entry["highlights"])
	assert.Equal(t, false, entry["current"])

	// Second read serves the already-canonical copy.
	doc2, err := store.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	entry2 := doc2["experience"].([]any)[0].(map[string]any)
	assert.Equal(t, entry, entry2)
}

// TestGetByUserID_CanonicalUnchanged verifies read repair is a no-op on a
// canonical document: a populated case study must round-trip byte for byte.
func TestGetByUserID_CanonicalUnchanged(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project := map[string]any{
		"title":       "Tidepool",
		"tags":        []any{"go"},
		"description": "Feature flags.",
		"link":        "/projects/tidepool",
		"caseStudy": map[string]any{
			"overview": "An overview",
			"goal":     "Ship it",
			"role": map[string]any{
				"title":   "Creator",
				"bullets": []any{"led design"},
			},
			"screenshots": []any{},
			"outcomes":    []any{"adopted"},
		},
	}
	canonical := map[string]any{
		"userId":   "user-1",
		"projects": []any{project},
	}
	_, err := store.Create(ctx, "user-1", canonical)
	require.NoError(t, err)

	doc, err := store.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []any{project}, doc["projects"])

	doc2, err := store.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []any{project}, doc2["projects"])
}

// TestList verifies pagination ordering and cursors.
func TestList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Create(ctx, fmt.Sprintf("user-%d", i), nil)
		require.NoError(t, err)
	}

	page, err := store.List(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, page.Documents, 3)
	assert.Equal(t, "user-0", page.Documents[0]["userId"])
	assert.Equal(t, "user-2", page.NextCursor)

	page2, err := store.List(ctx, page.NextCursor, 3)
	require.NoError(t, err)
	require.Len(t, page2.Documents, 2)
	assert.Equal(t, "user-3", page2.Documents[0]["userId"])
	assert.Empty(t, page2.NextCursor)
}
