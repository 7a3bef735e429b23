// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PortfolioLocal/services/portfolio/datatypes"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/middleware"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/observability"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/patch"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/revalidate"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/storage"
)

// requestUserID resolves the user a request operates on: an explicit userId
// query parameter wins, otherwise the authenticated identity.
func requestUserID(c *gin.Context) string {
	if userID := c.Query("userId"); userID != "" {
		return userID
	}
	if info := middleware.GetAuthInfo(c); info != nil {
		return info.UserID
	}
	return ""
}

// ApplyPatch applies a batch of field-level updates to the user's portfolio.
//
// Description:
//
//	Reads the stored document as the snapshot, compiles the batch through
//	the patch pipeline, applies the resulting flat mutations atomically,
//	and fires a cache revalidation ping in the background. The whole batch
//	is rejected on any invalid path, unknown section, unparsable value, or
//	(when enabled) stale expectedCurrent.
//
// Responses:
//
//	200 - Refreshed document after the batch.
//	400 - Invalid request body, path, section, or value.
//	404 - User has no portfolio.
//	409 - Conflict detection rejected the batch; body lists every conflict.
func ApplyPatch(store *storage.PortfolioStore, notifier *revalidate.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := requestUserID(c)
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no user identity on request"})
			return
		}

		var req datatypes.ApplyRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		start := time.Now()
		doc, err := applyBatch(c.Request.Context(), store, userID, &req)
		elapsed := time.Since(start).Seconds()

		if err != nil {
			respondApplyError(c, userID, err, len(req.Updates), elapsed)
			return
		}

		recordPatch(observability.PatchStatusApplied, len(req.Updates), elapsed)
		slog.Info("Applied portfolio patch",
			"user_id", userID, "updates", len(req.Updates))

		// Fire-and-forget: the response must not wait on the frontend.
		go func() {
			notifier.Notify(context.Background(), userID)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordRevalidation()
			}
		}()

		c.JSON(http.StatusOK, doc)
	}
}

// applyBatch runs snapshot read, pipeline compile, and atomic store.
func applyBatch(ctx context.Context, store *storage.PortfolioStore, userID string, req *datatypes.ApplyRequest) (map[string]any, error) {
	snapshot, err := store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := make([]patch.Update, len(req.Updates))
	for i, u := range req.Updates {
		updates[i] = patch.Update{
			Field:           u.Field,
			Value:           u.Value,
			ExpectedCurrent: u.ExpectedCurrent,
			HasExpected:     u.ExpectedCurrent != nil,
		}
	}

	mutations, err := patch.Compile(snapshot, updates, patch.Options{
		VerifyExpected: req.VerifyExpected,
	})
	if err != nil {
		return nil, err
	}

	return store.ApplyFields(ctx, userID, mutations)
}

// respondApplyError maps pipeline and storage errors onto HTTP statuses.
func respondApplyError(c *gin.Context, userID string, err error, updates int, elapsed float64) {
	var validationErr *patch.ValidationError
	var pathErr *patch.PathSyntaxError
	var coercionErr *patch.CoercionError
	var conflictErr *patch.ConflictError

	switch {
	case errors.As(err, &validationErr):
		recordPatch(observability.PatchStatusValidationError, updates, elapsed)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "invalid portfolio sections",
			"fields": validationErr.Fields,
		})

	case errors.As(err, &pathErr):
		recordPatch(observability.PatchStatusValidationError, updates, elapsed)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid field path",
			"field": pathErr.Path,
		})

	case errors.As(err, &coercionErr):
		recordPatch(observability.PatchStatusCoercionError, updates, elapsed)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unparsable value",
			"field": coercionErr.Field,
		})

	case errors.As(err, &conflictErr):
		recordPatch(observability.PatchStatusConflict, updates, elapsed)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordConflicts(len(conflictErr.Conflicts))
		}
		conflicts := make([]datatypes.FieldCurrent, len(conflictErr.Conflicts))
		for i, conflict := range conflictErr.Conflicts {
			conflicts[i] = datatypes.FieldCurrent{
				Field:        conflict.Field,
				CurrentValue: conflict.CurrentValue,
			}
		}
		c.JSON(http.StatusConflict, datatypes.ConflictResponse{
			Error:     "stale expected values",
			Conflicts: conflicts,
		})

	case errors.Is(err, storage.ErrNotFound):
		recordPatch(observability.PatchStatusError, updates, elapsed)
		c.JSON(http.StatusNotFound, gin.H{"error": "portfolio not found"})

	default:
		recordPatch(observability.PatchStatusError, updates, elapsed)
		slog.Error("Failed to apply portfolio patch", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply patch"})
	}
}

func recordPatch(status observability.PatchStatus, updates int, elapsed float64) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordPatchBatch(status, updates, elapsed)
	}
}
