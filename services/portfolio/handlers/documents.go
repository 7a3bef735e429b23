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
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PortfolioLocal/services/portfolio/patch"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/storage"
)

// maxResumeBytes caps resume uploads at 10 MiB.
const maxResumeBytes = 10 << 20

// ResumeStore is the object-store slice the resume handlers use.
// Implemented by storage.ObjectStore.
type ResumeStore interface {
	PutResume(ctx context.Context, userID string, r io.Reader, contentType string) (string, error)
	GetResume(ctx context.Context, userID string) ([]byte, error)
	DeleteResume(ctx context.Context, userID string) error
}

// UploadResume stores the user's resume and records its URL on the
// portfolio document.
//
// Expects a multipart form with a "file" field. The stored object's public
// URL lands on the document's resumeUrl field through the regular mutation
// path, so the timestamp updates too.
func UploadResume(objects ResumeStore, store *storage.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if objects == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "resume storage not configured"})
			return
		}
		userID := requestUserID(c)
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no user identity on request"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
			return
		}
		if fileHeader.Size > maxResumeBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "resume exceeds size limit"})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable upload"})
			return
		}
		defer f.Close()

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/pdf"
		}

		url, err := objects.PutResume(c.Request.Context(), userID, f, contentType)
		if err != nil {
			slog.Error("Failed to store resume", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store resume"})
			return
		}

		doc, err := store.ApplyFields(c.Request.Context(), userID, map[string]any{
			"resumeUrl":        url,
			patch.TimestampKey: time.Now().UnixMilli(),
		})
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "portfolio not found"})
				return
			}
			slog.Error("Failed to record resume URL", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record resume URL"})
			return
		}

		slog.Info("Stored resume", "user_id", userID, "bytes", fileHeader.Size)
		c.JSON(http.StatusOK, gin.H{"resumeUrl": url, "portfolio": doc})
	}
}

// DownloadResume streams the user's stored resume back.
func DownloadResume(objects ResumeStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if objects == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "resume storage not configured"})
			return
		}
		userID := requestUserID(c)
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no user identity on request"})
			return
		}

		data, err := objects.GetResume(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "resume not found"})
				return
			}
			slog.Error("Failed to fetch resume", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch resume"})
			return
		}
		c.Data(http.StatusOK, "application/pdf", data)
	}
}
