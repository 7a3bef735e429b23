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
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PortfolioLocal/services/portfolio/datatypes"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/observability"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/patch"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/storage"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/suggest"
)

// SuggestionPatcher generates patch batches from source text.
// Implemented by suggest.Patcher; narrowed for testability.
type SuggestionPatcher interface {
	Generate(ctx context.Context, targetPath, sourceText string) ([]datatypes.UpdateItem, error)
}

// ResumeReader fetches the user's stored resume bytes.
// Implemented by storage.ObjectStore.
type ResumeReader interface {
	GetResume(ctx context.Context, userID string) ([]byte, error)
}

// GenerateSuggestions extracts a patch batch for a portfolio section from
// source text.
//
// Description:
//
//	Accepts a JSON body or a multipart form. Source text is resolved by
//	priority: inline text, then an uploaded file (multipart field "file",
//	PDF or plain text), then the stored resume when useExistingResume is
//	set. The response carries update items the client can review and send
//	to the apply endpoint unchanged.
//
// Responses:
//
//	200 - {"updates": [...]} ready for the apply endpoint.
//	400 - Invalid target, no source text, or unusable upload.
//	502 - The model call failed.
func GenerateSuggestions(patcher SuggestionPatcher, resumes ResumeReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if patcher == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "suggestions not configured"})
			return
		}
		req, uploaded, uploadedType, ok := bindSuggestRequest(c)
		if !ok {
			return
		}

		var resume []byte
		if req.UseExistingResume && resumes != nil {
			userID := requestUserID(c)
			data, err := resumes.GetResume(c.Request.Context(), userID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				slog.Error("Failed to fetch stored resume", "user_id", userID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stored resume"})
				return
			}
			resume = data
		}

		sourceText, err := suggest.ResolveSourceText(req.Text, uploaded, uploadedType, resume)
		if err != nil {
			recordSuggestion("no_source", 0)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		start := time.Now()
		updates, err := patcher.Generate(c.Request.Context(), req.TargetPath, sourceText)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			if errors.Is(err, patch.ErrInvalidPath) || errors.Is(err, patch.ErrInvalidSection) {
				recordSuggestion("error", elapsed)
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			recordSuggestion("llm_error", elapsed)
			slog.Error("Suggestion generation failed", "target", req.TargetPath, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Suggestion generation failed"})
			return
		}

		recordSuggestion("success", elapsed)
		slog.Info("Generated portfolio suggestions",
			"target", req.TargetPath, "updates", len(updates))
		c.JSON(http.StatusOK, gin.H{"updates": updates})
	}
}

// bindSuggestRequest reads the request from JSON or a multipart form. The
// bool result is false when a response has already been written.
func bindSuggestRequest(c *gin.Context) (req datatypes.SuggestRequest, uploaded []byte, uploadedType string, ok bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		req.TargetPath = c.PostForm("targetPath")
		req.Text = c.PostForm("text")
		req.UseExistingResume = c.PostForm("useExistingResume") == "true"

		if fileHeader, err := c.FormFile("file"); err == nil {
			f, err := fileHeader.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable upload"})
				return req, nil, "", false
			}
			defer f.Close()
			uploaded, err = io.ReadAll(f)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable upload"})
				return req, nil, "", false
			}
			uploadedType = fileHeader.Header.Get("Content-Type")
		}
	} else if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return req, nil, "", false
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, nil, "", false
	}
	return req, uploaded, uploadedType, true
}

func recordSuggestion(status string, elapsed float64) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordSuggestion(status, elapsed)
	}
}
