// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP handlers of the portfolio service.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PortfolioLocal/services/portfolio/datatypes"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/storage"
)

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreatePortfolio creates a portfolio for a user. An omitted document
// bootstraps the canonical empty one.
func CreatePortfolio(store *storage.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CreateRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		doc, err := store.Create(c.Request.Context(), req.UserID, req.Document)
		if err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				c.JSON(http.StatusConflict, gin.H{"error": "portfolio already exists"})
				return
			}
			slog.Error("Failed to create portfolio", "user_id", req.UserID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create portfolio"})
			return
		}
		c.JSON(http.StatusCreated, doc)
	}
}

// GetPortfolio returns a user's portfolio document.
func GetPortfolio(store *storage.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		doc, err := store.GetByUserID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "portfolio not found"})
				return
			}
			slog.Error("Failed to load portfolio", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load portfolio"})
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

// GetCurrentPortfolio returns the portfolio of the requesting user, resolved
// from the userId query parameter or the authenticated identity.
func GetCurrentPortfolio(store *storage.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := requestUserID(c)
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no user identity on request"})
			return
		}
		doc, err := store.GetByUserID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "portfolio not found"})
				return
			}
			slog.Error("Failed to load portfolio", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load portfolio"})
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

// GetPortfolioByID resolves a document id to its portfolio.
func GetPortfolioByID(store *storage.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		docID := c.Param("docId")
		doc, err := store.GetByID(c.Request.Context(), docID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "portfolio not found"})
				return
			}
			slog.Error("Failed to load portfolio by id", "doc_id", docID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load portfolio"})
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

// ListPortfolios pages through all portfolios, ordered by userID.
// Query params: limit (default 50), start_after (cursor from the previous
// page).
func ListPortfolios(store *storage.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		page, err := store.List(c.Request.Context(), c.Query("start_after"), limit)
		if err != nil {
			slog.Error("Failed to list portfolios", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list portfolios"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"portfolios":  page.Documents,
			"next_cursor": page.NextCursor,
		})
	}
}

// DeletePortfolio removes a user's portfolio.
func DeletePortfolio(store *storage.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if err := store.Delete(c.Request.Context(), userID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "portfolio not found"})
				return
			}
			slog.Error("Failed to delete portfolio", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete portfolio"})
			return
		}
		slog.Info("Deleted portfolio", "user_id", userID)
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "user_id": userID})
	}
}
