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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/PortfolioLocal/services/portfolio/storage"
)

func newCRUDRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := storage.NewPortfolioStore(db, nil)
	router := gin.New()
	router.POST("/v1/portfolios", CreatePortfolio(store))
	router.GET("/v1/portfolios", ListPortfolios(store))
	router.GET("/v1/portfolios/:userId", GetPortfolio(store))
	router.DELETE("/v1/portfolios/:userId", DeletePortfolio(store))
	router.GET("/v1/portfolio", GetCurrentPortfolio(store))
	router.GET("/v1/portfolio/by-id/:docId", GetPortfolioByID(store))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestPortfolioCRUD(t *testing.T) {
	router := newCRUDRouter(t)

	var docID string

	t.Run("create bootstraps the empty document", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/portfolios", map[string]any{"userId": "user-1"})
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		doc := decodeBody(t, w)
		if doc["userId"] != "user-1" {
			t.Errorf("userId = %v", doc["userId"])
		}
		if _, ok := doc["hero"].(map[string]any); !ok {
			t.Error("hero section missing from bootstrap document")
		}
		docID = doc["id"].(string)
	})

	t.Run("duplicate create conflicts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/portfolios", map[string]any{"userId": "user-1"})
		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", w.Code)
		}
	})

	t.Run("get by user", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/portfolios/user-1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/portfolio/by-id/"+docID, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		doc := decodeBody(t, w)
		if doc["userId"] != "user-1" {
			t.Errorf("userId = %v", doc["userId"])
		}
	})

	t.Run("get as requesting user", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/portfolio?userId=user-1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		w = doJSON(t, router, http.MethodGet, "/v1/portfolio", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status without identity = %d, want 400", w.Code)
		}
	})

	t.Run("list", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/portfolios?limit=10", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		body := decodeBody(t, w)
		portfolios := body["portfolios"].([]any)
		if len(portfolios) != 1 {
			t.Errorf("portfolios length = %d", len(portfolios))
		}
	})

	t.Run("delete then 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, "/v1/portfolios/user-1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("delete status = %d", w.Code)
		}
		w = doJSON(t, router, http.MethodGet, "/v1/portfolios/user-1", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("get after delete status = %d, want 404", w.Code)
		}
	})

	t.Run("invalid create body", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/portfolios", map[string]any{"userId": ""})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("bad limit rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/portfolios?limit=zero", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", HealthCheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
