// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/PortfolioLocal/pkg/extensions"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/handlers"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/middleware"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/revalidate"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/storage"
)

// Deps carries the collaborators the route handlers need.
type Deps struct {
	Store        *storage.PortfolioStore
	Objects      handlers.ResumeStore
	Patcher      handlers.SuggestionPatcher
	Notifier     *revalidate.Notifier
	AuthProvider extensions.AuthProvider
}

// SetupRoutes wires the HTTP surface of the portfolio service.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.AuthProvider))
	{
		v1.PATCH("/portfolio/apply", handlers.ApplyPatch(deps.Store, deps.Notifier))
		v1.POST("/suggestions/generate", handlers.GenerateSuggestions(deps.Patcher, deps.Objects))

		// Portfolio administration routes
		portfolios := v1.Group("/portfolios")
		{
			portfolios.POST("", handlers.CreatePortfolio(deps.Store))
			portfolios.GET("", handlers.ListPortfolios(deps.Store))
			portfolios.GET("/:userId", handlers.GetPortfolio(deps.Store))
			portfolios.DELETE("/:userId", handlers.DeletePortfolio(deps.Store))
		}
		v1.GET("/portfolio", handlers.GetCurrentPortfolio(deps.Store))
		v1.GET("/portfolio/by-id/:docId", handlers.GetPortfolioByID(deps.Store))

		// Resume document routes
		documents := v1.Group("/documents")
		{
			documents.POST("/resume", handlers.UploadResume(deps.Objects, deps.Store))
			documents.GET("/resume", handlers.DownloadResume(deps.Objects))
		}
	}
}
