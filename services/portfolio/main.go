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
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/PortfolioLocal/pkg/extensions"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/observability"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/revalidate"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/routes"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/storage"
	"github.com/AleutianAI/PortfolioLocal/services/portfolio/suggest"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("portfolio-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// openaiAPIKey reads the key from the environment, falling back to the
// container secret mount.
func openaiAPIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	secretPath := "/run/secrets/openai_api_key"
	if data, err := os.ReadFile(secretPath); err == nil {
		slog.Info("Read the OpenAI API Key from Podman Secrets")
		return strings.TrimSpace(string(data))
	}
	return ""
}

func authProvider() extensions.AuthProvider {
	if token := os.Getenv("PORTFOLIO_API_TOKEN"); token != "" {
		return &extensions.StaticTokenAuthProvider{
			Token:  token,
			UserID: os.Getenv("PORTFOLIO_USER_ID"),
		}
	}
	slog.Warn("PORTFOLIO_API_TOKEN not set, accepting all requests as local-user")
	return &extensions.NopAuthProvider{}
}

func main() {
	port := os.Getenv("PORTFOLIO_PORT")
	if port == "" {
		port = "12230"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	// --- Storage ---
	dbPath := os.Getenv("PORTFOLIO_DB_PATH")
	if dbPath == "" {
		dbPath = "/data/portfolio"
	}
	dbCfg := storage.DefaultConfig()
	dbCfg.Path = dbPath
	dbCfg.Logger = logger
	db, err := storage.OpenDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to open portfolio database: %v", err)
	}
	defer db.Close()
	store := storage.NewPortfolioStore(db, logger)

	deps := routes.Deps{
		Store:        store,
		AuthProvider: authProvider(),
		Notifier: revalidate.NewNotifier(
			os.Getenv("REVALIDATE_URL"),
			os.Getenv("REVALIDATE_TOKEN"),
			logger),
	}

	// --- Resume object storage (optional) ---
	if bucket := os.Getenv("RESUME_BUCKET"); bucket != "" {
		objects, err := storage.NewObjectStore(context.Background(), bucket,
			os.Getenv("GCS_SA_KEY_PATH"))
		if err != nil {
			log.Fatalf("Failed to create resume object store: %v", err)
		}
		defer objects.Close()
		deps.Objects = objects
	} else {
		slog.Info("RESUME_BUCKET not set, resume storage disabled")
	}

	// --- Suggestion generation (optional) ---
	if key := openaiAPIKey(); key != "" {
		model := os.Getenv("OPENAI_MODEL")
		deps.Patcher = suggest.NewPatcher(openai.NewClient(key), model, logger)
		slog.Info("Initialized suggestion patcher", "model", model)
	} else {
		slog.Info("OPENAI_API_KEY not set, suggestion generation disabled")
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("portfolio-service"))
	routes.SetupRoutes(router, deps)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Println("Starting the portfolio server on port ", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
	log.Println("Server stopped cleanly")
}
