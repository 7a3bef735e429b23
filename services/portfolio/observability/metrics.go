// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the portfolio
// service: patch batch counters, pipeline latency histograms, and suggestion
// generation counters. Metrics are exposed via the /metrics endpoint.
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "aleutian"

const portfolioSubsystem = "portfolio"

// PortfolioMetrics holds all Prometheus metrics for portfolio operations.
// Initialize once at startup via InitMetrics().
type PortfolioMetrics struct {
	// PatchBatchesTotal counts patch batches by outcome.
	// Labels: status (applied, validation_error, coercion_error, conflict, error)
	PatchBatchesTotal *prometheus.CounterVec

	// PatchUpdatesTotal counts individual updates inside applied batches.
	PatchUpdatesTotal prometheus.Counter

	// PatchDurationSeconds measures the compile+store time per batch.
	// Labels: status
	PatchDurationSeconds *prometheus.HistogramVec

	// PatchConflictsTotal counts fields rejected by conflict detection.
	PatchConflictsTotal prometheus.Counter

	// SuggestionsTotal counts suggestion generations by outcome.
	// Labels: status (success, no_source, llm_error, error)
	SuggestionsTotal *prometheus.CounterVec

	// SuggestionDurationSeconds measures end-to-end suggestion latency.
	SuggestionDurationSeconds prometheus.Histogram

	// RevalidationsTotal counts cache revalidation pings sent.
	RevalidationsTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance, set by InitMetrics().
var DefaultMetrics *PortfolioMetrics

// InitMetrics creates and registers all Prometheus metrics. Call once at
// application startup; a second call panics on duplicate registration.
func InitMetrics() *PortfolioMetrics {
	DefaultMetrics = &PortfolioMetrics{
		PatchBatchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: portfolioSubsystem,
				Name:      "patch_batches_total",
				Help:      "Total patch batches by outcome",
			},
			[]string{"status"},
		),

		PatchUpdatesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: portfolioSubsystem,
				Name:      "patch_updates_total",
				Help:      "Total individual updates inside applied batches",
			},
		),

		PatchDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: portfolioSubsystem,
				Name:      "patch_duration_seconds",
				Help:      "Patch compile and store duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"status"},
		),

		PatchConflictsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: portfolioSubsystem,
				Name:      "patch_conflicts_total",
				Help:      "Total fields rejected by conflict detection",
			},
		),

		SuggestionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: portfolioSubsystem,
				Name:      "suggestions_total",
				Help:      "Total suggestion generations by outcome",
			},
			[]string{"status"},
		),

		SuggestionDurationSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: portfolioSubsystem,
				Name:      "suggestion_duration_seconds",
				Help:      "End-to-end suggestion generation duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		RevalidationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: portfolioSubsystem,
				Name:      "revalidations_total",
				Help:      "Total cache revalidation pings sent",
			},
		),
	}

	return DefaultMetrics
}

// PatchStatus categorizes a patch batch outcome for metrics labeling.
type PatchStatus string

const (
	PatchStatusApplied         PatchStatus = "applied"
	PatchStatusValidationError PatchStatus = "validation_error"
	PatchStatusCoercionError   PatchStatus = "coercion_error"
	PatchStatusConflict        PatchStatus = "conflict"
	PatchStatusError           PatchStatus = "error"
)

// RecordPatchBatch records one patch batch outcome with its latency.
func (m *PortfolioMetrics) RecordPatchBatch(status PatchStatus, updates int, seconds float64) {
	m.PatchBatchesTotal.WithLabelValues(string(status)).Inc()
	m.PatchDurationSeconds.WithLabelValues(string(status)).Observe(seconds)
	if status == PatchStatusApplied {
		m.PatchUpdatesTotal.Add(float64(updates))
	}
}

// RecordConflicts records fields rejected by conflict detection.
func (m *PortfolioMetrics) RecordConflicts(count int) {
	m.PatchConflictsTotal.Add(float64(count))
}

// RecordSuggestion records one suggestion generation outcome.
func (m *PortfolioMetrics) RecordSuggestion(status string, seconds float64) {
	m.SuggestionsTotal.WithLabelValues(status).Inc()
	m.SuggestionDurationSeconds.Observe(seconds)
}

// RecordRevalidation counts one revalidation ping.
func (m *PortfolioMetrics) RecordRevalidation() {
	m.RevalidationsTotal.Inc()
}
