// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package revalidate pings the public site's cache-revalidation hook after a
// portfolio changes. The ping is best effort: a stale page is tolerable, a
// failed patch is not, so notifier errors never propagate to the caller.
package revalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const defaultTimeout = 5 * time.Second

// Notifier posts revalidation requests to the frontend.
type Notifier struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *slog.Logger
}

// NewNotifier creates a notifier for the given endpoint. An empty endpoint
// disables notification; Notify becomes a no-op.
func NewNotifier(endpoint, token string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   logger,
	}
}

// Notify tells the frontend to revalidate the user's pages. Failures are
// logged and swallowed.
func (n *Notifier) Notify(ctx context.Context, userID string) {
	if n.endpoint == "" {
		return
	}

	body, err := json.Marshal(map[string]string{"userId": userID})
	if err != nil {
		n.logger.Warn("revalidate payload encode failed", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("revalidate request build failed", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("x-revalidate-token", n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("revalidate request failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("revalidate request rejected",
			slog.String("user_id", userID),
			slog.String("status", fmt.Sprintf("%d", resp.StatusCode)))
		return
	}
	n.logger.Debug("revalidate notified", slog.String("user_id", userID))
}
