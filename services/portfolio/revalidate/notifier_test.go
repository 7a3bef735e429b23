// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package revalidate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNotify(t *testing.T) {
	t.Run("posts the user with the token header", func(t *testing.T) {
		var gotToken, gotUser string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotToken = r.Header.Get("x-revalidate-token")
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			gotUser = body["userId"]
		}))
		defer srv.Close()

		n := NewNotifier(srv.URL, "secret", nil)
		n.Notify(context.Background(), "user-1")

		if gotToken != "secret" {
			t.Errorf("token header = %q", gotToken)
		}
		if gotUser != "user-1" {
			t.Errorf("userId = %q", gotUser)
		}
	})

	t.Run("server errors are swallowed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		n := NewNotifier(srv.URL, "", nil)
		n.Notify(context.Background(), "user-1") // must not panic or propagate
	})

	t.Run("empty endpoint is a no-op", func(t *testing.T) {
		n := NewNotifier("", "", nil)
		n.Notify(context.Background(), "user-1")
	})

	t.Run("unreachable endpoint is swallowed", func(t *testing.T) {
		n := NewNotifier("http://127.0.0.1:1/revalidate", "", nil)
		n.Notify(context.Background(), "user-1")
	})
}
