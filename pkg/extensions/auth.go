// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extensions defines the pluggable provider interfaces of the
// portfolio service. Open source deployments run with the Nop providers;
// hosted deployments substitute real identity providers without touching
// the service code.
package extensions

import (
	"context"
	"crypto/subtle"
	"errors"
)

// ErrUnauthorized is returned when authentication fails. Provider
// implementations should wrap this error with additional context.
var ErrUnauthorized = errors.New("unauthorized")

// AuthInfo contains identity information returned after successful
// authentication.
type AuthInfo struct {
	// UserID is the unique identifier for the authenticated user.
	// This is the only required field and must never be empty.
	UserID string

	// Email is the user's email address. May be empty.
	Email string

	// Roles contains the user's role memberships.
	// Common roles: "admin", "editor", "viewer"
	Roles []string
}

// HasRole checks if the user has a specific role.
func (a *AuthInfo) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthProvider validates authentication tokens and returns user identity.
//
// Implementations must be safe for concurrent use by multiple goroutines.
//
// # Open Source Behavior
//
// The default NopAuthProvider always returns a valid "local-user" with
// admin privileges, so a single-user deployment needs no authentication
// infrastructure. StaticTokenAuthProvider adds a single shared secret for
// deployments exposed beyond localhost.
//
// # Hosted Implementation
//
// Hosted versions implement this interface to validate tokens against
// identity providers like Okta, Auth0, or Firebase Auth.
type AuthProvider interface {
	// Validate checks if the token is valid and returns the user's
	// identity. Returns ErrUnauthorized (or wrapped) if invalid.
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// NopAuthProvider is the default authentication provider for open source.
//
// It always returns a valid local user with admin privileges. Any token,
// including the empty string, authenticates.
//
// Thread-safe: this implementation has no mutable state.
type NopAuthProvider struct{}

// Validate always returns a valid local user with admin privileges.
func (p *NopAuthProvider) Validate(_ context.Context, _ string) (*AuthInfo, error) {
	return &AuthInfo{
		UserID: "local-user",
		Roles:  []string{"admin"},
	}, nil
}

// StaticTokenAuthProvider authenticates against a single shared secret.
//
// Intended for deployments exposed beyond localhost that still have one
// editing user. The comparison is constant time.
type StaticTokenAuthProvider struct {
	// Token is the expected bearer token. Must be non-empty.
	Token string

	// UserID is the identity assigned to authenticated requests.
	// Defaults to "local-user" when empty.
	UserID string
}

// Validate accepts only the configured token.
func (p *StaticTokenAuthProvider) Validate(_ context.Context, token string) (*AuthInfo, error) {
	if p.Token == "" {
		return nil, errors.New("static token provider misconfigured: empty token")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(p.Token)) != 1 {
		return nil, ErrUnauthorized
	}
	userID := p.UserID
	if userID == "" {
		userID = "local-user"
	}
	return &AuthInfo{
		UserID: userID,
		Roles:  []string{"admin"},
	}, nil
}

// Compile-time interface compliance checks.
var (
	_ AuthProvider = (*NopAuthProvider)(nil)
	_ AuthProvider = (*StaticTokenAuthProvider)(nil)
)
