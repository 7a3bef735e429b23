// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopAuthProvider(t *testing.T) {
	p := &NopAuthProvider{}

	info, err := p.Validate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "local-user", info.UserID)
	assert.True(t, info.HasRole("admin"))

	info, err = p.Validate(context.Background(), "any-token")
	require.NoError(t, err)
	assert.Equal(t, "local-user", info.UserID)
}

func TestStaticTokenAuthProvider(t *testing.T) {
	p := &StaticTokenAuthProvider{Token: "secret", UserID: "owner"}

	t.Run("correct token", func(t *testing.T) {
		info, err := p.Validate(context.Background(), "secret")
		require.NoError(t, err)
		assert.Equal(t, "owner", info.UserID)
		assert.True(t, info.HasRole("admin"))
	})

	t.Run("wrong token", func(t *testing.T) {
		_, err := p.Validate(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("empty token rejected", func(t *testing.T) {
		_, err := p.Validate(context.Background(), "")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("misconfigured provider fails closed", func(t *testing.T) {
		bad := &StaticTokenAuthProvider{}
		_, err := bad.Validate(context.Background(), "anything")
		assert.Error(t, err)
	})

	t.Run("default user id", func(t *testing.T) {
		anon := &StaticTokenAuthProvider{Token: "secret"}
		info, err := anon.Validate(context.Background(), "secret")
		require.NoError(t, err)
		assert.Equal(t, "local-user", info.UserID)
	})
}

func TestAuthInfoHasRole(t *testing.T) {
	info := &AuthInfo{UserID: "u", Roles: []string{"editor"}}
	assert.True(t, info.HasRole("editor"))
	assert.False(t, info.HasRole("admin"))
}
