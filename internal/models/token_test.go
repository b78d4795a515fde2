package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshTokenUsable(t *testing.T) {
	expires := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	token := RefreshToken{ExpiresAt: expires}

	assert.True(t, token.Usable(expires.Add(-time.Minute)))
	assert.True(t, token.Usable(expires))
	assert.False(t, token.Usable(expires.Add(time.Second)))

	token.Revoked = true
	assert.False(t, token.Usable(expires.Add(-time.Minute)))
}

func TestRefreshTokenRotated(t *testing.T) {
	next := "rt2"
	assert.False(t, RefreshToken{}.Rotated())
	assert.False(t, RefreshToken{Revoked: true}.Rotated())
	assert.True(t, RefreshToken{Revoked: true, ReplacedBy: &next}.Rotated())
}
