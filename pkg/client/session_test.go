package client

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenExpiring(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   "u1",
		Username: "ana",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return tok
}

func TestSessionLoadDiscardsExpired(t *testing.T) {
	now := time.Date(2030, 3, 14, 10, 0, 0, 0, time.UTC)
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(tokenExpiring(t, now)))

	s := NewSession(store, func() time.Time { return now })
	assert.ErrorIs(t, s.Load(), ErrNoSession)
	assert.False(t, s.Authenticated())
	stored, _ := store.Load()
	assert.Empty(t, stored)

	require.NoError(t, store.Save("not-a-jwt"))
	assert.ErrorIs(t, s.Load(), ErrNoSession)
}

func TestSessionExpiresInPlace(t *testing.T) {
	now := time.Date(2030, 3, 14, 10, 0, 0, 0, time.UTC)
	clock := now
	s := NewSession(&MemoryTokenStore{}, func() time.Time { return clock })

	tok := tokenExpiring(t, now.Add(time.Hour))
	require.NoError(t, s.Start(tok))
	assert.Equal(t, tok, s.Token())
	c, ok := s.Claims()
	require.True(t, ok)
	assert.Equal(t, "ana", c.Username)

	clock = now.Add(time.Hour)
	assert.Empty(t, s.Token())
	_, ok = s.Claims()
	assert.False(t, ok)
}

func TestFileTokenStore(t *testing.T) {
	now := time.Now()
	fs := FileTokenStore{Path: filepath.Join(t.TempDir(), "legalinmo", "token")}

	s := NewSession(fs, nil)
	assert.ErrorIs(t, s.Load(), ErrNoSession)

	tok := tokenExpiring(t, now.Add(time.Hour))
	require.NoError(t, s.Start(tok))

	restored := NewSession(fs, nil)
	require.NoError(t, restored.Load())
	assert.Equal(t, tok, restored.Token())

	require.NoError(t, restored.Clear())
	assert.ErrorIs(t, NewSession(fs, nil).Load(), ErrNoSession)
	assert.NoError(t, fs.Clear())
}
