package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-length"

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func TestTokenIssuer_ExpiryBoundary(t *testing.T) {
	c := &clock{t: time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)}
	issuer := NewTokenIssuer(testSecret, time.Hour, c.Now)

	token, claims, err := issuer.Generate(Claims{UserID: "u1", Email: "ana@example.com", Role: "client"})
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	c.t = c.t.Add(time.Hour - time.Second)
	got, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "ana@example.com", got.Email)

	c.t = claims.ExpiresAt.Time
	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	c.t = c.t.Add(time.Minute)
	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenIssuer_RejectsForeignTokens(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour, nil)
	other := NewTokenIssuer("another-secret-of-enough-length", time.Hour, nil)

	token, _, err := other.Generate(Claims{UserID: "u1"})
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = issuer.Validate("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenIssuer_RejectsNoneAlgorithm(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour, nil)
	claims := Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{
		ID:        "j1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordHash(t *testing.T) {
	BcryptCost = 4
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, PasswordMatches(hash, "s3cret-pass"))
	assert.False(t, PasswordMatches(hash, "wrong"))
	assert.False(t, NeedsRehash(hash))

	BcryptCost = 5
	assert.True(t, NeedsRehash(hash))
	assert.True(t, NeedsRehash("not-a-hash"))
	BcryptCost = 4
}
