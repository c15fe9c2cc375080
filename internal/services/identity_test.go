package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/events"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.identity.Register(ctx, registerInput("ana"))
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "client", sess.User.Role)
	assert.True(t, sess.ExpiresAt.Equal(env.clock.Now().Add(24*time.Hour)))

	byEmail, err := env.identity.Login(ctx, LoginInput{Email: "ANA@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, byEmail.User.ID)

	byUsername, err := env.identity.Login(ctx, LoginInput{Identifier: "ana", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, byUsername.User.ID)

	claims, err := env.identity.Authenticate(ctx, byUsername.Token)
	require.NoError(t, err)
	assert.Equal(t, "Ana García", claims.Name)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, "+57 300 123 4567", claims.Phone)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.identity.Register(ctx, registerInput("ana"))
	require.NoError(t, err)

	_, wrongPass := env.identity.Login(ctx, LoginInput{Email: "ana@example.com", Password: "nope-nope"})
	_, unknown := env.identity.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "s3cret-pass"})

	assert.ErrorIs(t, wrongPass, apperrors.ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, apperrors.ErrInvalidCredentials)
}

func TestRegisterConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.identity.Register(ctx, registerInput("ana"))
	require.NoError(t, err)

	sameEmail := registerInput("other")
	sameEmail.Email = "ana@example.com"
	_, err = env.identity.Register(ctx, sameEmail)
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	sameUser := registerInput("ANA")
	sameUser.Email = "different@example.com"
	_, err = env.identity.Register(ctx, sameUser)
	assert.ErrorIs(t, err, apperrors.ErrUsernameAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	in := registerInput("ana")
	in.ConfirmPassword = "different-pass"
	in.AcceptPolicy = false
	in.Role = "admin"
	in.Password = "short"

	_, err := env.identity.Register(context.Background(), in)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
	details := appErr.Details.(map[string]string)
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "confirmPassword")
	assert.Contains(t, details, "acceptPolicy")
	assert.Contains(t, details, "role")
}

func TestAuthenticateExpiresAtExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, err := env.identity.Register(ctx, registerInput("ana"))
	require.NoError(t, err)

	env.clock.Set(sess.ExpiresAt.Add(-time.Second))
	_, err = env.identity.Authenticate(ctx, sess.Token)
	require.NoError(t, err)

	env.clock.Set(sess.ExpiresAt)
	_, err = env.identity.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)

	_, err = env.identity.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestLogoutRevokesCredential(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, err := env.identity.Register(ctx, registerInput("ana"))
	require.NoError(t, err)

	claims, err := env.identity.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	require.NoError(t, env.identity.Logout(ctx, claims))

	_, err = env.identity.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.identity.Register(ctx, registerInput("ana"))
	require.NoError(t, err)

	require.NoError(t, env.identity.ForgotPassword(ctx, ForgotPasswordInput{Email: "nobody@example.com"}))
	assert.Empty(t, env.events.Keys())

	require.NoError(t, env.identity.ForgotPassword(ctx, ForgotPasswordInput{Email: "ana@example.com"}))
	assert.Equal(t, []string{events.KeyPasswordResetRequested}, env.events.Keys())
	token := resetTokenFrom(t, env.events)

	in := ResetPasswordInput{Token: token, Password: "brand-new-pass", ConfirmPassword: "brand-new-pass"}
	require.NoError(t, env.identity.ResetPassword(ctx, in))
	assert.ErrorIs(t, env.identity.ResetPassword(ctx, in), apperrors.ErrInvalidResetToken)

	_, err = env.identity.Login(ctx, LoginInput{Email: "ana@example.com", Password: "brand-new-pass"})
	assert.NoError(t, err)
	_, err = env.identity.Login(ctx, LoginInput{Email: "ana@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestPasswordResetExpires(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.identity.Register(ctx, registerInput("ana"))
	require.NoError(t, err)
	require.NoError(t, env.identity.ForgotPassword(ctx, ForgotPasswordInput{Email: "ana@example.com"}))
	token := resetTokenFrom(t, env.events)

	env.clock.Advance(time.Hour)
	err = env.identity.ResetPassword(ctx, ResetPasswordInput{Token: token, Password: "brand-new-pass", ConfirmPassword: "brand-new-pass"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken)
}

func TestUpdateProfileReissuesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.principal(t, "ana", "client")

	sess, err := env.identity.UpdateProfile(ctx, p.ID, UpdateProfileInput{FullName: "Ana María García"})
	require.NoError(t, err)
	assert.Equal(t, "Ana María García", sess.User.FullName)

	claims, err := env.identity.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "Ana María García", claims.Name)

	_, err = env.identity.UpdateProfile(ctx, p.ID, UpdateProfileInput{})
	assert.Error(t, err)
}
