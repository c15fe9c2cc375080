package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/events"
	"github.com/legalinmo/legal-api/internal/logger"
	"github.com/legalinmo/legal-api/internal/models"
	"github.com/legalinmo/legal-api/internal/store"
	"github.com/legalinmo/legal-api/internal/utils"
	"github.com/legalinmo/legal-api/internal/validator"
)

const passwordResetTTL = time.Hour

type RegisterInput struct {
	FullName        string `json:"fullName" validate:"required,notblank,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,username"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Phone           string `json:"phone" validate:"required,phone"`
	Role            string `json:"role" validate:"omitempty,oneof=client asesor"`
	AcceptPolicy    bool   `json:"acceptPolicy" validate:"required"`
}

// LoginInput accepts the identifier under either key; the web form posts
// "email" even when the user types a username.
type LoginInput struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password" validate:"required"`
}

func (in LoginInput) identifier() string {
	if s := strings.TrimSpace(in.Identifier); s != "" {
		return s
	}
	return strings.TrimSpace(in.Email)
}

type UpdateProfileInput struct {
	FullName string `json:"fullName" validate:"omitempty,notblank,max=120"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// Session is what login and registration hand back to the client.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

type IdentityService struct {
	users     store.UserStore
	tokens    store.TokenStore
	issuer    *utils.TokenIssuer
	publisher events.Publisher
	validate  *validator.Validator
	baseURL   string
	now       func() time.Time
}

func NewIdentityService(
	users store.UserStore,
	tokens store.TokenStore,
	issuer *utils.TokenIssuer,
	publisher events.Publisher,
	v *validator.Validator,
	publicBaseURL string,
) *IdentityService {
	return &IdentityService{
		users:     users,
		tokens:    tokens,
		issuer:    issuer,
		publisher: publisher,
		validate:  v,
		baseURL:   strings.TrimRight(publicBaseURL, "/"),
		now:       time.Now,
	}
}

func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleClient
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	user := &models.User{
		ID:        primitive.NewObjectID(),
		FullName:  strings.TrimSpace(in.FullName),
		Email:     strings.TrimSpace(in.Email),
		Username:  strings.TrimSpace(in.Username),
		Password:  hash,
		Role:      role,
		Phone:     strings.TrimSpace(in.Phone),
		CreatedAt: s.now(),
	}
	switch err := s.users.CreateUser(ctx, user); {
	case errors.Is(err, store.ErrDuplicateEmail):
		return nil, apperrors.ErrEmailAlreadyExists
	case errors.Is(err, store.ErrDuplicateUsername):
		return nil, apperrors.ErrUsernameAlreadyExists
	case err != nil:
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "user registered", "user_id", user.ID.Hex(), "role", user.Role)
	return s.issue(user)
}

// Login fails with the same error whether the identifier or the password
// is wrong.
func (s *IdentityService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	ident := in.identifier()
	if ident == "" || in.Password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(ident, "@") {
		user, err = s.users.GetUserByEmail(ctx, ident)
	} else {
		user, err = s.users.GetUserByUsername(ctx, ident)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !utils.PasswordMatches(user.Password, in.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if utils.NeedsRehash(user.Password) {
		if hash, err := utils.HashPassword(in.Password); err == nil {
			if err := s.users.SetUserPassword(ctx, user.ID, hash); err != nil {
				logger.CtxWithError(ctx, "rehash password", err)
			}
		}
	}
	return s.issue(user)
}

// Authenticate validates a credential and checks it was not logged out.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*utils.Claims, error) {
	claims, err := s.issuer.Validate(token)
	switch {
	case errors.Is(err, utils.ErrTokenExpired):
		return nil, apperrors.ErrTokenExpired
	case err != nil:
		return nil, apperrors.ErrInvalidToken
	}
	revoked, err := s.tokens.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if revoked {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes the credential until its own expiry.
func (s *IdentityService) Logout(ctx context.Context, claims *utils.Claims) error {
	if err := s.tokens.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.DatabaseError(err)
	}
	logger.CtxInfo(ctx, "session revoked", "jti", claims.ID)
	return nil
}

func (s *IdentityService) Profile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, apperrors.NewNotFoundError("user", "User not found"))
	}
	return u, nil
}

// UpdateProfile returns a fresh session so the token carries the new
// profile fields.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in UpdateProfileInput) (*Session, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	if in.FullName == "" && in.Phone == "" {
		return nil, apperrors.NewBadRequestError("No update fields provided")
	}
	u, err := s.users.UpdateUserProfile(ctx, userID, strings.TrimSpace(in.FullName), strings.TrimSpace(in.Phone))
	if err != nil {
		return nil, storeErr(err, apperrors.NewNotFoundError("user", "User not found"))
	}
	return s.issue(u)
}

// ForgotPassword never reveals whether the email is registered.
func (s *IdentityService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	if err := s.validate.Validate(in); err != nil {
		return err
	}
	u, err := s.users.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		logger.CtxDebug(ctx, "password reset for unknown email")
		return nil
	}
	if err != nil {
		return apperrors.DatabaseError(err)
	}

	reset := &models.PasswordReset{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: s.now().Add(passwordResetTTL),
	}
	if err := s.tokens.CreatePasswordReset(ctx, reset); err != nil {
		return apperrors.DatabaseError(err)
	}
	err = s.publisher.Publish(ctx, events.KeyPasswordResetRequested, events.PasswordResetRequested{
		Recipient: events.Recipient{UserID: u.ID.Hex(), Name: u.FullName, Email: u.Email},
		ResetURL:  s.baseURL + "/reset-password?token=" + reset.Token,
		ExpiresAt: reset.ExpiresAt,
	})
	if err != nil {
		logger.CtxWithError(ctx, "publish password reset", err)
	}
	return nil
}

func (s *IdentityService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := s.validate.Validate(in); err != nil {
		return err
	}
	reset, err := s.tokens.ConsumePasswordReset(ctx, in.Token, s.now())
	if err != nil {
		return storeErr(err, apperrors.ErrInvalidResetToken)
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.users.SetUserPassword(ctx, reset.UserID, hash); err != nil {
		return storeErr(err, apperrors.ErrInvalidResetToken)
	}
	logger.CtxInfo(ctx, "password reset", "user_id", reset.UserID.Hex())
	return nil
}

func (s *IdentityService) issue(u *models.User) (*Session, error) {
	token, claims, err := s.issuer.Generate(utils.Claims{
		UserID:   u.ID.Hex(),
		Name:     u.FullName,
		Email:    u.Email,
		Username: u.Username,
		Phone:    u.Phone,
		Role:     u.Role,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}
