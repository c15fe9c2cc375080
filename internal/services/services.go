// Package services holds the business operations behind the HTTP
// handlers. Each service depends on store interfaces only.
package services

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/events"
	"github.com/legalinmo/legal-api/internal/models"
	"github.com/legalinmo/legal-api/internal/store"
	"github.com/legalinmo/legal-api/internal/utils"
)

// Principal is the authenticated caller, rebuilt from credential claims.
type Principal struct {
	ID       primitive.ObjectID
	Name     string
	Email    string
	Username string
	Phone    string
	Role     string
}

func PrincipalFromClaims(c *utils.Claims) (Principal, error) {
	id, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return Principal{}, apperrors.ErrInvalidToken
	}
	return Principal{
		ID:       id,
		Name:     c.Name,
		Email:    c.Email,
		Username: c.Username,
		Phone:    c.Phone,
		Role:     c.Role,
	}, nil
}

func (p Principal) IsAdvisor() bool {
	return p.Role == models.RoleAsesor || p.Role == models.RoleAdmin
}

func (p Principal) recipient() events.Recipient {
	return events.Recipient{
		UserID: p.ID.Hex(),
		Name:   p.Name,
		Email:  p.Email,
		Phone:  p.Phone,
	}
}

// storeErr maps a store failure to the API error for the caller.
func storeErr(err error, notFound *apperrors.AppError) error {
	if errors.Is(err, store.ErrNotFound) && notFound != nil {
		return notFound
	}
	return apperrors.DatabaseError(err)
}

func parseID(s string, notFound *apperrors.AppError) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return id, nil
}
