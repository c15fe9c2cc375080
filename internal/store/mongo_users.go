package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/legalinmo/legal-api/internal/models"
)

func (m *Mongo) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(u.Email)
	u.UsernameKey = strings.ToLower(u.Username)

	_, err := m.col(colUsers).InsertOne(ctx, u)
	switch {
	case err == nil:
		return nil
	case isDuplicateOn(err, idxUsername):
		return ErrDuplicateUsername
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicateEmail
	default:
		return err
	}
}

func (m *Mongo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, m.col(colUsers), bson.M{"_id": id})
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, m.col(colUsers), bson.M{"email": strings.ToLower(email)})
}

func (m *Mongo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return findOne[models.User](ctx, m.col(colUsers), bson.M{"usernameKey": strings.ToLower(username)})
}

func (m *Mongo) UpdateUserProfile(ctx context.Context, id primitive.ObjectID, fullName, phone string) (*models.User, error) {
	set := bson.M{}
	if fullName != "" {
		set["fullName"] = fullName
	}
	if phone != "" {
		set["phone"] = phone
	}
	if len(set) == 0 {
		return m.GetUserByID(ctx, id)
	}
	return updateWhere[models.User](ctx, m.col(colUsers), id, nil, bson.M{"$set": set})
}

func (m *Mongo) SetUserPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := m.col(colUsers).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": hash}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := m.col(colRevokedTokens).InsertOne(ctx, models.RevokedToken{JTI: jti, ExpiresAt: expiresAt})
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (m *Mongo) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := m.col(colRevokedTokens).CountDocuments(ctx, bson.M{"_id": jti})
	return n > 0, err
}

func (m *Mongo) CreatePasswordReset(ctx context.Context, r *models.PasswordReset) error {
	_, err := m.col(colPasswordResets).InsertOne(ctx, r)
	return err
}

func (m *Mongo) ConsumePasswordReset(ctx context.Context, token string, now time.Time) (*models.PasswordReset, error) {
	r, err := updateWhere[models.PasswordReset](ctx, m.col(colPasswordResets), token,
		bson.M{"used": false, "expiresAt": bson.M{"$gt": now}},
		bson.M{"$set": bson.M{"used": true}},
	)
	if errors.Is(err, ErrStateConflict) {
		return nil, ErrNotFound
	}
	return r, err
}
