package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleClient = "client"
	RoleAsesor = "asesor"
	RoleAdmin  = "admin"
)

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName    string             `bson:"fullName" json:"fullName"`
	Email       string             `bson:"email" json:"email"`
	Username    string             `bson:"username" json:"username"`
	UsernameKey string             `bson:"usernameKey" json:"-"` // lower-cased for unique lookups
	Password    string             `bson:"password" json:"-"`
	Role        string             `bson:"role" json:"role"`
	Phone       string             `bson:"phone" json:"phone"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// PasswordReset is a single-use token mailed by the forgot-password flow.
type PasswordReset struct {
	Token     string             `bson:"_id"`
	UserID    primitive.ObjectID `bson:"userId"`
	ExpiresAt time.Time          `bson:"expiresAt"`
	Used      bool               `bson:"used"`
}

// RevokedToken blocks a logged-out credential until it would have expired.
type RevokedToken struct {
	JTI       string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expiresAt"`
}
