package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/legalinmo/legal-api/pkg/domain"
)

const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentFailed   = "failed"
)

const (
	SubscriptionActive = "active"
)

type Payment struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID   `bson:"userId" json:"userId"`
	PlanID         domain.PlanID        `bson:"planId" json:"planId"`
	Method         domain.PaymentMethod `bson:"method" json:"method"`
	Subtotal       int64                `bson:"subtotal" json:"subtotal"`
	Tax            int64                `bson:"tax" json:"tax"`
	Total          int64                `bson:"total" json:"total"`
	Currency       string               `bson:"currency" json:"currency"`
	Status         string               `bson:"status" json:"status"`
	Provider       string               `bson:"provider" json:"provider"`
	ProviderRef    string               `bson:"providerRef,omitempty" json:"-"`
	CardLast4      string               `bson:"cardLast4,omitempty" json:"cardLast4,omitempty"`
	RedirectURL    string               `bson:"redirectUrl,omitempty" json:"redirectUrl,omitempty"`
	FailureReason  string               `bson:"failureReason,omitempty" json:"-"`
	ConsultationID *primitive.ObjectID  `bson:"consultationId,omitempty" json:"consultationId,omitempty"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	SettledAt      *time.Time           `bson:"settledAt,omitempty" json:"settledAt,omitempty"`
}

// Subscription is keyed by user: a user holds at most one.
type Subscription struct {
	UserID          primitive.ObjectID `bson:"_id" json:"userId"`
	PlanID          domain.PlanID      `bson:"planId" json:"planId"`
	Status          string             `bson:"status" json:"status"`
	PaymentID       primitive.ObjectID `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	ActivatedAt     time.Time          `bson:"activatedAt" json:"activatedAt"`
	NextBillingDate *time.Time         `bson:"nextBillingDate,omitempty" json:"nextBillingDate"`
}
