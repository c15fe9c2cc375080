package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/legalinmo/legal-api/pkg/domain"
)

const (
	ConsultationAwaitingPayment = "awaiting_payment"
	ConsultationPending         = "pending"
	ConsultationAnswered        = "answered"
)

type Consultation struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID  `bson:"userId" json:"userId"`
	Specialties []domain.Specialty  `bson:"specialties" json:"specialties"`
	Tier        domain.Tier         `bson:"tier" json:"tier"`
	Question    string              `bson:"question" json:"question"`
	Status      string              `bson:"status" json:"status"`
	Answer      string              `bson:"answer,omitempty" json:"answer,omitempty"`
	AnsweredBy  *primitive.ObjectID `bson:"answeredBy,omitempty" json:"answeredBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	AnsweredAt  *time.Time          `bson:"answeredAt,omitempty" json:"answeredAt,omitempty"`
}
