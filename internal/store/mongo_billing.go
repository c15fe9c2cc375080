package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/legalinmo/legal-api/internal/models"
)

func (m *Mongo) CreatePayment(ctx context.Context, p *models.Payment) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := m.col(colPayments).InsertOne(ctx, p)
	return err
}

func (m *Mongo) GetPayment(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	return findOne[models.Payment](ctx, m.col(colPayments), bson.M{"_id": id})
}

func (m *Mongo) GetPaymentByProviderRef(ctx context.Context, provider, ref string) (*models.Payment, error) {
	return findOne[models.Payment](ctx, m.col(colPayments), bson.M{"provider": provider, "providerRef": ref})
}

func (m *Mongo) ListPayments(ctx context.Context, userID primitive.ObjectID) ([]models.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[models.Payment](ctx, m.col(colPayments), bson.M{"userId": userID}, opts)
}

func (m *Mongo) SetPaymentProviderRef(ctx context.Context, id primitive.ObjectID, ref, redirectURL string) error {
	set := bson.M{"providerRef": ref}
	if redirectURL != "" {
		set["redirectUrl"] = redirectURL
	}
	_, err := updateWhere[models.Payment](ctx, m.col(colPayments), id, nil, bson.M{"$set": set})
	return err
}

func (m *Mongo) SettlePayment(ctx context.Context, id primitive.ObjectID, status, reason string, at time.Time) (*models.Payment, error) {
	set := bson.M{"status": status, "settledAt": at}
	if reason != "" {
		set["failureReason"] = reason
	}
	return updateWhere[models.Payment](ctx, m.col(colPayments), id,
		bson.M{"status": models.PaymentPending},
		bson.M{"$set": set},
	)
}

func (m *Mongo) UpsertSubscription(ctx context.Context, s *models.Subscription) error {
	_, err := m.col(colSubscriptions).ReplaceOne(ctx, bson.M{"_id": s.UserID}, s, options.Replace().SetUpsert(true))
	return err
}

func (m *Mongo) GetSubscription(ctx context.Context, userID primitive.ObjectID) (*models.Subscription, error) {
	return findOne[models.Subscription](ctx, m.col(colSubscriptions), bson.M{"_id": userID})
}
