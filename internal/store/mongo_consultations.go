package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/legalinmo/legal-api/internal/models"
)

func (m *Mongo) CreateConsultation(ctx context.Context, c *models.Consultation) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := m.col(colConsultations).InsertOne(ctx, c)
	return err
}

func (m *Mongo) GetConsultation(ctx context.Context, id primitive.ObjectID) (*models.Consultation, error) {
	return findOne[models.Consultation](ctx, m.col(colConsultations), bson.M{"_id": id})
}

func (m *Mongo) ListConsultations(ctx context.Context, f ConsultationFilter) ([]models.Consultation, error) {
	filter := bson.M{}
	if f.UserID != nil {
		filter["userId"] = *f.UserID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return findAll[models.Consultation](ctx, m.col(colConsultations), filter, opts)
}

func (m *Mongo) AnswerConsultation(ctx context.Context, id, by primitive.ObjectID, answer string, at time.Time) (*models.Consultation, error) {
	return updateWhere[models.Consultation](ctx, m.col(colConsultations), id,
		bson.M{"status": models.ConsultationPending},
		bson.M{"$set": bson.M{
			"status":     models.ConsultationAnswered,
			"answer":     answer,
			"answeredBy": by,
			"answeredAt": at,
		}},
	)
}

func (m *Mongo) PromoteConsultation(ctx context.Context, id, userID primitive.ObjectID) error {
	_, err := updateWhere[models.Consultation](ctx, m.col(colConsultations), id,
		bson.M{"userId": userID, "status": models.ConsultationAwaitingPayment},
		bson.M{"$set": bson.M{"status": models.ConsultationPending}},
	)
	return err
}

func (m *Mongo) DeleteDraftsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := m.col(colConsultations).DeleteMany(ctx, bson.M{
		"status":    models.ConsultationAwaitingPayment,
		"createdAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
