package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/legalinmo/legal-api/internal/models"
)

func (m *Mongo) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := m.col(colAppointments).InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return ErrSlotTaken
	}
	return err
}

func (m *Mongo) GetAppointment(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	return findOne[models.Appointment](ctx, m.col(colAppointments), bson.M{"_id": id})
}

func (m *Mongo) ListAppointments(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	filter := bson.M{}
	if f.UserID != nil {
		filter["userId"] = *f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if !f.From.IsZero() {
		filter["startsAt"] = bson.M{"$gte": f.From}
	}
	opts := options.Find().SetSort(bson.D{{Key: "startsAt", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return findAll[models.Appointment](ctx, m.col(colAppointments), filter, opts)
}

func (m *Mongo) TakenSlots(ctx context.Context, date string, specialistID int) ([]string, error) {
	res, err := m.col(colAppointments).Distinct(ctx, "timeSlot", bson.M{
		"date":         date,
		"specialistId": specialistID,
		"status":       models.AppointmentConfirmed,
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res))
	for _, v := range res {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Mongo) CancelAppointment(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.Appointment, error) {
	return updateWhere[models.Appointment](ctx, m.col(colAppointments), id,
		bson.M{"status": models.AppointmentConfirmed},
		bson.M{"$set": bson.M{"status": models.AppointmentCancelled, "cancelledAt": at}},
	)
}
