package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/legalinmo/legal-api/internal/logger"
	"github.com/legalinmo/legal-api/internal/models"
)

const (
	colUsers          = "users"
	colPasswordResets = "password_resets"
	colRevokedTokens  = "revoked_tokens"
	colConsultations  = "consultations"
	colAppointments   = "appointments"
	colPayments       = "payments"
	colSubscriptions  = "subscriptions"
	colConversations  = "conversations"

	idxUsername = "username_unique"
	idxSlot     = "slot_unique"
)

type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and returns a store bound to database.
func Connect(ctx context.Context, uri, database string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to MongoDB", "database", database)
	return &Mongo{client: client, db: client.Database(database)}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) col(name string) *mongo.Collection { return m.db.Collection(name) }

// EnsureIndexes creates the unique and TTL indexes the store relies on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ttl := options.Index().SetExpireAfterSeconds(0)
	specs := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
			{Keys: bson.D{{Key: "usernameKey", Value: 1}}, Options: options.Index().SetUnique(true).SetName(idxUsername)},
		},
		colPasswordResets: {
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: ttl},
		},
		colRevokedTokens: {
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: ttl},
		},
		colConsultations: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		colAppointments: {
			{
				Keys: bson.D{{Key: "date", Value: 1}, {Key: "timeSlot", Value: 1}, {Key: "specialistId", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName(idxSlot).
					SetPartialFilterExpression(bson.M{"status": models.AppointmentConfirmed}),
			},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "startsAt", Value: 1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "provider", Value: 1}, {Key: "providerRef", Value: 1}}},
		},
	}
	for col, idx := range specs {
		if _, err := m.col(col).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", col, err)
		}
	}
	return nil
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter any) (*T, error) {
	var out T
	if err := c.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter any, opts *options.FindOptions) ([]T, error) {
	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// updateWhere applies update to the document matching id and cond. It
// tells a missing document apart from a failed precondition.
func updateWhere[T any](ctx context.Context, c *mongo.Collection, id any, cond bson.M, update bson.M) (*T, error) {
	filter := bson.M{"_id": id}
	for k, v := range cond {
		filter[k] = v
	}
	var out T
	err := c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == nil {
		return &out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if len(cond) == 0 {
		return nil, ErrNotFound
	}
	n, cerr := c.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return nil, cerr
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrStateConflict
}

func isDuplicateOn(err error, index string) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), index)
}
