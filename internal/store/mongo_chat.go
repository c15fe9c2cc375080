package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/legalinmo/legal-api/internal/models"
)

func (m *Mongo) CreateConversation(ctx context.Context, c *models.Conversation) error {
	_, err := m.col(colConversations).InsertOne(ctx, c)
	return err
}

func (m *Mongo) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	return findOne[models.Conversation](ctx, m.col(colConversations), bson.M{"_id": id})
}

func (m *Mongo) AppendMessages(ctx context.Context, id string, at time.Time, msgs ...models.ChatMessage) (*models.Conversation, error) {
	return updateWhere[models.Conversation](ctx, m.col(colConversations), id, nil, bson.M{
		"$push": bson.M{"messages": bson.M{"$each": msgs}},
		"$set":  bson.M{"updatedAt": at},
	})
}

func (m *Mongo) SetConversationFlags(ctx context.Context, id string, open, minimized bool, at time.Time) (*models.Conversation, error) {
	return updateWhere[models.Conversation](ctx, m.col(colConversations), id, nil, bson.M{
		"$set": bson.M{"open": open, "minimized": minimized, "updatedAt": at},
	})
}
