package models

import "time"

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

type ChatMessage struct {
	Text      string    `bson:"text" json:"text"`
	Sender    string    `bson:"sender" json:"sender"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Conversation is an anonymous chat widget session; Messages only grow.
type Conversation struct {
	ID        string        `bson:"_id" json:"id"`
	Open      bool          `bson:"open" json:"open"`
	Minimized bool          `bson:"minimized" json:"minimized"`
	Messages  []ChatMessage `bson:"messages" json:"messages"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}
