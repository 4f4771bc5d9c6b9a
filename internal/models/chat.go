package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageType string

const MessageText MessageType = "text"

// Message is embedded in Chat and owned by it; the (chat id, message id)
// pair is its identity. ClientKey is the sender-generated idempotency key
// echoed back so a client can match an optimistic local copy against the
// authoritative one.
type Message struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	SenderID  primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	Content   string             `bson:"content" json:"content"`
	Type      MessageType        `bson:"message_type" json:"message_type"`
	ClientKey string             `bson:"client_key,omitempty" json:"client_key,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Read      bool               `bson:"read" json:"read"`
}

// Chat is the two-party append-only message thread. Participants are
// stored in canonical order so an unordered pair maps to exactly one
// active document.
type Chat struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Participants []primitive.ObjectID `bson:"participants" json:"participants"`
	Messages     []Message            `bson:"messages" json:"messages"`
	LastMessage  time.Time            `bson:"last_message" json:"last_message"`
	IsActive     bool                 `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

func (c *Chat) HasParticipant(id primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Counterpart returns the other participant of a two-party chat.
func (c *Chat) Counterpart(id primitive.ObjectID) (primitive.ObjectID, bool) {
	for _, p := range c.Participants {
		if p != id {
			return p, true
		}
	}
	return primitive.NilObjectID, false
}

// CanonicalParticipants orders a pair of user ids deterministically so the
// same two users always produce the same participants array regardless of
// who initiated the chat.
func CanonicalParticipants(a, b primitive.ObjectID) []primitive.ObjectID {
	if a.Hex() > b.Hex() {
		a, b = b, a
	}
	return []primitive.ObjectID{a, b}
}
