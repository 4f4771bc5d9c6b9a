package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skillswap/skillswap/internal/models"
)

type ChatRepository interface {
	// FindOrCreate returns the single active chat for an unordered pair,
	// creating it when absent. The upsert makes concurrent calls from
	// both participants converge on one document.
	FindOrCreate(ctx context.Context, userA, userB primitive.ObjectID) (*models.Chat, error)
	GetByID(ctx context.Context, chatID primitive.ObjectID) (*models.Chat, error)
	ListForParticipant(ctx context.Context, userID primitive.ObjectID) ([]*models.Chat, error)
	AppendMessage(ctx context.Context, chatID, senderID primitive.ObjectID, message models.Message) (*models.Chat, error)
	FindMessageByClientKey(ctx context.Context, chatID, senderID primitive.ObjectID, clientKey string) (*models.Message, error)
	MarkMessagesRead(ctx context.Context, chatID, readerID primitive.ObjectID) error
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type chatRepo struct {
	collection *mongo.Collection
}

func NewChatRepository(db *DB) ChatRepository {
	return &chatRepo{
		collection: db.Database.Collection("chats"),
	}
}

func (r *chatRepo) FindOrCreate(ctx context.Context, userA, userB primitive.ObjectID) (*models.Chat, error) {
	participants := models.CanonicalParticipants(userA, userB)
	now := time.Now()

	filter := bson.M{
		"participants": participants,
		"is_active":    true,
	}
	update := bson.M{"$setOnInsert": bson.M{
		"participants": participants,
		"messages":     []models.Message{},
		"last_message": now,
		"is_active":    true,
		"created_at":   now,
		"updated_at":   now,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	// Two concurrent upserts for the same absent pair can both try to
	// insert; the partial unique index on participants fails the loser
	// with a duplicate key, and the retry then matches the winner's
	// document.
	var chat models.Chat
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&chat)
	if mongo.IsDuplicateKeyError(err) {
		err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&chat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find or create chat: %w", err)
	}
	return &chat, nil
}

func (r *chatRepo) GetByID(ctx context.Context, chatID primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := r.collection.FindOne(ctx, bson.M{"_id": chatID, "is_active": true}).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return &chat, nil
}

func (r *chatRepo) ListForParticipant(ctx context.Context, userID primitive.ObjectID) ([]*models.Chat, error) {
	filter := bson.M{
		"participants": userID,
		"is_active":    true,
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_message", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer cursor.Close(ctx)

	var chats []*models.Chat
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("failed to decode chats: %w", err)
	}
	return chats, nil
}

// AppendMessage pushes one message onto a chat the sender participates
// in. The participant condition is part of the filter, so the append and
// the authorization check are one atomic document update. When the
// message carries a client key, the filter also rejects chats that
// already hold a message with that (sender, key) pair, which keeps
// concurrent retries from appending twice.
func (r *chatRepo) AppendMessage(ctx context.Context, chatID, senderID primitive.ObjectID, message models.Message) (*models.Chat, error) {
	filter := bson.M{
		"_id":          chatID,
		"participants": senderID,
		"is_active":    true,
	}
	if message.ClientKey != "" {
		filter["messages"] = bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"sender_id":  senderID,
			"client_key": message.ClientKey,
		}}}
	}
	update := bson.M{
		"$push": bson.M{"messages": message},
		"$set": bson.M{
			"last_message": message.Timestamp,
			"updated_at":   message.Timestamp,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var chat models.Chat
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return &chat, nil
}

func (r *chatRepo) FindMessageByClientKey(ctx context.Context, chatID, senderID primitive.ObjectID, clientKey string) (*models.Message, error) {
	filter := bson.M{
		"_id": chatID,
		"messages": bson.M{"$elemMatch": bson.M{
			"sender_id":  senderID,
			"client_key": clientKey,
		}},
	}
	opts := options.FindOne().SetProjection(bson.M{
		"messages": bson.M{"$elemMatch": bson.M{
			"sender_id":  senderID,
			"client_key": clientKey,
		}},
	})

	var chat models.Chat
	err := r.collection.FindOne(ctx, filter, opts).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up message by client key: %w", err)
	}
	if len(chat.Messages) == 0 {
		return nil, models.ErrNotFound
	}
	return &chat.Messages[0], nil
}

// MarkMessagesRead flags every unread message addressed to the reader.
// Re-running it matches zero array elements, which keeps it idempotent.
func (r *chatRepo) MarkMessagesRead(ctx context.Context, chatID, readerID primitive.ObjectID) error {
	filter := bson.M{
		"_id":          chatID,
		"participants": readerID,
		"is_active":    true,
	}
	update := bson.M{"$set": bson.M{
		"messages.$[m].read": true,
		"updated_at":         time.Now(),
	}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{
			"m.sender_id": bson.M{"$ne": readerID},
			"m.read":      false,
		}},
	})

	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *chatRepo) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"participants": userID,
			"is_active":    true,
		}}},
		{{Key: "$unwind", Value: "$messages"}},
		{{Key: "$match", Value: bson.M{
			"messages.sender_id": bson.M{"$ne": userID},
			"messages.read":      false,
		}}},
		{{Key: "$count", Value: "unread"}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Unread int64 `bson:"unread"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode unread count: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Unread, nil
}
