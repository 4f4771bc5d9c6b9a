package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewConnection(ctx context.Context, uri, database string) (*DB, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetAppName("skillswap").
		SetMaxPoolSize(10).
		SetMaxConnIdleTime(30 * time.Second).
		SetTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &DB{
		Client:   client,
		Database: client.Database(database),
	}, nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on. The unique
// email index doubles as the signup duplicate guard.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "skills_offered.name", Value: 1}}},
		{Keys: bson.D{{Key: "skills_wanted.name", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: 1}}},
		{Keys: bson.D{{Key: "is_online", Value: 1}}},
	}
	if _, err := db.Database.Collection("users").Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	offerIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "skill.category", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}}},
	}
	if _, err := db.Database.Collection("skill_offers").Indexes().CreateMany(ctx, offerIndexes); err != nil {
		return fmt.Errorf("create skill offer indexes: %w", err)
	}

	chatIndexes := []mongo.IndexModel{
		// Unique over active chats so concurrent find-or-create upserts
		// for the same pair cannot both insert.
		{
			Keys: bson.D{{Key: "participants", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
		{Keys: bson.D{{Key: "last_message", Value: -1}}},
	}
	if _, err := db.Database.Collection("chats").Indexes().CreateMany(ctx, chatIndexes); err != nil {
		return fmt.Errorf("create chat indexes: %w", err)
	}

	return nil
}
