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

// OfferFilter narrows the public offer listing.
type OfferFilter struct {
	Category     string
	Level        string
	Availability string
}

type SkillOfferRepository interface {
	Create(ctx context.Context, offer *models.SkillOffer) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.SkillOffer, error)
	ListActive(ctx context.Context, filter OfferFilter) ([]*models.SkillOffer, error)
	ListByOwner(ctx context.Context, userID primitive.ObjectID) ([]*models.SkillOffer, error)
	AppendRequest(ctx context.Context, offerID primitive.ObjectID, request models.SkillRequest) error
	// SetRequestStatus moves one embedded request out of pending. The
	// pending guard lives in the filter, so a request that has already
	// been decided is never modified; callers distinguish the causes.
	SetRequestStatus(ctx context.Context, offerID, requestID primitive.ObjectID, status models.RequestStatus) (bool, error)
}

type skillOfferRepo struct {
	collection *mongo.Collection
}

func NewSkillOfferRepository(db *DB) SkillOfferRepository {
	return &skillOfferRepo{
		collection: db.Database.Collection("skill_offers"),
	}
}

func (r *skillOfferRepo) Create(ctx context.Context, offer *models.SkillOffer) error {
	offer.ID = primitive.NewObjectID()
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = offer.CreatedAt
	if offer.Requests == nil {
		offer.Requests = []models.SkillRequest{}
	}

	_, err := r.collection.InsertOne(ctx, offer)
	if err != nil {
		return fmt.Errorf("failed to create skill offer: %w", err)
	}
	return nil
}

func (r *skillOfferRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SkillOffer, error) {
	var offer models.SkillOffer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&offer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get skill offer: %w", err)
	}
	return &offer, nil
}

func (r *skillOfferRepo) ListActive(ctx context.Context, filter OfferFilter) ([]*models.SkillOffer, error) {
	query := bson.M{"is_active": true}
	if filter.Category != "" {
		query["skill.category"] = filter.Category
	}
	if filter.Level != "" {
		query["skill.level"] = filter.Level
	}
	if filter.Availability != "" {
		query["availability"] = filter.Availability
	}

	return r.findOffers(ctx, query)
}

func (r *skillOfferRepo) ListByOwner(ctx context.Context, userID primitive.ObjectID) ([]*models.SkillOffer, error) {
	return r.findOffers(ctx, bson.M{"user_id": userID})
}

func (r *skillOfferRepo) findOffers(ctx context.Context, filter bson.M) ([]*models.SkillOffer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list skill offers: %w", err)
	}
	defer cursor.Close(ctx)

	var offers []*models.SkillOffer
	if err := cursor.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode skill offers: %w", err)
	}
	return offers, nil
}

func (r *skillOfferRepo) AppendRequest(ctx context.Context, offerID primitive.ObjectID, request models.SkillRequest) error {
	filter := bson.M{"_id": offerID, "is_active": true}
	update := bson.M{
		"$push": bson.M{"requests": request},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to append request: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *skillOfferRepo) SetRequestStatus(ctx context.Context, offerID, requestID primitive.ObjectID, status models.RequestStatus) (bool, error) {
	filter := bson.M{
		"_id": offerID,
		"requests": bson.M{"$elemMatch": bson.M{
			"_id":    requestID,
			"status": models.RequestPending,
		}},
	}
	update := bson.M{"$set": bson.M{
		"requests.$.status": status,
		"updated_at":        time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update request status: %w", err)
	}
	return result.ModifiedCount > 0, nil
}
