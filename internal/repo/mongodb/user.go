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

// SearchParams are the optional filters of the public user search.
type SearchParams struct {
	Query        string
	Skill        string
	Location     string
	Availability string
}

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name          *string
	Location      *string
	Bio           *string
	Avatar        *string
	SkillsOffered []models.Skill
	SkillsWanted  []models.Skill
	Availability  []models.Availability
	Preferences   *models.Preferences
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update ProfileUpdate) (*models.User, error)
	Search(ctx context.Context, params SearchParams) ([]*models.User, error)
	ListOnline(ctx context.Context) ([]*models.User, error)
	CompareAndSetRating(ctx context.Context, id primitive.ObjectID, prevReviews int64, rating float64) (bool, error)
	SetOnline(ctx context.Context, userID string, online bool) error
}

type userRepo struct {
	collection *mongo.Collection
}

func NewUserRepository(db *DB) UserRepository {
	return &userRepo{
		collection: db.Database.Collection("users"),
	}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return models.Conflictf("user already exists")
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, update ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.Avatar != nil {
		set["avatar"] = *update.Avatar
	}
	if update.SkillsOffered != nil {
		set["skills_offered"] = update.SkillsOffered
	}
	if update.SkillsWanted != nil {
		set["skills_wanted"] = update.SkillsWanted
	}
	if update.Availability != nil {
		set["availability"] = update.Availability
	}
	if update.Preferences != nil {
		set["preferences"] = *update.Preferences
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &user, nil
}

func (r *userRepo) Search(ctx context.Context, params SearchParams) ([]*models.User, error) {
	filter := bson.M{}
	if params.Query != "" {
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": params.Query, "$options": "i"}},
			bson.M{"bio": bson.M{"$regex": params.Query, "$options": "i"}},
		}
	}
	if params.Skill != "" {
		filter["$or"] = bson.A{
			bson.M{"skills_offered.name": bson.M{"$regex": params.Skill, "$options": "i"}},
			bson.M{"skills_wanted.name": bson.M{"$regex": params.Skill, "$options": "i"}},
		}
	}
	if params.Location != "" {
		filter["location"] = bson.M{"$regex": params.Location, "$options": "i"}
	}
	if params.Availability != "" {
		filter["availability"] = params.Availability
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "rating", Value: -1},
		{Key: "total_reviews", Value: -1},
	})
	return r.findUsers(ctx, filter, opts)
}

func (r *userRepo) ListOnline(ctx context.Context) ([]*models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_seen", Value: -1}})
	return r.findUsers(ctx, bson.M{"is_online": true}, opts)
}

func (r *userRepo) findUsers(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.User, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// CompareAndSetRating installs a recomputed average, guarded by the
// review count the caller read. A false return means another review
// landed in between and the caller should recompute and retry.
func (r *userRepo) CompareAndSetRating(ctx context.Context, id primitive.ObjectID, prevReviews int64, rating float64) (bool, error) {
	filter := bson.M{"_id": id, "total_reviews": prevReviews}
	update := bson.M{"$set": bson.M{
		"rating":        rating,
		"total_reviews": prevReviews + 1,
		"updated_at":    time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update rating: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *userRepo) SetOnline(ctx context.Context, userID string, online bool) error {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.Validationf("invalid user ID")
	}

	update := bson.M{"$set": bson.M{
		"is_online":  online,
		"last_seen":  time.Now(),
		"updated_at": time.Now(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update online status: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
