package usecase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillswap/skillswap/internal/models"
	"github.com/skillswap/skillswap/internal/repo/mongodb"
)

type UserUseCase struct {
	userRepo mongodb.UserRepository
}

func NewUserUseCase(userRepo mongodb.UserRepository) *UserUseCase {
	return &UserUseCase{userRepo: userRepo}
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID primitive.ObjectID, update mongodb.ProfileUpdate) (*models.User, error) {
	for _, skills := range [][]models.Skill{update.SkillsOffered, update.SkillsWanted} {
		for _, s := range skills {
			if s.Name == "" || s.Category == "" {
				return nil, models.Validationf("skill name and category are required")
			}
		}
	}
	return uc.userRepo.UpdateProfile(ctx, userID, update)
}

func (uc *UserUseCase) Search(ctx context.Context, params mongodb.SearchParams) ([]*models.User, error) {
	return uc.userRepo.Search(ctx, params)
}

func (uc *UserUseCase) ListOnline(ctx context.Context) ([]*models.User, error) {
	return uc.userRepo.ListOnline(ctx)
}

func (uc *UserUseCase) SetOnlineStatus(ctx context.Context, userID primitive.ObjectID, online bool) error {
	return uc.userRepo.SetOnline(ctx, userID.Hex(), online)
}

// Rate folds one review into the target's running average. Out-of-range
// values are rejected outright rather than clamped, so a bad client
// cannot skew the average silently.
func (uc *UserUseCase) Rate(ctx context.Context, raterID, targetID primitive.ObjectID, rating float64) (*models.User, error) {
	if rating < 1 || rating > 5 {
		return nil, models.Validationf("rating must be between 1 and 5")
	}
	if raterID == targetID {
		return nil, models.Authorizationf("cannot rate yourself")
	}

	// Recompute against the review count we read; a concurrent review
	// bumps the count and forces another round.
	for attempt := 0; attempt < 3; attempt++ {
		user, err := uc.userRepo.GetByID(ctx, targetID)
		if err != nil {
			return nil, err
		}

		next := models.FoldRating(user.Rating, user.TotalReviews, rating)
		ok, err := uc.userRepo.CompareAndSetRating(ctx, targetID, user.TotalReviews, next)
		if err != nil {
			return nil, err
		}
		if ok {
			user.Rating = next
			user.TotalReviews++
			return user, nil
		}
	}
	return nil, models.Conflictf("rating contention, try again")
}
