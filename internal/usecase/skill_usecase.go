package usecase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillswap/skillswap/internal/models"
	"github.com/skillswap/skillswap/internal/repo/mongodb"
)

type CreateOfferRequest struct {
	Skill        models.Skill          `json:"skill" validate:"required"`
	Description  string                `json:"description" validate:"required"`
	Availability []models.Availability `json:"availability" validate:"dive,oneof=weekdays weekends evenings mornings flexible"`
}

type RequestSkillRequest struct {
	Message string `json:"message" validate:"required,max=500"`
}

type UpdateRequestStatusRequest struct {
	Status models.RequestStatus `json:"status" validate:"required,oneof=accepted declined"`
}

// ReceivedRequest pairs an embedded request with the offer it belongs
// to, for the owner's inbox view.
type ReceivedRequest struct {
	OfferID primitive.ObjectID  `json:"offer_id"`
	Skill   models.Skill        `json:"skill"`
	Request models.SkillRequest `json:"request"`
}

type SkillUseCase struct {
	offerRepo mongodb.SkillOfferRepository
	userRepo  mongodb.UserRepository
}

func NewSkillUseCase(offerRepo mongodb.SkillOfferRepository, userRepo mongodb.UserRepository) *SkillUseCase {
	return &SkillUseCase{
		offerRepo: offerRepo,
		userRepo:  userRepo,
	}
}

func (uc *SkillUseCase) CreateOffer(ctx context.Context, ownerID primitive.ObjectID, req CreateOfferRequest) (*models.SkillOffer, error) {
	if req.Skill.Name == "" || req.Skill.Category == "" {
		return nil, models.Validationf("skill name and category are required")
	}

	offer := &models.SkillOffer{
		UserID:       ownerID,
		Skill:        req.Skill,
		Description:  req.Description,
		Availability: req.Availability,
		IsActive:     true,
	}
	if err := uc.offerRepo.Create(ctx, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

func (uc *SkillUseCase) ListOffers(ctx context.Context, filter mongodb.OfferFilter) ([]*models.SkillOffer, error) {
	return uc.offerRepo.ListActive(ctx, filter)
}

func (uc *SkillUseCase) GetOffer(ctx context.Context, offerID primitive.ObjectID) (*models.SkillOffer, error) {
	return uc.offerRepo.GetByID(ctx, offerID)
}

// ReceivedRequests flattens the pending requests on every offer the
// owner holds, newest first.
func (uc *SkillUseCase) ReceivedRequests(ctx context.Context, ownerID primitive.ObjectID) ([]ReceivedRequest, error) {
	offers, err := uc.offerRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	received := []ReceivedRequest{}
	for _, offer := range offers {
		for _, req := range offer.Requests {
			if req.Status != models.RequestPending {
				continue
			}
			received = append(received, ReceivedRequest{
				OfferID: offer.ID,
				Skill:   offer.Skill,
				Request: req,
			})
		}
	}
	return received, nil
}

// RequestSkill records the requester's interest on an offer. Owners
// cannot request their own offers, and a requester gets at most one
// live request per offer.
func (uc *SkillUseCase) RequestSkill(ctx context.Context, requesterID, offerID primitive.ObjectID, req RequestSkillRequest) (*models.SkillRequest, error) {
	offer, err := uc.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsActive {
		return nil, models.ErrNotFound
	}
	if offer.UserID == requesterID {
		return nil, models.Authorizationf("cannot request your own skill offer")
	}
	for _, existing := range offer.Requests {
		if existing.Requester == requesterID && existing.Status == models.RequestPending {
			return nil, models.Conflictf("request already pending for this offer")
		}
	}

	request := models.SkillRequest{
		ID:        primitive.NewObjectID(),
		Requester: requesterID,
		Message:   req.Message,
		Status:    models.RequestPending,
		CreatedAt: time.Now(),
	}
	if err := uc.offerRepo.AppendRequest(ctx, offerID, request); err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateRequestStatus decides a pending request. Only the offer owner
// may decide, and a decided request never changes again; the update
// races through the repository's pending guard, so a concurrent
// decision surfaces as a transition error rather than an overwrite.
func (uc *SkillUseCase) UpdateRequestStatus(ctx context.Context, ownerID, offerID, requestID primitive.ObjectID, status models.RequestStatus) (*models.SkillRequest, error) {
	offer, err := uc.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.UserID != ownerID {
		return nil, models.Authorizationf("only the offer owner can respond to requests")
	}

	request := offer.RequestByID(requestID)
	if request == nil {
		return nil, models.NotFoundf("request not found")
	}
	if !request.Status.CanTransitionTo(status) {
		return nil, models.Validationf("request is already %s", request.Status)
	}

	updated, err := uc.offerRepo.SetRequestStatus(ctx, offerID, requestID, status)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, models.Validationf("request is no longer pending")
	}

	request.Status = status
	return request, nil
}
