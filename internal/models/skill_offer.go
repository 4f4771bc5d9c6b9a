package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// CanTransitionTo reports whether a request may move to next. The only
// legal transitions are pending -> accepted and pending -> declined;
// accepted and declined are terminal.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	if s != RequestPending {
		return false
	}
	return next == RequestAccepted || next == RequestDeclined
}

// SkillRequest is embedded in SkillOffer; its identity is scoped to the
// owning offer.
type SkillRequest struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Requester primitive.ObjectID `bson:"requester" json:"requester_id"`
	Message   string             `bson:"message" json:"message"`
	Status    RequestStatus      `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type SkillOffer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	Skill        Skill              `bson:"skill" json:"skill"`
	Description  string             `bson:"description" json:"description"`
	Availability []Availability     `bson:"availability" json:"availability"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	Requests     []SkillRequest     `bson:"requests" json:"requests"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

func (o *SkillOffer) RequestByID(id primitive.ObjectID) *SkillRequest {
	for i := range o.Requests {
		if o.Requests[i].ID == id {
			return &o.Requests[i]
		}
	}
	return nil
}
