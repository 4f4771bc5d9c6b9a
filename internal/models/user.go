package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SkillLevel string

const (
	LevelBeginner     SkillLevel = "beginner"
	LevelIntermediate SkillLevel = "intermediate"
	LevelAdvanced     SkillLevel = "advanced"
	LevelExpert       SkillLevel = "expert"
)

type Availability string

const (
	AvailabilityWeekdays Availability = "weekdays"
	AvailabilityWeekends Availability = "weekends"
	AvailabilityMornings Availability = "mornings"
	AvailabilityEvenings Availability = "evenings"
	AvailabilityFlexible Availability = "flexible"
)

// Skill is embedded in User and SkillOffer; it has no identity of its own.
type Skill struct {
	Name        string     `bson:"name" json:"name" validate:"required"`
	Category    string     `bson:"category" json:"category" validate:"required"`
	Level       SkillLevel `bson:"level" json:"level" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
}

type NotificationPrefs struct {
	Email bool `bson:"email" json:"email"`
	Push  bool `bson:"push" json:"push"`
}

type PrivacyPrefs struct {
	ProfileVisible bool `bson:"profile_visible" json:"profile_visible"`
	ShowLocation   bool `bson:"show_location" json:"show_location"`
}

type Preferences struct {
	Notifications NotificationPrefs `bson:"notifications" json:"notifications"`
	Privacy       PrivacyPrefs      `bson:"privacy" json:"privacy"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Notifications: NotificationPrefs{Email: true, Push: true},
		Privacy:       PrivacyPrefs{ProfileVisible: true, ShowLocation: true},
	}
}

type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	PasswordHash  string             `bson:"password" json:"-"`
	Avatar        string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Location      string             `bson:"location,omitempty" json:"location,omitempty"`
	Bio           string             `bson:"bio,omitempty" json:"bio,omitempty"`
	SkillsOffered []Skill            `bson:"skills_offered" json:"skills_offered"`
	SkillsWanted  []Skill            `bson:"skills_wanted" json:"skills_wanted"`
	Availability  []Availability     `bson:"availability" json:"availability"`
	Rating        float64            `bson:"rating" json:"rating"`
	TotalReviews  int64              `bson:"total_reviews" json:"total_reviews"`
	IsOnline      bool               `bson:"is_online" json:"is_online"`
	LastSeen      time.Time          `bson:"last_seen" json:"last_seen"`
	Preferences   Preferences        `bson:"preferences" json:"preferences"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// Participant is the profile projection attached to chat listings.
type Participant struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Avatar   string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	IsOnline bool               `bson:"is_online" json:"is_online"`
	LastSeen time.Time          `bson:"last_seen" json:"last_seen"`
}

// FoldRating returns the running average after one more review. The
// result stays within [0, 5] as long as every folded rating does.
func FoldRating(current float64, reviews int64, rating float64) float64 {
	return (current*float64(reviews) + rating) / float64(reviews+1)
}

func (u *User) AsParticipant() Participant {
	return Participant{
		ID:       u.ID,
		Name:     u.Name,
		Avatar:   u.Avatar,
		IsOnline: u.IsOnline,
		LastSeen: u.LastSeen,
	}
}
