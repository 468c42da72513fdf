package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the notification-facing view of a VinDoc account.
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email              string             `bson:"email" json:"email" validate:"omitempty,email"`
	FullName           string             `bson:"full_name" json:"fullName"`
	Phone              string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PreferredLanguage  string             `bson:"preferred_language,omitempty" json:"preferredLanguage,omitempty"`
	VoiceAlertsEnabled bool               `bson:"voice_alerts_enabled" json:"voiceAlertsEnabled"`
	Status             string             `bson:"status" json:"status" validate:"required,oneof=active suspended"`
	CreatedAt          time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updatedAt"`
}

const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

func (u *User) IsSuspended() bool {
	return u.Status == UserStatusSuspended
}

// DisplayName falls back to the email local part when no name is set.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	for i, c := range u.Email {
		if c == '@' {
			return u.Email[:i]
		}
	}
	return "Vehicle Owner"
}

// AuthUser is the identity carried by API tokens.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
