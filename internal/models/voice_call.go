package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VoiceCallStatus string

const (
	VoiceCallInitiated VoiceCallStatus = "initiated"
	VoiceCallCompleted VoiceCallStatus = "completed"
	VoiceCallFailed    VoiceCallStatus = "failed"
	VoiceCallNoAnswer  VoiceCallStatus = "no_answer"
	VoiceCallBusy      VoiceCallStatus = "busy"
)

// VoiceCallCooldown holds the last successful call time per (user, vehicle, document).
type VoiceCallCooldown struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"userId"`
	VehicleID    primitive.ObjectID `bson:"vehicle_id" json:"vehicleId"`
	DocumentType string             `bson:"document_type" json:"documentType"`
	LastCallAt   time.Time          `bson:"last_call_at" json:"lastCallAt"`
}

// VoiceCallLog is append-only; status is later advanced by vendor webhooks.
type VoiceCallLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"userId"`
	VehicleID     primitive.ObjectID `bson:"vehicle_id" json:"vehicleId"`
	DocumentType  string             `bson:"document_type" json:"documentType"`
	PhoneNumber   string             `bson:"phone_number" json:"phoneNumber"`
	Language      string             `bson:"language" json:"language"`
	DaysRemaining int                `bson:"days_remaining" json:"daysRemaining"`
	CallID        string             `bson:"call_id,omitempty" json:"callId,omitempty"`
	Status        VoiceCallStatus    `bson:"status" json:"status"`
	Error         string             `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// VoiceCallTemplate is a per-language script with {{placeholder}} variables.
type VoiceCallTemplate struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Language  string             `bson:"language" json:"language"`
	Greeting  string             `bson:"greeting" json:"greeting"`
	Message   string             `bson:"message" json:"message"`
	Closing   string             `bson:"closing" json:"closing"`
	IsActive  bool               `bson:"is_active" json:"isActive"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
