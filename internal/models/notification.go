package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationLogEntry records that (vehicle, alert type, bucket) was announced.
// At most one entry exists per natural key; a unique index enforces it.
type NotificationLogEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID primitive.ObjectID `bson:"vehicle_id" json:"vehicleId"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	AlertType string             `bson:"alert_type" json:"alertType"`
	Bucket    string             `bson:"bucket" json:"bucket"`
	Channel   string             `bson:"channel" json:"channel"`
	SentAt    time.Time          `bson:"sent_at" json:"sentAt"`
}

// NotificationHistory is the user-visible audit trail of sent reminders.
type NotificationHistory struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	VehicleID primitive.ObjectID `bson:"vehicle_id" json:"vehicleId"`
	Channel   string             `bson:"channel" json:"channel"`
	AlertType string             `bson:"alert_type" json:"alertType"`
	Bucket    string             `bson:"bucket" json:"bucket"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Urgency   string             `bson:"urgency,omitempty" json:"urgency,omitempty"`
	AISource  bool               `bson:"ai_source" json:"aiSource"`
	RunID     string             `bson:"run_id,omitempty" json:"runId,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

const (
	ChannelEmail = "email"
	ChannelVoice = "voice"
)
