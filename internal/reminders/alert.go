// Package reminders classifies vehicle documents, services and lifespan into
// notification buckets and filters out alerts that were already announced.
package reminders

import (
	"time"

	"vindoc-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Bucket string

const (
	Bucket30Day       Bucket = "30_day"
	Bucket7Day        Bucket = "7_day"
	BucketExpired     Bucket = "expired"
	BucketOverdue     Bucket = "overdue"
	BucketApproaching Bucket = "approaching"
	BucketExceeded    Bucket = "exceeded"
)

type Kind string

const (
	KindDocument Kind = "document"
	KindService  Kind = "service"
	KindLifespan Kind = "lifespan"
)

const (
	SubtypeLifespan      = "lifespan"
	servicesSubtypeStart = "service_"
)

// Urgency values accepted from the advice generator
const (
	UrgencyCritical = "Critical"
	UrgencyHigh     = "High"
	UrgencyMedium   = "Medium"
	UrgencyLow      = "Low"
)

// Advice is the natural-language guidance attached to an alert before dispatch.
type Advice struct {
	EstimatedCost  string `json:"estimatedCost"`
	Tip            string `json:"tip"`
	Urgency        string `json:"urgency"`
	Consequences   string `json:"consequences,omitempty"`
	Options        string `json:"options,omitempty"`
	Reminder       string `json:"reminder,omitempty"`
	EstimatedValue string `json:"estimatedValue,omitempty"`
	Fallback       bool   `json:"-"`
}

// Alert is produced by an evaluation pass and lives until dispatch.
type Alert struct {
	Kind      Kind
	Subtype   string
	Bucket    Bucket
	Vehicle   *models.Vehicle
	OwnerID   primitive.ObjectID
	Label     string
	DueDate   *time.Time
	DaysUntil int

	ServiceRecordID primitive.ObjectID

	MaxLifespan    int
	VehicleAge     int
	YearsRemaining int

	Advice *Advice
}

func (a Alert) VehicleID() primitive.ObjectID {
	if a.Vehicle == nil {
		return primitive.NilObjectID
	}
	return a.Vehicle.ID
}

// Key returns the deduplication identity of the alert.
func (a Alert) Key() NaturalKey {
	return NaturalKey{VehicleID: a.VehicleID().Hex(), Subtype: a.Subtype, Bucket: string(a.Bucket)}
}

// ServiceSubtype builds the alert subtype for a specific service record.
func ServiceSubtype(recordID primitive.ObjectID) string {
	return servicesSubtypeStart + recordID.Hex()
}

// IsUrgentBucket reports whether the bucket signals an immediate action.
func IsUrgentBucket(b Bucket) bool {
	switch b {
	case BucketExpired, BucketOverdue, BucketExceeded, Bucket7Day:
		return true
	}
	return false
}
