package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Vehicle struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID            primitive.ObjectID `bson:"owner_id" json:"ownerId"`
	RegistrationNumber string             `bson:"registration_number" json:"registrationNumber" validate:"required"`
	Make               string             `bson:"make,omitempty" json:"make,omitempty"`
	Model              string             `bson:"model,omitempty" json:"model,omitempty"`
	FuelType           string             `bson:"fuel_type,omitempty" json:"fuelType,omitempty"`
	RegistrationDate   *time.Time         `bson:"registration_date,omitempty" json:"registrationDate,omitempty"`
	InsuranceExpiry    *time.Time         `bson:"insurance_expiry,omitempty" json:"insuranceExpiry,omitempty"`
	PUCCExpiry         *time.Time         `bson:"pucc_expiry,omitempty" json:"puccExpiry,omitempty"`
	FitnessExpiry      *time.Time         `bson:"fitness_expiry,omitempty" json:"fitnessExpiry,omitempty"`
	RoadTaxExpiry      *time.Time         `bson:"road_tax_expiry,omitempty" json:"roadTaxExpiry,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Description is the human label used in notifications, e.g. "Maruti Swift (KA01AB1234)".
func (v *Vehicle) Description() string {
	name := v.Make
	if v.Model != "" {
		if name != "" {
			name += " "
		}
		name += v.Model
	}
	if name == "" {
		return v.RegistrationNumber
	}
	return name + " (" + v.RegistrationNumber + ")"
}

// Document types tracked on a vehicle
const (
	DocumentInsurance = "insurance"
	DocumentPUCC      = "pucc"
	DocumentFitness   = "fitness"
	DocumentRoadTax   = "road_tax"
)

// DocumentLabels maps document types to display labels
var DocumentLabels = map[string]string{
	DocumentInsurance: "Insurance",
	DocumentPUCC:      "Pollution Certificate (PUCC)",
	DocumentFitness:   "Fitness Certificate",
	DocumentRoadTax:   "Road Tax",
}

// ExpiryDates returns the vehicle's document expiry dates keyed by document type, nil when unset.
func (v *Vehicle) ExpiryDates() map[string]*time.Time {
	return map[string]*time.Time{
		DocumentInsurance: v.InsuranceExpiry,
		DocumentPUCC:      v.PUCCExpiry,
		DocumentFitness:   v.FitnessExpiry,
		DocumentRoadTax:   v.RoadTaxExpiry,
	}
}
