package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ServiceRecord struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID       primitive.ObjectID `json:"vehicleId" bson:"vehicle_id"`
	ServiceType     string             `json:"serviceType" bson:"service_type"`
	Description     string             `json:"description,omitempty" bson:"description,omitempty"`
	ServiceCenter   string             `json:"serviceCenter,omitempty" bson:"service_center,omitempty"`
	Cost            float64            `json:"cost" bson:"cost"`
	ServiceDate     time.Time          `json:"serviceDate" bson:"service_date"`
	Odometer        int                `json:"odometer" bson:"odometer"`
	NextDueDate     *time.Time         `json:"nextDueDate,omitempty" bson:"next_due_date,omitempty"`
	NextDueOdometer *int               `json:"nextDueOdometer,omitempty" bson:"next_due_odometer,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updated_at"`
}

// Constants for service types
const (
	ServiceTypeGeneral      = "general_service"
	ServiceTypeOilChange    = "oil_change"
	ServiceTypeTireRotation = "tire_rotation"
	ServiceTypeBrakeService = "brake_service"
	ServiceTypeBattery      = "battery_replacement"
	ServiceTypeInspection   = "inspection"
	ServiceTypeRepair       = "repair"
	ServiceTypeOther        = "other"
)

// ServiceTypeLabels maps service types to display labels
var ServiceTypeLabels = map[string]string{
	ServiceTypeGeneral:      "General Service",
	ServiceTypeOilChange:    "Oil Change",
	ServiceTypeTireRotation: "Tyre Rotation",
	ServiceTypeBrakeService: "Brake Service",
	ServiceTypeBattery:      "Battery Replacement",
	ServiceTypeInspection:   "Inspection",
	ServiceTypeRepair:       "Repair",
	ServiceTypeOther:        "Service",
}

// Label returns the display label of the record's service type.
func (r *ServiceRecord) Label() string {
	if label, ok := ServiceTypeLabels[r.ServiceType]; ok {
		return label
	}
	if r.ServiceType != "" {
		return r.ServiceType
	}
	return ServiceTypeLabels[ServiceTypeOther]
}
