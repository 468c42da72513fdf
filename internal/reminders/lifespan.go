package reminders

import (
	"strings"
	"time"

	"vindoc-backend/internal/models"
)

// MaxLifespanYears is the permitted age per fuel type. Fuel types missing here have no limit.
var MaxLifespanYears = map[string]int{
	"diesel": 10,
	"petrol": 15,
	"cng":    15,
	"lpg":    15,
	"hybrid": 15,
}

// LifespanAlertYears is how many years before the limit an alert starts.
const LifespanAlertYears = 2

// LifespanLimit looks up the maximum age for a fuel type, case-insensitively.
func LifespanLimit(fuelType string) (int, bool) {
	limit, ok := MaxLifespanYears[strings.ToLower(strings.TrimSpace(fuelType))]
	return limit, ok
}

// ClassifyLifespan buckets the years left before a vehicle reaches its permitted age.
func ClassifyLifespan(yearsRemaining int) (Bucket, bool) {
	switch {
	case yearsRemaining <= 0:
		return BucketExceeded, true
	case yearsRemaining <= LifespanAlertYears:
		return BucketApproaching, true
	default:
		return "", false
	}
}

// EvaluateLifespan returns a lifespan alert, or nil when the vehicle is within limits,
// has no registration date or runs on a fuel type without a limit.
// Age is a calendar-year difference, not elapsed time.
func EvaluateLifespan(vehicle *models.Vehicle, now time.Time) *Alert {
	if vehicle.RegistrationDate == nil {
		return nil
	}
	limit, ok := LifespanLimit(vehicle.FuelType)
	if !ok {
		return nil
	}

	age := now.Year() - vehicle.RegistrationDate.In(now.Location()).Year()
	remaining := limit - age
	bucket, ok := ClassifyLifespan(remaining)
	if !ok {
		return nil
	}

	return &Alert{
		Kind:           KindLifespan,
		Subtype:        SubtypeLifespan,
		Bucket:         bucket,
		Vehicle:        vehicle,
		OwnerID:        vehicle.OwnerID,
		Label:          "Vehicle Lifespan",
		MaxLifespan:    limit,
		VehicleAge:     age,
		YearsRemaining: remaining,
	}
}
