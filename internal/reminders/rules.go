package reminders

import (
	"math"
	"sort"
	"time"

	"vindoc-backend/internal/models"
)

const (
	tightWindowDays = 7
	wideWindowDays  = 30
)

// DaysUntil counts calendar days from today to due, both taken at midnight in now's location.
func DaysUntil(due, now time.Time) int {
	loc := now.Location()
	d := due.In(loc)
	dueMidnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	todayMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return int(math.Ceil(dueMidnight.Sub(todayMidnight).Hours() / 24))
}

func classify(days int, pastDue Bucket) (Bucket, bool) {
	switch {
	case days <= 0:
		return pastDue, true
	case days <= tightWindowDays:
		return Bucket7Day, true
	case days <= wideWindowDays:
		return Bucket30Day, true
	default:
		return "", false
	}
}

// ClassifyDocument buckets a document's days-until-expiry.
func ClassifyDocument(days int) (Bucket, bool) {
	return classify(days, BucketExpired)
}

// ClassifyService buckets a service's days-until-due.
func ClassifyService(days int) (Bucket, bool) {
	return classify(days, BucketOverdue)
}

var documentOrder = []string{
	models.DocumentInsurance,
	models.DocumentPUCC,
	models.DocumentFitness,
	models.DocumentRoadTax,
}

// EvaluateDocuments returns one alert per document whose expiry falls in a bucket.
func EvaluateDocuments(vehicle *models.Vehicle, now time.Time) []Alert {
	var alerts []Alert
	dates := vehicle.ExpiryDates()
	for _, docType := range documentOrder {
		due := dates[docType]
		if due == nil {
			continue
		}
		days := DaysUntil(*due, now)
		bucket, ok := ClassifyDocument(days)
		if !ok {
			continue
		}
		alerts = append(alerts, Alert{
			Kind:      KindDocument,
			Subtype:   docType,
			Bucket:    bucket,
			Vehicle:   vehicle,
			OwnerID:   vehicle.OwnerID,
			Label:     models.DocumentLabels[docType],
			DueDate:   due,
			DaysUntil: days,
		})
	}
	return alerts
}

// EvaluateServices returns one alert per service record with a due date in a bucket.
func EvaluateServices(vehicle *models.Vehicle, records []*models.ServiceRecord, now time.Time) []Alert {
	var alerts []Alert
	for _, record := range records {
		if record == nil || record.NextDueDate == nil {
			continue
		}
		days := DaysUntil(*record.NextDueDate, now)
		bucket, ok := ClassifyService(days)
		if !ok {
			continue
		}
		alerts = append(alerts, Alert{
			Kind:            KindService,
			Subtype:         ServiceSubtype(record.ID),
			Bucket:          bucket,
			Vehicle:         vehicle,
			OwnerID:         vehicle.OwnerID,
			Label:           record.Label(),
			DueDate:         record.NextDueDate,
			DaysUntil:       days,
			ServiceRecordID: record.ID,
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].DaysUntil < alerts[j].DaysUntil })
	return alerts
}
