package reminders

import (
	"testing"
	"time"

	"vindoc-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func datePtr(t time.Time) *time.Time {
	return &t
}

func TestClassifyDocument_Boundaries(t *testing.T) {
	cases := []struct {
		days   int
		bucket Bucket
		ok     bool
	}{
		{31, "", false},
		{30, Bucket30Day, true},
		{8, Bucket30Day, true},
		{7, Bucket7Day, true},
		{1, Bucket7Day, true},
		{0, BucketExpired, true},
		{-5, BucketExpired, true},
	}

	for _, tc := range cases {
		bucket, ok := ClassifyDocument(tc.days)
		assert.Equal(t, tc.ok, ok, "days=%d", tc.days)
		assert.Equal(t, tc.bucket, bucket, "days=%d", tc.days)
	}
}

func TestClassifyService_UsesOverdue(t *testing.T) {
	bucket, ok := ClassifyService(0)
	assert.True(t, ok)
	assert.Equal(t, BucketOverdue, bucket)

	bucket, ok = ClassifyService(-12)
	assert.True(t, ok)
	assert.Equal(t, BucketOverdue, bucket)

	bucket, _ = ClassifyService(7)
	assert.Equal(t, Bucket7Day, bucket)

	_, ok = ClassifyService(45)
	assert.False(t, ok)
}

func TestDaysUntil_IgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, loc)

	assert.Equal(t, 0, DaysUntil(time.Date(2026, 3, 10, 1, 0, 0, 0, loc), now))
	assert.Equal(t, 1, DaysUntil(time.Date(2026, 3, 11, 0, 5, 0, 0, loc), now))
	assert.Equal(t, 7, DaysUntil(time.Date(2026, 3, 17, 18, 0, 0, 0, loc), now))
	assert.Equal(t, -5, DaysUntil(time.Date(2026, 3, 5, 12, 0, 0, 0, loc), now))
}

func TestDaysUntil_ConvertsDueIntoNowLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)
	// 20:00 UTC on the 10th is already the 11th in IST
	due := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, DaysUntil(due, now))
}

func TestEvaluateDocuments(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	vehicle := &models.Vehicle{
		ID:                 primitive.NewObjectID(),
		OwnerID:            primitive.NewObjectID(),
		RegistrationNumber: "KA01AB1234",
		InsuranceExpiry:    datePtr(now.AddDate(0, 0, 5)),
		PUCCExpiry:         datePtr(now.AddDate(0, 0, -2)),
		FitnessExpiry:      datePtr(now.AddDate(0, 0, 90)),
		RoadTaxExpiry:      nil,
	}

	alerts := EvaluateDocuments(vehicle, now)
	require.Len(t, alerts, 2)

	assert.Equal(t, models.DocumentInsurance, alerts[0].Subtype)
	assert.Equal(t, Bucket7Day, alerts[0].Bucket)
	assert.Equal(t, 5, alerts[0].DaysUntil)
	assert.Equal(t, KindDocument, alerts[0].Kind)
	assert.Equal(t, vehicle.OwnerID, alerts[0].OwnerID)

	assert.Equal(t, models.DocumentPUCC, alerts[1].Subtype)
	assert.Equal(t, BucketExpired, alerts[1].Bucket)
}

func TestEvaluateDocuments_NoDates(t *testing.T) {
	vehicle := &models.Vehicle{ID: primitive.NewObjectID()}
	assert.Empty(t, EvaluateDocuments(vehicle, time.Now()))
}

func TestEvaluateServices(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	vehicle := &models.Vehicle{ID: primitive.NewObjectID(), OwnerID: primitive.NewObjectID()}

	dueSoon := &models.ServiceRecord{ID: primitive.NewObjectID(), ServiceType: models.ServiceTypeOilChange, NextDueDate: datePtr(now.AddDate(0, 0, 20))}
	overdue := &models.ServiceRecord{ID: primitive.NewObjectID(), ServiceType: models.ServiceTypeGeneral, NextDueDate: datePtr(now.AddDate(0, 0, -1))}
	noDate := &models.ServiceRecord{ID: primitive.NewObjectID(), NextDueOdometer: intPtr(42000)}
	farAway := &models.ServiceRecord{ID: primitive.NewObjectID(), NextDueDate: datePtr(now.AddDate(0, 2, 0))}

	alerts := EvaluateServices(vehicle, []*models.ServiceRecord{dueSoon, overdue, noDate, farAway}, now)
	require.Len(t, alerts, 2)

	assert.Equal(t, BucketOverdue, alerts[0].Bucket)
	assert.Equal(t, ServiceSubtype(overdue.ID), alerts[0].Subtype)
	assert.Equal(t, "General Service", alerts[0].Label)

	assert.Equal(t, Bucket30Day, alerts[1].Bucket)
	assert.Equal(t, "service_"+dueSoon.ID.Hex(), alerts[1].Subtype)
	assert.Equal(t, dueSoon.ID, alerts[1].ServiceRecordID)
}

func intPtr(i int) *int {
	return &i
}
