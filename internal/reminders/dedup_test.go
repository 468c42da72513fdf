package reminders

import (
	"testing"
	"time"

	"vindoc-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func logEntryFor(a Alert) *models.NotificationLogEntry {
	return &models.NotificationLogEntry{
		VehicleID: a.VehicleID(),
		AlertType: a.Subtype,
		Bucket:    string(a.Bucket),
		SentAt:    time.Now(),
	}
}

func TestFilterNew_SuppressesSameBucketOnly(t *testing.T) {
	v1 := &models.Vehicle{ID: primitive.NewObjectID()}
	logged := Alert{Vehicle: v1, Subtype: models.DocumentInsurance, Bucket: Bucket7Day}
	keys := KeysFromLog([]*models.NotificationLogEntry{logEntryFor(logged)})

	sameBucket := Alert{Vehicle: v1, Subtype: models.DocumentInsurance, Bucket: Bucket7Day}
	nextBucket := Alert{Vehicle: v1, Subtype: models.DocumentInsurance, Bucket: BucketExpired}

	out := FilterNew([]Alert{sameBucket, nextBucket}, keys)
	require.Len(t, out, 1)
	assert.Equal(t, BucketExpired, out[0].Bucket)
}

func TestFilterNew_SecondRunIsEmpty(t *testing.T) {
	v1 := &models.Vehicle{ID: primitive.NewObjectID()}
	v2 := &models.Vehicle{ID: primitive.NewObjectID()}
	svcID := primitive.NewObjectID()

	alerts := []Alert{
		{Vehicle: v1, Subtype: models.DocumentPUCC, Bucket: Bucket30Day},
		{Vehicle: v1, Subtype: ServiceSubtype(svcID), Bucket: BucketOverdue},
		{Vehicle: v2, Subtype: SubtypeLifespan, Bucket: BucketApproaching},
	}

	first := FilterNew(alerts, KeysFromLog(nil))
	require.Len(t, first, 3)

	var entries []*models.NotificationLogEntry
	for _, a := range first {
		entries = append(entries, logEntryFor(a))
	}

	second := FilterNew(alerts, KeysFromLog(entries))
	assert.Empty(t, second)
}

func TestFilterNew_DistinctServicesDoNotCollide(t *testing.T) {
	v1 := &models.Vehicle{ID: primitive.NewObjectID()}
	a := Alert{Vehicle: v1, Subtype: ServiceSubtype(primitive.NewObjectID()), Bucket: Bucket7Day}
	b := Alert{Vehicle: v1, Subtype: ServiceSubtype(primitive.NewObjectID()), Bucket: Bucket7Day}

	keys := KeysFromLog([]*models.NotificationLogEntry{logEntryFor(a)})
	out := FilterNew([]Alert{a, b}, keys)
	require.Len(t, out, 1)
	assert.Equal(t, b.Subtype, out[0].Subtype)
}

func TestFilterNew_DropsDuplicatesWithinBatch(t *testing.T) {
	v1 := &models.Vehicle{ID: primitive.NewObjectID()}
	a := Alert{Vehicle: v1, Subtype: models.DocumentRoadTax, Bucket: Bucket30Day}

	out := FilterNew([]Alert{a, a}, KeySet{})
	assert.Len(t, out, 1)
}
