package reminders

import (
	"vindoc-backend/internal/models"
)

// NaturalKey identifies one announced state transition.
type NaturalKey struct {
	VehicleID string
	Subtype   string
	Bucket    string
}

type KeySet map[NaturalKey]struct{}

// KeysFromLog builds the set of already-notified keys.
func KeysFromLog(entries []*models.NotificationLogEntry) KeySet {
	keys := make(KeySet, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		keys[NaturalKey{VehicleID: e.VehicleID.Hex(), Subtype: e.AlertType, Bucket: e.Bucket}] = struct{}{}
	}
	return keys
}

func (k KeySet) Has(key NaturalKey) bool {
	_, ok := k[key]
	return ok
}

// FilterNew keeps alerts whose key is not in the log, first occurrence wins within the batch.
func FilterNew(alerts []Alert, notified KeySet) []Alert {
	seen := make(KeySet, len(alerts))
	out := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		key := a.Key()
		if notified.Has(key) || seen.Has(key) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
