package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vindoc-backend/internal/models"
	"vindoc-backend/internal/reminders"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SourceResult is what one alert source produced for a run.
type SourceResult struct {
	Alerts          []reminders.Alert
	VehiclesScanned int
	Invalid         []SkipRecord
}

// AlertSource evaluates one family of reminders.
type AlertSource interface {
	Name() string
	Collect(ctx context.Context, now time.Time) (SourceResult, error)
}

const (
	SourceDocuments = "documents"
	SourceServices  = "services"
	SourceLifespan  = "lifespan"
)

// windowEnd is the latest due instant that can still classify into a bucket.
func windowEnd(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 31)
}

func validateVehicle(v *models.Vehicle) *SkipRecord {
	if v.OwnerID.IsZero() {
		return &SkipRecord{VehicleID: v.ID.Hex(), Reason: ReasonNoOwner}
	}
	return nil
}

type DocumentSource struct {
	vehicles VehicleStore
}

func NewDocumentSource(vehicles VehicleStore) *DocumentSource {
	return &DocumentSource{vehicles: vehicles}
}

func (s *DocumentSource) Name() string { return SourceDocuments }

func (s *DocumentSource) Collect(ctx context.Context, now time.Time) (SourceResult, error) {
	var res SourceResult
	vehicles, err := s.vehicles.FindWithDocumentsDueBefore(ctx, windowEnd(now))
	if err != nil {
		return res, fmt.Errorf("load vehicles with expiring documents: %w", err)
	}

	res.VehiclesScanned = len(vehicles)
	for _, v := range vehicles {
		if skip := validateVehicle(v); skip != nil {
			res.Invalid = append(res.Invalid, *skip)
			continue
		}
		res.Alerts = append(res.Alerts, reminders.EvaluateDocuments(v, now)...)
	}
	return res, nil
}

type ServiceSource struct {
	records  ServiceRecordStore
	vehicles VehicleStore
}

func NewServiceSource(records ServiceRecordStore, vehicles VehicleStore) *ServiceSource {
	return &ServiceSource{records: records, vehicles: vehicles}
}

func (s *ServiceSource) Name() string { return SourceServices }

func (s *ServiceSource) Collect(ctx context.Context, now time.Time) (SourceResult, error) {
	var res SourceResult
	records, err := s.records.FindDueBefore(ctx, windowEnd(now))
	if err != nil {
		return res, fmt.Errorf("load due service records: %w", err)
	}
	if len(records) == 0 {
		return res, nil
	}

	byVehicle := make(map[primitive.ObjectID][]*models.ServiceRecord)
	var ids []primitive.ObjectID
	for _, r := range records {
		if _, ok := byVehicle[r.VehicleID]; !ok {
			ids = append(ids, r.VehicleID)
		}
		byVehicle[r.VehicleID] = append(byVehicle[r.VehicleID], r)
	}

	vehicles, err := s.vehicles.FindByIDs(ctx, ids)
	if err != nil {
		return res, fmt.Errorf("load vehicles for service records: %w", err)
	}
	found := make(map[primitive.ObjectID]*models.Vehicle, len(vehicles))
	for _, v := range vehicles {
		found[v.ID] = v
	}

	res.VehiclesScanned = len(ids)
	for _, id := range ids {
		v, ok := found[id]
		if !ok {
			res.Invalid = append(res.Invalid, SkipRecord{VehicleID: id.Hex(), Reason: ReasonVehicleMissing})
			continue
		}
		if skip := validateVehicle(v); skip != nil {
			res.Invalid = append(res.Invalid, *skip)
			continue
		}
		res.Alerts = append(res.Alerts, reminders.EvaluateServices(v, byVehicle[id], now)...)
	}
	return res, nil
}

type LifespanSource struct {
	vehicles VehicleStore
}

func NewLifespanSource(vehicles VehicleStore) *LifespanSource {
	return &LifespanSource{vehicles: vehicles}
}

func (s *LifespanSource) Name() string { return SourceLifespan }

// minAlertAge is the youngest calendar age that can produce a lifespan alert.
func minAlertAge() int {
	youngest := 0
	for _, years := range reminders.MaxLifespanYears {
		if youngest == 0 || years < youngest {
			youngest = years
		}
	}
	return youngest - reminders.LifespanAlertYears
}

func (s *LifespanSource) Collect(ctx context.Context, now time.Time) (SourceResult, error) {
	var res SourceResult
	// registered in calendar year (now.Year - minAge) or earlier
	cutoff := time.Date(now.Year()-minAlertAge()+1, time.January, 1, 0, 0, 0, 0, now.Location())
	vehicles, err := s.vehicles.FindRegisteredBefore(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("load vehicles for lifespan check: %w", err)
	}

	res.VehiclesScanned = len(vehicles)
	for _, v := range vehicles {
		if skip := validateVehicle(v); skip != nil {
			res.Invalid = append(res.Invalid, *skip)
			continue
		}
		if a := reminders.EvaluateLifespan(v, now); a != nil {
			res.Alerts = append(res.Alerts, *a)
		}
	}
	return res, nil
}

// BuildSources resolves configured source names, keeping their order.
func BuildSources(names []string, vehicles VehicleStore, records ServiceRecordStore) ([]AlertSource, error) {
	var sources []AlertSource
	seen := make(map[string]bool)
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case SourceDocuments:
			sources = append(sources, NewDocumentSource(vehicles))
		case SourceServices:
			sources = append(sources, NewServiceSource(records, vehicles))
		case SourceLifespan:
			sources = append(sources, NewLifespanSource(vehicles))
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownSource, raw)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: none configured", ErrUnknownSource)
	}
	return sources, nil
}
