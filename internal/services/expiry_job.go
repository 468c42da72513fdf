package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vindoc-backend/internal/config"
	"vindoc-backend/internal/metrics"
	"vindoc-backend/internal/reminders"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const expiryJobLockKey = "vindoc:lock:expiry-alerts"

type AdviceEnricher interface {
	EnrichAll(ctx context.Context, alerts []reminders.Alert) []reminders.Alert
}

type AlertDispatcher interface {
	Dispatch(ctx context.Context, runID string, alerts []reminders.Alert, dryRun bool) DispatchReport
}

type RunOptions struct {
	DryRun bool
}

type RunReport struct {
	RunID               string         `json:"runId"`
	DryRun              bool           `json:"dryRun"`
	StartedAt           time.Time      `json:"startedAt"`
	Duration            string         `json:"duration"`
	Sources             []string       `json:"sources"`
	VehiclesScanned     int            `json:"vehiclesScanned"`
	AlertsEvaluated     int            `json:"alertsEvaluated"`
	AlertsSuppressed    int            `json:"alertsSuppressed"`
	AlertsNew           int            `json:"alertsNew"`
	EnrichmentFallbacks int            `json:"enrichmentFallbacks"`
	Invalid             []SkipRecord   `json:"invalid,omitempty"`
	Dispatch            DispatchReport `json:"dispatch"`
}

// ExpiryJob runs the evaluate, dedup, enrich and dispatch pipeline.
type ExpiryJob struct {
	cfg        *config.Config
	sources    []AlertSource
	logs       NotificationLogStore
	enricher   AdviceEnricher
	dispatcher AlertDispatcher
	locker     RunLocker
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewExpiryJob accepts a nil locker for single-instance deployments.
func NewExpiryJob(cfg *config.Config, sources []AlertSource, logs NotificationLogStore, enricher AdviceEnricher, dispatcher AlertDispatcher, locker RunLocker, log logrus.FieldLogger) *ExpiryJob {
	return &ExpiryJob{
		cfg:        cfg,
		sources:    sources,
		logs:       logs,
		enricher:   enricher,
		dispatcher: dispatcher,
		locker:     locker,
		log:        log,
		now:        time.Now,
	}
}

func (j *ExpiryJob) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	started := j.now().In(j.cfg.Location())
	report := &RunReport{
		RunID:     uuid.NewString(),
		DryRun:    opts.DryRun,
		StartedAt: started,
	}
	log := j.log.WithFields(logrus.Fields{"run_id": report.RunID, "dry_run": opts.DryRun})

	timer := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues("expiry_alerts").Observe(time.Since(timer).Seconds())
	}()

	err := j.run(ctx, opts, started, report, log)
	report.Duration = time.Since(timer).Round(time.Millisecond).String()

	if err != nil {
		metrics.JobRuns.WithLabelValues("expiry_alerts", "error").Inc()
		log.WithError(err).Error("expiry alert run aborted")
		return report, err
	}

	metrics.JobRuns.WithLabelValues("expiry_alerts", "ok").Inc()
	log.WithFields(logrus.Fields{
		"alerts_new":           report.AlertsNew,
		"alerts_suppressed":    report.AlertsSuppressed,
		"emails_sent":          report.Dispatch.EmailsSent,
		"notifications_logged": report.Dispatch.NotificationsLogged,
		"skipped":              len(report.Dispatch.Skipped),
		"failed":               len(report.Dispatch.Failed),
	}).Info("expiry alert run finished")
	return report, nil
}

func (j *ExpiryJob) run(ctx context.Context, opts RunOptions, now time.Time, report *RunReport, log logrus.FieldLogger) error {
	if !opts.DryRun {
		if err := j.cfg.ValidateExpiryJob(); err != nil {
			return err
		}
	}

	if j.locker != nil && !opts.DryRun {
		release, err := j.locker.Acquire(ctx, expiryJobLockKey, j.cfg.Alerts.RunLockTTL)
		if err != nil {
			return fmt.Errorf("acquire run lock: %w", err)
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				log.WithError(err).Warn("run lock release failed")
			}
		}()
	}

	var alerts []reminders.Alert
	for _, src := range j.sources {
		res, err := src.Collect(ctx, now)
		if err != nil {
			return fmt.Errorf("source %s: %w", src.Name(), err)
		}
		report.Sources = append(report.Sources, src.Name())
		report.VehiclesScanned += res.VehiclesScanned
		report.Invalid = append(report.Invalid, res.Invalid...)
		for _, a := range res.Alerts {
			metrics.AlertsEvaluated.WithLabelValues(src.Name(), string(a.Bucket)).Inc()
		}
		alerts = append(alerts, res.Alerts...)
	}
	for _, inv := range report.Invalid {
		log.WithFields(logrus.Fields{"vehicle_id": inv.VehicleID, "reason": inv.Reason}).Warn("vehicle skipped")
	}
	report.AlertsEvaluated = len(alerts)
	if len(alerts) == 0 {
		return nil
	}

	notified, err := j.loadNotified(ctx, alerts)
	if err != nil {
		return err
	}
	fresh := reminders.FilterNew(alerts, notified)
	report.AlertsNew = len(fresh)
	report.AlertsSuppressed = len(alerts) - len(fresh)
	metrics.AlertsSuppressed.Add(float64(report.AlertsSuppressed))
	if len(fresh) == 0 {
		return nil
	}

	enriched := j.enricher.EnrichAll(ctx, fresh)
	for _, a := range enriched {
		if a.Advice == nil || a.Advice.Fallback {
			report.EnrichmentFallbacks++
		}
	}

	report.Dispatch = j.dispatcher.Dispatch(ctx, report.RunID, enriched, opts.DryRun)
	return nil
}

// loadNotified reads existing log keys for the vehicles in play. Any failure
// stops the run so nothing is sent twice.
func (j *ExpiryJob) loadNotified(ctx context.Context, alerts []reminders.Alert) (reminders.KeySet, error) {
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, a := range alerts {
		id := a.VehicleID()
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	entries, err := j.logs.FindByVehicleIDs(ctx, ids)
	if err != nil {
		return nil, errors.Join(ErrLogUnavailable, err)
	}
	return reminders.KeysFromLog(entries), nil
}
