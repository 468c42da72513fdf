package services

import (
	"context"
	"fmt"
	"time"

	"vindoc-backend/internal/metrics"
	"vindoc-backend/internal/reminders"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type VoiceGate interface {
	RequestCall(ctx context.Context, req VoiceCallRequest) (*VoiceCallResult, error)
}

type VoiceRunReport struct {
	RunID      string         `json:"runId"`
	Candidates int            `json:"candidates"`
	Dispatched int            `json:"dispatched"`
	Skipped    map[string]int `json:"skipped"`
	Failed     int            `json:"failed"`
	Errors     []SkipRecord   `json:"errors,omitempty"`
	Duration   string         `json:"duration"`
}

// VoiceReminderJob feeds urgent document alerts into the voice gate.
type VoiceReminderJob struct {
	vehicles VehicleStore
	gate     VoiceGate
	buckets  map[reminders.Bucket]bool
	loc      *time.Location
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewVoiceReminderJob(vehicles VehicleStore, gate VoiceGate, buckets []string, loc *time.Location, log logrus.FieldLogger) *VoiceReminderJob {
	set := make(map[reminders.Bucket]bool, len(buckets))
	for _, b := range buckets {
		set[reminders.Bucket(b)] = true
	}
	if loc == nil {
		loc = time.UTC
	}
	return &VoiceReminderJob{
		vehicles: vehicles,
		gate:     gate,
		buckets:  set,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

func (j *VoiceReminderJob) Run(ctx context.Context) (*VoiceRunReport, error) {
	start := time.Now()
	report := &VoiceRunReport{RunID: uuid.NewString(), Skipped: map[string]int{}}
	log := j.log.WithField("run_id", report.RunID)

	now := j.now().In(j.loc)
	vehicles, err := j.vehicles.FindWithDocumentsDueBefore(ctx, windowEnd(now))
	if err != nil {
		metrics.JobRuns.WithLabelValues("voice_reminders", "error").Inc()
		return report, fmt.Errorf("load vehicles: %w", err)
	}

	for _, v := range vehicles {
		if v.OwnerID.IsZero() {
			continue
		}
		for _, a := range reminders.EvaluateDocuments(v, now) {
			if !j.buckets[a.Bucket] {
				continue
			}
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Candidates++

			res, err := j.gate.RequestCall(ctx, VoiceCallRequest{
				UserID:        v.OwnerID.Hex(),
				VehicleID:     v.ID.Hex(),
				DocumentType:  a.Subtype,
				DaysRemaining: a.DaysUntil,
			})
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, SkipRecord{
					UserID:    v.OwnerID.Hex(),
					VehicleID: v.ID.Hex(),
					Reason:    "gate_error",
					Error:     err.Error(),
				})
				log.WithError(err).WithField("vehicle_id", v.ID.Hex()).Warn("voice gate error")
				continue
			}

			switch res.Outcome {
			case OutcomeDispatched:
				report.Dispatched++
			case OutcomeSkipped:
				report.Skipped[res.Reason]++
			default:
				report.Failed++
			}
		}
	}

	report.Duration = time.Since(start).Round(time.Millisecond).String()
	metrics.JobRuns.WithLabelValues("voice_reminders", "ok").Inc()
	metrics.JobDuration.WithLabelValues("voice_reminders").Observe(time.Since(start).Seconds())
	log.WithFields(logrus.Fields{
		"candidates": report.Candidates,
		"dispatched": report.Dispatched,
		"failed":     report.Failed,
	}).Info("voice reminder run finished")
	return report, nil
}
