package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"vindoc-backend/internal/metrics"
	"vindoc-backend/internal/models"
	"vindoc-backend/internal/reminders"
	"vindoc-backend/internal/repository"
	"vindoc-backend/pkg/email"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// SkipRecord explains why a recipient or entity was not processed.
type SkipRecord struct {
	UserID    string `json:"userId,omitempty"`
	VehicleID string `json:"vehicleId,omitempty"`
	Reason    string `json:"reason"`
	Error     string `json:"error,omitempty"`
}

type DispatchReport struct {
	Recipients          int          `json:"recipients"`
	EmailsSent          int          `json:"emailsSent"`
	EmailsRendered      int          `json:"emailsRendered"`
	NotificationsLogged int          `json:"notificationsLogged"`
	AlreadyLogged       int          `json:"alreadyLogged"`
	HistoryWritten      int          `json:"historyWritten"`
	Skipped             []SkipRecord `json:"skipped,omitempty"`
	Failed              []SkipRecord `json:"failed,omitempty"`
}

type Dispatcher struct {
	users   UserStore
	mailer  email.Sender
	logs    NotificationLogStore
	history HistoryStore
	appURL  string
	workers int
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewDispatcher(users UserStore, mailer email.Sender, logs NotificationLogStore, history HistoryStore, appURL string, workers int, log logrus.FieldLogger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		users:   users,
		mailer:  mailer,
		logs:    logs,
		history: history,
		appURL:  appURL,
		workers: workers,
		log:     log,
		now:     time.Now,
	}
}

type recipientBatch struct {
	ownerID primitive.ObjectID
	alerts  []reminders.Alert
}

// groupByOwner keeps first-seen owner order and per-owner alert order.
func groupByOwner(alerts []reminders.Alert) []recipientBatch {
	index := make(map[primitive.ObjectID]int)
	var batches []recipientBatch
	for _, a := range alerts {
		i, ok := index[a.OwnerID]
		if !ok {
			i = len(batches)
			index[a.OwnerID] = i
			batches = append(batches, recipientBatch{ownerID: a.OwnerID})
		}
		batches[i].alerts = append(batches[i].alerts, a)
	}
	return batches
}

// Dispatch sends one digest per owner, then records log entries and history.
// A recipient's failure never affects another recipient.
func (d *Dispatcher) Dispatch(ctx context.Context, runID string, alerts []reminders.Alert, dryRun bool) DispatchReport {
	batches := groupByOwner(alerts)
	report := DispatchReport{Recipients: len(batches)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			r := d.dispatchOne(gctx, runID, batch, dryRun)
			mu.Lock()
			report.merge(r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return report
}

func (r *DispatchReport) merge(o DispatchReport) {
	r.EmailsSent += o.EmailsSent
	r.EmailsRendered += o.EmailsRendered
	r.NotificationsLogged += o.NotificationsLogged
	r.AlreadyLogged += o.AlreadyLogged
	r.HistoryWritten += o.HistoryWritten
	r.Skipped = append(r.Skipped, o.Skipped...)
	r.Failed = append(r.Failed, o.Failed...)
}

func (d *Dispatcher) dispatchOne(ctx context.Context, runID string, batch recipientBatch, dryRun bool) DispatchReport {
	var report DispatchReport
	userID := batch.ownerID.Hex()
	log := d.log.WithFields(logrus.Fields{"run_id": runID, "user_id": userID})

	if batch.ownerID.IsZero() {
		report.Skipped = append(report.Skipped, SkipRecord{Reason: ReasonNoOwner})
		return report
	}

	user, err := d.users.FindByID(ctx, batch.ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("recipient skipped: user not found")
			report.Skipped = append(report.Skipped, SkipRecord{UserID: userID, Reason: ReasonUserMissing})
		} else {
			log.WithError(err).Warn("recipient lookup failed")
			report.Failed = append(report.Failed, SkipRecord{UserID: userID, Reason: ReasonUserLookup, Error: err.Error()})
		}
		return report
	}

	address := strings.TrimSpace(user.Email)
	if address == "" {
		log.Info("recipient skipped: no email address")
		report.Skipped = append(report.Skipped, SkipRecord{UserID: userID, Reason: ReasonNoEmail})
		return report
	}

	msg, err := email.RenderExpiryDigest(address, email.DigestData{
		RecipientName: user.DisplayName(),
		AppURL:        d.appURL,
		Items:         digestItems(batch.alerts),
	})
	if err != nil {
		log.WithError(err).Error("digest render failed")
		report.Failed = append(report.Failed, SkipRecord{UserID: userID, Reason: ReasonRender, Error: err.Error()})
		return report
	}
	report.EmailsRendered++

	if dryRun {
		log.WithField("alerts", len(batch.alerts)).Info("dry run: digest rendered, not sent")
		return report
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		log.WithError(err).Warn("digest send failed; nothing recorded")
		metrics.EmailsSent.WithLabelValues("failed").Inc()
		report.Failed = append(report.Failed, SkipRecord{UserID: userID, Reason: ReasonSendFailed, Error: err.Error()})
		return report
	}
	metrics.EmailsSent.WithLabelValues("sent").Inc()
	report.EmailsSent++

	sentAt := d.now()
	// history follows only the log entries this run wrote
	records := make([]*models.NotificationHistory, 0, len(batch.alerts))
	for _, a := range batch.alerts {
		entry := &models.NotificationLogEntry{
			VehicleID: a.VehicleID(),
			UserID:    batch.ownerID,
			AlertType: a.Subtype,
			Bucket:    string(a.Bucket),
			Channel:   models.ChannelEmail,
			SentAt:    sentAt,
		}
		err := d.logs.Insert(ctx, entry)
		switch {
		case err == nil:
			report.NotificationsLogged++
			metrics.NotificationsLogged.Inc()
			records = append(records, historyRecord(runID, batch.ownerID, a, sentAt))
		case errors.Is(err, repository.ErrDuplicate):
			report.AlreadyLogged++
		default:
			log.WithFields(logrus.Fields{
				"vehicle_id": entry.VehicleID.Hex(),
				"alert_type": entry.AlertType,
				"bucket":     entry.Bucket,
			}).WithError(err).Error("notification log write failed after send")
			report.Failed = append(report.Failed, SkipRecord{
				UserID:    userID,
				VehicleID: entry.VehicleID.Hex(),
				Reason:    ReasonLogWrite,
				Error:     err.Error(),
			})
		}
	}

	if len(records) > 0 {
		if err := d.history.InsertMany(ctx, records); err != nil {
			log.WithError(err).Warn("notification history write failed")
			report.Failed = append(report.Failed, SkipRecord{UserID: userID, Reason: ReasonHistoryWrite, Error: err.Error()})
		} else {
			report.HistoryWritten += len(records)
		}
	}

	log.WithField("alerts", len(batch.alerts)).Info("digest sent")
	return report
}

func historyRecord(runID string, ownerID primitive.ObjectID, a reminders.Alert, at time.Time) *models.NotificationHistory {
	rec := &models.NotificationHistory{
		UserID:    ownerID,
		VehicleID: a.VehicleID(),
		Channel:   models.ChannelEmail,
		AlertType: a.Subtype,
		Bucket:    string(a.Bucket),
		Title:     alertTitle(a),
		Message:   alertStatusText(a),
		RunID:     runID,
		CreatedAt: at,
	}
	if a.Advice != nil {
		rec.Urgency = a.Advice.Urgency
		rec.AISource = !a.Advice.Fallback
		if a.Advice.Tip != "" {
			rec.Message += ". " + a.Advice.Tip
		}
	}
	return rec
}

func alertTitle(a reminders.Alert) string {
	if a.Vehicle == nil {
		return a.Label
	}
	return fmt.Sprintf("%s - %s", a.Label, a.Vehicle.RegistrationNumber)
}

func alertStatusText(a reminders.Alert) string {
	switch a.Kind {
	case reminders.KindLifespan:
		if a.Bucket == reminders.BucketExceeded {
			return fmt.Sprintf("Exceeded the %d-year lifespan (age %d years)", a.MaxLifespan, a.VehicleAge)
		}
		return fmt.Sprintf("%d year(s) left of the %d-year lifespan", a.YearsRemaining, a.MaxLifespan)
	case reminders.KindService:
		return describeDays(a.DaysUntil, "is due", "was due")
	default:
		return describeDays(a.DaysUntil, "expires", "expired")
	}
}

func digestItems(alerts []reminders.Alert) []email.DigestItem {
	items := make([]email.DigestItem, 0, len(alerts))
	for _, a := range alerts {
		item := email.DigestItem{
			Label:   a.Label,
			Status:  bucketStatus(a.Bucket),
			DueText: alertStatusText(a),
		}
		if a.Vehicle != nil {
			item.VehicleNumber = a.Vehicle.RegistrationNumber
			item.VehicleName = strings.TrimSpace(a.Vehicle.Make + " " + a.Vehicle.Model)
		}
		if a.DueDate != nil {
			item.DueText += " (" + a.DueDate.Format("02 Jan 2006") + ")"
		}
		if adv := a.Advice; adv != nil {
			item.Urgency = strings.ToLower(adv.Urgency)
			item.EstimatedCost = adv.EstimatedCost
			item.Tip = adv.Tip
			item.Detail = firstNonEmpty(adv.Consequences, adv.Reminder, adv.Options)
			if a.Kind == reminders.KindLifespan && adv.EstimatedValue != "" {
				item.Detail = strings.TrimSpace(item.Detail + " Estimated value: " + adv.EstimatedValue)
			}
		}
		items = append(items, item)
	}
	return items
}

func bucketStatus(b reminders.Bucket) string {
	switch b {
	case reminders.BucketExpired:
		return "Expired"
	case reminders.BucketOverdue:
		return "Overdue"
	case reminders.Bucket7Day:
		return "Due this week"
	case reminders.Bucket30Day:
		return "Due this month"
	case reminders.BucketExceeded:
		return "Lifespan exceeded"
	case reminders.BucketApproaching:
		return "Lifespan ending soon"
	}
	return string(b)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
