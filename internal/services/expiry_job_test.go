package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"vindoc-backend/internal/config"
	"vindoc-backend/internal/models"
	"vindoc-backend/internal/reminders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubSource struct {
	name   string
	result SourceResult
	err    error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Collect(ctx context.Context, now time.Time) (SourceResult, error) {
	return s.result, s.err
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, runID string, alerts []reminders.Alert, dryRun bool) DispatchReport {
	args := m.Called(ctx, runID, alerts, dryRun)
	return args.Get(0).(DispatchReport)
}

type stubLocker struct {
	err      error
	released bool
}

func (l *stubLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	return func(context.Context) error {
		l.released = true
		return nil
	}, nil
}

func jobConfig() *config.Config {
	return &config.Config{
		SMTP:   config.SMTPConfig{Host: "smtp.test", From: "a@b.test"},
		AI:     config.AIConfig{APIKey: "k"},
		Alerts: config.AlertConfig{Timezone: "UTC", RunLockTTL: time.Minute},
	}
}

func newTestJob(cfg *config.Config, src AlertSource, logs NotificationLogStore, dispatcher AlertDispatcher, locker RunLocker) *ExpiryJob {
	enricher := NewEnricher(nil, nil, config.AIConfig{Concurrency: 2}, testLog)
	job := NewExpiryJob(cfg, []AlertSource{src}, logs, enricher, dispatcher, locker, testLog)
	job.now = func() time.Time { return testNow }
	return job
}

func TestExpiryJob_SuppressesAlreadyNotified(t *testing.T) {
	owner := primitive.NewObjectID()
	alerts := enrichedAlerts(owner, 2)
	for i := range alerts {
		alerts[i].Advice = nil
	}
	src := &stubSource{name: SourceDocuments, result: SourceResult{Alerts: alerts, VehiclesScanned: 1}}

	logs := new(MockNotificationLogStore)
	logs.On("FindByVehicleIDs", mock.Anything, []primitive.ObjectID{alerts[0].VehicleID()}).Return([]*models.NotificationLogEntry{
		{VehicleID: alerts[0].VehicleID(), AlertType: alerts[0].Subtype, Bucket: string(alerts[0].Bucket)},
	}, nil)

	dispatcher := new(MockDispatcher)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.MatchedBy(func(a []reminders.Alert) bool {
		return len(a) == 1 && a[0].Subtype == alerts[1].Subtype && a[0].Advice != nil
	}), false).Return(DispatchReport{Recipients: 1, EmailsSent: 1, NotificationsLogged: 1})

	locker := &stubLocker{}
	report, err := newTestJob(jobConfig(), src, logs, dispatcher, locker).Run(context.Background(), RunOptions{})

	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.AlertsEvaluated)
	assert.Equal(t, 1, report.AlertsSuppressed)
	assert.Equal(t, 1, report.AlertsNew)
	assert.Equal(t, 1, report.EnrichmentFallbacks)
	assert.Equal(t, 1, report.Dispatch.EmailsSent)
	assert.True(t, locker.released)
	dispatcher.AssertExpectations(t)
}

func TestExpiryJob_LogReadFailureFailsClosed(t *testing.T) {
	src := &stubSource{name: SourceDocuments, result: SourceResult{Alerts: enrichedAlerts(primitive.NewObjectID(), 1)}}
	logs := new(MockNotificationLogStore)
	logs.On("FindByVehicleIDs", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
	dispatcher := new(MockDispatcher)

	_, err := newTestJob(jobConfig(), src, logs, dispatcher, nil).Run(context.Background(), RunOptions{})

	assert.ErrorIs(t, err, ErrLogUnavailable)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExpiryJob_MissingCredentialsAbortsBeforeWork(t *testing.T) {
	cfg := jobConfig()
	cfg.AI.APIKey = ""
	src := &stubSource{name: SourceDocuments, err: errors.New("must not be called")}

	_, err := newTestJob(cfg, src, new(MockNotificationLogStore), new(MockDispatcher), nil).Run(context.Background(), RunOptions{})

	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestExpiryJob_RunInProgress(t *testing.T) {
	src := &stubSource{name: SourceDocuments}
	_, err := newTestJob(jobConfig(), src, new(MockNotificationLogStore), new(MockDispatcher), &stubLocker{err: ErrRunInProgress}).
		Run(context.Background(), RunOptions{})

	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestExpiryJob_SourceFailureAborts(t *testing.T) {
	src := &stubSource{name: SourceServices, err: errors.New("mongo down")}
	_, err := newTestJob(jobConfig(), src, new(MockNotificationLogStore), new(MockDispatcher), nil).Run(context.Background(), RunOptions{})

	assert.Error(t, err)
}

func TestExpiryJob_NothingToDo(t *testing.T) {
	src := &stubSource{name: SourceDocuments, result: SourceResult{VehiclesScanned: 3}}
	logs := new(MockNotificationLogStore)
	dispatcher := new(MockDispatcher)

	report, err := newTestJob(jobConfig(), src, logs, dispatcher, nil).Run(context.Background(), RunOptions{})

	require.NoError(t, err)
	assert.Equal(t, 3, report.VehiclesScanned)
	logs.AssertNotCalled(t, "FindByVehicleIDs", mock.Anything, mock.Anything)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExpiryJob_DryRunSkipsCredentialCheckAndLock(t *testing.T) {
	cfg := jobConfig()
	cfg.SMTP.Host = ""
	alerts := enrichedAlerts(primitive.NewObjectID(), 1)
	src := &stubSource{name: SourceDocuments, result: SourceResult{Alerts: alerts}}

	logs := new(MockNotificationLogStore)
	logs.On("FindByVehicleIDs", mock.Anything, mock.Anything).Return([]*models.NotificationLogEntry{}, nil)
	dispatcher := new(MockDispatcher)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything, true).Return(DispatchReport{EmailsRendered: 1})

	report, err := newTestJob(cfg, src, logs, dispatcher, &stubLocker{err: errors.New("must not lock")}).
		Run(context.Background(), RunOptions{DryRun: true})

	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Dispatch.EmailsRendered)
}
