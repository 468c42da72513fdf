package app

import (
	"context"
	"fmt"

	"vindoc-backend/internal/config"
	"vindoc-backend/internal/repository"
	"vindoc-backend/internal/services"
	"vindoc-backend/pkg/ai"
	"vindoc-backend/pkg/cache"
	"vindoc-backend/pkg/database"
	"vindoc-backend/pkg/email"
	"vindoc-backend/pkg/redis"
	"vindoc-backend/pkg/voice"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// App holds the wired object graph shared by the server and the one-shot CLI.
type App struct {
	Config *config.Config
	DB     *mongo.Database
	Redis  *redis.Client

	ExpiryJob *services.ExpiryJob
	// VoiceService and VoiceJob are nil when the voice vendor is not configured.
	VoiceService *services.VoiceCallService
	VoiceJob     *services.VoiceReminderJob
}

// Build connects to Mongo and Redis, ensures indexes and wires the jobs.
func Build(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	db, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}

	vehicles := repository.NewVehicleRepository(db)
	records := repository.NewServiceRecordRepository(db)
	users := repository.NewUserRepository(db)
	logs := repository.NewNotificationLogRepository(db)
	history := repository.NewNotificationHistoryRepository(db)
	calls := repository.NewVoiceCallRepository(db)

	if err := database.EnsureIndexes(ctx, log, vehicles, records, users, logs, history, calls); err != nil {
		_ = database.Disconnect(db.Client())
		return nil, err
	}

	redisClient := redis.NewClient(cfg.Redis, log)
	loc := cfg.Location()

	sources, err := services.BuildSources(cfg.Alerts.Sources, vehicles, records)
	if err != nil {
		_ = database.Disconnect(db.Client())
		_ = redisClient.Close()
		return nil, fmt.Errorf("alert sources: %w", err)
	}

	var generator ai.Generator
	if cfg.AI.APIKey != "" {
		generator = ai.NewClient(cfg.AI)
	} else {
		log.Warn("AI_API_KEY not set; reminders will use fallback advice")
	}
	enricher := services.NewEnricher(generator, cache.NewRedisCache(redisClient, "vindoc:"), cfg.AI, log)

	dispatcher := services.NewDispatcher(users, email.NewEmailService(cfg.SMTP), logs, history, cfg.AppURL, cfg.Alerts.DispatchWorkers, log)
	locker := services.NewRedisRunLocker(redisClient.GetClient())

	a := &App{
		Config:    cfg,
		DB:        db,
		Redis:     redisClient,
		ExpiryJob: services.NewExpiryJob(cfg, sources, logs, enricher, dispatcher, locker, log),
	}

	if err := cfg.ValidateVoice(); err != nil {
		log.WithError(err).Warn("voice reminders disabled")
		return a, nil
	}
	a.VoiceService = services.NewVoiceCallService(users, vehicles, calls, voice.NewTwilioProvider(cfg.Voice), cfg.Voice, loc, log)
	a.VoiceJob = services.NewVoiceReminderJob(vehicles, a.VoiceService, cfg.Alerts.VoiceBuckets, loc, log)

	return a, nil
}

// Close releases the Mongo and Redis connections.
func (a *App) Close() error {
	var firstErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := database.Disconnect(a.DB.Client()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
