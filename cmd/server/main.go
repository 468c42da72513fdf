package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vindoc-backend/internal/api/handlers"
	"vindoc-backend/internal/api/middleware"
	"vindoc-backend/internal/api/routes"
	"vindoc-backend/internal/app"
	"vindoc-backend/internal/config"
	"vindoc-backend/internal/scheduler"
	"vindoc-backend/internal/services"
	"vindoc-backend/pkg/jwt"
	"vindoc-backend/pkg/logger"
	"vindoc-backend/pkg/ratelimit"
	"vindoc-backend/pkg/voice"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtUtil, err := jwt.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		log.WithError(err).Fatal("JWT configuration invalid")
	}

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize application")
	}
	defer a.Close()

	health := a.Redis.HealthCheck(ctx)
	if health.IsConnected {
		log.WithField("address", health.Address).Info("Redis connected")
	} else {
		log.WithField("error", health.Error).Warn("Redis unavailable; cache, run lock and rate limits degraded")
	}

	// Handlers take interfaces, so a missing voice vendor must stay an untyped nil
	var (
		voiceGate handlers.VoiceCallGate
		voiceJob  handlers.VoiceRunner
		signature *voice.SignatureValidator
	)
	if a.VoiceService != nil {
		voiceGate = a.VoiceService
		voiceJob = a.VoiceJob
		signature = voice.NewSignatureValidator(cfg.Voice.AuthToken)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
	}
	// Handle wildcard origin for development
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Dependencies{
		Health:  handlers.NewHealthHandler(a.DB, a.Redis).WithVoice(a.VoiceService != nil),
		Jobs:    handlers.NewJobsHandler(a.ExpiryJob, voiceJob, log),
		Voice:   handlers.NewVoiceHandler(voiceGate, signature, cfg.Voice.StatusWebhookURL, log),
		JWT:     jwtUtil,
		Limiter: ratelimit.NewRedisRateLimiter(a.Redis.GetClient(), ratelimit.DefaultConfig()),
		Log:     log,
	})

	sched := scheduler.New(log, schedulerTasks(cfg, a)...)
	sched.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		log.WithError(err).Error("server stopped unexpectedly")
	}

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}

func schedulerTasks(cfg *config.Config, a *app.App) []scheduler.Task {
	tasks := []scheduler.Task{{
		Name:     "expiry_alerts",
		Interval: cfg.Alerts.ExpiryInterval,
		Run: func(ctx context.Context) error {
			_, err := a.ExpiryJob.Run(ctx, services.RunOptions{})
			return err
		},
	}}
	if a.VoiceJob != nil {
		tasks = append(tasks, scheduler.Task{
			Name:     "voice_reminders",
			Interval: cfg.Alerts.VoiceInterval,
			Run: func(ctx context.Context) error {
				_, err := a.VoiceJob.Run(ctx)
				return err
			},
		})
	}
	return tasks
}
