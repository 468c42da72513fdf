package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vindoc-backend/internal/app"
	"vindoc-backend/internal/config"
	"vindoc-backend/internal/services"
	"vindoc-backend/pkg/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Evaluate and render reminders without sending or logging")
	withVoice := flag.Bool("voice", false, "Also run the voice reminder pass after the email run")
	flag.Parse()

	cfg := config.Load()
	// logs go to stderr so stdout carries only the JSON report
	log := logger.NewWithOutput(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	out := map[string]interface{}{}
	exitCode := 0

	report, err := a.ExpiryJob.Run(ctx, services.RunOptions{DryRun: *dryRun})
	out["expiryAlerts"] = report
	switch {
	case errors.Is(err, services.ErrRunInProgress):
		log.Warn("another expiry alert run holds the lock; nothing to do")
	case err != nil:
		out["error"] = err.Error()
		exitCode = 1
	}

	if *withVoice && !*dryRun && exitCode == 0 {
		if a.VoiceJob == nil {
			out["voiceError"] = config.ErrMissingCredentials.Error()
			exitCode = 1
		} else if voiceReport, err := a.VoiceJob.Run(ctx); err != nil {
			out["voiceReminders"] = voiceReport
			out["voiceError"] = err.Error()
			exitCode = 1
		} else {
			out["voiceReminders"] = voiceReport
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
		exitCode = 1
	}

	if exitCode != 0 {
		a.Close()
		os.Exit(exitCode)
	}
}
