package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vindoc-backend/internal/config"
	"vindoc-backend/internal/metrics"
	"vindoc-backend/internal/reminders"
	"vindoc-backend/pkg/ai"
	"vindoc-backend/pkg/cache"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const advicePrompt = "You are a vehicle compliance assistant for Indian car owners. " +
	"Reply only with a JSON object matching the schema. Keep every field under 40 words. " +
	"Costs are in Indian Rupees as a short range, e.g. \"₹1,500 - ₹3,000\"."

// Enricher attaches generated advice to alerts. Enrich never fails: any
// generator problem yields deterministic advice built from the alert itself.
type Enricher struct {
	generator   ai.Generator
	cache       cache.Cache
	cacheTTL    time.Duration
	limiter     *rate.Limiter
	concurrency int
	timeout     time.Duration
	log         logrus.FieldLogger
}

// NewEnricher accepts a nil generator (always fallback) and a nil cache.
func NewEnricher(generator ai.Generator, adviceCache cache.Cache, cfg config.AIConfig, log logrus.FieldLogger) *Enricher {
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Enricher{
		generator:   generator,
		cache:       adviceCache,
		cacheTTL:    cfg.CacheTTL,
		limiter:     rate.NewLimiter(limit, concurrency),
		concurrency: concurrency,
		timeout:     cfg.Timeout,
		log:         log,
	}
}

// EnrichAll returns copies of alerts with Advice set, in input order.
func (e *Enricher) EnrichAll(ctx context.Context, alerts []reminders.Alert) []reminders.Alert {
	out := make([]reminders.Alert, len(alerts))
	copy(out, alerts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range out {
		i := i
		g.Go(func() error {
			out[i].Advice = e.Enrich(gctx, &out[i])
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (e *Enricher) Enrich(ctx context.Context, alert *reminders.Alert) *reminders.Advice {
	if e.generator == nil {
		metrics.EnrichmentResults.WithLabelValues("fallback").Inc()
		return FallbackAdvice(alert)
	}

	key := e.cacheKey(alert)
	if e.cache != nil {
		var cached reminders.Advice
		found, err := e.cache.Get(ctx, key, &cached)
		if err != nil {
			e.log.WithError(err).Debug("advice cache read failed")
		}
		if found && validAdvice(alert, &cached) == nil {
			metrics.EnrichmentResults.WithLabelValues("cache").Inc()
			return &cached
		}
	}

	advice, err := e.generate(ctx, alert)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"vehicle_id": alert.VehicleID().Hex(),
			"alert_type": alert.Subtype,
			"bucket":     alert.Bucket,
		}).WithError(err).Warn("advice generation failed, using fallback")
		metrics.EnrichmentResults.WithLabelValues("fallback").Inc()
		return FallbackAdvice(alert)
	}

	if e.cache != nil && e.cacheTTL > 0 {
		if err := e.cache.Set(ctx, key, advice, e.cacheTTL); err != nil {
			e.log.WithError(err).Debug("advice cache write failed")
		}
	}
	metrics.EnrichmentResults.WithLabelValues("ai").Inc()
	return advice
}

func (e *Enricher) generate(ctx context.Context, alert *reminders.Alert) (*reminders.Advice, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	raw, err := e.generator.GenerateJSON(ctx, ai.Request{
		System:     advicePrompt,
		Prompt:     buildPrompt(alert),
		SchemaName: "vehicle_advice",
		Schema:     adviceSchema(alert.Kind),
	})
	if err != nil {
		return nil, err
	}

	var advice reminders.Advice
	if err := json.Unmarshal(raw, &advice); err != nil {
		return nil, fmt.Errorf("decode advice: %w", err)
	}
	if err := validAdvice(alert, &advice); err != nil {
		return nil, err
	}
	return &advice, nil
}

// cacheKey identifies an advice-equivalent situation. Service alerts key on
// the service label rather than the record id.
func (e *Enricher) cacheKey(alert *reminders.Alert) string {
	subject := alert.Subtype
	if alert.Kind == reminders.KindService {
		subject = "service:" + strings.ToLower(strings.ReplaceAll(alert.Label, " ", "_"))
	}

	fuel := ""
	if alert.Vehicle != nil {
		fuel = strings.ToLower(strings.TrimSpace(alert.Vehicle.FuelType))
	}

	days := alert.DaysUntil
	if alert.Kind == reminders.KindLifespan {
		days = alert.YearsRemaining
	}

	return fmt.Sprintf("advice:%s:%s:%s:%s:%d", subject, alert.Bucket, e.generator.Model(), fuel, days)
}

func validAdvice(alert *reminders.Alert, a *reminders.Advice) error {
	a.Tip = strings.TrimSpace(a.Tip)
	a.EstimatedCost = strings.TrimSpace(a.EstimatedCost)
	if a.Tip == "" {
		return fmt.Errorf("advice missing tip")
	}
	urgency, ok := normalizeUrgency(a.Urgency)
	if !ok {
		return fmt.Errorf("advice has invalid urgency %q", a.Urgency)
	}
	a.Urgency = urgency

	switch alert.Kind {
	case reminders.KindDocument:
		if a.EstimatedCost == "" || strings.TrimSpace(a.Consequences) == "" {
			return fmt.Errorf("document advice incomplete")
		}
	case reminders.KindService:
		if a.EstimatedCost == "" || strings.TrimSpace(a.Reminder) == "" {
			return fmt.Errorf("service advice incomplete")
		}
	case reminders.KindLifespan:
		if strings.TrimSpace(a.Options) == "" {
			return fmt.Errorf("lifespan advice missing options")
		}
	}
	return nil
}

func normalizeUrgency(u string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(u)) {
	case "critical":
		return reminders.UrgencyCritical, true
	case "high":
		return reminders.UrgencyHigh, true
	case "medium":
		return reminders.UrgencyMedium, true
	case "low":
		return reminders.UrgencyLow, true
	}
	return "", false
}

func adviceSchema(kind reminders.Kind) map[string]interface{} {
	props := map[string]interface{}{
		"estimatedCost": map[string]interface{}{"type": "string"},
		"tip":           map[string]interface{}{"type": "string"},
		"urgency": map[string]interface{}{
			"type": "string",
			"enum": []string{reminders.UrgencyCritical, reminders.UrgencyHigh, reminders.UrgencyMedium, reminders.UrgencyLow},
		},
	}
	required := []string{"estimatedCost", "tip", "urgency"}

	switch kind {
	case reminders.KindDocument:
		props["consequences"] = map[string]interface{}{"type": "string"}
		required = append(required, "consequences")
	case reminders.KindService:
		props["reminder"] = map[string]interface{}{"type": "string"}
		required = append(required, "reminder")
	case reminders.KindLifespan:
		props["options"] = map[string]interface{}{"type": "string"}
		props["estimatedValue"] = map[string]interface{}{"type": "string"}
		required = append(required, "options", "estimatedValue")
	}

	return map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func buildPrompt(alert *reminders.Alert) string {
	var b strings.Builder
	if v := alert.Vehicle; v != nil {
		fmt.Fprintf(&b, "Vehicle: %s, fuel: %s.\n", v.Description(), orUnknown(v.FuelType))
	}

	switch alert.Kind {
	case reminders.KindDocument:
		fmt.Fprintf(&b, "Document: %s. %s.\n", alert.Label, describeDays(alert.DaysUntil, "expires", "expired"))
		b.WriteString("Give the renewal cost range, one practical renewal tip, the urgency and the legal or financial consequences of driving without it.")
	case reminders.KindService:
		fmt.Fprintf(&b, "Service: %s. %s.\n", alert.Label, describeDays(alert.DaysUntil, "is due", "was due"))
		b.WriteString("Give the typical cost range, one maintenance tip, the urgency and a short reminder of what the service covers.")
	case reminders.KindLifespan:
		fmt.Fprintf(&b, "The vehicle is %d years old against a permitted lifespan of %d years (%d years remaining).\n",
			alert.VehicleAge, alert.MaxLifespan, alert.YearsRemaining)
		b.WriteString("Give the cost of the owner's options, one tip, the urgency, the options available (re-registration, scrapping, sale, EV conversion) and an estimated resale value.")
	}
	return b.String()
}

func describeDays(days int, future, past string) string {
	switch {
	case days < 0:
		return fmt.Sprintf("It %s %d days ago", past, -days)
	case days == 0:
		return fmt.Sprintf("It %s today", future)
	case days == 1:
		return fmt.Sprintf("It %s tomorrow", future)
	default:
		return fmt.Sprintf("It %s in %d days", future, days)
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
