package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// ErrMissingCredentials is returned when a vendor needed by a run is not configured.
var ErrMissingCredentials = errors.New("missing vendor credentials")

type Config struct {
	Port           string
	MongoURI       string
	JWTSecret      string
	JWTExpiry      string
	AllowedOrigins []string
	AppURL         string
	LogLevel       string
	LogFormat      string

	Redis  RedisConfig
	SMTP   SMTPConfig
	AI     AIConfig
	Voice  VoiceConfig
	Alerts AlertConfig
}

type RedisConfig struct {
	URL                string
	Host               string
	Port               string
	Password           string
	DB                 int
	PoolSize           int
	MinIdleConns       int
	MaxRetries         int
	RetryDelay         time.Duration
	DialTimeout        time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	PoolTimeout        time.Duration
	IdleTimeout        time.Duration
	IdleCheckFrequency time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// AIConfig points at an OpenAI-compatible chat completions endpoint.
type AIConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	Timeout        time.Duration
	Concurrency    int
	RequestsPerSec float64
	CacheTTL       time.Duration
}

type VoiceConfig struct {
	AccountSID       string
	AuthToken        string
	CallerID         string
	AgentID          string
	StatusWebhookURL string
	Timeout          time.Duration
	MaxCallsPerDay   int
	Cooldown         time.Duration
	DefaultLanguage  string
	DefaultRegion    string
}

type AlertConfig struct {
	Sources         []string
	DispatchWorkers int
	RunLockTTL      time.Duration
	Timezone        string
	VoiceBuckets    []string

	// Zero intervals leave scheduling to an external trigger.
	ExpiryInterval time.Duration
	VoiceInterval  time.Duration
}

func Load() *Config {
	// .env is optional; scheduled hosts inject the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI environment variable is not set")
	}

	allowedOrigins := getEnv("ALLOWED_ORIGINS", "http://localhost:5173")

	return &Config{
		Port:           getEnv("PORT", "8080"),
		MongoURI:       mongoURI,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiry:      os.Getenv("JWT_EXPIRY"),
		AllowedOrigins: splitAndTrim(allowedOrigins),
		AppURL:         getEnv("APP_URL", "http://localhost:5173"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		Redis:          loadRedisConfig(),
		SMTP:           loadSMTPConfig(),
		AI:             loadAIConfig(),
		Voice:          loadVoiceConfig(),
		Alerts:         loadAlertConfig(),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:                os.Getenv("REDIS_URL"),
		Host:               getEnv("REDIS_HOST", "localhost"),
		Port:               getEnv("REDIS_PORT", "6379"),
		Password:           os.Getenv("REDIS_PASSWORD"),
		DB:                 getEnvAsInt("REDIS_DB", 0),
		PoolSize:           getEnvAsInt("REDIS_POOL_SIZE", 10),
		MinIdleConns:       getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		MaxRetries:         getEnvAsInt("REDIS_MAX_RETRIES", 3),
		RetryDelay:         getEnvAsDuration("REDIS_RETRY_DELAY", time.Second),
		DialTimeout:        getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:        getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout:       getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		PoolTimeout:        getEnvAsDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		IdleTimeout:        getEnvAsDuration("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		IdleCheckFrequency: getEnvAsDuration("REDIS_IDLE_CHECK_FREQUENCY", time.Minute),
	}
}

func loadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     getEnv("SMTP_PORT", "587"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
		FromName: getEnv("SMTP_FROM_NAME", "VinDoc"),
		Timeout:  getEnvAsDuration("SMTP_TIMEOUT", 15*time.Second),
	}
}

func loadAIConfig() AIConfig {
	return AIConfig{
		BaseURL:        getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
		APIKey:         os.Getenv("AI_API_KEY"),
		Model:          getEnv("AI_MODEL", "gpt-4o-mini"),
		Timeout:        getEnvAsDuration("AI_TIMEOUT", 20*time.Second),
		Concurrency:    getEnvAsInt("AI_CONCURRENCY", 4),
		RequestsPerSec: getEnvAsFloat64("AI_REQUESTS_PER_SEC", 2),
		CacheTTL:       getEnvAsDuration("AI_CACHE_TTL", 24*time.Hour),
	}
}

func loadVoiceConfig() VoiceConfig {
	return VoiceConfig{
		AccountSID:       os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:        os.Getenv("TWILIO_AUTH_TOKEN"),
		CallerID:         os.Getenv("VOICE_CALLER_ID"),
		AgentID:          os.Getenv("VOICE_AGENT_ID"),
		StatusWebhookURL: os.Getenv("VOICE_STATUS_WEBHOOK_URL"),
		Timeout:          getEnvAsDuration("VOICE_TIMEOUT", 15*time.Second),
		MaxCallsPerDay:   getEnvAsInt("VOICE_MAX_CALLS_PER_DAY", 2),
		Cooldown:         getEnvAsDuration("VOICE_COOLDOWN", 24*time.Hour),
		DefaultLanguage:  getEnv("VOICE_DEFAULT_LANGUAGE", "en"),
		DefaultRegion:    getEnv("PHONE_DEFAULT_REGION", "IN"),
	}
}

func loadAlertConfig() AlertConfig {
	return AlertConfig{
		Sources:         splitAndTrim(getEnv("ALERT_SOURCES", "documents,services,lifespan")),
		DispatchWorkers: getEnvAsInt("ALERT_DISPATCH_WORKERS", 4),
		RunLockTTL:      getEnvAsDuration("ALERT_RUN_LOCK_TTL", 10*time.Minute),
		Timezone:        getEnv("ALERT_TIMEZONE", "Asia/Kolkata"),
		VoiceBuckets:    splitAndTrim(getEnv("VOICE_ALERT_BUCKETS", "7_day,expired")),
		ExpiryInterval:  getEnvAsDuration("ALERT_SCHEDULE_INTERVAL", 0),
		VoiceInterval:   getEnvAsDuration("VOICE_SCHEDULE_INTERVAL", 0),
	}
}

// ValidateExpiryJob checks the vendors an expiry alert run cannot start without.
func (c *Config) ValidateExpiryJob() error {
	var missing []string
	if c.SMTP.Host == "" || c.SMTP.From == "" {
		missing = append(missing, "SMTP_HOST/SMTP_FROM")
	}
	if c.AI.APIKey == "" {
		missing = append(missing, "AI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateVoice checks the voice vendor settings.
func (c *Config) ValidateVoice() error {
	if c.Voice.AccountSID == "" || c.Voice.AuthToken == "" || c.Voice.CallerID == "" {
		return fmt.Errorf("%w: TWILIO_ACCOUNT_SID/TWILIO_AUTH_TOKEN/VOICE_CALLER_ID", ErrMissingCredentials)
	}
	return nil
}

// Location returns the timezone used for day-boundary computations.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Alerts.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func splitAndTrim(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
