// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	StoreBackendFirebase = "firebase"
	StoreBackendMemory   = "memory"
)

type Config struct {
	Store     StoreConfig
	Plaid     PlaidConfig
	SMTP      SMTPConfig
	Sync      SyncConfig
	Summary   SummaryConfig
	Scheduler SchedulerConfig
	Telemetry TelemetryConfig
}

type StoreConfig struct {
	// Backend selects the store implementation: "firebase" or "memory"
	// (demo mode, no external services).
	Backend         string
	CredentialsFile string
	DatabaseURL     string
}

type PlaidConfig struct {
	ClientID string
	Secret   string
	BaseURL  string
}

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	SenderName  string
	SenderEmail string
}

// Enabled reports whether the email channel is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.SenderEmail != ""
}

type SyncConfig struct {
	Parallelism       int
	RunTimeout        time.Duration
	FetchWindowDays   int
	PositiveIsExpense bool
}

type SummaryConfig struct {
	MaxScan int
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	MetricsPort  string
}

type SchedulerConfig struct {
	Enabled       bool
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	QueueSize     int
	RunOnStartup  bool
}

func Load() (*Config, error) {
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	syncParallelism, err := strconv.Atoi(getEnv("SYNC_PARALLELISM", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_PARALLELISM: %w", err)
	}
	syncRunTimeout, err := time.ParseDuration(getEnv("SYNC_RUN_TIMEOUT", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_RUN_TIMEOUT: %w", err)
	}
	syncWindowDays, err := strconv.Atoi(getEnv("SYNC_WINDOW_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_WINDOW_DAYS: %w", err)
	}

	summaryMaxScan, err := strconv.Atoi(getEnv("SUMMARY_MAX_SCAN", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUMMARY_MAX_SCAN: %w", err)
	}

	schedulerWorkers, err := strconv.Atoi(getEnv("SCHEDULER_WORKERS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_WORKERS: %w", err)
	}
	schedulerJobDelay, err := time.ParseDuration(getEnv("SCHEDULER_JOB_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_JOB_DELAY: %w", err)
	}
	schedulerQueueSize, err := strconv.Atoi(getEnv("SCHEDULER_QUEUE_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_QUEUE_SIZE: %w", err)
	}

	var scheduleTimes []string
	for _, t := range strings.Split(getEnv("SCHEDULER_TIMES", "05:00,12:00,20:00"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			scheduleTimes = append(scheduleTimes, t)
		}
	}

	cfg := &Config{
		Store: StoreConfig{
			Backend:         getEnv("STORE_BACKEND", StoreBackendFirebase),
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			DatabaseURL:     getEnv("FIREBASE_DATABASE_URL", ""),
		},
		Plaid: PlaidConfig{
			ClientID: getEnv("PLAID_CLIENT_ID", ""),
			Secret:   getEnv("PLAID_SECRET", ""),
			BaseURL:  getEnv("PLAID_BASE_URL", ""),
		},
		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        smtpPort,
			Username:    getEnv("SMTP_USER", ""),
			Password:    getEnv("SMTP_PASS", ""),
			SenderName:  getEnv("SENDER_NAME", "Frugal"),
			SenderEmail: getEnv("SENDER_EMAIL", ""),
		},
		Sync: SyncConfig{
			Parallelism:       syncParallelism,
			RunTimeout:        syncRunTimeout,
			FetchWindowDays:   syncWindowDays,
			PositiveIsExpense: getBoolEnv("SYNC_POSITIVE_IS_EXPENSE", true),
		},
		Summary: SummaryConfig{
			MaxScan: summaryMaxScan,
		},
		Scheduler: SchedulerConfig{
			Enabled:       getBoolEnv("SCHEDULER_ENABLED", true),
			ScheduleTimes: scheduleTimes,
			WorkerCount:   schedulerWorkers,
			JobDelay:      schedulerJobDelay,
			QueueSize:     schedulerQueueSize,
			RunOnStartup:  getBoolEnv("SCHEDULER_RUN_ON_STARTUP", false),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("TELEMETRY_ENABLED", false),
			ServiceName:  getEnv("TELEMETRY_SERVICE_NAME", "frugal-syncd"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
			MetricsPort:  getEnv("METRICS_PORT", "9090"),
		},
	}

	switch cfg.Store.Backend {
	case StoreBackendFirebase:
		if cfg.Store.CredentialsFile == "" {
			return nil, fmt.Errorf("FIREBASE_CREDENTIALS_FILE is required for the firebase store backend")
		}
		if cfg.Store.DatabaseURL == "" {
			return nil, fmt.Errorf("FIREBASE_DATABASE_URL is required for the firebase store backend")
		}
	case StoreBackendMemory:
		// Demo mode; no external services required.
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q (must be 'firebase' or 'memory')", cfg.Store.Backend)
	}

	if cfg.Sync.Parallelism < 1 {
		return nil, fmt.Errorf("SYNC_PARALLELISM must be at least 1")
	}
	if cfg.Sync.FetchWindowDays < 1 {
		return nil, fmt.Errorf("SYNC_WINDOW_DAYS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
