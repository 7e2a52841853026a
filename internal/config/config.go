package config

import (
	"strings"
	"time"
)

// Config holds runtime configuration for the server.
type Config struct {
	Port string
	// Location interprets the date and clock fields of new games.
	Location        *time.Location
	MutationRetries int
	Store           StoreConfig
	Auth            AuthConfig
	Notify          NotifyConfig
	Reconcile       ReconcileConfig
	Metrics         MetricsConfig
	Log             LogConfig
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend        string
	MongoURI       string
	MongoDatabase  string
	ConnectTimeout Duration
}

// AuthConfig holds the bearer token verification settings.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// NotifyConfig controls the outbound webhook. An empty URL logs events instead.
type NotifyConfig struct {
	WebhookURL   string
	WebhookToken string
	MaxAttempts  int
	Timeout      Duration
}

// ReconcileConfig controls the rating reconciliation sweeper.
type ReconcileConfig struct {
	Enabled  bool
	Interval Duration
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Port:            envOrDefault(envPort, defaultPort),
		Location:        locationEnvOrDefault(envLocation, defaultLocation),
		MutationRetries: intEnvOrDefault(envMutationRetries, defaultMutationRetries),
		Store:           loadStore(),
		Auth: AuthConfig{
			JWTSecret: envOrDefault(envJWTSecret, ""),
			JWTIssuer: envOrDefault(envJWTIssuer, ""),
		},
		Notify: NotifyConfig{
			WebhookURL:   envOrDefault(envWebhookURL, ""),
			WebhookToken: envOrDefault(envWebhookToken, ""),
			MaxAttempts:  intEnvOrDefault(envWebhookRetries, defaultWebhookTries),
			Timeout:      durationEnvOrDefault(envWebhookTimeout, defaultWebhookWait),
		},
		Reconcile: ReconcileConfig{
			Enabled:  boolEnvOrDefault(envReconcileOn, defaultReconcileOn),
			Interval: durationEnvOrDefault(envReconcileRate, defaultReconcileInterval),
		},
		Metrics: loadMetrics(),
		Log: LogConfig{
			Level:  envOrDefault(envLogLevel, defaultLogLevel),
			Format: envOrDefault(envLogFormat, defaultLogFormat),
		},
	}
}

func loadStore() StoreConfig {
	backend := strings.ToLower(strings.TrimSpace(envOrDefault(envStoreBackend, defaultStoreBackend)))
	if backend != StoreMongo {
		backend = StoreMemory
	}
	return StoreConfig{
		Backend:        backend,
		MongoURI:       envOrDefault(envMongoURI, ""),
		MongoDatabase:  envOrDefault(envMongoDatabase, defaultMongoDatabase),
		ConnectTimeout: durationEnvOrDefault(envMongoTimeout, defaultMongoTimeout),
	}
}
