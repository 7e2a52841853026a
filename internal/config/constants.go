package config

import "time"

const (
	envPort            = "PORT"
	envLocation        = "GAME_TIMEZONE"
	envStoreBackend    = "STORE_BACKEND"
	envMongoURI        = "MONGODB_URI"
	envMongoDatabase   = "MONGODB_DATABASE"
	envMongoTimeout    = "MONGODB_CONNECT_TIMEOUT"
	envJWTSecret       = "AUTH_JWT_SECRET"
	envJWTIssuer       = "AUTH_JWT_ISSUER"
	envWebhookURL      = "NOTIFY_WEBHOOK_URL"
	envWebhookToken    = "NOTIFY_WEBHOOK_TOKEN"
	envWebhookRetries  = "NOTIFY_WEBHOOK_RETRIES"
	envWebhookTimeout  = "NOTIFY_WEBHOOK_TIMEOUT"
	envReconcileOn     = "RECONCILE_ENABLED"
	envReconcileRate   = "RECONCILE_INTERVAL"
	envMutationRetries = "MUTATION_RETRIES"
	envMetricsPort     = "METRICS_PORT"
	envMetricsOn       = "METRICS_ENABLED"
	envOtelEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService     = "OTEL_SERVICE_NAME"
	envOtelInsecure    = "OTEL_EXPORTER_OTLP_INSECURE"
	envLogLevel        = "LOG_LEVEL"
	envLogFormat       = "LOG_FORMAT"

	defaultPort          = "4000"
	defaultLocation      = "UTC"
	defaultStoreBackend  = StoreMemory
	defaultMongoDatabase = "pickup"
	defaultMongoTimeout  = 10 * Duration(time.Second)
	defaultWebhookTries  = 3
	defaultWebhookWait   = 5 * Duration(time.Second)
	defaultReconcileOn   = true

	// Sweeps are cheap but touch every user document; five minutes keeps load low.
	defaultReconcileInterval = 5 * Duration(time.Minute)
	defaultMutationRetries   = 5
	defaultMetricsPort       = "9090"
	defaultServiceName       = "pickup-games"
	defaultLogLevel          = "info"
	defaultLogFormat         = "text"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)
