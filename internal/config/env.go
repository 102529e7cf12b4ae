package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all environment-driven configuration for the service.
// Loaded once at startup into the package-level Env.
type Config struct {
	Port        int
	Environment string

	MongoDBURI    string
	RedisURI      string
	PostgresDSN   string
	ClickHouseDSN string
	NATSURL       string

	JWTSecret string

	OTELExporterEndpoint string

	// Admission middleware options (spec.md §6), all injected into the
	// limiter core rather than read by the core itself.
	RateLimitEnabled      bool
	DefaultBucketCapacity float64
	DefaultRefillRate     float64
	RateLimitKeyPrefix    string
	RateLimitKeyTTL       time.Duration
	RateLimitFailOpen     bool
	StoreConnectTimeout   time.Duration
	StoreOpTimeout        time.Duration
	StoreMaxReconnectTries int

	AnthropicAPIKey string
	OpenAIAPIKey    string
	LLMProvider     string

	GitHubToken string
}

var Env *Config

func Load() {
	port, _ := strconv.Atoi(getEnvOrDefault("PORT", "3000"))
	rateLimitEnabled := getEnvOrDefault("RATE_LIMIT_ENABLED", "true")
	bucketCapacity, _ := strconv.ParseFloat(getEnvOrDefault("RATE_LIMIT_DEFAULT_CAPACITY", "10"), 64)
	refillRate, _ := strconv.ParseFloat(getEnvOrDefault("RATE_LIMIT_DEFAULT_REFILL_RATE", "0.1"), 64)
	keyTTLSeconds, _ := strconv.Atoi(getEnvOrDefault("RATE_LIMIT_KEY_TTL_SECONDS", "86400"))
	storeConnectSeconds, _ := strconv.Atoi(getEnvOrDefault("RATE_LIMIT_STORE_CONNECT_TIMEOUT_SECONDS", "30"))
	storeOpMillis, _ := strconv.Atoi(getEnvOrDefault("RATE_LIMIT_STORE_OP_TIMEOUT_MS", "5000"))
	maxReconnectTries, _ := strconv.Atoi(getEnvOrDefault("RATE_LIMIT_STORE_MAX_RECONNECT_TRIES", "3"))
	failOpen := getEnvOrDefault("RATE_LIMIT_FAIL_OPEN", "false")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	Env = &Config{
		Port:        port,
		Environment: getEnvOrDefault("GO_ENV", "development"),

		MongoDBURI:    getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017/flarenet"),
		RedisURI:      getEnvOrDefault("REDIS_URI", "redis://localhost:6379"),
		PostgresDSN:   getEnvOrDefault("POSTGRES_DSN", "postgres://localhost:5432/flarenet"),
		ClickHouseDSN: getEnvOrDefault("CLICKHOUSE_DSN", "clickhouse://localhost:9000/flarenet"),
		NATSURL:       getEnvOrDefault("NATS_URL", "nats://localhost:4222"),

		JWTSecret: jwtSecret,

		OTELExporterEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318/v1/traces"),

		RateLimitEnabled:       rateLimitEnabled != "false" && rateLimitEnabled != "0",
		DefaultBucketCapacity:  bucketCapacity,
		DefaultRefillRate:      refillRate,
		RateLimitKeyPrefix:     getEnvOrDefault("RATE_LIMIT_KEY_PREFIX", "ratelimit:"),
		RateLimitKeyTTL:        time.Duration(keyTTLSeconds) * time.Second,
		RateLimitFailOpen:      failOpen != "false" && failOpen != "0",
		StoreConnectTimeout:    time.Duration(storeConnectSeconds) * time.Second,
		StoreOpTimeout:         time.Duration(storeOpMillis) * time.Millisecond,
		StoreMaxReconnectTries: maxReconnectTries,

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		LLMProvider:     getEnvOrDefault("LLM_PROVIDER", "anthropic"),

		GitHubToken: os.Getenv("GITHUB_TOKEN"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
