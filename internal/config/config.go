package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	InvitationTTL   time.Duration
	CookieDomain    string
	CookieSecure    bool
	CookieSameSite  http.SameSite

	MapsAPIKey  string
	MapsBaseURL string

	StorageBaseURL string
	StorageAPIKey  string
	StorageBucket  string

	ActiveSetCacheTTL time.Duration
	DistanceCacheTTL  time.Duration

	RateLimitWindow time.Duration
	RateLimitMax    int

	OutboundTimeout       time.Duration
	RetryBase             time.Duration
	RetryMaxAttempts      int
	RetryJitterPercent    float64
	CircuitGeoMinReq      int
	CircuitGeoFailureRate float64
	CircuitGeoOpenFor     time.Duration

	MaxUploadBytes int64

	QueueRedisPrefix       string
	QueueMaxAttempts       int
	QueueVisibilityTimeout time.Duration
	QueueBackoffBase       time.Duration
	QueueBackoffJitter     float64
	IdempotencyTTL         time.Duration

	WorkerConcurrency       int
	WorkerHeartbeatInterval time.Duration
	WorkerJobSoftDeadline   time.Duration
	LockTTL                 time.Duration
	LockRetryBackoff        time.Duration

	DBMaxConns int
	DBMinConns int

	RunMigrations bool
	MigrationsDir string

	NotifyEmailEnabled        bool
	NotifyEmailFrom           string
	NotifyEmailDisabledTopics []string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		AccessTokenTTL:  parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		RefreshTokenTTL: parseDuration(k.String("REFRESH_TOKEN_TTL"), "720h"),
		InvitationTTL:   parseDuration(k.String("INVITATION_TTL"), "168h"),
		CookieDomain:    strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:    parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite:  parseSameSite(k.String("COOKIE_SAMESITE")),

		MapsAPIKey:  k.String("MAPS_API_KEY"),
		MapsBaseURL: valueOrDefault(k.String("MAPS_BASE_URL"), "https://maps.googleapis.com/maps/api"),

		StorageBaseURL: k.String("STORAGE_BASE_URL"),
		StorageAPIKey:  k.String("STORAGE_API_KEY"),
		StorageBucket:  valueOrDefault(k.String("STORAGE_BUCKET"), "spontis-uploads"),

		ActiveSetCacheTTL: parseDuration(k.String("ACTIVE_SET_CACHE_TTL"), "5m"),
		DistanceCacheTTL:  parseDuration(k.String("DISTANCE_CACHE_TTL"), "24h"),

		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:    intOrDefault(k.String("RATE_LIMIT_MAX"), 120),

		OutboundTimeout:       parseDuration(k.String("OUTBOUND_TIMEOUT"), "10s"),
		RetryBase:             parseDuration(k.String("RETRY_BASE"), "200ms"),
		RetryMaxAttempts:      intOrDefault(k.String("RETRY_MAX_ATTEMPTS"), 3),
		RetryJitterPercent:    floatOrDefault(k.String("RETRY_JITTER_PERCENT"), 0.2),
		CircuitGeoMinReq:      intOrDefault(k.String("CIRCUIT_GEO_MIN_REQ"), 10),
		CircuitGeoFailureRate: floatOrDefault(k.String("CIRCUIT_GEO_FAILURE_RATE"), 0.5),
		CircuitGeoOpenFor:     parseDuration(k.String("CIRCUIT_GEO_OPEN_FOR"), "30s"),

		MaxUploadBytes: int64(intOrDefault(k.String("MAX_UPLOAD_BYTES"), 5<<20)),

		QueueRedisPrefix:       valueOrDefault(k.String("QUEUE_REDIS_PREFIX"), "spontis"),
		QueueMaxAttempts:       intOrDefault(k.String("QUEUE_MAX_ATTEMPTS"), 5),
		QueueVisibilityTimeout: parseDuration(k.String("QUEUE_VISIBILITY_TIMEOUT"), "60s"),
		QueueBackoffBase:       parseDuration(k.String("QUEUE_BACKOFF_BASE"), "2s"),
		QueueBackoffJitter:     floatOrDefault(k.String("QUEUE_BACKOFF_JITTER"), 0.2),
		IdempotencyTTL:         parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		WorkerConcurrency:       intOrDefault(k.String("WORKER_CONCURRENCY"), 10),
		WorkerHeartbeatInterval: parseDuration(k.String("WORKER_HEARTBEAT_INTERVAL"), "15s"),
		WorkerJobSoftDeadline:   parseDuration(k.String("WORKER_JOB_SOFT_DEADLINE"), "45s"),
		LockTTL:                 parseDuration(k.String("LOCK_TTL"), "30s"),
		LockRetryBackoff:        parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),

		DBMaxConns: intOrDefault(k.String("DB_MAX_CONNS"), 0),
		DBMinConns: intOrDefault(k.String("DB_MIN_CONNS"), 0),

		RunMigrations: parseBool(k.String("RUN_MIGRATIONS")),
		MigrationsDir: valueOrDefault(k.String("MIGRATIONS_DIR"), "migrations"),

		NotifyEmailEnabled:        boolOrDefault(k.String("NOTIFY_EMAIL_ENABLED"), true),
		NotifyEmailFrom:           valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "no-reply@spontis.ch"),
		NotifyEmailDisabledTopics: splitAndTrim(k.String("NOTIFY_EMAIL_DISABLED_TOPICS")),
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func boolOrDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func intOrDefault(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(trimmed, "%d", &parsed); err != nil {
		return fallback
	}
	return parsed
}

func floatOrDefault(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var parsed float64
	if _, err := fmt.Sscanf(trimmed, "%g", &parsed); err != nil {
		return fallback
	}
	return parsed
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
