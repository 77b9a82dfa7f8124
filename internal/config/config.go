package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Admission    AdmissionConfig
	RateLimit    RateLimitConfig
	Auth         AuthConfig
	Geo          GeoConfig
	Notification NotificationConfig
	Metrics      MetricsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AdmissionConfig bounds booking creation per municipality and day.
type AdmissionConfig struct {
	MaxPerDay   int
	Backend     string
	KeyTTLHours int
}

// RateLimitConfig throttles HTTP clients by address. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS         float64
	Burst       int
	IdleSeconds int
}

// AuthConfig defines authentication parameters for staff routes.
type AuthConfig struct {
	Enabled               bool
	JWTSecret             string
	AccessTokenTTLMinutes int
	StaffEmail            string
	StaffPasswordHash     string
}

// GeoConfig points at the external municipality directory.
type GeoConfig struct {
	DirectoryURL string
	TTLMinutes   int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// Admission backends.
const (
	AdmissionBackendMemory = "memory"
	AdmissionBackendRedis  = "redis"
)

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "municipal-booking-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Admission: AdmissionConfig{
			MaxPerDay:   getEnvAsInt("ADMISSION_MAX_PER_DAY", 5),
			Backend:     strings.ToLower(getEnv("ADMISSION_BACKEND", AdmissionBackendMemory)),
			KeyTTLHours: getEnvAsInt("ADMISSION_KEY_TTL_HOURS", 72),
		},
		RateLimit: RateLimitConfig{
			RPS:         rps,
			Burst:       getEnvAsInt("RATE_LIMIT_BURST", 20),
			IdleSeconds: getEnvAsInt("RATE_LIMIT_IDLE_SECONDS", 600),
		},
		Auth: AuthConfig{
			Enabled:               getEnvAsBool("AUTH_ENABLED", false),
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			StaffEmail:            os.Getenv("AUTH_STAFF_EMAIL"),
			StaffPasswordHash:     os.Getenv("AUTH_STAFF_PASSWORD_HASH"),
		},
		Geo: GeoConfig{
			DirectoryURL: os.Getenv("GEO_DIRECTORY_URL"),
			TTLMinutes:   getEnvAsInt("GEO_DIRECTORY_TTL_MINUTES", 720),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	if c.Admission.MaxPerDay <= 0 {
		return fmt.Errorf("ADMISSION_MAX_PER_DAY must be positive, got %d", c.Admission.MaxPerDay)
	}
	switch c.Admission.Backend {
	case AdmissionBackendMemory:
	case AdmissionBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("ADMISSION_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown ADMISSION_BACKEND %q", c.Admission.Backend)
	}
	if c.Auth.Enabled && (c.Auth.StaffEmail == "" || c.Auth.StaffPasswordHash == "") {
		return fmt.Errorf("AUTH_ENABLED requires AUTH_STAFF_EMAIL and AUTH_STAFF_PASSWORD_HASH")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// KeyTTL returns how long a redis admission counter outlives its date.
func (a AdmissionConfig) KeyTTL() time.Duration {
	if a.KeyTTLHours <= 0 {
		return 0
	}
	return time.Duration(a.KeyTTLHours) * time.Hour
}

// IdleTTL returns how long an unused client bucket is kept.
func (r RateLimitConfig) IdleTTL() time.Duration {
	if r.IdleSeconds <= 0 {
		return 0
	}
	return time.Duration(r.IdleSeconds) * time.Second
}

// TTL returns the directory cache lifetime.
func (g GeoConfig) TTL() time.Duration {
	if g.TTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(g.TTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
