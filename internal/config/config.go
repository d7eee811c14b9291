package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Geo      GeoConfig
	Report   ReportConfig
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
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32

	// StatementTimeoutMs bounds every query server side. Zero leaves the server default.
	StatementTimeoutMs int
	ApplicationName    string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr               string
	Password           string
	DB                 int
	DialTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// GeoConfig points at the public geocoding and postal-code services.
type GeoConfig struct {
	NominatimURL          string
	UserAgent             string
	RequestDelayMillis    int
	PostalURL             string
	PostalCacheTTLSeconds int
	HTTPTimeoutSeconds    int
}

// ReportConfig controls dashboard bucketing.
type ReportConfig struct {
	Timezone string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "dispatch-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:                os.Getenv("POSTGRES_DSN"),
			MaxConns:           int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:           int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:      getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:      getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec:     int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:     int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			StatementTimeoutMs: getEnvAsInt("POSTGRES_STATEMENT_TIMEOUT_MS", 15000),
			ApplicationName:    getEnv("APP_NAME", "dispatch-service"),
		},
		Redis: RedisConfig{
			Addr:               getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:           os.Getenv("REDIS_PASSWORD"),
			DB:                 redisDB,
			DialTimeoutSeconds: getEnvAsInt("REDIS_DIAL_TIMEOUT_SECONDS", 5),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 480),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Geo: GeoConfig{
			NominatimURL:          getEnv("GEO_NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:             getEnv("GEO_USER_AGENT", "dispatch-service/1.0"),
			RequestDelayMillis:    getEnvAsInt("GEO_REQUEST_DELAY_MS", 1100),
			PostalURL:             getEnv("GEO_POSTAL_URL", "https://viacep.com.br/ws"),
			PostalCacheTTLSeconds: getEnvAsInt("GEO_POSTAL_CACHE_TTL_SECONDS", 86400),
			HTTPTimeoutSeconds:    getEnvAsInt("GEO_HTTP_TIMEOUT_SECONDS", 10),
		},
		Report: ReportConfig{
			Timezone: getEnv("REPORT_TIMEZONE", "America/Sao_Paulo"),
		},
	}

	return cfg, nil
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

// RequestDelay is the pause enforced between sequential geocoding calls.
func (g GeoConfig) RequestDelay() time.Duration {
	if g.RequestDelayMillis < 0 {
		return 0
	}
	return time.Duration(g.RequestDelayMillis) * time.Millisecond
}

func (g GeoConfig) PostalCacheTTL() time.Duration {
	return time.Duration(g.PostalCacheTTLSeconds) * time.Second
}

func (g GeoConfig) HTTPTimeout() time.Duration {
	if g.HTTPTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.HTTPTimeoutSeconds) * time.Second
}

// Location resolves the report timezone, falling back to UTC.
func (r ReportConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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
