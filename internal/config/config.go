package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config is built once at startup and handed to every constructor that needs it.
type Config struct {
	Env      string `mapstructure:"APP_ENV"`
	Port     int    `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTTTLHours int    `mapstructure:"JWT_TTL_HOURS"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	CORSAllowedOrigins  string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	AuthRateLimit       int    `mapstructure:"AUTH_RATE_LIMIT"`
	AuthRateWindowSecs  int    `mapstructure:"AUTH_RATE_WINDOW_SECONDS"`
	WriteRateLimit      int    `mapstructure:"WRITE_RATE_LIMIT"`
	WriteRateWindowSecs int    `mapstructure:"WRITE_RATE_WINDOW_SECONDS"`

	DashboardCacheTTLSecs int    `mapstructure:"DASHBOARD_CACHE_TTL_SECONDS"`
	DashboardTimezone     string `mapstructure:"DASHBOARD_TIMEZONE"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
	AdminUsername string `mapstructure:"ADMIN_USERNAME"`

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	WorkerConcurrency    int    `mapstructure:"WORKER_CONCURRENCY"`
	WorkerPollIntervalMS int    `mapstructure:"WORKER_POLL_INTERVAL_MS"`
	WorkerInline         bool   `mapstructure:"WORKER_INLINE"`
	WorkerHealthPort     int    `mapstructure:"WORKER_HEALTH_PORT"`
	MaintenanceSchedule  string `mapstructure:"MAINTENANCE_SCHEDULE"`
}

var keys = []string{
	"APP_ENV", "PORT", "LOG_LEVEL",
	"STORE_DRIVER", "MONGO_URI", "MONGO_DATABASE",
	"JWT_SECRET", "JWT_TTL_HOURS",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"CORS_ALLOWED_ORIGINS", "AUTH_RATE_LIMIT", "AUTH_RATE_WINDOW_SECONDS",
	"WRITE_RATE_LIMIT", "WRITE_RATE_WINDOW_SECONDS",
	"DASHBOARD_CACHE_TTL_SECONDS", "DASHBOARD_TIMEZONE",
	"ADMIN_EMAIL", "ADMIN_PASSWORD", "ADMIN_USERNAME",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"WORKER_CONCURRENCY", "WORKER_POLL_INTERVAL_MS", "WORKER_INLINE", "WORKER_HEALTH_PORT",
	"MAINTENANCE_SCHEDULE",
}

// Load reads an optional .env file, then the process environment.
// It refuses to produce a config without a token-signing secret.
func Load() (Config, error) {
	// a missing .env is normal outside local dev
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", 5000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGO_URI", "mongodb://127.0.0.1:27017")
	v.SetDefault("MONGO_DATABASE", "rj_enterprise")
	v.SetDefault("JWT_TTL_HOURS", 30*24)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("AUTH_RATE_LIMIT", 20)
	v.SetDefault("AUTH_RATE_WINDOW_SECONDS", 60)
	v.SetDefault("WRITE_RATE_LIMIT", 60)
	v.SetDefault("WRITE_RATE_WINDOW_SECONDS", 60)
	v.SetDefault("DASHBOARD_CACHE_TTL_SECONDS", 30)
	v.SetDefault("DASHBOARD_TIMEZONE", "Local")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("WORKER_POLL_INTERVAL_MS", 500)
	v.SetDefault("WORKER_INLINE", false)
	v.SetDefault("WORKER_HEALTH_PORT", 9091)
	v.SetDefault("MAINTENANCE_SCHEDULE", "@every 5m")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if cfg.StoreDriver != StoreMemory {
		cfg.StoreDriver = StoreMongo
	}
	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	if cfg.JWTTTLHours <= 0 {
		cfg.JWTTTLHours = 30 * 24
	}
	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 20
	}
	if cfg.AuthRateWindowSecs <= 0 {
		cfg.AuthRateWindowSecs = 60
	}
	if cfg.WriteRateLimit <= 0 {
		cfg.WriteRateLimit = 60
	}
	if cfg.WriteRateWindowSecs <= 0 {
		cfg.WriteRateWindowSecs = 60
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 1
	}
	if cfg.WorkerPollIntervalMS <= 0 {
		cfg.WorkerPollIntervalMS = 500
	}

	return cfg, nil
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func (c Config) AuthRateWindow() time.Duration {
	return time.Duration(c.AuthRateWindowSecs) * time.Second
}

func (c Config) WriteRateWindow() time.Duration {
	return time.Duration(c.WriteRateWindowSecs) * time.Second
}

func (c Config) DashboardCacheTTL() time.Duration {
	return time.Duration(c.DashboardCacheTTLSecs) * time.Second
}

func (c Config) WorkerPollInterval() time.Duration {
	return time.Duration(c.WorkerPollIntervalMS) * time.Millisecond
}

// CORSOrigins splits the comma separated allow-list.
func (c Config) CORSOrigins() []string {
	out := make([]string, 0)
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Location resolves DASHBOARD_TIMEZONE; an unknown zone falls back to time.Local.
func (c Config) Location() *time.Location {
	name := strings.TrimSpace(c.DashboardTimezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("unknown DASHBOARD_TIMEZONE, using local time", "tz", name, "err", err)
		return time.Local
	}
	return loc
}

// LogLevelValue maps LOG_LEVEL onto slog levels. "dev" env forces debug.
func (c Config) LogLevelValue() slog.Level {
	if c.Env == "dev" && c.LogLevel == "" {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
