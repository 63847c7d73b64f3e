package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Access   AccessConfig
	Realtime RealtimeConfig
	Workflow WorkflowConfig
	Settings SettingsConfig
	Watcher  WatcherConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AccessConfig tunes the access matrix sync loop and guard behaviour.
type AccessConfig struct {
	SyncInterval         time.Duration
	AcceptUnknownModules bool
	LoginPath            string
}

// RealtimeConfig configures the event stream and its Redis fan-out channel.
type RealtimeConfig struct {
	Channel           string
	AllowedOrigins    []string
	PublishWorkers    int
	PublishRetries    int
	PublishRetryDelay time.Duration
}

// WorkflowConfig toggles the goal workflow endpoints.
type WorkflowConfig struct {
	Enabled bool
}

// SettingsConfig governs the settings API cache and defaults.
type SettingsConfig struct {
	CacheTTL          time.Duration
	SchoolDisplayName string
}

// WatcherConfig is read by the access-watch client.
type WatcherConfig struct {
	ServerURL string
	EventsURL string
	Token     string
	Paths     []string
	Role      string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:            v.GetString("DB_HOST"),
		Port:            v.GetInt("DB_PORT"),
		User:            v.GetString("DB_USER"),
		Password:        v.GetString("DB_PASSWORD"),
		Name:            v.GetString("DB_NAME"),
		SSLMode:         v.GetString("DB_SSL_MODE"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Access = AccessConfig{
		SyncInterval:         parseDuration(v.GetString("ACCESS_SYNC_INTERVAL"), 30*time.Second),
		AcceptUnknownModules: v.GetBool("ACCESS_ACCEPT_UNKNOWN_MODULES"),
		LoginPath:            v.GetString("ACCESS_LOGIN_PATH"),
	}

	cfg.Realtime = RealtimeConfig{
		Channel:           v.GetString("REALTIME_CHANNEL"),
		AllowedOrigins:    splitAndTrim(v.GetString("WS_ALLOWED_ORIGINS")),
		PublishWorkers:    v.GetInt("REALTIME_PUBLISH_WORKERS"),
		PublishRetries:    v.GetInt("REALTIME_PUBLISH_RETRIES"),
		PublishRetryDelay: parseDuration(v.GetString("REALTIME_PUBLISH_RETRY_DELAY"), time.Second),
	}

	cfg.Workflow = WorkflowConfig{
		Enabled: v.GetBool("ENABLE_GOAL_WORKFLOW"),
	}

	cfg.Settings = SettingsConfig{
		CacheTTL:          parseDuration(v.GetString("SETTINGS_CACHE_TTL"), 5*time.Minute),
		SchoolDisplayName: v.GetString("SCHOOL_DISPLAY_NAME"),
	}

	cfg.Watcher = WatcherConfig{
		ServerURL: strings.TrimRight(v.GetString("ACCESS_SERVER_URL"), "/"),
		EventsURL: v.GetString("ACCESS_EVENTS_URL"),
		Token:     v.GetString("ACCESS_TOKEN"),
		Paths:     splitAndTrim(v.GetString("ACCESS_WATCH_PATHS")),
		Role:      v.GetString("ACCESS_WATCH_ROLE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "pdi")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "pdi-api")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ACCESS_SYNC_INTERVAL", "30s")
	v.SetDefault("ACCESS_ACCEPT_UNKNOWN_MODULES", false)
	v.SetDefault("ACCESS_LOGIN_PATH", "/login")

	v.SetDefault("REALTIME_CHANNEL", "pdi:events")
	v.SetDefault("WS_ALLOWED_ORIGINS", "")
	v.SetDefault("REALTIME_PUBLISH_WORKERS", 2)
	v.SetDefault("REALTIME_PUBLISH_RETRIES", 3)
	v.SetDefault("REALTIME_PUBLISH_RETRY_DELAY", "1s")

	v.SetDefault("ENABLE_GOAL_WORKFLOW", true)

	v.SetDefault("SETTINGS_CACHE_TTL", "5m")
	v.SetDefault("SCHOOL_DISPLAY_NAME", "")

	v.SetDefault("ACCESS_SERVER_URL", "http://localhost:8080/api/v1")
	v.SetDefault("ACCESS_EVENTS_URL", "")
	v.SetDefault("ACCESS_TOKEN", "")
	v.SetDefault("ACCESS_WATCH_PATHS", "/teacher/hours,/teacher/goals,/admin/settings")
	v.SetDefault("ACCESS_WATCH_ROLE", "TEACHER")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
