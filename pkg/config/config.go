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

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Workflow      WorkflowConfig
	Cache         CacheConfig
	Documents     DocumentsConfig
	Notifications NotificationsConfig
	Metrics       MetricsConfig
	Swagger       SwaggerConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
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

// WorkflowConfig tunes proposal lifecycle rules.
type WorkflowConfig struct {
	MinAbstractLength   int
	MaxReviewNoteLength int
	AuditOverrides      bool
}

// CacheConfig toggles Redis-backed caching of lookup data.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// DocumentsConfig controls proposal attachment storage & validation.
type DocumentsConfig struct {
	StorageDir       string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// NotificationsConfig sizes the workflow notification worker pool.
type NotificationsConfig struct {
	Workers int
	Retries int
}

type MetricsConfig struct {
	Enabled bool
}

type SwaggerConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	minAbstract := v.GetInt("WORKFLOW_MIN_ABSTRACT_LENGTH")
	if minAbstract <= 0 {
		minAbstract = 100
	}
	maxNote := v.GetInt("WORKFLOW_MAX_REVIEW_NOTE_LENGTH")
	if maxNote <= 0 {
		maxNote = 2000
	}
	cfg.Workflow = WorkflowConfig{
		MinAbstractLength:   minAbstract,
		MaxReviewNoteLength: maxNote,
		AuditOverrides:      v.GetBool("WORKFLOW_AUDIT_OVERRIDES"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	maxDocSize := v.GetInt64("DOCUMENTS_MAX_FILE_SIZE")
	if maxDocSize <= 0 {
		maxDocSize = 10 * 1024 * 1024
	}
	cfg.Documents = DocumentsConfig{
		StorageDir:       v.GetString("DOCUMENTS_STORAGE_DIR"),
		SignedURLSecret:  v.GetString("DOCUMENTS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("DOCUMENTS_SIGNED_URL_TTL"), 30*time.Minute),
		MaxFileSizeBytes: maxDocSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("DOCUMENTS_ALLOWED_MIME_TYPES")),
	}

	cfg.Notifications = NotificationsConfig{
		Workers: v.GetInt("NOTIFICATIONS_WORKERS"),
		Retries: v.GetInt("NOTIFICATIONS_RETRIES"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}
	cfg.Swagger = SwaggerConfig{Enabled: v.GetBool("ENABLE_SWAGGER")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "p3m_polimdo")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("WORKFLOW_MIN_ABSTRACT_LENGTH", 100)
	v.SetDefault("WORKFLOW_MAX_REVIEW_NOTE_LENGTH", 2000)
	v.SetDefault("WORKFLOW_AUDIT_OVERRIDES", true)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("DOCUMENTS_STORAGE_DIR", "./uploads")
	v.SetDefault("DOCUMENTS_SIGNED_URL_SECRET", "dev_documents_secret")
	v.SetDefault("DOCUMENTS_SIGNED_URL_TTL", "30m")
	v.SetDefault("DOCUMENTS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("DOCUMENTS_ALLOWED_MIME_TYPES", "application/pdf,application/vnd.openxmlformats-officedocument.wordprocessingml.document,application/msword")

	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_RETRIES", 3)

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("ENABLE_SWAGGER", true)
}

func isMissingFile(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
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
