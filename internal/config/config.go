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
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Content  ContentConfig
	Cache    CacheConfig
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

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
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
	AdminEmail            string
	AdminPassword         string
	AdminName             string
}

// Content store backends.
const (
	ContentBackendLocal  = "local"
	ContentBackendS3     = "s3"
	ContentBackendMinIO  = "minio"
	ContentBackendMemory = "memory"
)

// ContentConfig selects and configures the article body store.
type ContentConfig struct {
	Backend  string
	LocalDir string
	S3       S3Config
	MinIO    MinIOConfig
}

// S3Config holds S3 (or S3-compatible) bucket settings. Empty keys fall back
// to the default AWS credential chain.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Prefix          string
	ForcePathStyle  bool
}

// MinIOConfig holds MinIO settings.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
	UseSSL          bool
}

// CacheConfig controls the Redis read-through cache.
type CacheConfig struct {
	GroupTTLSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "news-portal"),
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
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AdminEmail:            os.Getenv("AUTH_ADMIN_EMAIL"),
			AdminPassword:         os.Getenv("AUTH_ADMIN_PASSWORD"),
			AdminName:             getEnv("AUTH_ADMIN_NAME", "Administrator"),
		},
		Content: ContentConfig{
			Backend:  strings.ToLower(getEnv("CONTENT_BACKEND", ContentBackendLocal)),
			LocalDir: getEnv("CONTENT_LOCAL_DIR", "resources/news/content"),
			S3: S3Config{
				Bucket:          os.Getenv("CONTENT_S3_BUCKET"),
				Region:          getEnv("CONTENT_S3_REGION", "us-east-1"),
				Endpoint:        os.Getenv("CONTENT_S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("CONTENT_S3_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("CONTENT_S3_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("CONTENT_S3_SESSION_TOKEN"),
				Prefix:          getEnv("CONTENT_S3_PREFIX", "news/content"),
				ForcePathStyle:  getEnvAsBool("CONTENT_S3_FORCE_PATH_STYLE", false),
			},
			MinIO: MinIOConfig{
				Endpoint:        getEnv("CONTENT_MINIO_ENDPOINT", "localhost:9000"),
				AccessKeyID:     os.Getenv("CONTENT_MINIO_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("CONTENT_MINIO_SECRET_ACCESS_KEY"),
				Bucket:          getEnv("CONTENT_MINIO_BUCKET", "news"),
				Prefix:          getEnv("CONTENT_MINIO_PREFIX", "content"),
				UseSSL:          getEnvAsBool("CONTENT_MINIO_USE_SSL", false),
			},
		},
		Cache: CacheConfig{
			GroupTTLSeconds: getEnvAsInt("CACHE_GROUP_TTL_SECONDS", 300),
		},
	}

	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return nil, fmt.Errorf("invalid AUTH_BCRYPT_COST: %d", cfg.Auth.BcryptCost)
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

// GroupTTL returns how long news groups stay cached.
func (c CacheConfig) GroupTTL() time.Duration {
	if c.GroupTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.GroupTTLSeconds) * time.Second
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
