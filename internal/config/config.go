package config

import (
	"os"
	"strconv"
	"time"
)

// Backends for the document corpus and the uploaded content.
const (
	CorpusBackendFile     = "file"
	CorpusBackendPostgres = "postgres"

	StorageBackendLocal = "local"
	StorageBackendMinIO = "minio"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CorpusConfig selects where document records are persisted.
type CorpusConfig struct {
	Backend string
	File    string
}

// StorageConfig selects where uploaded content is written.
type StorageConfig struct {
	Backend    string
	LocalRoot  string
	MaxBytes   int64
	PresignTTL time.Duration
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string
	File  string
	JSON  bool
}

// AuthConfig holds the bearer token verification settings.
// An empty JWTSecret disables authentication.
type AuthConfig struct {
	JWTSecret string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	Location    *time.Location
	TagCacheTTL time.Duration
	Corpus      CorpusConfig
	Storage     StorageConfig
	Log         LogConfig
	Auth        AuthConfig
	Database    DatabaseConfig
	MinIO       MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		Location:    getEnvLocation("TZ_LOCATION", time.UTC),
		TagCacheTTL: time.Duration(getEnvInt("TAG_CACHE_TTL_SEC", 300)) * time.Second,
		Corpus: CorpusConfig{
			Backend: getEnv("CORPUS_BACKEND", CorpusBackendFile),
			File:    getEnv("CORPUS_FILE", "data/documents.json"),
		},
		Storage: StorageConfig{
			Backend:    getEnv("STORAGE_BACKEND", StorageBackendLocal),
			LocalRoot:  getEnv("UPLOAD_ROOT", "public"),
			MaxBytes:   int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
			PresignTTL: time.Duration(getEnvInt("PRESIGN_TTL_SEC", 900)) * time.Second,
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
			JSON:  getEnvBool("LOG_JSON", true),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvLocation(key string, def *time.Location) *time.Location {
	if v := os.Getenv(key); v != "" {
		loc, err := time.LoadLocation(v)
		if err == nil {
			return loc
		}
	}
	return def
}
