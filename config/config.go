package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	Port      string
	WebAppDir string // Path to the static frontend files
	StreamDir string // Local directory holding HLS playlists/segments

	DBDriver    string // "sqlite" or "postgres"
	SQLitePath  string
	DatabaseURL string // Postgres connection string

	JWTSecret string

	// Redis backs the station now-playing record. Optional.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MinIO backs HLS object serving. Optional; StreamDir is the fallback.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string

	StationRotateSeconds int // 0 disables rotation
	AuthRatePerMinute    int // per-IP budget for register/login

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		WebAppDir: getEnv("WEB_APP_DIR", filepath.Join("web", "ui")),
		StreamDir: getEnv("STREAM_DIR", filepath.Join("static", "streams")),

		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		SQLitePath:  getEnv("SQLITE_PATH", "wavefm.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "wavefm"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),

		StationRotateSeconds: getEnvInt("STATION_ROTATE_SECONDS", 180),
		AuthRatePerMinute:    getEnvInt("AUTH_RATE_PER_MINUTE", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
