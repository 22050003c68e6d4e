package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverJSON     = "json"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	APIPort  string
	LogLevel string

	DataDir     string
	StoreDriver string
	SQLitePath  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	// RedisAddr left empty keeps sessions and rate limits in process memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionSecret []byte
	SessionTTL    time.Duration
	CookieSecure  bool

	// TrustProxy honours X-Forwarded-For / X-Real-IP. Only enable behind a
	// proxy that overwrites them, as the rate limiter keys on the client IP.
	TrustProxy bool

	AuthRateLimit  int
	AuthRateWindow time.Duration

	AvatarUsersAPIURL      string
	AvatarThumbnailsAPIURL string
	AvatarTimeout          time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:                getEnv("PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DataDir:                getEnv("DATA_DIR", "./data"),
		StoreDriver:            strings.ToLower(getEnv("STORE_DRIVER", StoreDriverJSON)),
		SQLitePath:             getEnv("SQLITE_PATH", "./data/records.db"),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "user"),
		DBPassword:             getEnv("DB_PASSWORD", "password"),
		DBName:                 getEnv("DB_NAME", "avatar_survey"),
		DBSslMode:              getEnv("DB_SSLMODE", "disable"),
		RedisAddr:              getEnv("REDIS_ADDR", ""),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		SessionSecret:          []byte(getEnv("SESSION_SECRET", "defaultsecret")),
		SessionTTL:             time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		CookieSecure:           getEnvAsBool("COOKIE_SECURE", false),
		TrustProxy:             getEnvAsBool("TRUST_PROXY", false),
		AuthRateLimit:          getEnvAsInt("AUTH_RATE_LIMIT", 5),
		AuthRateWindow:         time.Duration(getEnvAsInt("AUTH_RATE_WINDOW_MINUTES", 15)) * time.Minute,
		AvatarUsersAPIURL:      getEnv("AVATAR_USERS_API_URL", "https://users.roblox.com"),
		AvatarThumbnailsAPIURL: getEnv("AVATAR_THUMBNAILS_API_URL", "https://thumbnails.roblox.com"),
		AvatarTimeout:          time.Duration(getEnvAsInt("AVATAR_TIMEOUT_SECONDS", 10)) * time.Second,
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg
}

// UsesRedis reports whether sessions and rate limits should live in Redis.
func (c *Config) UsesRedis() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
