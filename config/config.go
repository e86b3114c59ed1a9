package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	PersistenceAPI      = "api"
	PersistencePostgres = "postgres"
)

type Config struct {
	HttpPort string
	AppEnv   string

	// remote assistant API
	APIBaseURL     string
	APIToken       string
	RequestTimeout time.Duration
	// "api" talks to the persistence API, "postgres" reads and writes the tables directly
	PersistenceMode string

	// Redis
	RedisURL      string
	RedisPassword string

	// Postgres
	Host     string
	User     string
	Password string
	DBName   string
	Port     string

	// session
	UserID              string
	DisplayMode         string
	ListingRefreshDelay time.Duration
	RenderMarkdown      bool

	AllowOrigins string
}

// LoadConfig reads .env when present and then the process environment.
func LoadConfig() *Config {
	_ = godotenv.Load()
	return &Config{
		HttpPort:            getEnv("PORT", "3000"),
		AppEnv:              getEnv("APP_ENV", "dev"),
		APIBaseURL:          getEnv("QA_API_BASE_URL", "http://localhost:8000"),
		APIToken:            os.Getenv("QA_API_TOKEN"),
		RequestTimeout:      getDuration("QA_REQUEST_TIMEOUT", 60*time.Second),
		PersistenceMode:     getEnv("PERSISTENCE_MODE", PersistenceAPI),
		RedisURL:            os.Getenv("REDIS_URL"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		Host:                os.Getenv("PG_HOST"),
		User:                os.Getenv("PG_USER"),
		Password:            os.Getenv("PG_PASSWORD"),
		DBName:              os.Getenv("PG_DB"),
		Port:                getEnv("PG_PORT", "5432"),
		UserID:              getEnv("QA_USER_ID", "local"),
		DisplayMode:         getEnv("DISPLAY_MODE", "detailed"),
		ListingRefreshDelay: getDuration("LISTING_REFRESH_DELAY", time.Second),
		RenderMarkdown:      os.Getenv("RENDER_MARKDOWN") == "true",
		AllowOrigins:        getEnv("ALLOWORIGINS", "*"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration accepts Go durations ("1500ms") or plain seconds ("2").
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
