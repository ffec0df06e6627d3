package config

import (
	"log/slog"
	"os"
	"strconv"
)

const (
	EnvDevelopment = "DEV"
	EnvProduction  = "PROD"
)

type AppConfig struct {
	KeycloakClientID     string
	KeycloakClientSecret string
	KeycloakRealm        string
	KeycloakURL          string
	PostgresURL          string
	SMTPHost             string
	SMTPPort             string
	SMTPFrom             string
	SMTPPassword         string
	AppBaseURL           string
	ProxyURL             string
	FeedURL              string
	DetailBaseURL        string
	CrawlSchedule        string // cron spec, e.g. "59 23 * * *"
	EnableFeedIngestion  bool
	MatchConcurrency     int
	NotifyIntervalSec    int
	StoreTimeoutSec      int
	RunStuckAfterMin     int
	AppEnv               string // EnvDevelopment or EnvProduction
	LogLevel             slog.Level
}

var Config AppConfig

func LoadConfig() {
	cfg := AppConfig{}

	cfg.AppEnv = os.Getenv("APP_ENV")
	cfg.KeycloakClientID = loadRequired("KEYCLOAK_CLIENT_ID")
	cfg.KeycloakClientSecret = loadRequired("KEYCLOAK_CLIENT_SECRET")
	cfg.KeycloakRealm = loadRequired("KEYCLOAK_REALM")
	cfg.KeycloakURL = loadRequired("KEYCLOAK_URL")
	cfg.PostgresURL = loadRequired("POSTGRES_URL")
	cfg.SMTPHost = loadRequired("SMTP_HOST")
	cfg.SMTPPort = loadRequired("SMTP_PORT")
	cfg.SMTPFrom = loadRequired("SMTP_FROM")
	cfg.SMTPPassword = loadRequired("SMTP_PASSWORD")
	cfg.AppBaseURL = loadOptional("APP_BASE_URL", "")
	cfg.ProxyURL = loadOptional("PROXY_URL", "")
	cfg.FeedURL = loadOptional("FEED_URL", "https://www.realestatecroatia.com/hrv/rss.asp")
	cfg.DetailBaseURL = loadOptional("DETAIL_BASE_URL", "http://www.realestatecroatia.com/hrv/detail.asp?id=")
	cfg.CrawlSchedule = loadOptional("CRAWL_SCHEDULE", "59 23 * * *")
	cfg.EnableFeedIngestion = loadOptional("ENABLE_FEED_INGESTION", "true") == "true"
	cfg.MatchConcurrency = loadOptionalInt("MATCH_CONCURRENCY", 8)
	cfg.NotifyIntervalSec = loadOptionalInt("NOTIFY_INTERVAL_SECONDS", 60)
	cfg.StoreTimeoutSec = loadOptionalInt("STORE_TIMEOUT_SECONDS", 10)
	cfg.RunStuckAfterMin = loadOptionalInt("RUN_STUCK_AFTER_MINUTES", 360)

	lvlString := loadOptional("LOG_LEVEL", "INFO")
	var err error
	cfg.LogLevel, err = parseLogLevel(lvlString)
	if err != nil {
		slog.Error("Invalid LOG_LEVEL", "error", err)
		cfg.LogLevel = slog.LevelInfo
	}

	Config = cfg
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	var err = level.UnmarshalText([]byte(s))
	return level, err
}

func loadRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error("Required env var not set", "key", key)
		os.Exit(1)
	}
	return value
}

func loadOptional(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func loadOptionalInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		slog.Error("Invalid value for env var, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func (c AppConfig) IsProduction() bool {
	return Config.AppEnv == EnvProduction
}
