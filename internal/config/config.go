package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Режимы хранилища приёмов
const (
	GatewayPostgres = "postgres"
	GatewayHTTP     = "http"
)

// Политики проверки пересечений
const (
	ConflictConstrained = "constrained"
	ConflictAlways      = "always"
	ConflictNever       = "never"
)

type Config struct {
	TelegramToken  string
	DBDSN          string
	Environment    string
	LogLevel       string
	MigrationsPath string

	GatewayMode string
	APIBaseURL  string
	APIToken    string
	APITimeout  time.Duration

	Location         *time.Location
	PageSize         int
	FetchDebounce    time.Duration
	ConflictPolicy   string
	MetricsAddr      string
	ResyncInterval   time.Duration
	WorkspaceIdleTTL time.Duration
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    getenv("ENV", "development"),
		LogLevel:       strings.ToLower(os.Getenv("LOG_LEVEL")),
		MigrationsPath: getenv("MIGRATIONS_PATH", "migrations"),
		GatewayMode:    strings.ToLower(getenv("GATEWAY_MODE", GatewayPostgres)),
		APIBaseURL:     os.Getenv("API_BASE_URL"),
		APIToken:       os.Getenv("API_TOKEN"),
		ConflictPolicy: strings.ToLower(getenv("CONFLICT_POLICY", ConflictConstrained)),
		MetricsAddr:    getenv("METRICS_ADDR", ":9090"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	switch cfg.GatewayMode {
	case GatewayPostgres:
	case GatewayHTTP:
		if cfg.APIBaseURL == "" {
			return nil, fmt.Errorf("API_BASE_URL is required when GATEWAY_MODE=%s", GatewayHTTP)
		}
	default:
		return nil, fmt.Errorf("unknown GATEWAY_MODE %q", cfg.GatewayMode)
	}

	switch cfg.ConflictPolicy {
	case ConflictConstrained, ConflictAlways, ConflictNever:
	default:
		return nil, fmt.Errorf("unknown CONFLICT_POLICY %q", cfg.ConflictPolicy)
	}

	loc, err := time.LoadLocation(getenv("CLINIC_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("load CLINIC_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.PageSize, err = intEnv("PAGE_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return nil, fmt.Errorf("PAGE_SIZE must be between 1 and 100, got %d", cfg.PageSize)
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"API_TIMEOUT", 10 * time.Second, &cfg.APITimeout},
		{"FETCH_DEBOUNCE", 350 * time.Millisecond, &cfg.FetchDebounce},
		{"RESYNC_INTERVAL", 5 * time.Minute, &cfg.ResyncInterval},
		{"WORKSPACE_IDLE_TTL", 30 * time.Minute, &cfg.WorkspaceIdleTTL},
	}
	for _, d := range durations {
		if *d.dest, err = durationEnv(d.key, d.def); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return v, nil
}
