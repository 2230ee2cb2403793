package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"goalgate/backend/internal/model"
)

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"

	NotifyTerminal = "terminal"
	NotifyLog      = "log"
)

type Config struct {
	Addr          string
	Storage       string
	DBDriver      string
	DBPath        string
	MigrationsDir string
	CORSOrigins   []string
	Durations     model.Durations
	LogLevel      string
	Notify        string
	Location      *time.Location
}

// Load reads .env when present and then the process environment, which wins.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	return Config{
		Addr:          getEnv("GOALGATE_ADDR", "127.0.0.1:8080"),
		Storage:       getEnvChoice("GOALGATE_STORAGE", StorageSQLite, StorageSQLite, StorageMemory),
		DBDriver:      getEnvChoice("GOALGATE_DB_DRIVER", "sqlite3", "sqlite3", "sqlite"),
		DBPath:        getEnv("GOALGATE_DB_PATH", "./data/goalgate.db"),
		MigrationsDir: getEnv("GOALGATE_MIGRATIONS_DIR", "./migrations"),
		CORSOrigins:   getEnvList("GOALGATE_CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		Durations: model.Durations{
			FocusSeconds:      getEnvInt("GOALGATE_FOCUS_SECONDS", model.DefaultFocusDurationSeconds),
			ShortBreakSeconds: getEnvInt("GOALGATE_SHORT_BREAK_SECONDS", model.DefaultShortBreakDurationSeconds),
			LongBreakSeconds:  getEnvInt("GOALGATE_LONG_BREAK_SECONDS", model.DefaultLongBreakDurationSeconds),
		},
		LogLevel: getEnv("GOALGATE_LOG_LEVEL", "info"),
		Notify:   getEnvChoice("GOALGATE_NOTIFY", NotifyTerminal, NotifyTerminal, NotifyLog),
		Location: getEnvLocation("GOALGATE_TIMEZONE", time.Local),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// getEnvChoice returns fallback unless the value is one of allowed.
func getEnvChoice(key, fallback string, allowed ...string) string {
	value := strings.ToLower(getEnv(key, fallback))
	for _, candidate := range allowed {
		if value == candidate {
			return value
		}
	}
	slog.Warn("ignoring unsupported config value", "key", key, "value", value, "using", fallback)
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

func getEnvLocation(key string, fallback *time.Location) *time.Location {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	loc, err := time.LoadLocation(value)
	if err != nil {
		slog.Warn("unknown time zone", "key", key, "value", value)
		return fallback
	}
	return loc
}
