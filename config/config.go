package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cryptoTickStream/internal/adapters/logger"
	"cryptoTickStream/internal/domain"
)

// historyStartLayout is the wire format of the history window start date.
const historyStartLayout = "2006-01-02T15:04:05"

// Config holds all application configuration.
type Config struct {
	// Feed connection
	WSURL        string        // exchange feed endpoint
	Pair         domain.InstrumentPair
	ReadTimeout  time.Duration // transport silence window before heartbeat loss
	WriteTimeout time.Duration

	// Keepalive / reconnect
	HeartbeatInterval time.Duration
	ReconnectDelay    time.Duration

	// History request window
	HistoryStart string // fixed ISO-8601 baseline date
	HistorySize  int

	// Event delivery
	EventBufferSize int

	// Candle cache; empty path disables it
	DBPath string

	// Logging
	LogLevel slog.Level
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string

	cfg.WSURL = getEnv("WS_URL", "wss://www.lbkex.net/ws/V2/")
	if cfg.WSURL == "" {
		errs = append(errs, "WS_URL must be set")
	}

	pair, err := domain.ParsePair(getEnv("TOKEN_PAIR", domain.BTCUSDT.String()))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TOKEN_PAIR: %v", err))
	}
	cfg.Pair = pair

	readTimeoutSeconds := getEnvAsInt("READ_TIMEOUT_SECONDS", 60)
	if readTimeoutSeconds <= 0 {
		errs = append(errs, "READ_TIMEOUT_SECONDS must be positive")
	}
	cfg.ReadTimeout = time.Duration(readTimeoutSeconds) * time.Second

	writeTimeoutSeconds := getEnvAsInt("WRITE_TIMEOUT_SECONDS", 5)
	if writeTimeoutSeconds <= 0 {
		errs = append(errs, "WRITE_TIMEOUT_SECONDS must be positive")
	}
	cfg.WriteTimeout = time.Duration(writeTimeoutSeconds) * time.Second

	heartbeatSeconds := getEnvAsInt("HEARTBEAT_INTERVAL_SECONDS", 30)
	if heartbeatSeconds <= 0 {
		errs = append(errs, "HEARTBEAT_INTERVAL_SECONDS must be positive")
	}
	cfg.HeartbeatInterval = time.Duration(heartbeatSeconds) * time.Second

	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	// The baseline start of the service's history window is a fixed constant
	// by design; only the format is validated here.
	cfg.HistoryStart = getEnv("HISTORY_START", "2024-07-03T17:32:00")
	if _, err := time.Parse(historyStartLayout, cfg.HistoryStart); err != nil {
		errs = append(errs, fmt.Sprintf("invalid HISTORY_START: %v", err))
	}

	cfg.HistorySize = getEnvAsInt("HISTORY_SIZE", 300)
	if cfg.HistorySize <= 0 {
		errs = append(errs, "HISTORY_SIZE must be positive")
	}

	cfg.EventBufferSize = getEnvAsInt("EVENT_BUFFER_SIZE", 64)
	if cfg.EventBufferSize <= 0 {
		errs = append(errs, "EVENT_BUFFER_SIZE must be positive")
	}

	// Empty DB_PATH runs the client without the candle cache.
	cfg.DBPath = getEnv("DB_PATH", "./data/candle_cache.db")

	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
