package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// Server connection
	ServerURL     string
	ClientTimeout time.Duration

	// Debate polling
	PollInterval time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		ServerURL:     getEnv("MYGO_SERVER_URL", "http://localhost:8080"),
		ClientTimeout: parseDuration(getEnv("MYGO_CLIENT_TIMEOUT", ""), 5*time.Minute),
		PollInterval:  parseDuration(getEnv("MYGO_POLL_INTERVAL", ""), 2*time.Second),
		LogFile:       getEnv("MYGO_LOG_FILE", "/tmp/mygo.log"),
		LogLevel:      parseLogLevel(getEnv("MYGO_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
