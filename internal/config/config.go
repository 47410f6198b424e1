package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration of the background service and its clients.
type Config struct {
	// Server
	Port      int    `env:"PORT" envDefault:"8787"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "text"

	// Provider used by the UI surfaces when none is given on the command line.
	Provider string `env:"PROVIDER" envDefault:"openrouter"` // "gemini", "openrouter" or "groq"

	// Settings
	SettingsProvider string `env:"SETTINGS_PROVIDER" envDefault:"file"` // "memory", "file", "redis" or "postgres"
	SettingsFile     string `env:"SETTINGS_FILE" envDefault:"study-helper/settings.yaml"`
	RedisAddr        string `env:"REDIS_ADDR"`
	RedisPassword    string `env:"REDIS_PASSWORD"`
	DBURL            string `env:"DB_URL"`

	// Tab bus
	BusProvider string `env:"BUS_PROVIDER" envDefault:"memory"` // "memory" or "nats"
	BusURL      string `env:"BUS_URL"`

	// LLM providers
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	GeminiBaseURLs    []string      `env:"GEMINI_BASE_URL" envSeparator:","`
	OpenRouterBaseURL []string      `env:"OPENROUTER_BASE_URL" envSeparator:","`
	GroqBaseURL       []string      `env:"GROQ_BASE_URL" envSeparator:","`

	// Clients (popup, options, content script)
	CoordinatorURL string `env:"COORDINATOR_URL" envDefault:"http://localhost:8787"`
	TabID          string `env:"TAB_ID"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
