package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"study-helper/internal/bus"
	"study-helper/internal/client"
	"study-helper/internal/config"
	"study-helper/internal/coordinator"
	"study-helper/internal/logger"
	"study-helper/internal/message"
	"study-helper/internal/provider"
	"study-helper/internal/settings"
)

// coordinatorMargin is added to the adapter timeout for outer deadlines so the
// adapter always answers first.
const coordinatorMargin = 5 * time.Second

// RouterTimeout is the chi request timeout for the background service.
func RouterTimeout(requestTimeout time.Duration) time.Duration {
	return requestTimeout + coordinatorMargin
}

// Deps bundles the runtime dependencies of the background service.
type Deps struct {
	Config      config.Config
	Log         *slog.Logger
	Settings    *settings.Store
	Bus         bus.Bus
	Adapters    *provider.Registry
	Menus       *coordinator.MenuRegistry
	Coordinator *coordinator.Coordinator
}

// Close releases the bus connection and the settings backend.
func (d Deps) Close() error {
	var errs []error
	if d.Bus != nil {
		errs = append(errs, d.Bus.Close())
	}
	if d.Settings != nil {
		errs = append(errs, d.Settings.Close())
	}
	return errors.Join(errs...)
}

// Env loads .env when present and returns the parsed config.
func Env() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return config.Load(), nil
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	cfg, err := Env()
	if err != nil {
		return Deps{}, err
	}
	log := logger.NewWithFormat(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	return BuildWith(cfg, log)
}

// BuildWith wires the service from an already loaded config.
func BuildWith(cfg config.Config, log *slog.Logger) (Deps, error) {
	backend, err := buildSettings(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize settings: %w", err)
	}
	st := settings.NewStore(log, backend)

	tabs, err := BuildBus(cfg, log)
	if err != nil {
		_ = st.Close()
		return Deps{}, fmt.Errorf("failed to initialize bus: %w", err)
	}

	adapters := buildAdapters(cfg, log)
	menus := coordinator.NewMenuRegistry()
	return Deps{
		Config:      cfg,
		Log:         log,
		Settings:    st,
		Bus:         tabs,
		Adapters:    adapters,
		Menus:       menus,
		Coordinator: coordinator.New(log, st, adapters, tabs, menus),
	}, nil
}

func buildSettings(cfg config.Config, log *slog.Logger) (settings.Backend, error) {
	switch cfg.SettingsProvider {
	case "memory":
		log.Info("using in-memory settings")
		return settings.NewMemoryBackend(), nil
	case "file":
		path := cfg.SettingsFile
		if !filepath.IsAbs(path) {
			dir, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("failed to resolve config dir: %w", err)
			}
			path = filepath.Join(dir, path)
		}
		fb, err := settings.NewFileBackend(path)
		if err != nil {
			return nil, err
		}
		log.Info("using file settings", "path", path)
		return fb, nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when SETTINGS_PROVIDER=redis")
		}
		rb, err := settings.NewRedisBackend(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		log.Info("using Redis settings")
		return rb, nil
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when SETTINGS_PROVIDER=postgres")
		}
		pb, err := settings.NewPostgresBackend(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres settings")
		return pb, nil
	default:
		return nil, fmt.Errorf("invalid SETTINGS_PROVIDER: %s (valid options: memory, file, redis, postgres)", cfg.SettingsProvider)
	}
}

// BuildBus connects the tab bus selected by BUS_PROVIDER.
func BuildBus(cfg config.Config, log *slog.Logger) (bus.Bus, error) {
	switch cfg.BusProvider {
	case "memory":
		log.Info("using in-memory tab bus")
		return bus.NewMemory(log), nil
	case "nats":
		if cfg.BusURL == "" {
			return nil, fmt.Errorf("BUS_URL is required when BUS_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.BusURL, nats.Name("study-helper"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS tab bus")
		return bus.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid BUS_PROVIDER: %s (valid options: memory, nats)", cfg.BusProvider)
	}
}

func buildAdapters(cfg config.Config, log *slog.Logger) *provider.Registry {
	opts := func(baseURLs []string) provider.Options {
		return provider.Options{BaseURLs: baseURLs, Timeout: cfg.RequestTimeout}
	}
	reg := provider.NewRegistry()
	reg.Register(message.Gemini, provider.NewGemini(log, opts(cfg.GeminiBaseURLs)))
	reg.Register(message.OpenRouter, provider.NewOpenRouter(log, opts(cfg.OpenRouterBaseURL)))
	reg.Register(message.Groq, provider.NewGroq(log, opts(cfg.GroqBaseURL)))
	log.Info("registered providers", "providers", reg.Known(), "timeout", cfg.RequestTimeout)
	return reg
}

// BuildClient loads the config and returns a coordinator client for the UI tools.
// Tools log as text to stderr.
func BuildClient() (config.Config, *slog.Logger, *client.Client, error) {
	cfg, err := Env()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log := logger.NewWithFormat(os.Stderr, cfg.LogLevel, "text")
	c := client.New(cfg.CoordinatorURL, RouterTimeout(cfg.RequestTimeout))
	return cfg, log, c, nil
}
