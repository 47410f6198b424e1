// Package settings persists the user's per-provider API key and model.
package settings

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"study-helper/internal/message"
)

// Config is the snapshot of settings a single request works with.
type Config struct {
	APIKey    string `json:"apiKey"`
	Model     string `json:"model"`
	AutoPanel bool   `json:"autoPanel"`
}

// Namespace holds the storage keys and defaults of one provider.
type Namespace struct {
	APIKeyKey    string
	ModelKey     string
	DefaultModel string
}

// AutoPanelKey is shared by every provider.
const AutoPanelKey = "autoPanel"

var namespaces = map[message.Provider]Namespace{
	message.Gemini:     {APIKeyKey: "geminiApiKey", ModelKey: "geminiModel", DefaultModel: "gemini-1.5-flash"},
	message.OpenRouter: {APIKeyKey: "openrouterApiKey", ModelKey: "aiModel", DefaultModel: "deepseek/deepseek-chat"},
	message.Groq:       {APIKeyKey: "groqApiKey", ModelKey: "groqModel", DefaultModel: "llama-3.1-8b-instant"},
}

// NamespaceFor returns the keys used for p. Unknown providers get keys derived from the name.
func NamespaceFor(p message.Provider) Namespace {
	if ns, ok := namespaces[p]; ok {
		return ns
	}
	return Namespace{APIKeyKey: string(p) + "ApiKey", ModelKey: string(p) + "Model"}
}

// DefaultModel is the model used when none is stored.
func DefaultModel(p message.Provider) string {
	return NamespaceFor(p).DefaultModel
}

// Backend is a flat key-value store.
type Backend interface {
	// Load returns the stored values for keys. Missing keys are absent from the map.
	Load(ctx context.Context, keys []string) (map[string]string, error)
	// Save overwrites the given keys.
	Save(ctx context.Context, values map[string]string) error
	Close() error
}

// Settings is what the coordinator and the HTTP API need from the store.
type Settings interface {
	Get(ctx context.Context, p message.Provider) Config
	Set(ctx context.Context, p message.Provider, cfg Config) error
	SetAutoPanel(ctx context.Context, on bool) error
}

// Store maps provider-namespaced keys onto a Backend.
type Store struct {
	log     *slog.Logger
	backend Backend
}

var _ Settings = (*Store)(nil)

func NewStore(log *slog.Logger, backend Backend) *Store {
	return &Store{log: log, backend: backend}
}

// Get never fails: backend errors are logged and defaults are returned.
func (s *Store) Get(ctx context.Context, p message.Provider) Config {
	ns := NamespaceFor(p)
	values, err := s.backend.Load(ctx, []string{ns.APIKeyKey, ns.ModelKey, AutoPanelKey})
	if err != nil {
		s.log.Warn("failed to load settings; using defaults", "provider", p, "err", err)
		values = map[string]string{}
	}
	cfg := Config{
		APIKey: values[ns.APIKeyKey],
		Model:  values[ns.ModelKey],
	}
	if cfg.Model == "" {
		cfg.Model = ns.DefaultModel
	}
	if raw, ok := values[AutoPanelKey]; ok {
		cfg.AutoPanel, _ = strconv.ParseBool(raw)
	}
	return cfg
}

// Set overwrites the API key and model of p. The key is trimmed; an empty model
// stores the provider default.
func (s *Store) Set(ctx context.Context, p message.Provider, cfg Config) error {
	ns := NamespaceFor(p)
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = ns.DefaultModel
	}
	return s.backend.Save(ctx, map[string]string{
		ns.APIKeyKey: strings.TrimSpace(cfg.APIKey),
		ns.ModelKey:  model,
	})
}

// SetAutoPanel persists the auto-open preference of the page panel.
func (s *Store) SetAutoPanel(ctx context.Context, on bool) error {
	return s.backend.Save(ctx, map[string]string{AutoPanelKey: strconv.FormatBool(on)})
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
