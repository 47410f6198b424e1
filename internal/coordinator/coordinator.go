// Package coordinator is the privileged background side: it owns the settings
// and the provider adapters and answers the UI surfaces.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"study-helper/internal/bus"
	"study-helper/internal/httputil"
	"study-helper/internal/message"
	"study-helper/internal/provider"
	"study-helper/internal/settings"
	"study-helper/internal/style"
)

const (
	emptyPrompt = "Please enter a question."

	deliveryAttempts = 3
	deliveryBackoff  = 200 * time.Millisecond
)

// Coordinator holds no state between requests.
type Coordinator struct {
	log      *slog.Logger
	settings settings.Settings
	adapters *provider.Registry
	tabs     bus.Bus
	menus    Menus
}

func New(log *slog.Logger, st settings.Settings, adapters *provider.Registry, tabs bus.Bus, menus Menus) *Coordinator {
	return &Coordinator{
		log:      log,
		settings: st,
		adapters: adapters,
		tabs:     tabs,
		menus:    menus,
	}
}

// Install registers the selection context menu entry. Run once at startup.
func (c *Coordinator) Install(ctx context.Context) error {
	err := c.menus.Create(ctx, MenuItem{
		ID:       MenuItemID,
		Title:    MenuItemTitle,
		Contexts: []string{ContextSelection},
	})
	if err != nil {
		return fmt.Errorf("register context menu: %w", err)
	}
	c.log.Info("context menu registered", "id", MenuItemID)
	return nil
}

// OnMenuClick forwards the selection to the page. The page starts the request.
func (c *Coordinator) OnMenuClick(ctx context.Context, click MenuClick) error {
	if click.MenuItemID != MenuItemID || strings.TrimSpace(click.SelectionText) == "" {
		c.log.Debug("ignoring context menu click", "id", click.MenuItemID, "tab_id", click.TabID)
		return nil
	}
	return c.SendToTab(ctx, click.TabID, message.ProcessSelection(click.SelectionText))
}

// SendToTab pushes ev to the content script of tabID.
func (c *Coordinator) SendToTab(ctx context.Context, tabID string, ev message.Event) error {
	if err := bus.SendWithRetry(ctx, c.tabs, tabID, ev, deliveryAttempts, deliveryBackoff); err != nil {
		return fmt.Errorf("deliver %s to tab %s: %w", ev.Type, tabID, err)
	}
	return nil
}

// HandleMessage is the single entry point for "<PROVIDER>_REQUEST" envelopes.
func (c *Coordinator) HandleMessage(ctx context.Context, env message.Envelope) message.Result {
	p, ok := message.ProviderForType(env.Type)
	if !ok {
		return message.Failure("Unsupported message type %q.", env.Type)
	}
	if len(env.Payload) == 0 {
		return message.Failure(emptyPrompt)
	}
	var req message.Request
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		return message.Failure("Invalid request payload: %v", err)
	}
	return c.Ask(ctx, p, req)
}

// Ask loads the provider's config and sends req. It always returns a Result.
func (c *Coordinator) Ask(ctx context.Context, p message.Provider, req message.Request) (res message.Result) {
	start := time.Now()
	log := c.log.With("provider", p, "request_id", uuid.NewString())

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic recovered in provider", "panic", rec)
			res = message.Failure("Request failed: internal error. Try again.")
		}
	}()

	if strings.TrimSpace(req.Prompt) == "" {
		return message.Failure(emptyPrompt)
	}
	if err := httputil.Validator.Struct(req); err != nil {
		log.Warn("invalid request", "err", err)
		return invalidRequest(err)
	}
	req.Style = style.Parse(string(req.Style))

	cfg := c.settings.Get(ctx, p)
	if cfg.APIKey == "" {
		log.Warn("no api key configured")
		return message.Failure(provider.MissingKey)
	}

	res = c.adapters.Send(ctx, p, req, cfg)
	log.Info("request completed",
		"model", cfg.Model,
		"style", req.Style,
		"image", req.ImageData != "",
		"ok", res.OK,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if !res.OK {
		log.Warn("request failed", "err", res.Error)
	}
	return res
}

func invalidRequest(err error) message.Result {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return message.Failure("Invalid request payload: %v", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return message.Failure("Invalid request payload: %s", strings.Join(fields, ", "))
}

// Settings returns the config the options view shows for p.
func (c *Coordinator) Settings(ctx context.Context, p message.Provider) settings.Config {
	return c.settings.Get(ctx, p)
}

// SettingsUpdate carries the fields a settings form changed. Nil fields are kept.
type SettingsUpdate struct {
	APIKey    *string `json:"apiKey" validate:"omitempty,max=512"`
	Model     *string `json:"model" validate:"omitempty,max=128"`
	AutoPanel *bool   `json:"autoPanel"`
}

// UpdateSettings merges u into the stored config of p and returns the result.
func (c *Coordinator) UpdateSettings(ctx context.Context, p message.Provider, u SettingsUpdate) (settings.Config, error) {
	if u.APIKey != nil || u.Model != nil {
		cfg := c.settings.Get(ctx, p)
		if u.APIKey != nil {
			cfg.APIKey = *u.APIKey
		}
		if u.Model != nil {
			cfg.Model = *u.Model
		}
		if err := c.settings.Set(ctx, p, cfg); err != nil {
			return settings.Config{}, fmt.Errorf("save %s settings: %w", p, err)
		}
	}
	if u.AutoPanel != nil {
		if err := c.settings.SetAutoPanel(ctx, *u.AutoPanel); err != nil {
			return settings.Config{}, fmt.Errorf("save autoPanel: %w", err)
		}
	}
	return c.settings.Get(ctx, p), nil
}

// Providers lists the providers with a registered adapter.
func (c *Coordinator) Providers() []message.Provider {
	return c.adapters.Known()
}
