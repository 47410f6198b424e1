package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"study-helper/internal/app"
	"study-helper/internal/bus"
	"study-helper/internal/message"
	"study-helper/internal/settings"
	"study-helper/internal/ui"
)

func main() {
	cfg, log, c, err := app.BuildClient()
	if err != nil {
		slog.Default().Error("failed to load config", "err", err)
		os.Exit(1)
	}

	providerName := flag.String("provider", cfg.Provider, "gemini, openrouter (deepseek) or groq")
	tabID := flag.String("tab", cfg.TabID, "tab id to listen on; random when empty")
	flag.Parse()

	p, err := message.ParseProvider(*providerName)
	if err != nil {
		log.Error("invalid provider", "err", err)
		os.Exit(1)
	}
	if *tabID == "" {
		*tabID = uuid.NewString()
	}
	// An in-memory bus cannot reach another process.
	if cfg.BusProvider != "nats" {
		log.Error("the content script needs BUS_PROVIDER=nats", "bus_provider", cfg.BusProvider)
		os.Exit(1)
	}
	tabs, err := app.BuildBus(cfg, log)
	if err != nil {
		log.Error("failed to connect bus", "err", err)
		os.Exit(1)
	}
	defer tabs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	script := ui.NewContentScript(log, c, p, ui.NewTerminalPage(os.Stdout))
	if err := run(ctx, log, tabs, script, *tabID, autoPanel(ctx, log, c, p)); err != nil {
		log.Error("content script stopped", "err", err)
		os.Exit(1)
	}
}

type settingsReader interface {
	Settings(ctx context.Context, p message.Provider) (settings.Config, error)
}

// autoPanel reads the shared setting; an unreachable service means off.
func autoPanel(ctx context.Context, log *slog.Logger, c settingsReader, p message.Provider) bool {
	cfg, err := c.Settings(ctx, p)
	if err != nil {
		log.Warn("could not read autoPanel", "err", err)
		return false
	}
	return cfg.AutoPanel
}

func run(ctx context.Context, log *slog.Logger, tabs bus.Bus, script *ui.ContentScript, tabID string, autoPanel bool) error {
	color.Cyan("Listening on tab %s", tabID)
	script.Start(autoPanel)

	// Events use the listener's context so panel requests outlive delivery.
	err := tabs.Listen(ctx, tabID, func(_ context.Context, ev message.Event) error {
		log.Debug("event received", "type", ev.Type, "event_id", ev.ID)
		return script.HandleEvent(ctx, ev)
	})
	script.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
