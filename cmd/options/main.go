package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"study-helper/internal/app"
	"study-helper/internal/coordinator"
	"study-helper/internal/message"
	"study-helper/internal/settings"
)

type settingsClient interface {
	Settings(ctx context.Context, p message.Provider) (settings.Config, error)
	UpdateSettings(ctx context.Context, p message.Provider, u coordinator.SettingsUpdate) (settings.Config, error)
}

func main() {
	cfg, _, c, err := app.BuildClient()
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
	if err := run(context.Background(), c, cfg.Provider, os.Args[1:], os.Stdout); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c settingsClient, defaultProvider string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("options", flag.ContinueOnError)
	fs.SetOutput(out)
	providerName := fs.String("provider", defaultProvider, "gemini, openrouter (deepseek) or groq")
	apiKey := fs.String("api-key", "", "API key for the provider")
	model := fs.String("model", "", "model name; empty selects the provider default")
	autoPanel := fs.Bool("auto-panel", false, "open the panel automatically")
	show := fs.Bool("show", false, "print the stored settings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := message.ParseProvider(*providerName)
	if err != nil {
		return err
	}

	var u coordinator.SettingsUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "api-key":
			u.APIKey = apiKey
		case "model":
			u.Model = model
		case "auto-panel":
			u.AutoPanel = autoPanel
		}
	})

	changed := u.APIKey != nil || u.Model != nil || u.AutoPanel != nil
	if changed {
		saved, err := c.UpdateSettings(ctx, p, u)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintln(out, "Saved")
		if *show {
			printConfig(out, p, saved)
		}
		return nil
	}
	if !*show {
		fs.Usage()
		return nil
	}
	current, err := c.Settings(ctx, p)
	if err != nil {
		return err
	}
	printConfig(out, p, current)
	return nil
}

func printConfig(out io.Writer, p message.Provider, cfg settings.Config) {
	ns := settings.NamespaceFor(p)
	label := color.New(color.FgCyan, color.Bold)
	label.Fprintf(out, "%s\n", p.Label())
	fmt.Fprintf(out, "  %s: %s\n", ns.APIKeyKey, mask(cfg.APIKey))
	fmt.Fprintf(out, "  %s: %s\n", ns.ModelKey, cfg.Model)
	fmt.Fprintf(out, "  %s: %s\n", settings.AutoPanelKey, strconv.FormatBool(cfg.AutoPanel))
}

func mask(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
