// Command menu plays the browser host: it reports a click on the study helper
// context menu entry for a tab.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"study-helper/internal/app"
	"study-helper/internal/coordinator"
)

type clicker interface {
	ClickMenu(ctx context.Context, click coordinator.MenuClick) error
}

func main() {
	cfg, _, c, err := app.BuildClient()
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
	if err := run(context.Background(), c, cfg.TabID, os.Args[1:], os.Stdout); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c clicker, defaultTab string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("menu", flag.ContinueOnError)
	fs.SetOutput(out)
	tabID := fs.String("tab", defaultTab, "tab the selection belongs to")
	item := fs.String("item", coordinator.MenuItemID, "menu item id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tabID == "" {
		return errors.New("-tab or TAB_ID is required")
	}
	selection := strings.Join(fs.Args(), " ")

	err := c.ClickMenu(ctx, coordinator.MenuClick{
		MenuItemID:    *item,
		SelectionText: selection,
		TabID:         *tabID,
	})
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(out, "Sent to tab %s\n", *tabID)
	return nil
}
