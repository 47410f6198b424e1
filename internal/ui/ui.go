// Package ui holds the state machines behind the popup and the on-page panel.
// Rendering is left to a Page or to the caller.
package ui

import (
	"context"

	"study-helper/internal/coordinator"
	"study-helper/internal/message"
	"study-helper/internal/settings"
)

const (
	EmptyHint     = "Enter a question to begin."
	EmptyQuestion = "Please enter a question."
	Thinking      = "Thinking..."
	Loading       = "Loading..."
	Placeholder   = "Ready for your question..."
	ErrorPrefix   = "Error: "
)

// Asker sends one request and always returns one Result.
type Asker interface {
	Ask(ctx context.Context, p message.Provider, req message.Request) message.Result
}

// Service is the part of the background service the popup uses.
type Service interface {
	Asker
	Settings(ctx context.Context, p message.Provider) (settings.Config, error)
	UpdateSettings(ctx context.Context, p message.Provider, u coordinator.SettingsUpdate) (settings.Config, error)
	SendToTab(ctx context.Context, tabID string, ev message.Event) error
}

// Render returns the text a surface shows for res.
func Render(res message.Result) string {
	if res.OK {
		return res.Text
	}
	return ErrorPrefix + res.Error
}
