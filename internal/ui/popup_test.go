package ui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"study-helper/internal/attachment"
	"study-helper/internal/coordinator"
	"study-helper/internal/message"
	"study-helper/internal/settings"
	"study-helper/internal/style"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPopupInitialView(t *testing.T) {
	p := NewPopup(discard(), new(MockService), message.Gemini, "")

	v := p.View()
	assert.Equal(t, EmptyHint, v.Output)
	assert.True(t, v.Empty)
	assert.False(t, v.CanCopy)
	assert.False(t, v.CanClear)
}

func TestPopupEmptyQuestion(t *testing.T) {
	svc := new(MockService)
	p := NewPopup(discard(), svc, message.Gemini, "")
	p.SetQuestion("   \n")

	v := p.Ask(context.Background())

	assert.Equal(t, "Please enter a question.", v.Output)
	assert.True(t, v.Error)
	svc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
}

func TestPopupAskSuccess(t *testing.T) {
	svc := new(MockService)
	p := NewPopup(discard(), svc, message.OpenRouter, "")
	p.SetQuestion("  What is entropy?  ")
	p.SetStyle("Bullets")
	p.Attach(attachment.Image{Name: "a.png", MimeType: "image/png", DataURL: "data:image/png;base64,AAAA"})

	want := message.Request{Prompt: "What is entropy?", Style: style.Bullets, ImageData: "data:image/png;base64,AAAA"}
	svc.On("Ask", mock.Anything, message.OpenRouter, want).
		Run(func(mock.Arguments) {
			v := p.View()
			assert.True(t, v.Loading)
			assert.Equal(t, "Thinking...", v.Output)
			assert.False(t, v.CanCopy)
		}).
		Return(message.Success("Disorder, roughly."))

	v := p.Ask(context.Background())

	assert.Equal(t, View{Output: "Disorder, roughly.", CanCopy: true, CanClear: true}, v)
	_, attached := p.Image()
	assert.False(t, attached, "image is cleared after a successful send")

	text, ok := p.Copy()
	assert.True(t, ok)
	assert.Equal(t, "Disorder, roughly.", text)
	svc.AssertExpectations(t)
}

func TestPopupAskFailure(t *testing.T) {
	svc := new(MockService)
	p := NewPopup(discard(), svc, message.Groq, "")
	p.SetQuestion("q")
	p.Attach(attachment.Image{DataURL: "data:image/png;base64,AAAA"})
	svc.On("Ask", mock.Anything, message.Groq, mock.Anything).
		Return(message.Failure("No API key set. Add it in extension options."))

	v := p.Ask(context.Background())

	assert.Equal(t, "Error: No API key set. Add it in extension options.", v.Output)
	assert.True(t, v.Error)
	assert.False(t, v.CanCopy)
	_, attached := p.Image()
	assert.True(t, attached, "image is kept for a retry")
	_, ok := p.Copy()
	assert.False(t, ok)
}

func TestPopupKey(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		ctrl, meta bool
		submitted  bool
	}{
		{"plain enter", "Enter", false, false, false},
		{"ctrl enter", "Enter", true, false, true},
		{"meta enter", "Enter", false, true, true},
		{"ctrl other key", "a", true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return(message.Success("ok")).Maybe()
			p := NewPopup(discard(), svc, message.Gemini, "")
			p.SetQuestion("q")

			_, submitted := p.Key(context.Background(), tt.key, tt.ctrl, tt.meta)

			assert.Equal(t, tt.submitted, submitted)
			if tt.submitted {
				svc.AssertNumberOfCalls(t, "Ask", 1)
			} else {
				svc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestPopupClear(t *testing.T) {
	svc := new(MockService)
	svc.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return(message.Success("answer"))
	p := NewPopup(discard(), svc, message.Gemini, "")
	p.SetQuestion("q")
	p.Ask(context.Background())
	p.Attach(attachment.Image{DataURL: "data:image/png;base64,AAAA"})

	p.Clear()

	v := p.View()
	assert.Equal(t, "Enter a question to begin.", v.Output)
	assert.False(t, v.CanCopy)
	assert.False(t, v.CanClear)
	_, attached := p.Image()
	assert.False(t, attached)
	assert.Equal(t, EmptyQuestion, p.Ask(context.Background()).Output, "question is cleared too")
}

func TestPopupOpen(t *testing.T) {
	isPlaceholder := mock.MatchedBy(func(ev message.Event) bool {
		return ev.Type == message.TypeProcessSelection && ev.Text == "Ready for your question..."
	})

	t.Run("auto panel on", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Settings", mock.Anything, message.Gemini).Return(settings.Config{AutoPanel: true}, nil)
		svc.On("SendToTab", mock.Anything, "tab-1", isPlaceholder).Return(nil)
		p := NewPopup(discard(), svc, message.Gemini, "tab-1")

		require.NoError(t, p.Open(context.Background()))
		assert.True(t, p.AutoPanel())
		svc.AssertExpectations(t)
	})

	t.Run("undelivered placeholder is not an error", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Settings", mock.Anything, message.Gemini).Return(settings.Config{AutoPanel: true}, nil)
		svc.On("SendToTab", mock.Anything, "tab-1", isPlaceholder).Return(errors.New("no receiver"))
		p := NewPopup(discard(), svc, message.Gemini, "tab-1")

		require.NoError(t, p.Open(context.Background()))
	})

	t.Run("auto panel off", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Settings", mock.Anything, message.Gemini).Return(settings.Config{}, nil)
		p := NewPopup(discard(), svc, message.Gemini, "tab-1")

		require.NoError(t, p.Open(context.Background()))
		svc.AssertNotCalled(t, "SendToTab", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("settings unavailable", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Settings", mock.Anything, message.Gemini).Return(settings.Config{}, errors.New("down"))
		p := NewPopup(discard(), svc, message.Gemini, "tab-1")

		require.Error(t, p.Open(context.Background()))
	})
}

func TestPopupSetAutoPanel(t *testing.T) {
	svc := new(MockService)
	svc.On("UpdateSettings", mock.Anything, message.Groq, mock.MatchedBy(func(u coordinator.SettingsUpdate) bool {
		return u.APIKey == nil && u.Model == nil && u.AutoPanel != nil && *u.AutoPanel
	})).Return(settings.Config{AutoPanel: true}, nil)
	p := NewPopup(discard(), svc, message.Groq, "")

	require.NoError(t, p.SetAutoPanel(context.Background(), true))
	assert.True(t, p.AutoPanel())
	svc.AssertExpectations(t)
}
