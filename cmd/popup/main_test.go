package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"study-helper/internal/message"
	"study-helper/internal/style"
	"study-helper/internal/ui"
)

func newPopup(svc *ui.MockService) *ui.Popup {
	return ui.NewPopup(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, message.Gemini, "")
}

func TestHandleLine(t *testing.T) {
	color.NoColor = true
	svc := new(ui.MockService)
	svc.On("Ask", mock.Anything, message.Gemini, message.Request{Prompt: "what is a ribosome?", Style: style.Bullets}).
		Return(message.Success("- makes proteins")).Once()
	p := newPopup(svc)
	ctx := context.Background()
	var out bytes.Buffer
	doc := ""

	assert.False(t, handleLine(ctx, p, ":style bullets", &doc, &out))
	assert.False(t, handleLine(ctx, p, ":copy", &doc, &out))
	assert.False(t, handleLine(ctx, p, "  what is a ribosome?  ", &doc, &out))
	assert.False(t, handleLine(ctx, p, ":copy", &doc, &out))
	assert.False(t, handleLine(ctx, p, ":clear", &doc, &out))
	assert.False(t, handleLine(ctx, p, ":image /does/not/exist.png", &doc, &out))
	assert.True(t, handleLine(ctx, p, ":quit", &doc, &out))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"style: bullets",
		"Nothing to copy.",
		"Thinking...",
		"- makes proteins",
		"- makes proteins",
		"Enter a question to begin.",
	}, lines[:6])
	assert.Contains(t, lines[6], "read image")
	svc.AssertExpectations(t)
}

func TestHandleLineEmptyQuestion(t *testing.T) {
	color.NoColor = true
	svc := new(ui.MockService)
	var out bytes.Buffer

	doc := "chapter"
	handleLine(context.Background(), newPopup(svc), "   ", &doc, &out)

	assert.Contains(t, out.String(), "Please enter a question.")
	assert.Equal(t, "chapter", doc, "document is kept for the next question")
	svc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
}

func TestWithDocument(t *testing.T) {
	tests := []struct {
		name, question, doc, want string
	}{
		{"no document", "q", "", "q"},
		{"blank document", "q", " \n", "q"},
		{"empty question stays empty", "", "text", ""},
		{"appended", "summarise", " chapter one \n", "summarise\n\nDocument:\nchapter one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withDocument(tt.question, tt.doc))
		})
	}
}
