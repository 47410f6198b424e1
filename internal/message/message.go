// Package message defines the contract spoken between the background
// coordinator and its UI surfaces.
package message

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"study-helper/internal/style"
)

// Provider identifies an LLM backend.
type Provider string

const (
	Gemini     Provider = "gemini"
	OpenRouter Provider = "openrouter"
	Groq       Provider = "groq"
)

// Providers lists every supported backend.
var Providers = []Provider{Gemini, OpenRouter, Groq}

// ParseProvider accepts a provider name in any case. "deepseek" is an alias of OpenRouter.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case Gemini, OpenRouter, Groq:
		return p, nil
	case "deepseek":
		return OpenRouter, nil
	default:
		return "", fmt.Errorf("unknown provider %q", s)
	}
}

// Label is the human readable provider name used in diagnostics.
func (p Provider) Label() string {
	switch p {
	case Gemini:
		return "Gemini"
	case OpenRouter:
		return "OpenRouter"
	case Groq:
		return "Groq"
	default:
		return string(p)
	}
}

// RequestType is the envelope type used to ask this provider for an answer.
func (p Provider) RequestType() string {
	return strings.ToUpper(string(p)) + requestSuffix
}

const (
	TypeProcessSelection = "PROCESS_SELECTION"
	TypeResponse         = "RESPONSE"

	requestSuffix = "_REQUEST"
)

// ProviderForType resolves "<PROVIDER>_REQUEST" envelope types.
func ProviderForType(t string) (Provider, bool) {
	name, ok := strings.CutSuffix(t, requestSuffix)
	if !ok || name == "" {
		return "", false
	}
	p, err := ParseProvider(name)
	if err != nil {
		return "", false
	}
	return p, true
}

// Request is the normalized question sent by a UI surface.
type Request struct {
	Prompt    string      `json:"prompt" validate:"required"`
	Style     style.Style `json:"style,omitempty"`
	ImageData string      `json:"imageData,omitempty" validate:"omitempty,datauri"`
}

// Result is exactly one of Success or Failure.
type Result struct {
	OK    bool   `json:"ok"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// Success wraps an answer.
func Success(text string) Result {
	return Result{OK: true, Text: text}
}

// Failure wraps a human readable diagnostic.
func Failure(format string, args ...any) Result {
	return Result{OK: false, Error: fmt.Sprintf(format, args...)}
}

// Envelope is a message posted to the coordinator.
type Envelope struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewRequestEnvelope builds the "<PROVIDER>_REQUEST" envelope for req.
func NewRequestEnvelope(p Provider, req Request) (Envelope, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal request: %w", err)
	}
	return Envelope{Type: p.RequestType(), Payload: body}, nil
}

// Event is pushed from the coordinator to a page.
type Event struct {
	ID   uuid.UUID `json:"id"`
	Type string    `json:"type"`
	Text string    `json:"text,omitempty"`
	Data *Result   `json:"data,omitempty"`
}

// ProcessSelection asks a page to open its panel for text.
func ProcessSelection(text string) Event {
	return Event{ID: uuid.New(), Type: TypeProcessSelection, Text: text}
}

// Response delivers a Result to a page.
func Response(res Result) Event {
	return Event{ID: uuid.New(), Type: TypeResponse, Data: &res}
}
