package provider

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"study-helper/internal/attachment"
	"study-helper/internal/message"
	"study-helper/internal/settings"
)

// Gemini exposes v1 first; newer models only exist under v1beta.
var defaultGeminiBaseURLs = []string{
	"https://generativelanguage.googleapis.com/v1",
	"https://generativelanguage.googleapis.com/v1beta",
}

const geminiTextPath = "candidates.0.content.parts.0.text"

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64 encoded
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// GeminiAdapter calls the generateContent endpoint with the key as a query parameter.
type GeminiAdapter struct {
	log  *slog.Logger
	opts Options
}

var _ Adapter = (*GeminiAdapter)(nil)

func NewGemini(log *slog.Logger, opts Options) *GeminiAdapter {
	return &GeminiAdapter{log: log, opts: opts.withDefaults(defaultGeminiBaseURLs...)}
}

func (a *GeminiAdapter) Send(ctx context.Context, req message.Request, cfg settings.Config) message.Result {
	if cfg.APIKey == "" {
		return message.Failure(MissingKey)
	}
	payload, err := buildGeminiRequest(req)
	if err != nil {
		return message.Failure("Invalid image attachment: %v", err)
	}
	model := modelOrDefault(message.Gemini, cfg)

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	var res message.Result
	for i, base := range a.opts.BaseURLs {
		endpoint := geminiEndpoint(base, model)
		start := time.Now()
		status, body, err := postJSON(ctx, a.opts.HTTPClient, endpoint+"?"+url.Values{"key": {cfg.APIKey}}.Encode(), nil, payload)
		if err != nil {
			if isTimeout(ctx, err) {
				return timeoutFailure(message.Gemini, a.opts.Timeout)
			}
			return transportFailure(err)
		}
		if isSuccess(status) {
			return parseGeminiResponse(body)
		}
		res = httpFailure(message.Gemini, status, string(body))
		if i < len(a.opts.BaseURLs)-1 && shouldFallback(status, endpoint) {
			a.log.Warn("gemini endpoint rejected request; trying fallback",
				"endpoint", endpoint, "status", status, "duration_ms", time.Since(start).Milliseconds())
			continue
		}
		return res
	}
	return res
}

func geminiEndpoint(base, model string) string {
	return strings.TrimRight(base, "/") + "/models/" + url.PathEscape(model) + ":generateContent"
}

// buildGeminiRequest folds the instruction and the question into a single text part.
func buildGeminiRequest(req message.Request) (geminiRequest, error) {
	parts := []geminiPart{{Text: SystemPrompt(req.Style) + "\n\nQuestion: " + req.Prompt}}
	if req.ImageData != "" {
		mime, data, err := attachment.ParseDataURL(req.ImageData)
		if err != nil {
			return geminiRequest{}, err
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{MimeType: mime, Data: data}})
	}
	return geminiRequest{Contents: []geminiContent{{Parts: parts}}}, nil
}

func parseGeminiResponse(body []byte) message.Result {
	if !gjson.ValidBytes(body) {
		return transportFailure(errInvalidJSON)
	}
	text := gjson.GetBytes(body, geminiTextPath).String()
	if text == "" {
		return message.Success(NoResponse)
	}
	return message.Success(text)
}
