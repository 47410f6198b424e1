package provider

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"study-helper/internal/message"
	"study-helper/internal/settings"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"

	openRouterReferer = "https://github.com/MaharajTanim/Q-A-Extension"
	openRouterTitle   = "Study Helper Extension"
)

// ChatAdapter talks to OpenAI-compatible chat completion APIs with bearer auth.
type ChatAdapter struct {
	log      *slog.Logger
	provider message.Provider
	opts     Options
	headers  map[string]string
	// vision reports whether image parts are accepted in user messages.
	vision bool
}

var _ Adapter = (*ChatAdapter)(nil)

// NewOpenRouter builds the OpenRouter (DeepSeek and friends) adapter.
func NewOpenRouter(log *slog.Logger, opts Options) *ChatAdapter {
	return &ChatAdapter{
		log:      log,
		provider: message.OpenRouter,
		opts:     opts.withDefaults(defaultOpenRouterBaseURL),
		headers: map[string]string{
			"HTTP-Referer": openRouterReferer,
			"X-Title":      openRouterTitle,
		},
		vision: true,
	}
}

// NewGroq builds the Groq adapter. Groq's chat models are text only.
func NewGroq(log *slog.Logger, opts Options) *ChatAdapter {
	return &ChatAdapter{
		log:      log,
		provider: message.Groq,
		opts:     opts.withDefaults(defaultGroqBaseURL),
	}
}

func (a *ChatAdapter) Send(ctx context.Context, req message.Request, cfg settings.Config) message.Result {
	if cfg.APIKey == "" {
		return message.Failure(MissingKey)
	}
	if req.ImageData != "" && !a.vision {
		a.log.Debug("provider does not accept images; sending text only", "provider", a.provider)
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(modelOrDefault(a.provider, cfg)),
		Messages: a.buildMessages(req),
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	var res message.Result
	for i, base := range a.opts.BaseURLs {
		start := time.Now()
		var capture responseCapture
		res = a.attempt(ctx, base, cfg.APIKey, params, &capture)
		if res.OK || capture.status == 0 {
			return res
		}
		if i < len(a.opts.BaseURLs)-1 && shouldFallback(capture.status, capture.path) {
			a.log.Warn("chat endpoint rejected request; trying fallback",
				"provider", a.provider, "base_url", base, "status", capture.status,
				"duration_ms", time.Since(start).Milliseconds())
			continue
		}
		return res
	}
	return res
}

func (a *ChatAdapter) attempt(ctx context.Context, base, apiKey string, params openai.ChatCompletionNewParams, capture *responseCapture) message.Result {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(strings.TrimRight(base, "/") + "/"),
		option.WithHTTPClient(a.opts.HTTPClient),
		option.WithMaxRetries(0),
		option.WithMiddleware(capture.middleware),
	}
	for k, v := range a.headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	client := openai.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, params)
	if capture.status != 0 && !isSuccess(capture.status) {
		return httpFailure(a.provider, capture.status, capture.body)
	}
	if err != nil {
		if isTimeout(ctx, err) {
			return timeoutFailure(a.provider, a.opts.Timeout)
		}
		return transportFailure(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return message.Success(NoResponse)
	}
	return message.Success(resp.Choices[0].Message.Content)
}

func (a *ChatAdapter) buildMessages(req message.Request) []openai.ChatCompletionMessageParamUnion {
	user := openai.ChatCompletionUserMessageParamContentUnion{
		OfString: openai.String(req.Prompt),
	}
	if req.ImageData != "" && a.vision {
		user = openai.ChatCompletionUserMessageParamContentUnion{
			OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
				{OfText: &openai.ChatCompletionContentPartTextParam{Text: req.Prompt}},
				{OfImageURL: &openai.ChatCompletionContentPartImageParam{
					ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: req.ImageData},
				}},
			},
		}
	}
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(SystemPrompt(req.Style)),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{Content: user},
		},
	}
}

// responseCapture keeps the status and error body of the last response seen by
// the client so failures can be reported with the provider's own text.
type responseCapture struct {
	status int
	path   string
	body   string
}

func (c *responseCapture) middleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	c.path = req.URL.Path
	resp, err := next(req)
	if err != nil || resp == nil {
		return resp, err
	}
	c.status = resp.StatusCode
	if !isSuccess(resp.StatusCode) {
		raw, rerr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if rerr != nil {
			raw = []byte(noBody)
		}
		c.body = string(raw)
		resp.Body = io.NopCloser(bytes.NewReader(raw))
	}
	return resp, nil
}
