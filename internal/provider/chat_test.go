package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"study-helper/internal/message"
	"study-helper/internal/settings"
	"study-helper/internal/style"
)

type chatBody struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func decodeChatBody(t *testing.T, r *http.Request) (chatBody, bool) {
	var body chatBody
	ok := assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) && assert.Len(t, body.Messages, 2)
	return body, ok
}

func TestOpenRouterSendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))
		assert.Equal(t, openRouterReferer, r.Header.Get("HTTP-Referer"))
		assert.Equal(t, openRouterTitle, r.Header.Get("X-Title"))
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		body, ok := decodeChatBody(t, r)
		if !ok {
			return
		}
		assert.Equal(t, "deepseek/deepseek-chat", body.Model)
		assert.Equal(t, "system", body.Messages[0].Role)
		var system string
		assert.NoError(t, json.Unmarshal(body.Messages[0].Content, &system))
		assert.Equal(t, SystemPrompt(style.Concise), system)
		assert.Equal(t, "user", body.Messages[1].Role)
		assert.JSONEq(t, `"2+2?"`, string(body.Messages[1].Content))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"4"}}]}`))
	}))
	defer srv.Close()

	adapter := NewOpenRouter(testLogger(), Options{BaseURLs: []string{srv.URL + "/api/v1"}})
	res := adapter.Send(context.Background(),
		message.Request{Prompt: "2+2?", Style: style.Concise},
		settings.Config{APIKey: "or-key"})

	assert.Equal(t, message.Success("4"), res)
}

func TestChatImageHandling(t *testing.T) {
	const dataURL = "data:image/png;base64,aGk="

	tests := []struct {
		name      string
		newFn     func(*testing.T, string) *ChatAdapter
		wantParts bool
	}{
		{
			name: "openrouter sends image parts",
			newFn: func(t *testing.T, url string) *ChatAdapter {
				return NewOpenRouter(testLogger(), Options{BaseURLs: []string{url}})
			},
			wantParts: true,
		},
		{
			name: "groq drops the image",
			newFn: func(t *testing.T, url string) *ChatAdapter {
				return NewGroq(testLogger(), Options{BaseURLs: []string{url}})
			},
			wantParts: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, ok := decodeChatBody(t, r)
				if !ok {
					return
				}
				content := body.Messages[1].Content
				if tt.wantParts {
					var parts []map[string]any
					if assert.NoError(t, json.Unmarshal(content, &parts)) && assert.Len(t, parts, 2) {
						assert.Equal(t, "text", parts[0]["type"])
						assert.Equal(t, "look", parts[0]["text"])
						assert.Equal(t, "image_url", parts[1]["type"])
						assert.Equal(t, map[string]any{"url": dataURL}, parts[1]["image_url"])
					}
				} else {
					assert.JSONEq(t, `"look"`, string(content))
				}
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"seen"}}]}`))
			}))
			defer srv.Close()

			res := tt.newFn(t, srv.URL+"/v1").Send(context.Background(),
				message.Request{Prompt: "look", ImageData: dataURL},
				settings.Config{APIKey: "k", Model: "m"})
			assert.Equal(t, message.Success("seen"), res)
		})
	}
}

func TestGroqUsesOwnModelDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gk", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-Title"))
		if body, ok := decodeChatBody(t, r); ok {
			assert.Equal(t, "llama-3.1-8b-instant", body.Model)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}]}`))
	}))
	defer srv.Close()

	res := NewGroq(testLogger(), Options{BaseURLs: []string{srv.URL + "/openai/v1"}}).
		Send(context.Background(), message.Request{Prompt: "hello"}, settings.Config{APIKey: "gk"})
	assert.Equal(t, message.Success("hi"), res)
}

func TestChatMissingContent(t *testing.T) {
	bodies := []string{
		`{"choices":[]}`,
		`{}`,
		`{"choices":[{"message":{"content":""}}]}`,
	}
	for _, b := range bodies {
		t.Run(b, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(b))
			}))
			defer srv.Close()

			res := NewGroq(testLogger(), Options{BaseURLs: []string{srv.URL + "/v1"}}).
				Send(context.Background(), message.Request{Prompt: "q"}, settings.Config{APIKey: "k"})
			assert.Equal(t, message.Success(NoResponse), res)
		})
	}
}

func TestChatHTTPError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	res := NewOpenRouter(testLogger(), Options{BaseURLs: []string{srv.URL + "/api/v1", srv.URL + "/api/v2"}}).
		Send(context.Background(), message.Request{Prompt: "q"}, settings.Config{APIKey: "bad"})

	assert.False(t, res.OK)
	assert.True(t, strings.HasPrefix(res.Error, "HTTP 401: "))
	assert.Contains(t, res.Error, "invalid api key")
	assert.Contains(t, res.Error, "API key validity at OpenRouter")
	assert.Equal(t, int32(1), calls.Load(), "401 must not try other candidates")
}

func TestChatEndpointFallback(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if strings.HasPrefix(r.URL.Path, "/old/") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"fallback answer"}}]}`))
	}))
	defer srv.Close()

	res := NewGroq(testLogger(), Options{BaseURLs: []string{srv.URL + "/old/v1", srv.URL + "/new/v1"}}).
		Send(context.Background(), message.Request{Prompt: "q"}, settings.Config{APIKey: "k"})

	assert.Equal(t, message.Success("fallback answer"), res)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	res := NewOpenRouter(testLogger(), Options{BaseURLs: []string{srv.URL + "/api/v1"}, Timeout: 50 * time.Millisecond}).
		Send(context.Background(), message.Request{Prompt: "q"}, settings.Config{APIKey: "k"})

	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "Request timeout after 0.05 seconds.")
	assert.Contains(t, res.Error, "OpenRouter")
}

func TestChatNoAPIKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	res := NewGroq(testLogger(), Options{BaseURLs: []string{srv.URL}}).
		Send(context.Background(), message.Request{Prompt: "q"}, settings.Config{Model: "m"})

	assert.Equal(t, message.Failure(MissingKey), res)
	assert.Zero(t, calls.Load())
}

func TestChatUnreadableErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(shortBodyHandler))
	defer srv.Close()

	tests := []struct {
		name    string
		adapter *ChatAdapter
		label   string
	}{
		{"openrouter", NewOpenRouter(testLogger(), Options{BaseURLs: []string{srv.URL + "/api/v1"}}), "OpenRouter"},
		{"groq", NewGroq(testLogger(), Options{BaseURLs: []string{srv.URL + "/openai/v1"}}), "Groq"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.adapter.Send(context.Background(), message.Request{Prompt: "q"}, settings.Config{APIKey: "k"})

			assert.Equal(t, message.Failure("%s", "HTTP 500: (no body). Try checking: 1) API key validity at "+tt.label+
				", 2) Model availability, 3) Network connection."), res)
		})
	}
}
