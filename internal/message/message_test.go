package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-helper/internal/style"
)

func TestProviderForType(t *testing.T) {
	tests := []struct {
		in       string
		expected Provider
		ok       bool
	}{
		{"GEMINI_REQUEST", Gemini, true},
		{"OPENROUTER_REQUEST", OpenRouter, true},
		{"DEEPSEEK_REQUEST", OpenRouter, true},
		{"GROQ_REQUEST", Groq, true},
		{"_REQUEST", "", false},
		{"CLAUDE_REQUEST", "", false},
		{"PROCESS_SELECTION", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, ok := ProviderForType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestRequestTypeRoundTrip(t *testing.T) {
	for _, p := range Providers {
		got, ok := ProviderForType(p.RequestType())
		require.True(t, ok, p)
		assert.Equal(t, p, got)
	}
}

func TestResultWireShape(t *testing.T) {
	ok, err := json.Marshal(Success("4"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"text":"4"}`, string(ok))

	fail, err := json.Marshal(Failure("HTTP %d", 500))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"error":"HTTP 500"}`, string(fail))
}

func TestNewRequestEnvelope(t *testing.T) {
	env, err := NewRequestEnvelope(Groq, Request{Prompt: "2+2?", Style: style.Bullets})
	require.NoError(t, err)
	assert.Equal(t, "GROQ_REQUEST", env.Type)
	assert.JSONEq(t, `{"prompt":"2+2?","style":"bullets"}`, string(env.Payload))
}
