package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fliptrack-intel/internal/config"
)

func TestAnthropicCompleteSendsMessagesRequest(t *testing.T) {
	var captured anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "{\"key_insights\": []}"}]}`))
	}))
	defer server.Close()

	c := NewAnthropicClient(config.AnthropicConfig{APIKey: "key-test", Model: "claude-sonnet-4-5", BaseURL: server.URL})

	out, err := c.Complete(context.Background(), "analyze this")
	require.NoError(t, err)
	assert.JSONEq(t, `{"key_insights": []}`, out)

	assert.Equal(t, "claude-sonnet-4-5", captured.Model)
	assert.Equal(t, 5000, captured.MaxTokens)
	assert.Zero(t, captured.Temperature)
	assert.Equal(t, systemDirective, captured.System)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
}

func TestAnthropicCompleteJoinsTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": [
			{"type": "text", "text": "{\"key_insights\":"},
			{"type": "text", "text": "[]}"}
		]}`))
	}))
	defer server.Close()

	c := NewAnthropicClient(config.AnthropicConfig{APIKey: "key-test", Model: "claude-sonnet-4-5", BaseURL: server.URL})

	out, err := c.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "{\"key_insights\":\n[]}", out)
}

func TestAnthropicCompleteSurfacesHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"type": "overloaded_error"}}`))
	}))
	defer server.Close()

	c := NewAnthropicClient(config.AnthropicConfig{APIKey: "key-test", Model: "claude-sonnet-4-5", BaseURL: server.URL})

	_, err := c.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "overloaded")
}

func TestAnthropicCompleteRequiresKey(t *testing.T) {
	c := NewAnthropicClient(config.AnthropicConfig{Model: "claude-sonnet-4-5"})

	_, err := c.Complete(context.Background(), "prompt")
	assert.ErrorContains(t, err, "no API key")
}
