package chatbot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-portal/internal/config"
)

func newTestCompleter(url string) *HTTPCompleter {
	return NewHTTPCompleter(config.ChatbotConfig{
		Endpoint:       url,
		APIKey:         "test-key",
		Model:          "test-model",
		TimeoutSeconds: 5,
	})
}

func TestHTTPCompleter(t *testing.T) {
	var got completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Hello there "}}]}`))
	}))
	defer server.Close()

	reply, err := newTestCompleter(server.URL).Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", reply)
	assert.Equal(t, "test-model", got.Model)
	assert.Len(t, got.Messages, 2)
}

func TestHTTPCompleterUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestHTTPCompleterRequiresKey(t *testing.T) {
	c := NewHTTPCompleter(config.ChatbotConfig{Endpoint: "http://127.0.0.1:1"})
	_, err := c.Complete(context.Background(), nil)
	assert.Error(t, err)
}
