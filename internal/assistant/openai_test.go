package assistant_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripplanner/internal/assistant"
)

func TestOpenAICompleter_Complete(t *testing.T) {
	var body struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1717200000,
			"model": "gpt-3.5-turbo",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "Try Senso-ji at dawn."}
			}]
		}`))
	}))
	defer srv.Close()

	c := assistant.NewOpenAICompleter("sk-test", "", srv.URL+"/", option.WithMaxRetries(0))
	got, err := c.Complete(context.Background(), assistant.Request{
		System:  "system prompt",
		History: []assistant.Message{{Role: assistant.RoleAssistant, Content: "Hi!"}},
		Message: "What should I see?",
	})

	require.NoError(t, err)
	assert.Equal(t, "Try Senso-ji at dawn.", got)
	assert.Equal(t, assistant.DefaultModel, body.Model)
	assert.Equal(t, 500, body.MaxTokens)
	assert.InDelta(t, 0.7, body.Temperature, 1e-9)
	require.Len(t, body.Messages, 3)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "assistant", body.Messages[1].Role)
	assert.Equal(t, "user", body.Messages[2].Role)
	assert.Equal(t, "What should I see?", body.Messages[2].Content)
}

func TestOpenAICompleter_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := assistant.NewOpenAICompleter("sk-bad", "gpt-4o-mini", srv.URL+"/", option.WithMaxRetries(0))
	_, err := c.Complete(context.Background(), assistant.Request{System: "s", Message: "m"})

	require.Error(t, err)
}
