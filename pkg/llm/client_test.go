package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClientChat(t *testing.T) {
	var gotAuth string
	var gotReq Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(Response{
			ID: "chatcmpl-1",
			Choices: []Choice{{
				Message:      Message{Role: "assistant", Content: "All pumps nominal."},
				FinishReason: "stop",
			}},
			Usage: Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "test-key")

	resp, err := client.Chat(context.Background(), Request{
		Model: "gpt-4o-mini",
		Messages: []Message{
			{Role: "system", Content: "You are a maintenance assistant."},
			{Role: "user", Content: "How are the pumps?"},
		},
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	assert.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "All pumps nominal.", resp.Choices[0].Message.Content)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestOpenAIClientNoKeyOmitsAuthHeader(t *testing.T) {
	var sawAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		json.NewEncoder(w).Encode(Response{Choices: []Choice{{Message: Message{Content: "ok"}}}})
	}))
	defer server.Close()

	// Ollama runs keyless
	client := NewOpenAIClient(server.URL, "")
	_, err := client.Chat(context.Background(), Request{Model: "llama3.1"})
	require.NoError(t, err)
	assert.False(t, sawAuth)
}

func TestOpenAIClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "test-key")
	_, err := client.Chat(context.Background(), Request{Model: "gpt-4o-mini"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Even an auth failure proves the endpoint is reachable
		w.WriteHeader(http.StatusUnauthorized)
	}))
	client := NewOpenAIClient(server.URL, "")
	assert.NoError(t, client.Ping(context.Background()))

	server.Close()
	assert.Error(t, client.Ping(context.Background()))
}
