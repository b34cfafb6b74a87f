package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientUnsupported(t *testing.T) {
	_, err := NewClient(Config{Provider: "gemini"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = NewClient(Config{Provider: "anthropic"})
	assert.Error(t, err)

	_, err = NewClient(Config{Provider: "openai"})
	assert.Error(t, err)
}

func TestOpenAIClient(t *testing.T) {
	var got openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-4o","choices":[{"message":{"role":"assistant","content":"<prediction/>"}}],"usage":{"prompt_tokens":12,"completion_tokens":3}}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{Provider: "openai", APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{System: "sys", Prompt: "hi", MaxTokens: 50, Temperature: 0.1})
	require.NoError(t, err)

	assert.Equal(t, "<prediction/>", resp.Text)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 3}, resp.Usage)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, 50, got.MaxTokens)
}

func TestOpenAIClientStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, ClassRateLimit, Classify(err))
}

func TestAnthropicClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-sonnet-4-5", body["model"])
		assert.NotNil(t, body["system"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [{"type": "text", "text": "<prediction><category>기타</category></prediction>"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 20, "output_tokens": 7}
		}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{System: "sys", Prompt: "hi", MaxTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, "<prediction><category>기타</category></prediction>", resp.Text)
	assert.Equal(t, Usage{InputTokens: 20, OutputTokens: 7}, resp.Usage)
}

func TestAnthropicClientAuthError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "bad", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Prompt: "hi", MaxTokens: 10})
	require.Error(t, err)
	assert.Equal(t, ClassAuth, Classify(err))
	assert.Equal(t, 1, calls)
}

func TestClaudeCodeClient(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub requires a POSIX shell")
	}

	script := filepath.Join(t.TempDir(), "claude")
	stub := "#!/bin/sh\necho '{\"type\":\"result\",\"result\":\"<prediction><category>세금</category></prediction>\",\"is_error\":false,\"usage\":{\"input_tokens\":9,\"output_tokens\":2}}'\n"
	require.NoError(t, os.WriteFile(script, []byte(stub), 0o700))

	client, err := NewClient(Config{Provider: "claudecode", ClaudeCodePath: script})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{System: "sys", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "<prediction><category>세금</category></prediction>", resp.Text)
	assert.Equal(t, int64(9), resp.Usage.InputTokens)
}

func TestClaudeCodeClientMissingBinary(t *testing.T) {
	_, err := newClaudeCodeClient(Config{ClaudeCodePath: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
