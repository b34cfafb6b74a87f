package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnsupportedProvider is returned by NewClient for unknown provider names.
var ErrUnsupportedProvider = errors.New("unsupported LLM provider")

// Client sends one completion request to a language model.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response is the model's text plus token accounting.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Usage counts the tokens billed for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Config selects and configures a provider.
type Config struct {
	Provider       string
	APIKey         string
	Model          string
	ClaudeCodePath string
	BaseURL        string
	Timeout        time.Duration
	RateLimit      int // requests per minute
}

// NewClient creates a rate-limited client for the configured provider.
func NewClient(cfg Config) (Client, error) {
	var (
		client Client
		err    error
	)

	switch strings.ToLower(cfg.Provider) {
	case "anthropic":
		client, err = newAnthropicClient(cfg)
	case "openai":
		client, err = newOpenAIClient(cfg)
	case "claudecode":
		client, err = newClaudeCodeClient(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return WithRateLimit(client, cfg.RateLimit), nil
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 60 * time.Second
	}
	return d
}
