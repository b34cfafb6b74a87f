package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// claudeCodeClient shells out to the claude CLI in print mode.
type claudeCodeClient struct {
	cliPath string
	model   string
	timeout time.Duration
}

func newClaudeCodeClient(cfg Config) (Client, error) {
	cliPath := cfg.ClaudeCodePath
	if cliPath == "" {
		cliPath = "claude"
	}

	if _, err := exec.LookPath(cliPath); err != nil {
		return nil, fmt.Errorf("claude CLI not found at %s: ensure @anthropic-ai/claude-code is installed", cliPath)
	}

	model := cfg.Model
	if model == "" {
		model = "sonnet"
	}

	return &claudeCodeClient{
		cliPath: cliPath,
		model:   model,
		timeout: timeoutOrDefault(cfg.Timeout),
	}, nil
}

type claudeCodeResponse struct {
	Type      string  `json:"type"`
	Result    string  `json:"result"`
	SessionID string  `json:"session_id"`
	TotalCost float64 `json:"total_cost_usd"`
	IsError   bool    `json:"is_error"`
	Usage     struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

// Complete ignores MaxTokens and Temperature; the CLI exposes neither.
func (c *claudeCodeClient) Complete(ctx context.Context, req Request) (Response, error) {
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + req.Prompt
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{
		"-p", prompt,
		"--output-format", "json",
		"--model", c.model,
		"--max-turns", "1",
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.cliPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, fmt.Errorf("claude code canceled: %w", ctxErr)
		}
		if stderr.Len() > 0 {
			return Response{}, fmt.Errorf("claude code error: %s", strings.TrimSpace(stderr.String()))
		}
		return Response{}, fmt.Errorf("failed to execute claude: %w", err)
	}

	var parsed claudeCodeResponse
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		// Older CLI versions print plain text.
		return Response{Text: stdout.String(), Model: c.model}, nil
	}
	if parsed.IsError {
		return Response{}, fmt.Errorf("claude code error in response: %s", parsed.Result)
	}
	if parsed.Result == "" {
		return Response{}, fmt.Errorf("empty response from claude code")
	}

	return Response{
		Text:  parsed.Result,
		Model: c.model,
		Usage: Usage{
			InputTokens:  parsed.Usage.InputTokens,
			OutputTokens: parsed.Usage.OutputTokens,
		},
	}, nil
}
