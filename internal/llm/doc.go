// Package llm classifies merchants the deterministic cascade could not match.
// Providers are Anthropic, OpenAI and the claude CLI. Requests are rate limited
// and metered.
package llm
