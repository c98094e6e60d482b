// Package groq talks to the Groq OpenAI-compatible chat completions API.
package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Volatile-Viv/Try-Karo/internal/llm"
	"github.com/Volatile-Viv/Try-Karo/pkg/httpclient"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama3-8b-8192"

	temperature = 0.7
	maxTokens   = 1024
)

// Config holds Groq client settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client implements llm.Provider against Groq.
type Client struct {
	cfg    Config
	client *httpclient.CircuitBreakerClient
}

// New creates a Groq client backed by the given resilient HTTP client.
func New(cfg Config, client *httpclient.CircuitBreakerClient) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, client: client}
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
}

var errNoChoices = errors.New("groq: completion has no choices")

// Complete sends the conversation and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	req := completionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	var resp completionResponse
	if err := c.client.PostJSON(ctx, c.cfg.BaseURL+"/chat/completions", header, req, &resp); err != nil {
		return "", fmt.Errorf("groq chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}
