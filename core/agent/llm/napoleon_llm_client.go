package llm

import (
	"context"
	"strings"
	"time"

	"napoleon_server/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

const DefaultModel = "gpt-4o-mini"

const (
	// Timeouts per call type. A timeout is treated identically to any other
	// LLM failure: the caller falls back.
	lightCallTimeout      = 30 * time.Second
	structuredCallTimeout = 60 * time.Second
)

// Client wraps the OpenAI API with JSON-mode completions and a circuit
// breaker. All analysis calls run at low temperature for stable output.
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	cb          *gobreaker.CircuitBreaker
	prompts     *PromptCache
}

// ClientConfig holds LLM client configuration.
type ClientConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewClient creates a client with defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(ClientConfig{APIKey: apiKey})
}

// NewClientWithConfig creates a client with explicit configuration.
func NewClientWithConfig(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	cbSettings := gobreaker.Settings{
		Name:     "openai",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	}

	return &Client{
		client:      openai.NewClient(cfg.APIKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
		cb:          gobreaker.NewCircuitBreaker(cbSettings),
	}
}

// WithPromptCache attaches a rendered-prompt cache.
func (c *Client) WithPromptCache(cache *PromptCache) *Client {
	c.prompts = cache
	return c
}

// CompleteJSON requests a JSON-only completion through the circuit breaker.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.cb.Execute(func() (any, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return "{}", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Complete requests a plain text completion through the circuit breaker.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.cb.Execute(func() (any, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// stripFence removes markdown code fences some models wrap around JSON.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
