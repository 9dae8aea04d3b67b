package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5"

// AnthropicBackend completes prompts with the Anthropic Messages API. SDK
// retries are disabled; the Client owns retry policy.
type AnthropicBackend struct {
	MaxTokens int64

	mu      sync.Mutex
	clients map[string]*anthropic.Client
}

// NewAnthropicBackend creates a backend producing up to maxTokens per reply.
func NewAnthropicBackend(maxTokens int64) *AnthropicBackend {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicBackend{
		MaxTokens: maxTokens,
		clients:   make(map[string]*anthropic.Client),
	}
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

func (b *AnthropicBackend) client(apiKey string) *anthropic.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.clients[apiKey]; ok {
		return c
	}
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	c := anthropic.NewClient(opts...)
	b.clients[apiKey] = &c
	return &c
}

// Complete sends prompt as a single user message.
func (b *AnthropicBackend) Complete(ctx context.Context, apiKey, model, prompt string) (string, error) {
	if model == "" {
		model = DefaultAnthropicModel
	}
	msg, err := b.client(apiKey).Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: b.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyAnthropic(fmt.Errorf("anthropic API call: %w", err))
	}

	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", &TransientError{Err: errors.New("no text content in API response")}
}

func classifyAnthropic(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		var retryAfter time.Duration
		if apiErr.Response != nil {
			retryAfter = parseRetryAfter(apiErr.Response.Header.Get("retry-after"), time.Now())
		}
		// 529 is Anthropic's overloaded status and falls under >= 500.
		return classifyStatus(apiErr.StatusCode, retryAfter, err)
	}
	return classifyTransport(err)
}
