package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend completes prompts with the Gemini API.
type GeminiBackend struct {
	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGeminiBackend creates a backend with a lazily built client per API key.
func NewGeminiBackend() *GeminiBackend {
	return &GeminiBackend{clients: make(map[string]*genai.Client)}
}

func (b *GeminiBackend) Name() string { return "gemini" }

func (b *GeminiBackend) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.clients[apiKey]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}
	b.clients[apiKey] = c
	return c, nil
}

// Complete sends prompt as a single text turn.
func (b *GeminiBackend) Complete(ctx context.Context, apiKey, model, prompt string) (string, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	c, err := b.client(ctx, apiKey)
	if err != nil {
		return "", err
	}
	resp, err := c.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyGemini(fmt.Errorf("gemini API call: %w", err))
	}
	text := resp.Text()
	if text == "" {
		return "", &TransientError{Err: errors.New("no text content in API response")}
	}
	return text, nil
}

func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, geminiRetryDelay(apiErr.Details), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return classifyStatus(apiErrPtr.Code, geminiRetryDelay(apiErrPtr.Details), err)
	}
	return classifyTransport(err)
}

// geminiRetryDelay reads the RetryInfo detail ("retryDelay": "30s") if present.
func geminiRetryDelay(details []map[string]any) time.Duration {
	for _, d := range details {
		v, ok := d["retryDelay"].(string)
		if !ok {
			continue
		}
		if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
			return dur
		}
	}
	return 0
}
