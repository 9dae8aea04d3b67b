package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config tunes the retry policy of a Client. Zero values fall back to defaults.
type Config struct {
	Model               string
	MaxAttempts         int           // transient attempts per prompt
	RetryDelay          time.Duration // fixed delay between transient attempts
	RequestTimeout      time.Duration // per attempt
	RateLimitDelay      time.Duration // used when the provider gives no retry-after
	MaxRateLimitWait    time.Duration // cap on a single rate-limit sleep
	MaxRateLimitRetries int           // 0 means twice the pool size, at least 3
	Language            LanguageDetector // nil means LatinScriptHeuristic with the default threshold
}

// Defaults.
const (
	DefaultMaxAttempts      = 3
	DefaultRetryDelay       = 2 * time.Second
	DefaultRequestTimeout   = 60 * time.Second
	DefaultRateLimitDelay   = 10 * time.Second
	DefaultMaxRateLimitWait = 60 * time.Second
)

func (c Config) withDefaults(poolSize int) Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	} else if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.RateLimitDelay <= 0 {
		c.RateLimitDelay = DefaultRateLimitDelay
	}
	if c.MaxRateLimitWait <= 0 {
		c.MaxRateLimitWait = DefaultMaxRateLimitWait
	}
	if c.MaxRateLimitRetries <= 0 {
		c.MaxRateLimitRetries = max(2*poolSize, 3)
	}
	if c.Language == nil {
		c.Language = LatinScriptHeuristic{}
	}
	return c
}

// Generator is the narrow interface consumers depend on.
type Generator interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// Client sends prompts through a Backend, rotating over a pool of API keys.
type Client struct {
	backend Backend
	keys    []string
	cfg     Config
	logger  *zap.Logger

	mu   sync.Mutex
	next int

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client. An empty key pool means the backend's own
// credential discovery is used (e.g. ANTHROPIC_API_KEY).
func NewClient(backend Backend, keys []string, cfg Config, logger *zap.Logger) *Client {
	pool := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			pool = append(pool, k)
		}
	}
	if len(pool) == 0 {
		pool = []string{""}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		backend: backend,
		keys:    pool,
		cfg:     cfg.withDefaults(len(pool)),
		logger:  logger.Named("llm"),
		sleep:   sleepContext,
	}
}

// PoolSize returns the number of credentials in rotation.
func (c *Client) PoolSize() int { return len(c.keys) }

// Generate completes prompt with model (the configured model when empty).
// Text that fails the Latin-script heuristic is requested once more with an
// English-only instruction.
func (c *Client) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = c.cfg.Model
	}
	text, err := c.complete(ctx, prompt, model)
	if err != nil {
		return "", err
	}
	if c.cfg.Language.IsLatin(text) {
		return text, nil
	}

	c.logger.Warn("non-English output, retrying in English",
		zap.Float64("ascii_ratio", c.cfg.Language.Ratio(text)))
	retried, err := c.complete(ctx, prompt+EnglishInstruction, model)
	if err != nil {
		c.logger.Warn("English retry failed, keeping first output", zap.Error(err))
		return text, nil
	}
	return retried, nil
}

// nextKey returns the credential for the next attempt.
func (c *Client) nextKey() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.next
	c.next = (c.next + 1) % len(c.keys)
	return i, c.keys[i]
}

func (c *Client) complete(ctx context.Context, prompt, model string) (string, error) {
	transient, limited := 0, 0
	for {
		idx, key := c.nextKey()
		text, err := c.attempt(ctx, key, model, prompt)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrGenerationUnavailable, ctx.Err())
		}

		var rl *RateLimitError
		var te *TransientError
		switch {
		case errors.As(err, &rl):
			limited++
			if limited > c.cfg.MaxRateLimitRetries {
				return "", fmt.Errorf("%w: still rate limited after %d retries: %w", ErrGenerationUnavailable, limited-1, err)
			}
			wait := rl.RetryAfter
			if wait <= 0 {
				wait = c.cfg.RateLimitDelay
			}
			wait = min(wait, c.cfg.MaxRateLimitWait)
			c.logger.Warn("rate limited, rotating credential",
				zap.String("backend", c.backend.Name()),
				zap.Int("key_index", idx),
				zap.Duration("wait", wait))
			if err := c.sleep(ctx, wait); err != nil {
				return "", fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
			}
		case errors.As(err, &te):
			transient++
			if transient >= c.cfg.MaxAttempts {
				return "", fmt.Errorf("%w after %d attempts: %w", ErrGenerationUnavailable, transient, err)
			}
			c.logger.Warn("transient generation failure, retrying",
				zap.String("backend", c.backend.Name()),
				zap.Int("attempt", transient),
				zap.Error(err))
			if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
				return "", fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
			}
		default:
			return "", fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
		}
	}
}

func (c *Client) attempt(ctx context.Context, key, model, prompt string) (string, error) {
	actx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	text, err := c.backend.Complete(actx, key, model, prompt)
	if err != nil && errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return "", &TransientError{Err: fmt.Errorf("attempt timed out after %s: %w", c.cfg.RequestTimeout, err)}
	}
	return text, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
