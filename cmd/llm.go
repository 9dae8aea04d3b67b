package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/joescharf/ideas/internal/llm"
)

// newGenerator builds the generation client for the configured provider.
// Keys come from <provider>.api_keys plus the provider's usual environment
// variable. With no keys the SDK's own credential discovery applies.
func newGenerator() (*llm.Client, error) {
	provider := strings.ToLower(viper.GetString("llm.provider"))

	var backend llm.Backend
	var envVar string
	switch provider {
	case "anthropic", "":
		provider = "anthropic"
		backend = llm.NewAnthropicBackend(viper.GetInt64("llm.max_tokens"))
		envVar = "ANTHROPIC_API_KEY"
	case "gemini":
		backend = llm.NewGeminiBackend()
		envVar = "GEMINI_API_KEY"
	default:
		return nil, fmt.Errorf("unknown llm.provider %q (want anthropic or gemini)", provider)
	}

	keys := apiKeys(viper.GetStringSlice(provider+".api_keys"), os.Getenv(envVar))
	if len(keys) == 0 {
		logger.Warn("no API keys configured, relying on SDK credential discovery",
			zap.String("provider", provider), zap.String("env", envVar))
	}

	cfg := llm.Config{
		Model:            generationModel(),
		MaxAttempts:      viper.GetInt("llm.max_attempts"),
		RetryDelay:       viper.GetDuration("llm.retry_delay"),
		RequestTimeout:   viper.GetDuration("llm.request_timeout"),
		RateLimitDelay:   viper.GetDuration("llm.rate_limit_delay"),
		MaxRateLimitWait: viper.GetDuration("llm.max_rate_limit_wait"),
		Language:         llm.LatinScriptHeuristic{Threshold: viper.GetFloat64("llm.ascii_threshold")},
	}
	return llm.NewClient(backend, keys, cfg, logger), nil
}

// generationModel returns the model configured for the active provider.
func generationModel() string {
	if strings.ToLower(viper.GetString("llm.provider")) == "gemini" {
		return viper.GetString("gemini.model")
	}
	return viper.GetString("anthropic.model")
}

// apiKeys merges configured keys with an env value. Entries may themselves be
// comma separated; duplicates and blanks are dropped, order is kept.
func apiKeys(configured []string, env string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, raw := range append(configured, env) {
		for _, k := range strings.Split(raw, ",") {
			k = strings.TrimSpace(k)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
