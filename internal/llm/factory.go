package llm

import (
	"context"
	"fmt"

	"github.com/studorama/studorama/internal/storage"
)

// NewProvider creates a Provider from configuration, wrapped with the usage
// and retry decorators: caller → retry → usage → base.
func NewProvider(ctx context.Context, cfg Config, kv *storage.KV) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "openai", "openrouter":
		base, err = NewOpenAIProvider(cfg)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	tracked := WithUsageTracking(base, kv)
	return WithRetry(tracked, cfg.Retry), nil
}
