package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Config holds explicit embedder configuration
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	CacheSize int
}

// NewFromEnv creates an embedder from environment variables.
// KNOWCTX_EMBEDDING_PROVIDER selects explicitly (openai, local); without
// it, OPENAI_API_KEY enables the OpenAI provider and the local provider
// is the fallback so the server always starts.
func NewFromEnv() (Embedder, error) {
	provider := strings.ToLower(os.Getenv(EnvProvider))
	apiKey := os.Getenv(EnvOpenAIAPIKey)
	model := os.Getenv(EnvOpenAIModel)

	cache := NewCache(DefaultCacheSize)

	switch provider {
	case "":
		// Auto-detect
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	if apiKey != "" {
		return NewOpenAIProvider(apiKey, model, cache)
	}
	return NewLocalProvider(cache)
}

// New creates an embedder from explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// DetectProvider reports which provider NewFromEnv would pick
func DetectProvider() string {
	if provider := strings.ToLower(os.Getenv(EnvProvider)); provider != "" {
		return provider
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	return ProviderLocal
}
