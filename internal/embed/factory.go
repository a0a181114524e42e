package embed

import (
	"context"
	"fmt"
	"strings"
)

// Provider identifies an embedding backend.
type Provider string

const (
	// ProviderOllama uses a local Ollama server (default).
	ProviderOllama Provider = "ollama"
	// ProviderStatic uses the hash-based offline embedder.
	ProviderStatic Provider = "static"
)

// String returns the provider name.
func (p Provider) String() string {
	return string(p)
}

// ParseProvider converts a string to a Provider, defaulting to Ollama.
func ParseProvider(s string) Provider {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static":
		return ProviderStatic
	default:
		return ProviderOllama
	}
}

// FactoryConfig configures embedder construction.
type FactoryConfig struct {
	// Provider selects the backend (ollama or static).
	Provider Provider

	// Model is the model name for network providers.
	Model string

	// Host is the Ollama endpoint.
	Host string

	// Dimensions overrides auto-detection (0 = auto-detect).
	Dimensions int

	// BatchSize for batch embedding requests.
	BatchSize int

	// CacheSize is the LRU embedding cache capacity (0 = default).
	CacheSize int
}

// NewEmbedder creates an embedder for the configured provider, wrapped in an
// LRU cache. Construction failure is fatal: a retrieval engine without a
// working embedding provider cannot operate.
func NewEmbedder(ctx context.Context, cfg FactoryConfig) (Embedder, error) {
	var (
		inner Embedder
		err   error
	)

	switch cfg.Provider {
	case ProviderStatic:
		inner = NewStaticEmbedder()
	case ProviderOllama, "":
		ollamaCfg := DefaultOllamaConfig()
		if cfg.Model != "" {
			ollamaCfg.Model = cfg.Model
		}
		if cfg.Host != "" {
			ollamaCfg.Host = cfg.Host
		}
		if cfg.Dimensions > 0 {
			ollamaCfg.Dimensions = cfg.Dimensions
		}
		if cfg.BatchSize > 0 {
			ollamaCfg.BatchSize = cfg.BatchSize
		}
		inner, err = NewOllamaEmbedder(ctx, ollamaCfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}

	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
