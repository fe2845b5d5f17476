// Package llm invokes language-model backends to segment raw text into
// note candidates. Providers share one contract: a prompt in, an opaque
// text blob out. Everything downstream treats that blob as untrusted.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Provider generates a completion for a prompt.
type Provider interface {
	Invoke(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Options configures a provider built by New.
type Options struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	Timeout     time.Duration
}

// Provider names accepted by New.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// New builds the provider named in opts.
func New(opts Options) (Provider, error) {
	client := &http.Client{Timeout: opts.Timeout}
	if opts.Timeout <= 0 {
		client.Timeout = 5 * time.Minute
	}

	switch opts.Provider {
	case ProviderOllama, "":
		return newOllama(opts, client), nil
	case ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("llm: openai provider requires an API key")
		}
		return newOpenAI(opts, client), nil
	case ProviderAnthropic:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("llm: anthropic provider requires an API key")
		}
		return newAnthropic(opts, client), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", opts.Provider)
	}
}
