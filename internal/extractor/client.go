package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"call-analyzer-go/internal/types"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	DefaultTimeout = 15 * time.Second
	maxTokens      = 500
	temperature    = 0.1
)

// Analyzer summarizes a transcript and labels its sentiment with a remote
// model. Implementations make exactly one outbound call per Analyze.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (types.AnalysisResult, error)
	Ping(ctx context.Context) error
	Provider() string
}

type Config struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// New builds the analyzer for cfg.Provider. A missing API key is reported as
// ErrUnauthorized so the caller can run without a remote model.
func New(cfg Config) (Analyzer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}
	if cfg.APIKey == "" {
		return nil, newAIError(provider, ErrUnauthorized, fmt.Errorf("no API key configured"))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg), nil
	}
	return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
}

// checkInput rejects transcripts that would only waste a service call.
func checkInput(provider, transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return newAIError(provider, ErrInvalidInput, fmt.Errorf("empty transcript"))
	}
	return nil
}
