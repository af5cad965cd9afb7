package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/promptlift-backend/internal/platform/envutil"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Generator produces text from an instruction document and a user prompt.
type Generator interface {
	GenerateText(ctx context.Context, instructions string, prompt string) (string, error)
}

// Config selects and tunes a provider. Zero values fall back to provider defaults.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// ConfigFromEnv reads LLM_PROVIDER and the provider's own variables.
func ConfigFromEnv() Config {
	return ConfigForProvider(envutil.String("LLM_PROVIDER", ProviderOpenAI))
}

// ConfigForProvider reads the variables of the named provider.
func ConfigForProvider(provider string) Config {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = ProviderOpenAI
	}
	cfg := Config{
		Provider:    provider,
		MaxTokens:   envutil.Int("LLM_MAX_TOKENS", 2048),
		Temperature: 0.2,
		Timeout:     envutil.Seconds("LLM_HTTP_TIMEOUT_SECONDS", 180*time.Second),
		MaxRetries:  envutil.Int("OPENAI_MAX_RETRIES", 4),
	}
	switch provider {
	case ProviderAnthropic:
		cfg.APIKey = envutil.String("ANTHROPIC_API_KEY", "")
		cfg.BaseURL = envutil.String("ANTHROPIC_BASE_URL", "")
		cfg.Model = envutil.String("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929")
	case ProviderGemini:
		cfg.APIKey = envutil.String("GEMINI_API_KEY", envutil.String("GOOGLE_API_KEY", ""))
		cfg.Model = envutil.String("GEMINI_MODEL", "gemini-2.5-flash")
	default:
		cfg.APIKey = envutil.String("OPENAI_API_KEY", "")
		cfg.BaseURL = envutil.String("OPENAI_BASE_URL", "https://api.openai.com")
		cfg.Model = envutil.String("OPENAI_MODEL", "gpt-5-mini")
		cfg.Timeout = envutil.Seconds("OPENAI_TIMEOUT_SECONDS", cfg.Timeout)
	}
	return cfg
}

// New builds the Generator named by cfg.Provider.
func New(ctx context.Context, log *logger.Logger, cfg Config) (Generator, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing API key for llm provider %q", cfg.Provider)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		return NewOpenAI(log, cfg)
	case ProviderAnthropic:
		return NewAnthropic(log, cfg)
	case ProviderGemini:
		return NewGemini(ctx, log, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, instructions string, prompt string) (string, error)

func (f GeneratorFunc) GenerateText(ctx context.Context, instructions string, prompt string) (string, error) {
	return f(ctx, instructions, prompt)
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
