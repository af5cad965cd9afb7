package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/yungbote/promptlift-backend/internal/observability"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

// Anthropic calls the Messages API through the official SDK.
type Anthropic struct {
	log         *logger.Logger
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

func NewAnthropic(log *logger.Logger, cfg Config) (*Anthropic, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}
	return &Anthropic{
		log:         log.With("service", "AnthropicClient"),
		client:      anthropic.NewClient(opts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (a *Anthropic) GenerateText(ctx context.Context, instructions string, prompt string) (string, error) {
	start := time.Now()
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: instructions}}
	}
	if a.temperature > 0 {
		params.Temperature = anthropic.Float(a.temperature)
	}

	msg, err := a.client.Messages.New(ctx, params)
	var in, out int
	if msg != nil {
		in, out = int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	}
	observability.Current().ObserveLLMRequest(ProviderAnthropic, a.model, statusLabel(err), time.Since(start), in, out)
	if err != nil {
		return "", fmt.Errorf("anthropic generate: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("anthropic returned no text (stop_reason=%s)", msg.StopReason)
	}
	return b.String(), nil
}
