package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/promptlift-backend/internal/observability"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

// Gemini calls generateContent through the genai SDK.
type Gemini struct {
	log         *logger.Logger
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

func NewGemini(ctx context.Context, log *logger.Logger, cfg Config) (*Gemini, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Timeout > 0 {
		timeout := cfg.Timeout
		cc.HTTPOptions.Timeout = &timeout
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Gemini{
		log:         log.With("service", "GeminiClient"),
		client:      client,
		model:       model,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: float32(cfg.Temperature),
	}, nil
}

func (g *Gemini) GenerateText(ctx context.Context, instructions string, prompt string) (string, error) {
	start := time.Now()
	gc := &genai.GenerateContentConfig{}
	if instructions != "" {
		gc.SystemInstruction = genai.NewContentFromText(instructions, genai.RoleUser)
	}
	if g.maxTokens > 0 {
		gc.MaxOutputTokens = g.maxTokens
	}
	if g.temperature > 0 {
		gc.Temperature = genai.Ptr(g.temperature)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), gc)
	var in, out int
	if resp != nil && resp.UsageMetadata != nil {
		in, out = int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount)
	}
	observability.Current().ObserveLLMRequest(ProviderGemini, g.model, statusLabel(err), time.Since(start), in, out)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}
