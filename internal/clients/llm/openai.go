package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/promptlift-backend/internal/observability"
	"github.com/yungbote/promptlift-backend/internal/pkg/httpx"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

// OpenAI talks to the Responses API over plain HTTP.
type OpenAI struct {
	log         *logger.Logger
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	maxRetries  int
}

func NewOpenAI(log *logger.Logger, cfg Config) (*OpenAI, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-5-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &OpenAI{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
		maxRetries:  maxRetries,
	}, nil
}

func (c *OpenAI) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpx.StatusError{StatusCode: resp.StatusCode, Body: string(raw), Service: "openai"}
	}
	return resp, raw, nil
}

func (c *OpenAI) do(ctx context.Context, method, path string, body any, out any) error {
	var raw []byte
	err := httpx.Retry(ctx, c.maxRetries, func(ctx context.Context) (*http.Response, error) {
		resp, b, err := c.doOnce(ctx, method, path, body)
		raw = b
		return resp, err
	}, func(attempt int, sleep time.Duration, err error) {
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"sleep", sleep.String(),
			"error", err.Error(),
		)
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if uErr := json.Unmarshal(raw, out); uErr != nil {
		return fmt.Errorf("openai decode error: %w", uErr)
	}
	return nil
}

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model           string           `json:"model"`
	Instructions    string           `json:"instructions,omitempty"`
	Input           []responsesInput `json:"input"`
	MaxOutputTokens int              `json:"max_output_tokens,omitempty"`
	Temperature     *float64         `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func extractOutputText(resp responsesResponse) (text string, refusal string) {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			switch c.Type {
			case "output_text":
				out.WriteString(c.Text)
			case "refusal":
				if refusal == "" {
					refusal = c.Refusal
				}
			}
		}
	}
	return out.String(), refusal
}

// GenerateText sends instructions as the Responses API instructions field and
// prompt as the single user turn.
func (c *OpenAI) GenerateText(ctx context.Context, instructions string, prompt string) (string, error) {
	start := time.Now()
	req := responsesRequest{
		Model:           c.model,
		Instructions:    instructions,
		Input:           []responsesInput{{Role: "user", Content: prompt}},
		MaxOutputTokens: c.maxTokens,
	}
	if c.temperature > 0 {
		t := c.temperature
		req.Temperature = &t
	}

	resp, err := c.doResponsesWithTempFallback(ctx, req)
	observability.Current().ObserveLLMRequest(ProviderOpenAI, c.model, statusLabel(err), time.Since(start), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	if err != nil {
		return "", err
	}
	text, refusal := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		if refusal != "" {
			return "", fmt.Errorf("model refused: %s", refusal)
		}
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

// doResponsesWithTempFallback retries once without temperature when the model
// rejects the parameter.
func (c *OpenAI) doResponsesWithTempFallback(ctx context.Context, req responsesRequest) (responsesResponse, error) {
	var resp responsesResponse
	err := c.do(ctx, http.MethodPost, "/v1/responses", req, &resp)
	if err == nil || req.Temperature == nil || !isUnsupportedTemperature(err) {
		return resp, err
	}
	c.log.Warn("OpenAI model rejected temperature; retrying without it", "model", c.model)
	req.Temperature = nil
	resp = responsesResponse{}
	err = c.do(ctx, http.MethodPost, "/v1/responses", req, &resp)
	return resp, err
}

func isUnsupportedTemperature(err error) bool {
	var se *httpx.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest {
		return false
	}
	body := strings.ToLower(se.Body)
	return strings.Contains(body, "temperature") && (strings.Contains(body, "unsupported") || strings.Contains(body, "not supported"))
}
