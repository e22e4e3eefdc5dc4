package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/scry-studygen/internal/config"
	"github.com/phrazzld/scry-studygen/internal/domain"
	"github.com/phrazzld/scry-studygen/internal/generation"
	"google.golang.org/genai"
)

// Client implements generation.Client using the Gemini API.
type Client struct {
	logger  *slog.Logger
	client  *genai.Client
	model   string
	timeout time.Duration
	gen     *genai.GenerateContentConfig
}

var _ generation.Client = (*Client)(nil)

// NewClient creates a Gemini client from the LLM configuration.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(cfg.BaseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	temperature := float32(cfg.Temperature)
	return &Client{
		logger:  logger.With("component", "gemini_client", "model", cfg.ModelName),
		client:  client,
		model:   cfg.ModelName,
		timeout: cfg.RequestTimeout(),
		gen:     &genai.GenerateContentConfig{Temperature: &temperature},
	}, nil
}

// Submit sends prompt to the model and returns the concatenated text of
// the first candidate.
func (c *Client) Submit(ctx context.Context, prompt string) (string, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	c.logger.DebugContext(ctx, "calling Gemini API", "prompt_length", len(prompt))

	resp, err := c.client.Models.GenerateContent(callCtx, c.model, genai.Text(prompt), c.gen)
	if err != nil {
		mapped := mapError(ctx, err)
		c.logger.WarnContext(ctx, "Gemini API call failed",
			"error", mapped,
			"duration_ms", time.Since(start).Milliseconds())
		return "", mapped
	}

	text, err := responseText(resp)
	if err != nil {
		c.logger.WarnContext(ctx, "unusable Gemini response", "error", err)
		return "", err
	}

	c.logger.InfoContext(ctx, "Gemini API call successful",
		"response_length", len(text),
		"duration_ms", time.Since(start).Milliseconds())
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", domain.ErrService)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: response blocked by safety filters", domain.ErrService)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", domain.ErrService)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: response has no text parts", domain.ErrService)
	}
	return b.String(), nil
}
