package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/DreamingRabbit/CP-Gen/internal/logging"
)

// GeminiConfig configures the Gemini API generator.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
	// BaseURL overrides the API endpoint; empty uses the default.
	BaseURL string
}

// GeminiClient implements Generator with google.golang.org/genai.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      *slog.Logger
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-pro"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if logger == nil {
		logger = logging.Nop()
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("content: create gemini client: %w", err)
	}
	return &GeminiClient{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logging.Sub(logger, "gemini"),
	}, nil
}

// Complete sends the prompt and returns the trimmed response text.
func (g *GeminiClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	started := time.Now()
	log := logging.FromContext(ctx, g.logger)
	log.Debug("complete", "role", prompt.Role, "model", g.model)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt.User), generateConfig(prompt, g.temperature))
	if err != nil {
		return "", fmt.Errorf("content: %s request: %w", prompt.Role, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("content: %s: no completion returned", prompt.Role)
	}
	log.Info("completed", "role", prompt.Role, "duration", time.Since(started).Round(time.Millisecond), "response_len", len(text))
	return text, nil
}

// generateConfig builds the request config. The system instruction is sent
// without a role.
func generateConfig(prompt Prompt, temperature float32) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	if strings.TrimSpace(prompt.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, "")
	}
	return cfg
}
