// Package content talks to the text-generation provider that writes
// statements, solutions, test generators and reports.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DreamingRabbit/CP-Gen/internal/config"
)

// ErrMissingAPIKey is returned when no API key was configured.
var ErrMissingAPIKey = errors.New("content: API key not configured (set CPGEN_API_KEY)")

// Role names what a prompt asks the model to produce.
type Role string

const (
	RoleStatement Role = "statement"
	RoleSolution  Role = "solution"
	RoleGenerator Role = "generator"
	RoleReport    Role = "report"
)

// Prompt is a single system+user exchange.
type Prompt struct {
	Role   Role
	System string
	User   string
}

// Generator turns a prompt into free text.
type Generator interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt Prompt) (string, error)

// Complete calls f.
func (f GeneratorFunc) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

// New builds the generator selected by cfg.
func New(ctx context.Context, cfg config.GeneratorConfig, apiKey string, logger *slog.Logger) (Generator, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	switch cfg.Provider {
	case config.ProviderDeepSeek, config.ProviderOpenAI:
		return NewChatClient(ChatConfig{
			APIKey:      apiKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:      apiKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
	default:
		return nil, fmt.Errorf("content: unknown provider %q", cfg.Provider)
	}
}
