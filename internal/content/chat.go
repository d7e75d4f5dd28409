package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DreamingRabbit/CP-Gen/internal/logging"
)

// ChatConfig configures an OpenAI-compatible chat completions endpoint.
// DeepSeek speaks the same protocol.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// ChatClient implements Generator against /chat/completions.
type ChatClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float32
	httpClient  *http.Client
	logger      *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewChatClient creates a client for the given endpoint.
func NewChatClient(cfg ChatConfig, logger *slog.Logger) *ChatClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &ChatClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logging.Sub(logger, "chat"),
	}
}

// Complete sends the prompt and returns the trimmed first choice.
func (c *ChatClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	started := time.Now()
	log := logging.FromContext(ctx, c.logger)
	log.Debug("complete", "role", prompt.Role, "model", c.model, "system_len", len(prompt.System), "user_len", len(prompt.User))

	var messages []chatMessage
	if strings.TrimSpace(prompt.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: prompt.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt.User})

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("content: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("content: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("content: %s request: %w", prompt.Role, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("content: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("content: %s request failed with status %d: %s", prompt.Role, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("content: parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("content: API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("content: %s: no completion returned", prompt.Role)
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	log.Info("completed", "role", prompt.Role, "duration", time.Since(started).Round(time.Millisecond), "response_len", len(text))
	return text, nil
}
