// Package llm talks to Ollama. The chat client is the only suspension point
// in the whole engine: one call outstanding at a time, always blocking.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"focusroom/internal/logging"
	"focusroom/internal/types"
)

// OllamaClient calls a local (or cloud) Ollama server over /api/chat.
type OllamaClient struct {
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	client      *http.Client
}

// Option configures an OllamaClient.
type Option func(*OllamaClient)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *OllamaClient) { c.temperature = t }
}

// WithAPIKey sets a bearer token, required for Ollama cloud endpoints.
func WithAPIKey(key string) Option {
	return func(c *OllamaClient) { c.apiKey = key }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *OllamaClient) { c.client.Timeout = d }
}

// NewOllamaClient creates a new Ollama chat client.
func NewOllamaClient(endpoint, model string, opts ...Option) *OllamaClient {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1:8b"
	}

	c := &OllamaClient{
		endpoint:    endpoint,
		model:       model,
		temperature: 0.75,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chat sends the system prompt, prior exchanges, and one user message, and
// returns the raw assistant text. Failures are wrapped in
// types.ErrInferenceUnavailable so callers can classify without string
// matching.
func (c *OllamaClient) Chat(ctx context.Context, system string, history []types.Exchange, user string) (string, error) {
	messages := make([]chatMessage, 0, len(history)+2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	for _, ex := range history {
		messages = append(messages, chatMessage{Role: ex.Role, Content: ex.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	return c.chat(ctx, c.model, messages)
}

// ChatVision sends a single user message with attached base64-encoded images.
// Used by the image analysis service.
func (c *OllamaClient) ChatVision(ctx context.Context, prompt string, imagesB64 []string) (string, error) {
	messages := []chatMessage{{Role: "user", Content: prompt, Images: imagesB64}}
	return c.chat(ctx, c.model, messages)
}

func (c *OllamaClient) chat(ctx context.Context, model string, messages []chatMessage) (string, error) {
	timer := logging.StartTimer(logging.CategoryAPI, "ollama chat")
	defer timer.StopWithThreshold(30 * time.Second)

	req := chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options:  chatOptions{Temperature: c.temperature},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logging.APIDebug("POST %s/api/chat model=%s messages=%d", c.endpoint, model, len(messages))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		logging.APIError("ollama request failed: %v", err)
		return "", fmt.Errorf("%w: %v", types.ErrInferenceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		logging.APIError("ollama returned status %d: %s", resp.StatusCode, string(bodyBytes))
		return "", fmt.Errorf("%w: status %d", types.ErrInferenceUnavailable, resp.StatusCode)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", types.ErrInferenceUnavailable, err)
	}

	return result.Message.Content, nil
}

// Name returns the client name for logging.
func (c *OllamaClient) Name() string {
	return fmt.Sprintf("ollama:%s", c.model)
}

// =============================================================================
// OLLAMA API TYPES
// =============================================================================

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
}

type chatRequest struct {
	Model    string      `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool        `json:"stream"`
	Options  chatOptions `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}
