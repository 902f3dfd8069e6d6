// Package anthropic implements the completion service against the
// Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"coursechat/internal/completion"
	"coursechat/internal/tools"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultModel   = "claude-3-5-sonnet-latest"
	apiVersion     = "2023-06-01"
)

// Client calls the Anthropic Messages API over plain HTTP.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 800
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      key,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

type apiContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []apiMessage       `json:"messages"`
	Tools       []tools.Definition `json:"tools,omitempty"`
	ToolChoice  map[string]string  `json:"tool_choice,omitempty"`
}

type apiResponse struct {
	StopReason string            `json:"stop_reason"`
	Content    []apiContentBlock `json:"content"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Complete(ctx context.Context, req completion.Request) (*completion.Response, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("empty message list")
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	body := apiRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      req.System,
		Messages:    encodeMessages(req.Messages),
		Tools:       req.Tools,
	}
	if len(req.Tools) > 0 {
		body.ToolChoice = map[string]string{"type": "auto"}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out apiResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 {
		if out.Error != nil {
			return nil, fmt.Errorf("anthropic: %s: %s", out.Error.Type, out.Error.Message)
		}
		return nil, fmt.Errorf("anthropic: %s", resp.Status)
	}
	return decodeResponse(&out)
}

func encodeMessages(msgs []completion.Message) []apiMessage {
	out := make([]apiMessage, 0, len(msgs))
	for _, m := range msgs {
		blocks := make([]apiContentBlock, 0, len(m.Content))
		for _, b := range m.Content {
			block := apiContentBlock{
				Type:      b.Type,
				Text:      b.Text,
				ID:        b.ID,
				Name:      b.Name,
				ToolUseID: b.ToolUseID,
				Content:   b.Content,
				IsError:   b.IsError,
			}
			if b.Type == "tool_use" {
				input := b.Input
				if input == nil {
					input = map[string]any{}
				}
				raw, _ := json.Marshal(input)
				block.Input = raw
			}
			blocks = append(blocks, block)
		}
		out = append(out, apiMessage{Role: m.Role, Content: blocks})
	}
	return out
}

func decodeResponse(out *apiResponse) (*completion.Response, error) {
	resp := &completion.Response{StopReason: out.StopReason}
	for _, b := range out.Content {
		block := completion.ContentBlock{
			Type:      b.Type,
			Text:      b.Text,
			ID:        b.ID,
			Name:      b.Name,
			ToolUseID: b.ToolUseID,
			Content:   b.Content,
			IsError:   b.IsError,
		}
		if len(b.Input) > 0 {
			var input map[string]any
			if err := json.Unmarshal(b.Input, &input); err != nil {
				return nil, fmt.Errorf("decode tool input: %w", err)
			}
			block.Input = input
		}
		resp.Content = append(resp.Content, block)
	}
	return resp, nil
}
