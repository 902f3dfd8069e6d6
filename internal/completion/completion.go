// Package completion abstracts a tool-capable chat completion provider.
package completion

import (
	"context"

	"coursechat/internal/tools"
)

// Stop reasons reported by providers.
const (
	StopEndTurn = "end_turn"
	StopToolUse = "tool_use"
)

// Roles used in conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContentBlock is a single block of message content. Which fields are set
// depends on Type: "text" carries Text, "tool_use" carries ID/Name/Input,
// "tool_result" carries ToolUseID/Content/IsError.
type ContentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`
}

// Message is one turn of a conversation.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

func TextMessage(role, text string) Message {
	return Message{Role: role, Content: []ContentBlock{{Type: "text", Text: text}}}
}

// Request is a provider-independent completion request.
type Request struct {
	System      string
	Messages    []Message
	Tools       []tools.Definition
	MaxTokens   int
	Temperature float64
}

// Response is the provider's reply.
type Response struct {
	StopReason string
	Content    []ContentBlock
}

// TextContent concatenates the text blocks of the response.
func (r *Response) TextContent() string {
	out := ""
	for _, b := range r.Content {
		if b.Type == "text" {
			out += b.Text
		}
	}
	return out
}

// ToolCalls returns the tool_use blocks of the response in order.
func (r *Response) ToolCalls() []ContentBlock {
	var calls []ContentBlock
	for _, b := range r.Content {
		if b.Type == "tool_use" {
			calls = append(calls, b)
		}
	}
	return calls
}

// Service produces completions. Implementations must be safe for
// concurrent use.
type Service interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
