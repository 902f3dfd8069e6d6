// Package orchestrator answers user queries by driving the completion
// service, dispatching at most one round of tool calls between two
// completion requests.
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"coursechat/internal/completion"
	"coursechat/internal/session"
	"coursechat/internal/tools"
)

const systemPrompt = `You are an AI assistant specialized in course materials and educational content, with a search tool for course information.

Search Tool Usage:
- Use the search tool only for questions about specific course content or detailed educational materials
- One search per query maximum
- Synthesize search results into accurate, fact-based responses
- If the search yields no results, state this clearly without offering alternatives

Response Protocol:
- General knowledge questions: answer using existing knowledge without searching
- Course-specific questions: search first, then answer
- No meta-commentary: provide direct answers only, without reasoning process, search explanations, or question-type analysis

All responses must be brief, concise and focused. Provide only the direct answer to what was asked.`

// Orchestrator wires the completion service, tool registry, and session
// store into the two-call query flow.
type Orchestrator struct {
	svc      completion.Service
	registry *tools.Registry
	sessions *session.Store
	log      *zap.Logger
}

func New(svc completion.Service, registry *tools.Registry, sessions *session.Store, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{svc: svc, registry: registry, sessions: sessions, log: log}
}

// Query answers a user query within the given session. It returns the
// answer text and the source labels of any course content consulted.
// The exchange is recorded in the session only on success.
func (o *Orchestrator) Query(ctx context.Context, query, sessionID string) (string, []string, error) {
	system := systemPrompt
	if history := session.Render(o.sessions.History(sessionID)); history != "" {
		system += "\n\nPrevious conversation:\n" + history
	}

	messages := []completion.Message{
		completion.TextMessage(completion.RoleUser, query),
	}
	resp, err := o.svc.Complete(ctx, completion.Request{
		System:   system,
		Messages: messages,
		Tools:    o.registry.Definitions(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("completion: %w", err)
	}

	var sources []string
	if resp.StopReason == completion.StopToolUse {
		messages = append(messages, completion.Message{
			Role:    completion.RoleAssistant,
			Content: resp.Content,
		})
		results, toolSources, err := o.runTools(ctx, resp.ToolCalls())
		if err != nil {
			return "", nil, err
		}
		sources = toolSources
		messages = append(messages, completion.Message{
			Role:    completion.RoleUser,
			Content: results,
		})
		resp, err = o.svc.Complete(ctx, completion.Request{
			System:   system,
			Messages: messages,
		})
		if err != nil {
			return "", nil, fmt.Errorf("completion: %w", err)
		}
	}

	answer := resp.TextContent()
	o.sessions.Append(sessionID, query, answer)
	return answer, sources, nil
}

// runTools executes tool calls in order and builds the tool_result blocks
// for the follow-up request. Tool failures become error results shown to
// the model rather than aborting the query.
func (o *Orchestrator) runTools(ctx context.Context, calls []completion.ContentBlock) ([]completion.ContentBlock, []string, error) {
	results := make([]completion.ContentBlock, 0, len(calls))
	var sources []string
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		text, toolSources, err := o.registry.Execute(ctx, call.Name, call.Input)
		if err != nil {
			o.log.Warn("tool execution failed",
				zap.String("tool", call.Name),
				zap.Error(err))
			results = append(results, completion.ContentBlock{
				Type:      "tool_result",
				ToolUseID: call.ID,
				Content:   fmt.Sprintf("Tool execution failed: %v", err),
				IsError:   true,
			})
			continue
		}
		sources = append(sources, toolSources...)
		results = append(results, completion.ContentBlock{
			Type:      "tool_result",
			ToolUseID: call.ID,
			Content:   text,
		})
	}
	return results, sources, nil
}
