package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursechat/internal/completion"
	"coursechat/internal/session"
	"coursechat/internal/tools"
)

type scriptedService struct {
	responses []*completion.Response
	err       error
	requests  []completion.Request
}

func (s *scriptedService) Complete(ctx context.Context, req completion.Request) (*completion.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

type recordingTool struct {
	text    string
	sources []string
	err     error
	calls   []map[string]any
}

func (r *recordingTool) Definition() tools.Definition {
	return tools.Definition{
		Name:        "search_course_content",
		Description: "search",
		InputSchema: tools.InputSchema{Type: "object"},
	}
}

func (r *recordingTool) Execute(ctx context.Context, args map[string]any) (string, []string, error) {
	r.calls = append(r.calls, args)
	return r.text, r.sources, r.err
}

func textResponse(text string) *completion.Response {
	return &completion.Response{
		StopReason: completion.StopEndTurn,
		Content:    []completion.ContentBlock{{Type: "text", Text: text}},
	}
}

func toolUseResponse(id string, input map[string]any) *completion.Response {
	return &completion.Response{
		StopReason: completion.StopToolUse,
		Content: []completion.ContentBlock{
			{Type: "tool_use", ID: id, Name: "search_course_content", Input: input},
		},
	}
}

func newTestOrchestrator(svc completion.Service, tool tools.Tool) (*Orchestrator, *session.Store) {
	registry := tools.NewRegistry()
	if tool != nil {
		_ = registry.Register(tool)
	}
	sessions := session.NewStore(2)
	return New(svc, registry, sessions, nil), sessions
}

func TestQueryDirectAnswerSkipsTools(t *testing.T) {
	tool := &recordingTool{}
	svc := &scriptedService{responses: []*completion.Response{textResponse("Paris.")}}
	o, sessions := newTestOrchestrator(svc, tool)
	id := sessions.Create()

	answer, sources, err := o.Query(context.Background(), "Capital of France?", id)
	require.NoError(t, err)
	assert.Equal(t, "Paris.", answer)
	assert.Empty(t, sources)
	assert.Empty(t, tool.calls)
	require.Len(t, svc.requests, 1)
	assert.NotEmpty(t, svc.requests[0].Tools)
}

func TestQueryToolRoundUsesModelArguments(t *testing.T) {
	tool := &recordingTool{text: "[Python Basics - Lesson 1]\nVariables.", sources: []string{"Python Basics - Lesson 1"}}
	svc := &scriptedService{responses: []*completion.Response{
		toolUseResponse("toolu_1", map[string]any{"query": "variables", "course_name": "python"}),
		textResponse("Variables hold values."),
	}}
	o, sessions := newTestOrchestrator(svc, tool)
	id := sessions.Create()

	answer, sources, err := o.Query(context.Background(), "What are variables in the Python course?", id)
	require.NoError(t, err)
	assert.Equal(t, "Variables hold values.", answer)
	assert.Equal(t, []string{"Python Basics - Lesson 1"}, sources)

	require.Len(t, tool.calls, 1)
	assert.Equal(t, "variables", tool.calls[0]["query"])
	assert.Equal(t, "python", tool.calls[0]["course_name"])

	require.Len(t, svc.requests, 2)
	assert.Empty(t, svc.requests[1].Tools)
	second := svc.requests[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, completion.RoleAssistant, second[1].Role)
	require.NotEmpty(t, second[2].Content)
	assert.Equal(t, "tool_result", second[2].Content[0].Type)
	assert.Equal(t, "toolu_1", second[2].Content[0].ToolUseID)
	assert.Contains(t, second[2].Content[0].Content, "Variables.")
}

func TestQueryToolFailureReportedToModel(t *testing.T) {
	tool := &recordingTool{err: errors.New("store down")}
	svc := &scriptedService{responses: []*completion.Response{
		toolUseResponse("toolu_1", map[string]any{"query": "q"}),
		textResponse("I could not search the materials."),
	}}
	o, sessions := newTestOrchestrator(svc, tool)
	id := sessions.Create()

	answer, sources, err := o.Query(context.Background(), "search something", id)
	require.NoError(t, err)
	assert.Equal(t, "I could not search the materials.", answer)
	assert.Empty(t, sources)

	result := svc.requests[1].Messages[2].Content[0]
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "Tool execution failed")
}

func TestQueryServiceErrorRecordsNoExchange(t *testing.T) {
	svc := &scriptedService{err: errors.New("api unavailable")}
	o, sessions := newTestOrchestrator(svc, nil)
	id := sessions.Create()

	_, _, err := o.Query(context.Background(), "anything", id)
	require.Error(t, err)
	assert.Empty(t, sessions.History(id))
}

func TestQueryHistoryInSystemPrompt(t *testing.T) {
	svc := &scriptedService{responses: []*completion.Response{
		textResponse("first answer"),
		textResponse("second answer"),
	}}
	o, sessions := newTestOrchestrator(svc, nil)
	id := sessions.Create()

	_, _, err := o.Query(context.Background(), "first question", id)
	require.NoError(t, err)
	assert.NotContains(t, svc.requests[0].System, "Previous conversation:")

	_, _, err = o.Query(context.Background(), "second question", id)
	require.NoError(t, err)
	assert.Contains(t, svc.requests[1].System, "Previous conversation:")
	assert.Contains(t, svc.requests[1].System, "User: first question\nAssistant: first answer")

	h := sessions.History(id)
	require.Len(t, h, 2)
	assert.Equal(t, "second question", h[1].Query)
}
