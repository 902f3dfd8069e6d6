package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTool struct {
	name string
	text string
}

func (s staticTool) Definition() Definition {
	return Definition{Name: s.name, Description: "static", InputSchema: InputSchema{Type: "object"}}
}

func (s staticTool) Execute(ctx context.Context, args map[string]any) (string, []string, error) {
	return s.text, nil, nil
}

func TestRegistryDefinitionsKeepOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(staticTool{name: "alpha"}))
	require.NoError(t, r.Register(staticTool{name: "beta"}))

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "beta", defs[1].Name)
}

func TestRegistryReplaceKeepsPosition(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(staticTool{name: "alpha", text: "one"}))
	require.NoError(t, r.Register(staticTool{name: "beta"}))
	require.NoError(t, r.Register(staticTool{name: "alpha", text: "two"}))

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)

	text, _, err := r.Execute(context.Background(), "alpha", nil)
	require.NoError(t, err)
	assert.Equal(t, "two", text)
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(staticTool{name: ""}))
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.Execute(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}
