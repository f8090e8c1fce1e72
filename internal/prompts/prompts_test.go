package prompts

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	require.Len(t, res.Messages, 1)
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestStartPrompt(t *testing.T) {
	p := NewStartPrompt()
	assert.Equal(t, "discovery-start", p.Definition().Name)

	tests := []struct {
		name string
		args map[string]string
		want []string
		not  []string
	}{
		{
			name: "defaults",
			want: []string{"Run `sim_start` and", "give me one short hint"},
		},
		{
			name: "seeded exam",
			args: map[string]string{"seed": "42", "coaching": "exam"},
			want: []string{"`sim_start` with seed=42", "Do not coach me"},
			not:  []string{"short hint"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.GetPromptRequest{}
			req.Params.Arguments = tt.args
			res, err := p.Handle(context.Background(), req)
			require.NoError(t, err)

			text := promptText(t, res)
			for _, w := range tt.want {
				assert.Contains(t, text, w)
			}
			for _, n := range tt.not {
				assert.NotContains(t, text, n)
			}
		})
	}
}

func TestReviewPrompt(t *testing.T) {
	p := NewReviewPrompt()
	assert.Equal(t, "discovery-review", p.Definition().Name)

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"session_id": "abc"}
	res, err := p.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, promptText(t, res), "session_id=abc")

	_, err = p.Handle(context.Background(), mcp.GetPromptRequest{})
	assert.Error(t, err)
}
