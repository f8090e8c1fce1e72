package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

// EndInterviewTool handles the sim_end_interview MCP tool.
type EndInterviewTool struct {
	sessions Sessions
}

// NewEndInterviewTool creates an EndInterviewTool.
func NewEndInterviewTool(sessions Sessions) *EndInterviewTool {
	return &EndInterviewTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *EndInterviewTool) Definition() mcp.Tool {
	return mcp.NewTool("sim_end_interview",
		mcp.WithDescription(
			"End the interview with a persona. The transcript stays in the evidence base; "+
				"no further questions are accepted unless the persona is booked again.",
		),
		withSessionID(),
		mcp.WithString("persona_id",
			mcp.Required(),
			mcp.Description("Persona ID of the interview to end"),
		),
	)
}

// Handle processes the sim_end_interview tool call.
func (t *EndInterviewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := sessionFor(t.sessions, req)
	if res != nil {
		return res, nil
	}

	pid := scenario.PersonaID(strings.TrimSpace(req.GetString("persona_id", "")))
	if pid == "" {
		return mcp.NewToolResultError("'persona_id' is required"), nil
	}
	if err := s.FinishInterview(pid); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	sb.WriteString("## Interview Ended\n\n")
	for _, iv := range s.Status().Interviews {
		if iv.Persona == pid {
			fmt.Fprintf(&sb, "**%s** answered %d questions; final trust %.2f.\n", iv.Name, iv.Questions, iv.Trust)
		}
	}
	sb.WriteString("\nRun `sim_synthesis` when you have enough evidence.\n")
	return mcp.NewToolResultText(sb.String()), nil
}
