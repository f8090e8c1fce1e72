package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/discovery-sim/internal/sim"
)

// ExportTool handles the sim_export MCP tool.
type ExportTool struct {
	sessions Sessions
}

// NewExportTool creates an ExportTool.
func NewExportTool(sessions Sessions) *ExportTool {
	return &ExportTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *ExportTool) Definition() mcp.Tool {
	return mcp.NewTool("sim_export",
		mcp.WithDescription(
			"Export the complete session as a JSON or YAML snapshot: coverage, full transcripts "+
				"with per-turn evidence, opened flash snippets, follow-ups, the synthesis and the score.",
		),
		withSessionID(),
		mcp.WithString("format",
			mcp.Description("Output format: json (default) or yaml"),
		),
	)
}

// Handle processes the sim_export tool call.
func (t *ExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := sessionFor(t.sessions, req)
	if res != nil {
		return res, nil
	}

	format := strings.ToLower(strings.TrimSpace(req.GetString("format", "json")))
	data, err := s.Export(format)
	if err != nil {
		if errors.Is(err, sim.ErrUnknownFormat) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, fmt.Errorf("exporting session %s: %w", s.ID(), err)
	}

	fence := "json"
	if format == "yaml" || format == "yml" {
		fence = "yaml"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Session Export (`%s`)\n\n", s.ID())
	fmt.Fprintf(&sb, "```%s\n", fence)
	sb.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")
	return mcp.NewToolResultText(sb.String()), nil
}
