package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

// OpenFlashTool handles the sim_open_flash MCP tool.
type OpenFlashTool struct {
	sessions Sessions
}

// NewOpenFlashTool creates an OpenFlashTool.
func NewOpenFlashTool(sessions Sessions) *OpenFlashTool {
	return &OpenFlashTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *OpenFlashTool) Definition() mcp.Tool {
	return mcp.NewTool("sim_open_flash",
		mcp.WithDescription(
			"Open a flash snippet: a one-line piece of field evidence from the deck shown by "+
				"sim_status. Only a few can be opened per session, so choose by segment.",
		),
		withSessionID(),
		mcp.WithString("flash_id",
			mcp.Required(),
			mcp.Description("Flash snippet ID from the deck, e.g. 'f3'"),
		),
	)
}

// Handle processes the sim_open_flash tool call.
func (t *OpenFlashTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := sessionFor(t.sessions, req)
	if res != nil {
		return res, nil
	}

	fid := scenario.FlashID(strings.TrimSpace(req.GetString("flash_id", "")))
	if fid == "" {
		return mcp.NewToolResultError("'flash_id' is required"), nil
	}

	f, err := s.OpenFlash(fid)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st := s.Status()
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Flash %s\n\n", f.ID)
	fmt.Fprintf(&sb, "> %s\n\n", f.Text)
	fmt.Fprintf(&sb, "**Segment:** %s\n", f.Segment)
	fmt.Fprintf(&sb, "**Flash snippets left:** %d\n", st.FlashesLeft)
	if st.FollowUpsLeft > 0 {
		fmt.Fprintf(&sb, "\nYou can dig deeper with `sim_flash_followup` (%d left).\n", st.FollowUpsLeft)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
