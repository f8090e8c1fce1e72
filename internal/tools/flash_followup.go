package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

// FlashFollowUpTool handles the sim_flash_followup MCP tool.
// Open questions about frequency or past behavior pin down how often the
// problem occurs; questions about paying or cost pin down a spend band.
type FlashFollowUpTool struct {
	sessions Sessions
}

// NewFlashFollowUpTool creates a FlashFollowUpTool.
func NewFlashFollowUpTool(sessions Sessions) *FlashFollowUpTool {
	return &FlashFollowUpTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *FlashFollowUpTool) Definition() mcp.Tool {
	return mcp.NewTool("sim_flash_followup",
		mcp.WithDescription(
			"Ask one follow-up question about an opened flash snippet. "+
				"Open questions about how often it happens clarify frequency; "+
				"questions about what people pay or what it costs clarify willingness to pay. "+
				"One follow-up per snippet, a few per session.",
		),
		withSessionID(),
		mcp.WithString("flash_id",
			mcp.Required(),
			mcp.Description("ID of an opened flash snippet"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The follow-up question"),
		),
	)
}

// Handle processes the sim_flash_followup tool call.
func (t *FlashFollowUpTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := sessionFor(t.sessions, req)
	if res != nil {
		return res, nil
	}

	fid := scenario.FlashID(strings.TrimSpace(req.GetString("flash_id", "")))
	if fid == "" {
		return mcp.NewToolResultError("'flash_id' is required"), nil
	}
	question := strings.TrimSpace(req.GetString("question", ""))
	if question == "" {
		return mcp.NewToolResultError("'question' is required"), nil
	}

	fu, err := s.FollowUp(fid, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Follow-up on %s\n\n", fu.Flash)
	fmt.Fprintf(&sb, "**Q:** %s\n\n", fu.Question)
	fmt.Fprintf(&sb, "%s\n\n", describeTraits(fu.Traits))
	if !fu.Clarifies() {
		sb.WriteString("Nothing new came out of it. Ask how often it happens or what it costs.\n")
	}
	if fu.Frequency != "" {
		fmt.Fprintf(&sb, "- **Frequency clarified:** %s\n", fu.Frequency)
	}
	if fu.WTPBand != "" {
		fmt.Fprintf(&sb, "- **Willingness to pay:** %s\n", fu.WTPBand)
	}
	fmt.Fprintf(&sb, "\n**Follow-ups left:** %d\n", s.Status().FollowUpsLeft)
	return mcp.NewToolResultText(sb.String()), nil
}
