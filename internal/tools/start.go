package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartTool handles the sim_start MCP tool.
// It opens a new discovery session and shows the market brief.
type StartTool struct {
	sessions Sessions
}

// NewStartTool creates a StartTool.
func NewStartTool(sessions Sessions) *StartTool {
	return &StartTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *StartTool) Definition() mcp.Tool {
	return mcp.NewTool("sim_start",
		mcp.WithDescription(
			"Start a problem-discovery training session. Returns a session_id that every other "+
				"sim_* tool needs, the market brief and the recruitment budget. "+
				"Pass a seed to get a reproducible session.",
		),
		mcp.WithNumber("seed",
			mcp.Description("Optional integer seed (a decimal string is also accepted). The same seed and the same commands always produce the same session."),
		),
	)
}

// Handle processes the sim_start tool call.
func (t *StartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.sessions.Start(seedArg(req))
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	scn := s.Scenario()
	opts := s.Options()

	var sb strings.Builder
	sb.WriteString("## Discovery Session Started\n\n")
	fmt.Fprintf(&sb, "**Session:** `%s`\n", s.ID())
	fmt.Fprintf(&sb, "**Seed:** %d\n", s.Seed())
	fmt.Fprintf(&sb, "**Market:** %s\n\n", scn.MarketID)
	fmt.Fprintf(&sb, "%s\n\n", strings.TrimSpace(scn.Brief))

	sb.WriteString("### Recruitment\n\n")
	fmt.Fprintf(&sb, "You have **%d tokens** to spread across channels. "+
		"Each booking returns up to %d personas.\n\n", scn.Budget, opts.MaxBooked)
	channelTable(&sb, scn, nil)

	sb.WriteString("\n### Limits\n\n")
	if opts.Interview.MaxQuestions > 0 {
		fmt.Fprintf(&sb, "- Questions per interview: %d\n", opts.Interview.MaxQuestions)
	} else {
		sb.WriteString("- Questions per interview: unlimited\n")
	}
	fmt.Fprintf(&sb, "- Flash snippets you can open: %d of %d\n", opts.FlashLimit, len(scn.Flashes))
	fmt.Fprintf(&sb, "- Follow-up questions on flash snippets: %d\n", opts.FollowUpLimit)

	sb.WriteString("\n### Next Steps\n\n")
	sb.WriteString("1. `sim_book` with an allocation such as `email_list=4, forums=3, cold_dm=3`\n")
	sb.WriteString("2. `sim_ask` the booked personas open questions about past behavior\n")
	sb.WriteString("3. `sim_open_flash` to skim quick evidence snippets\n")
	sb.WriteString("4. `sim_synthesis`, then `sim_score` with your problem statement and next test\n")

	return mcp.NewToolResultText(sb.String()), nil
}
