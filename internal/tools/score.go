package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ScoreTool handles the sim_score MCP tool.
// Scoring always reruns the synthesis so the grade covers all evidence.
type ScoreTool struct {
	sessions Sessions
}

// NewScoreTool creates a ScoreTool.
func NewScoreTool(sessions Sessions) *ScoreTool {
	return &ScoreTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *ScoreTool) Definition() mcp.Tool {
	return mcp.NewTool("sim_score",
		mcp.WithDescription(
			"Grade the session out of 100: did the synthesis rank the real top pain first, "+
				"how good was the interviewing, how spread was recruitment, and how concrete are "+
				"the problem statement and the next test. Can be called repeatedly; the latest grade wins.",
		),
		withSessionID(),
		mcp.WithString("problem_statement",
			mcp.Description("Who has the problem, when it hits, and a number that sizes it"),
		),
		mcp.WithString("test_plan",
			mcp.Description("The next test to run and the threshold that counts as success"),
		),
	)
}

// Handle processes the sim_score tool call.
func (t *ScoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := sessionFor(t.sessions, req)
	if res != nil {
		return res, nil
	}

	r := s.Score(
		strings.TrimSpace(req.GetString("problem_statement", "")),
		strings.TrimSpace(req.GetString("test_plan", "")),
	)

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Score: %d/100\n\n", r.Score)

	sb.WriteString("| Component | Weight | Score |\n")
	sb.WriteString("|---|---|---|\n")
	for _, c := range r.Components {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", c.Name, pct(c.Weight), pct(c.Score))
	}

	d := r.Diagnostics
	sb.WriteString("\n### Diagnostics\n\n")
	chosen := string(d.ChosenTop)
	if chosen == "" {
		chosen = "none"
	}
	fmt.Fprintf(&sb, "- **Your top pain:** %s\n", chosen)
	fmt.Fprintf(&sb, "- **Market's top pain:** %s\n", d.TrueTop)
	fmt.Fprintf(&sb, "- **Questions asked:** %d (open %s, leading %s)\n", d.Questions, pct(d.OpenRate), pct(d.LeadingRate))
	fmt.Fprintf(&sb, "- **Average trust:** %.2f\n", d.AvgTrust)
	fmt.Fprintf(&sb, "- **Channels used:** %d (largest share %s)\n", d.ChannelsUsed, pct(d.LargestShare))

	if len(r.Feedback) > 0 {
		sb.WriteString("\n### Feedback\n\n")
		for _, f := range r.Feedback {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}
