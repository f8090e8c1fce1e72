package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles the sim_status MCP tool.
// It reports coverage, interviews, the flash deck and the suggested
// question catalog without changing the session.
type StatusTool struct {
	sessions Sessions
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(sessions Sessions) *StatusTool {
	return &StatusTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("sim_status",
		mcp.WithDescription(
			"Show where a session stands: recruitment coverage, every interview with its trust "+
				"and question count, the flash deck, remaining limits, the last score and a "+
				"catalog of suggested questions.",
		),
		withSessionID(),
	)
}

// Handle processes the sim_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := sessionFor(t.sessions, req)
	if res != nil {
		return res, nil
	}
	st := s.Status()

	var sb strings.Builder
	sb.WriteString("## Session Status\n\n")
	fmt.Fprintf(&sb, "**Session:** `%s` (seed %d)\n", st.SessionID, st.Seed)
	if st.LastScore != nil {
		fmt.Fprintf(&sb, "**Last score:** %d/100\n", *st.LastScore)
	}
	fmt.Fprintf(&sb, "**Synthesized:** %s\n\n", yesNo(st.Synthesized))

	sb.WriteString("### Coverage\n\n")
	channelTable(&sb, s.Scenario(), st.Coverage)

	sb.WriteString("\n### Interviews\n\n")
	if len(st.Interviews) == 0 {
		sb.WriteString("No interviews yet. Use `sim_book`.\n")
	} else {
		sb.WriteString("| Persona | ID | Segment | Bookable | Questions | Trust | Opening up | Finished |\n")
		sb.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, iv := range st.Interviews {
			fmt.Fprintf(&sb, "| %s | `%s` | %s | %s | %d | %.2f | %s | %s |\n",
				iv.Name, iv.Persona, iv.Segment, yesNo(iv.Bookable), iv.Questions, iv.Trust,
				yesNo(iv.Disclosing), yesNo(iv.Finished))
		}
	}

	sb.WriteString("\n### Flash Deck\n\n")
	fmt.Fprintf(&sb, "%d left to open, %d follow-ups left.\n\n", st.FlashesLeft, st.FollowUpsLeft)
	for _, c := range st.Deck {
		mark := " "
		if c.Opened {
			mark = "x"
		}
		fmt.Fprintf(&sb, "- [%s] `%s` (%s)\n", mark, c.ID, c.Segment)
	}

	if len(st.Questions) > 0 {
		sb.WriteString("\n### Suggested Questions\n\n")
		for _, q := range st.Questions {
			fmt.Fprintf(&sb, "- _%s_: %s\n", q.Category, q.Text)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}
