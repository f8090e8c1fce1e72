package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// BookTool handles the sim_book MCP tool.
type BookTool struct {
	sessions Sessions
}

// NewBookTool creates a BookTool.
func NewBookTool(sessions Sessions) *BookTool {
	return &BookTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *BookTool) Definition() mcp.Tool {
	return mcp.NewTool("sim_book",
		mcp.WithDescription(
			"Spend recruitment tokens across channels and book interviewees. "+
				"Channels reach segments with different biases, so a lopsided allocation "+
				"skews who you hear from. Booking again replaces the bookable list; "+
				"a persona booked again starts a fresh interview.",
		),
		withSessionID(),
		mcp.WithString("allocation",
			mcp.Required(),
			mcp.Description("Tokens per channel as channel=tokens pairs, e.g. 'email_list=4, cold_dm=3, forums=3'. "+
				"The total may not exceed the budget."),
		),
	)
}

// Handle processes the sim_book tool call.
func (t *BookTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := sessionFor(t.sessions, req)
	if res != nil {
		return res, nil
	}

	alloc, err := parseAllocation(req.GetArguments()["allocation"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	booked, err := s.Book(alloc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	sb.WriteString("## Interviews Booked\n\n")
	fmt.Fprintf(&sb, "**Tokens spent:** %d of %d\n\n", alloc.Total(), s.Scenario().Budget)

	if len(booked) == 0 {
		sb.WriteString("Nobody was booked. Allocate at least one token.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}

	sb.WriteString("| Persona | ID | Segment | Reached via | Starting trust |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, b := range booked {
		ch := string(b.Channel)
		if c, ok := s.Scenario().Channel(b.Channel); ok {
			ch = c.Label
		}
		fmt.Fprintf(&sb, "| %s | `%s` | %s | %s | %.2f |\n", b.Name, b.ID, b.Segment, ch, b.Trust)
	}

	sb.WriteString("\n### Cumulative Coverage\n\n")
	channelTable(&sb, s.Scenario(), s.Status().Coverage)

	sb.WriteString("\nUse `sim_ask` with a persona ID to start interviewing.\n")
	return mcp.NewToolResultText(sb.String()), nil
}
