package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/discovery-sim/internal/sim"
)

// HistoryTool handles the sim_history MCP tool.
// Without a session_id it lists recent journaled sessions; with one it
// lists that session's accepted commands and can verify that replaying
// them rebuilds the live session exactly.
type HistoryTool struct {
	history History
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(history History) *HistoryTool {
	return &HistoryTool{history: history}
}

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("sim_history",
		mcp.WithDescription(
			"Read the command journal. Without session_id, lists recent sessions. "+
				"With session_id, lists every accepted command in order. "+
				"Set verify=true to replay the journal from the seed and check it matches the live session.",
		),
		mcp.WithString("session_id",
			mcp.Description("Session to inspect (omit to list recent sessions)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum sessions to list (default: 20)"),
		),
		mcp.WithBoolean("verify",
			mcp.Description("Replay the journal and compare with the live session (default: false)"),
		),
	)
}

// Handle processes the sim_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("session_id", ""))
	if id == "" {
		return t.handleList(intArg(req, "limit", 0))
	}
	return t.handleSession(id, boolArg(req, "verify", false))
}

func (t *HistoryTool) handleList(limit int) (*mcp.CallToolResult, error) {
	infos, err := t.history.Recent(limit)
	if err != nil {
		if errors.Is(err, sim.ErrNoJournal) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("## Recent Sessions\n\n")
	if len(infos) == 0 {
		sb.WriteString("No sessions journaled yet.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}
	sb.WriteString("| Session | Seed | Started | Commands |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, info := range infos {
		fmt.Fprintf(&sb, "| `%s` | %d | %s | %d |\n",
			info.ID, info.Seed, info.StartedAt, info.Events)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *HistoryTool) handleSession(id string, verify bool) (*mcp.CallToolResult, error) {
	info, events, err := t.history.History(id)
	if err != nil {
		if errors.Is(err, sim.ErrNoJournal) || errors.Is(err, sim.ErrUnknownSession) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, fmt.Errorf("reading history of %s: %w", id, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## History of `%s`\n\n", info.ID)
	fmt.Fprintf(&sb, "**Seed:** %d\n", info.Seed)
	fmt.Fprintf(&sb, "**Commands:** %d\n\n", len(events))
	for _, ev := range events {
		fmt.Fprintf(&sb, "%d. `%s` %s\n", ev.Seq, ev.Kind, string(ev.Payload))
	}

	if verify {
		ok, err := t.verify(id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("replay failed: %v", err)), nil
		}
		sb.WriteString("\n### Replay\n\n")
		if ok {
			sb.WriteString("✅ Replaying the journal rebuilds the live session exactly.\n")
		} else {
			sb.WriteString("❌ The replayed session differs from the live session.\n")
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *HistoryTool) verify(id string) (bool, error) {
	live, err := t.history.Get(id)
	if err != nil {
		return false, err
	}
	replayed, err := t.history.Replay(id)
	if err != nil {
		return false, err
	}
	want, err := live.Export("json")
	if err != nil {
		return false, err
	}
	got, err := replayed.Export("json")
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}
