package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/discovery-sim/internal/scenario"
	"github.com/HendryAvila/discovery-sim/internal/synthesis"
)

// SynthesisTool handles the sim_synthesis MCP tool.
type SynthesisTool struct {
	sessions Sessions
}

// NewSynthesisTool creates a SynthesisTool.
func NewSynthesisTool(sessions Sessions) *SynthesisTool {
	return &SynthesisTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *SynthesisTool) Definition() mcp.Tool {
	return mcp.NewTool("sim_synthesis",
		mcp.WithDescription(
			"Aggregate every interview answer and opened flash snippet into ranked pain topics "+
				"with quotes, channel over-reliance alerts, segment counts and a segment × topic heatmap. "+
				"Safe to call at any time; it never changes the session.",
		),
		withSessionID(),
		mcp.WithBoolean("json",
			mcp.Description("Append the raw synthesis as JSON (default: false)"),
		),
	)
}

// Handle processes the sim_synthesis tool call.
func (t *SynthesisTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := sessionFor(t.sessions, req)
	if res != nil {
		return res, nil
	}

	r := s.RunSynthesis()

	var sb strings.Builder
	sb.WriteString("## Synthesis\n\n")
	writeSynthesis(&sb, s.Scenario(), r)

	if boolArg(req, "json", false) {
		sb.WriteString("\n### Raw\n\n")
		if err := writeJSON(&sb, r); err != nil {
			return nil, err
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func writeSynthesis(sb *strings.Builder, scn *scenario.Scenario, r synthesis.Result) {
	if r.Advisory != "" {
		fmt.Fprintf(sb, "_%s_\n\n", r.Advisory)
	}

	if len(r.Top) > 0 {
		sb.WriteString("### Top Pains\n\n")
		sb.WriteString("| # | Topic | Mentions | Avg severity |\n")
		sb.WriteString("|---|---|---|---|\n")
		for i, tp := range r.Top {
			fmt.Fprintf(sb, "| %d | %s (`%s`) | %d | %.2f |\n", i+1, tp.Label, tp.Key, tp.Count, tp.AvgSeverity)
		}
		sb.WriteString("\n")
		for _, tp := range r.Top {
			if len(tp.Quotes) == 0 {
				continue
			}
			fmt.Fprintf(sb, "**%s**\n", tp.Label)
			for _, q := range tp.Quotes {
				fmt.Fprintf(sb, "> %s\n", q)
			}
			sb.WriteString("\n")
		}
	}

	if len(r.Alerts) > 0 {
		sb.WriteString("### Alerts\n\n")
		for _, a := range r.Alerts {
			fmt.Fprintf(sb, "- ⚠️ %s\n", a)
		}
		sb.WriteString("\n")
	}

	if len(r.Segments) > 0 {
		sb.WriteString("### Segments Interviewed\n\n")
		for _, seg := range sortedSegments(r.Segments) {
			fmt.Fprintf(sb, "- %s: %d\n", seg, r.Segments[seg])
		}
		sb.WriteString("\n")
	}

	if len(r.Heatmap) > 0 {
		sb.WriteString("### Heatmap\n\n")
		sb.WriteString("| Segment |")
		for _, p := range scn.Pains {
			fmt.Fprintf(sb, " `%s` |", p.Key)
		}
		sb.WriteString("\n|---|")
		for range scn.Pains {
			sb.WriteString("---|")
		}
		sb.WriteString("\n")
		for _, seg := range sortedSegments(r.Heatmap) {
			fmt.Fprintf(sb, "| %s |", seg)
			for _, p := range scn.Pains {
				fmt.Fprintf(sb, " %d |", r.Heatmap[seg][p.Key])
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(r.Clarifications) > 0 {
		sb.WriteString("### Clarifications\n\n")
		for _, c := range r.Clarifications {
			var got []string
			if c.Frequency != "" {
				got = append(got, "frequency "+string(c.Frequency))
			}
			if c.WTPBand != "" {
				got = append(got, "pays "+c.WTPBand)
			}
			fmt.Fprintf(sb, "- %s: %s\n", c.Flash, strings.Join(got, ", "))
		}
	}
}
