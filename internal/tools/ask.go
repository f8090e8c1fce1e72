package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/discovery-sim/internal/classify"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

// AskTool handles the sim_ask MCP tool.
// It puts one question to a booked persona and returns the answer together
// with the trust change and the evidence extracted from it.
type AskTool struct {
	sessions Sessions
}

// NewAskTool creates an AskTool.
func NewAskTool(sessions Sessions) *AskTool {
	return &AskTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *AskTool) Definition() mcp.Tool {
	return mcp.NewTool("sim_ask",
		mcp.WithDescription(
			"Ask a booked persona one interview question. Open questions about past behavior "+
				"build trust; closed, leading or pitching questions cost trust. Personas only reveal "+
				"their most costly pain and spend ceiling once trust is high enough. "+
				"Asking the same question twice is rejected.",
		),
		withSessionID(),
		mcp.WithString("persona_id",
			mcp.Required(),
			mcp.Description("Persona ID from sim_book, e.g. 'p_maya'"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question, in the learner's own words"),
		),
	)
}

// Handle processes the sim_ask tool call.
func (t *AskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := sessionFor(t.sessions, req)
	if res != nil {
		return res, nil
	}

	pid := scenario.PersonaID(strings.TrimSpace(req.GetString("persona_id", "")))
	if pid == "" {
		return mcp.NewToolResultError("'persona_id' is required"), nil
	}
	question := strings.TrimSpace(req.GetString("question", ""))
	if question == "" {
		return mcp.NewToolResultError("'question' is required"), nil
	}

	ans, err := s.Ask(pid, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := string(pid)
	if p, ok := s.Scenario().Persona(pid); ok {
		name = p.Name
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", name)
	fmt.Fprintf(&sb, "**Q:** %s\n\n", ans.Turn.Question)
	fmt.Fprintf(&sb, "**A:** %s\n\n", ans.Turn.Response)

	sb.WriteString("### Question Style\n\n")
	fmt.Fprintf(&sb, "%s\n\n", describeTraits(ans.Turn.Traits))
	fmt.Fprintf(&sb, "**Trust:** %.2f → %.2f", ans.Turn.TrustBefore, ans.Turn.TrustAfter)
	if ans.Disclosing {
		sb.WriteString(" (opening up)")
	}
	sb.WriteString("\n\n")

	if ext := ans.Turn.Extraction; ext != nil {
		sb.WriteString("### Evidence\n\n")
		fmt.Fprintf(&sb, "- **Topic:** %s (`%s`)\n", ext.PainLabel, ext.PainKey)
		fmt.Fprintf(&sb, "- **Frequency:** %s\n", ext.Frequency)
		fmt.Fprintf(&sb, "- **Severity:** %.2f\n", ext.Severity)
		fmt.Fprintf(&sb, "- **Workaround:** %s\n", ext.Workaround)
		fmt.Fprintf(&sb, "- **Spend hint:** %s\n", ext.SpendHint)
		if ext.MaterialPain != "" {
			fmt.Fprintf(&sb, "- **Material pain:** `%s`\n", ext.MaterialPain)
		}
		sb.WriteString("\n")
	}

	if ans.Finished {
		sb.WriteString("The interview has ended. Book again or interview someone else.\n")
	} else if s.Options().Interview.MaxQuestions > 0 {
		fmt.Fprintf(&sb, "%d questions left with %s.\n", ans.Remaining, name)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// describeTraits renders classifier traits as a short sentence.
func describeTraits(tr classify.Traits) string {
	var parts []string
	if tr.Open {
		parts = append(parts, "open")
	} else {
		parts = append(parts, "closed")
	}
	if tr.PastBehavior {
		parts = append(parts, "about past behavior")
	}
	if tr.FutureHypothetical {
		parts = append(parts, "hypothetical")
	}
	if tr.Leading {
		parts = append(parts, "leading")
	}
	if tr.Solutioning {
		parts = append(parts, "pitching a solution")
	}
	return "This question was " + strings.Join(parts, ", ") + "."
}
