// Package prompts implements MCP prompt handlers for the discovery
// simulation.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to drive a sequence of tool calls. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the discovery-start MCP prompt.
// It sets the AI up as an interview coach and walks the learner through
// one session from recruitment to scoring.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("discovery-start",
		mcp.WithPromptDescription(
			"Start a problem-discovery training session. You recruit interviewees, "+
				"interview them, synthesize what you heard and get scored on whether "+
				"you found the real problem.",
		),
		mcp.WithArgument("seed",
			mcp.ArgumentDescription("Optional integer seed for a reproducible session"),
		),
		mcp.WithArgument("coaching",
			mcp.ArgumentDescription(
				"'coach' (hints after every answer) or 'exam' (no hints until the score). Default: coach",
			),
		),
	)
}

// Handle processes the discovery-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	seed := ""
	coaching := "coach"
	if args := req.Params.Arguments; args != nil {
		if s, ok := args["seed"]; ok {
			seed = strings.TrimSpace(s)
		}
		if c, ok := args["coaching"]; ok && c != "" {
			coaching = c
		}
	}

	startCall := "`sim_start`"
	if seed != "" {
		startCall = fmt.Sprintf("`sim_start` with seed=%s", seed)
	}

	style := "After each answer, give me one short hint on my question style " +
		"(open vs closed, past behavior vs hypothetical, leading or pitching)."
	if coaching == "exam" {
		style = "Do not coach me or comment on my questions until `sim_score` has run."
	}

	return &mcp.GetPromptResult{
		Description: "Start a discovery training session",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to practice customer problem discovery.\n\n"+
						"Please:\n"+
						"1. Run %s and show me the market brief and channel table\n"+
						"2. Ask me how I want to spend my recruitment tokens, then run `sim_book`\n"+
						"3. Let me write my own interview questions and send each one with `sim_ask`. "+
						"Never write questions for me and never reveal a persona's hidden pains\n"+
						"4. When I ask, open flash snippets with `sim_open_flash` and follow up with `sim_flash_followup`\n"+
						"5. When I say I'm done, run `sim_synthesis` and show me the ranked pains and any alerts\n"+
						"6. Ask me for a problem statement and a next test, then run `sim_score`\n\n"+
						"%s",
					startCall, style,
				)),
			},
		},
	}, nil
}
