package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the discovery-review MCP prompt.
// It instructs the AI to read a session's state and debrief the learner.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("discovery-review",
		mcp.WithPromptDescription(
			"Review a discovery session: where it stands, what the evidence says so far, "+
				"and what to do next.",
		),
		mcp.WithArgument("session_id",
			mcp.ArgumentDescription("Session to review"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the discovery-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := ""
	if args := req.Params.Arguments; args != nil {
		id = strings.TrimSpace(args["session_id"])
	}
	if id == "" {
		return nil, fmt.Errorf("session_id is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review discovery session %s", id),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please run `sim_status` and `sim_synthesis` for session_id=%s.\n\n"+
						"Then:\n"+
						"1. Summarize my recruitment coverage and flag any channel I leaned on too hard\n"+
						"2. For each interview, tell me how trust moved and which questions hurt it\n"+
						"3. Show the current top pains, but do not tell me which one is the market's real top pain\n"+
						"4. Suggest what kind of evidence would make me more confident, without writing my questions",
					id,
				)),
			},
		},
	}, nil
}
