// Package resources implements MCP resource handlers for the discovery
// simulation.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (discovery://...) following MCP conventions.
// Nothing here reveals the scenario's ground truth.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

const (
	BriefURI    = "discovery://scenario/brief"
	ChannelsURI = "discovery://scenario/channels"
)

// Handler serves scenario resources.
type Handler struct {
	scn *scenario.Scenario
}

// NewHandler creates a resource Handler over scn.
func NewHandler(scn *scenario.Scenario) *Handler {
	return &Handler{scn: scn}
}

// --- Brief ---

// Brief is the public part of the scenario.
type Brief struct {
	MarketID    string         `json:"market_id"`
	Brief       string         `json:"brief"`
	Budget      int            `json:"budget"`
	Segments    []BriefSegment `json:"segments"`
	Topics      []BriefTopic   `json:"topics"`
	Personas    int            `json:"personas"`
	FlashDeck   int            `json:"flash_deck"`
	Suggestions int            `json:"suggested_questions"`
}

// BriefSegment is a segment without its trust parameters.
type BriefSegment struct {
	Key   scenario.Segment `json:"key"`
	Label string           `json:"label"`
}

// BriefTopic is a pain topic without its population rates.
type BriefTopic struct {
	Key   scenario.PainKey `json:"key"`
	Label string           `json:"label"`
}

// BriefResource returns the MCP resource definition for the market brief.
func (h *Handler) BriefResource() mcp.Resource {
	return mcp.NewResource(
		BriefURI,
		"Scenario Brief",
		mcp.WithResourceDescription("Market brief, recruitment budget, segments and the pain topics synthesis reports on"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleBrief returns the market brief as JSON.
func (h *Handler) HandleBrief(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	b := Brief{
		MarketID:    h.scn.MarketID,
		Brief:       h.scn.Brief,
		Budget:      h.scn.Budget,
		Segments:    make([]BriefSegment, 0, len(h.scn.Segments)),
		Topics:      make([]BriefTopic, 0, len(h.scn.Pains)),
		Personas:    len(h.scn.Personas),
		FlashDeck:   len(h.scn.Flashes),
		Suggestions: len(h.scn.Questions),
	}
	for _, s := range h.scn.Segments {
		b.Segments = append(b.Segments, BriefSegment{Key: s.Key, Label: s.Label})
	}
	for _, p := range h.scn.Pains {
		b.Topics = append(b.Topics, BriefTopic{Key: p.Key, Label: p.Label})
	}
	return jsonResource(req.Params.URI, b)
}

// --- Channels ---

// ChannelsResource returns the MCP resource definition for the channel table.
func (h *Handler) ChannelsResource() mcp.Resource {
	return mcp.NewResource(
		ChannelsURI,
		"Recruitment Channels",
		mcp.WithResourceDescription("Recruitment channels with their yield and segment bias"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleChannels returns the channel table as JSON.
func (h *Handler) HandleChannels(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if len(h.scn.Channels) == 0 {
		return errorResource(req.Params.URI, "scenario has no channels"), nil
	}
	return jsonResource(req.Params.URI, h.scn.Channels)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
