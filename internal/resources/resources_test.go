package resources

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

func read(t *testing.T, fn func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error), uri string) mcp.TextResourceContents {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	out, err := fn(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, out, 1)
	tc, ok := out[0].(mcp.TextResourceContents)
	require.True(t, ok)
	return tc
}

func TestBrief(t *testing.T) {
	scn, err := scenario.Default(42)
	require.NoError(t, err)
	h := NewHandler(scn)
	assert.Equal(t, BriefURI, h.BriefResource().URI)

	tc := read(t, h.HandleBrief, BriefURI)
	assert.Equal(t, "application/json", tc.MIMEType)
	assert.NotContains(t, tc.Text, "true_top")
	assert.NotContains(t, tc.Text, "base_frequency")

	var b Brief
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &b))
	assert.Equal(t, "independent_gym_owners", b.MarketID)
	assert.Equal(t, 10, b.Budget)
	assert.Len(t, b.Segments, 3)
	assert.Len(t, b.Topics, 5)
	assert.Equal(t, 12, b.Personas)
	assert.Equal(t, 10, b.FlashDeck)
}

func TestChannels(t *testing.T) {
	scn, err := scenario.Default(42)
	require.NoError(t, err)
	h := NewHandler(scn)
	assert.Equal(t, ChannelsURI, h.ChannelsResource().URI)

	tc := read(t, h.HandleChannels, ChannelsURI)
	var chans []scenario.Channel
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &chans))
	require.Len(t, chans, 4)
	assert.Equal(t, scenario.ChannelEmailList, chans[0].Key)
	assert.Equal(t, 0.6, chans[0].Yield)
}

func TestChannels_Empty(t *testing.T) {
	h := NewHandler(&scenario.Scenario{})
	tc := read(t, h.HandleChannels, ChannelsURI)
	assert.Equal(t, "text/plain", tc.MIMEType)
	assert.Contains(t, tc.Text, "Error:")
}
