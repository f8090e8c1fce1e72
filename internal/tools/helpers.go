// Package tools implements the MCP tool handlers of the discovery simulation.
//
// Each tool is a struct with its dependencies injected through the
// constructor. Definition() returns the mcp.Tool schema and Handle() serves
// the call. Tools only translate between MCP arguments and internal/sim;
// no simulation rule lives here.
package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/discovery-sim/internal/journal"
	"github.com/HendryAvila/discovery-sim/internal/recruit"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
	"github.com/HendryAvila/discovery-sim/internal/sim"
)

// Sessions is what most tools need from the session manager.
// *sim.Manager satisfies it.
type Sessions interface {
	Start(seed *int64) (*sim.Session, error)
	Get(id string) (*sim.Session, error)
}

// History is the journal view used by sim_history.
// *sim.Manager satisfies it.
type History interface {
	Sessions
	History(id string) (journal.SessionInfo, []journal.Event, error)
	Recent(limit int) ([]journal.SessionInfo, error)
	Replay(id string) (*sim.Session, error)
}

// --- Argument helpers ---

// intArg extracts an integer argument, returning defaultVal if the key is
// missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// seedArg returns the "seed" argument, or nil when absent. A decimal
// string is accepted so seeds beyond float64 precision stay exact.
func seedArg(req mcp.CallToolRequest) *int64 {
	var seed int64
	switch v := req.GetArguments()["seed"].(type) {
	case float64:
		seed = int64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil
		}
		seed = n
	default:
		return nil
	}
	return &seed
}

func withSessionID() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session ID returned by sim_start"),
	)
}

// sessionFor resolves the session named by the "session_id" argument. The
// returned result is non-nil when the caller should return it as is.
func sessionFor(sessions Sessions, req mcp.CallToolRequest) (*sim.Session, *mcp.CallToolResult) {
	id := strings.TrimSpace(req.GetString("session_id", ""))
	if id == "" {
		return nil, mcp.NewToolResultError("'session_id' is required. Call sim_start to open a session.")
	}
	s, err := sessions.Get(id)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("%v. Call sim_start to open a session.", err))
	}
	return s, nil
}

// parseAllocation accepts either a JSON object of channel → tokens or a
// string of "channel=tokens" pairs separated by commas.
func parseAllocation(raw any) (recruit.Allocation, error) {
	alloc := recruit.Allocation{}
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("'allocation' is required")
	case map[string]any:
		for k, n := range v {
			f, ok := n.(float64)
			if !ok {
				return nil, fmt.Errorf("tokens for %q must be a number", k)
			}
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("tokens for %q must be a whole number", k)
			}
			alloc[scenario.ChannelKey(strings.TrimSpace(k))] += int(f)
		}
	case string:
		for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' || r == '\n' }) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			k, n, ok := strings.Cut(part, "=")
			if !ok {
				k, n, ok = strings.Cut(part, ":")
			}
			if !ok {
				return nil, fmt.Errorf("expected channel=tokens, got %q", part)
			}
			tokens, err := strconv.Atoi(strings.TrimSpace(n))
			if err != nil {
				return nil, fmt.Errorf("tokens for %q: %w", strings.TrimSpace(k), err)
			}
			alloc[scenario.ChannelKey(strings.TrimSpace(k))] += tokens
		}
	default:
		return nil, fmt.Errorf("'allocation' must be an object or a channel=tokens list")
	}
	return alloc, nil
}

// --- Formatting helpers ---

func pct(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// writeJSON appends v as a fenced JSON block.
func writeJSON(sb *strings.Builder, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	sb.WriteString("```json\n")
	sb.Write(data)
	sb.WriteString("\n```\n")
	return nil
}

// channelTable writes one row per scenario channel with its tokens.
func channelTable(sb *strings.Builder, scn *scenario.Scenario, tokens map[scenario.ChannelKey]int) {
	total := 0
	for _, n := range tokens {
		total += n
	}
	sb.WriteString("| Channel | Key | Tokens | Share |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, ch := range scn.Channels {
		share := 0.0
		if total > 0 {
			share = float64(tokens[ch.Key]) / float64(total)
		}
		fmt.Fprintf(sb, "| %s | `%s` | %d | %s |\n", ch.Label, ch.Key, tokens[ch.Key], pct(share))
	}
}

func sortedSegments[V any](m map[scenario.Segment]V) []scenario.Segment {
	keys := make([]scenario.Segment, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
