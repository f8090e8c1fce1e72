package tools

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/discovery-sim/internal/journal"
	"github.com/HendryAvila/discovery-sim/internal/recruit"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
	"github.com/HendryAvila/discovery-sim/internal/sim"
)

// --- Test helpers ---

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// newTestManager returns a manager over the embedded scenario with an
// in-memory journal attached.
func newTestManager(t *testing.T) *sim.Manager {
	t.Helper()
	scn, err := scenario.Default(42)
	if err != nil {
		t.Fatalf("setup: load scenario: %v", err)
	}
	m := sim.NewManager(scn, sim.DefaultOptions(), nil)

	j, err := journal.New(journal.Config{})
	if err != nil {
		t.Fatalf("setup: open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	m.SetJournal(j)
	return m
}

// call invokes h with args and fails the test on a Go error.
func call(t *testing.T, h handler, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	return result
}

// mustSucceed calls h and returns the text of a successful result.
func mustSucceed(t *testing.T, h handler, args map[string]interface{}) string {
	t.Helper()
	result := call(t, h, args)
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	return getResultText(result)
}

func mustFail(t *testing.T, h handler, args map[string]interface{}) string {
	t.Helper()
	result := call(t, h, args)
	if !isErrorResult(result) {
		t.Fatalf("expected an error result, got: %s", getResultText(result))
	}
	return getResultText(result)
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// startSession runs sim_start with a fixed seed and returns the session ID.
func startSession(t *testing.T, m *sim.Manager) string {
	t.Helper()
	text := mustSucceed(t, NewStartTool(m).Handle, map[string]interface{}{"seed": float64(42)})
	return sessionIDFrom(t, text)
}

// sessionIDFrom extracts the session ID printed by sim_start.
func sessionIDFrom(t *testing.T, text string) string {
	t.Helper()
	_, rest, ok := strings.Cut(text, "**Session:** `")
	if !ok {
		t.Fatalf("no session ID in: %s", text)
	}
	id, _, _ := strings.Cut(rest, "`")
	return id
}

// bookedSession starts a session, books with alloc and returns the session
// ID and the first booked persona.
func bookedSession(t *testing.T, m *sim.Manager, alloc string) (string, scenario.PersonaID) {
	t.Helper()
	id := startSession(t, m)
	mustSucceed(t, NewBookTool(m).Handle, map[string]interface{}{
		"session_id": id,
		"allocation": alloc,
	})
	s, err := m.Get(id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	st := s.Status()
	if len(st.Interviews) == 0 {
		t.Fatal("booking returned nobody")
	}
	return id, st.Interviews[0].Persona
}

const spread = "email_list=4, cold_dm=3, forums=3"

// --- Definitions ---

func TestDefinitions_Names(t *testing.T) {
	m := newTestManager(t)
	defs := map[string]mcp.Tool{
		"sim_start":          NewStartTool(m).Definition(),
		"sim_book":           NewBookTool(m).Definition(),
		"sim_ask":            NewAskTool(m).Definition(),
		"sim_end_interview":  NewEndInterviewTool(m).Definition(),
		"sim_open_flash":     NewOpenFlashTool(m).Definition(),
		"sim_flash_followup": NewFlashFollowUpTool(m).Definition(),
		"sim_synthesis":      NewSynthesisTool(m).Definition(),
		"sim_score":          NewScoreTool(m).Definition(),
		"sim_status":         NewStatusTool(m).Definition(),
		"sim_export":         NewExportTool(m).Definition(),
		"sim_history":        NewHistoryTool(m).Definition(),
	}
	for name, def := range defs {
		if def.Name != name {
			t.Errorf("definition name = %q, want %q", def.Name, name)
		}
		if def.Description == "" {
			t.Errorf("%s has no description", name)
		}
	}
}

// --- StartTool ---

func TestStartTool_Handle(t *testing.T) {
	m := newTestManager(t)
	text := mustSucceed(t, NewStartTool(m).Handle, map[string]interface{}{"seed": float64(7)})

	for _, want := range []string{"Discovery Session Started", "**Seed:** 7", "independent_gym_owners", "10 tokens", "`email_list`"} {
		if !strings.Contains(text, want) {
			t.Errorf("result should contain %q, got: %s", want, text)
		}
	}
	if m.Len() != 1 {
		t.Errorf("sessions = %d, want 1", m.Len())
	}
}

func TestStartTool_UnseededSeedCanBeReused(t *testing.T) {
	m := newTestManager(t)
	start := NewStartTool(m).Handle

	first, err := m.Get(sessionIDFrom(t, mustSucceed(t, start, map[string]interface{}{})))
	if err != nil {
		t.Fatalf("get first session: %v", err)
	}
	if first.Seed() < 0 || first.Seed() > sim.MaxSeed {
		t.Fatalf("generated seed %d does not fit in a JSON number", first.Seed())
	}

	// The seed goes back through JSON the way an MCP client would send it.
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(`{"seed":`+strconv.FormatInt(first.Seed(), 10)+`}`), &args); err != nil {
		t.Fatalf("decode args: %v", err)
	}
	second, err := m.Get(sessionIDFrom(t, mustSucceed(t, start, args)))
	if err != nil {
		t.Fatalf("get second session: %v", err)
	}
	if second.Seed() != first.Seed() {
		t.Fatalf("reused seed = %d, want %d", second.Seed(), first.Seed())
	}

	alloc := recruit.Allocation{scenario.ChannelEmailList: 4, scenario.ChannelColdDM: 3, scenario.ChannelForums: 3}
	a, err := first.Book(alloc)
	if err != nil {
		t.Fatalf("book first: %v", err)
	}
	b, err := second.Book(alloc)
	if err != nil {
		t.Fatalf("book second: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("booked %d vs %d personas", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("booking[%d] = %v, want %v", i, b[i], a[i])
		}
	}
}

func TestStartTool_StringSeedIsExact(t *testing.T) {
	m := newTestManager(t)
	text := mustSucceed(t, NewStartTool(m).Handle, map[string]interface{}{"seed": "1791977759123040007"})
	s, err := m.Get(sessionIDFrom(t, text))
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if s.Seed() != 1791977759123040007 {
		t.Errorf("seed = %d, want 1791977759123040007", s.Seed())
	}
}

// --- BookTool ---

func TestBookTool_Handle(t *testing.T) {
	m := newTestManager(t)
	id := startSession(t, m)

	text := mustSucceed(t, NewBookTool(m).Handle, map[string]interface{}{
		"session_id": id,
		"allocation": spread,
	})
	if !strings.Contains(text, "Interviews Booked") {
		t.Errorf("missing header: %s", text)
	}
	if !strings.Contains(text, "**Tokens spent:** 10 of 10") {
		t.Errorf("missing token count: %s", text)
	}
}

func TestBookTool_ObjectAllocation(t *testing.T) {
	m := newTestManager(t)
	id := startSession(t, m)

	text := mustSucceed(t, NewBookTool(m).Handle, map[string]interface{}{
		"session_id": id,
		"allocation": map[string]interface{}{"sidewalk": float64(2)},
	})
	if !strings.Contains(text, "Sidewalk intercepts") {
		t.Errorf("booked personas should be reached via sidewalk: %s", text)
	}
}

func TestBookTool_Errors(t *testing.T) {
	m := newTestManager(t)
	id := startSession(t, m)
	tool := NewBookTool(m)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing session", map[string]interface{}{"allocation": spread}},
		{"unknown session", map[string]interface{}{"session_id": "nope", "allocation": spread}},
		{"missing allocation", map[string]interface{}{"session_id": id}},
		{"over budget", map[string]interface{}{"session_id": id, "allocation": "email_list=11"}},
		{"unknown channel", map[string]interface{}{"session_id": id, "allocation": "billboards=2"}},
		{"bad pair", map[string]interface{}{"session_id": id, "allocation": "email_list"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustFail(t, tool.Handle, tt.args)
		})
	}

	s, _ := m.Get(id)
	if got := len(s.Status().Coverage); got != 0 {
		t.Errorf("failed bookings changed coverage: %d channels", got)
	}
}

// --- AskTool ---

func TestAskTool_Handle(t *testing.T) {
	m := newTestManager(t)
	id, pid := bookedSession(t, m, spread)
	tool := NewAskTool(m)

	args := map[string]interface{}{
		"session_id": id,
		"persona_id": string(pid),
		"question":   "Walk me through the last time leads dropped off.",
	}
	text := mustSucceed(t, tool.Handle, args)
	for _, want := range []string{"**Q:**", "**A:**", "about past behavior", "**Trust:**", "### Evidence", "11 questions left"} {
		if !strings.Contains(text, want) {
			t.Errorf("result should contain %q, got: %s", want, text)
		}
	}

	if msg := mustFail(t, tool.Handle, args); !strings.Contains(msg, "already asked") {
		t.Errorf("repeat should be rejected, got: %s", msg)
	}
}

func TestAskTool_UnlimitedQuestions(t *testing.T) {
	scn, err := scenario.Default(42)
	if err != nil {
		t.Fatalf("setup: load scenario: %v", err)
	}
	opts := sim.DefaultOptions()
	opts.Interview.MaxQuestions = 0
	m := sim.NewManager(scn, opts, nil)

	start := mustSucceed(t, NewStartTool(m).Handle, map[string]interface{}{"seed": float64(42)})
	if !strings.Contains(start, "Questions per interview: unlimited") {
		t.Errorf("start should report no question limit, got: %s", start)
	}

	id := sessionIDFrom(t, start)
	mustSucceed(t, NewBookTool(m).Handle, map[string]interface{}{"session_id": id, "allocation": spread})
	s, err := m.Get(id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	pid := s.Status().Interviews[0].Persona

	text := mustSucceed(t, NewAskTool(m).Handle, map[string]interface{}{
		"session_id": id,
		"persona_id": string(pid),
		"question":   "Walk me through the last time leads dropped off.",
	})
	if strings.Contains(text, "questions left") {
		t.Errorf("no remaining-question count expected without a limit, got: %s", text)
	}
}

func TestAskTool_Errors(t *testing.T) {
	m := newTestManager(t)
	id, pid := bookedSession(t, m, spread)
	tool := NewAskTool(m)

	mustFail(t, tool.Handle, map[string]interface{}{"session_id": id, "persona_id": string(pid)})
	mustFail(t, tool.Handle, map[string]interface{}{"session_id": id, "question": "Why?"})
	if msg := mustFail(t, tool.Handle, map[string]interface{}{
		"session_id": id, "persona_id": "p_ghost", "question": "Why?",
	}); !strings.Contains(msg, "unknown persona") {
		t.Errorf("unexpected error: %s", msg)
	}
}

// --- EndInterviewTool ---

func TestEndInterviewTool_Handle(t *testing.T) {
	m := newTestManager(t)
	id, pid := bookedSession(t, m, spread)

	text := mustSucceed(t, NewEndInterviewTool(m).Handle, map[string]interface{}{
		"session_id": id, "persona_id": string(pid),
	})
	if !strings.Contains(text, "Interview Ended") {
		t.Errorf("missing header: %s", text)
	}

	mustFail(t, NewAskTool(m).Handle, map[string]interface{}{
		"session_id": id, "persona_id": string(pid), "question": "Why?",
	})
	mustFail(t, NewEndInterviewTool(m).Handle, map[string]interface{}{
		"session_id": id, "persona_id": string(pid),
	})
}

// --- Flash tools ---

func TestOpenFlashTool_AndFollowUp(t *testing.T) {
	m := newTestManager(t)
	id := startSession(t, m)
	open := NewOpenFlashTool(m)
	follow := NewFlashFollowUpTool(m)

	text := mustSucceed(t, open.Handle, map[string]interface{}{"session_id": id, "flash_id": "f1"})
	if !strings.Contains(text, "Leads dropped 40% last month") {
		t.Errorf("flash text missing: %s", text)
	}
	if !strings.Contains(text, "**Flash snippets left:** 4") {
		t.Errorf("remaining count missing: %s", text)
	}
	mustFail(t, open.Handle, map[string]interface{}{"session_id": id, "flash_id": "f1"})
	mustFail(t, open.Handle, map[string]interface{}{"session_id": id, "flash_id": "f42"})

	text = mustSucceed(t, follow.Handle, map[string]interface{}{
		"session_id": id, "flash_id": "f1", "question": "How often does this happen?",
	})
	if !strings.Contains(text, "Frequency clarified") {
		t.Errorf("frequency should be clarified: %s", text)
	}

	mustFail(t, follow.Handle, map[string]interface{}{
		"session_id": id, "flash_id": "f1", "question": "What does it cost you?",
	})
	mustFail(t, follow.Handle, map[string]interface{}{
		"session_id": id, "flash_id": "f2", "question": "How often does this happen?",
	})
}

// --- SynthesisTool ---

func TestSynthesisTool_NoSignal(t *testing.T) {
	m := newTestManager(t)
	id := startSession(t, m)

	text := mustSucceed(t, NewSynthesisTool(m).Handle, map[string]interface{}{"session_id": id})
	if !strings.Contains(text, "No signal yet") {
		t.Errorf("empty session should advise asking more: %s", text)
	}
}

func TestSynthesisTool_ChannelAlert(t *testing.T) {
	m := newTestManager(t)
	id, pid := bookedSession(t, m, "email_list=10")
	mustSucceed(t, NewAskTool(m).Handle, map[string]interface{}{
		"session_id": id, "persona_id": string(pid), "question": "Tell me about your week.",
	})

	text := mustSucceed(t, NewSynthesisTool(m).Handle, map[string]interface{}{
		"session_id": id, "json": true,
	})
	for _, want := range []string{"### Top Pains", "Over-reliance on Email list (100%)", "### Heatmap", "```json"} {
		if !strings.Contains(text, want) {
			t.Errorf("result should contain %q, got: %s", want, text)
		}
	}
}

// --- ScoreTool ---

func TestScoreTool_Handle(t *testing.T) {
	m := newTestManager(t)
	id, pid := bookedSession(t, m, spread)
	mustSucceed(t, NewAskTool(m).Handle, map[string]interface{}{
		"session_id": id, "persona_id": string(pid), "question": "What happened the last time ads spiked?",
	})

	text := mustSucceed(t, NewScoreTool(m).Handle, map[string]interface{}{
		"session_id":        id,
		"problem_statement": "Multi-site owners lose 30% of leads when ad costs spike",
		"test_plan":         "Landing page smoke test; success if 20% sign up",
	})
	for _, want := range []string{"## Score:", "/100", "signal_detection", "**Market's top pain:** cac_volatility"} {
		if !strings.Contains(text, want) {
			t.Errorf("result should contain %q, got: %s", want, text)
		}
	}

	s, _ := m.Get(id)
	if st := s.Status(); st.LastScore == nil || !st.Synthesized {
		t.Error("scoring should record the score and the synthesis")
	}
}

// --- StatusTool ---

func TestStatusTool_Handle(t *testing.T) {
	m := newTestManager(t)
	id, _ := bookedSession(t, m, spread)

	text := mustSucceed(t, NewStatusTool(m).Handle, map[string]interface{}{"session_id": id})
	for _, want := range []string{"Session Status", "### Interviews", "### Flash Deck", "5 left to open", "### Suggested Questions"} {
		if !strings.Contains(text, want) {
			t.Errorf("result should contain %q, got: %s", want, text)
		}
	}
}

// --- ExportTool ---

func TestExportTool_Formats(t *testing.T) {
	m := newTestManager(t)
	id, _ := bookedSession(t, m, spread)
	tool := NewExportTool(m)

	text := mustSucceed(t, tool.Handle, map[string]interface{}{"session_id": id})
	if !strings.Contains(text, "```json") || !strings.Contains(text, `"session_id": "`+id+`"`) {
		t.Errorf("json export malformed: %s", text)
	}

	text = mustSucceed(t, tool.Handle, map[string]interface{}{"session_id": id, "format": "yaml"})
	if !strings.Contains(text, "```yaml") || !strings.Contains(text, "session_id: "+id) {
		t.Errorf("yaml export malformed: %s", text)
	}

	mustFail(t, tool.Handle, map[string]interface{}{"session_id": id, "format": "xml"})
}

// --- HistoryTool ---

func TestHistoryTool_ListAndVerify(t *testing.T) {
	m := newTestManager(t)
	id, pid := bookedSession(t, m, spread)
	mustSucceed(t, NewAskTool(m).Handle, map[string]interface{}{
		"session_id": id, "persona_id": string(pid), "question": "Why?",
	})
	mustSucceed(t, NewOpenFlashTool(m).Handle, map[string]interface{}{"session_id": id, "flash_id": "f3"})
	tool := NewHistoryTool(m)

	text := mustSucceed(t, tool.Handle, map[string]interface{}{})
	if !strings.Contains(text, id) {
		t.Errorf("recent sessions should list %s: %s", id, text)
	}

	text = mustSucceed(t, tool.Handle, map[string]interface{}{"session_id": id, "verify": true})
	for _, want := range []string{"**Commands:** 3", "`book`", "`ask`", "`open_flash`", "rebuilds the live session exactly"} {
		if !strings.Contains(text, want) {
			t.Errorf("result should contain %q, got: %s", want, text)
		}
	}

	mustFail(t, tool.Handle, map[string]interface{}{"session_id": "ghost"})
}

func TestHistoryTool_NoJournal(t *testing.T) {
	scn, err := scenario.Default(42)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	m := sim.NewManager(scn, sim.DefaultOptions(), nil)

	if msg := mustFail(t, NewHistoryTool(m).Handle, map[string]interface{}{}); !strings.Contains(msg, "disabled") {
		t.Errorf("unexpected error: %s", msg)
	}
}

// --- parseAllocation ---

func TestParseAllocation(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		want    recruit.Allocation
		wantErr bool
	}{
		{"pairs", "email_list=4, forums=3", recruit.Allocation{"email_list": 4, "forums": 3}, false},
		{"colons", "cold_dm:2;sidewalk:1", recruit.Allocation{"cold_dm": 2, "sidewalk": 1}, false},
		{"repeated key adds", "forums=1,forums=2", recruit.Allocation{"forums": 3}, false},
		{"object", map[string]interface{}{"email_list": float64(5)}, recruit.Allocation{"email_list": 5}, false},
		{"empty string", "", recruit.Allocation{}, false},
		{"nil", nil, nil, true},
		{"fraction", map[string]interface{}{"email_list": 1.5}, nil, true},
		{"not a number", "email_list=lots", nil, true},
		{"wrong type", float64(3), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAllocation(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %d, want %d", k, got[k], v)
				}
			}
		})
	}
}
