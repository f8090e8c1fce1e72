package journal_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/HendryAvila/discovery-sim/internal/journal"
)

// newTestStore creates a file-backed Store in a temp directory.
func newTestStore(t *testing.T) *journal.Store {
	t.Helper()
	s, err := journal.New(journal.Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type askPayload struct {
	Persona  string `json:"persona"`
	Question string `json:"question"`
}

// ─── New / Initialization ───────────────────────────────────────────────────

func TestNew_CreatesDBFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := journal.New(journal.Config{Dir: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, "journal.db")); err != nil {
		t.Fatalf("journal.db not created: %v", err)
	}
	if s.InMemory() {
		t.Error("file-backed store reports InMemory")
	}
}

func TestNew_InMemory(t *testing.T) {
	s, err := journal.New(journal.Config{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer s.Close()

	if !s.InMemory() {
		t.Error("expected in-memory store")
	}
	// The single pooled connection must keep the schema alive across calls.
	if err := s.CreateSession("s1", 7); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := s.Append("s1", "book", map[string]int{"email_list": 10}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	events, err := s.Events("s1")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

// ─── Sessions ────────────────────────────────────────────────────────────────

func TestCreateSession_Duplicate(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateSession("s1", 1); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.CreateSession("s1", 2); err == nil {
		t.Fatal("expected error for duplicate session id")
	}
}

func TestSession_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Session("missing"); !errors.Is(err, journal.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessions_NewestFirstWithCounts(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := s.CreateSession(id, 42); err != nil {
			t.Fatalf("CreateSession(%s): %v", id, err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Append("b", "ask", askPayload{Persona: "p_maya", Question: "Why?"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	list, err := s.Sessions(0)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(list))
	}
	if list[0].ID != "c" || list[2].ID != "a" {
		t.Errorf("expected newest first, got %s..%s", list[0].ID, list[2].ID)
	}

	info, err := s.Session("b")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if info.Events != 3 || info.Seed != 42 {
		t.Errorf("unexpected session info: %+v", info)
	}

	limited, err := s.Sessions(1)
	if err != nil {
		t.Fatalf("Sessions(1): %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

// ─── Events ──────────────────────────────────────────────────────────────────

func TestAppend_SequencesPerSession(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"s1", "s2"} {
		if err := s.CreateSession(id, 1); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	want := []string{"Why?", "What else?", "How often?"}
	for _, q := range want {
		if _, err := s.Append("s1", "ask", askPayload{Persona: "p_maya", Question: q}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	ev, err := s.Append("s2", "ask", askPayload{Persona: "p_rita", Question: "Why?"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ev.Seq != 1 {
		t.Errorf("expected s2 to start at seq 1, got %d", ev.Seq)
	}

	events, err := s.Events("s1")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, e := range events {
		if e.Seq != i+1 {
			t.Errorf("event %d: seq = %d", i, e.Seq)
		}
		var p askPayload
		if err := e.Decode(&p); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if p.Question != want[i] {
			t.Errorf("event %d: question = %q, want %q", i, p.Question, want[i])
		}
	}
}

func TestAppend_UnknownSession(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Append("ghost", "ask", nil); !errors.Is(err, journal.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAppend_UnencodablePayload(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateSession("s1", 1); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := s.Append("s1", "bad", make(chan int)); err == nil {
		t.Fatal("expected encode error")
	}
	events, _ := s.Events("s1")
	if len(events) != 0 {
		t.Errorf("failed append left %d events", len(events))
	}
}

func TestEvents_EmptyForUnknownSession(t *testing.T) {
	s := newTestStore(t)
	events, err := s.Events("nobody")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestEvent_DecodeError(t *testing.T) {
	e := journal.Event{Kind: "ask", Seq: 3, Payload: []byte("{not json")}
	var p askPayload
	if err := e.Decode(&p); err == nil {
		t.Fatal("expected decode error")
	}
}
