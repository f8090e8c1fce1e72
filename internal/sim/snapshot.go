package sim

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/discovery-sim/internal/interview"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
	"github.com/HendryAvila/discovery-sim/internal/scoring"
	"github.com/HendryAvila/discovery-sim/internal/synthesis"
)

// ─── Status ─────────────────────────────────────────────────────────────────

// InterviewStatus summarizes one interview.
type InterviewStatus struct {
	Persona    scenario.PersonaID  `json:"persona" yaml:"persona"`
	Name       string              `json:"name" yaml:"name"`
	Segment    scenario.Segment    `json:"segment" yaml:"segment"`
	Channel    scenario.ChannelKey `json:"channel,omitempty" yaml:"channel,omitempty"`
	Bookable   bool                `json:"bookable" yaml:"bookable"`
	Trust      float64             `json:"trust" yaml:"trust"`
	Questions  int                 `json:"questions" yaml:"questions"`
	Disclosing bool                `json:"disclosing" yaml:"disclosing"`
	Finished   bool                `json:"finished" yaml:"finished"`
}

// FlashCard is a flash snippet as the learner sees it before opening.
type FlashCard struct {
	ID      scenario.FlashID `json:"id" yaml:"id"`
	Segment scenario.Segment `json:"segment" yaml:"segment"`
	Opened  bool             `json:"opened" yaml:"opened"`
}

// Status is the compact progress view of a session.
type Status struct {
	SessionID     string                      `json:"session_id" yaml:"session_id"`
	Seed          int64                       `json:"seed" yaml:"seed"`
	Budget        int                         `json:"budget" yaml:"budget"`
	Coverage      map[scenario.ChannelKey]int `json:"coverage" yaml:"coverage"`
	Interviews    []InterviewStatus           `json:"interviews" yaml:"interviews"`
	Deck          []FlashCard                 `json:"flash_deck" yaml:"flash_deck"`
	FlashesLeft   int                         `json:"flashes_left" yaml:"flashes_left"`
	FollowUpsLeft int                         `json:"follow_ups_left" yaml:"follow_ups_left"`
	Synthesized   bool                        `json:"synthesized" yaml:"synthesized"`
	LastScore     *int                        `json:"last_score,omitempty" yaml:"last_score,omitempty"`
	Questions     []scenario.QuestionTemplate `json:"suggested_questions" yaml:"suggested_questions"`
}

// Status reports where the session stands.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		SessionID:     s.id,
		Seed:          s.seed,
		Budget:        s.scn.Budget,
		Coverage:      s.coverage.Snapshot(),
		Interviews:    s.interviewStatuses(),
		Deck:          make([]FlashCard, 0, len(s.deck)),
		FlashesLeft:   max(0, s.opts.FlashLimit-len(s.opened)),
		FollowUpsLeft: max(0, s.opts.FollowUpLimit-len(s.followUps)),
		Synthesized:   s.synthesis != nil,
		Questions:     append([]scenario.QuestionTemplate(nil), s.scn.Questions...),
	}
	for _, f := range s.deck {
		st.Deck = append(st.Deck, FlashCard{ID: f.ID, Segment: f.Segment, Opened: s.isOpen[f.ID]})
	}
	if s.score != nil {
		total := s.score.Score
		st.LastScore = &total
	}
	return st
}

func (s *Session) interviewStatuses() []InterviewStatus {
	bookable := make(map[scenario.PersonaID]bool, len(s.booked))
	for _, id := range s.booked {
		bookable[id] = true
	}
	out := make([]InterviewStatus, 0, len(s.order))
	for _, id := range s.order {
		iv := s.interviews[id]
		out = append(out, InterviewStatus{
			Persona:    id,
			Name:       iv.Persona.Name,
			Segment:    iv.Persona.Segment,
			Channel:    iv.Channel,
			Bookable:   bookable[id],
			Trust:      iv.Trust,
			Questions:  iv.Steps,
			Disclosing: iv.Disclosing(),
			Finished:   iv.Finished,
		})
	}
	return out
}

// ─── Snapshot ───────────────────────────────────────────────────────────────

// InterviewSnapshot is one interview with its full transcript.
type InterviewSnapshot struct {
	InterviewStatus `yaml:",inline"`
	Transcript      []interview.Turn `json:"transcript" yaml:"transcript"`
}

// Snapshot is the complete exportable state of a session.
type Snapshot struct {
	SessionID        string                      `json:"session_id" yaml:"session_id"`
	Seed             int64                       `json:"seed" yaml:"seed"`
	MarketID         string                      `json:"market_id" yaml:"market_id"`
	Budget           int                         `json:"budget" yaml:"budget"`
	Coverage         map[scenario.ChannelKey]int `json:"coverage" yaml:"coverage"`
	Interviews       []InterviewSnapshot         `json:"interviews" yaml:"interviews"`
	OpenedFlashes    []scenario.FlashItem        `json:"opened_flashes" yaml:"opened_flashes"`
	FollowUps        []interview.FollowUp        `json:"follow_ups" yaml:"follow_ups"`
	Synthesis        *synthesis.Result           `json:"synthesis,omitempty" yaml:"synthesis,omitempty"`
	Score            *scoring.Result             `json:"score,omitempty" yaml:"score,omitempty"`
	ProblemStatement string                      `json:"problem_statement,omitempty" yaml:"problem_statement,omitempty"`
	TestPlan         string                      `json:"test_plan,omitempty" yaml:"test_plan,omitempty"`
}

// Snapshot copies the session state. Transcripts and coverage are copied;
// synthesis and score results are immutable once computed and are shared.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:        s.id,
		Seed:             s.seed,
		MarketID:         s.scn.MarketID,
		Budget:           s.scn.Budget,
		Coverage:         s.coverage.Snapshot(),
		OpenedFlashes:    append([]scenario.FlashItem{}, s.opened...),
		FollowUps:        append([]interview.FollowUp{}, s.followUps...),
		ProblemStatement: s.statement,
		TestPlan:         s.plan,
	}
	for _, st := range s.interviewStatuses() {
		iv := s.interviews[st.Persona]
		snap.Interviews = append(snap.Interviews, InterviewSnapshot{
			InterviewStatus: st,
			Transcript:      copyTurns(iv.Transcript),
		})
	}
	if snap.Interviews == nil {
		snap.Interviews = []InterviewSnapshot{}
	}
	if s.synthesis != nil {
		syn := *s.synthesis
		snap.Synthesis = &syn
	}
	if s.score != nil {
		sc := *s.score
		snap.Score = &sc
	}
	return snap
}

// copyTurns copies turns and their extractions.
func copyTurns(turns []interview.Turn) []interview.Turn {
	out := make([]interview.Turn, len(turns))
	for i, t := range turns {
		out[i] = t
		if t.Extraction != nil {
			ext := *t.Extraction
			out[i].Extraction = &ext
		}
	}
	return out
}

// Export renders the snapshot as "json" or "yaml".
func (s *Session) Export(format string) ([]byte, error) {
	snap := s.Snapshot()
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("export json: %w", err)
		}
		return data, nil
	case "yaml", "yml":
		data, err := yaml.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("export yaml: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q (use json or yaml)", ErrUnknownFormat, format)
	}
}
