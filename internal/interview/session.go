// Package interview implements the per-persona interview state machine:
// trust tracking, disclosure gating and response generation.
//
// Trust lives in [0,1] and moves only through AdjustTrust, applied once per
// asked question. The persona reveals its material pain and spend ceiling
// only once trust reaches its tell threshold.
package interview

import (
	"errors"
	"math"

	"github.com/HendryAvila/discovery-sim/internal/classify"
	"github.com/HendryAvila/discovery-sim/internal/randsrc"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

// Trust deltas applied per question, in this order, before clamping.
const (
	OpenBonus          = 0.06
	ClosedPenalty      = 0.04
	PastBehaviorBonus  = 0.06
	LeadingPenalty     = 0.08
	SolutioningPenalty = 0.08
)

var (
	// ErrInterviewFinished is returned when asking after the interview ended.
	ErrInterviewFinished = errors.New("interview already finished")
	// ErrRepeatedQuestion is returned when the same question is asked twice.
	ErrRepeatedQuestion = errors.New("question already asked in this interview")
)

// Options tune the generator. Use DefaultOptions as a base.
type Options struct {
	// GenericAnswerProbability is the chance of a one-line non-answer when
	// the persona is below its tell threshold and the question is not about
	// past behavior.
	GenericAnswerProbability float64
	// MaxQuestions ends the interview after that many turns. 0 = no limit.
	MaxQuestions int
}

// DefaultOptions returns the standard generator settings.
func DefaultOptions() Options {
	return Options{GenericAnswerProbability: 0.4, MaxQuestions: 12}
}

// Turn is one appended question/answer pair. Turns are never modified once
// appended.
type Turn struct {
	Question    string          `json:"q" yaml:"q"`
	Traits      classify.Traits `json:"meta" yaml:"meta"`
	Response    string          `json:"a" yaml:"a"`
	Extraction  *Extraction     `json:"structured,omitempty" yaml:"structured,omitempty"`
	TrustBefore float64         `json:"trust_before" yaml:"trust_before"`
	TrustAfter  float64         `json:"trust_after" yaml:"trust_after"`
}

// Session is the interview state for one booked persona.
type Session struct {
	Persona    *scenario.Persona   `json:"persona" yaml:"persona"`
	Channel    scenario.ChannelKey `json:"channel,omitempty" yaml:"channel,omitempty"`
	Trust      float64             `json:"trust" yaml:"trust"`
	Transcript []Turn              `json:"log" yaml:"log"`
	Steps      int                 `json:"steps" yaml:"steps"`
	Asked      map[string]bool     `json:"asked" yaml:"asked"`
	Finished   bool                `json:"finished" yaml:"finished"`
}

// NewSession starts an interview with a private copy of p.
func NewSession(p *scenario.Persona, initialTrust float64, channel scenario.ChannelKey) *Session {
	return &Session{
		Persona:    p.Clone(),
		Channel:    channel,
		Trust:      clamp01(initialTrust),
		Transcript: []Turn{},
		Asked:      make(map[string]bool),
	}
}

// AdjustTrust applies the per-question deltas for traits to t and clamps
// the result to [0,1].
func AdjustTrust(t float64, traits classify.Traits) float64 {
	if traits.Open {
		t += OpenBonus
	} else {
		t -= ClosedPenalty
	}
	if traits.PastBehavior {
		t += PastBehaviorBonus
	}
	if traits.Leading {
		t -= LeadingPenalty
	}
	if traits.Solutioning {
		t -= SolutioningPenalty
	}
	return clamp01(t)
}

// Ask classifies question, updates trust and appends the generated turn.
// A repeated question leaves the session untouched.
func (s *Session) Ask(scn *scenario.Scenario, question string, src randsrc.Source, opts Options) (Turn, error) {
	if s.Finished {
		return Turn{}, ErrInterviewFinished
	}

	key := classify.QuestionKey(question)
	if key != "" && s.Asked[key] {
		return Turn{}, ErrRepeatedQuestion
	}

	traits := classify.Classify(question)
	before := s.Trust
	s.Trust = AdjustTrust(s.Trust, traits)

	resp, ext := Respond(scn, s.Persona, s.Trust, traits, src, opts)

	turn := Turn{
		Question:    question,
		Traits:      traits,
		Response:    resp,
		Extraction:  &ext,
		TrustBefore: before,
		TrustAfter:  s.Trust,
	}
	s.Transcript = append(s.Transcript, turn)
	s.Steps++
	if key != "" {
		s.Asked[key] = true
	}
	if opts.MaxQuestions > 0 && s.Steps >= opts.MaxQuestions {
		s.Finished = true
	}
	return turn, nil
}

// Finish ends the interview. Further questions return ErrInterviewFinished.
func (s *Session) Finish() { s.Finished = true }

// Disclosing reports whether trust has reached the persona's tell threshold.
func (s *Session) Disclosing() bool {
	return s.Trust >= s.Persona.TellThreshold
}

// Stats summarizes the questioning style of a session.
type Stats struct {
	Questions            int
	Open                 int
	LeadingOrSolutioning int
}

// Stats counts open and steering questions in the transcript.
func (s *Session) Stats() Stats {
	st := Stats{Questions: len(s.Transcript)}
	for _, turn := range s.Transcript {
		if turn.Traits.Open {
			st.Open++
		}
		if turn.Traits.LeadingOrSolutioning() {
			st.LeadingOrSolutioning++
		}
	}
	return st
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
