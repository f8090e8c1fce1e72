// Package sim runs discovery sessions: booking, interviewing, flash
// snippets, synthesis and scoring against one shared scenario.
//
// Each Session owns its random source, seeded once at start, and every
// randomized step draws from it in command order. A session is therefore a
// pure function of its seed and its accepted commands, which is what Replay
// relies on. Sessions never share mutable state.
package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/HendryAvila/discovery-sim/internal/interview"
	"github.com/HendryAvila/discovery-sim/internal/logging"
	"github.com/HendryAvila/discovery-sim/internal/randsrc"
	"github.com/HendryAvila/discovery-sim/internal/recruit"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
	"github.com/HendryAvila/discovery-sim/internal/scoring"
	"github.com/HendryAvila/discovery-sim/internal/synthesis"
)

var (
	ErrUnknownSession    = errors.New("unknown session")
	ErrUnknownPersona    = errors.New("unknown persona")
	ErrNotBooked         = errors.New("persona is not booked")
	ErrUnknownFlash      = errors.New("unknown flash item")
	ErrFlashAlreadyOpen  = errors.New("flash item already opened")
	ErrFlashLimit        = errors.New("flash open limit reached")
	ErrFlashNotOpened    = errors.New("flash item not opened")
	ErrAlreadyFollowedUp = errors.New("flash item already has a follow-up")
	ErrFollowUpLimit     = errors.New("follow-up limit reached")
	ErrUnknownFormat     = errors.New("unknown export format")
)

// Options are the per-session limits.
type Options struct {
	Interview     interview.Options
	MaxBooked     int
	FlashLimit    int
	FollowUpLimit int
}

// DefaultOptions returns the standard limits.
func DefaultOptions() Options {
	return Options{
		Interview:     interview.DefaultOptions(),
		MaxBooked:     recruit.DefaultMaxBooked,
		FlashLimit:    5,
		FollowUpLimit: 3,
	}
}

// BookedPersona is one persona returned by a booking.
type BookedPersona struct {
	ID      scenario.PersonaID  `json:"id" yaml:"id"`
	Name    string              `json:"name" yaml:"name"`
	Segment scenario.Segment    `json:"segment" yaml:"segment"`
	Channel scenario.ChannelKey `json:"channel,omitempty" yaml:"channel,omitempty"`
	Trust   float64             `json:"trust" yaml:"trust"`
}

// Answer is the outcome of one asked question.
type Answer struct {
	Persona    scenario.PersonaID `json:"persona" yaml:"persona"`
	Turn       interview.Turn     `json:"turn" yaml:"turn"`
	Trust      float64            `json:"trust" yaml:"trust"`
	Disclosing bool               `json:"disclosing" yaml:"disclosing"`
	Finished   bool               `json:"finished" yaml:"finished"`
	Remaining  int                `json:"remaining,omitempty" yaml:"remaining,omitempty"`
}

// Session is one learner's simulation.
type Session struct {
	id   string
	seed int64
	scn  *scenario.Scenario
	opts Options
	rec  recorder
	log  *logging.Logger

	mu         sync.Mutex
	src        *randsrc.Rand
	coverage   *recruit.Coverage
	booked     []scenario.PersonaID
	order      []scenario.PersonaID
	interviews map[scenario.PersonaID]*interview.Session
	deck       []scenario.FlashItem
	opened     []scenario.FlashItem
	isOpen     map[scenario.FlashID]bool
	followUps  []interview.FollowUp
	followed   map[scenario.FlashID]bool
	synthesis  *synthesis.Result
	score      *scoring.Result
	statement  string
	plan       string
}

// newSession builds a session and shuffles its flash deck, the first draw
// of every session.
func newSession(id string, seed int64, scn *scenario.Scenario, opts Options, rec recorder, log *logging.Logger) *Session {
	if log == nil {
		log = logging.Nop()
	}
	s := &Session{
		id:         id,
		seed:       seed,
		scn:        scn,
		opts:       opts,
		rec:        rec,
		log:        log.With("session", id),
		src:        randsrc.New(seed),
		coverage:   recruit.NewCoverage(),
		booked:     []scenario.PersonaID{},
		interviews: make(map[scenario.PersonaID]*interview.Session),
		isOpen:     make(map[scenario.FlashID]bool),
		followed:   make(map[scenario.FlashID]bool),
	}
	s.deck = append([]scenario.FlashItem(nil), scn.Flashes...)
	randsrc.Shuffle(s.src, len(s.deck), func(i, j int) {
		s.deck[i], s.deck[j] = s.deck[j], s.deck[i]
	})
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Seed returns the seed the session's random source started from.
func (s *Session) Seed() int64 { return s.seed }

func (s *Session) Options() Options { return s.opts }

// Scenario returns the catalog the session runs against.
func (s *Session) Scenario() *scenario.Scenario { return s.scn }

// ─── Book ───────────────────────────────────────────────────────────────────

// Book validates alloc, adds it to coverage and books personas. Booked
// personas start a fresh interview; re-booking a persona resets its trust
// and transcript. The new booking replaces the bookable list, while earlier
// interviews stay in the evidence base.
func (s *Session) Book(alloc recruit.Allocation) ([]BookedPersona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := alloc.Validate(s.scn); err != nil {
		return nil, err
	}

	s.coverage.Add(alloc)
	ids := recruit.Recruit(s.scn, alloc, s.src, s.opts.MaxBooked)

	out := make([]BookedPersona, 0, len(ids))
	for _, id := range ids {
		p, _ := s.scn.Persona(id)
		trust := 0.5
		if seg, ok := s.scn.SegmentProfile(p.Segment); ok {
			trust = seg.DefaultTrust
		}
		ch := recruit.Attribute(s.scn, alloc, p.Segment)
		if _, seen := s.interviews[id]; !seen {
			s.order = append(s.order, id)
		}
		iv := interview.NewSession(p, trust, ch)
		s.interviews[id] = iv
		out = append(out, BookedPersona{ID: id, Name: p.Name, Segment: p.Segment, Channel: ch, Trust: iv.Trust})
	}
	s.booked = ids
	s.record(kindBook, bookCmd{Allocation: alloc})
	s.log.Info("booked", "tokens", alloc.Total(), "personas", len(ids))
	return out, nil
}

// ─── Interview ──────────────────────────────────────────────────────────────

// Ask puts question to a booked persona.
func (s *Session) Ask(pid scenario.PersonaID, question string) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iv, err := s.interviewFor(pid)
	if err != nil {
		return Answer{}, err
	}
	turn, err := iv.Ask(s.scn, question, s.src, s.opts.Interview)
	if err != nil {
		return Answer{}, err
	}
	s.record(kindAsk, askCmd{Persona: pid, Question: question})

	ans := Answer{
		Persona:    pid,
		Turn:       turn,
		Trust:      iv.Trust,
		Disclosing: iv.Disclosing(),
		Finished:   iv.Finished,
	}
	if limit := s.opts.Interview.MaxQuestions; limit > 0 && !iv.Finished {
		ans.Remaining = limit - iv.Steps
	}
	return ans, nil
}

// FinishInterview ends the interview with pid.
func (s *Session) FinishInterview(pid scenario.PersonaID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	iv, err := s.interviewFor(pid)
	if err != nil {
		return err
	}
	if iv.Finished {
		return interview.ErrInterviewFinished
	}
	iv.Finish()
	s.record(kindFinish, finishCmd{Persona: pid})
	return nil
}

func (s *Session) interviewFor(pid scenario.PersonaID) (*interview.Session, error) {
	if _, ok := s.scn.Persona(pid); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPersona, pid)
	}
	iv, ok := s.interviews[pid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotBooked, pid)
	}
	return iv, nil
}

// ─── Flash ──────────────────────────────────────────────────────────────────

// OpenFlash registers a flash snippet as evidence.
func (s *Session) OpenFlash(fid scenario.FlashID) (scenario.FlashItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.scn.Flash(fid)
	if !ok {
		return scenario.FlashItem{}, fmt.Errorf("%w: %s", ErrUnknownFlash, fid)
	}
	if s.isOpen[fid] {
		return scenario.FlashItem{}, fmt.Errorf("%w: %s", ErrFlashAlreadyOpen, fid)
	}
	if len(s.opened) >= s.opts.FlashLimit {
		return scenario.FlashItem{}, fmt.Errorf("%w: %d of %d", ErrFlashLimit, len(s.opened), s.opts.FlashLimit)
	}

	s.opened = append(s.opened, f)
	s.isOpen[fid] = true
	s.record(kindOpenFlash, flashCmd{Flash: fid})
	return f, nil
}

// FollowUp asks one question about an opened flash snippet.
func (s *Session) FollowUp(fid scenario.FlashID, question string) (interview.FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scn.Flash(fid); !ok {
		return interview.FollowUp{}, fmt.Errorf("%w: %s", ErrUnknownFlash, fid)
	}
	if !s.isOpen[fid] {
		return interview.FollowUp{}, fmt.Errorf("%w: %s", ErrFlashNotOpened, fid)
	}
	if s.followed[fid] {
		return interview.FollowUp{}, fmt.Errorf("%w: %s", ErrAlreadyFollowedUp, fid)
	}
	if len(s.followUps) >= s.opts.FollowUpLimit {
		return interview.FollowUp{}, fmt.Errorf("%w: %d of %d", ErrFollowUpLimit, len(s.followUps), s.opts.FollowUpLimit)
	}

	fu := interview.Clarify(fid, question, s.src)
	s.followUps = append(s.followUps, fu)
	s.followed[fid] = true
	s.record(kindFollowUp, followUpCmd{Flash: fid, Question: question})
	return fu, nil
}

// ─── Synthesis & Score ──────────────────────────────────────────────────────

// RunSynthesis aggregates the evidence collected so far.
func (s *Session) RunSynthesis() synthesis.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.synthesize()
	s.record(kindSynthesis, struct{}{})
	return res
}

// Score grades the learner's decision. It always recomputes the synthesis
// first so the grade reflects every interview and flash so far.
func (s *Session) Score(problemStatement, testPlan string) scoring.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	syn := s.synthesize()
	res := scoring.Score(scoring.Input{
		Scenario:         s.scn,
		Synthesis:        syn,
		Interviews:       s.orderedInterviews(),
		Coverage:         s.coverage.Snapshot(),
		ProblemStatement: problemStatement,
		TestPlan:         testPlan,
	})
	s.score = &res
	s.statement, s.plan = problemStatement, testPlan
	s.record(kindScore, scoreCmd{ProblemStatement: problemStatement, TestPlan: testPlan})
	s.log.Info("scored", "score", res.Score, "chosen_top", res.Diagnostics.ChosenTop)
	return res
}

func (s *Session) synthesize() synthesis.Result {
	res := synthesis.Compute(synthesis.Input{
		Scenario:   s.scn,
		Interviews: s.orderedInterviews(),
		Flashes:    append([]scenario.FlashItem(nil), s.opened...),
		FollowUps:  append([]interview.FollowUp(nil), s.followUps...),
		Coverage:   s.coverage.Snapshot(),
	})
	s.synthesis = &res
	return res
}

// orderedInterviews returns interviews in first-booking order.
func (s *Session) orderedInterviews() []*interview.Session {
	out := make([]*interview.Session, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.interviews[id])
	}
	return out
}

// record journals an accepted command. A nil recorder records nothing.
func (s *Session) record(kind string, payload any) {
	if s.rec == nil {
		return
	}
	s.rec(kind, payload)
}
