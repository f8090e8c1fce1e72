package sim

import (
	"fmt"

	"github.com/HendryAvila/discovery-sim/internal/journal"
	"github.com/HendryAvila/discovery-sim/internal/recruit"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

// Journal event kinds, one per accepted command.
const (
	kindBook      = "book"
	kindAsk       = "ask"
	kindFinish    = "finish_interview"
	kindOpenFlash = "open_flash"
	kindFollowUp  = "follow_up"
	kindSynthesis = "synthesis"
	kindScore     = "score"
)

// recorder receives every accepted command.
type recorder func(kind string, payload any)

type bookCmd struct {
	Allocation recruit.Allocation `json:"allocation"`
}

type askCmd struct {
	Persona  scenario.PersonaID `json:"persona"`
	Question string             `json:"question"`
}

type finishCmd struct {
	Persona scenario.PersonaID `json:"persona"`
}

type flashCmd struct {
	Flash scenario.FlashID `json:"flash"`
}

type followUpCmd struct {
	Flash    scenario.FlashID `json:"flash"`
	Question string           `json:"question"`
}

type scoreCmd struct {
	ProblemStatement string `json:"problem_statement"`
	TestPlan         string `json:"test_plan"`
}

// Replay rebuilds a session from its seed and journaled commands. The
// result is not journaled again.
func Replay(id string, seed int64, scn *scenario.Scenario, opts Options, events []journal.Event) (*Session, error) {
	s := newSession(id, seed, scn, opts, nil, nil)
	for _, ev := range events {
		if err := s.apply(ev); err != nil {
			return nil, fmt.Errorf("replay %s event %d: %w", ev.Kind, ev.Seq, err)
		}
	}
	return s, nil
}

func (s *Session) apply(ev journal.Event) error {
	switch ev.Kind {
	case kindBook:
		var c bookCmd
		if err := ev.Decode(&c); err != nil {
			return err
		}
		_, err := s.Book(c.Allocation)
		return err
	case kindAsk:
		var c askCmd
		if err := ev.Decode(&c); err != nil {
			return err
		}
		_, err := s.Ask(c.Persona, c.Question)
		return err
	case kindFinish:
		var c finishCmd
		if err := ev.Decode(&c); err != nil {
			return err
		}
		return s.FinishInterview(c.Persona)
	case kindOpenFlash:
		var c flashCmd
		if err := ev.Decode(&c); err != nil {
			return err
		}
		_, err := s.OpenFlash(c.Flash)
		return err
	case kindFollowUp:
		var c followUpCmd
		if err := ev.Decode(&c); err != nil {
			return err
		}
		_, err := s.FollowUp(c.Flash, c.Question)
		return err
	case kindSynthesis:
		s.RunSynthesis()
		return nil
	case kindScore:
		var c scoreCmd
		if err := ev.Decode(&c); err != nil {
			return err
		}
		s.Score(c.ProblemStatement, c.TestPlan)
		return nil
	default:
		return fmt.Errorf("unknown command kind %q", ev.Kind)
	}
}
