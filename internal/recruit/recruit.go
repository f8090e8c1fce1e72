// Package recruit converts an effort-token allocation across channels into
// a booked set of personas.
//
// The sampler never fails on degenerate input: a zero allocation books
// nobody, all-zero biases fall back to a uniform segment draw, and an
// exhausted segment falls back to any persona still available.
package recruit

import (
	"errors"
	"fmt"

	"github.com/HendryAvila/discovery-sim/internal/randsrc"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

// DefaultMaxBooked caps how many personas one booking can return.
const DefaultMaxBooked = 8

// segmentFloor keeps segments without direct bias selectable.
const segmentFloor = 0.01

// ErrInvalidAllocation is wrapped by Validate failures.
var ErrInvalidAllocation = errors.New("invalid allocation")

// Allocation maps channel keys to effort tokens.
type Allocation map[scenario.ChannelKey]int

// Total returns the sum of tokens, ignoring negative entries.
func (a Allocation) Total() int {
	total := 0
	for _, n := range a {
		if n > 0 {
			total += n
		}
	}
	return total
}

// Validate checks a against the scenario's channels and budget. A total
// below the budget is legal and simply books fewer personas.
func (a Allocation) Validate(scn *scenario.Scenario) error {
	for _, ch := range sortedChannels(a) {
		if _, ok := scn.Channel(ch); !ok {
			return fmt.Errorf("%w: unknown channel %q", ErrInvalidAllocation, ch)
		}
		if a[ch] < 0 {
			return fmt.Errorf("%w: negative tokens for %q", ErrInvalidAllocation, ch)
		}
	}
	if total := a.Total(); total > scn.Budget {
		return fmt.Errorf("%w: %d tokens allocated, budget is %d", ErrInvalidAllocation, total, scn.Budget)
	}
	return nil
}

// SegmentWeights returns the normalized probability of drawing each
// segment, in scenario segment order.
func SegmentWeights(scn *scenario.Scenario, alloc Allocation) []float64 {
	segments := scn.SegmentOrder()
	raw := make([]float64, len(segments))

	for _, ch := range scn.Channels {
		tokens := alloc[ch.Key]
		if tokens <= 0 {
			continue
		}
		for i, seg := range segments {
			raw[i] += ch.Bias[seg] * float64(tokens) * ch.Yield
		}
	}

	allZero := true
	for _, w := range raw {
		if w != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		for i := range raw {
			raw[i] = 1
		}
	}

	total := 0.0
	for i, w := range raw {
		if w < segmentFloor {
			raw[i] = segmentFloor
		}
		total += raw[i]
	}
	for i := range raw {
		raw[i] /= total
	}
	return raw
}

// Recruit books up to min(maxBooked, alloc.Total()) distinct personas.
// maxBooked <= 0 uses DefaultMaxBooked.
func Recruit(scn *scenario.Scenario, alloc Allocation, src randsrc.Source, maxBooked int) []scenario.PersonaID {
	if maxBooked <= 0 {
		maxBooked = DefaultMaxBooked
	}
	draws := alloc.Total()
	if draws == 0 {
		return nil
	}
	if draws > maxBooked {
		draws = maxBooked
	}

	segments := scn.SegmentOrder()
	weights := SegmentWeights(scn, alloc)

	pool := make([]*scenario.Persona, len(scn.Personas))
	for i := range scn.Personas {
		pool[i] = &scn.Personas[i]
	}
	randsrc.Shuffle(src, len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	chosen := make([]scenario.PersonaID, 0, draws)
	taken := make(map[scenario.PersonaID]bool, draws)
	for i := 0; i < draws; i++ {
		seg := segments[randsrc.Pick(src, weights)]

		pick := firstAvailable(pool, taken, func(p *scenario.Persona) bool { return p.Segment == seg })
		if pick == nil {
			pick = firstAvailable(pool, taken, func(*scenario.Persona) bool { return true })
		}
		if pick == nil {
			break
		}
		taken[pick.ID] = true
		chosen = append(chosen, pick.ID)
	}
	return chosen
}

func firstAvailable(pool []*scenario.Persona, taken map[scenario.PersonaID]bool, match func(*scenario.Persona) bool) *scenario.Persona {
	for _, p := range pool {
		if !taken[p.ID] && match(p) {
			return p
		}
	}
	return nil
}

// Attribute names the channel most likely to have reached a persona of
// segment seg under alloc. Returns "" when no channel had tokens.
func Attribute(scn *scenario.Scenario, alloc Allocation, seg scenario.Segment) scenario.ChannelKey {
	var best scenario.ChannelKey
	bestScore := -1.0
	for _, ch := range scn.Channels {
		tokens := alloc[ch.Key]
		if tokens <= 0 {
			continue
		}
		score := float64(tokens) * ch.Bias[seg] * ch.Yield
		if score > bestScore {
			best, bestScore = ch.Key, score
		}
	}
	return best
}
