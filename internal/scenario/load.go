package scenario

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/discovery-sim/internal/randsrc"
)

//go:embed gym_owners.yaml
var gymOwnersYAML []byte

// ErrInvalidScenario is wrapped by every validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// Default loads the embedded gym-owner scenario. fillerSeed drives the
// generated filler personas.
func Default(fillerSeed int64) (*Scenario, error) {
	return Load(gymOwnersYAML, fillerSeed)
}

// LoadFile reads a scenario YAML file from disk.
func LoadFile(path string, fillerSeed int64) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return Load(data, fillerSeed)
}

// Load parses a scenario document, appends generated filler personas and
// validates every reference.
func Load(data []byte, fillerSeed int64) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}

	if err := s.buildCatalogIndex(); err != nil {
		return nil, err
	}
	if err := s.validateFillers(); err != nil {
		return nil, err
	}

	s.Personas = append(s.Personas, GenerateFillers(&s, fillerSeed)...)

	if err := s.buildPersonaIndex(); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// GenerateFillers builds the filler personas described by s.Fillers. The
// same seed always yields the same personas.
func GenerateFillers(s *Scenario, seed int64) []Persona {
	spec := s.Fillers
	if spec.Count <= 0 || len(spec.Profiles) == 0 {
		return nil
	}

	src := randsrc.New(seed)
	out := make([]Persona, 0, spec.Count)
	for i := 0; i < spec.Count; i++ {
		profile := spec.Profiles[src.IntN(len(spec.Profiles))]

		pains := make(map[PainKey]float64, len(profile.Pains))
		for k, v := range profile.Pains {
			pains[k] = v
		}

		spend := 0.0
		if len(spec.SpendChoices) > 0 {
			spend = spec.SpendChoices[src.IntN(len(spec.SpendChoices))]
		}

		out = append(out, Persona{
			ID:            PersonaID(fmt.Sprintf("%s%d", spec.IDPrefix, i)),
			Name:          fmt.Sprintf("%s %d", spec.NamePrefix, i+1),
			Segment:       profile.Segment,
			Bio:           fmt.Sprintf("Auto-generated %s owner.", strings.ReplaceAll(string(profile.Segment), "_", " ")),
			Quirks:        append([]string(nil), spec.Quirks...),
			Pains:         pains,
			Workarounds:   map[PainKey]string{profile.Primary: spec.Workaround},
			SpendCeiling:  spend,
			TellThreshold: randsrc.Uniform(src, spec.TellThresholdMin, spec.TellThresholdMax),
			Anecdotes:     sampleStrings(src, s.Anecdotes, spec.AnecdoteCount),
		})
	}
	return out
}

// sampleStrings draws k distinct entries from pool without replacement.
func sampleStrings(src randsrc.Source, pool []string, k int) []string {
	cp := append([]string(nil), pool...)
	randsrc.Shuffle(src, len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	if k > len(cp) {
		k = len(cp)
	}
	if k < 0 {
		k = 0
	}
	return cp[:k]
}

// --- Indexing & validation ---

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidScenario, fmt.Sprintf(format, args...))
}

func (s *Scenario) buildCatalogIndex() error {
	s.painIdx = make(map[PainKey]int, len(s.Pains))
	for i, p := range s.Pains {
		if p.Key == "" {
			return invalid("pain #%d has no key", i)
		}
		if _, dup := s.painIdx[p.Key]; dup {
			return invalid("duplicate pain %q", p.Key)
		}
		s.painIdx[p.Key] = i
	}

	s.segmentIdx = make(map[Segment]int, len(s.Segments))
	for i, seg := range s.Segments {
		if seg.Key == "" {
			return invalid("segment #%d has no key", i)
		}
		if _, dup := s.segmentIdx[seg.Key]; dup {
			return invalid("duplicate segment %q", seg.Key)
		}
		s.segmentIdx[seg.Key] = i
	}

	s.channelIdx = make(map[ChannelKey]int, len(s.Channels))
	for i, c := range s.Channels {
		if c.Key == "" {
			return invalid("channel #%d has no key", i)
		}
		if _, dup := s.channelIdx[c.Key]; dup {
			return invalid("duplicate channel %q", c.Key)
		}
		s.channelIdx[c.Key] = i
	}

	s.flashIdx = make(map[FlashID]int, len(s.Flashes))
	for i, f := range s.Flashes {
		if _, dup := s.flashIdx[f.ID]; dup {
			return invalid("duplicate flash %q", f.ID)
		}
		s.flashIdx[f.ID] = i
	}
	return nil
}

func (s *Scenario) buildPersonaIndex() error {
	s.personaIdx = make(map[PersonaID]int, len(s.Personas))
	for i, p := range s.Personas {
		if p.ID == "" {
			return invalid("persona #%d has no id", i)
		}
		if _, dup := s.personaIdx[p.ID]; dup {
			return invalid("duplicate persona %q", p.ID)
		}
		s.personaIdx[p.ID] = i
	}
	return nil
}

func (s *Scenario) validateFillers() error {
	for _, prof := range s.Fillers.Profiles {
		if _, ok := s.segmentIdx[prof.Segment]; !ok {
			return invalid("filler profile references unknown segment %q", prof.Segment)
		}
		if _, ok := prof.Pains[prof.Primary]; !ok {
			return invalid("filler profile %q: primary pain %q not in its pains", prof.Segment, prof.Primary)
		}
	}
	if s.Fillers.TellThresholdMin > s.Fillers.TellThresholdMax {
		return invalid("filler tell threshold range is inverted")
	}
	return nil
}

func (s *Scenario) validate() error {
	if s.Budget <= 0 {
		return invalid("budget must be positive, got %d", s.Budget)
	}
	if len(s.Pains) == 0 || len(s.Segments) == 0 || len(s.Channels) == 0 {
		return invalid("scenario needs at least one pain, segment and channel")
	}
	if _, ok := s.painIdx[s.TrueTop]; !ok {
		return invalid("true_top %q is not a declared pain", s.TrueTop)
	}

	for _, p := range s.Pains {
		if !unit(p.BaseFrequency) || !unit(p.BaseSeverity) {
			return invalid("pain %q: base frequency and severity must be in [0,1]", p.Key)
		}
	}
	for _, seg := range s.Segments {
		if !unit(seg.DefaultTrust) {
			return invalid("segment %q: default_trust must be in [0,1]", seg.Key)
		}
	}
	for _, c := range s.Channels {
		if !unit(c.Yield) {
			return invalid("channel %q: yield must be in [0,1]", c.Key)
		}
		for seg, w := range c.Bias {
			if _, ok := s.segmentIdx[seg]; !ok {
				return invalid("channel %q: bias references unknown segment %q", c.Key, seg)
			}
			if w < 0 {
				return invalid("channel %q: negative bias for %q", c.Key, seg)
			}
		}
	}
	for _, p := range s.Personas {
		if err := s.validatePersona(p); err != nil {
			return err
		}
	}
	for _, f := range s.Flashes {
		if _, ok := s.segmentIdx[f.Segment]; !ok {
			return invalid("flash %q: unknown segment %q", f.ID, f.Segment)
		}
		if f.Pain != "" {
			if _, ok := s.painIdx[f.Pain]; !ok {
				return invalid("flash %q: unknown pain %q", f.ID, f.Pain)
			}
		}
	}
	return nil
}

func (s *Scenario) validatePersona(p Persona) error {
	if _, ok := s.segmentIdx[p.Segment]; !ok {
		return invalid("persona %q: unknown segment %q", p.ID, p.Segment)
	}
	for _, k := range sortedPainKeys(p.Pains) {
		if _, ok := s.painIdx[k]; !ok {
			return invalid("persona %q: unknown pain %q", p.ID, k)
		}
		if !unit(p.Pains[k]) {
			return invalid("persona %q: affinity for %q must be in [0,1]", p.ID, k)
		}
	}
	for _, k := range sortedPainKeys(p.Workarounds) {
		if _, ok := p.Pains[k]; !ok {
			return invalid("persona %q: workaround for %q without an affinity", p.ID, k)
		}
	}
	if p.SpendCeiling < 0 {
		return invalid("persona %q: negative spend ceiling", p.ID)
	}
	if !unit(p.TellThreshold) {
		return invalid("persona %q: tell_threshold must be in [0,1]", p.ID)
	}
	return nil
}

func unit(v float64) bool { return v >= 0 && v <= 1 }
