// Package scenario holds the read-only catalog a simulation runs against:
// pain topics, segments, recruitment channels, personas, flash snippets and
// suggested questions.
//
// A Scenario is loaded once at startup and shared by every session. All
// cross-references (persona pains, channel biases, flash hints, the ground
// truth) are validated at load time, so code holding a key obtained from the
// catalog never hits an unknown-key lookup.
package scenario

import "sort"

// --- Keys ---

// PainKey identifies a pain topic.
type PainKey string

// Segment identifies a customer sub-segment.
type Segment string

// ChannelKey identifies a recruitment channel.
type ChannelKey string

// PersonaID identifies a persona.
type PersonaID string

// FlashID identifies a flash snippet.
type FlashID string

// Keys of the embedded gym-owner scenario.
const (
	PainCACVolatility      PainKey = "cac_volatility"
	PainPostPromoChurn     PainKey = "post_promo_churn"
	PainAdminOverhead      PainKey = "admin_overhead"
	PainSchedulingGlitch   PainKey = "scheduling_glitch"
	PainReferralStagnation PainKey = "referral_stagnation"

	SegmentSoloStudio Segment = "solo_studio"
	SegmentMultiSite  Segment = "multi_site"
	SegmentPremiumPT  Segment = "premium_pt"

	ChannelEmailList ChannelKey = "email_list"
	ChannelColdDM    ChannelKey = "cold_dm"
	ChannelForums    ChannelKey = "forums"
	ChannelSidewalk  ChannelKey = "sidewalk"
)

// --- Catalog entries ---

// PainTopic is a population-level problem category.
type PainTopic struct {
	Key           PainKey `yaml:"key" json:"key"`
	Label         string  `yaml:"label" json:"label"`
	BaseFrequency float64 `yaml:"base_frequency" json:"base_frequency"`
	BaseSeverity  float64 `yaml:"base_severity" json:"base_severity"`
	Notes         string  `yaml:"notes" json:"notes,omitempty"`
}

// SegmentProfile describes a sub-segment and how guarded its members are
// at the start of an interview.
type SegmentProfile struct {
	Key          Segment `yaml:"key" json:"key"`
	Label        string  `yaml:"label" json:"label"`
	DefaultTrust float64 `yaml:"default_trust" json:"default_trust"`
}

// Channel is a recruitment source.
type Channel struct {
	Key   ChannelKey          `yaml:"key" json:"key"`
	Label string              `yaml:"label" json:"label"`
	Yield float64             `yaml:"yield" json:"yield"`
	Bias  map[Segment]float64 `yaml:"bias" json:"bias"`
}

// Persona is a simulated interviewee. Pains holds independent relevance
// scores in [0,1], not a distribution.
type Persona struct {
	ID            PersonaID           `yaml:"id" json:"id"`
	Name          string              `yaml:"name" json:"name"`
	Segment       Segment             `yaml:"segment" json:"segment"`
	Bio           string              `yaml:"bio" json:"bio"`
	Quirks        []string            `yaml:"quirks" json:"quirks,omitempty"`
	Pains         map[PainKey]float64 `yaml:"pains" json:"pains"`
	Workarounds   map[PainKey]string  `yaml:"workarounds" json:"workarounds"`
	SpendCeiling  float64             `yaml:"spend_ceiling" json:"spend_ceiling"`
	TellThreshold float64             `yaml:"tell_threshold" json:"tell_threshold"`
	Anecdotes     []string            `yaml:"anecdotes" json:"anecdotes"`
}

// Clone returns a deep copy so per-session state never aliases the catalog.
func (p *Persona) Clone() *Persona {
	cp := *p
	cp.Quirks = append([]string(nil), p.Quirks...)
	cp.Anecdotes = append([]string(nil), p.Anecdotes...)
	cp.Pains = make(map[PainKey]float64, len(p.Pains))
	for k, v := range p.Pains {
		cp.Pains[k] = v
	}
	cp.Workarounds = make(map[PainKey]string, len(p.Workarounds))
	for k, v := range p.Workarounds {
		cp.Workarounds[k] = v
	}
	return &cp
}

// Affinity returns the persona's weight for key, or def when the persona
// has no opinion on it.
func (p *Persona) Affinity(key PainKey, def float64) float64 {
	if w, ok := p.Pains[key]; ok {
		return w
	}
	return def
}

// DominantPain returns the pain with the highest affinity. Ties resolve by
// the order of keys in order. Returns "" for a persona without pains.
func (p *Persona) DominantPain(order []PainKey) PainKey {
	var best PainKey
	bestW := -1.0
	for _, k := range order {
		if w, ok := p.Pains[k]; ok && w > bestW {
			best, bestW = k, w
		}
	}
	return best
}

// FlashItem is a pre-written evidence snippet. Pain is empty when the
// snippet carries no topic signal.
type FlashItem struct {
	ID      FlashID `yaml:"id" json:"id"`
	Segment Segment `yaml:"segment" json:"segment"`
	Text    string  `yaml:"text" json:"text"`
	Pain    PainKey `yaml:"pain" json:"pain,omitempty"`
}

// QuestionTemplate is a catalog question offered to the learner.
type QuestionTemplate struct {
	ID       string `yaml:"id" json:"id"`
	Text     string `yaml:"text" json:"text"`
	Category string `yaml:"category" json:"category"`
}

// FillerProfile seeds generated personas of one segment.
type FillerProfile struct {
	Segment Segment             `yaml:"segment"`
	Primary PainKey             `yaml:"primary"`
	Pains   map[PainKey]float64 `yaml:"pains"`
}

// FillerSpec describes how many generated personas to add and how.
type FillerSpec struct {
	Count            int             `yaml:"count"`
	IDPrefix         string          `yaml:"id_prefix"`
	NamePrefix       string          `yaml:"name_prefix"`
	Quirks           []string        `yaml:"quirks"`
	SpendChoices     []float64       `yaml:"spend_choices"`
	TellThresholdMin float64         `yaml:"tell_threshold_min"`
	TellThresholdMax float64         `yaml:"tell_threshold_max"`
	AnecdoteCount    int             `yaml:"anecdote_count"`
	Workaround       string          `yaml:"workaround"`
	Profiles         []FillerProfile `yaml:"profiles"`
}

// --- Scenario ---

// Scenario is the complete read-only catalog.
type Scenario struct {
	MarketID  string             `yaml:"market_id"`
	Brief     string             `yaml:"brief"`
	Budget    int                `yaml:"budget"`
	TrueTop   PainKey            `yaml:"true_top"`
	Segments  []SegmentProfile   `yaml:"segments"`
	Pains     []PainTopic        `yaml:"pains"`
	Channels  []Channel          `yaml:"channels"`
	Anecdotes []string           `yaml:"anecdotes"`
	Personas  []Persona          `yaml:"personas"`
	Fillers   FillerSpec         `yaml:"fillers"`
	Flashes   []FlashItem        `yaml:"flashes"`
	Questions []QuestionTemplate `yaml:"questions"`

	painIdx    map[PainKey]int
	segmentIdx map[Segment]int
	channelIdx map[ChannelKey]int
	personaIdx map[PersonaID]int
	flashIdx   map[FlashID]int
}

// WithBudget returns a copy of s with a different token budget. The
// catalog itself stays shared. Non-positive budgets return s unchanged.
func (s *Scenario) WithBudget(budget int) *Scenario {
	if budget <= 0 || budget == s.Budget {
		return s
	}
	cp := *s
	cp.Budget = budget
	return &cp
}

// Pain returns the topic for key.
func (s *Scenario) Pain(key PainKey) (PainTopic, bool) {
	i, ok := s.painIdx[key]
	if !ok {
		return PainTopic{}, false
	}
	return s.Pains[i], true
}

// PainOrder returns pain keys in catalog order.
func (s *Scenario) PainOrder() []PainKey {
	keys := make([]PainKey, len(s.Pains))
	for i, p := range s.Pains {
		keys[i] = p.Key
	}
	return keys
}

// SegmentProfile returns the profile for key.
func (s *Scenario) SegmentProfile(key Segment) (SegmentProfile, bool) {
	i, ok := s.segmentIdx[key]
	if !ok {
		return SegmentProfile{}, false
	}
	return s.Segments[i], true
}

// SegmentOrder returns segment keys in catalog order.
func (s *Scenario) SegmentOrder() []Segment {
	keys := make([]Segment, len(s.Segments))
	for i, seg := range s.Segments {
		keys[i] = seg.Key
	}
	return keys
}

// Channel returns the channel for key.
func (s *Scenario) Channel(key ChannelKey) (Channel, bool) {
	i, ok := s.channelIdx[key]
	if !ok {
		return Channel{}, false
	}
	return s.Channels[i], true
}

// ChannelOrder returns channel keys in catalog order.
func (s *Scenario) ChannelOrder() []ChannelKey {
	keys := make([]ChannelKey, len(s.Channels))
	for i, c := range s.Channels {
		keys[i] = c.Key
	}
	return keys
}

// Persona returns the shared catalog entry for id. Callers that mutate
// must Clone first.
func (s *Scenario) Persona(id PersonaID) (*Persona, bool) {
	i, ok := s.personaIdx[id]
	if !ok {
		return nil, false
	}
	return &s.Personas[i], true
}

// Flash returns the flash item for id.
func (s *Scenario) Flash(id FlashID) (FlashItem, bool) {
	i, ok := s.flashIdx[id]
	if !ok {
		return FlashItem{}, false
	}
	return s.Flashes[i], true
}

// Question returns the question template with id.
func (s *Scenario) Question(id string) (QuestionTemplate, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return QuestionTemplate{}, false
}

// sortedPainKeys returns the keys of m in lexical order.
func sortedPainKeys[V any](m map[PainKey]V) []PainKey {
	keys := make([]PainKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
