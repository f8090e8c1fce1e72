package interview

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/discovery-sim/internal/classify"
	"github.com/HendryAvila/discovery-sim/internal/randsrc"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

// Frequency is an ordinal self-reported frequency bucket.
type Frequency string

const (
	FrequencyAdHoc   Frequency = "ad-hoc"
	FrequencyMonthly Frequency = "monthly"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyDaily   Frequency = "daily"
)

// frequencyBuckets is ordered from least to most frequent.
var frequencyBuckets = []Frequency{FrequencyAdHoc, FrequencyMonthly, FrequencyWeekly, FrequencyDaily}

const (
	populationMix = 0.6
	affinityMix   = 0.4
	topicFloor    = 0.01

	// defaultSeverityAffinity stands in for a persona with no opinion on
	// the drawn topic.
	defaultSeverityAffinity = 0.6
	severityNoise           = 0.2

	defaultWorkaround = "manual work"
	undisclosedSpend  = "unclear"
)

// Extraction is the structured evidence pulled from one answer.
type Extraction struct {
	PainKey      scenario.PainKey `json:"pain_key" yaml:"pain_key"`
	PainLabel    string           `json:"pain_label" yaml:"pain_label"`
	Frequency    Frequency        `json:"frequency" yaml:"frequency"`
	Severity     float64          `json:"severity" yaml:"severity"`
	Workaround   string           `json:"workaround" yaml:"workaround"`
	SpendHint    string           `json:"spend_hint" yaml:"spend_hint"`
	Confidence   float64          `json:"confidence" yaml:"confidence"`
	MaterialPain scenario.PainKey `json:"material_pain,omitempty" yaml:"material_pain,omitempty"`
}

// TopicWeights returns the draw weight of every catalog pain for p, in
// catalog order. The population base rate outweighs persona affinity.
func TopicWeights(scn *scenario.Scenario, p *scenario.Persona) []float64 {
	weights := make([]float64, len(scn.Pains))
	for i, pain := range scn.Pains {
		w := pain.BaseFrequency*populationMix + p.Affinity(pain.Key, 0)*affinityMix
		if w < topicFloor {
			w = topicFloor
		}
		weights[i] = w
	}
	return weights
}

// Respond generates the persona's answer at the given trust level.
func Respond(scn *scenario.Scenario, p *scenario.Persona, trust float64, traits classify.Traits, src randsrc.Source, opts Options) (string, Extraction) {
	pain := scn.Pains[randsrc.Pick(src, TopicWeights(scn, p))]
	noise := 1 - trust

	affinity := p.Affinity(pain.Key, defaultSeverityAffinity)
	severity := clamp01(
		pain.BaseSeverity*(0.6+0.7*affinity) +
			randsrc.Uniform(src, -severityNoise, severityNoise)*noise,
	)

	freq := frequencyFor(pain, p.Affinity(pain.Key, 0), trust, src)

	disclosed := trust >= p.TellThreshold
	spendHint := undisclosedSpend
	if disclosed {
		spendHint = fmt.Sprintf("$%d cap", int(p.SpendCeiling))
	}

	workaround := p.Workarounds[pain.Key]
	if workaround == "" {
		workaround = defaultWorkaround
	}

	anecdote := ""
	if len(p.Anecdotes) > 0 {
		anecdote = p.Anecdotes[src.IntN(len(p.Anecdotes))]
	}

	var resp string
	if traits.PastBehavior || disclosed {
		resp = strings.TrimSpace(fmt.Sprintf("%s Pain: %s. Happens %s. We do %s.",
			anecdote, pain.Label, freq, workaround))
	} else if anecdote == "" || randsrc.Chance(src, opts.GenericAnswerProbability) {
		resp = fmt.Sprintf("Yeah, %s shows up sometimes.", pain.Label)
	} else {
		resp = anecdote
	}

	ext := Extraction{
		PainKey:    pain.Key,
		PainLabel:  pain.Label,
		Frequency:  freq,
		Severity:   round2(severity),
		Workaround: workaround,
		SpendHint:  spendHint,
		Confidence: round2(trust),
	}

	if disclosed {
		if material := p.DominantPain(scn.PainOrder()); material != "" {
			ext.MaterialPain = material
			label := string(material)
			if mp, ok := scn.Pain(material); ok {
				label = mp.Label
			}
			resp += fmt.Sprintf(" Honestly, the one that really costs us is %s. We'd put a %s on fixing it.",
				strings.ToLower(label), spendHint)
		}
	}

	return resp, ext
}

// frequencyFor picks a bucket from the population rate and affinity, then
// nudges it up under low trust and down under high trust.
func frequencyFor(pain scenario.PainTopic, affinity, trust float64, src randsrc.Source) Frequency {
	idx := 1
	if pain.BaseFrequency > 0.45 {
		idx++
	}
	if affinity > 0.7 {
		idx++
	}
	if randsrc.Chance(src, 0.2*(1-trust)) {
		idx++
	}
	if randsrc.Chance(src, 0.1*trust) {
		idx--
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(frequencyBuckets)-1 {
		idx = len(frequencyBuckets) - 1
	}
	return frequencyBuckets[idx]
}
