package interview

import (
	"strings"

	"github.com/HendryAvila/discovery-sim/internal/classify"
	"github.com/HendryAvila/discovery-sim/internal/randsrc"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

// Follow-up answers draw from these fixed choices.
var (
	clarifiedFrequencies = []Frequency{FrequencyWeekly, FrequencyMonthly, FrequencyAdHoc}
	wtpBands             = []string{"$30-50", "$50-70", "$70-100", "unclear"}
)

// FollowUp is one question asked about an opened flash snippet and what it
// clarified. Empty fields mean the question did not clarify that aspect.
type FollowUp struct {
	Flash     scenario.FlashID `json:"flash" yaml:"flash"`
	Question  string           `json:"q" yaml:"q"`
	Traits    classify.Traits  `json:"meta" yaml:"meta"`
	Frequency Frequency        `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	WTPBand   string           `json:"wtp_band,omitempty" yaml:"wtp_band,omitempty"`
}

// Clarifies reports whether the follow-up produced any clarification.
func (f FollowUp) Clarifies() bool {
	return f.Frequency != "" || f.WTPBand != ""
}

// Clarify answers a follow-up on flash. An open question about how often or
// about past behavior pins down a frequency; a question about paying or
// cost pins down a willingness-to-pay band. Draws happen in that order and
// only when the condition holds.
func Clarify(flash scenario.FlashID, question string, src randsrc.Source) FollowUp {
	traits := classify.Classify(question)
	norm := classify.Normalize(question)

	fu := FollowUp{Flash: flash, Question: question, Traits: traits}
	if traits.Open && (strings.Contains(norm, "how often") || traits.PastBehavior) {
		fu.Frequency = clarifiedFrequencies[src.IntN(len(clarifiedFrequencies))]
	}
	if strings.Contains(norm, "pay") || strings.Contains(norm, "cost") {
		fu.WTPBand = wtpBands[src.IntN(len(wtpBands))]
	}
	return fu
}
