package scoring

import (
	"strings"
	"unicode"

	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

// Cue lists are matched case-insensitively at the start of a word, so
// "owner" matches "owners" but "rate" does not match "separate".
var (
	whoCues = []string{
		"owner", "gym", "studio", "multi-site", "multi site", "solo",
		"premium", "segment", "manager", "trainer", "operator",
	}
	triggerCues = []string{
		"when", "after", "trigger", "during", "every", "whenever", "before",
		"each", "daily", "weekly", "monthly", "season", "peak",
	}
	comparisonCues = []string{
		"more than", "less than", "at least", "at most", "fewer", "greater",
		"higher", "lower", "increase", "decrease", "drop", "reduce", "cost",
	}
	methodCues = []string{
		"interview", "survey", "landing page", "smoke test", "prototype",
		"pilot", "concierge", "experiment", "a/b", "pre-sell", "presell",
		"fake door", "mockup", "assumption", "trial", "a test", "run test",
	}
	thresholdCues = []string{
		"threshold", "metric", "success", "target", "conversion", "rate",
		"at least", "sign up", "signup", "pre-order", "preorder", "deposit",
	}
)

// ScoreProblemStatement rates a problem statement in [0.25, 1]: a floor
// plus credit for naming who has the problem, when it is triggered, and a
// quantifying or testable claim. Segment labels from scn also count as
// who cues.
func ScoreProblemStatement(text string, scn *scenario.Scenario) float64 {
	s := strings.ToLower(text)
	score := textFloor
	if containsAny(s, whoCues) || mentionsSegment(s, scn) {
		score += statementCue
	}
	if containsAny(s, triggerCues) {
		score += statementCue
	}
	if quantified(s) || containsAny(s, comparisonCues) {
		score += statementCue
	}
	return score
}

// ScoreTestPlan rates a next test plan in [0.25, 1]: a floor plus credit
// for a test method and for a success threshold or metric.
func ScoreTestPlan(text string) float64 {
	s := strings.ToLower(text)
	score := textFloor
	if containsAny(s, methodCues) {
		score += planCue
	}
	if quantified(s) || containsAny(s, thresholdCues) {
		score += planCue
	}
	return score
}

func mentionsSegment(s string, scn *scenario.Scenario) bool {
	if scn == nil {
		return false
	}
	for _, seg := range scn.Segments {
		if seg.Label != "" && strings.Contains(s, strings.ToLower(seg.Label)) {
			return true
		}
	}
	return false
}

// quantified reports a digit or a percent sign.
func quantified(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsDigit(r) || r == '%'
	})
}

func containsAny(s string, cues []string) bool {
	for _, c := range cues {
		if hasWordPrefix(s, c) {
			return true
		}
	}
	return false
}

// hasWordPrefix reports whether cue occurs in s starting at a word boundary.
func hasWordPrefix(s, cue string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], cue)
		if j < 0 {
			return false
		}
		at := i + j
		if at == 0 || !isWordRune(rune(s[at-1])) {
			return true
		}
		i = at + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
