// Package classify turns a learner's question into behavioral traits.
//
// Classification is phrase matching, not language understanding: each trait
// is a prefix or substring check against a short fixed list. The cost is
// O(len(question) × number of phrases).
package classify

import "strings"

// Traits is the fixed trait set of a question. A question may carry several
// traits at once (a question can be both leading and solutioning).
type Traits struct {
	Open               bool `json:"is_open" yaml:"is_open"`
	Leading            bool `json:"is_leading" yaml:"is_leading"`
	Solutioning        bool `json:"is_solutioning" yaml:"is_solutioning"`
	PastBehavior       bool `json:"is_past_behavior" yaml:"is_past_behavior"`
	FutureHypothetical bool `json:"is_future_hypothetical" yaml:"is_future_hypothetical"`
}

var (
	openStarters = []string{
		"tell me about", "walk me through", "how did", "what happened",
		"when was the last", "why", "what else", "how do you", "how often",
	}

	// yesNoOpeners disqualify the "ends with ?" catch-all.
	yesNoOpeners = []string{
		"do ", "does ", "did ", "is ", "are ", "was ", "were ",
		"would ", "will ", "can ", "could ", "should ", "have ", "has ",
		"don't ", "isn't ", "aren't ",
	}

	leadingPhrases     = []string{"would you", "if i built", "don't you think", "shouldn't", "isn't it"}
	solutioningPhrases = []string{"if i built", "my product", "our app"}
	pastPhrases        = []string{"last time", "how did you", "what happened", "walk me through"}
	futurePhrases      = []string{"would you pay", "will you", "would you use"}
)

// Normalize lower-cases, trims and folds typographic apostrophes so
// "Don’t" and "Don't" match the same phrases.
func Normalize(q string) string {
	s := strings.ToLower(strings.TrimSpace(q))
	s = strings.NewReplacer("’", "'", "‘", "'").Replace(s)
	return s
}

// QuestionKey is the identity used to detect a repeated question:
// the normalized text with inner whitespace collapsed.
func QuestionKey(q string) string {
	return strings.Join(strings.Fields(Normalize(q)), " ")
}

// Classify returns the traits of q. Empty input yields all-false traits.
func Classify(q string) Traits {
	s := QuestionKey(q)
	if s == "" {
		return Traits{}
	}

	// A specific open starter wins over the catch-all: "why would you..."
	// is open even though the catch-all alone would not decide it.
	catchAll := strings.HasSuffix(s, "?") && !hasPrefix(s, yesNoOpeners)

	return Traits{
		Open:               hasPrefix(s, openStarters) || catchAll,
		Leading:            contains(s, leadingPhrases),
		Solutioning:        contains(s, solutioningPhrases),
		PastBehavior:       contains(s, pastPhrases),
		FutureHypothetical: contains(s, futurePhrases),
	}
}

// LeadingOrSolutioning reports whether the question steers the interviewee.
func (t Traits) LeadingOrSolutioning() bool {
	return t.Leading || t.Solutioning
}

func hasPrefix(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func contains(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
