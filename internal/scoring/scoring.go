// Package scoring grades a learner's discovery session.
//
// The score blends five weighted components, each in [0,1]: whether the
// learner found the real top pain, how well they interviewed, how broadly
// they recruited, and the quality of their problem statement and next test
// plan. The total is 0-100. Scoring is deterministic and draws no
// randomness.
package scoring

import (
	"fmt"
	"math"

	"github.com/HendryAvila/discovery-sim/internal/interview"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
	"github.com/HendryAvila/discovery-sim/internal/synthesis"
)

// Component names.
const (
	SignalDetection  = "signal_detection"
	InterviewCraft   = "interview_craft"
	Coverage         = "coverage"
	ProblemStatement = "problem_statement"
	NextTestPlan     = "next_test_plan"
)

// Component credits and thresholds.
const (
	signalExact   = 1.0
	signalInTop   = 0.7
	signalMissed  = 0.3
	coveragePart  = 0.6
	textFloor     = 0.25
	statementCue  = 0.25
	planCue       = 0.375
	targetOpen    = 0.7
	leadingFree   = 0.15
	leadingSpan   = 0.35
	minChannels   = 3
	maxShare      = 0.6
	craftOpenW    = 0.5
	craftLeadingW = 0.3
	craftTrustW   = 0.2
	lowTrust      = 0.5
)

// Component is one weighted axis of the score.
type Component struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Score       float64 `json:"score" yaml:"score"` // 0-1
}

// DefaultComponents returns the scoring axes with their weights.
func DefaultComponents() []Component {
	return []Component{
		{
			Name:        SignalDetection,
			Description: "Did the synthesis rank the market's real top pain first?",
			Weight:      0.30,
		},
		{
			Name:        InterviewCraft,
			Description: "Were questions open and free of leading pitches?",
			Weight:      0.30,
		},
		{
			Name:        Coverage,
			Description: "Was recruitment spread across channels?",
			Weight:      0.15,
		},
		{
			Name:        ProblemStatement,
			Description: "Does the statement name who and when, with a measurable size?",
			Weight:      0.15,
		},
		{
			Name:        NextTestPlan,
			Description: "Does the plan name a method and a success threshold?",
			Weight:      0.10,
		},
	}
}

// Input is what the scorer reads.
type Input struct {
	Scenario   *scenario.Scenario
	Synthesis  synthesis.Result
	Interviews []*interview.Session
	// Coverage is cumulative tokens per channel.
	Coverage         map[scenario.ChannelKey]int
	ProblemStatement string
	TestPlan         string
}

// Diagnostics are the raw measures behind the components.
type Diagnostics struct {
	Questions    int              `json:"questions" yaml:"questions"`
	OpenRate     float64          `json:"open_rate" yaml:"open_rate"`
	LeadingRate  float64          `json:"leading_rate" yaml:"leading_rate"`
	AvgTrust     float64          `json:"avg_trust" yaml:"avg_trust"`
	ChannelsUsed int              `json:"channels_used" yaml:"channels_used"`
	LargestShare float64          `json:"largest_channel_share" yaml:"largest_channel_share"`
	ChosenTop    scenario.PainKey `json:"chosen_top,omitempty" yaml:"chosen_top,omitempty"`
	TrueTop      scenario.PainKey `json:"true_top" yaml:"true_top"`
}

// Result is the full grade.
type Result struct {
	Score       int         `json:"score" yaml:"score"`
	Components  []Component `json:"components" yaml:"components"`
	Diagnostics Diagnostics `json:"diagnostics" yaml:"diagnostics"`
	Feedback    []string    `json:"feedback" yaml:"feedback"`
}

// Component returns the named component.
func (r Result) Component(name string) (Component, bool) {
	for _, c := range r.Components {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

// Score grades in.
func Score(in Input) Result {
	diag := Diagnostics{
		ChosenTop: in.Synthesis.Leader(),
		TrueTop:   in.Scenario.TrueTop,
	}

	craft := interviewCraft(in.Interviews, &diag)
	cov := coverage(in.Coverage, &diag)

	scores := map[string]float64{
		SignalDetection:  signalDetection(in.Synthesis, in.Scenario.TrueTop),
		InterviewCraft:   craft,
		Coverage:         cov,
		ProblemStatement: ScoreProblemStatement(in.ProblemStatement, in.Scenario),
		NextTestPlan:     ScoreTestPlan(in.TestPlan),
	}

	comps := DefaultComponents()
	for i := range comps {
		comps[i].Score = scores[comps[i].Name]
	}
	total := CalculateScore(comps)
	for i := range comps {
		comps[i].Score = round2(comps[i].Score)
	}

	return Result{
		Score:       total,
		Components:  comps,
		Diagnostics: diag,
		Feedback:    feedback(comps, diag),
	}
}

// CalculateScore computes the weighted total from components, scaled to
// 0-100 and clamped.
func CalculateScore(components []Component) int {
	total := 0.0
	for _, c := range components {
		total += c.Weight * c.Score
	}
	return int(math.Round(100 * clamp01(total)))
}

// --- Components ---

func signalDetection(syn synthesis.Result, trueTop scenario.PainKey) float64 {
	if trueTop == "" {
		return signalMissed
	}
	if syn.Leader() == trueTop {
		return signalExact
	}
	for _, k := range syn.TopKeys() {
		if k == trueTop {
			return signalInTop
		}
	}
	return signalMissed
}

// interviewCraft blends the share of open questions, the absence of leading
// or solutioning questions, and the mean final trust of interviews that
// asked anything. No questions scores 0.
func interviewCraft(sessions []*interview.Session, diag *Diagnostics) float64 {
	var questions, open, steering, asked int
	trust := 0.0
	for _, s := range sessions {
		st := s.Stats()
		if st.Questions == 0 {
			continue
		}
		questions += st.Questions
		open += st.Open
		steering += st.LeadingOrSolutioning
		trust += s.Trust
		asked++
	}
	diag.Questions = questions
	if questions == 0 {
		return 0
	}

	openRate := float64(open) / float64(questions)
	leadingRate := float64(steering) / float64(questions)
	avgTrust := trust / float64(asked)
	diag.OpenRate = round2(openRate)
	diag.LeadingRate = round2(leadingRate)
	diag.AvgTrust = round2(avgTrust)

	openScore := math.Min(1, openRate/targetOpen)
	leadingScore := 1.0
	if leadingRate > leadingFree {
		leadingScore = math.Max(0, 1-(leadingRate-leadingFree)/leadingSpan)
	}
	return clamp01(craftOpenW*openScore + craftLeadingW*leadingScore + craftTrustW*avgTrust)
}

func coverage(tokens map[scenario.ChannelKey]int, diag *Diagnostics) float64 {
	total, largest, used := 0, 0, 0
	for _, n := range tokens {
		if n <= 0 {
			continue
		}
		total += n
		used++
		if n > largest {
			largest = n
		}
	}
	diag.ChannelsUsed = used
	if total == 0 {
		return 0
	}
	share := float64(largest) / float64(total)
	diag.LargestShare = round2(share)
	if used >= minChannels && share <= maxShare {
		return 1
	}
	return coveragePart
}

// --- Feedback ---

func feedback(comps []Component, diag Diagnostics) []string {
	var lines []string
	for _, c := range comps {
		if c.Score >= 1 {
			continue
		}
		switch c.Name {
		case SignalDetection:
			if diag.ChosenTop == "" {
				lines = append(lines, "Run synthesis on real evidence before deciding.")
			} else {
				lines = append(lines, "Your leading pain is not the strongest signal in this market. Revisit the evidence.")
			}
		case InterviewCraft:
			if diag.Questions == 0 {
				lines = append(lines, "Interview at least one persona.")
				continue
			}
			if diag.OpenRate < targetOpen {
				lines = append(lines, fmt.Sprintf("Ask more open questions: %d%% were open, aim for 70%%.", pct(diag.OpenRate)))
			}
			if diag.LeadingRate > leadingFree {
				lines = append(lines, fmt.Sprintf("Drop leading or solution-pitching questions: %d%% of yours were.", pct(diag.LeadingRate)))
			}
			if diag.AvgTrust < lowTrust {
				lines = append(lines, fmt.Sprintf("Build rapport with past-behavior questions: average trust ended at %.2f.", diag.AvgTrust))
			}
		case Coverage:
			lines = append(lines, "Recruit across at least 3 channels with none above 60% of the budget.")
		case ProblemStatement:
			lines = append(lines, "Name who hits the problem and when, plus a number that sizes it.")
		case NextTestPlan:
			lines = append(lines, "Name the test method and the threshold that would confirm the problem.")
		}
	}
	if lines == nil {
		lines = []string{}
	}
	return lines
}

func pct(v float64) int { return int(math.Round(v * 100)) }

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
