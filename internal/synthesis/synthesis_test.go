package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/discovery-sim/internal/interview"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

func testScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	s, err := scenario.Default(42)
	require.NoError(t, err)
	return s
}

func turn(k scenario.PainKey, severity float64, resp string) interview.Turn {
	return interview.Turn{
		Question:   "What happened?",
		Response:   resp,
		Extraction: &interview.Extraction{PainKey: k, Severity: severity},
	}
}

func session(seg scenario.Segment, turns ...interview.Turn) *interview.Session {
	return &interview.Session{
		Persona:    &scenario.Persona{ID: "p_test", Segment: seg},
		Transcript: turns,
	}
}

func flash(t *testing.T, scn *scenario.Scenario, id scenario.FlashID) scenario.FlashItem {
	t.Helper()
	f, ok := scn.Flash(id)
	require.True(t, ok)
	return f
}

func TestCompute_EmptyInput(t *testing.T) {
	res := Compute(Input{Scenario: testScenario(t)})

	assert.Empty(t, res.Top)
	assert.Empty(t, res.Counts)
	assert.Empty(t, res.Alerts)
	assert.Empty(t, res.Segments)
	assert.Empty(t, res.Clarifications)
	assert.Equal(t, NoSignalAdvice, res.Advisory)
	assert.Equal(t, scenario.PainKey(""), res.Leader())
}

func TestCompute_CountsAndRanking(t *testing.T) {
	scn := testScenario(t)
	in := Input{
		Scenario: scn,
		Interviews: []*interview.Session{
			session(scenario.SegmentMultiSite,
				turn(scenario.PainCACVolatility, 0.8, "ads tanked"),
				turn(scenario.PainCACVolatility, 0.6, "leads halved"),
			),
			session(scenario.SegmentSoloStudio,
				turn(scenario.PainPostPromoChurn, 0.85, "they ghost"),
			),
		},
		Flashes: []scenario.FlashItem{flash(t, scn, "f2"), flash(t, scn, "f7")},
	}

	res := Compute(in)

	require.Len(t, res.Top, 2)
	assert.Equal(t, 2, res.Counts[scenario.PainCACVolatility])
	assert.Equal(t, 2, res.Counts[scenario.PainPostPromoChurn])
	assert.InDelta(t, 0.70, res.AvgSeverity[scenario.PainCACVolatility], 1e-9)
	assert.InDelta(t, 0.75, res.AvgSeverity[scenario.PainPostPromoChurn], 1e-9)

	// Equal counts: higher average severity ranks first.
	assert.Equal(t, []scenario.PainKey{scenario.PainPostPromoChurn, scenario.PainCACVolatility}, res.TopKeys())
	assert.Equal(t, "Churn after intro promos", res.Top[0].Label)
	assert.Equal(t, []string{"they ghost", "Intro pass folks come twice then vanish."}, res.Top[0].Quotes)
	assert.Equal(t, []string{"ads tanked", "leads halved"}, res.Top[1].Quotes)
	assert.Empty(t, res.Advisory)
}

func TestCompute_TieBreaksByCatalogOrder(t *testing.T) {
	res := Compute(Input{
		Scenario: testScenario(t),
		Interviews: []*interview.Session{
			session(scenario.SegmentSoloStudio,
				turn(scenario.PainReferralStagnation, 0.5, "a"),
				turn(scenario.PainPostPromoChurn, 0.5, "b"),
				turn(scenario.PainCACVolatility, 0.5, "c"),
			),
		},
	})

	assert.Equal(t, []scenario.PainKey{
		scenario.PainCACVolatility,
		scenario.PainPostPromoChurn,
		scenario.PainReferralStagnation,
	}, res.TopKeys())
}

func TestCompute_CapsTopicsAndQuotes(t *testing.T) {
	scn := testScenario(t)
	var turns []interview.Turn
	for _, k := range scn.PainOrder() {
		turns = append(turns, turn(k, 0.5, string(k)+" 1"), turn(k, 0.5, string(k)+" 2"))
	}
	turns = append(turns,
		turn(scenario.PainCACVolatility, 0.5, "cac 3"),
		turn(scenario.PainCACVolatility, 0.5, "cac 4"),
		turn("uncatalogued", 0.9, "other"),
	)

	res := Compute(Input{Scenario: scn, Interviews: []*interview.Session{session(scenario.SegmentMultiSite, turns...)}})

	require.Len(t, res.Top, TopN)
	assert.Equal(t, scenario.PainCACVolatility, res.Leader())
	assert.NotContains(t, res.TopKeys(), scenario.PainKey("uncatalogued"))
	assert.Equal(t, 1, res.Counts["uncatalogued"])
	assert.Equal(t, []string{"cac_volatility 1", "cac_volatility 2", "cac 3"}, res.Top[0].Quotes)
}

func TestCompute_ChannelAlerts(t *testing.T) {
	tests := []struct {
		name     string
		coverage map[scenario.ChannelKey]int
		want     []string
	}{
		{"nothing allocated", nil, []string{}},
		{"single channel", map[scenario.ChannelKey]int{scenario.ChannelEmailList: 10}, []string{"Over-reliance on Email list (100%)"}},
		{"seventy percent", map[scenario.ChannelKey]int{scenario.ChannelEmailList: 7, scenario.ChannelForums: 3}, []string{"Over-reliance on Email list (70%)"}},
		{"exactly sixty percent", map[scenario.ChannelKey]int{scenario.ChannelEmailList: 6, scenario.ChannelForums: 4}, []string{}},
		{"rounded percent", map[scenario.ChannelKey]int{scenario.ChannelSidewalk: 2, scenario.ChannelColdDM: 1}, []string{"Over-reliance on Sidewalk intercepts (67%)"}},
		{"balanced", map[scenario.ChannelKey]int{scenario.ChannelEmailList: 3, scenario.ChannelColdDM: 3, scenario.ChannelForums: 4}, []string{}},
	}

	scn := testScenario(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compute(Input{Scenario: scn, Coverage: tt.coverage})
			assert.Equal(t, tt.want, res.Alerts)
		})
	}
}

func TestCompute_SegmentsAndHeatmap(t *testing.T) {
	scn := testScenario(t)
	res := Compute(Input{
		Scenario: scn,
		Interviews: []*interview.Session{
			session(scenario.SegmentMultiSite, turn(scenario.PainCACVolatility, 0.7, "x")),
			session(scenario.SegmentMultiSite),
			session(scenario.SegmentPremiumPT, turn(scenario.PainReferralStagnation, 0.4, "y")),
		},
		Flashes: []scenario.FlashItem{flash(t, scn, "f6"), flash(t, scn, "f7")},
	})

	assert.Equal(t, map[scenario.Segment]int{
		scenario.SegmentMultiSite: 2,
		scenario.SegmentPremiumPT: 1,
	}, res.Segments)
	assert.Equal(t, 1, res.Heatmap[scenario.SegmentMultiSite][scenario.PainCACVolatility])
	assert.Equal(t, 1, res.Heatmap[scenario.SegmentSoloStudio][scenario.PainCACVolatility])
	assert.Equal(t, 1, res.Heatmap[scenario.SegmentPremiumPT][scenario.PainReferralStagnation])
	assert.Equal(t, 2, res.Counts[scenario.PainCACVolatility])
}

func TestCompute_KeepsOnlyClarifyingFollowUps(t *testing.T) {
	res := Compute(Input{
		Scenario: testScenario(t),
		FollowUps: []interview.FollowUp{
			{Flash: "f1", Question: "How often?", Frequency: interview.FrequencyWeekly},
			{Flash: "f2", Question: "Is it bad?"},
			{Flash: "f3", Question: "Would you pay?", WTPBand: "$30-50"},
		},
	})

	require.Len(t, res.Clarifications, 2)
	assert.Equal(t, scenario.FlashID("f1"), res.Clarifications[0].Flash)
	assert.Equal(t, scenario.FlashID("f3"), res.Clarifications[1].Flash)
}

func TestCompute_IsPure(t *testing.T) {
	scn := testScenario(t)
	iv := session(scenario.SegmentMultiSite,
		turn(scenario.PainCACVolatility, 0.8, "ads tanked"),
		turn(scenario.PainAdminOverhead, 0.4, "payroll"),
	)
	in := Input{
		Scenario:   scn,
		Interviews: []*interview.Session{iv},
		Flashes:    []scenario.FlashItem{flash(t, scn, "f1")},
		Coverage:   map[scenario.ChannelKey]int{scenario.ChannelEmailList: 10},
	}

	first := Compute(in)
	first.Top[0].Quotes[0] = "mutated"
	second := Compute(in)
	third := Compute(in)

	assert.Equal(t, second, third)
	assert.Equal(t, "ads tanked", second.Top[0].Quotes[0])
	assert.Len(t, iv.Transcript, 2)
	assert.Equal(t, 10, in.Coverage[scenario.ChannelEmailList])
}
