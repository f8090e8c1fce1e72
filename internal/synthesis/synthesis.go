// Package synthesis aggregates interview transcripts, opened flash snippets
// and recruitment coverage into ranked evidence.
//
// Compute is a pure projection: it reads its input, allocates a fresh
// Result and consumes no randomness, so the same input always yields the
// same output.
package synthesis

import (
	"fmt"
	"math"
	"sort"

	"github.com/HendryAvila/discovery-sim/internal/interview"
	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

const (
	// TopN is the number of ranked topics reported.
	TopN = 5
	// MaxQuotes caps the quotes kept per ranked topic.
	MaxQuotes = 3
	// AlertShare is the channel share above which an alert is raised.
	AlertShare = 0.6

	// NoSignalAdvice is reported when no topic has any evidence.
	NoSignalAdvice = "No signal yet. Ask more questions."
)

// ─── Input ──────────────────────────────────────────────────────────────────

// Input is everything a synthesis run reads.
type Input struct {
	Scenario *scenario.Scenario
	// Interviews in booking order.
	Interviews []*interview.Session
	// Flashes in the order they were opened.
	Flashes   []scenario.FlashItem
	FollowUps []interview.FollowUp
	// Coverage is cumulative tokens per channel.
	Coverage map[scenario.ChannelKey]int
}

// ─── Result ─────────────────────────────────────────────────────────────────

// Topic is one ranked pain topic.
type Topic struct {
	Key         scenario.PainKey `json:"key" yaml:"key"`
	Label       string           `json:"label" yaml:"label"`
	Count       int              `json:"count" yaml:"count"`
	AvgSeverity float64          `json:"avg_severity" yaml:"avg_severity"`
	Quotes      []string         `json:"quotes" yaml:"quotes"`
}

// Result is the derived synthesis view.
type Result struct {
	Counts      map[scenario.PainKey]int     `json:"counts" yaml:"counts"`
	AvgSeverity map[scenario.PainKey]float64 `json:"avg_severity" yaml:"avg_severity"`
	Top         []Topic                      `json:"top" yaml:"top"`
	Alerts      []string                     `json:"alerts" yaml:"alerts"`
	// Segments counts booked interviews per segment.
	Segments map[scenario.Segment]int `json:"segments" yaml:"segments"`
	// Heatmap counts evidence items per segment and topic.
	Heatmap        map[scenario.Segment]map[scenario.PainKey]int `json:"heatmap" yaml:"heatmap"`
	Clarifications []interview.FollowUp                          `json:"clarifications" yaml:"clarifications"`
	Advisory       string                                        `json:"advisory,omitempty" yaml:"advisory,omitempty"`
}

// TopKeys returns the ranked topic keys.
func (r Result) TopKeys() []scenario.PainKey {
	keys := make([]scenario.PainKey, len(r.Top))
	for i, t := range r.Top {
		keys[i] = t.Key
	}
	return keys
}

// Leader returns the rank-1 topic, or "" when there is none.
func (r Result) Leader() scenario.PainKey {
	if len(r.Top) == 0 {
		return ""
	}
	return r.Top[0].Key
}

// ─── Compute ────────────────────────────────────────────────────────────────

type tally struct {
	count    int
	severity float64
	quotes   []string
}

// Compute builds the synthesis view for in.
func Compute(in Input) Result {
	scn := in.Scenario
	tallies := make(map[scenario.PainKey]*tally)
	get := func(k scenario.PainKey) *tally {
		t, ok := tallies[k]
		if !ok {
			t = &tally{}
			tallies[k] = t
		}
		return t
	}

	res := Result{
		Counts:         map[scenario.PainKey]int{},
		AvgSeverity:    map[scenario.PainKey]float64{},
		Top:            []Topic{},
		Alerts:         []string{},
		Segments:       map[scenario.Segment]int{},
		Heatmap:        map[scenario.Segment]map[scenario.PainKey]int{},
		Clarifications: []interview.FollowUp{},
	}
	bump := func(seg scenario.Segment, k scenario.PainKey) {
		row, ok := res.Heatmap[seg]
		if !ok {
			row = map[scenario.PainKey]int{}
			res.Heatmap[seg] = row
		}
		row[k]++
	}

	for _, iv := range in.Interviews {
		seg := iv.Persona.Segment
		res.Segments[seg]++
		for _, turn := range iv.Transcript {
			ext := turn.Extraction
			if ext == nil || ext.PainKey == "" {
				continue
			}
			t := get(ext.PainKey)
			t.count++
			t.severity += ext.Severity
			t.quotes = append(t.quotes, turn.Response)
			bump(seg, ext.PainKey)
		}
	}

	for _, f := range in.Flashes {
		if f.Pain == "" {
			continue
		}
		pain, ok := scn.Pain(f.Pain)
		if !ok {
			continue
		}
		t := get(f.Pain)
		t.count++
		t.severity += pain.BaseSeverity
		t.quotes = append(t.quotes, f.Text)
		bump(f.Segment, f.Pain)
	}

	order := make(map[scenario.PainKey]int)
	for i, k := range scn.PainOrder() {
		order[k] = i
	}

	keys := make([]scenario.PainKey, 0, len(tallies))
	for k, t := range tallies {
		res.Counts[k] = t.count
		res.AvgSeverity[k] = round2(t.severity / float64(t.count))
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if res.Counts[a] != res.Counts[b] {
			return res.Counts[a] > res.Counts[b]
		}
		if res.AvgSeverity[a] != res.AvgSeverity[b] {
			return res.AvgSeverity[a] > res.AvgSeverity[b]
		}
		if ra, rb := rank(order, a), rank(order, b); ra != rb {
			return ra < rb
		}
		return a < b
	})
	if len(keys) > TopN {
		keys = keys[:TopN]
	}

	for _, k := range keys {
		t := tallies[k]
		label := string(k)
		if pain, ok := scn.Pain(k); ok {
			label = pain.Label
		}
		quotes := t.quotes
		if len(quotes) > MaxQuotes {
			quotes = quotes[:MaxQuotes]
		}
		res.Top = append(res.Top, Topic{
			Key:         k,
			Label:       label,
			Count:       t.count,
			AvgSeverity: res.AvgSeverity[k],
			Quotes:      append([]string(nil), quotes...),
		})
	}

	res.Alerts = channelAlerts(scn, in.Coverage)

	for _, fu := range in.FollowUps {
		if fu.Clarifies() {
			res.Clarifications = append(res.Clarifications, fu)
		}
	}

	if len(res.Top) == 0 {
		res.Advisory = NoSignalAdvice
	}
	return res
}

// channelAlerts flags every channel holding more than AlertShare of the
// allocated tokens, in catalog order. Channels unknown to the catalog come
// last in key order.
func channelAlerts(scn *scenario.Scenario, coverage map[scenario.ChannelKey]int) []string {
	alerts := []string{}
	total := 0
	for _, n := range coverage {
		total += n
	}
	if total == 0 {
		return alerts
	}

	seen := make(map[scenario.ChannelKey]bool)
	keys := scn.ChannelOrder()
	for _, k := range keys {
		seen[k] = true
	}
	var extra []scenario.ChannelKey
	for k := range coverage {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	keys = append(keys, extra...)

	for _, k := range keys {
		share := float64(coverage[k]) / float64(total)
		if share <= AlertShare {
			continue
		}
		label := string(k)
		if ch, ok := scn.Channel(k); ok {
			label = ch.Label
		}
		alerts = append(alerts, fmt.Sprintf("Over-reliance on %s (%d%%)", label, int(math.Round(share*100))))
	}
	return alerts
}

func rank(order map[scenario.PainKey]int, k scenario.PainKey) int {
	if i, ok := order[k]; ok {
		return i
	}
	return len(order)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
