package recruit

import (
	"sort"

	"github.com/HendryAvila/discovery-sim/internal/scenario"
)

// Coverage accumulates tokens per channel across every booking of a
// session. It only grows.
type Coverage struct {
	Channels map[scenario.ChannelKey]int `json:"channel_counts" yaml:"channel_counts"`
}

// NewCoverage creates an empty Coverage.
func NewCoverage() *Coverage {
	return &Coverage{Channels: make(map[scenario.ChannelKey]int)}
}

// Add records one booking's allocation. Negative entries are ignored.
func (c *Coverage) Add(alloc Allocation) {
	if c.Channels == nil {
		c.Channels = make(map[scenario.ChannelKey]int)
	}
	for ch, n := range alloc {
		if n > 0 {
			c.Channels[ch] += n
		}
	}
}

// Total returns the cumulative tokens over all channels.
func (c *Coverage) Total() int {
	total := 0
	for _, n := range c.Channels {
		total += n
	}
	return total
}

// Share returns ch's fraction of the total, or 0 when nothing was allocated.
func (c *Coverage) Share(ch scenario.ChannelKey) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Channels[ch]) / float64(total)
}

// Shares returns every channel's fraction of the total.
func (c *Coverage) Shares() map[scenario.ChannelKey]float64 {
	out := make(map[scenario.ChannelKey]float64, len(c.Channels))
	for ch := range c.Channels {
		out[ch] = c.Share(ch)
	}
	return out
}

// ChannelsUsed counts channels that received at least one token.
func (c *Coverage) ChannelsUsed() int {
	used := 0
	for _, n := range c.Channels {
		if n > 0 {
			used++
		}
	}
	return used
}

// LargestShare returns the biggest single-channel share.
func (c *Coverage) LargestShare() float64 {
	largest := 0.0
	for ch := range c.Channels {
		if s := c.Share(ch); s > largest {
			largest = s
		}
	}
	return largest
}

// Snapshot returns a copy of the per-channel totals.
func (c *Coverage) Snapshot() map[scenario.ChannelKey]int {
	out := make(map[scenario.ChannelKey]int, len(c.Channels))
	for k, v := range c.Channels {
		out[k] = v
	}
	return out
}

func sortedChannels(a Allocation) []scenario.ChannelKey {
	keys := make([]scenario.ChannelKey, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
