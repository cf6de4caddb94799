// Package impact turns individual verification facts into typed, weighted
// deal impacts. Every evaluator is a pure function of the fact it is given:
// the same snapshot always produces the same impact set, in the same order.
package impact

// Category groups impacts by the verification area that produced them.
type Category string

const (
	CategoryTitle    Category = "title"
	CategoryPlanning Category = "planning"
	CategoryPhysical Category = "physical"
)

// Type is the ordered impact taxonomy, from deal-killing to deal-enabling.
type Type string

const (
	Blocker       Type = "blocker"
	MajorNegative Type = "major_neg"
	MinorNegative Type = "minor_neg"
	Neutral       Type = "neutral"
	MinorPositive Type = "minor_pos"
	MajorPositive Type = "major_pos"
	Enabler       Type = "enabler"
)

var typeRank = map[Type]int{
	Blocker:       0,
	MajorNegative: 1,
	MinorNegative: 2,
	Neutral:       3,
	MinorPositive: 4,
	MajorPositive: 5,
	Enabler:       6,
}

// Rank returns the position of t in the ordered taxonomy (Blocker first).
func (t Type) Rank() int {
	return typeRank[t]
}

// Negative reports whether t drags the deal down.
func (t Type) Negative() bool {
	return t == Blocker || t == MajorNegative || t == MinorNegative
}

// Positive reports whether t lifts the deal.
func (t Type) Positive() bool {
	return t == MinorPositive || t == MajorPositive || t == Enabler
}

// Impact is the atomic output of rule evaluation: how one confirmed fact
// moves the deal. Impacts are value-like and produced fresh on every
// evaluation; nothing caches or mutates them across snapshots.
type Impact struct {
	Category Category `json:"category"`
	Field    string   `json:"field"`
	Value    string   `json:"value"`

	Type       Type `json:"type"`
	ScoreDelta int  `json:"score_delta"` // signed, applied to the 0-100 opportunity score

	Headline    string `json:"headline"`
	Explanation string `json:"explanation"`

	CostDelta  int64 `json:"cost_delta,omitempty"`  // additional transaction cost, pounds
	DelayWeeks int   `json:"delay_weeks,omitempty"` // added timeline, weeks

	RequiredActions   []string `json:"required_actions,omitempty"`
	MitigationOptions []string `json:"mitigation_options,omitempty"`
}

// Totals is the arithmetic roll-up of an impact list.
type Totals struct {
	ScoreDelta    int      `json:"score_delta"`
	CostDelta     int64    `json:"cost_delta"`
	MaxDelayWeeks int      `json:"max_delay_weeks"`
	Blockers      []string `json:"blockers,omitempty"`
	PositiveCount int      `json:"positive_count"`
	NegativeCount int      `json:"negative_count"`
}

// Sum rolls an impact list up into totals. Delays do not stack: workstreams
// run in parallel, so the longest single delay wins.
func Sum(impacts []Impact) Totals {
	var t Totals
	for _, im := range impacts {
		t.ScoreDelta += im.ScoreDelta
		t.CostDelta += im.CostDelta
		if im.DelayWeeks > t.MaxDelayWeeks {
			t.MaxDelayWeeks = im.DelayWeeks
		}
		if im.Type == Blocker {
			t.Blockers = append(t.Blockers, im.Headline)
		}
		if im.ScoreDelta > 0 {
			t.PositiveCount++
		}
		if im.ScoreDelta < 0 {
			t.NegativeCount++
		}
	}
	return t
}

// FirstBlocker returns the first blocker in evaluation order, if any.
func FirstBlocker(impacts []Impact) (Impact, bool) {
	for _, im := range impacts {
		if im.Type == Blocker {
			return im, true
		}
	}
	return Impact{}, false
}
