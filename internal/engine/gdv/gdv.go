// Package gdv aggregates per-unit valuations into a gross development value
// report and tests the deal economics against the proceed gates.
package gdv

import (
	"github.com/ashdown-property/splitscan/internal/engine/valuation"
)

// Gates are the financial thresholds for the aggregate report. They mirror
// the recommendation gates so the two workstreams cannot disagree.
type Gates struct {
	MinBenefitPerUnit int64
	MaxCostRatio      float64
}

// DefaultGates returns the standard thresholds.
func DefaultGates() Gates {
	return Gates{MinBenefitPerUnit: 2000, MaxCostRatio: 0.03}
}

// Report is the aggregate economics of splitting one property.
type Report struct {
	CurrentValue int64 `json:"current_value"`
	SplitCosts   int64 `json:"split_costs"`
	UnitCount    int   `json:"unit_count"`

	GDV            int64   `json:"gdv"`
	GrossUplift    int64   `json:"gross_uplift"`
	GrossUpliftPct float64 `json:"gross_uplift_pct"`
	NetUplift      int64   `json:"net_uplift"`
	NetUpliftPct   float64 `json:"net_uplift_pct"`

	BenefitPerUnit int64   `json:"benefit_per_unit"`
	CostRatio      float64 `json:"cost_ratio"`

	// The two gates are independent: a deal can clear one and fail the
	// other, and both outcomes are reported rather than collapsed early.
	BenefitGatePassed   bool `json:"benefit_gate_passed"`
	CostRatioGatePassed bool `json:"cost_ratio_gate_passed"`

	Units []valuation.UnitValuation `json:"units,omitempty"`

	// Confidence is the weakest confidence among the unit valuations; the
	// aggregate is only as reliable as its least-evidenced unit.
	Confidence valuation.Confidence `json:"confidence"`
}

// Viable reports whether both gates passed and the net uplift is positive.
func (r *Report) Viable() bool {
	return r.BenefitGatePassed && r.CostRatioGatePassed && r.NetUplift > 0
}

// Aggregator builds reports under a fixed set of gates.
type Aggregator struct {
	gates Gates
}

// NewAggregator returns an aggregator using the given gates.
func NewAggregator(gates Gates) *Aggregator {
	return &Aggregator{gates: gates}
}

// Aggregate sums the unit valuations against the acquisition price and split
// costs. currentValue is the whole-property value before the split, normally
// the agreed or asking price.
func (a *Aggregator) Aggregate(currentValue, splitCosts int64, units []valuation.UnitValuation) Report {
	r := Report{
		CurrentValue: currentValue,
		SplitCosts:   splitCosts,
		UnitCount:    len(units),
		Units:        units,
		Confidence:   weakest(units),
	}

	for _, u := range units {
		r.GDV += u.Value
	}

	r.GrossUplift = r.GDV - currentValue
	r.NetUplift = r.GrossUplift - splitCosts
	if currentValue > 0 {
		r.GrossUpliftPct = float64(r.GrossUplift) / float64(currentValue)
		r.NetUpliftPct = float64(r.NetUplift) / float64(currentValue)
		r.CostRatio = float64(splitCosts) / float64(currentValue)
	}
	if r.UnitCount > 0 {
		r.BenefitPerUnit = r.NetUplift / int64(r.UnitCount)
	}

	r.BenefitGatePassed = r.UnitCount > 0 && r.BenefitPerUnit >= a.gates.MinBenefitPerUnit
	r.CostRatioGatePassed = currentValue > 0 && r.CostRatio <= a.gates.MaxCostRatio
	return r
}

var confidenceRank = map[valuation.Confidence]int{
	valuation.ConfidenceHigh:       3,
	valuation.ConfidenceMedium:     2,
	valuation.ConfidenceLow:        1,
	valuation.ConfidenceIndicative: 0,
}

func weakest(units []valuation.UnitValuation) valuation.Confidence {
	if len(units) == 0 {
		return valuation.ConfidenceIndicative
	}
	out := units[0].Confidence
	for _, u := range units[1:] {
		if confidenceRank[u.Confidence] < confidenceRank[out] {
			out = u.Confidence
		}
	}
	return out
}
