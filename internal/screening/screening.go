// Package screening produces the base opportunity score for a property
// before any manual verification happens. The score weighs tenure
// suitability, financial upside, refurbishment opportunity and data depth,
// and is later adjusted by the verified-fact impacts.
package screening

import "github.com/ashdown-property/splitscan/internal/model"

// Component maxima. The composite is capped at 100.
const (
	maxTenure    = 30
	maxFinancial = 25
	maxCondition = 20
	maxRisk      = 15
	maxDataDepth = 10
)

// Signals carries the market-derived inputs that do not live on the property
// record itself.
type Signals struct {
	// GrossUpliftPct is the estimated split uplift as a percentage of the
	// acquisition price, when a first-pass valuation exists.
	GrossUpliftPct float64
	// Undervalued marks a listing priced below the comparable evidence.
	Undervalued bool
	// ComparableCount is how many sold comparables the district produced.
	ComparableCount int
	// RedFlags are screening-stage concerns (auction notices, short lease
	// mentions, known disputes).
	RedFlags []string
}

// Breakdown is the per-component scoring detail.
type Breakdown struct {
	Tenure    int `json:"tenure"`
	Financial int `json:"financial"`
	Condition int `json:"condition"`
	Risk      int `json:"risk"`
	DataDepth int `json:"data_depth"`
	Total     int `json:"total"`
}

// Score computes the 0-100 base opportunity score.
func Score(p *model.Property, sig Signals) Breakdown {
	b := Breakdown{
		Tenure:    tenureScore(p),
		Financial: financialScore(sig),
		Condition: conditionScore(p),
		Risk:      riskScore(sig),
		DataDepth: dataDepthScore(p, sig),
	}
	b.Total = b.Tenure + b.Financial + b.Condition + b.Risk + b.DataDepth
	if b.Total > 100 {
		b.Total = 100
	}
	return b
}

func tenureScore(p *model.Property) int {
	score := 0
	switch p.Tenure {
	case "freehold":
		score += 20
		if p.TenureConfidence > 0.8 {
			score += 5
		}
	case "":
		score += 10 // unknown, needs verification
	}
	// unit count sweet spot: enough units to split, few enough to manage
	if p.EstimatedUnits >= 3 && p.EstimatedUnits <= 6 {
		score += 5
	} else if p.EstimatedUnits >= 2 {
		score += 3
	}
	return min(score, maxTenure)
}

func financialScore(sig Signals) int {
	score := 0
	switch {
	case sig.GrossUpliftPct >= 30:
		score = 25
	case sig.GrossUpliftPct >= 20:
		score = 20
	case sig.GrossUpliftPct >= 15:
		score = 15
	case sig.GrossUpliftPct >= 10:
		score = 10
	case sig.GrossUpliftPct >= 5:
		score = 5
	}
	if sig.Undervalued {
		score += 5
	}
	return min(score, maxFinancial)
}

func conditionScore(p *model.Property) int {
	score := 0
	if p.RefurbIndicators {
		score += 12
	}
	switch p.AvgEPCRating {
	case "E", "F", "G":
		score += 8
	case "D":
		score += 4
	}
	return min(score, maxCondition)
}

// riskScore starts full and deducts per red flag.
func riskScore(sig Signals) int {
	score := maxRisk - len(sig.RedFlags)*5
	if score < 0 {
		return 0
	}
	return score
}

func dataDepthScore(p *model.Property, sig Signals) int {
	score := 0
	if p.TenureConfidence > 0.8 {
		score += 3
	} else if p.TenureConfidence > 0.6 {
		score += 1
	}
	epcCount := 0
	for _, u := range p.Units {
		if u.EPCRating != "" {
			epcCount++
		}
	}
	if p.EstimatedUnits > 0 && epcCount >= p.EstimatedUnits {
		score += 3
	} else if epcCount > 0 {
		score += 1
	}
	if sig.ComparableCount >= 5 {
		score += 4
	} else if sig.ComparableCount >= 3 {
		score += 2
	}
	return min(score, maxDataDepth)
}
