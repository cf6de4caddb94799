// Package recommend turns a base opportunity score, an impact set and the
// verification snapshot that produced it into a single graded recommendation.
package recommend

import (
	"github.com/ashdown-property/splitscan/internal/engine/impact"
	"github.com/ashdown-property/splitscan/internal/model"
)

// Level is the graded recommendation, from strongest to weakest.
type Level string

const (
	StrongProceed      Level = "STRONG_PROCEED"
	Proceed            Level = "PROCEED"
	ProceedWithCaution Level = "PROCEED_WITH_CAUTION"
	ReviewRequired     Level = "REVIEW_REQUIRED"
	LikelyDecline      Level = "LIKELY_DECLINE"
	Decline            Level = "DECLINE"
	// InsufficientData is reported when no screening signal and no impacts
	// exist to grade at all.
	InsufficientData Level = "INSUFFICIENT_DATA"
)

// Stage describes how much of the deal has actually been verified.
type Stage string

const (
	StageInitial           Stage = "INITIAL"
	StageEnriched          Stage = "ENRICHED"
	StagePartiallyVerified Stage = "PARTIALLY_VERIFIED"
	StageFullyVerified     Stage = "FULLY_VERIFIED"
)

// Confidence contributions. Each confirmed fact group adds its weight on top
// of the base; the total is capped at 1.0 and can only grow as facts arrive.
const (
	confBase              = 0.30
	confEnriched          = 0.10
	confTenureConfirmed   = 0.20
	confSingleTitleKnown  = 0.10
	confUseClassVerified  = 0.10
	confPhysicalInspected = 0.10
	confAllUnitsKnown     = 0.10
	confBlocker           = 0.95
)

// Gates are the financial thresholds a deal must clear before the engine will
// recommend proceeding.
type Gates struct {
	// MinBenefitPerUnit is the minimum net uplift per resulting unit, pounds.
	MinBenefitPerUnit int64
	// MaxCostRatio is the maximum split cost as a fraction of current value.
	MaxCostRatio float64
}

// DefaultGates returns the standard thresholds.
func DefaultGates() Gates {
	return Gates{MinBenefitPerUnit: 2000, MaxCostRatio: 0.03}
}

// Financials carries the aggregate figures the level matrix needs. A zero
// value means the valuation workstream has not run yet; the matrix then
// treats the financial gates as not yet passed.
type Financials struct {
	BenefitPerUnit int64
	NetUplift      int64
	// Units spreads impact remediation costs when adjusting the per-unit
	// benefit against the gate.
	Units int
}

// Recommendation is the engine's complete answer for one snapshot.
type Recommendation struct {
	PropertyID    string  `json:"property_id"`
	Level         Level   `json:"level"`
	BaseScore     int     `json:"base_score"`
	AdjustedScore int     `json:"adjusted_score"`
	Confidence    float64 `json:"confidence"`
	Stage         Stage   `json:"stage"`

	Headline string `json:"headline"`
	Summary  string `json:"summary"`

	PositiveFactors []string `json:"positive_factors,omitempty"`
	NegativeFactors []string `json:"negative_factors,omitempty"`
	UnknownFactors  []string `json:"unknown_factors,omitempty"`

	HardBlockers []string `json:"hard_blockers,omitempty"`
	SoftBlockers []string `json:"soft_blockers,omitempty"`

	Impacts         []impact.Impact `json:"impacts,omitempty"`
	AdditionalCost  int64           `json:"additional_cost"`
	DelayWeeks      int             `json:"delay_weeks"`
	RequiredActions []string        `json:"required_actions,omitempty"`
	OptionalActions []string        `json:"optional_actions,omitempty"`

	// EstimatedNetBenefit is the net uplift after impact remediation costs.
	EstimatedNetBenefit int64 `json:"estimated_net_benefit"`
}

// Synthesizer folds impacts into recommendations under a fixed set of gates.
type Synthesizer struct {
	gates Gates
}

// NewSynthesizer returns a synthesizer using the given gates.
func NewSynthesizer(gates Gates) *Synthesizer {
	return &Synthesizer{gates: gates}
}

// Synthesize produces the recommendation for one property snapshot.
//
// Any blocker short-circuits to DECLINE at high confidence: a single terminal
// fact is decisive regardless of how attractive the rest of the deal looks.
func (s *Synthesizer) Synthesize(baseScore int, snap *model.VerificationSnapshot, impacts []impact.Impact, fin Financials) Recommendation {
	totals := impact.Sum(impacts)
	adjusted := adjustFinancials(fin, totals.CostDelta)
	rec := Recommendation{
		BaseScore:           baseScore,
		AdjustedScore:       clampScore(baseScore + totals.ScoreDelta),
		Impacts:             impacts,
		AdditionalCost:      totals.CostDelta,
		DelayWeeks:          totals.MaxDelayWeeks,
		RequiredActions:     collectActions(impacts),
		OptionalActions:     collectMitigations(impacts),
		PositiveFactors:     positiveHeadlines(impacts),
		NegativeFactors:     negativeHeadlines(impacts),
		UnknownFactors:      missingCategories(snap),
		SoftBlockers:        softBlockerHeadlines(impacts),
		EstimatedNetBenefit: adjusted.NetUplift,
		Stage:               deriveStage(snap),
	}
	if snap != nil {
		rec.PropertyID = snap.PropertyID
	}

	if len(totals.Blockers) > 0 {
		rec.Level = Decline
		rec.Confidence = confBlocker
		rec.HardBlockers = totals.Blockers
		rec.Headline = "Do not proceed: verified blockers present"
		rec.Summary = "Deal not viable: " + totals.Blockers[0]
		return rec
	}

	rec.Confidence = deriveConfidence(snap)
	rec.Level = s.level(rec.AdjustedScore, adjusted)
	if rec.BaseScore == 0 && len(impacts) == 0 {
		rec.Level = InsufficientData
	}
	rec.Headline = headline(rec.Level)
	rec.Summary = summarise(rec.Level, totals)
	return rec
}

// adjustFinancials nets impact remediation costs off the valuation figures
// before the gates are tested, spreading the cost across the units for the
// per-unit benefit.
func adjustFinancials(fin Financials, costDelta int64) Financials {
	adj := fin
	adj.NetUplift -= costDelta
	if fin.Units > 0 {
		adj.BenefitPerUnit -= costDelta / int64(fin.Units)
	} else {
		adj.BenefitPerUnit -= costDelta
	}
	return adj
}

func (s *Synthesizer) level(score int, fin Financials) Level {
	benefitGate := fin.BenefitPerUnit >= s.gates.MinBenefitPerUnit
	switch {
	case score >= 85 && benefitGate:
		return StrongProceed
	case score >= 70 && benefitGate:
		return Proceed
	case score >= 60 && fin.NetUplift > 0:
		return ProceedWithCaution
	case score >= 50:
		return ReviewRequired
	case score >= 40:
		return LikelyDecline
	default:
		return Decline
	}
}

// deriveConfidence is additive and monotonic: confirming a fact can only
// raise confidence, never lower it.
func deriveConfidence(snap *model.VerificationSnapshot) float64 {
	conf := confBase
	if snap == nil {
		return conf
	}
	if snap.Enriched {
		conf += confEnriched
	}
	if snap.Title != nil && snap.Title.TenureConfirmed != "" {
		conf += confTenureConfirmed
	}
	if snap.Title != nil && snap.Title.IsSingleTitle != nil {
		conf += confSingleTitleKnown
	}
	if snap.Planning != nil && snap.Planning.UseClassVerified {
		conf += confUseClassVerified
	}
	if snap.HasPhysicalFacts() {
		conf += confPhysicalInspected
	}
	if snap.AllUnitsDetermined() {
		conf += confAllUnitsKnown
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

func deriveStage(snap *model.VerificationSnapshot) Stage {
	if snap == nil {
		return StageInitial
	}
	title := snap.HasTitleFacts()
	planning := snap.HasPlanningFacts()
	physical := snap.HasPhysicalFacts()
	switch {
	case title && planning && physical:
		return StageFullyVerified
	case title || planning:
		return StagePartiallyVerified
	case snap.Enriched:
		return StageEnriched
	default:
		return StageInitial
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// positiveHeadlines projects the impacts that lift the deal.
func positiveHeadlines(impacts []impact.Impact) []string {
	var out []string
	for _, im := range impacts {
		if im.Type.Positive() {
			out = append(out, im.Headline)
		}
	}
	return out
}

// negativeHeadlines projects the non-terminal impacts that drag the deal.
func negativeHeadlines(impacts []impact.Impact) []string {
	var out []string
	for _, im := range impacts {
		if im.Type == impact.MajorNegative || im.Type == impact.MinorNegative {
			out = append(out, im.Headline)
		}
	}
	return out
}

// softBlockerHeadlines projects the major negatives: serious enough to name
// separately, not terminal on their own.
func softBlockerHeadlines(impacts []impact.Impact) []string {
	var out []string
	for _, im := range impacts {
		if im.Type == impact.MajorNegative {
			out = append(out, im.Headline)
		}
	}
	return out
}

// missingCategories lists the verification areas still absent from the
// snapshot.
func missingCategories(snap *model.VerificationSnapshot) []string {
	var out []string
	if snap == nil || snap.Title == nil {
		out = append(out, "Tenure and title not verified against the register")
	}
	if snap == nil || len(snap.Charges) == 0 {
		out = append(out, "Registered charges not reviewed")
	}
	if snap == nil || snap.Planning == nil {
		out = append(out, "Planning status not verified")
	}
	if snap == nil || snap.Licensing == nil {
		out = append(out, "HMO licensing position not confirmed")
	}
	if snap == nil || snap.Physical == nil {
		out = append(out, "No physical inspection on record")
	}
	return out
}

func collectActions(impacts []impact.Impact) []string {
	var out []string
	seen := make(map[string]bool)
	for _, im := range impacts {
		for _, a := range im.RequiredActions {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

func collectMitigations(impacts []impact.Impact) []string {
	var out []string
	seen := make(map[string]bool)
	for _, im := range impacts {
		for _, m := range im.MitigationOptions {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func headline(level Level) string {
	switch level {
	case StrongProceed:
		return "Strong opportunity: priority for due diligence"
	case Proceed:
		return "Good opportunity: proceed to verification"
	case ProceedWithCaution:
		return "Potential opportunity: address the noted concerns"
	case ReviewRequired:
		return "Mixed signals: requires deeper analysis"
	case LikelyDecline:
		return "Significant concerns: likely not viable"
	case InsufficientData:
		return "Assessment pending: insufficient data"
	default:
		return "Not suitable: deal-breaking issues identified"
	}
}

func summarise(level Level, totals impact.Totals) string {
	switch level {
	case StrongProceed:
		return "Strong candidate: verified facts support the split with a healthy margin."
	case Proceed:
		return "Proceed: the split stacks up on the confirmed facts."
	case ProceedWithCaution:
		return "Proceed with caution: viable but the margin is thin or partly unverified."
	case ReviewRequired:
		return "Review required: material facts are unconfirmed or the economics are marginal."
	case LikelyDecline:
		return "Likely decline: the confirmed facts weigh against the split."
	case InsufficientData:
		return "Assessment pending: not enough data to grade the deal."
	default:
		if totals.NegativeCount > 0 {
			return "Decline: the negatives outweigh the opportunity."
		}
		return "Decline: the deal does not meet the minimum score."
	}
}
