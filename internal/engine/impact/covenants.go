package impact

import (
	"fmt"

	"github.com/ashdown-property/splitscan/internal/model"
)

const defaultCovenantInsurance = 800

// CovenantImpacts evaluates each restrictive covenant by its class.
//
// Use restrictions only matter when they bite on the split itself. Alienation
// covenants always matter: they restrict the very transfers the strategy
// depends on. Building restrictions scale with assessed breach risk.
func CovenantImpacts(covenants []model.Covenant) []Impact {
	out := make([]Impact, 0, len(covenants))
	for _, c := range covenants {
		out = append(out, covenantImpact(c))
	}
	return out
}

func covenantImpact(c model.Covenant) Impact {
	im := Impact{
		Category: CategoryTitle,
		Field:    "covenant",
		Value:    string(c.Type),
	}

	switch c.Type {
	case model.CovenantUseRestriction:
		if !c.AffectsSplit {
			im.Type = Neutral
			im.Headline = "Use covenant does not affect the split"
			im.Explanation = fmt.Sprintf("Restrictive covenant noted (%s) but it does not bite on division into separate dwellings.", c.Summary)
			return im
		}
		im.Type = MajorNegative
		im.ScoreDelta = -25
		im.Headline = "Use covenant restricts the split"
		im.Explanation = fmt.Sprintf("A use covenant (%s) restricts division into separate dwellings; breach exposes the new leases to enforcement.", c.Summary)
		im.MitigationOptions = []string{
			"Obtain restrictive covenant indemnity insurance",
			"Seek a release or variation from the covenant beneficiary",
		}
	case model.CovenantAlienation:
		im.Type = MajorNegative
		im.ScoreDelta = -35
		im.Headline = "Alienation covenant on the title"
		im.Explanation = fmt.Sprintf("An alienation covenant (%s) restricts disposals of part, which is exactly what a title split does.", c.Summary)
		im.RequiredActions = []string{
			"Identify the covenant beneficiary and their consent requirements",
		}
		im.MitigationOptions = []string{
			"Obtain restrictive covenant indemnity insurance",
		}
	case model.CovenantBuildingRestriction:
		if c.BreachRisk == "low" || c.BreachRisk == "none" {
			im.Type = MinorNegative
			im.ScoreDelta = -10
			im.Headline = "Building covenant, low breach risk"
			im.Explanation = fmt.Sprintf("A building restriction (%s) exists but the works involved carry a low risk of breach.", c.Summary)
		} else {
			im.Type = MajorNegative
			im.ScoreDelta = -25
			im.Headline = "Building covenant with breach exposure"
			im.Explanation = fmt.Sprintf("A building restriction (%s) is likely to be engaged by the conversion works.", c.Summary)
		}
		im.MitigationOptions = []string{
			"Obtain restrictive covenant indemnity insurance",
		}
	default:
		if !c.AffectsSplit {
			im.Type = Neutral
			im.Headline = "Covenant noted, no split effect"
			im.Explanation = fmt.Sprintf("Covenant recorded (%s) with no identified effect on the split.", c.Summary)
			return im
		}
		im.Type = MinorNegative
		im.ScoreDelta = -15
		im.Headline = "Covenant may affect the split"
		im.Explanation = fmt.Sprintf("An uncategorised covenant (%s) has been flagged as affecting the split; obtain conveyancer advice.", c.Summary)
	}

	if im.Type.Negative() {
		if c.InsuranceEstimate != nil {
			im.CostDelta = *c.InsuranceEstimate
		} else {
			im.CostDelta = defaultCovenantInsurance
		}
	}
	return im
}
