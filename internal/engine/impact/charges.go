package impact

import (
	"fmt"

	"github.com/ashdown-property/splitscan/internal/model"
)

// Charge evaluation is a decision procedure rather than a table: the score
// depends on how the charge terms and the lender's expected response combine.
//
// A refused consent is terminal. Otherwise the penalty starts at 15, deepens
// by 10 for an all-monies charge, and the lender's likelihood then sets the
// severity band: a likely consent softens the whole thing to a minor 10-point
// drag, anything less certain is a major negative of at least 20 points.
const (
	chargeBasePenalty      = -15
	chargeAllMoniesPenalty = -10
	chargeLikelyScore      = -10
	chargeMajorFloor       = -20
	defaultConsentFee      = 1500
	consentDelayWeeks      = 4
)

// ChargeImpacts evaluates every registered charge independently.
func ChargeImpacts(charges []model.Charge) []Impact {
	out := make([]Impact, 0, len(charges))
	for _, c := range charges {
		out = append(out, chargeImpact(c))
	}
	return out
}

func chargeImpact(c model.Charge) Impact {
	im := Impact{
		Category: CategoryTitle,
		Field:    "charge",
		Value:    c.LenderName,
	}

	if c.ConsentLikelihood == model.ConsentRefused {
		im.Type = Blocker
		im.ScoreDelta = -100
		im.Headline = fmt.Sprintf("BLOCKER: %s has refused consent", c.LenderName)
		im.Explanation = "The charge holder has refused consent to the split; the charge must be redeemed or the deal restructured before completion."
		im.MitigationOptions = []string{
			"Redeem the charge in full at completion",
			"Refinance with a split-friendly lender before the transfer",
		}
		return im
	}

	score := chargeBasePenalty
	if c.IsAllMonies {
		score += chargeAllMoniesPenalty
	}

	switch c.ConsentLikelihood {
	case model.ConsentLikely:
		im.Type = MinorNegative
		im.ScoreDelta = chargeLikelyScore
		im.Headline = fmt.Sprintf("Charge held by %s, consent expected", c.LenderName)
		im.Explanation = "The lender is expected to consent to the split; the charge is friction rather than a risk."
	case model.ConsentUnlikely:
		im.Type = MajorNegative
		im.ScoreDelta = min(score, chargeMajorFloor)
		im.Headline = fmt.Sprintf("Charge held by %s, consent unlikely", c.LenderName)
		im.Explanation = "The lender is not expected to consent; plan for redemption or refinance and price the deal accordingly."
	default: // uncertain or not yet sought
		im.Type = MajorNegative
		im.ScoreDelta = min(score, chargeMajorFloor)
		im.Headline = fmt.Sprintf("Charge held by %s, consent position unknown", c.LenderName)
		im.Explanation = "Lender consent has not been established; an unconsented split would breach the mortgage conditions."
	}

	if c.HasConsentRestriction {
		if c.ConsentFeeQuoted != nil {
			im.CostDelta = *c.ConsentFeeQuoted
		} else {
			im.CostDelta = defaultConsentFee
		}
		im.DelayWeeks = consentDelayWeeks
	}

	im.RequiredActions = []string{"Apply for lender consent to the split"}
	im.MitigationOptions = append(im.MitigationOptions,
		"Negotiate the consent fee into the purchase price",
		"Refinance with a split-friendly lender",
	)
	return im
}
