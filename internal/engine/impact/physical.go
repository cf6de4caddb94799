package impact

import (
	"fmt"
	"strings"

	"github.com/ashdown-property/splitscan/internal/model"
)

const nonSelfContainedUnitCost = 10000

// PhysicalImpacts evaluates the findings of a physical inspection.
//
// Self-containment drives the whole category: units that share facilities
// cannot be leased as separate dwellings without conversion works, while a
// clean sweep of self-contained units is the strongest positive signal a
// viewing can produce.
func PhysicalImpacts(p *model.PhysicalInspection) []Impact {
	if p == nil {
		return nil
	}
	var out []Impact

	var notSelfContained []string
	determined := 0
	for _, u := range p.Units {
		if u.SelfContained == nil {
			continue
		}
		determined++
		if !*u.SelfContained {
			notSelfContained = append(notSelfContained, u.Identifier)
		}
	}

	if n := len(notSelfContained); n > 0 {
		out = append(out, Impact{
			Category:    CategoryPhysical,
			Field:       "self_containment",
			Value:       strings.Join(notSelfContained, ","),
			Type:        MajorNegative,
			ScoreDelta:  -40,
			CostDelta:   int64(n) * nonSelfContainedUnitCost,
			Headline:    fmt.Sprintf("%d unit(s) not self-contained", n),
			Explanation: "Units sharing entrances, kitchens or bathrooms cannot be demised as separate dwellings without conversion works.",
			RequiredActions: []string{
				"Obtain a builder's quote for self-containment works",
			},
		})
	} else if determined > 0 && determined == len(p.Units) {
		out = append(out, Impact{
			Category:    CategoryPhysical,
			Field:       "self_containment",
			Value:       "all",
			Type:        Enabler,
			ScoreDelta:  25,
			Headline:    "All units self-contained",
			Explanation: "Every unit has its own entrance, kitchen and bathroom; the split needs no conversion works.",
		})
	}

	if len(p.StructuralConcerns) > 0 {
		out = append(out, Impact{
			Category:    CategoryPhysical,
			Field:       "structural",
			Value:       strings.Join(p.StructuralConcerns, "; "),
			Type:        MajorNegative,
			ScoreDelta:  -50,
			CostDelta:   15000,
			DelayWeeks:  8,
			Headline:    "Structural concerns raised at viewing",
			Explanation: "Structural issues must be surveyed and costed before the deal can be priced with any confidence.",
			RequiredActions: []string{
				"Commission a full structural survey",
			},
		})
	}

	if len(p.BoundaryIssues) > 0 {
		out = append(out, Impact{
			Category:    CategoryPhysical,
			Field:       "boundaries",
			Value:       strings.Join(p.BoundaryIssues, "; "),
			Type:        MinorNegative,
			ScoreDelta:  -15,
			Headline:    "Boundary discrepancies noted",
			Explanation: "The occupied extent does not match the registered plan; the new lease plans will need a determined boundary or a statutory declaration.",
			RequiredActions: []string{
				"Instruct a measured survey against the title plan",
			},
		})
	}

	if p.UtilitiesSeparate != nil && !*p.UtilitiesSeparate {
		out = append(out, Impact{
			Category:    CategoryPhysical,
			Field:       "utilities",
			Value:       "shared",
			Type:        MinorNegative,
			ScoreDelta:  -10,
			Headline:    "Shared utility supplies",
			Explanation: "Shared meters complicate service charge drafting and depress the value of the individual units.",
			MitigationOptions: []string{
				"Split the supplies before sale of the units",
				"Draft a service charge regime into the new leases",
			},
		})
	}

	return out
}
