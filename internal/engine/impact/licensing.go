package impact

import "github.com/ashdown-property/splitscan/internal/model"

// LicensingImpacts evaluates the HMO licensing facts. An unlicensed property
// that needs a mandatory licence is terminal: operating it is a criminal
// offence and rent repayment orders run against the new owner.
func LicensingImpacts(l *model.HMOLicensing) []Impact {
	if l == nil {
		return nil
	}
	var out []Impact

	licenceHeld := l.LicenceHeld != nil && *l.LicenceHeld

	if l.RequiresMandatoryLicence != nil && *l.RequiresMandatoryLicence {
		if licenceHeld {
			out = append(out, Impact{
				Category:    CategoryPlanning,
				Field:       "hmo_licence",
				Value:       "mandatory_held",
				Type:        Neutral,
				Headline:    "Mandatory HMO licence in place",
				Explanation: "The property requires and holds a mandatory HMO licence; confirm it transfers or is reapplied for on completion.",
				RequiredActions: []string{
					"Apply for a new licence on change of ownership",
				},
			})
		} else {
			out = append(out, Impact{
				Category:    CategoryPlanning,
				Field:       "hmo_licence",
				Value:       "mandatory_absent",
				Type:        Blocker,
				ScoreDelta:  -100,
				CostDelta:   5000,
				Headline:    "BLOCKER: Mandatory HMO licence required but not held",
				Explanation: "Operating an unlicensed mandatory HMO is a criminal offence with unlimited fines and rent repayment orders; the liability passes with the property.",
				RequiredActions: []string{
					"Require the vendor to regularise licensing before exchange",
				},
				MitigationOptions: []string{
					"Complete only after a licence application is duly made",
				},
			})
		}
	}

	if l.RequiresSelectiveLicence != nil && *l.RequiresSelectiveLicence && !licenceHeld {
		out = append(out, Impact{
			Category:    CategoryPlanning,
			Field:       "hmo_licence",
			Value:       "selective_absent",
			Type:        MajorNegative,
			ScoreDelta:  -30,
			Headline:    "Selective licence required but not held",
			Explanation: "The property sits in a selective licensing area without a licence; regularisation is needed before letting.",
			RequiredActions: []string{
				"Apply for a selective licence",
			},
		})
	}

	if l.FireSafetyCompliant != nil && !*l.FireSafetyCompliant {
		out = append(out, Impact{
			Category:    CategoryPlanning,
			Field:       "fire_safety",
			Value:       "non_compliant",
			Type:        MajorNegative,
			ScoreDelta:  -35,
			CostDelta:   5000,
			Headline:    "Fire safety non-compliance",
			Explanation: "The building does not meet fire safety requirements for multiple dwellings; remediation is required before the units can be occupied separately.",
			RequiredActions: []string{
				"Commission a fire risk assessment and complete the remedial works",
			},
		})
	}

	return out
}
