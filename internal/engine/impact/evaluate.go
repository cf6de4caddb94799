package impact

import "github.com/ashdown-property/splitscan/internal/model"

// Evaluate runs every rule group against the snapshot and concatenates the
// results in fixed category order (title, charges, covenants, planning,
// licensing, physical), so the same snapshot always yields the same impact
// slice.
func Evaluate(snap *model.VerificationSnapshot) []Impact {
	if snap == nil {
		return nil
	}
	var out []Impact
	out = append(out, TitleImpacts(snap.Title)...)
	out = append(out, ChargeImpacts(snap.Charges)...)
	out = append(out, CovenantImpacts(snap.Covenants)...)
	out = append(out, PlanningImpacts(snap.Planning)...)
	out = append(out, LicensingImpacts(snap.Licensing)...)
	out = append(out, PhysicalImpacts(snap.Physical)...)
	return out
}
