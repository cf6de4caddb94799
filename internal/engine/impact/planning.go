package impact

import (
	"fmt"
	"strings"

	"github.com/ashdown-property/splitscan/internal/model"
)

// PlanningImpacts evaluates the planning facts against the planning tables.
func PlanningImpacts(p *model.PlanningStatus) []Impact {
	if p == nil {
		return nil
	}
	var out []Impact

	if use := normaliseUseClass(p.UseClass); use != "" {
		if im, ok := useClassTable[use]; ok {
			im.Category = CategoryPlanning
			im.Field = "use_class"
			im.Value = use
			out = append(out, im)
		}
	}

	if p.ConversionConsented != nil {
		im := conversionConsentTable[*p.ConversionConsented]
		im.Category = CategoryPlanning
		im.Field = "conversion_consent"
		im.Value = fmt.Sprintf("%t", *p.ConversionConsented)
		out = append(out, im)
	}

	if p.BuildingRegsSignedOff != nil {
		im := buildingRegsTable[*p.BuildingRegsSignedOff]
		im.Category = CategoryPlanning
		im.Field = "building_regs"
		im.Value = fmt.Sprintf("%t", *p.BuildingRegsSignedOff)
		out = append(out, im)
	}

	if p.InArticle4Area != nil {
		im := article4Table[*p.InArticle4Area]
		im.Category = CategoryPlanning
		im.Field = "article4"
		im.Value = fmt.Sprintf("%t", *p.InArticle4Area)
		out = append(out, im)
	}

	if p.InConservationArea != nil && *p.InConservationArea {
		out = append(out, Impact{
			Category:    CategoryPlanning,
			Field:       "conservation_area",
			Value:       "true",
			Type:        MinorNegative,
			ScoreDelta:  -5,
			Headline:    "Conservation area",
			Explanation: "External alterations need conservation area consent; internal splits are usually unaffected.",
		})
	}

	return out
}

func normaliseUseClass(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "c3":
		return "C3"
	case "c4":
		return "C4"
	case "sui_generis", "sui generis":
		return "sui_generis"
	}
	return s
}
