package impact

import (
	"fmt"
	"strings"

	"github.com/ashdown-property/splitscan/internal/model"
)

// TitleImpacts evaluates the Land Registry title facts. Facts that are not
// yet confirmed produce no impact at all.
func TitleImpacts(t *model.TitleVerification) []Impact {
	if t == nil {
		return nil
	}
	var out []Impact

	if tenure := strings.ToLower(t.TenureConfirmed); tenure != "" {
		if im, ok := tenureTable[tenure]; ok {
			im.Category = CategoryTitle
			im.Field = "tenure"
			im.Value = tenure
			out = append(out, im)
		} else {
			out = append(out, Impact{
				Category:    CategoryTitle,
				Field:       "tenure",
				Value:       tenure,
				Type:        Neutral,
				Headline:    fmt.Sprintf("Unrecognised tenure %q", tenure),
				Explanation: "Tenure was recorded but does not match a known tenure type; treat as unverified.",
			})
		}
	}

	if t.IsSingleTitle != nil {
		im := singleTitleTable[*t.IsSingleTitle]
		im.Category = CategoryTitle
		im.Field = "single_title"
		im.Value = fmt.Sprintf("%t", *t.IsSingleTitle)
		out = append(out, im)
	}

	if class := strings.ToLower(t.TitleClass); class != "" {
		if im, ok := titleClassTable[class]; ok {
			im.Category = CategoryTitle
			im.Field = "title_class"
			im.Value = class
			out = append(out, im)
		}
	}

	return out
}
