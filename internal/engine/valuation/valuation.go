// Package valuation reconciles unit values from whatever evidence is
// available: sold comparables, area price-per-sqm statistics, an external AVM
// figure, and a regional fallback when nothing better exists.
package valuation

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ashdown-property/splitscan/internal/model"
)

// Confidence grades how much evidence backs a value.
type Confidence string

const (
	ConfidenceHigh       Confidence = "HIGH"
	ConfidenceMedium     Confidence = "MEDIUM"
	ConfidenceLow        Confidence = "LOW"
	ConfidenceIndicative Confidence = "INDICATIVE"
)

// Method names, in reconciliation priority order. MethodCombined is the
// equal-weight average used when the comparable and price-per-area methods
// both produce a figure.
const (
	MethodComparable   = "comparable"
	MethodPricePerArea = "price_per_area"
	MethodCombined     = "comparable+psf"
	MethodAVM          = "avm"
	MethodRegional     = "regional_fallback"
)

const (
	// agreementBand is how far a secondary method may sit from the mean of
	// all methods and still count as corroborating.
	agreementBand = 0.15
	// rangeBand sets the published low/high around the reconciled value.
	rangeBand = 0.10
	// fallbackAppreciation is the compound annual rate used to index old
	// sale prices when no price index covers the sale month.
	fallbackAppreciation = 0.03
	// minComparables gates the comparable-median method.
	minComparables = 3
	// maxComparables caps the evidence set at the most recent relevant sales.
	maxComparables = 10
	// lowConfidenceComps is the comparable depth below which nothing better
	// than INDICATIVE is available.
	lowConfidenceComps = 2
)

// MethodEstimate is one method's opinion of a unit's value.
type MethodEstimate struct {
	Method string `json:"method"`
	Value  int64  `json:"value"`
}

// UnitValuation is the reconciled result for a single unit.
type UnitValuation struct {
	Identifier string           `json:"identifier,omitempty"`
	Value      int64            `json:"value"`
	Low        int64            `json:"low"`
	High       int64            `json:"high"`
	Method     string           `json:"method"`
	Confidence Confidence       `json:"confidence"`
	CompCount  int              `json:"comp_count"`
	Methods    []MethodEstimate `json:"methods,omitempty"`
}

// Evidence is everything the reconciler may draw on for one unit.
type Evidence struct {
	Comparables []model.ComparableRecord
	Index       *model.PriceIndex
	AreaStats   *model.AreaStatistics
	AVMEstimate *int64
	// City keys the regional table for the last-resort method.
	City string
	// RegionalAverage, when set, overrides the table's last-resort figure.
	RegionalAverage *int64
}

const (
	// assumedFloorAreaSqm stands in when a unit's floor area is unknown.
	assumedFloorAreaSqm = 50.0
	sqftPerSqm          = 10.764
)

// RegionalTable carries average £/sqft by lowercased city, the basis of the
// last-resort valuation when no direct evidence exists.
type RegionalTable struct {
	PerSqft map[string]int64 `yaml:"per_sqft" mapstructure:"per_sqft"`
	Default int64            `yaml:"default" mapstructure:"default"`
}

// DefaultRegionalTable returns the standing per-city averages.
func DefaultRegionalTable() RegionalTable {
	return RegionalTable{
		PerSqft: map[string]int64{
			"liverpool":     150,
			"manchester":    200,
			"leeds":         180,
			"sheffield":     160,
			"newcastle":     155,
			"wigan":         130,
			"bolton":        125,
			"bradford":      120,
			"hull":          110,
			"middlesbrough": 115,
		},
		Default: 150,
	}
}

// UnitValue returns the regional figure for one unit, using the assumed
// average floor area when the unit's is unknown. Zero means no table entry
// and no default.
func (t RegionalTable) UnitValue(city string, floorAreaSqm *float64) int64 {
	rate, ok := t.PerSqft[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		rate = t.Default
	}
	if rate <= 0 {
		return 0
	}
	sqm := assumedFloorAreaSqm
	if floorAreaSqm != nil && *floorAreaSqm > 0 {
		sqm = *floorAreaSqm
	}
	return int64(math.Round(sqm * sqftPerSqm * float64(rate)))
}

// Reconciler values units against evidence as of a fixed date, so a
// valuation re-run against the same evidence reproduces itself exactly.
type Reconciler struct {
	asOf     time.Time
	regional RegionalTable
}

// NewReconciler returns a reconciler valuing as of the given date, with the
// regional table as its method of last resort.
func NewReconciler(asOf time.Time, regional RegionalTable) *Reconciler {
	return &Reconciler{asOf: asOf, regional: regional}
}

// ValueUnit reconciles a single unit's value.
//
// Comparables are first narrowed to the unit's bedroom count and capped at
// the most recent sales. When both the comparable and price-per-area methods
// produce a figure the two are averaged equal-weight; otherwise the best
// single method wins. Confidence reflects both the depth of the comparable
// set and how many independent methods land within the agreement band of the
// mean.
func (r *Reconciler) ValueUnit(unit model.UnitSpec, ev Evidence) (UnitValuation, bool) {
	comps := relevantComparables(unit, model.DedupeComparables(ev.Comparables))
	methods := r.estimates(unit, comps, ev)
	if len(methods) == 0 {
		return UnitValuation{Identifier: unit.Identifier}, false
	}

	value, method := reconcile(methods)
	v := UnitValuation{
		Identifier: unit.Identifier,
		Value:      value,
		Low:        int64(math.Round(float64(value) * (1 - rangeBand))),
		High:       int64(math.Round(float64(value) * (1 + rangeBand))),
		Method:     method,
		CompCount:  len(comps),
		Methods:    methods,
	}
	v.Confidence = grade(len(comps), agreeingMethods(methods))
	return v, true
}

// relevantComparables keeps sales matching the unit's bedroom count (records
// with no bedroom attribution always qualify) and caps the set at the most
// recent ones.
func relevantComparables(unit model.UnitSpec, comps []model.ComparableRecord) []model.ComparableRecord {
	out := make([]model.ComparableRecord, 0, len(comps))
	for _, c := range comps {
		if unit.Bedrooms != nil && c.Bedrooms != nil && *c.Bedrooms != *unit.Bedrooms {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SaleDate.After(out[j].SaleDate) })
	if len(out) > maxComparables {
		out = out[:maxComparables]
	}
	return out
}

// reconcile picks the published value: the comparable and price-per-area
// figures average equal-weight when both exist, else the first method wins.
func reconcile(methods []MethodEstimate) (int64, string) {
	var comp, psf *MethodEstimate
	for i := range methods {
		switch methods[i].Method {
		case MethodComparable:
			comp = &methods[i]
		case MethodPricePerArea:
			psf = &methods[i]
		}
	}
	if comp != nil && psf != nil {
		return int64(math.Round(float64(comp.Value+psf.Value) / 2)), MethodCombined
	}
	return methods[0].Value, methods[0].Method
}

// estimates returns every method that can produce a figure, best first.
func (r *Reconciler) estimates(unit model.UnitSpec, comps []model.ComparableRecord, ev Evidence) []MethodEstimate {
	var out []MethodEstimate

	if len(comps) >= minComparables {
		adjusted := make([]int64, 0, len(comps))
		for _, c := range comps {
			adjusted = append(adjusted, r.AdjustPrice(c.Price, c.SaleDate, ev.Index))
		}
		out = append(out, MethodEstimate{Method: MethodComparable, Value: median(adjusted)})
	}

	if ev.AreaStats != nil && ev.AreaStats.AvgPricePerSqm > 0 && unit.FloorAreaSqm != nil && *unit.FloorAreaSqm > 0 {
		out = append(out, MethodEstimate{
			Method: MethodPricePerArea,
			Value:  int64(math.Round(ev.AreaStats.AvgPricePerSqm * *unit.FloorAreaSqm)),
		})
	}

	if ev.AVMEstimate != nil && *ev.AVMEstimate > 0 {
		out = append(out, MethodEstimate{Method: MethodAVM, Value: *ev.AVMEstimate})
	}

	if len(out) == 0 {
		if ev.RegionalAverage != nil && *ev.RegionalAverage > 0 {
			out = append(out, MethodEstimate{Method: MethodRegional, Value: *ev.RegionalAverage})
		} else if v := r.regional.UnitValue(ev.City, unit.FloorAreaSqm); v > 0 {
			out = append(out, MethodEstimate{Method: MethodRegional, Value: v})
		}
	}

	return out
}

// AdjustPrice indexes a historic sale price to the valuation date. When the
// index covers the sale month the adjustment is the ratio of the current
// index value to the sale-month value; otherwise the price is grown at a flat
// compound annual rate for the elapsed period.
func (r *Reconciler) AdjustPrice(price int64, saleDate time.Time, index *model.PriceIndex) int64 {
	if index != nil {
		if at, ok := index.At(saleDate); ok && at > 0 {
			if latest, ok := index.Latest(); ok && latest.Value > 0 {
				return int64(math.Round(float64(price) * latest.Value / at))
			}
		}
	}
	years := r.asOf.Sub(saleDate).Hours() / (24 * 365.25)
	if years <= 0 {
		return price
	}
	return int64(math.Round(float64(price) * math.Pow(1+fallbackAppreciation, years)))
}

// agreeingMethods counts methods whose value sits within the agreement band
// of the mean of all methods. With a single method there is nothing to agree
// with, so the count is 1.
func agreeingMethods(methods []MethodEstimate) int {
	if len(methods) < 2 {
		return len(methods)
	}
	var sum float64
	for _, m := range methods {
		sum += float64(m.Value)
	}
	mean := sum / float64(len(methods))
	if mean == 0 {
		return 0
	}
	n := 0
	for _, m := range methods {
		if math.Abs(float64(m.Value)-mean)/mean <= agreementBand {
			n++
		}
	}
	return n
}

func grade(compCount, agreeing int) Confidence {
	switch {
	case compCount >= 10 && agreeing >= 2:
		return ConfidenceHigh
	case compCount >= 5 && agreeing >= 1:
		return ConfidenceMedium
	case compCount >= lowConfidenceComps:
		return ConfidenceLow
	default:
		return ConfidenceIndicative
	}
}

// median of the values; the lower-middle mean for even counts rounds half up.
func median(values []int64) int64 {
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return int64(math.Round(float64(sorted[n/2-1]+sorted[n/2]) / 2))
}
