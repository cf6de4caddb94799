// Package cost models title-split transaction costs: legal work, Land
// Registry fees, lender charges and the professional costs of creating new
// leasehold titles.
package cost

// Band is a triple of cost assumptions for one line item.
type Band struct {
	Min     int64 `yaml:"min" mapstructure:"min"`
	Typical int64 `yaml:"typical" mapstructure:"typical"`
	Max     int64 `yaml:"max" mapstructure:"max"`
}

// Scenario selects which band figure the calculator uses.
type Scenario string

const (
	ScenarioMin     Scenario = "min"
	ScenarioTypical Scenario = "typical"
	ScenarioMax     Scenario = "max"
)

func (b Band) at(s Scenario) int64 {
	switch s {
	case ScenarioMin:
		return b.Min
	case ScenarioMax:
		return b.Max
	default:
		return b.Typical
	}
}

// Rates holds the full cost model configuration.
type Rates struct {
	SolicitorPerUnit   Band `yaml:"solicitor_per_unit" mapstructure:"solicitor_per_unit"`
	TitlePlanPerUnit   Band `yaml:"title_plan_per_unit" mapstructure:"title_plan_per_unit"`
	ValuationPerUnit   Band `yaml:"valuation_per_unit" mapstructure:"valuation_per_unit"`
	InsurancePerUnit   Band `yaml:"insurance_per_unit" mapstructure:"insurance_per_unit"`
	LenderConsentFee   Band `yaml:"lender_consent_fee" mapstructure:"lender_consent_fee"`
	LenderLegalCosts   Band `yaml:"lender_legal_costs" mapstructure:"lender_legal_costs"`
	ContingencyPercent int  `yaml:"contingency_percent" mapstructure:"contingency_percent"`
}

// registryFeeBand is one Land Registry value band (2024 fee scale).
type registryFeeBand struct {
	upTo int64
	fee  int64
}

var registryFeeBands = []registryFeeBand{
	{80000, 20},
	{100000, 40},
	{200000, 95},
	{500000, 135},
	{1000000, 270},
}

const registryFeeMax = 455

// RegistryFee returns the Land Registry registration fee for one new title of
// the given value.
func RegistryFee(value int64) int64 {
	for _, b := range registryFeeBands {
		if value <= b.upTo {
			return b.fee
		}
	}
	return registryFeeMax
}

// Estimate is a full cost breakdown for one split.
type Estimate struct {
	SolicitorFees int64 `json:"solicitor_fees"`
	TitlePlans    int64 `json:"title_plans"`
	Valuations    int64 `json:"valuations"`
	Insurance     int64 `json:"insurance"`
	LandRegistry  int64 `json:"land_registry"`
	LenderConsent int64 `json:"lender_consent"`
	LenderLegal   int64 `json:"lender_legal"`
	Subtotal      int64 `json:"subtotal"`
	Contingency   int64 `json:"contingency"`
	Total         int64 `json:"total"`
	PerUnit       int64 `json:"per_unit"`
}

// Calculator estimates split costs from a rate card.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Estimate prices the whole split: per-unit professional costs, a registry
// fee per new title based on that unit's value, one-off lender costs, and a
// percentage contingency on top.
func (c *Calculator) Estimate(unitValues []int64, scenario Scenario) Estimate {
	n := int64(len(unitValues))
	e := Estimate{
		SolicitorFees: n * c.rates.SolicitorPerUnit.at(scenario),
		TitlePlans:    n * c.rates.TitlePlanPerUnit.at(scenario),
		Valuations:    n * c.rates.ValuationPerUnit.at(scenario),
		Insurance:     n * c.rates.InsurancePerUnit.at(scenario),
		LenderConsent: c.rates.LenderConsentFee.at(scenario),
		LenderLegal:   c.rates.LenderLegalCosts.at(scenario),
	}
	for _, v := range unitValues {
		e.LandRegistry += RegistryFee(v)
	}
	e.Subtotal = e.SolicitorFees + e.TitlePlans + e.Valuations + e.Insurance +
		e.LandRegistry + e.LenderConsent + e.LenderLegal
	e.Contingency = e.Subtotal * int64(c.rates.ContingencyPercent) / 100
	e.Total = e.Subtotal + e.Contingency
	if n > 0 {
		e.PerUnit = e.Total / n
	}
	return e
}

// BreakEvenPrice returns the maximum purchase price at which the split still
// delivers the target net benefit per unit, using typical-scenario costs.
func (c *Calculator) BreakEvenPrice(unitValues []int64, targetNetPerUnit int64) int64 {
	var aggregate int64
	for _, v := range unitValues {
		aggregate += v
	}
	costs := c.Estimate(unitValues, ScenarioTypical)
	max := aggregate - costs.Total - targetNetPerUnit*int64(len(unitValues))
	if max < 0 {
		return 0
	}
	return max
}

// DefaultRates returns the standard cost model.
func DefaultRates() Rates {
	return Rates{
		SolicitorPerUnit:   Band{Min: 300, Typical: 450, Max: 600},
		TitlePlanPerUnit:   Band{Min: 100, Typical: 200, Max: 300},
		ValuationPerUnit:   Band{Min: 150, Typical: 250, Max: 350},
		InsurancePerUnit:   Band{Min: 50, Typical: 75, Max: 100},
		LenderConsentFee:   Band{Min: 500, Typical: 1000, Max: 2500},
		LenderLegalCosts:   Band{Min: 500, Typical: 1000, Max: 2000},
		ContingencyPercent: 10,
	}
}
