package model

import "time"

// AssessmentStatus represents the current state of a deal assessment.
type AssessmentStatus string

const (
	AssessmentStatusQueued   AssessmentStatus = "queued"
	AssessmentStatusScoring  AssessmentStatus = "scoring"
	AssessmentStatusValuing  AssessmentStatus = "valuing"
	AssessmentStatusComplete AssessmentStatus = "complete"
	AssessmentStatusFailed   AssessmentStatus = "failed"
)

// Property represents a multi-unit freehold block under assessment.
type Property struct {
	ID               string     `json:"id" yaml:"id"`
	AddressLine1     string     `json:"address_line1" yaml:"address_line1"`
	City             string     `json:"city,omitempty" yaml:"city,omitempty"`
	Postcode         string     `json:"postcode" yaml:"postcode"`
	AskingPrice      int64      `json:"asking_price" yaml:"asking_price"`
	AgreedPrice      *int64     `json:"agreed_price,omitempty" yaml:"agreed_price,omitempty"`
	EstimatedUnits   int        `json:"estimated_units" yaml:"estimated_units"`
	Tenure           string     `json:"tenure,omitempty" yaml:"tenure,omitempty"`
	TenureConfidence float64    `json:"tenure_confidence,omitempty" yaml:"tenure_confidence,omitempty"`
	AvgEPCRating     string     `json:"avg_epc_rating,omitempty" yaml:"avg_epc_rating,omitempty"`
	RefurbIndicators bool       `json:"refurb_indicators,omitempty" yaml:"refurb_indicators,omitempty"`
	Units            []UnitSpec `json:"units,omitempty" yaml:"units,omitempty"`
	ListedAt         *time.Time `json:"listed_at,omitempty" yaml:"listed_at,omitempty"`
}

// UnitSpec describes one unit within a block for valuation purposes.
type UnitSpec struct {
	Identifier   string   `json:"identifier" yaml:"identifier"`
	Bedrooms     *int     `json:"bedrooms,omitempty" yaml:"bedrooms,omitempty"`
	FloorAreaSqm *float64 `json:"floor_area_sqm,omitempty" yaml:"floor_area_sqm,omitempty"`
	EPCRating    string   `json:"epc_rating,omitempty" yaml:"epc_rating,omitempty"`
}

// PricePerUnit returns the acquisition price divided by the unit count,
// using the agreed price when one exists.
func (p *Property) PricePerUnit() int64 {
	if p.EstimatedUnits <= 0 {
		return 0
	}
	price := p.AskingPrice
	if p.AgreedPrice != nil {
		price = *p.AgreedPrice
	}
	return price / int64(p.EstimatedUnits)
}

// AcquisitionPrice returns the agreed price when set, else the asking price.
func (p *Property) AcquisitionPrice() int64 {
	if p.AgreedPrice != nil {
		return *p.AgreedPrice
	}
	return p.AskingPrice
}

// Assessment is one stored engine run for a property.
type Assessment struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	Result     []byte    `json:"result"` // JSON-encoded Recommendation
	Level      string    `json:"level"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}
