package model

import (
	"time"
)

// ComparableSource identifies where a comparable-sale record came from.
type ComparableSource string

const (
	SourceLandRegistry ComparableSource = "land_registry"
	SourcePropertyData ComparableSource = "propertydata"
	SourceManual       ComparableSource = "manual"
)

// ComparableRecord is one observed sale used as market evidence.
type ComparableRecord struct {
	Address      string           `json:"address"`
	Postcode     string           `json:"postcode"`
	Price        int64            `json:"price"`
	SaleDate     time.Time        `json:"sale_date"`
	PropertyType string           `json:"property_type"` // F=Flat, T=Terraced, S=Semi, D=Detached
	NewBuild     bool             `json:"new_build"`
	Bedrooms     *int             `json:"bedrooms,omitempty"`
	FloorAreaSqm *float64         `json:"floor_area_sqm,omitempty"`
	TenureType   string           `json:"tenure_type,omitempty"` // F=Freehold, L=Leasehold
	Source       ComparableSource `json:"source"`
}

// richness counts the optional attributes a record carries. Used when two
// sources describe the same transaction to keep the better-attributed copy.
func (c *ComparableRecord) richness() int {
	n := 0
	if c.Bedrooms != nil {
		n++
	}
	if c.FloorAreaSqm != nil {
		n++
	}
	if c.TenureType != "" {
		n++
	}
	return n
}

// DedupeComparables removes duplicate sale records across sources. Two records
// describe the same transaction when address, sale date, and price all match;
// the record with more optional attributes wins. Relative order of first
// occurrences is preserved.
func DedupeComparables(records []ComparableRecord) []ComparableRecord {
	type key struct {
		address string
		date    string
		price   int64
	}

	index := make(map[key]int, len(records))
	out := make([]ComparableRecord, 0, len(records))

	for _, rec := range records {
		k := key{rec.Address, rec.SaleDate.Format("2006-01-02"), rec.Price}
		if i, seen := index[k]; seen {
			if rec.richness() > out[i].richness() {
				out[i] = rec
			}
			continue
		}
		index[k] = len(out)
		out = append(out, rec)
	}

	return out
}

// AreaStatistics holds per-postcode-district pricing statistics.
type AreaStatistics struct {
	PostcodeDistrict string    `json:"postcode_district"`
	AvgPricePerSqm   float64   `json:"avg_price_per_sqm"`
	SampleSize       int       `json:"sample_size"`
	AsOf             time.Time `json:"as_of"`
}

// IndexPoint is one month of a regional house price index series.
type IndexPoint struct {
	Month time.Time `json:"month"`
	Value float64   `json:"value"`
}

// PriceIndex is a regional house price index used for time adjustment.
type PriceIndex struct {
	Region string       `json:"region"`
	Points []IndexPoint `json:"points"`
}

// At returns the index value for the month containing t, or false when the
// series does not cover it.
func (p *PriceIndex) At(t time.Time) (float64, bool) {
	want := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	for _, pt := range p.Points {
		got := time.Date(pt.Month.Year(), pt.Month.Month(), 1, 0, 0, 0, 0, time.UTC)
		if got.Equal(want) {
			return pt.Value, true
		}
	}
	return 0, false
}

// Latest returns the most recent index point, or false for an empty series.
func (p *PriceIndex) Latest() (IndexPoint, bool) {
	if len(p.Points) == 0 {
		return IndexPoint{}, false
	}
	latest := p.Points[0]
	for _, pt := range p.Points[1:] {
		if pt.Month.After(latest.Month) {
			latest = pt
		}
	}
	return latest, true
}

// PostcodeDistrict extracts the district from a full postcode
// ("L4 0TH" -> "L4").
func PostcodeDistrict(postcode string) string {
	for i := 0; i < len(postcode); i++ {
		if postcode[i] == ' ' {
			return postcode[:i]
		}
	}
	if len(postcode) > 3 {
		return postcode[:len(postcode)-3]
	}
	return postcode
}
