package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashdown-property/splitscan/internal/model"
)

func float64Ptr(v float64) *float64 { return &v }

func int64Ptr(v int64) *int64 { return &v }

func asOf() time.Time {
	return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
}

func comp(address string, price int64, saleDate time.Time) model.ComparableRecord {
	return model.ComparableRecord{
		Address:      address,
		Postcode:     "L4 0TH",
		Price:        price,
		SaleDate:     saleDate,
		PropertyType: "F",
		Source:       model.SourceLandRegistry,
	}
}

func TestValueUnitThreeComparables(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	sold := asOf() // same-day sales need no time adjustment
	ev := Evidence{
		Comparables: []model.ComparableRecord{
			comp("1 Oak St", 90000, sold),
			comp("2 Oak St", 95000, sold),
			comp("3 Oak St", 100000, sold),
		},
	}

	v, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1"}, ev)
	require.True(t, ok)
	assert.Equal(t, int64(95000), v.Value)
	assert.Equal(t, MethodComparable, v.Method)
	assert.Equal(t, ConfidenceLow, v.Confidence)
	assert.Equal(t, 3, v.CompCount)
	assert.Equal(t, int64(85500), v.Low)
	assert.Equal(t, int64(104500), v.High)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		want   int64
	}{
		{"odd count", []int64{100000, 90000, 95000}, 95000},
		{"even count averages the middle pair", []int64{90000, 100000, 95000, 93000}, 94000},
		{"single value", []int64{120000}, 120000},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, median(tt.values))
		})
	}
}

func TestAdjustPriceWithIndex(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	index := &model.PriceIndex{
		Region: "North West",
		Points: []model.IndexPoint{
			{Month: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), Value: 100},
			{Month: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), Value: 110},
		},
	}
	sale := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	got := r.AdjustPrice(100000, sale, index)
	assert.Equal(t, int64(110000), got)
}

func TestAdjustPriceFallbackAppreciation(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	sale := asOf().AddDate(-2, 0, 0)

	// two years at 3% compound: 100000 * 1.03^2 = 106090, within rounding
	got := r.AdjustPrice(100000, sale, nil)
	assert.InDelta(t, 106090, float64(got), 25)

	// sales on or after the valuation date pass through unchanged
	assert.Equal(t, int64(100000), r.AdjustPrice(100000, asOf(), nil))
}

func TestAdjustPriceIndexMissingMonthFallsBack(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	index := &model.PriceIndex{
		Region: "North West",
		Points: []model.IndexPoint{
			{Month: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), Value: 110},
		},
	}
	sale := asOf().AddDate(-1, 0, 0)

	got := r.AdjustPrice(100000, sale, index)
	assert.InDelta(t, 103000, float64(got), 25)
}

func TestConfidenceLadder(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	sold := asOf()
	unit := model.UnitSpec{Identifier: "Flat 1", FloorAreaSqm: float64Ptr(50)}

	manyComps := func(n int) []model.ComparableRecord {
		out := make([]model.ComparableRecord, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, comp(string(rune('A'+i))+" Elm St", 95000+int64(i)*100, sold))
		}
		return out
	}

	t.Run("high needs ten comps and two agreeing methods", func(t *testing.T) {
		ev := Evidence{
			Comparables: manyComps(10),
			AreaStats:   &model.AreaStatistics{PostcodeDistrict: "L4", AvgPricePerSqm: 1900, SampleSize: 40},
		}
		v, ok := r.ValueUnit(unit, ev)
		require.True(t, ok)
		assert.Equal(t, ConfidenceHigh, v.Confidence)
		assert.Len(t, v.Methods, 2)
	})

	t.Run("ten comps with a divergent second method is not high", func(t *testing.T) {
		ev := Evidence{
			Comparables: manyComps(10),
			AreaStats:   &model.AreaStatistics{PostcodeDistrict: "L4", AvgPricePerSqm: 4000, SampleSize: 40},
		}
		v, ok := r.ValueUnit(unit, ev)
		require.True(t, ok)
		assert.NotEqual(t, ConfidenceHigh, v.Confidence)
	})

	t.Run("medium at five comps", func(t *testing.T) {
		v, ok := r.ValueUnit(unit, Evidence{Comparables: manyComps(5)})
		require.True(t, ok)
		assert.Equal(t, ConfidenceMedium, v.Confidence)
	})

	t.Run("low at two comps", func(t *testing.T) {
		// two comps are below the comparable-method threshold, so the value
		// comes from the area method while the comp depth still grades LOW
		ev := Evidence{
			Comparables: manyComps(2),
			AreaStats:   &model.AreaStatistics{PostcodeDistrict: "L4", AvgPricePerSqm: 1900, SampleSize: 40},
		}
		v, ok := r.ValueUnit(unit, ev)
		require.True(t, ok)
		assert.Equal(t, ConfidenceLow, v.Confidence)
		assert.Equal(t, MethodPricePerArea, v.Method)
	})

	t.Run("indicative below two comps", func(t *testing.T) {
		ev := Evidence{
			Comparables: manyComps(1),
			AreaStats:   &model.AreaStatistics{PostcodeDistrict: "L4", AvgPricePerSqm: 1900, SampleSize: 40},
		}
		v, ok := r.ValueUnit(unit, ev)
		require.True(t, ok)
		assert.Equal(t, ConfidenceIndicative, v.Confidence)
		assert.Equal(t, MethodPricePerArea, v.Method)
	})
}

func TestValueUnitDeduplicatesAcrossSources(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	sold := asOf()
	dup := comp("1 Oak St", 90000, sold)
	dup.Source = model.SourcePropertyData
	ev := Evidence{
		Comparables: []model.ComparableRecord{
			comp("1 Oak St", 90000, sold),
			dup,
			comp("2 Oak St", 95000, sold),
			comp("3 Oak St", 100000, sold),
		},
	}

	v, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1"}, ev)
	require.True(t, ok)
	assert.Equal(t, 3, v.CompCount)
	assert.Equal(t, int64(95000), v.Value)
}

func TestValueUnitCombinesComparableAndArea(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	sold := asOf()
	ev := Evidence{
		Comparables: []model.ComparableRecord{
			comp("1 Oak St", 100000, sold),
			comp("2 Oak St", 100000, sold),
			comp("3 Oak St", 100000, sold),
		},
		AreaStats: &model.AreaStatistics{PostcodeDistrict: "L4", AvgPricePerSqm: 1600, SampleSize: 40},
	}

	v, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1", FloorAreaSqm: float64Ptr(50)}, ev)
	require.True(t, ok)
	assert.Equal(t, MethodCombined, v.Method)
	// equal-weight average of the £100,000 comparable median and the
	// £80,000 area figure
	assert.Equal(t, int64(90000), v.Value)
	require.Len(t, v.Methods, 2)
	assert.Equal(t, MethodComparable, v.Methods[0].Method)
	assert.Equal(t, MethodPricePerArea, v.Methods[1].Method)
}

func TestValueUnitFiltersByBedroomCount(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	sold := asOf()
	oneBed := func(address string, price int64) model.ComparableRecord {
		c := comp(address, price, sold)
		beds := 1
		c.Bedrooms = &beds
		return c
	}
	threeBed := func(address string, price int64) model.ComparableRecord {
		c := comp(address, price, sold)
		beds := 3
		c.Bedrooms = &beds
		return c
	}
	ev := Evidence{
		Comparables: []model.ComparableRecord{
			oneBed("1 Oak St", 90000),
			oneBed("2 Oak St", 95000),
			oneBed("3 Oak St", 100000),
			threeBed("4 Oak St", 500000),
			threeBed("5 Oak St", 500000),
		},
	}

	beds := 1
	v, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1", Bedrooms: &beds}, ev)
	require.True(t, ok)
	assert.Equal(t, 3, v.CompCount)
	assert.Equal(t, int64(95000), v.Value)
	assert.Equal(t, MethodComparable, v.Method)
}

func TestValueUnitCapsAtTenMostRecent(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	comps := make([]model.ComparableRecord, 0, 12)
	for i := 0; i < 10; i++ {
		comps = append(comps, comp(string(rune('A'+i))+" Oak St", 95000, asOf().AddDate(0, 0, -i)))
	}
	// two stale outliers that the recency cap must exclude
	comps = append(comps,
		comp("Old House 1", 500000, asOf().AddDate(0, 0, -300)),
		comp("Old House 2", 500000, asOf().AddDate(0, 0, -301)),
	)

	v, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1"}, Evidence{Comparables: comps})
	require.True(t, ok)
	assert.Equal(t, 10, v.CompCount)
	assert.InDelta(t, 95000, float64(v.Value), 200)
}

func TestValueUnitTwoCompsBelowComparableThreshold(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	sold := asOf()
	ev := Evidence{
		Comparables: []model.ComparableRecord{
			comp("1 Oak St", 60000, sold),
			comp("2 Oak St", 240000, sold),
		},
	}

	// two wildly disagreeing comps cannot carry the comparable method alone
	_, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1"}, ev)
	assert.False(t, ok)

	ev.AVMEstimate = int64Ptr(120000)
	v, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1"}, ev)
	require.True(t, ok)
	assert.Equal(t, MethodAVM, v.Method)
}

func TestValueUnitRegionalFallback(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	v, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1"}, Evidence{
		RegionalAverage: int64Ptr(85000),
	})
	require.True(t, ok)
	assert.Equal(t, MethodRegional, v.Method)
	assert.Equal(t, int64(85000), v.Value)
	assert.Equal(t, ConfidenceIndicative, v.Confidence)
}

func TestRegionalTableIsLastResort(t *testing.T) {
	r := NewReconciler(asOf(), DefaultRegionalTable())

	t.Run("known city and assumed floor area", func(t *testing.T) {
		v, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1"}, Evidence{City: "Liverpool"})
		require.True(t, ok)
		assert.Equal(t, MethodRegional, v.Method)
		// 50 sqm at £150/sqft
		assert.Equal(t, int64(80730), v.Value)
		assert.Equal(t, ConfidenceIndicative, v.Confidence)
	})

	t.Run("unknown city uses the default rate", func(t *testing.T) {
		v, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1"}, Evidence{City: "Carlisle"})
		require.True(t, ok)
		assert.Equal(t, int64(80730), v.Value)
	})

	t.Run("known floor area overrides the assumption", func(t *testing.T) {
		v, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1", FloorAreaSqm: float64Ptr(60)}, Evidence{City: "leeds"})
		require.True(t, ok)
		// 60 sqm at £180/sqft
		assert.Equal(t, int64(116251), v.Value)
	})

	t.Run("comparable evidence still wins", func(t *testing.T) {
		sold := asOf()
		ev := Evidence{
			City: "liverpool",
			Comparables: []model.ComparableRecord{
				comp("1 Oak St", 90000, sold),
				comp("2 Oak St", 95000, sold),
				comp("3 Oak St", 100000, sold),
			},
		}
		v, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1"}, ev)
		require.True(t, ok)
		assert.Equal(t, MethodComparable, v.Method)
	})
}

func TestValueUnitNoEvidence(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	_, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1"}, Evidence{})
	assert.False(t, ok)
}

func TestValueUnitAVMCorroborates(t *testing.T) {
	r := NewReconciler(asOf(), RegionalTable{})
	sold := asOf()
	ev := Evidence{
		Comparables: []model.ComparableRecord{
			comp("1 Oak St", 90000, sold),
			comp("2 Oak St", 95000, sold),
			comp("3 Oak St", 100000, sold),
		},
		AVMEstimate: int64Ptr(97000),
	}
	v, ok := r.ValueUnit(model.UnitSpec{Identifier: "Flat 1"}, ev)
	require.True(t, ok)
	// the comparable method stays primary even with the AVM present
	assert.Equal(t, MethodComparable, v.Method)
	assert.Equal(t, int64(95000), v.Value)
	require.Len(t, v.Methods, 2)
	assert.Equal(t, MethodAVM, v.Methods[1].Method)
}
