package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostcodeDistrict(t *testing.T) {
	tests := []struct {
		postcode string
		want     string
	}{
		{"L4 0TH", "L4"},
		{"L8 2TU", "L8"},
		{"SW1A 1AA", "SW1A"},
		{"M1 1AE", "M1"},
		{"L40TH", "L4"},
		{"L4", "L4"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.postcode, func(t *testing.T) {
			assert.Equal(t, tt.want, PostcodeDistrict(tt.postcode))
		})
	}
}

func TestDedupeComparables(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	beds := 2

	records := []ComparableRecord{
		{Address: "1 Elm St", Price: 95000, SaleDate: date, Source: SourceLandRegistry},
		{Address: "2 Elm St", Price: 90000, SaleDate: date, Source: SourceLandRegistry},
		// Same transaction seen by the second source, better attributed.
		{Address: "1 Elm St", Price: 95000, SaleDate: date, Bedrooms: &beds, Source: SourcePropertyData},
	}

	out := DedupeComparables(records)
	require.Len(t, out, 2)
	// First-occurrence order holds, but the richer copy wins in place.
	assert.Equal(t, "1 Elm St", out[0].Address)
	assert.Equal(t, SourcePropertyData, out[0].Source)
	require.NotNil(t, out[0].Bedrooms)
	assert.Equal(t, 2, *out[0].Bedrooms)
	assert.Equal(t, "2 Elm St", out[1].Address)
}

func TestDedupeComparablesKeepsDistinctDates(t *testing.T) {
	d1 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	// Same address and price sold twice is two transactions.
	out := DedupeComparables([]ComparableRecord{
		{Address: "1 Elm St", Price: 95000, SaleDate: d1},
		{Address: "1 Elm St", Price: 95000, SaleDate: d2},
	})
	assert.Len(t, out, 2)
}

func TestPriceIndexAt(t *testing.T) {
	idx := &PriceIndex{
		Region: "england",
		Points: []IndexPoint{
			{Month: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Value: 100},
			{Month: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Value: 102},
		},
	}

	v, ok := idx.At(time.Date(2025, 2, 19, 12, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.InDelta(t, 102, v, 0.001)

	_, ok = idx.At(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestPriceIndexLatest(t *testing.T) {
	idx := &PriceIndex{
		Points: []IndexPoint{
			{Month: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Value: 102},
			{Month: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Value: 104},
			{Month: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Value: 100},
		},
	}

	latest, ok := idx.Latest()
	require.True(t, ok)
	assert.InDelta(t, 104, latest.Value, 0.001)

	empty := &PriceIndex{}
	_, ok = empty.Latest()
	assert.False(t, ok)
}
