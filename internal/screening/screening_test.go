package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashdown-property/splitscan/internal/model"
)

func TestScoreComponents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		prop model.Property
		sig  Signals
		want Breakdown
	}{
		{
			name: "bare listing with unknown tenure",
			prop: model.Property{EstimatedUnits: 4},
			sig:  Signals{},
			want: Breakdown{Tenure: 15, Risk: 15, Total: 30},
		},
		{
			name: "confident freehold in the sweet spot",
			prop: model.Property{Tenure: "freehold", TenureConfidence: 0.9, EstimatedUnits: 4},
			sig:  Signals{},
			want: Breakdown{Tenure: 30, Risk: 15, DataDepth: 3, Total: 48},
		},
		{
			name: "leasehold scores nothing on tenure",
			prop: model.Property{Tenure: "leasehold", EstimatedUnits: 4},
			sig:  Signals{},
			want: Breakdown{Tenure: 5, Risk: 15, Total: 20},
		},
		{
			name: "strong uplift with undervalued pricing caps at the component max",
			prop: model.Property{EstimatedUnits: 2},
			sig:  Signals{GrossUpliftPct: 35, Undervalued: true},
			want: Breakdown{Tenure: 13, Financial: 25, Risk: 15, Total: 53},
		},
		{
			name: "refurb opportunity with a poor EPC",
			prop: model.Property{EstimatedUnits: 4, RefurbIndicators: true, AvgEPCRating: "F"},
			sig:  Signals{},
			want: Breakdown{Tenure: 15, Condition: 20, Risk: 15, Total: 50},
		},
		{
			name: "red flags drain the risk component",
			prop: model.Property{EstimatedUnits: 4},
			sig:  Signals{RedFlags: []string{"auction notice", "fire damage", "sitting tenants", "flood zone"}},
			want: Breakdown{Tenure: 15, Risk: 0, Total: 15},
		},
		{
			name: "deep comparable evidence adds data depth",
			prop: model.Property{EstimatedUnits: 4},
			sig:  Signals{ComparableCount: 8},
			want: Breakdown{Tenure: 15, Risk: 15, DataDepth: 4, Total: 34},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Score(&tt.prop, tt.sig))
		})
	}
}

func TestScoreDataDepthFromEPCs(t *testing.T) {
	t.Parallel()
	prop := model.Property{
		EstimatedUnits: 2,
		Units: []model.UnitSpec{
			{Identifier: "A", EPCRating: "D"},
			{Identifier: "B", EPCRating: "C"},
		},
	}
	b := Score(&prop, Signals{})
	assert.Equal(t, 3, b.DataDepth)

	prop.Units = prop.Units[:1]
	b = Score(&prop, Signals{})
	assert.Equal(t, 1, b.DataDepth)
}

func TestScoreNeverExceedsBounds(t *testing.T) {
	t.Parallel()
	prop := model.Property{
		Tenure:           "freehold",
		TenureConfidence: 0.95,
		EstimatedUnits:   4,
		RefurbIndicators: true,
		AvgEPCRating:     "G",
		Units: []model.UnitSpec{
			{Identifier: "A", EPCRating: "G"}, {Identifier: "B", EPCRating: "G"},
			{Identifier: "C", EPCRating: "G"}, {Identifier: "D", EPCRating: "G"},
		},
	}
	sig := Signals{GrossUpliftPct: 50, Undervalued: true, ComparableCount: 20}
	b := Score(&prop, sig)
	assert.LessOrEqual(t, b.Total, 100)
	assert.Equal(t, maxTenure, b.Tenure)
	assert.Equal(t, maxFinancial, b.Financial)
	assert.Equal(t, maxCondition, b.Condition)
	assert.Equal(t, maxDataDepth, b.DataDepth)
}
