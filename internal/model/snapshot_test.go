package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestHasTitleFacts(t *testing.T) {
	s := &VerificationSnapshot{}
	assert.False(t, s.HasTitleFacts())

	s.Title = &TitleVerification{}
	assert.False(t, s.HasTitleFacts())

	s.Title.TenureConfirmed = "freehold"
	assert.True(t, s.HasTitleFacts())

	s.Title = &TitleVerification{IsSingleTitle: boolPtr(true)}
	assert.True(t, s.HasTitleFacts())
}

func TestHasPlanningFacts(t *testing.T) {
	s := &VerificationSnapshot{}
	assert.False(t, s.HasPlanningFacts())

	s.Licensing = &HMOLicensing{}
	assert.True(t, s.HasPlanningFacts())

	s = &VerificationSnapshot{Planning: &PlanningStatus{UseClass: "C3"}}
	assert.True(t, s.HasPlanningFacts())
}

func TestAllUnitsDetermined(t *testing.T) {
	s := &VerificationSnapshot{}
	assert.False(t, s.AllUnitsDetermined())

	s.Physical = &PhysicalInspection{}
	assert.False(t, s.AllUnitsDetermined())

	s.Physical.Units = []UnitInspection{
		{Identifier: "flat-a", SelfContained: boolPtr(true)},
		{Identifier: "flat-b"},
	}
	assert.False(t, s.AllUnitsDetermined())

	s.Physical.Units[1].SelfContained = boolPtr(false)
	assert.True(t, s.AllUnitsDetermined())
}

func TestMergeAccumulatesSections(t *testing.T) {
	s := &VerificationSnapshot{PropertyID: "prop-1"}

	s.Merge(&VerificationSnapshot{
		Title: &TitleVerification{TenureConfirmed: "freehold"},
	})
	s.Merge(&VerificationSnapshot{
		Planning: &PlanningStatus{UseClass: "C3", UseClassVerified: true},
		Enriched: true,
	})

	require.NotNil(t, s.Title)
	assert.Equal(t, "freehold", s.Title.TenureConfirmed)
	require.NotNil(t, s.Planning)
	assert.Equal(t, "C3", s.Planning.UseClass)
	assert.True(t, s.Enriched)
}

func TestMergeSupersedesSection(t *testing.T) {
	s := &VerificationSnapshot{
		PropertyID: "prop-1",
		Charges: []Charge{
			{LenderName: "First Bank", ChargeType: "legal_charge"},
		},
	}

	s.Merge(&VerificationSnapshot{
		Charges: []Charge{
			{LenderName: "First Bank", ChargeType: "legal_charge", ConsentLikelihood: ConsentLikely},
			{LenderName: "Second Bank", ChargeType: "legal_charge"},
		},
	})

	require.Len(t, s.Charges, 2)
	assert.Equal(t, ConsentLikely, s.Charges[0].ConsentLikelihood)
}

func TestMergeNilAndEmptyDelta(t *testing.T) {
	s := &VerificationSnapshot{
		Title:    &TitleVerification{TenureConfirmed: "freehold"},
		Enriched: true,
	}

	s.Merge(nil)
	s.Merge(&VerificationSnapshot{})

	require.NotNil(t, s.Title)
	assert.Equal(t, "freehold", s.Title.TenureConfirmed)
	assert.True(t, s.Enriched)
}
