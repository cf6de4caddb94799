package evidence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashdown-property/splitscan/internal/model"
)

type stubLandRegistry struct {
	comps    []model.ComparableRecord
	compsErr error
	index    *model.PriceIndex
	indexErr error
}

func (s *stubLandRegistry) PricesPaid(_ context.Context, _ string, _ time.Time) ([]model.ComparableRecord, error) {
	return s.comps, s.compsErr
}

func (s *stubLandRegistry) PriceIndex(_ context.Context, _ string) (*model.PriceIndex, error) {
	return s.index, s.indexErr
}

type stubPropertyData struct {
	comps    []model.ComparableRecord
	compsErr error
	stats    *model.AreaStatistics
	statsErr error
	avm      int64
	avmErr   error
}

func (s *stubPropertyData) SoldPrices(_ context.Context, _ string) ([]model.ComparableRecord, error) {
	return s.comps, s.compsErr
}

func (s *stubPropertyData) AreaStats(_ context.Context, _ string) (*model.AreaStatistics, error) {
	return s.stats, s.statsErr
}

func (s *stubPropertyData) AVM(_ context.Context, _ string, _ int) (int64, error) {
	return s.avm, s.avmErr
}

func testProperty() *model.Property {
	return &model.Property{ID: "prop-1", Postcode: "L4 0TH", EstimatedUnits: 4}
}

func comp(address string, price int64, source model.ComparableSource) model.ComparableRecord {
	return model.ComparableRecord{
		Address:  address,
		Postcode: "L4 0TH",
		Price:    price,
		SaleDate: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		Source:   source,
	}
}

func TestCollectMergesAndDeduplicates(t *testing.T) {
	lr := &stubLandRegistry{
		comps: []model.ComparableRecord{
			comp("1 Oak St", 90000, model.SourceLandRegistry),
			comp("2 Oak St", 95000, model.SourceLandRegistry),
		},
		index: &model.PriceIndex{Region: "North West"},
	}
	pd := &stubPropertyData{
		comps: []model.ComparableRecord{
			comp("1 Oak St", 90000, model.SourcePropertyData), // duplicate of LR record
			comp("3 Oak St", 99000, model.SourcePropertyData),
		},
		stats: &model.AreaStatistics{PostcodeDistrict: "L4", AvgPricePerSqm: 1900},
		avm:   96000,
	}

	c := NewCollector(lr, pd, "North West", 18*30*24*time.Hour)
	bundle, err := c.Collect(context.Background(), testProperty())
	require.NoError(t, err)

	assert.Len(t, bundle.Comparables, 3)
	assert.NotNil(t, bundle.Index)
	assert.NotNil(t, bundle.AreaStats)
	require.NotNil(t, bundle.AVMEstimate)
	assert.Equal(t, int64(96000), *bundle.AVMEstimate)
}

func TestCollectLandRegistryFailureIsFatal(t *testing.T) {
	lr := &stubLandRegistry{compsErr: errors.New("service unavailable")}
	c := NewCollector(lr, nil, "North West", time.Hour)

	_, err := c.Collect(context.Background(), testProperty())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "land registry prices paid")
}

func TestCollectToleratesEnrichmentFailures(t *testing.T) {
	lr := &stubLandRegistry{
		comps:    []model.ComparableRecord{comp("1 Oak St", 90000, model.SourceLandRegistry)},
		indexErr: errors.New("index feed down"),
	}
	pd := &stubPropertyData{
		compsErr: errors.New("quota exceeded"),
		statsErr: errors.New("quota exceeded"),
		avmErr:   errors.New("quota exceeded"),
	}

	c := NewCollector(lr, pd, "North West", time.Hour)
	bundle, err := c.Collect(context.Background(), testProperty())
	require.NoError(t, err)

	assert.Len(t, bundle.Comparables, 1)
	assert.Nil(t, bundle.Index)
	assert.Nil(t, bundle.AreaStats)
	assert.Nil(t, bundle.AVMEstimate)
}

func TestCollectWithoutPropertyData(t *testing.T) {
	lr := &stubLandRegistry{
		comps: []model.ComparableRecord{comp("1 Oak St", 90000, model.SourceLandRegistry)},
	}
	c := NewCollector(lr, nil, "North West", time.Hour)

	bundle, err := c.Collect(context.Background(), testProperty())
	require.NoError(t, err)
	assert.Len(t, bundle.Comparables, 1)
	assert.Nil(t, bundle.AVMEstimate)
}
