// Package evidence gathers market evidence for a property from the external
// data sources in parallel and merges it into a single bundle the valuation
// engine can consume.
package evidence

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ashdown-property/splitscan/internal/model"
)

// LandRegistry is the sold-price and index surface of the Land Registry
// client.
type LandRegistry interface {
	PricesPaid(ctx context.Context, district string, since time.Time) ([]model.ComparableRecord, error)
	PriceIndex(ctx context.Context, region string) (*model.PriceIndex, error)
}

// PropertyData is the enrichment surface of the PropertyData client.
type PropertyData interface {
	SoldPrices(ctx context.Context, postcode string) ([]model.ComparableRecord, error)
	AreaStats(ctx context.Context, district string) (*model.AreaStatistics, error)
	AVM(ctx context.Context, postcode string, bedrooms int) (int64, error)
}

// Bundle is everything the collector could gather for one property.
type Bundle struct {
	Comparables []model.ComparableRecord
	Index       *model.PriceIndex
	AreaStats   *model.AreaStatistics
	AVMEstimate *int64
}

// Collector fans the source calls out concurrently.
type Collector struct {
	lr     LandRegistry
	pd     PropertyData
	region string
	// lookback bounds how far back sold comparables are considered.
	lookback time.Duration
	log      *zap.Logger
}

// NewCollector creates a Collector over the given sources. pd may be nil when
// no PropertyData key is configured; the bundle then carries Land Registry
// evidence only.
func NewCollector(lr LandRegistry, pd PropertyData, region string, lookback time.Duration) *Collector {
	return &Collector{
		lr:       lr,
		pd:       pd,
		region:   region,
		lookback: lookback,
		log:      zap.L().Named("evidence"),
	}
}

// Collect gathers all evidence for the property in parallel.
//
// Land Registry sold prices are the backbone of every valuation, so a failure
// there fails the whole collection. Everything else degrades: a missing
// index, area statistics or AVM figure narrows the valuation methods but does
// not stop the assessment.
func (c *Collector) Collect(ctx context.Context, prop *model.Property) (*Bundle, error) {
	district := model.PostcodeDistrict(prop.Postcode)
	since := time.Now().Add(-c.lookback)

	var (
		lrComps []model.ComparableRecord
		pdComps []model.ComparableRecord
		bundle  Bundle
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		comps, err := c.lr.PricesPaid(gctx, district, since)
		if err != nil {
			return eris.Wrap(err, "evidence: land registry prices paid")
		}
		lrComps = comps
		return nil
	})

	g.Go(func() error {
		index, err := c.lr.PriceIndex(gctx, c.region)
		if err != nil {
			c.log.Warn("price index unavailable, falling back to flat appreciation",
				zap.String("region", c.region), zap.Error(err))
			return nil
		}
		bundle.Index = index
		return nil
	})

	if c.pd != nil {
		g.Go(func() error {
			comps, err := c.pd.SoldPrices(gctx, prop.Postcode)
			if err != nil {
				c.log.Warn("propertydata sold prices unavailable",
					zap.String("postcode", prop.Postcode), zap.Error(err))
				return nil
			}
			pdComps = comps
			return nil
		})

		g.Go(func() error {
			stats, err := c.pd.AreaStats(gctx, district)
			if err != nil {
				c.log.Warn("area statistics unavailable",
					zap.String("district", district), zap.Error(err))
				return nil
			}
			bundle.AreaStats = stats
			return nil
		})

		g.Go(func() error {
			bedrooms := 0
			if len(prop.Units) > 0 && prop.Units[0].Bedrooms != nil {
				bedrooms = *prop.Units[0].Bedrooms
			}
			est, err := c.pd.AVM(gctx, prop.Postcode, bedrooms)
			if err != nil {
				c.log.Warn("avm estimate unavailable",
					zap.String("postcode", prop.Postcode), zap.Error(err))
				return nil
			}
			bundle.AVMEstimate = &est
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	bundle.Comparables = model.DedupeComparables(append(lrComps, pdComps...))
	c.log.Debug("evidence collected",
		zap.String("property_id", prop.ID),
		zap.Int("comparables", len(bundle.Comparables)),
		zap.Bool("index", bundle.Index != nil),
		zap.Bool("area_stats", bundle.AreaStats != nil),
		zap.Bool("avm", bundle.AVMEstimate != nil))
	return &bundle, nil
}
