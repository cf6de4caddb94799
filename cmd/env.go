package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ashdown-property/splitscan/internal/engine"
	"github.com/ashdown-property/splitscan/internal/engine/gdv"
	"github.com/ashdown-property/splitscan/internal/evidence"
	"github.com/ashdown-property/splitscan/internal/store"
	"github.com/ashdown-property/splitscan/pkg/landregistry"
	"github.com/ashdown-property/splitscan/pkg/propertydata"
)

// initStore opens the configured backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		st, err = store.NewSQLite(cfg.Store.Path)
	}
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// lookback converts the configured month count to a duration.
func lookback() time.Duration {
	return time.Duration(cfg.LandRegistry.LookbackMonths) * 30 * 24 * time.Hour
}

// newLandRegistry builds the Land Registry open data client from config.
func newLandRegistry() *landregistry.Client {
	return landregistry.NewClient(
		landregistry.WithBaseURLs(cfg.LandRegistry.PPDBaseURL, cfg.LandRegistry.HPIBaseURL),
		landregistry.WithRateLimit(cfg.LandRegistry.RateLimit),
	)
}

// newCollector builds the live evidence collector. PropertyData enrichment is
// optional and skipped when no key is configured.
func newCollector() *evidence.Collector {
	var pd evidence.PropertyData
	if cfg.PropertyData.Key != "" {
		pd = propertydata.NewClient(cfg.PropertyData.Key,
			propertydata.WithBaseURL(cfg.PropertyData.BaseURL),
			propertydata.WithRateLimit(cfg.PropertyData.RateLimit),
		)
	} else {
		zap.L().Info("propertydata key not configured, using Land Registry evidence only")
	}
	return evidence.NewCollector(newLandRegistry(), pd, cfg.LandRegistry.Region, lookback())
}

// newEngine assembles the assessment engine. offline skips live evidence
// collection and values units from the comparable cache instead.
func newEngine(st store.Store, offline bool) *engine.Engine {
	var collector *evidence.Collector
	if !offline {
		collector = newCollector()
	}
	gates := gdv.Gates{
		MinBenefitPerUnit: cfg.Engine.MinBenefitPerUnit,
		MaxCostRatio:      cfg.Engine.MaxCostRatio,
	}
	return engine.New(st, collector, cfg.Cost, gates, cfg.Regional, lookback())
}
