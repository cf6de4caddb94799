// Package engine runs the full assessment for one property: base screening,
// evidence-backed valuation, split costing, aggregate economics and the final
// recommendation, persisted as one assessment record.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ashdown-property/splitscan/internal/cost"
	"github.com/ashdown-property/splitscan/internal/engine/gdv"
	"github.com/ashdown-property/splitscan/internal/engine/impact"
	"github.com/ashdown-property/splitscan/internal/engine/recommend"
	"github.com/ashdown-property/splitscan/internal/engine/valuation"
	"github.com/ashdown-property/splitscan/internal/evidence"
	"github.com/ashdown-property/splitscan/internal/model"
	"github.com/ashdown-property/splitscan/internal/screening"
	"github.com/ashdown-property/splitscan/internal/store"
)

// undervaluedMargin is how far below the median comparable a per-unit price
// must sit before the listing counts as undervalued.
const undervaluedMargin = 0.9

// Result is the complete output of one assessment run.
type Result struct {
	Property       *model.Property          `json:"property"`
	Screening      screening.Breakdown      `json:"screening"`
	Costs          cost.Estimate            `json:"costs"`
	Economics      gdv.Report               `json:"economics"`
	Recommendation recommend.Recommendation `json:"recommendation"`
	AssessmentID   string                   `json:"assessment_id,omitempty"`
	RanAt          time.Time                `json:"ran_at"`
}

// Engine wires the assessment stages together over a store and, when
// configured, live evidence sources.
type Engine struct {
	store     store.Store
	collector *evidence.Collector
	calc      *cost.Calculator
	agg       *gdv.Aggregator
	synth     *recommend.Synthesizer
	regional  valuation.RegionalTable
	lookback  time.Duration
	log       *zap.Logger
}

// New creates an Engine. collector may be nil, in which case valuation runs
// off comparables already cached in the store.
func New(st store.Store, collector *evidence.Collector, rates cost.Rates, gates gdv.Gates, regional valuation.RegionalTable, lookback time.Duration) *Engine {
	return &Engine{
		store:     st,
		collector: collector,
		calc:      cost.NewCalculator(rates),
		agg:       gdv.NewAggregator(gates),
		synth: recommend.NewSynthesizer(recommend.Gates{
			MinBenefitPerUnit: gates.MinBenefitPerUnit,
			MaxCostRatio:      gates.MaxCostRatio,
		}),
		regional: regional,
		lookback: lookback,
		log:      zap.L().Named("engine"),
	}
}

// Assess runs the full assessment for the property and stores the result.
func (e *Engine) Assess(ctx context.Context, propertyID string) (*Result, error) {
	prop, err := e.store.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: load property %s", propertyID)
	}

	log := e.log.With(zap.String("property", prop.ID), zap.String("postcode", prop.Postcode))
	log.Info("engine: starting assessment")

	snap, err := e.store.GetSnapshot(ctx, prop.ID)
	if err != nil {
		if !eris.Is(err, store.ErrNotFound) {
			return nil, eris.Wrap(err, "engine: load snapshot")
		}
		snap = &model.VerificationSnapshot{PropertyID: prop.ID}
	}

	ev, est, report, err := e.value(ctx, prop, log)
	if err != nil {
		return nil, err
	}

	breakdown := screening.Score(prop, screening.Signals{
		GrossUpliftPct:  report.GrossUpliftPct,
		Undervalued:     undervalued(prop, ev.Comparables),
		ComparableCount: len(ev.Comparables),
	})

	recommendation := e.synth.Synthesize(breakdown.Total, snap, impact.Evaluate(snap), recommend.Financials{
		BenefitPerUnit: report.BenefitPerUnit,
		NetUplift:      report.NetUplift,
		Units:          report.UnitCount,
	})

	result := &Result{
		Property:       prop,
		Screening:      breakdown,
		Costs:          est,
		Economics:      report,
		Recommendation: recommendation,
		RanAt:          time.Now().UTC(),
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "engine: marshal result")
	}
	assessment := &model.Assessment{
		PropertyID: prop.ID,
		Result:     payload,
		Level:      string(recommendation.Level),
		Confidence: recommendation.Confidence,
	}
	if err := e.store.SaveAssessment(ctx, assessment); err != nil {
		return nil, eris.Wrap(err, "engine: save assessment")
	}
	result.AssessmentID = assessment.ID

	log.Info("engine: assessment complete",
		zap.String("level", string(recommendation.Level)),
		zap.Int("adjusted_score", recommendation.AdjustedScore),
		zap.Float64("confidence", recommendation.Confidence),
		zap.Int64("net_uplift", report.NetUplift))

	return result, nil
}

// Value runs the valuation and aggregation stages only, without screening,
// recommending or persisting. Used by the valuation command.
func (e *Engine) Value(ctx context.Context, propertyID string) (*gdv.Report, error) {
	prop, err := e.store.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: load property %s", propertyID)
	}
	log := e.log.With(zap.String("property", prop.ID), zap.String("postcode", prop.Postcode))
	_, _, report, err := e.value(ctx, prop, log)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// value gathers evidence, values every unit, prices the split and aggregates
// the economics.
func (e *Engine) value(ctx context.Context, prop *model.Property, log *zap.Logger) (valuation.Evidence, cost.Estimate, gdv.Report, error) {
	ev, err := e.gatherEvidence(ctx, prop, log)
	if err != nil {
		return valuation.Evidence{}, cost.Estimate{}, gdv.Report{}, err
	}

	units := unitSpecs(prop)
	valuations := make([]valuation.UnitValuation, 0, len(units))
	rec := valuation.NewReconciler(time.Now().UTC(), e.regional)
	for _, unit := range units {
		uv, ok := rec.ValueUnit(unit, ev)
		if !ok {
			log.Warn("engine: no valuation evidence for unit", zap.String("unit", unit.Identifier))
			continue
		}
		valuations = append(valuations, uv)
	}

	unitValues := make([]int64, len(valuations))
	for i, uv := range valuations {
		unitValues[i] = uv.Value
	}
	est := e.calc.Estimate(unitValues, cost.ScenarioTypical)

	report := e.agg.Aggregate(prop.AcquisitionPrice(), est.Total, valuations)
	return ev, est, report, nil
}

// gatherEvidence pulls live evidence when a collector is configured, caching
// new comparables, and otherwise reads the store's comparable cache.
func (e *Engine) gatherEvidence(ctx context.Context, prop *model.Property, log *zap.Logger) (valuation.Evidence, error) {
	district := model.PostcodeDistrict(prop.Postcode)

	if e.collector == nil {
		comps, err := e.store.GetComparables(ctx, district, time.Now().Add(-e.lookback))
		if err != nil {
			return valuation.Evidence{}, eris.Wrap(err, "engine: load cached comparables")
		}
		log.Info("engine: using cached evidence", zap.Int("comparables", len(comps)))
		return valuation.Evidence{Comparables: comps, City: prop.City}, nil
	}

	bundle, err := e.collector.Collect(ctx, prop)
	if err != nil {
		return valuation.Evidence{}, eris.Wrap(err, "engine: collect evidence")
	}
	if n, saveErr := e.store.SaveComparables(ctx, district, bundle.Comparables); saveErr != nil {
		log.Warn("engine: failed to cache comparables", zap.Error(saveErr))
	} else if n > 0 {
		log.Info("engine: cached new comparables", zap.Int("count", n))
	}

	return valuation.Evidence{
		Comparables: bundle.Comparables,
		Index:       bundle.Index,
		AreaStats:   bundle.AreaStats,
		AVMEstimate: bundle.AVMEstimate,
		City:        prop.City,
	}, nil
}

// unitSpecs returns the declared units, or placeholder units when the listing
// only states a count.
func unitSpecs(prop *model.Property) []model.UnitSpec {
	if len(prop.Units) > 0 {
		return prop.Units
	}
	units := make([]model.UnitSpec, prop.EstimatedUnits)
	for i := range units {
		units[i] = model.UnitSpec{Identifier: fmt.Sprintf("unit-%d", i+1)}
	}
	return units
}

// undervalued reports whether the per-unit acquisition price sits well below
// the median comparable sale.
func undervalued(prop *model.Property, comps []model.ComparableRecord) bool {
	if len(comps) == 0 {
		return false
	}
	prices := make([]int64, len(comps))
	for i, c := range comps {
		prices[i] = c.Price
	}
	med := medianInt64(prices)
	if med <= 0 {
		return false
	}
	return float64(prop.PricePerUnit()) < undervaluedMargin*float64(med)
}

func medianInt64(values []int64) int64 {
	sorted := make([]int64, len(values))
	copy(sorted, values)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2] + 1) / 2
}
