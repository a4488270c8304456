// Package signals implements the five scalar signal providers consumed
// by the forecasting engine. Each provider tolerates an empty result
// set and returns its documented default rather than failing the run.
package signals

import (
	"context"
	"time"

	"github.com/sawpanic/invforecast/internal/persistence"
)

const populationBaseline = 150.0

// Providers bundles the five signal providers behind one constructor so
// the forecasting engine only depends on a single collaborator.
type Providers struct {
	store persistence.Store
	cache *Cache // optional; nil means "always read through to store"
}

// NewProviders constructs Providers. cache may be nil.
func NewProviders(store persistence.Store, cache *Cache) *Providers {
	return &Providers{store: store, cache: cache}
}

// UsageHistory returns the ordered (date, qty) sequence over the last
// `days` days. Missing days are omitted, not zero-padded.
func (p *Providers) UsageHistory(ctx context.Context, itemCode string, days int) ([]persistence.UsagePoint, error) {
	if p.cache != nil {
		if cached, ok := p.cache.getHistory(itemCode); ok {
			return cached, nil
		}
	}
	points, err := p.store.QueryHistory(ctx, itemCode, days)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		p.cache.putHistory(itemCode, points)
	}
	return points, nil
}

// PopulationFactor returns demand_factor = total_population / baseline,
// defaulting to 1.0 if the population signal is unavailable.
func (p *Providers) PopulationFactor(ctx context.Context, date time.Time) float64 {
	var total float64
	var err error
	if p.cache != nil {
		if cached, ok := p.cache.getPopulation(date); ok {
			total, err = cached, nil
		} else {
			total, err = p.store.QueryPopulation(ctx, date)
			if err == nil {
				p.cache.putPopulation(date, total)
			}
		}
	} else {
		total, err = p.store.QueryPopulation(ctx, date)
	}
	if err != nil || total <= 0 {
		return 1.0
	}
	return total / populationBaseline
}

// MenuRotationFactor returns 1.5 if itemCode appears in any scheduled
// recipe within [from, to], else 1.0.
func (p *Providers) MenuRotationFactor(ctx context.Context, itemCode string, from, to time.Time) float64 {
	occurrences, err := p.store.QueryMenuOccurrences(ctx, itemCode, from, to)
	if err != nil || len(occurrences) == 0 {
		return 1.0
	}
	return 1.5
}

// ParLevel returns the item's configured par level scalar, or 0 if none.
func (p *Providers) ParLevel(parLevel float64) float64 {
	if parLevel < 0 {
		return 0
	}
	return parLevel
}

// SeasonalityFactor is an extension hook: it accepts any non-negative
// scalar from the caller and defaults to the 1.0 placeholder when none
// is supplied.
func (p *Providers) SeasonalityFactor(override *float64) float64 {
	if override == nil || *override < 0 {
		return 1.0
	}
	return *override
}
