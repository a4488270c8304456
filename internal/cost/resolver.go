// Package cost resolves effective vendor pricing and recipe costs.
// Price lookups against the Store are wrapped by a circuit breaker.
// The forecasting engine does not call this package; it values forecast
// lines at each item's master unit cost.
package cost

import (
	"context"
	"fmt"
	"time"

	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/infra/breaker"
	"github.com/sawpanic/invforecast/internal/persistence"
)

const breakerName = "cost-store"

// Resolver resolves effective prices and recipe costs at a fixed date.
type Resolver struct {
	store    persistence.Store
	breakers *breaker.Manager
}

// RecipeIngredient is one line of a recipe's bill of materials.
type RecipeIngredient struct {
	SKU string
	Qty float64
}

// Recipe is the input to recipeCost: ingredients plus yield/loss.
type Recipe struct {
	Ingredients []RecipeIngredient
	PrepLossPct float64 // percent, e.g. 5 for 5%
	YieldQty    float64
}

// NewResolver constructs a Resolver and registers its circuit breaker.
func NewResolver(store persistence.Store, breakers *breaker.Manager) *Resolver {
	breakers.Register(breakerName, 5, 30*time.Second)
	return &Resolver{store: store, breakers: breakers}
}

// EffectivePrice resolves the price for sku at date, preferring org's
// configured preferred vendor, falling back to any vendor with a
// currently valid price, ties broken by latest effective_from.
func (r *Resolver) EffectivePrice(ctx context.Context, org, sku string, date time.Time) (domain.EffectivePrice, error) {
	raw, err := r.breakers.Execute(breakerName, func() (interface{}, error) {
		return r.store.QueryPrices(ctx, org, sku)
	})
	if err != nil {
		return domain.EffectivePrice{}, err
	}
	prices, _ := raw.([]domain.PriceRecord)

	preferredVendor, _ := r.store.QueryPreferredVendor(ctx, org)

	valid := func(p domain.PriceRecord) bool {
		if p.EffectiveFrom.After(date) {
			return false
		}
		if p.EffectiveTo != nil && p.EffectiveTo.Before(date) {
			return false
		}
		return true
	}

	var best *domain.PriceRecord
	if preferredVendor != "" {
		for i := range prices {
			p := prices[i]
			if p.Vendor != preferredVendor || !valid(p) {
				continue
			}
			if best == nil || p.EffectiveFrom.After(best.EffectiveFrom) {
				pp := p
				best = &pp
			}
		}
		if best != nil {
			return domain.EffectivePrice{Price: best.Price, Vendor: best.Vendor, Currency: best.Currency, Source: domain.SourcePreferredVendor}, nil
		}
	}

	for i := range prices {
		p := prices[i]
		if !valid(p) {
			continue
		}
		if best == nil || p.EffectiveFrom.After(best.EffectiveFrom) {
			pp := p
			best = &pp
		}
	}
	if best != nil {
		return domain.EffectivePrice{Price: best.Price, Vendor: best.Vendor, Currency: best.Currency, Source: domain.SourceFallbackVendor}, nil
	}

	return domain.EffectivePrice{}, domain.NoPriceFound(fmt.Sprintf("no valid price for sku %q at %s", sku, date.Format("2006-01-02")))
}

// RecipeCost sums ingredient costs at date, treating a missing price on
// any single ingredient as a zero-cost line tagged missing_price rather
// than failing the whole recipe. PrepLossPct must be a percent in
// [0, 100]; fractional inputs (e.g. 0.05 meaning 5%) are rejected rather
// than silently reinterpreted.
func (r *Resolver) RecipeCost(ctx context.Context, org string, recipe Recipe, date time.Time) (domain.RecipeCostResult, error) {
	if recipe.PrepLossPct < 0 || recipe.PrepLossPct > 100 {
		return domain.RecipeCostResult{}, domain.InvalidArgument(fmt.Sprintf("prep_loss_pct must be in [0,100], got %v", recipe.PrepLossPct))
	}
	if recipe.PrepLossPct > 0 && recipe.PrepLossPct < 1 {
		return domain.RecipeCostResult{}, domain.InvalidArgument(fmt.Sprintf("prep_loss_pct %v looks like a fraction; pass a percent in [0,100]", recipe.PrepLossPct))
	}
	if recipe.YieldQty <= 0 {
		return domain.RecipeCostResult{}, domain.InvalidArgument("yield_qty must be positive")
	}

	var rawTotal float64
	lines := make([]domain.IngredientCost, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		price, err := r.EffectivePrice(ctx, org, ing.SKU, date)
		if err != nil {
			if domain.KindOf(err) == domain.KindNoPriceFound {
				lines = append(lines, domain.IngredientCost{SKU: ing.SKU, Qty: ing.Qty, Source: domain.SourceMissingPrice})
				continue
			}
			return domain.RecipeCostResult{}, err
		}
		total := ing.Qty * price.Price
		rawTotal += total
		lines = append(lines, domain.IngredientCost{SKU: ing.SKU, Qty: ing.Qty, UnitCost: price.Price, Total: total, Source: price.Source})
	}

	adjusted := rawTotal * (1 + recipe.PrepLossPct/100)
	unitCost := adjusted / recipe.YieldQty

	return domain.RecipeCostResult{
		UnitCost:    unitCost,
		TotalCost:   adjusted,
		Ingredients: lines,
	}, nil
}
