package cost

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/infra/breaker"
	"github.com/sawpanic/invforecast/internal/persistence"
)

type fakeStore struct {
	persistence.Store
	prices    map[string][]domain.PriceRecord
	preferred string
}

func (f *fakeStore) QueryPrices(ctx context.Context, org, sku string) ([]domain.PriceRecord, error) {
	return f.prices[sku], nil
}

func (f *fakeStore) QueryPreferredVendor(ctx context.Context, org string) (string, error) {
	return f.preferred, nil
}

func newResolver(store *fakeStore) *Resolver {
	return NewResolver(store, breaker.NewManager())
}

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestEffectivePrice_PrefersPreferredVendor(t *testing.T) {
	store := &fakeStore{
		preferred: "acme",
		prices: map[string][]domain.PriceRecord{
			"SKU1": {
				{SKU: "SKU1", Vendor: "acme", Price: 10, Currency: "USD", EffectiveFrom: date("2026-01-01")},
				{SKU: "SKU1", Vendor: "other", Price: 5, Currency: "USD", EffectiveFrom: date("2026-01-01")},
			},
		},
	}
	r := newResolver(store)

	price, err := r.EffectivePrice(context.Background(), "org1", "SKU1", date("2026-02-01"))
	require.NoError(t, err)
	assert.Equal(t, 10.0, price.Price)
	assert.Equal(t, domain.SourcePreferredVendor, price.Source)
}

func TestEffectivePrice_FallsBackWhenPreferredMissing(t *testing.T) {
	store := &fakeStore{
		preferred: "acme",
		prices: map[string][]domain.PriceRecord{
			"SKU1": {
				{SKU: "SKU1", Vendor: "other", Price: 5, Currency: "USD", EffectiveFrom: date("2026-01-01")},
			},
		},
	}
	r := newResolver(store)

	price, err := r.EffectivePrice(context.Background(), "org1", "SKU1", date("2026-02-01"))
	require.NoError(t, err)
	assert.Equal(t, 5.0, price.Price)
	assert.Equal(t, domain.SourceFallbackVendor, price.Source)
}

func TestEffectivePrice_TieBrokenByLatestEffectiveFrom(t *testing.T) {
	store := &fakeStore{
		prices: map[string][]domain.PriceRecord{
			"SKU1": {
				{SKU: "SKU1", Vendor: "a", Price: 5, EffectiveFrom: date("2026-01-01")},
				{SKU: "SKU1", Vendor: "b", Price: 7, EffectiveFrom: date("2026-01-15")},
			},
		},
	}
	r := newResolver(store)

	price, err := r.EffectivePrice(context.Background(), "org1", "SKU1", date("2026-02-01"))
	require.NoError(t, err)
	assert.Equal(t, 7.0, price.Price)
}

func TestEffectivePrice_NoPriceFound(t *testing.T) {
	store := &fakeStore{}
	r := newResolver(store)

	_, err := r.EffectivePrice(context.Background(), "org1", "SKU1", date("2026-02-01"))
	assert.Equal(t, domain.KindNoPriceFound, domain.KindOf(err))
}

func TestRecipeCost_MissingPriceBecomesZeroCostLine(t *testing.T) {
	store := &fakeStore{
		prices: map[string][]domain.PriceRecord{
			"FLOUR": {{SKU: "FLOUR", Vendor: "a", Price: 2, EffectiveFrom: date("2026-01-01")}},
		},
	}
	r := newResolver(store)

	result, err := r.RecipeCost(context.Background(), "org1", Recipe{
		Ingredients: []RecipeIngredient{{SKU: "FLOUR", Qty: 2}, {SKU: "MISSING", Qty: 1}},
		PrepLossPct: 10,
		YieldQty:    2,
	}, date("2026-02-01"))
	require.NoError(t, err)

	// (2*2 + 0) * 1.10 / 2 = 2.2
	assert.InDelta(t, 2.2, result.UnitCost, 1e-9)
	assert.Len(t, result.Ingredients, 2)
	assert.Equal(t, domain.SourceMissingPrice, result.Ingredients[1].Source)
}

func TestRecipeCost_RejectsOutOfRangePrepLoss(t *testing.T) {
	store := &fakeStore{}
	r := newResolver(store)

	_, err := r.RecipeCost(context.Background(), "org1", Recipe{
		Ingredients: []RecipeIngredient{{SKU: "X", Qty: 1}},
		PrepLossPct: 150,
		YieldQty:    1,
	}, date("2026-02-01"))
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
}
