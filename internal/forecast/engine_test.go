package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/persistence"
	"github.com/sawpanic/invforecast/internal/signals"
)

type fakeEngineStore struct {
	persistence.Store
	items        []domain.Item
	history      map[string][]persistence.UsagePoint
	historyErr   map[string]error
	lines        []*domain.ForecastLine
	run          *domain.ForecastRun
	queryItemsErr error
	insertLineErr error
}

func (f *fakeEngineStore) QueryItems(ctx context.Context, tenant, location string) ([]domain.Item, error) {
	return f.items, f.queryItemsErr
}

func (f *fakeEngineStore) QueryHistory(ctx context.Context, itemCode string, days int) ([]persistence.UsagePoint, error) {
	if f.historyErr != nil {
		if err, ok := f.historyErr[itemCode]; ok {
			return nil, err
		}
	}
	return f.history[itemCode], nil
}

func (f *fakeEngineStore) QueryPopulation(ctx context.Context, date time.Time) (float64, error) {
	return 150, nil
}

func (f *fakeEngineStore) QueryMenuOccurrences(ctx context.Context, itemCode string, from, to time.Time) ([]persistence.MenuOccurrence, error) {
	return nil, nil
}

func (f *fakeEngineStore) InsertForecastRun(ctx context.Context, run *domain.ForecastRun) error {
	f.run = run
	return nil
}

func (f *fakeEngineStore) InsertForecastLine(ctx context.Context, line *domain.ForecastLine) error {
	if f.insertLineErr != nil {
		return f.insertLineErr
	}
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeEngineStore) UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus, errMsg string, finishedAt time.Time) error {
	if f.run != nil {
		f.run.Status = status
		f.run.ErrorMsg = errMsg
	}
	return nil
}

func (f *fakeEngineStore) GetWeights(ctx context.Context, itemCode string) (domain.WeightVector, bool, error) {
	return nil, false, nil
}

func flatHistory(qty float64, n int) []persistence.UsagePoint {
	out := make([]persistence.UsagePoint, n)
	for i := range out {
		out[i] = persistence.UsagePoint{Date: time.Now().AddDate(0, 0, -n+i), Qty: qty}
	}
	return out
}

func TestGenerateForecast_HappyPath(t *testing.T) {
	store := &fakeEngineStore{
		items: []domain.Item{
			{Code: "SKU1", ParLevel: 20, CurrentStock: 5, LeadTimeDays: 7, UnitCost: 2, Active: true},
			{Code: "SKU2", ParLevel: 10, CurrentStock: 100, LeadTimeDays: 3, UnitCost: 1, Active: true},
			{Code: "SKU3", ParLevel: 5, CurrentStock: 5, LeadTimeDays: 3, UnitCost: 1, Active: false},
		},
		history: map[string][]persistence.UsagePoint{
			"SKU1": flatHistory(10, 7),
			"SKU2": flatHistory(1, 7),
		},
	}
	providers := signals.NewProviders(store, nil)
	engine := NewEngine(store, providers, nil, nil, true)

	run, err := engine.GenerateForecast(context.Background(), "", 7, "org1", "loc1", "tester")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.Equal(t, 2, run.ItemsForecasted) // SKU3 inactive, skipped
	assert.Len(t, store.lines, 2)
	assert.True(t, run.ShadowMode)
	assert.Greater(t, run.AvgConfidence, 0.0)

	var sku1Line *domain.ForecastLine
	for _, l := range store.lines {
		if l.ItemCode == "SKU1" {
			sku1Line = l
		}
	}
	require.NotNil(t, sku1Line)
	assert.Equal(t, ReasonBelowReorderPoint, sku1Line.OrderReason)
}

func TestGenerateForecast_QueryItemsFailureMarksRunFailed(t *testing.T) {
	store := &fakeEngineStore{queryItemsErr: assertErr{}}
	providers := signals.NewProviders(store, nil)
	engine := NewEngine(store, providers, nil, nil, true)

	_, err := engine.GenerateForecast(context.Background(), "", 7, "org1", "loc1", "tester")
	require.Error(t, err)
	require.NotNil(t, store.run)
	assert.Equal(t, domain.RunFailed, store.run.Status)
}

func TestGenerateForecast_PerItemFailureIsSkippedNotFatal(t *testing.T) {
	store := &fakeEngineStore{
		items: []domain.Item{
			{Code: "BAD", Active: true},
			{Code: "GOOD", ParLevel: 10, CurrentStock: 100, LeadTimeDays: 3, UnitCost: 1, Active: true},
		},
		history: map[string][]persistence.UsagePoint{
			"GOOD": flatHistory(1, 7),
		},
		historyErr: map[string]error{"BAD": assertErr{}},
	}
	providers := signals.NewProviders(store, nil)
	engine := NewEngine(store, providers, nil, nil, true)

	run, err := engine.GenerateForecast(context.Background(), "", 7, "org1", "loc1", "tester")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.Equal(t, 1, run.ItemsForecasted)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
