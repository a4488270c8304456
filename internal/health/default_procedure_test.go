package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/persistence"
)

type fakeProcedureStore struct {
	persistence.Store

	items   []domain.Item
	history map[string][]persistence.UsagePoint
	lines   []domain.ForecastLine
}

func (s *fakeProcedureStore) QueryItems(ctx context.Context, tenant, location string) ([]domain.Item, error) {
	return s.items, nil
}

func (s *fakeProcedureStore) QueryHistory(ctx context.Context, itemCode string, days int) ([]persistence.UsagePoint, error) {
	return s.history[itemCode], nil
}

func (s *fakeProcedureStore) ListForecastLinesWithActuals(ctx context.Context, from, to time.Time) ([]domain.ForecastLine, error) {
	return s.lines, nil
}

func varPct(v float64) *float64 { return &v }

func TestDefaultProcedure_FlagsLowStockItemAsStockoutRisk(t *testing.T) {
	store := &fakeProcedureStore{
		items: []domain.Item{{Code: "LOWSTOCK", UnitCost: 2, CurrentStock: 2, LeadTimeDays: 3}},
		history: map[string][]persistence.UsagePoint{
			"LOWSTOCK": {{Qty: 10}, {Qty: 12}, {Qty: 8}, {Qty: 11}, {Qty: 9}, {Qty: 10}},
		},
	}
	proc := NewDefaultProcedure(store, "tenant-a", "loc-a", time.Hour)

	report, err := proc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.StockoutRiskCount)
}

func TestDefaultProcedure_WellStockedItemIsNotFlagged(t *testing.T) {
	store := &fakeProcedureStore{
		items: []domain.Item{{Code: "WELLSTOCKED", UnitCost: 2, CurrentStock: 1000, LeadTimeDays: 3}},
		history: map[string][]persistence.UsagePoint{
			"WELLSTOCKED": {{Qty: 10}, {Qty: 12}, {Qty: 8}, {Qty: 11}, {Qty: 9}, {Qty: 10}},
		},
	}
	proc := NewDefaultProcedure(store, "tenant-a", "loc-a", time.Hour)

	report, err := proc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.StockoutRiskCount)
}

func TestDefaultProcedure_ScoresAccuracyFromReconciledLines(t *testing.T) {
	store := &fakeProcedureStore{
		lines: []domain.ForecastLine{
			{ItemCode: "SKU1", VariancePct: varPct(5)},
			{ItemCode: "SKU2", VariancePct: varPct(50)},
		},
	}
	proc := NewDefaultProcedure(store, "tenant-a", "loc-a", time.Hour)

	report, err := proc.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 50.0, report.AccuracyPct, 0.01)
	assert.Equal(t, 50, report.Score)
}

func TestDefaultProcedure_NoReconciledLinesDefaultsScoreToHundred(t *testing.T) {
	store := &fakeProcedureStore{}
	proc := NewDefaultProcedure(store, "tenant-a", "loc-a", time.Hour)

	report, err := proc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, report.Score)
	assert.False(t, report.ShouldRetrain)
}

func TestNewDefaultProcedure_DefaultsNonPositiveWindow(t *testing.T) {
	proc := NewDefaultProcedure(&fakeProcedureStore{}, "tenant-a", "loc-a", 0)
	assert.Equal(t, 24*time.Hour, proc.window)
}
