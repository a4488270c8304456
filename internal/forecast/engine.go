package forecast

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/invforecast/internal/cost"
	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/metrics"
	"github.com/sawpanic/invforecast/internal/persistence"
	"github.com/sawpanic/invforecast/internal/signals"
)

// Engine fuses signals with learned weights into per-item forecasts and
// order recommendations, persisting a ForecastRun and its ForecastLines.
type Engine struct {
	store     persistence.Store
	providers *signals.Providers
	resolver  *cost.Resolver
	metrics   metrics.Metrics
	shadowMode bool
}

// NewEngine constructs the Forecasting Engine.
func NewEngine(store persistence.Store, providers *signals.Providers, resolver *cost.Resolver, m metrics.Metrics, shadowMode bool) *Engine {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Engine{store: store, providers: providers, resolver: resolver, metrics: m, shadowMode: shadowMode}
}

// itemResult is the explicit per-item outcome: only infrastructure
// errors (persistence unreachable) short-circuit a run; per-item
// failures are contained here and logged.
type itemResult struct {
	line *domain.ForecastLine
	err  error
}

// GenerateForecast runs one forecasting cycle over every active item for
// tenant/location, persisting a ForecastRun (its ShadowMode flag set from
// the engine's shadowMode setting) and its lines. Items are processed
// sequentially, in the store's stable iteration order. The run's total
// predicted value uses each item's master unit cost; the Cost Resolver
// passed to NewEngine is not consulted.
func (e *Engine) GenerateForecast(ctx context.Context, runID string, horizonDays int, tenant, location, createdBy string) (*domain.ForecastRun, error) {
	if runID == "" {
		runID = uuid.NewString()
	}

	now := time.Now()
	run := &domain.ForecastRun{
		RunID:        runID,
		ForecastDate: now,
		HorizonDays:  horizonDays,
		ModelVersion: "holt-v1",
		Tenant:       tenant,
		Location:     location,
		CreatedBy:    createdBy,
		ShadowMode:   e.shadowMode,
		Status:       domain.RunRunning,
		ApprovalStatus: domain.ApprovalPending,
		StartedAt:    now,
	}

	if err := e.store.InsertForecastRun(ctx, run); err != nil {
		return nil, domain.DependencyUnavailable("failed to create forecast run", err)
	}

	items, err := e.store.QueryItems(ctx, tenant, location)
	if err != nil {
		finishedAt := time.Now()
		_ = e.store.UpdateRunStatus(ctx, runID, domain.RunFailed, err.Error(), finishedAt)
		return nil, domain.DependencyUnavailable("failed to query active items", err)
	}

	var (
		totalConfidence float64
		totalValue      float64
		inserted        int
	)

	for _, item := range items {
		if !item.Active {
			continue
		}
		res := e.forecastItem(ctx, run, item)
		if res.err != nil {
			log.Warn().Err(res.err).Str("item", item.Code).Str("run_id", runID).Msg("per-item forecast skipped")
			continue
		}
		if err := e.store.InsertForecastLine(ctx, res.line); err != nil {
			finishedAt := time.Now()
			_ = e.store.UpdateRunStatus(ctx, runID, domain.RunFailed, err.Error(), finishedAt)
			return nil, domain.DependencyUnavailable("failed to persist forecast line", err)
		}
		inserted++
		totalConfidence += res.line.Confidence
		totalValue += res.line.PredictedUsage * item.UnitCost
	}

	finishedAt := time.Now()
	run.ItemsForecasted = inserted
	if inserted > 0 {
		run.AvgConfidence = totalConfidence / float64(inserted)
	}
	run.TotalPredictedValue = totalValue
	run.Status = domain.RunCompleted
	run.FinishedAt = &finishedAt

	if err := e.store.UpdateRunStatus(ctx, runID, domain.RunCompleted, "", finishedAt); err != nil {
		return nil, domain.DependencyUnavailable("failed to finalize forecast run", err)
	}

	e.metrics.Gauge("forecast_run_items").Set(float64(inserted))
	e.metrics.Histogram("forecast_run_duration").Observe(finishedAt.Sub(now).Seconds())

	return run, nil
}

func (e *Engine) forecastItem(ctx context.Context, run *domain.ForecastRun, item domain.Item) itemResult {
	history, err := e.providers.UsageHistory(ctx, item.Code, 30)
	if err != nil {
		return itemResult{err: err}
	}

	values := make([]float64, len(history))
	for i, h := range history {
		values[i] = h.Qty
	}

	base := HoltSmooth(values, run.HorizonDays)
	confidence := Confidence(values)

	weights, ok, err := e.store.GetWeights(ctx, item.Code)
	if err != nil {
		return itemResult{err: err}
	}
	if !ok {
		weights = domain.DefaultWeights()
	}

	popFactor := e.providers.PopulationFactor(ctx, run.ForecastDate)
	forecastFor := run.ForecastDate.AddDate(0, 0, run.HorizonDays)
	menuFactor := e.providers.MenuRotationFactor(ctx, item.Code, run.ForecastDate, forecastFor)
	season := e.providers.SeasonalityFactor(nil)

	pred, contribution := Fuse(base, weights, SignalInputs{PopFactor: popFactor, MenuFactor: menuFactor, Seasonality: season})
	if pred < 0 {
		pred = 0
	}

	policyResult := OrderQuantity(PolicyInput{
		Pred:         pred,
		ParLevel:     item.ParLevel,
		CurrentStock: item.CurrentStock,
		LeadTimeDays: item.LeadTimeDays,
	})

	line := &domain.ForecastLine{
		LineID:          uuid.NewString(),
		RunID:           run.RunID,
		ItemCode:        item.Code,
		Category:        item.Category,
		Unit:            item.Unit,
		StorageLocation: item.StorageLocation,
		PredictedUsage:  pred,
		Confidence:      confidence,
		Contribution:    contribution,
		Weights:         weights.Clone(),
		RecommendedOrderQty: policyResult.OrderQty,
		OrderReason:     policyResult.Reason,
		ReorderPoint:    policyResult.ReorderPoint,
		SafetyStock:     policyResult.SafetyStock,
		LeadTimeDays:    item.LeadTimeDays,
		ParLevel:        item.ParLevel,
		CurrentStock:    item.CurrentStock,
		OrderStatus:     domain.OrderPending,
		ForecastForDate: forecastFor,
	}

	return itemResult{line: line}
}
