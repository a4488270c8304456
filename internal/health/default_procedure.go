package health

import (
	"context"
	"fmt"
	"time"

	"github.com/sawpanic/invforecast/internal/accuracy"
	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/persistence"
	"github.com/sawpanic/invforecast/internal/policy"
)

// DefaultProcedure is the concrete standalone Audit.run() this core
// ships so the CLI is runnable without an embedding application
// supplying its own Procedure. It scores the last `window` of
// reconciled forecast lines for accuracy and flags items whose current
// stock has fallen under their reorder point as stockout risks,
// bucketed by ABC class (annual value approximated from unit cost times
// current stock, since no dedicated consumption-value feed exists
// outside a ForecastRun).
type DefaultProcedure struct {
	store    persistence.Store
	tenant   string
	location string
	window   time.Duration
}

// NewDefaultProcedure constructs the standalone audit procedure.
func NewDefaultProcedure(store persistence.Store, tenant, location string, window time.Duration) *DefaultProcedure {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &DefaultProcedure{store: store, tenant: tenant, location: location, window: window}
}

func (p *DefaultProcedure) Run(ctx context.Context) (domain.HealthReport, error) {
	now := time.Now()
	from := now.Add(-p.window)

	lines, err := p.store.ListForecastLinesWithActuals(ctx, from, now)
	if err != nil {
		return domain.HealthReport{}, err
	}
	record := accuracy.Calculate(lines, from, now, nil)

	items, err := p.store.QueryItems(ctx, p.tenant, p.location)
	if err != nil {
		return domain.HealthReport{}, err
	}

	consumption := make([]policy.ItemConsumption, 0, len(items))
	for _, item := range items {
		usage, err := p.store.QueryHistory(ctx, item.Code, 30)
		if err != nil {
			return domain.HealthReport{}, err
		}
		daily := make([]float64, len(usage))
		for i, u := range usage {
			daily[i] = u.Qty
		}
		consumption = append(consumption, policy.ItemConsumption{
			ItemCode:     item.Code,
			AnnualValue:  item.UnitCost * item.CurrentStock,
			DailyUsage:   daily,
			LeadTimeDays: item.LeadTimeDays,
			CurrentStock: item.CurrentStock,
		})
	}
	classes := policy.Classify(consumption)

	stockoutsByClass := map[domain.ABCClass]int{}
	stockoutTotal := 0
	for _, c := range consumption {
		if policy.Recommend(c, classes[c.ItemCode], policy.ServiceLevels{}) == nil {
			continue
		}
		stockoutTotal++
		stockoutsByClass[classes[c.ItemCode]]++
	}

	score := int(record.AccuracyPct)
	if record.Evaluated == 0 {
		score = 100
	}

	status := "healthy"
	switch {
	case score < scoreCritical:
		status = "critical"
	case score < scoreWarning:
		status = "warning"
	}

	var issues []string
	if stockoutTotal > 0 {
		issues = append(issues, fmt.Sprintf("%d item(s) below their reorder point", stockoutTotal))
	}
	if record.Evaluated > 0 && record.AccuracyPct < 90 {
		issues = append(issues, fmt.Sprintf("forecast accuracy at %.1f%% over %d evaluated line(s)", record.AccuracyPct, record.Evaluated))
	}

	return domain.HealthReport{
		Timestamp:         now,
		Score:             score,
		Status:            status,
		Issues:            issues,
		AccuracyPct:       record.AccuracyPct,
		StockoutRiskCount: stockoutTotal,
		StockoutsByClass:  stockoutsByClass,
		// This procedure only observes and reports; it applies no
		// automatic corrective mutations of its own.
		FixedMutations: 0,
		ShouldRetrain:  score < scoreCritical,
	}, nil
}

var _ Procedure = (*DefaultProcedure)(nil)
