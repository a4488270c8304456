// Package health runs the scheduled inventory-health audit: a
// pluggable external procedure wrapped in a circuit breaker, evaluated
// against alert thresholds, with bounded history and a guarded
// auto-retrain trigger.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/infra/breaker"
	"github.com/sawpanic/invforecast/internal/metrics"
)

const maxHistory = 100

// Procedure is the pluggable external audit computation. This package
// ships DefaultProcedure; an embedding application may supply its own.
// The Auditor guards and interprets whichever procedure it is given.
type Procedure interface {
	Run(ctx context.Context) (domain.HealthReport, error)
}

const (
	scoreCritical = 60
	scoreWarning  = 75
	scoreDropAlert = 15
	stockoutRiskAlert = 10

	retrainCooldown = 24 * time.Hour
)

// Auditor schedules and interprets health audits.
type Auditor struct {
	procedure Procedure
	breakers  *breaker.Manager
	metrics   metrics.Metrics

	enableAutoRetrain bool

	mu               sync.Mutex
	history          []domain.HealthReport
	lastRetrainAt    time.Time
	running          int32
}

// NewAuditor wires a Procedure behind a dedicated "audit" circuit
// breaker. enableAutoRetrain gates whether a qualifying report can ever
// signal a retrain.
func NewAuditor(procedure Procedure, m metrics.Metrics, enableAutoRetrain bool) *Auditor {
	if m == nil {
		m = metrics.Noop{}
	}
	breakers := breaker.NewManager()
	breakers.Register("audit", 3, 30*time.Second)
	return &Auditor{procedure: procedure, breakers: breakers, metrics: m, enableAutoRetrain: enableAutoRetrain}
}

// RunAudit executes one audit cycle. Concurrent calls while one is
// already in flight are rejected rather than queued, since audits are
// only meaningful one at a time.
func (a *Auditor) RunAudit(ctx context.Context) (domain.HealthReport, error) {
	if !atomic.CompareAndSwapInt32(&a.running, 0, 1) {
		return domain.HealthReport{}, domain.InvalidRunState("an audit is already running")
	}
	defer atomic.StoreInt32(&a.running, 0)

	if a.procedure == nil {
		return domain.HealthReport{}, domain.DependencyUnavailable("no audit procedure configured", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	start := time.Now()
	result, err := a.breakers.Execute("audit", func() (interface{}, error) {
		return a.procedure.Run(ctx)
	})
	if err != nil {
		return domain.HealthReport{}, err
	}
	report := result.(domain.HealthReport)
	report.Duration = time.Since(start)
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now()
	}

	alerts := a.evaluateAlerts(report)
	report.Alerts = alerts

	shouldRetrain := report.ShouldRetrain && a.enableAutoRetrain && a.retrainCooldownElapsed()
	report.ShouldRetrain = shouldRetrain
	if shouldRetrain {
		a.mu.Lock()
		a.lastRetrainAt = time.Now()
		a.mu.Unlock()
	}

	a.record(report)
	a.metrics.Gauge("health_score").Set(float64(report.Score))
	a.metrics.Gauge("health_stockout_risk_count").Set(float64(report.StockoutRiskCount))

	for _, alert := range alerts {
		log.Warn().Str("alert", alert).Int("score", report.Score).Msg("health audit alert")
	}

	return report, nil
}

func (a *Auditor) evaluateAlerts(report domain.HealthReport) []string {
	var alerts []string
	if report.Score < scoreCritical {
		alerts = append(alerts, "critical: health score below critical threshold")
	} else if report.Score < scoreWarning {
		alerts = append(alerts, "warning: health score below warning threshold")
	}
	if prev, ok := a.previousScore(); ok && prev-report.Score > scoreDropAlert {
		alerts = append(alerts, "warning: health score dropped sharply since last audit")
	}
	if report.StockoutRiskCount > stockoutRiskAlert {
		alerts = append(alerts, "warning: stockout risk count exceeds threshold")
	}
	return alerts
}

func (a *Auditor) previousScore() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.history) == 0 {
		return 0, false
	}
	return a.history[len(a.history)-1].Score, true
}

func (a *Auditor) retrainCooldownElapsed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastRetrainAt.IsZero() {
		return true
	}
	return time.Since(a.lastRetrainAt) >= retrainCooldown
}

func (a *Auditor) record(report domain.HealthReport) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, report)
	if len(a.history) > maxHistory {
		a.history = a.history[len(a.history)-maxHistory:]
	}
}

// History returns a copy of the retained audit reports, oldest first.
func (a *Auditor) History() []domain.HealthReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.HealthReport, len(a.history))
	copy(out, a.history)
	return out
}
