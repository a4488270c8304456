// Package app wires the Signal Providers, Cost Resolver, Forecasting
// Engine, Ledger, and EventBus behind one Facade that the CLI and the
// scheduler's job handlers depend on. The Feedback Stream and Governor
// are wired here from the Store, EventBus and Metrics and never hold a
// direct reference to the Engine or Ledger.
package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/invforecast/internal/accuracy"
	"github.com/sawpanic/invforecast/internal/authz"
	"github.com/sawpanic/invforecast/internal/config"
	"github.com/sawpanic/invforecast/internal/cost"
	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/feedback"
	"github.com/sawpanic/invforecast/internal/governor"
	"github.com/sawpanic/invforecast/internal/health"
	"github.com/sawpanic/invforecast/internal/infra/breaker"
	"github.com/sawpanic/invforecast/internal/ledger"
	"github.com/sawpanic/invforecast/internal/metrics"
	"github.com/sawpanic/invforecast/internal/persistence"
	"github.com/sawpanic/invforecast/internal/policy"
	"github.com/sawpanic/invforecast/internal/signals"
	"github.com/sawpanic/invforecast/internal/forecast"
	"github.com/sawpanic/invforecast/internal/stream"
)

// Facade is the single entry point the CLI and the scheduler's job
// handlers depend on.
type Facade struct {
	Store   persistence.Store
	Bus     stream.EventBus
	Metrics metrics.Metrics
	Config  config.Config

	Providers *signals.Providers
	Resolver  *cost.Resolver
	Engine    *forecast.Engine
	Ledger    *ledger.Ledger
	Governor  *governor.Governor
	Stream    *feedback.Stream
	Auditor   *health.Auditor
}

// New wires every component from its dependencies. cache and procedure
// may be nil (cache degrades to direct store reads; a nil procedure
// makes the Auditor reject RunAudit calls rather than panic).
func New(store persistence.Store, cache *signals.Cache, az authz.AuthZ, m metrics.Metrics, cfg config.Config, procedure health.Procedure) *Facade {
	if m == nil {
		m = metrics.Noop{}
	}

	bus := stream.NewInProcBus()
	if err := bus.Start(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to start event bus")
	}
	breakers := breaker.NewManager()
	resolver := cost.NewResolver(store, breakers)
	providers := signals.NewProviders(store, cache)
	engine := forecast.NewEngine(store, providers, resolver, m, cfg.ForecastShadowMode)
	gov := governor.New(store, m)
	lgr := ledger.New(store, az, bus, m, gov)
	strm := feedback.New(store, bus, gov, m, cfg.FeedbackPollInterval, cfg.FeedbackBatchSize, cfg.FeedbackDriftThreshold)
	auditor := health.NewAuditor(procedure, m, cfg.EnableAutoRetrain)

	return &Facade{
		Store: store, Bus: bus, Metrics: m, Config: cfg,
		Providers: providers, Resolver: resolver, Engine: engine,
		Ledger: lgr, Governor: gov, Stream: strm, Auditor: auditor,
	}
}

// GenerateForecast runs one forecasting cycle. Thin pass-through so
// callers only need the Facade.
func (f *Facade) GenerateForecast(ctx context.Context, runID string, horizonDays int, tenant, location, createdBy string) (*domain.ForecastRun, error) {
	return f.Engine.GenerateForecast(ctx, runID, horizonDays, tenant, location, createdBy)
}

// Approve and Reject delegate dual-control decisions to the Ledger.
func (f *Facade) Approve(ctx context.Context, runID string, actor domain.Actor, note string) (*domain.ApprovalEvent, error) {
	return f.Ledger.Approve(ctx, runID, actor, note)
}

func (f *Facade) Reject(ctx context.Context, runID string, actor domain.Actor, note string, reason domain.RejectReason) (*domain.ApprovalEvent, error) {
	return f.Ledger.Reject(ctx, runID, actor, note, reason)
}

// GetRunState returns a run, its lines, and its terminal decision.
func (f *Facade) GetRunState(ctx context.Context, runID string) (*domain.ForecastRun, []domain.ForecastLine, *domain.ApprovalEvent, error) {
	return f.Ledger.GetRunState(ctx, runID)
}

// SubmitFeedback persists a new feedback entry; the stream's poll loop
// (or ApplyPendingFeedback) picks it up on its own cadence.
func (f *Facade) SubmitFeedback(ctx context.Context, entry *domain.FeedbackEntry) error {
	if entry.FeedbackID == "" {
		entry.FeedbackID = uuid.NewString()
	}
	if entry.SubmittedAt.IsZero() {
		entry.SubmittedAt = time.Now()
	}
	return f.Store.InsertFeedback(ctx, entry)
}

// ApplyPendingFeedback runs one synchronous governor pass over
// unapplied feedback, independent of the poll loop.
func (f *Facade) ApplyPendingFeedback(ctx context.Context, limit int) (int, error) {
	return f.Stream.ApplyPendingFeedback(ctx, limit)
}

// CalculateAccuracy scores every reconciled forecast line in [from, to],
// bucketed by ABC class when classOf is supplied.
func (f *Facade) CalculateAccuracy(ctx context.Context, from, to time.Time, classOf func(itemCode string) (domain.ABCClass, bool)) (domain.AccuracyRecord, error) {
	lines, err := f.Store.ListForecastLinesWithActuals(ctx, from, to)
	if err != nil {
		return domain.AccuracyRecord{}, err
	}
	return accuracy.Calculate(lines, from, to, classOf), nil
}

// GenerateRecommendations runs the ABC/safety-stock policy over the
// supplied consumption snapshot, independent of any ForecastRun. levels
// overrides the per-class service-level z-score; pass the zero value
// for the package defaults.
func (f *Facade) GenerateRecommendations(items []policy.ItemConsumption, levels policy.ServiceLevels) []domain.Recommendation {
	return policy.GenerateRecommendations(items, levels)
}

// StartStream begins the feedback poller.
func (f *Facade) StartStream(ctx context.Context) error { return f.Stream.Start(ctx) }

// StopStream drains the feedback poller, bounded by ctx.
func (f *Facade) StopStream(ctx context.Context) error { return f.Stream.Stop(ctx) }

// RunHealthAudit runs one audit pass.
func (f *Facade) RunHealthAudit(ctx context.Context) (domain.HealthReport, error) {
	return f.Auditor.RunAudit(ctx)
}

// Stop releases the background resources the Facade started: the
// feedback poller (a no-op if it was never started) and the event bus.
func (f *Facade) Stop(ctx context.Context) error {
	if err := f.Stream.Stop(ctx); err != nil {
		return err
	}
	return f.Bus.Stop(ctx)
}
