// Package ledger implements dual-control approval of ForecastRuns: a
// single, append-only terminal decision per run, recorded by someone
// other than the run's creator.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/invforecast/internal/authz"
	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/metrics"
	"github.com/sawpanic/invforecast/internal/persistence"
	"github.com/sawpanic/invforecast/internal/stream"
)

// Retrainer is the narrow Governor surface a rejection feeds: applying
// a negative-signal feedback entry immediately rather than waiting for
// the feedback poller's next pass.
type Retrainer interface {
	ApplyFeedback(ctx context.Context, entry *domain.FeedbackEntry) error
}

// Ledger records approve/reject decisions against completed ForecastRuns.
type Ledger struct {
	store    persistence.Store
	authz    authz.AuthZ
	bus      stream.EventBus
	metrics  metrics.Metrics
	governor Retrainer
}

// New constructs a Ledger. gov may be nil, in which case rejections are
// still persisted as feedback but never fed to a governor.
func New(store persistence.Store, az authz.AuthZ, bus stream.EventBus, m metrics.Metrics, gov Retrainer) *Ledger {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Ledger{store: store, authz: az, bus: bus, metrics: m, governor: gov}
}

// Approve records an approval decision on runID by actor, with a
// required note. Fails if the run is not completed, the actor created
// the run (dual control), or the run already has a terminal decision.
func (l *Ledger) Approve(ctx context.Context, runID string, actor domain.Actor, note string) (*domain.ApprovalEvent, error) {
	return l.decide(ctx, runID, actor, domain.ActionApprove, note, "")
}

// Reject records a rejection decision on runID by actor, with a
// required note and reason code. Same dual-control and single-decision
// rules as Approve.
func (l *Ledger) Reject(ctx context.Context, runID string, actor domain.Actor, note string, reason domain.RejectReason) (*domain.ApprovalEvent, error) {
	switch reason {
	case domain.ReasonInaccurate, domain.ReasonTooHigh, domain.ReasonTooLow, domain.ReasonOther:
	default:
		return nil, domain.InvalidArgument("reject requires a valid reason code")
	}
	return l.decide(ctx, runID, actor, domain.ActionReject, note, reason)
}

func (l *Ledger) decide(ctx context.Context, runID string, actor domain.Actor, action domain.ApprovalAction, note string, reason domain.RejectReason) (*domain.ApprovalEvent, error) {
	if note == "" {
		return nil, domain.InvalidArgument("a note is required to approve or reject a run")
	}
	if l.authz != nil {
		if err := l.authz.RequireRole(actor, authz.OpApproveReject); err != nil {
			return nil, err
		}
	}

	run, err := l.store.GetForecastRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.NotFound("forecast run not found: " + runID)
	}
	if run.Status != domain.RunCompleted {
		return nil, domain.InvalidRunState("run must be completed before it can be approved or rejected")
	}
	if run.CreatedBy != "" && run.CreatedBy == actor.Identity {
		return nil, domain.DualControlViolation("the run's creator cannot approve or reject it")
	}

	existing, err := l.store.GetApproval(ctx, runID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.AlreadyDecided("run already has a terminal decision")
	}

	now := time.Now()
	event := &domain.ApprovalEvent{
		EventID:               uuid.NewString(),
		RunID:                 runID,
		Action:                action,
		Approver:              actor.Identity,
		ApproverRole:          actor.Role,
		Timestamp:             now,
		Note:                  note,
		ReasonCode:            reason,
		SnapshotItems:         run.ItemsForecasted,
		SnapshotAvgConfidence: run.AvgConfidence,
		SnapshotTotalValue:    run.TotalPredictedValue,
	}

	if err := l.store.InsertApproval(ctx, event); err != nil {
		return nil, err
	}

	status := domain.ApprovalApproved
	topic := stream.TopicForecastApproved
	if action == domain.ActionReject {
		status = domain.ApprovalRejected
		topic = stream.TopicForecastRejected
	}
	if err := l.store.UpdateRunApproval(ctx, runID, status, actor.Identity, now); err != nil {
		return nil, err
	}

	l.metrics.Counter("ledger_decisions", map[string]string{"action": string(action)}).Inc(1)

	if action == domain.ActionReject {
		l.feedRejectionToGovernor(ctx, runID, actor, reason, now)
	}

	if l.bus != nil {
		payload := map[string]interface{}{
			"run_id":   runID,
			"approver": actor.Identity,
			"reason":   string(reason),
		}
		if err := l.bus.Emit(ctx, topic, payload); err != nil {
			log.Warn().Err(err).Str("run_id", runID).Msg("failed to emit ledger decision event")
		}
	}

	return event, nil
}

// feedRejectionToGovernor records one negative-signal FeedbackEntry per
// rejected run's lines and applies it immediately, rather than waiting
// for the feedback poller's next pass. Failures are logged, not
// returned: the rejection decision itself is already durably committed.
func (l *Ledger) feedRejectionToGovernor(ctx context.Context, runID string, actor domain.Actor, reason domain.RejectReason, at time.Time) {
	lines, err := l.store.ListForecastLines(ctx, runID)
	if err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("failed to load forecast lines for rejection feedback")
		return
	}

	for _, line := range lines {
		entry := &domain.FeedbackEntry{
			FeedbackID:         uuid.NewString(),
			LineID:             line.LineID,
			ItemCode:           line.ItemCode,
			Type:               domain.FeedbackRejection,
			OriginalPrediction: line.PredictedUsage,
			Reason:             "run rejected: " + string(reason),
			Submitter:          actor.Identity,
			SubmittedAt:        at,
		}

		if err := l.store.InsertFeedback(ctx, entry); err != nil {
			log.Warn().Err(err).Str("item", line.ItemCode).Msg("failed to persist rejection feedback entry")
			continue
		}
		if l.governor == nil {
			continue
		}
		if err := l.governor.ApplyFeedback(ctx, entry); err != nil {
			log.Warn().Err(err).Str("item", line.ItemCode).Msg("failed to apply rejection feedback to governor")
		}
	}
}

// GetRunState returns the run, its lines, and its terminal decision (nil
// if undecided).
func (l *Ledger) GetRunState(ctx context.Context, runID string) (*domain.ForecastRun, []domain.ForecastLine, *domain.ApprovalEvent, error) {
	run, err := l.store.GetForecastRun(ctx, runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if run == nil {
		return nil, nil, nil, domain.NotFound("forecast run not found: " + runID)
	}
	lines, err := l.store.ListForecastLines(ctx, runID)
	if err != nil {
		return nil, nil, nil, err
	}
	approval, err := l.store.GetApproval(ctx, runID)
	if err != nil {
		return nil, nil, nil, err
	}
	return run, lines, approval, nil
}
