// Package persistence defines the Store contract this core expects from
// its transactional relational collaborator, and ships one
// Postgres-backed implementation.
package persistence

import (
	"context"
	"time"

	"github.com/sawpanic/invforecast/internal/domain"
)

// UsagePoint is one (date, qty) sample from post-reconciliation actuals.
type UsagePoint struct {
	Date time.Time
	Qty  float64
}

// MenuOccurrence marks that an item appears in a scheduled recipe on a date.
type MenuOccurrence struct {
	ItemCode string
	Date     time.Time
}

// Store is the persistence contract. All methods take a context so
// callers can bound query latency; implementations must not block
// indefinitely.
type Store interface {
	// Items & signals
	QueryItems(ctx context.Context, tenant, location string) ([]domain.Item, error)
	QueryHistory(ctx context.Context, itemCode string, days int) ([]UsagePoint, error)
	QueryPopulation(ctx context.Context, date time.Time) (float64, error)
	QueryMenuOccurrences(ctx context.Context, itemCode string, from, to time.Time) ([]MenuOccurrence, error)

	// Pricing
	QueryPrices(ctx context.Context, org, sku string) ([]domain.PriceRecord, error)
	QueryPreferredVendor(ctx context.Context, org string) (string, error)

	// Forecast runs & lines
	InsertForecastRun(ctx context.Context, run *domain.ForecastRun) error
	InsertForecastLine(ctx context.Context, line *domain.ForecastLine) error
	UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus, errMsg string, finishedAt time.Time) error
	GetForecastRun(ctx context.Context, runID string) (*domain.ForecastRun, error)
	ListForecastLines(ctx context.Context, runID string) ([]domain.ForecastLine, error)
	UpdateRunApproval(ctx context.Context, runID string, status domain.ApprovalStatus, approver string, approvedAt time.Time) error
	ListForecastLinesWithActuals(ctx context.Context, from, to time.Time) ([]domain.ForecastLine, error)

	// Approvals
	InsertApproval(ctx context.Context, event *domain.ApprovalEvent) error
	GetApproval(ctx context.Context, runID string) (*domain.ApprovalEvent, error)

	// Feedback
	InsertFeedback(ctx context.Context, entry *domain.FeedbackEntry) error
	ListFeedbackAfter(ctx context.Context, afterID int64, batch int) ([]FeedbackRow, error)
	ListRecentFeedbackForItem(ctx context.Context, itemCode string, limit int) ([]domain.FeedbackEntry, error)
	ListUnappliedFeedback(ctx context.Context, limit int) ([]domain.FeedbackEntry, error)
	MarkFeedbackApplied(ctx context.Context, feedbackID string, appliedAt time.Time) error

	// Weights
	GetWeights(ctx context.Context, itemCode string) (domain.WeightVector, bool, error)
	SaveWeights(ctx context.Context, itemCode string, weights domain.WeightVector) error
}

// FeedbackRow wraps a FeedbackEntry with the monotonically increasing id
// the stream poller orders on.
type FeedbackRow struct {
	ID    int64
	Entry domain.FeedbackEntry
}
