package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/invforecast/internal/config"
	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/persistence"
	"github.com/sawpanic/invforecast/internal/policy"
)

type fakeFacadeStore struct {
	persistence.Store

	items      []domain.Item
	feedback   []domain.FeedbackEntry
	runs       map[string]*domain.ForecastRun
	lines      map[string][]domain.ForecastLine
	approvals  map[string]*domain.ApprovalEvent
	weights    map[string]domain.WeightVector
}

func newFakeFacadeStore() *fakeFacadeStore {
	return &fakeFacadeStore{
		runs:      make(map[string]*domain.ForecastRun),
		lines:     make(map[string][]domain.ForecastLine),
		approvals: make(map[string]*domain.ApprovalEvent),
		weights:   make(map[string]domain.WeightVector),
	}
}

func (s *fakeFacadeStore) QueryItems(ctx context.Context, tenant, location string) ([]domain.Item, error) {
	return s.items, nil
}

func (s *fakeFacadeStore) QueryHistory(ctx context.Context, itemCode string, days int) ([]persistence.UsagePoint, error) {
	return nil, nil
}

func (s *fakeFacadeStore) QueryPopulation(ctx context.Context, date time.Time) (float64, error) {
	return 0, nil
}

func (s *fakeFacadeStore) QueryMenuOccurrences(ctx context.Context, itemCode string, from, to time.Time) ([]persistence.MenuOccurrence, error) {
	return nil, nil
}

func (s *fakeFacadeStore) InsertForecastRun(ctx context.Context, run *domain.ForecastRun) error {
	s.runs[run.RunID] = run
	return nil
}

func (s *fakeFacadeStore) InsertForecastLine(ctx context.Context, line *domain.ForecastLine) error {
	s.lines[line.RunID] = append(s.lines[line.RunID], *line)
	return nil
}

func (s *fakeFacadeStore) UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus, errMsg string, finishedAt time.Time) error {
	run := s.runs[runID]
	run.Status = status
	run.ErrorMsg = errMsg
	run.FinishedAt = &finishedAt
	return nil
}

func (s *fakeFacadeStore) GetForecastRun(ctx context.Context, runID string) (*domain.ForecastRun, error) {
	return s.runs[runID], nil
}

func (s *fakeFacadeStore) ListForecastLines(ctx context.Context, runID string) ([]domain.ForecastLine, error) {
	return s.lines[runID], nil
}

func (s *fakeFacadeStore) InsertFeedback(ctx context.Context, entry *domain.FeedbackEntry) error {
	s.feedback = append(s.feedback, *entry)
	return nil
}

func (s *fakeFacadeStore) GetWeights(ctx context.Context, itemCode string) (domain.WeightVector, bool, error) {
	w, ok := s.weights[itemCode]
	return w, ok, nil
}

func (s *fakeFacadeStore) SaveWeights(ctx context.Context, itemCode string, weights domain.WeightVector) error {
	s.weights[itemCode] = weights
	return nil
}

func (s *fakeFacadeStore) MarkFeedbackApplied(ctx context.Context, feedbackID string, appliedAt time.Time) error {
	return nil
}

func (s *fakeFacadeStore) GetApproval(ctx context.Context, runID string) (*domain.ApprovalEvent, error) {
	return s.approvals[runID], nil
}

func (s *fakeFacadeStore) InsertApproval(ctx context.Context, event *domain.ApprovalEvent) error {
	s.approvals[event.RunID] = event
	return nil
}

func (s *fakeFacadeStore) UpdateRunApproval(ctx context.Context, runID string, status domain.ApprovalStatus, approver string, approvedAt time.Time) error {
	run := s.runs[runID]
	run.ApprovalStatus = status
	run.Approver = approver
	run.ApprovedAt = &approvedAt
	return nil
}

func (s *fakeFacadeStore) ListForecastLinesWithActuals(ctx context.Context, from, to time.Time) ([]domain.ForecastLine, error) {
	return nil, nil
}

func TestNew_WiresAllComponents(t *testing.T) {
	store := newFakeFacadeStore()
	f := New(store, nil, nil, nil, config.Default(), nil)

	assert.NotNil(t, f.Engine)
	assert.NotNil(t, f.Ledger)
	assert.NotNil(t, f.Governor)
	assert.NotNil(t, f.Stream)
	assert.NotNil(t, f.Auditor)
}

func TestFacade_GenerateForecastDelegatesToEngine(t *testing.T) {
	store := newFakeFacadeStore()
	store.items = []domain.Item{{Code: "SKU1", Active: true, ParLevel: 10, CurrentStock: 2, LeadTimeDays: 3}}

	f := New(store, nil, nil, nil, config.Default(), nil)
	run, err := f.GenerateForecast(context.Background(), "", 7, "tenant-a", "loc-a", "system")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.Equal(t, 1, run.ItemsForecasted)
}

func TestFacade_SubmitFeedbackAssignsIDAndTimestamp(t *testing.T) {
	store := newFakeFacadeStore()
	f := New(store, nil, nil, nil, config.Default(), nil)

	entry := &domain.FeedbackEntry{ItemCode: "SKU1", Type: domain.FeedbackAdjustment, Reason: "menu change"}
	require.NoError(t, f.SubmitFeedback(context.Background(), entry))

	assert.NotEmpty(t, entry.FeedbackID)
	assert.False(t, entry.SubmittedAt.IsZero())
	require.Len(t, store.feedback, 1)
}

func TestFacade_CalculateAccuracyWithNoReconciledLines(t *testing.T) {
	store := newFakeFacadeStore()
	f := New(store, nil, nil, nil, config.Default(), nil)

	record, err := f.CalculateAccuracy(context.Background(), time.Now().Add(-time.Hour), time.Now(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, record.Evaluated)
}

func TestNew_StartsEventBusSoDecisionEventsAreNotDropped(t *testing.T) {
	store := newFakeFacadeStore()
	f := New(store, nil, nil, nil, config.Default(), nil)

	err := f.Bus.Emit(context.Background(), "forecast_approved", map[string]interface{}{"run_id": "run-1"})
	assert.NoError(t, err)
}

func TestFacade_RejectFeedsNegativeSignalFeedbackToGovernor(t *testing.T) {
	store := newFakeFacadeStore()
	store.items = []domain.Item{{Code: "SKU1", Active: true, ParLevel: 10, CurrentStock: 2, LeadTimeDays: 3}}

	f := New(store, nil, nil, nil, config.Default(), nil)
	run, err := f.GenerateForecast(context.Background(), "", 7, "tenant-a", "loc-a", "creator")
	require.NoError(t, err)

	_, err = f.Reject(context.Background(), run.RunID, domain.Actor{Identity: "reviewer", Role: domain.RoleFinance}, "overshoots demand", domain.ReasonTooHigh)
	require.NoError(t, err)

	require.NotEmpty(t, store.feedback)
	assert.Equal(t, domain.FeedbackRejection, store.feedback[0].Type)
}

func TestFacade_GenerateRecommendationsHonorsServiceLevelOverride(t *testing.T) {
	store := newFakeFacadeStore()
	f := New(store, nil, nil, nil, config.Default(), nil)

	items := []policy.ItemConsumption{
		{ItemCode: "SKU1", AnnualValue: 1000, DailyUsage: []float64{10, 12, 8, 11, 9, 10}, LeadTimeDays: 3, CurrentStock: 5},
	}
	defaultRecs := f.GenerateRecommendations(items, policy.ServiceLevels{})
	overriddenRecs := f.GenerateRecommendations(items, policy.ServiceLevels{C: 3.0})

	require.Len(t, defaultRecs, 1)
	require.Len(t, overriddenRecs, 1)
	assert.Greater(t, overriddenRecs[0].SafetyStock, defaultRecs[0].SafetyStock)
}
