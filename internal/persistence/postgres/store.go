package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/persistence"
)

// Store implements persistence.Store against a Postgres database via
// sqlx.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewStore wraps an already-open sqlx connection.
func NewStore(db *sqlx.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

func (s *Store) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

type itemRow struct {
	Code            string  `db:"code"`
	Category        string  `db:"category"`
	Unit            string  `db:"unit"`
	StorageLocation string  `db:"storage_location"`
	ParLevel        float64 `db:"par_level"`
	CurrentStock    float64 `db:"current_stock"`
	LeadTimeDays    int     `db:"lead_time_days"`
	UnitCost        float64 `db:"unit_cost"`
	Active          bool    `db:"active"`
}

func (r itemRow) toDomain() domain.Item {
	return domain.Item{
		Code: r.Code, Category: r.Category, Unit: r.Unit, StorageLocation: r.StorageLocation,
		ParLevel: r.ParLevel, CurrentStock: r.CurrentStock, LeadTimeDays: r.LeadTimeDays,
		UnitCost: r.UnitCost, Active: r.Active,
	}
}

// QueryItems returns every item-master row for tenant/location.
func (s *Store) QueryItems(parent context.Context, tenant, location string) ([]domain.Item, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var rows []itemRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT code, category, unit, storage_location, par_level, current_stock,
		       lead_time_days, unit_cost, active
		FROM items
		WHERE tenant = $1 AND location = $2
		ORDER BY code`, tenant, location)
	if err != nil {
		return nil, err
	}
	items := make([]domain.Item, len(rows))
	for i, r := range rows {
		items[i] = r.toDomain()
	}
	return items, nil
}

// QueryHistory returns the last `days` days of reconciled usage for itemCode.
func (s *Store) QueryHistory(parent context.Context, itemCode string, days int) ([]persistence.UsagePoint, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var points []persistence.UsagePoint
	err := s.db.SelectContext(ctx, &points, `
		SELECT date, qty FROM usage_history
		WHERE item_code = $1 AND date >= NOW() - ($2 || ' days')::interval
		ORDER BY date ASC`, itemCode, days)
	return points, err
}

// QueryPopulation returns total facility population on date.
func (s *Store) QueryPopulation(parent context.Context, date time.Time) (float64, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var total float64
	err := s.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(count), 0) FROM population_counts WHERE date = $1`, date)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return total, err
}

// QueryMenuOccurrences returns scheduled-menu rows mentioning itemCode
// within [from, to].
func (s *Store) QueryMenuOccurrences(parent context.Context, itemCode string, from, to time.Time) ([]persistence.MenuOccurrence, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var rows []persistence.MenuOccurrence
	err := s.db.SelectContext(ctx, &rows, `
		SELECT item_code, date FROM menu_occurrences
		WHERE item_code = $1 AND date BETWEEN $2 AND $3`, itemCode, from, to)
	return rows, err
}

type priceRow struct {
	SKU           string     `db:"sku"`
	Vendor        string     `db:"vendor"`
	Price         float64    `db:"price"`
	Currency      string     `db:"currency"`
	EffectiveFrom time.Time  `db:"effective_from"`
	EffectiveTo   *time.Time `db:"effective_to"`
	Preferred     bool       `db:"preferred"`
}

func (r priceRow) toDomain() domain.PriceRecord {
	return domain.PriceRecord{
		SKU: r.SKU, Vendor: r.Vendor, Price: r.Price, Currency: r.Currency,
		EffectiveFrom: r.EffectiveFrom, EffectiveTo: r.EffectiveTo, Preferred: r.Preferred,
	}
}

// QueryPrices returns every price record for org/sku, most recent first.
func (s *Store) QueryPrices(parent context.Context, org, sku string) ([]domain.PriceRecord, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var rows []priceRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT sku, vendor, price, currency, effective_from, effective_to, preferred
		FROM vendor_prices
		WHERE org = $1 AND sku = $2
		ORDER BY effective_from DESC`, org, sku)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PriceRecord, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// QueryPreferredVendor returns the org's default preferred vendor name.
func (s *Store) QueryPreferredVendor(parent context.Context, org string) (string, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var vendor string
	err := s.db.GetContext(ctx, &vendor, `SELECT preferred_vendor FROM org_settings WHERE org = $1`, org)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return vendor, err
}

// InsertForecastRun persists a new ForecastRun row.
func (s *Store) InsertForecastRun(parent context.Context, run *domain.ForecastRun) error {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO forecast_runs
			(run_id, forecast_date, horizon_days, model_version, tenant, location, created_by,
			 shadow_mode, status, approval_status, started_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		run.RunID, run.ForecastDate, run.HorizonDays, run.ModelVersion, run.Tenant, run.Location,
		run.CreatedBy, run.ShadowMode, string(run.Status), string(run.ApprovalStatus), run.StartedAt)
	return err
}

// InsertForecastLine persists one ForecastLine row.
func (s *Store) InsertForecastLine(parent context.Context, line *domain.ForecastLine) error {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	contribJSON, err := json.Marshal(line.Contribution)
	if err != nil {
		return err
	}
	weightsJSON, err := json.Marshal(line.Weights)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO forecast_lines
			(line_id, run_id, item_code, category, unit, storage_location, predicted_usage,
			 confidence, contribution, weights, recommended_order_qty, order_reason,
			 reorder_point, safety_stock, lead_time_days, par_level, current_stock,
			 order_status, forecast_for_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		line.LineID, line.RunID, line.ItemCode, line.Category, line.Unit, line.StorageLocation,
		line.PredictedUsage, line.Confidence, contribJSON, weightsJSON, line.RecommendedOrderQty,
		line.OrderReason, line.ReorderPoint, line.SafetyStock, line.LeadTimeDays, line.ParLevel,
		line.CurrentStock, string(line.OrderStatus), line.ForecastForDate)
	return err
}

// UpdateRunStatus transitions a run to a terminal status.
func (s *Store) UpdateRunStatus(parent context.Context, runID string, status domain.RunStatus, errMsg string, finishedAt time.Time) error {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		UPDATE forecast_runs
		SET status = $1, error_msg = $2, finished_at = $3,
		    items_forecasted = (SELECT COUNT(*) FROM forecast_lines WHERE run_id = $4),
		    avg_confidence = (SELECT COALESCE(AVG(confidence), 0) FROM forecast_lines WHERE run_id = $4),
		    total_predicted_value = (SELECT COALESCE(SUM(predicted_usage), 0) FROM forecast_lines WHERE run_id = $4)
		WHERE run_id = $4`,
		string(status), errMsg, finishedAt, runID)
	return err
}

type forecastRunRow struct {
	RunID                string     `db:"run_id"`
	ForecastDate         time.Time  `db:"forecast_date"`
	HorizonDays          int        `db:"horizon_days"`
	ModelVersion         string     `db:"model_version"`
	Tenant               string     `db:"tenant"`
	Location             string     `db:"location"`
	CreatedBy            string     `db:"created_by"`
	ShadowMode           bool       `db:"shadow_mode"`
	Status               string     `db:"status"`
	ApprovalStatus       string     `db:"approval_status"`
	Approver             sql.NullString `db:"approver"`
	ApprovedAt           *time.Time `db:"approved_at"`
	ItemsForecasted      int        `db:"items_forecasted"`
	AvgConfidence        float64    `db:"avg_confidence"`
	TotalPredictedValue  float64    `db:"total_predicted_value"`
	StartedAt            time.Time  `db:"started_at"`
	FinishedAt           *time.Time `db:"finished_at"`
	ErrorMsg             sql.NullString `db:"error_msg"`
}

func (r forecastRunRow) toDomain() *domain.ForecastRun {
	return &domain.ForecastRun{
		RunID: r.RunID, ForecastDate: r.ForecastDate, HorizonDays: r.HorizonDays,
		ModelVersion: r.ModelVersion, Tenant: r.Tenant, Location: r.Location, CreatedBy: r.CreatedBy,
		ShadowMode: r.ShadowMode, Status: domain.RunStatus(r.Status), ApprovalStatus: domain.ApprovalStatus(r.ApprovalStatus),
		Approver: r.Approver.String, ApprovedAt: r.ApprovedAt, ItemsForecasted: r.ItemsForecasted,
		AvgConfidence: r.AvgConfidence, TotalPredictedValue: r.TotalPredictedValue,
		StartedAt: r.StartedAt, FinishedAt: r.FinishedAt, ErrorMsg: r.ErrorMsg.String,
	}
}

// GetForecastRun fetches one run by id, or (nil, nil) if it doesn't exist.
func (s *Store) GetForecastRun(parent context.Context, runID string) (*domain.ForecastRun, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var row forecastRunRow
	err := s.db.GetContext(ctx, &row, `
		SELECT run_id, forecast_date, horizon_days, model_version, tenant, location, created_by,
		       shadow_mode, status, approval_status, approver, approved_at, items_forecasted,
		       avg_confidence, total_predicted_value, started_at, finished_at, error_msg
		FROM forecast_runs WHERE run_id = $1`, runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

type forecastLineRow struct {
	LineID              string  `db:"line_id"`
	RunID               string  `db:"run_id"`
	ItemCode            string  `db:"item_code"`
	Category            string  `db:"category"`
	Unit                string  `db:"unit"`
	StorageLocation     string  `db:"storage_location"`
	PredictedUsage      float64 `db:"predicted_usage"`
	Confidence          float64 `db:"confidence"`
	Contribution        []byte  `db:"contribution"`
	Weights             []byte  `db:"weights"`
	RecommendedOrderQty int     `db:"recommended_order_qty"`
	OrderReason         string  `db:"order_reason"`
	ReorderPoint        float64 `db:"reorder_point"`
	SafetyStock         float64 `db:"safety_stock"`
	LeadTimeDays        int     `db:"lead_time_days"`
	ParLevel            float64 `db:"par_level"`
	CurrentStock        float64 `db:"current_stock"`
	OrderStatus         string  `db:"order_status"`
	AdjustedQty         *int    `db:"adjusted_qty"`
	AdjustmentReason    sql.NullString `db:"adjustment_reason"`
	ForecastForDate     time.Time `db:"forecast_for_date"`
	ActualUsage         *float64 `db:"actual_usage"`
	Variance            *float64 `db:"variance"`
	VariancePct         *float64 `db:"variance_pct"`
}

func (r forecastLineRow) toDomain() domain.ForecastLine {
	var contribution domain.SignalContribution
	_ = json.Unmarshal(r.Contribution, &contribution)
	var weights domain.WeightVector
	_ = json.Unmarshal(r.Weights, &weights)

	return domain.ForecastLine{
		LineID: r.LineID, RunID: r.RunID, ItemCode: r.ItemCode, Category: r.Category, Unit: r.Unit,
		StorageLocation: r.StorageLocation, PredictedUsage: r.PredictedUsage, Confidence: r.Confidence,
		Contribution: contribution, Weights: weights, RecommendedOrderQty: r.RecommendedOrderQty,
		OrderReason: r.OrderReason, ReorderPoint: r.ReorderPoint, SafetyStock: r.SafetyStock,
		LeadTimeDays: r.LeadTimeDays, ParLevel: r.ParLevel, CurrentStock: r.CurrentStock,
		OrderStatus: domain.OrderStatus(r.OrderStatus), AdjustedQty: r.AdjustedQty,
		AdjustmentReason: r.AdjustmentReason.String, ForecastForDate: r.ForecastForDate,
		ActualUsage: r.ActualUsage, Variance: r.Variance, VariancePct: r.VariancePct,
	}
}

// ListForecastLines returns every line belonging to runID, stable order.
func (s *Store) ListForecastLines(parent context.Context, runID string) ([]domain.ForecastLine, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var rows []forecastLineRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT line_id, run_id, item_code, category, unit, storage_location, predicted_usage,
		       confidence, contribution, weights, recommended_order_qty, order_reason,
		       reorder_point, safety_stock, lead_time_days, par_level, current_stock,
		       order_status, adjusted_qty, adjustment_reason, forecast_for_date,
		       actual_usage, variance, variance_pct
		FROM forecast_lines WHERE run_id = $1 ORDER BY item_code`, runID)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.ForecastLine, len(rows))
	for i, r := range rows {
		lines[i] = r.toDomain()
	}
	return lines, nil
}

// UpdateRunApproval records the run's terminal approval decision.
func (s *Store) UpdateRunApproval(parent context.Context, runID string, status domain.ApprovalStatus, approver string, approvedAt time.Time) error {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		UPDATE forecast_runs SET approval_status = $1, approver = $2, approved_at = $3
		WHERE run_id = $4`, string(status), approver, approvedAt, runID)
	return err
}

// ListForecastLinesWithActuals returns every line with a reconciled
// actual_usage whose forecast_for_date falls within [from, to], for
// accuracy scoring.
func (s *Store) ListForecastLinesWithActuals(parent context.Context, from, to time.Time) ([]domain.ForecastLine, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var rows []forecastLineRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT fl.line_id, fl.run_id, fl.item_code, fl.category, fl.unit, fl.storage_location,
		       fl.predicted_usage, fl.confidence, fl.contribution, fl.weights,
		       fl.recommended_order_qty, fl.order_reason, fl.reorder_point, fl.safety_stock,
		       fl.lead_time_days, fl.par_level, fl.current_stock, fl.order_status,
		       fl.adjusted_qty, fl.adjustment_reason, fl.forecast_for_date,
		       fl.actual_usage, fl.variance, fl.variance_pct
		FROM forecast_lines fl
		JOIN forecast_runs fr ON fr.run_id = fl.run_id
		WHERE fl.actual_usage IS NOT NULL AND fl.forecast_for_date BETWEEN $1 AND $2
		ORDER BY fl.forecast_for_date`, from, to)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.ForecastLine, len(rows))
	for i, r := range rows {
		lines[i] = r.toDomain()
	}
	return lines, nil
}

type approvalEventRow struct {
	EventID               string    `db:"event_id"`
	RunID                 string    `db:"run_id"`
	Action                string    `db:"action"`
	Approver              string    `db:"approver"`
	ApproverRole          string    `db:"approver_role"`
	Timestamp             time.Time `db:"timestamp"`
	Note                  string    `db:"note"`
	ReasonCode            sql.NullString `db:"reason_code"`
	SnapshotItems         int       `db:"snapshot_items"`
	SnapshotAvgConfidence float64   `db:"snapshot_avg_confidence"`
	SnapshotTotalValue    float64   `db:"snapshot_total_value"`
}

func (r approvalEventRow) toDomain() *domain.ApprovalEvent {
	return &domain.ApprovalEvent{
		EventID: r.EventID, RunID: r.RunID, Action: domain.ApprovalAction(r.Action),
		Approver: r.Approver, ApproverRole: domain.Role(r.ApproverRole), Timestamp: r.Timestamp,
		Note: r.Note, ReasonCode: domain.RejectReason(r.ReasonCode.String),
		SnapshotItems: r.SnapshotItems, SnapshotAvgConfidence: r.SnapshotAvgConfidence,
		SnapshotTotalValue: r.SnapshotTotalValue,
	}
}

// InsertApproval persists the single terminal ApprovalEvent for a run.
func (s *Store) InsertApproval(parent context.Context, event *domain.ApprovalEvent) error {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO approval_events
			(event_id, run_id, action, approver, approver_role, timestamp, note, reason_code,
			 snapshot_items, snapshot_avg_confidence, snapshot_total_value)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		event.EventID, event.RunID, string(event.Action), event.Approver, string(event.ApproverRole),
		event.Timestamp, event.Note, string(event.ReasonCode), event.SnapshotItems,
		event.SnapshotAvgConfidence, event.SnapshotTotalValue)
	return err
}

// GetApproval returns the run's terminal decision, or (nil, nil) if undecided.
func (s *Store) GetApproval(parent context.Context, runID string) (*domain.ApprovalEvent, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var row approvalEventRow
	err := s.db.GetContext(ctx, &row, `
		SELECT event_id, run_id, action, approver, approver_role, timestamp, note, reason_code,
		       snapshot_items, snapshot_avg_confidence, snapshot_total_value
		FROM approval_events WHERE run_id = $1`, runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// InsertFeedback appends a new feedback entry.
func (s *Store) InsertFeedback(parent context.Context, entry *domain.FeedbackEntry) error {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	deltasJSON, err := json.Marshal(entry.ProposedWeightDeltas)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO feedback_entries
			(feedback_id, line_id, item_code, type, original_prediction, adjustment, reason,
			 delta, delta_pct, proposed_weight_deltas, mape, rmse, submitter, submitted_at, applied)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		entry.FeedbackID, entry.LineID, entry.ItemCode, string(entry.Type), entry.OriginalPrediction,
		entry.Adjustment, entry.Reason, entry.Delta, entry.DeltaPct, deltasJSON, entry.MAPE, entry.RMSE,
		entry.Submitter, entry.SubmittedAt, entry.Applied)
	return err
}

type feedbackEntryRow struct {
	ID                   int64   `db:"id"`
	FeedbackID           string  `db:"feedback_id"`
	LineID               string  `db:"line_id"`
	ItemCode             string  `db:"item_code"`
	Type                 string  `db:"type"`
	OriginalPrediction   float64 `db:"original_prediction"`
	Adjustment           float64 `db:"adjustment"`
	Reason               string  `db:"reason"`
	Delta                float64 `db:"delta"`
	DeltaPct             float64 `db:"delta_pct"`
	ProposedWeightDeltas []byte  `db:"proposed_weight_deltas"`
	MAPE                 float64 `db:"mape"`
	RMSE                 float64 `db:"rmse"`
	Submitter            string  `db:"submitter"`
	SubmittedAt          time.Time `db:"submitted_at"`
	Applied              bool    `db:"applied"`
	AppliedAt            *time.Time `db:"applied_at"`
}

func (r feedbackEntryRow) toDomain() domain.FeedbackEntry {
	var deltas map[domain.SignalKind]float64
	_ = json.Unmarshal(r.ProposedWeightDeltas, &deltas)
	return domain.FeedbackEntry{
		FeedbackID: r.FeedbackID, LineID: r.LineID, ItemCode: r.ItemCode, Type: domain.FeedbackType(r.Type),
		OriginalPrediction: r.OriginalPrediction, Adjustment: r.Adjustment, Reason: r.Reason,
		Delta: r.Delta, DeltaPct: r.DeltaPct, ProposedWeightDeltas: deltas, MAPE: r.MAPE, RMSE: r.RMSE,
		Submitter: r.Submitter, SubmittedAt: r.SubmittedAt, Applied: r.Applied, AppliedAt: r.AppliedAt,
	}
}

const feedbackColumns = `id, feedback_id, line_id, item_code, type, original_prediction, adjustment,
	reason, delta, delta_pct, proposed_weight_deltas, mape, rmse, submitter, submitted_at, applied, applied_at`

// ListFeedbackAfter returns up to batch feedback rows with id > afterID,
// in strictly increasing id order.
func (s *Store) ListFeedbackAfter(parent context.Context, afterID int64, batch int) ([]persistence.FeedbackRow, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var rows []feedbackEntryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+feedbackColumns+`
		FROM feedback_entries WHERE id > $1 ORDER BY id ASC LIMIT $2`, afterID, batch)
	if err != nil {
		return nil, err
	}
	out := make([]persistence.FeedbackRow, len(rows))
	for i, r := range rows {
		out[i] = persistence.FeedbackRow{ID: r.ID, Entry: r.toDomain()}
	}
	return out, nil
}

// ListRecentFeedbackForItem returns the most recent feedback entries for
// itemCode, oldest first, used to seed the drift window.
func (s *Store) ListRecentFeedbackForItem(parent context.Context, itemCode string, limit int) ([]domain.FeedbackEntry, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var rows []feedbackEntryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+feedbackColumns+`
		FROM feedback_entries WHERE item_code = $1 ORDER BY submitted_at DESC LIMIT $2`, itemCode, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FeedbackEntry, len(rows))
	for i := range rows {
		out[len(rows)-1-i] = rows[i].toDomain()
	}
	return out, nil
}

// ListUnappliedFeedback returns up to limit feedback entries the
// governor has not yet applied.
func (s *Store) ListUnappliedFeedback(parent context.Context, limit int) ([]domain.FeedbackEntry, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var rows []feedbackEntryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+feedbackColumns+`
		FROM feedback_entries WHERE applied = false ORDER BY id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FeedbackEntry, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// MarkFeedbackApplied flags a feedback entry as consumed by the governor.
func (s *Store) MarkFeedbackApplied(parent context.Context, feedbackID string, appliedAt time.Time) error {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		UPDATE feedback_entries SET applied = true, applied_at = $1 WHERE feedback_id = $2`,
		appliedAt, feedbackID)
	return err
}

// GetWeights returns the item's persisted weight vector, or (nil,
// false, nil) if none has been saved yet.
func (s *Store) GetWeights(parent context.Context, itemCode string) (domain.WeightVector, bool, error) {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	var raw []byte
	err := s.db.GetContext(ctx, &raw, `SELECT weights FROM item_weights WHERE item_code = $1`, itemCode)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var weights domain.WeightVector
	if err := json.Unmarshal(raw, &weights); err != nil {
		return nil, false, err
	}
	return weights, true, nil
}

// SaveWeights upserts the item's current weight vector.
func (s *Store) SaveWeights(parent context.Context, itemCode string, weights domain.WeightVector) error {
	ctx, cancel := s.ctx(parent)
	defer cancel()

	payload, err := json.Marshal(weights)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO item_weights (item_code, weights)
		VALUES ($1, $2)
		ON CONFLICT (item_code) DO UPDATE SET weights = EXCLUDED.weights`,
		itemCode, payload)
	return err
}

var _ persistence.Store = (*Store)(nil)
