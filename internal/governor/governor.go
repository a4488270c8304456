// Package governor adjusts per-item signal weights from submitted
// feedback, bounded and idempotent, clamping and renormalizing so
// weights keep summing to 1.
package governor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/metrics"
	"github.com/sawpanic/invforecast/internal/persistence"
)

const (
	// adjustmentThresholdPct is the minimum absolute deviation a feedback
	// entry must report before the governor reacts to it.
	adjustmentThresholdPct = 10.0

	// maxStepPerApplication bounds how far any single weight can move in
	// one application, regardless of what the reason-text rule proposes.
	maxStepPerApplication = 0.20

	// itemCooldown is the minimum interval between two applied
	// adjustments for the same item.
	itemCooldown = 1 * time.Hour
)

// Governor applies bounded, clamp-and-renormalize weight adjustments in
// response to feedback, and enforces per-item cool-downs.
type Governor struct {
	store   persistence.Store
	metrics metrics.Metrics

	mu           sync.Mutex
	lastAppliedAt map[string]time.Time
}

// New constructs a Governor.
func New(store persistence.Store, m metrics.Metrics) *Governor {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Governor{store: store, metrics: m, lastAppliedAt: make(map[string]time.Time)}
}

// proposedDeltas derives a weight-adjustment proposal from the free-text
// reason a reviewer gave. Unrecognized reason text proposes no change.
func proposedDeltas(reason string) map[domain.SignalKind]float64 {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "menu"):
		return map[domain.SignalKind]float64{
			domain.SignalMenuRotation: 0.05,
			domain.SignalUsageHistory: -0.05,
		}
	case strings.Contains(lower, "population"):
		return map[domain.SignalKind]float64{
			domain.SignalPopulation:   0.05,
			domain.SignalUsageHistory: -0.05,
		}
	default:
		return nil
	}
}

// negativeSignalDeltas is the fixed weight adjustment applied when a
// forecast run is rejected: distrust the fused signals that drove the
// rejected prediction and lean back on raw usage history.
func negativeSignalDeltas() map[domain.SignalKind]float64 {
	return map[domain.SignalKind]float64{
		domain.SignalUsageHistory: 0.05,
		domain.SignalPopulation:   -0.025,
		domain.SignalMenuRotation: -0.025,
	}
}

// ApplyFeedback reviews one adjustment or rejection feedback entry and,
// if it qualifies, adjusts and persists the item's weights. Rejections
// always qualify as a negative signal regardless of delta%; adjustments
// still require |delta%| above the threshold. It is a no-op (not an
// error) when the entry does not otherwise qualify: wrong type, already
// applied, or the item is in cooldown.
func (g *Governor) ApplyFeedback(ctx context.Context, entry *domain.FeedbackEntry) error {
	if entry.Applied {
		return nil
	}
	if entry.Type != domain.FeedbackAdjustment && entry.Type != domain.FeedbackRejection {
		return nil
	}
	if entry.Type == domain.FeedbackAdjustment && abs(entry.DeltaPct) <= adjustmentThresholdPct {
		return nil
	}

	deltas := entry.ProposedWeightDeltas
	if deltas == nil {
		if entry.Type == domain.FeedbackRejection {
			deltas = negativeSignalDeltas()
		} else {
			deltas = proposedDeltas(entry.Reason)
		}
	}
	if len(deltas) == 0 {
		return nil
	}

	if g.inCooldown(entry.ItemCode) {
		log.Debug().Str("item", entry.ItemCode).Msg("governor: item in cooldown, skipping adjustment")
		return nil
	}

	weights, ok, err := g.store.GetWeights(ctx, entry.ItemCode)
	if err != nil {
		return err
	}
	if !ok {
		weights = domain.DefaultWeights()
	} else {
		weights = weights.Clone()
	}

	for kind, delta := range deltas {
		if delta > maxStepPerApplication {
			delta = maxStepPerApplication
		}
		if delta < -maxStepPerApplication {
			delta = -maxStepPerApplication
		}
		weights[kind] = clampUnit(weights[kind] + delta)
	}
	renormalize(weights)

	if err := g.store.SaveWeights(ctx, entry.ItemCode, weights); err != nil {
		return err
	}

	appliedAt := time.Now()
	if err := g.store.MarkFeedbackApplied(ctx, entry.FeedbackID, appliedAt); err != nil {
		return err
	}
	entry.Applied = true
	entry.AppliedAt = &appliedAt

	g.markApplied(entry.ItemCode, appliedAt)
	g.metrics.Counter("governor_adjustments", map[string]string{"item": entry.ItemCode}).Inc(1)

	return nil
}

func (g *Governor) inCooldown(itemCode string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.lastAppliedAt[itemCode]
	if !ok {
		return false
	}
	return time.Since(last) < itemCooldown
}

func (g *Governor) markApplied(itemCode string, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastAppliedAt[itemCode] = at
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// renormalize scales weights in place so they sum to 1.0, preserving
// their relative proportions. A zero-sum vector (degenerate) resets to
// the defaults rather than dividing by zero.
func renormalize(weights domain.WeightVector) {
	var sum float64
	for _, v := range weights {
		sum += v
	}
	if sum <= 0 {
		for k, v := range domain.DefaultWeights() {
			weights[k] = v
		}
		return
	}
	for k, v := range weights {
		weights[k] = v / sum
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
