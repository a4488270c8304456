// Package feedback runs the long-lived poller that ingests post-hoc
// accuracy feedback, feeds it to the weight governor, and watches for
// sustained forecast drift. Start/Stop/Stats follow the same lifecycle
// shape as the event bus, driven by a ticker loop with
// context.Context cancellation.
package feedback

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/invforecast/internal/domain"
	"github.com/sawpanic/invforecast/internal/governor"
	"github.com/sawpanic/invforecast/internal/metrics"
	"github.com/sawpanic/invforecast/internal/persistence"
	"github.com/sawpanic/invforecast/internal/stream"
)

// Stats reports the poller's lifetime counters, snapshotted under lock.
type Stats struct {
	Processed     int64
	DriftAlerts   int64
	LastPolledAt  time.Time
	LastProcessedID int64
}

// Stream polls persisted feedback in strictly increasing id order,
// applies it through the Governor, and raises drift alerts on the bus.
type Stream struct {
	store     persistence.Store
	bus       stream.EventBus
	governor  *governor.Governor
	drift     *DriftDetector
	metrics   metrics.Metrics

	pollInterval time.Duration
	batchSize    int

	mu      sync.Mutex
	cursor  int64
	stats   Stats
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New constructs a feedback Stream. driftThreshold is a fraction (e.g.
// 0.15 for 15%).
func New(store persistence.Store, bus stream.EventBus, gov *governor.Governor, m metrics.Metrics, pollInterval time.Duration, batchSize int, driftThreshold float64) *Stream {
	if m == nil {
		m = metrics.Noop{}
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Stream{
		store:        store,
		bus:          bus,
		governor:     gov,
		drift:        NewDriftDetector(store, driftThreshold),
		metrics:      m,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

// Start launches the polling loop in a background goroutine. Calling
// Start twice without an intervening Stop is a no-op.
func (s *Stream) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.loop(ctx)
	log.Info().Dur("interval", s.pollInterval).Msg("feedback stream started")
	return nil
}

// Stop signals the loop to exit and waits for it to drain, bounded by
// ctx's deadline.
func (s *Stream) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	doneCh := s.doneCh
	s.mu.Unlock()

	select {
	case <-doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the poller's lifetime counters.
func (s *Stream) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Stream) loop(ctx context.Context) {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.poll(ctx); err != nil {
				log.Error().Err(err).Msg("feedback poll failed")
			}
		}
	}
}

// poll pulls one batch of new feedback, processes each entry, and
// advances the strictly-increasing cursor.
func (s *Stream) poll(ctx context.Context) error {
	s.mu.Lock()
	cursor := s.cursor
	s.mu.Unlock()

	rows, err := s.store.ListFeedbackAfter(ctx, cursor, s.batchSize)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if row.ID <= cursor {
			continue
		}
		s.processEntry(ctx, row.Entry)
		cursor = row.ID
	}

	s.mu.Lock()
	s.cursor = cursor
	s.stats.LastPolledAt = time.Now()
	s.stats.LastProcessedID = cursor
	s.mu.Unlock()

	return nil
}

func (s *Stream) processEntry(ctx context.Context, entry domain.FeedbackEntry) {
	if s.bus != nil {
		payload := map[string]interface{}{
			"feedback_id": entry.FeedbackID,
			"item_code":   entry.ItemCode,
			"type":        string(entry.Type),
		}
		if err := s.bus.Emit(ctx, stream.TopicFeedbackIngested, payload); err != nil {
			log.Warn().Err(err).Str("feedback_id", entry.FeedbackID).Msg("failed to emit feedback_ingested")
		}
	}

	if entry.MAPE > 0 {
		triggered, err := s.drift.Record(ctx, entry.ItemCode, entry.MAPE)
		if err != nil {
			log.Warn().Err(err).Str("item", entry.ItemCode).Msg("drift window update failed")
		} else if triggered {
			s.mu.Lock()
			s.stats.DriftAlerts++
			s.mu.Unlock()
			if s.bus != nil {
				window := s.drift.windows[entry.ItemCode]
				var sum float64
				for _, v := range window {
					sum += v
				}
				payload := map[string]interface{}{"item_code": entry.ItemCode, "mean_mape": sum / float64(len(window))}
				if err := s.bus.Emit(ctx, stream.TopicDriftDetected, payload); err != nil {
					log.Warn().Err(err).Str("item", entry.ItemCode).Msg("failed to emit drift_detected")
				}
			}
			s.metrics.Counter("feedback_drift_alerts", map[string]string{"item": entry.ItemCode}).Inc(1)
		}
	}

	if s.governor != nil {
		if err := s.governor.ApplyFeedback(ctx, &entry); err != nil {
			log.Warn().Err(err).Str("feedback_id", entry.FeedbackID).Msg("governor failed to apply feedback")
		}
	}

	s.mu.Lock()
	s.stats.Processed++
	s.mu.Unlock()
	s.metrics.Counter("feedback_processed", nil).Inc(1)
}

// ApplyPendingFeedback runs a single synchronous pass over feedback that
// has not yet been applied by the governor, independent of the polling
// loop's cursor. Exposed for on-demand use (CLI, scheduled job).
func (s *Stream) ApplyPendingFeedback(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = s.batchSize
	}
	pending, err := s.store.ListUnappliedFeedback(ctx, limit)
	if err != nil {
		return 0, err
	}
	applied := 0
	for i := range pending {
		if s.governor == nil {
			continue
		}
		before := pending[i].Applied
		if err := s.governor.ApplyFeedback(ctx, &pending[i]); err != nil {
			log.Warn().Err(err).Str("feedback_id", pending[i].FeedbackID).Msg("governor failed to apply pending feedback")
			continue
		}
		if !before && pending[i].Applied {
			applied++
		}
	}
	return applied, nil
}
