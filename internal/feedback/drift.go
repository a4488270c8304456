package feedback

import (
	"context"
	"time"

	"github.com/sawpanic/invforecast/internal/persistence"
)

const (
	driftWindowSize = 20
	driftMinSamples = 10
	driftCooldown   = 1 * time.Hour
)

// DriftDetector tracks a rolling MAPE window per item and decides when
// sustained forecast error crosses the configured threshold. Windows
// are lazily reconstructed from persisted feedback the first time an
// item is seen in a process's lifetime, so a restart does not reset
// accuracy memory.
type DriftDetector struct {
	store     persistence.Store
	threshold float64 // fraction, e.g. 0.15

	windows        map[string][]float64
	seeded         map[string]bool
	lastTriggered  map[string]time.Time
}

// NewDriftDetector constructs a detector against threshold (a fraction).
func NewDriftDetector(store persistence.Store, threshold float64) *DriftDetector {
	return &DriftDetector{
		store:         store,
		threshold:     threshold,
		windows:       make(map[string][]float64),
		seeded:        make(map[string]bool),
		lastTriggered: make(map[string]time.Time),
	}
}

// Record folds one new MAPE observation for itemCode into its window and
// reports whether this observation newly crosses into a drift alert
// (i.e. it is not already cooling down from a prior trigger).
func (d *DriftDetector) Record(ctx context.Context, itemCode string, mape float64) (bool, error) {
	if !d.seeded[itemCode] {
		if err := d.seed(ctx, itemCode); err != nil {
			return false, err
		}
	}

	window := append(d.windows[itemCode], mape)
	if len(window) > driftWindowSize {
		window = window[len(window)-driftWindowSize:]
	}
	d.windows[itemCode] = window

	if len(window) < driftMinSamples {
		return false, nil
	}

	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(len(window))

	if mean*100 <= d.threshold*100 {
		return false, nil
	}

	if last, ok := d.lastTriggered[itemCode]; ok && time.Since(last) < driftCooldown {
		return false, nil
	}

	d.lastTriggered[itemCode] = time.Now()
	return true, nil
}

func (d *DriftDetector) seed(ctx context.Context, itemCode string) error {
	d.seeded[itemCode] = true
	if d.store == nil {
		return nil
	}
	recent, err := d.store.ListRecentFeedbackForItem(ctx, itemCode, driftWindowSize)
	if err != nil {
		return err
	}
	window := make([]float64, 0, len(recent))
	for _, entry := range recent {
		window = append(window, entry.MAPE)
	}
	d.windows[itemCode] = window
	return nil
}
