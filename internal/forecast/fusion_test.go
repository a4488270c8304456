package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/invforecast/internal/domain"
)

func TestFuse_S1FlatHistoryDefaultWeights(t *testing.T) {
	base := 10.0
	pred, _ := Fuse(base, domain.DefaultWeights(), SignalInputs{PopFactor: 1, MenuFactor: 1, Seasonality: 1})
	assert.InDelta(t, 10.0, pred, 1e-9)
}

func TestFuse_ZeroParWeightIsIdentity(t *testing.T) {
	weights := domain.WeightVector{
		domain.SignalUsageHistory: 0.5,
		domain.SignalPopulation:   0.2,
		domain.SignalMenuRotation: 0.2,
		domain.SignalParLevel:     0,
		domain.SignalSeasonality:  0.1,
	}
	pred, contribution := Fuse(10, weights, SignalInputs{PopFactor: 1, MenuFactor: 1, Seasonality: 1})
	assert.InDelta(t, 10.0, pred, 1e-9)
	assert.Len(t, contribution, 4)
}
