package signals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/invforecast/internal/persistence"
)

type fakeStore struct {
	persistence.Store
	history     []persistence.UsagePoint
	population  float64
	occurrences []persistence.MenuOccurrence
	err         error
}

func (f *fakeStore) QueryHistory(ctx context.Context, itemCode string, days int) ([]persistence.UsagePoint, error) {
	return f.history, f.err
}

func (f *fakeStore) QueryPopulation(ctx context.Context, date time.Time) (float64, error) {
	return f.population, f.err
}

func (f *fakeStore) QueryMenuOccurrences(ctx context.Context, itemCode string, from, to time.Time) ([]persistence.MenuOccurrence, error) {
	return f.occurrences, f.err
}

func TestPopulationFactor_DefaultsWhenUnavailable(t *testing.T) {
	p := NewProviders(&fakeStore{population: 0}, nil)
	assert.Equal(t, 1.0, p.PopulationFactor(context.Background(), time.Now()))
}

func TestPopulationFactor_Scales(t *testing.T) {
	p := NewProviders(&fakeStore{population: 300}, nil)
	assert.Equal(t, 2.0, p.PopulationFactor(context.Background(), time.Now()))
}

func TestMenuRotationFactor(t *testing.T) {
	withOccurrence := NewProviders(&fakeStore{occurrences: []persistence.MenuOccurrence{{ItemCode: "X"}}}, nil)
	assert.Equal(t, 1.5, withOccurrence.MenuRotationFactor(context.Background(), "X", time.Now(), time.Now()))

	without := NewProviders(&fakeStore{}, nil)
	assert.Equal(t, 1.0, without.MenuRotationFactor(context.Background(), "X", time.Now(), time.Now()))
}

func TestSeasonalityFactor_PlaceholderDefault(t *testing.T) {
	p := NewProviders(&fakeStore{}, nil)
	assert.Equal(t, 1.0, p.SeasonalityFactor(nil))

	custom := 1.2
	assert.Equal(t, 1.2, p.SeasonalityFactor(&custom))
}

func TestUsageHistory_EmptyOmitted(t *testing.T) {
	p := NewProviders(&fakeStore{history: nil}, nil)
	points, err := p.UsageHistory(context.Background(), "X", 30)
	require.NoError(t, err)
	assert.Empty(t, points)
}
