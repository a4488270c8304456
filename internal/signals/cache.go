package signals

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/invforecast/internal/persistence"
)

// Cache is an optional read-through cache for the Usage History and
// Population providers. A nil *Cache degrades to direct Store reads; a
// nil redis client leaves the in-process TTL cache in place. Redis only
// receives write-through copies of history entries; lookups never read
// from it. The cache is an optimization layer, never load-bearing for
// correctness.
type Cache struct {
	client *redis.Client
	ttl    time.Duration

	mu       sync.RWMutex
	history  map[string][]persistence.UsagePoint
	historyAt map[string]time.Time
	population map[string]float64
	populationAt map[string]time.Time
}

// NewCache wraps an existing redis client (may be nil, in which case the
// cache degrades to a local in-process TTL cache only) with the given TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client:        client,
		ttl:           ttl,
		history:       make(map[string][]persistence.UsagePoint),
		historyAt:     make(map[string]time.Time),
		population:    make(map[string]float64),
		populationAt:  make(map[string]time.Time),
	}
}

func (c *Cache) getHistory(itemCode string) ([]persistence.UsagePoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at, ok := c.historyAt[itemCode]
	if !ok || time.Since(at) > c.ttl {
		return nil, false
	}
	return c.history[itemCode], true
}

func (c *Cache) putHistory(itemCode string, points []persistence.UsagePoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history[itemCode] = points
	c.historyAt[itemCode] = time.Now()

	if c.client != nil {
		go c.writeThroughHistory(itemCode, points)
	}
}

func (c *Cache) writeThroughHistory(itemCode string, points []persistence.UsagePoint) {
	data, err := json.Marshal(points)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.client.Set(ctx, "invforecast:history:"+itemCode, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("item", itemCode).Msg("redis cache write-through failed")
	}
}

func (c *Cache) getPopulation(date time.Time) (float64, bool) {
	key := date.Format("2006-01-02")
	c.mu.RLock()
	defer c.mu.RUnlock()
	at, ok := c.populationAt[key]
	if !ok || time.Since(at) > c.ttl {
		return 0, false
	}
	return c.population[key], true
}

func (c *Cache) putPopulation(date time.Time, value float64) {
	key := date.Format("2006-01-02")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.population[key] = value
	c.populationAt[key] = time.Now()
}
