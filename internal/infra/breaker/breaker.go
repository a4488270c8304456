// Package breaker wraps unreliable external collaborator calls (vendor
// price lookups, the pluggable Audit.run() procedure) with a named
// sony/gobreaker circuit breaker per collaborator.
package breaker

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/sawpanic/invforecast/internal/domain"
)

// Manager holds one named circuit breaker per external dependency.
type Manager struct {
	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewManager constructs an empty breaker manager.
func NewManager() *Manager {
	return &Manager{breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

// Register configures a named breaker that trips after the given number
// of consecutive failures, with the given open-state timeout.
func (m *Manager) Register(name string, consecutiveFailures uint32, timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	settings := gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	m.breakers[name] = gobreaker.NewCircuitBreaker(settings)
}

// Execute runs fn through the named breaker, translating gobreaker's
// open-circuit error into a DependencyUnavailable domain error.
func (m *Manager) Execute(name string, fn func() (interface{}, error)) (interface{}, error) {
	m.mu.RLock()
	cb, ok := m.breakers[name]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.Internal("circuit breaker not registered: " + name)
	}

	result, err := cb.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, domain.DependencyUnavailable("circuit open for "+name, err)
	}
	return result, err
}
