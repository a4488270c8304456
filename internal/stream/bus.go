// Package stream provides the EventBus capability this core publishes
// domain notifications on: feedback_ingested, drift_detected,
// forecast_approved, forecast_rejected. Components receive an EventBus
// through their constructor; none reach into ambient global state.
package stream

import (
	"context"
	"time"
)

// Topic names this core emits. Collaborators may subscribe to any of
// these; this core never assumes a particular subscriber exists.
const (
	TopicFeedbackIngested = "feedback_ingested"
	TopicDriftDetected    = "drift_detected"
	TopicForecastApproved = "forecast_approved"
	TopicForecastRejected = "forecast_rejected"
)

// Event is one notification published on the bus.
type Event struct {
	Topic     string
	Payload   map[string]interface{}
	Timestamp time.Time
}

// Handler processes one delivered event.
type Handler func(ctx context.Context, evt Event) error

// EventBus is the publish/subscribe capability this core depends on.
// Lifecycle is explicit: Start before Emit, Stop to drain.
type EventBus interface {
	Emit(ctx context.Context, topic string, payload map[string]interface{}) error
	Subscribe(topic string, handler Handler) (unsubscribe func())

	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health() HealthStatus
}

// HealthStatus reports the bus's current operating state.
type HealthStatus struct {
	Healthy        bool
	Started        bool
	ActiveTopics   int
	ActiveHandlers int
	LastEmitAt     time.Time
}
