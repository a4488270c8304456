// Package metrics defines the Metrics capability this core emits
// operational signal on, and ships a default Prometheus-backed
// implementation. The HTTP /metrics endpoint itself remains the
// embedding application's responsibility; this package only populates a
// prometheus.Registerer the embedding app can mount.
package metrics

// Counter is a monotonically increasing labeled value.
type Counter interface {
	Inc(n float64)
}

// Gauge is a point-in-time value.
type Gauge interface {
	Set(v float64)
}

// Histogram observes a distribution of values.
type Histogram interface {
	Observe(v float64)
}

// Metrics is the capability this core's components depend on for
// emitting operational signal. Implementations must make Observe/Inc/Set
// non-blocking.
type Metrics interface {
	Counter(name string, labels map[string]string) Counter
	Gauge(name string) Gauge
	Histogram(name string) Histogram
}

// Noop is a Metrics implementation that discards everything. Useful for
// tests and for callers that have not wired a registry yet.
type Noop struct{}

type noopCounter struct{}
type noopGauge struct{}
type noopHistogram struct{}

func (noopCounter) Inc(float64)    {}
func (noopGauge) Set(float64)      {}
func (noopHistogram) Observe(float64) {}

func (Noop) Counter(string, map[string]string) Counter { return noopCounter{} }
func (Noop) Gauge(string) Gauge                         { return noopGauge{} }
func (Noop) Histogram(string) Histogram                 { return noopHistogram{} }
