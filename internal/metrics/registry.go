package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus-backed Metrics implementation:
// named vectors registered once against a prometheus.Registerer, looked
// up by label set on each call.
type Registry struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]prometheus.Gauge
	histograms map[string]*prometheus.HistogramVec
}

// NewRegistry wraps reg (e.g. prometheus.NewRegistry() or
// prometheus.DefaultRegisterer) as a Metrics implementation.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return &Registry{
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

type vecCounter struct {
	vec    *prometheus.CounterVec
	labels map[string]string
}

func (c *vecCounter) Inc(n float64) {
	c.vec.With(c.labels).Add(n)
}

func (r *Registry) Counter(name string, labels map[string]string) Counter {
	r.mu.Lock()
	vec, ok := r.counters[name]
	if !ok {
		names := make([]string, 0, len(labels))
		for k := range labels {
			names = append(names, k)
		}
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invforecast_" + name + "_total",
			Help: "invforecast counter " + name,
		}, names)
		r.reg.MustRegister(vec)
		r.counters[name] = vec
	}
	r.mu.Unlock()
	return &vecCounter{vec: vec, labels: labels}
}

func (r *Registry) Gauge(name string) Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[name]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "invforecast_" + name,
			Help: "invforecast gauge " + name,
		})
		r.reg.MustRegister(g)
		r.gauges[name] = g
	}
	return g
}

type vecHistogram struct {
	obs prometheus.Observer
}

func (h *vecHistogram) Observe(v float64) { h.obs.Observe(v) }

func (r *Registry) Histogram(name string) Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	vec, ok := r.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "invforecast_" + name + "_seconds",
			Help:    "invforecast histogram " + name,
			Buckets: prometheus.DefBuckets,
		}, nil)
		r.reg.MustRegister(vec)
		r.histograms[name] = vec
	}
	return &vecHistogram{obs: vec.WithLabelValues()}
}
