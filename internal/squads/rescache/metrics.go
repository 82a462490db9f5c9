package rescache

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache activity.
type Metrics struct {
	Dispatched   prometheus.Counter
	Deduplicated prometheus.Counter
	Dropped      prometheus.Counter
	Fetches      *prometheus.CounterVec
	Bytes        prometheus.Counter
	Inflight     prometheus.Gauge
}

// NewMetrics registers cache metrics on reg. A nil reg uses a private
// registry so multiple caches can coexist in one process.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "squads",
			Subsystem: "rescache",
			Name:      "dispatched_total",
			Help:      "Fetches handed to the worker pool.",
		}),
		Deduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "squads",
			Subsystem: "rescache",
			Name:      "deduplicated_total",
			Help:      "Resolve calls collapsed into an in-flight fetch.",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "squads",
			Subsystem: "rescache",
			Name:      "dropped_total",
			Help:      "Fetches not dispatched because the queue was full.",
		}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "squads",
			Subsystem: "rescache",
			Name:      "fetches_total",
			Help:      "Completed fetches by result.",
		}, []string{"result"}),
		Bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "squads",
			Subsystem: "rescache",
			Name:      "persisted_bytes_total",
			Help:      "Payload bytes written to the cache directory.",
		}),
		Inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "squads",
			Subsystem: "rescache",
			Name:      "inflight",
			Help:      "Identities with a fetch in flight.",
		}),
	}
	reg.MustRegister(m.Dispatched, m.Deduplicated, m.Dropped, m.Fetches, m.Bytes, m.Inflight)
	return m
}
