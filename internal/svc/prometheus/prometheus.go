package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fabriq/collab/internal/instance"
)

type Options struct {
	Labels map[string]string
}

func New(o Options) instance.Prometheus {
	labels := prometheus.Labels(o.Labels)

	return &Instance{
		presenceApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "collab_presence_events_applied_total",
			Help:        "Presence events merged into the store.",
			ConstLabels: labels,
		}),
		presenceDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "collab_presence_events_dropped_total",
			Help:        "Presence events dropped at the boundary (malformed, foreign project, self, stale).",
			ConstLabels: labels,
		}),
		presenceEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "collab_presence_records_evicted_total",
			Help:        "Presence records removed by the staleness sweep.",
			ConstLabels: labels,
		}),
		signalsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "collab_signals_sent_total",
			Help:        "Outbound presence signals delivered to the backend.",
			ConstLabels: labels,
		}),
		signalsDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "collab_signals_deduped_total",
			Help:        "Outbound presence signals suppressed as duplicates.",
			ConstLabels: labels,
		}),
	}
}

type Instance struct {
	presenceApplied prometheus.Counter
	presenceDropped prometheus.Counter
	presenceEvicted prometheus.Counter
	signalsSent     prometheus.Counter
	signalsDeduped  prometheus.Counter
}

func (m *Instance) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.presenceApplied,
		m.presenceDropped,
		m.presenceEvicted,
		m.signalsSent,
		m.signalsDeduped,
	)
}

func (m *Instance) PresenceApplied() prometheus.Counter {
	return m.presenceApplied
}

func (m *Instance) PresenceDropped() prometheus.Counter {
	return m.presenceDropped
}

func (m *Instance) PresenceEvicted() prometheus.Counter {
	return m.presenceEvicted
}

func (m *Instance) SignalsSent() prometheus.Counter {
	return m.signalsSent
}

func (m *Instance) SignalsDeduped() prometheus.Counter {
	return m.signalsDeduped
}
