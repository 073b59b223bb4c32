package instance

import "github.com/prometheus/client_golang/prometheus"

type Prometheus interface {
	Register(r prometheus.Registerer)

	PresenceApplied() prometheus.Counter
	PresenceDropped() prometheus.Counter
	PresenceEvicted() prometheus.Counter
	SignalsSent() prometheus.Counter
	SignalsDeduped() prometheus.Counter
}
