package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BroadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collab", Name: "broadcasts_total", Help: "Number of events relayed to rooms by event name."},
		[]string{"event"},
	)
	PersistFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collab", Name: "persist_failures_total", Help: "Number of failed fire-and-forget store writes by record kind."},
		[]string{"kind"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collab", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collab", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(BroadcastsTotal)
	reg.MustRegister(PersistFailures)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
