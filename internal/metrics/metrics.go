// Package metrics holds the service's Prometheus collectors. Everything is
// registered on the default registry and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts outbound provider calls by operation
	// (current, forecast) and outcome (ok, upstream_error, error).
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_upstream_requests_total",
		Help: "Outbound requests to the weather provider.",
	}, []string{"operation", "outcome"})

	// PersistenceWrites counts best-effort store writes by outcome
	// (ok, error, dropped).
	PersistenceWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_persistence_writes_total",
		Help: "Best-effort persistence attempts.",
	}, []string{"outcome"})

	// PopularCityFailures counts per-city failures in the popular-cities
	// fan-out. The batch itself never fails because of them.
	PopularCityFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_popular_city_failures_total",
		Help: "Individual city failures in the popular cities view.",
	})
)
