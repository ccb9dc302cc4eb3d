// Package metrics exposes Prometheus collectors for eAPI client calls.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/st-keller/eapi-client/endpoint"
)

// Outcome label values for RequestsTotal.
const (
	OutcomeOK                = "ok"
	OutcomeInvalidInvocation = "invalid_invocation"
	OutcomeTransportError    = "transport_error"
	OutcomeMalformedResponse = "malformed_response"
	OutcomeBindError         = "bind_error"
)

var (
	// Call metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eapi_client_requests_total",
			Help: "Total number of eAPI calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eapi_client_request_duration_seconds",
			Help:    "Duration of eAPI calls in seconds, classification included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ResponseBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eapi_client_response_bytes_total",
			Help: "Total bytes of response bodies received",
		},
	)

	// Classification metrics
	ResourcesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eapi_client_resources_total",
			Help: "Total number of classified resources by kind",
		},
		[]string{"kind"},
	)

	CallbackFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eapi_client_callback_failures_total",
			Help: "Total number of isolated callback failures by mark",
		},
		[]string{"mark"},
	)
)

// EndpointOther is the endpoint label of invocations no known table defines.
const EndpointOther = "other"

var knownEndpoints = endpoint.Default()

// EndpointLabel returns inv as "VERB seg1/seg2" when endpoint.Default() or
// table defines it, EndpointOther otherwise. table may be nil.
func EndpointLabel(inv endpoint.Invocation, table *endpoint.Table) string {
	if _, ok := knownEndpoints.Lookup(inv); ok {
		return inv.String()
	}
	if table != nil {
		if _, ok := table.Lookup(inv); ok {
			return inv.String()
		}
	}
	return EndpointOther
}
