package metrics

import "github.com/prometheus/client_golang/prometheus"

// Beacon outcomes. Unknown customers and unauthorized sites look identical to
// the client but are counted separately here.
const (
	OutcomeServed           = "served"
	OutcomeInvalid          = "invalid"
	OutcomeDoNotTrack       = "dnt"
	OutcomeUnknownCustomer  = "unknown_customer"
	OutcomeUnauthorizedSite = "unauthorized_site"
	OutcomeError            = "error"
)

var (
	// Total beacon requests by outcome
	BeaconRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_requests_total",
		Help: "Total beacon requests by outcome",
	}, []string{"outcome"})

	// Latency of the beacon handler, encoding included
	BeaconLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "beacon_request_latency_seconds",
		Help:    "Latency of the beacon.js handler",
		Buckets: prometheus.DefBuckets,
	})

	BeaconComponentsServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beacon_components_served_total",
		Help: "Total personalised components returned to pages",
	})

	VisitorEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_visitor_events_published_total",
		Help: "Visitor events pushed to the event stream by result",
	}, []string{"result"})
)

func Init() {
	prometheus.MustRegister(
		BeaconRequests,
		BeaconLatency,
		BeaconComponentsServed,
		VisitorEventsPublished,
	)
}
