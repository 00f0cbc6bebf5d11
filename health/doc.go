// Package health reports whether the gateway and its dependencies can
// serve traffic.
//
// A Checker probes one component. The gateway registers a reachability
// probe for the memory store, a soft probe for the authorization server
// (cached verdicts keep requests flowing through a short outage, so an
// unreachable server only degrades the gateway), an uptime reporter and
// a runtime resource checker. The Aggregator sweeps every registered
// checker, in parallel by default, and reduces the results to a single
// worst-wins status.
//
//	agg := health.NewAggregator()
//	agg.Register("memstore", health.NewPingChecker(health.PingCheckerConfig{
//		Name:   "memstore",
//		Pinger: store,
//	}))
//	agg.Register("auth", health.NewPingChecker(health.PingCheckerConfig{
//		Name:   "auth",
//		Pinger: gate,
//		Soft:   true,
//	}))
//	agg.Register("uptime", health.NewUptimeChecker())
//
// The HTTP transports expose the sweep through Mount: GET /healthz
// answers liveness with a bare OK, GET /readyz answers readiness from a
// full sweep (a degraded gateway still reports ready) and GET /health
// returns the per-check breakdown as JSON.
package health
