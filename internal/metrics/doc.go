// Package metrics handles Prometheus instrumentation of the planner.
//
// Every forecast, capacity calculation, HTTP request and asset load is recorded
// on a private registry that the server exposes on /metrics. The registry also
// carries the Go runtime, process and build info collectors.
//
// # Metric Emission
//
// Forecasts are counted by scenario mode and outcome, and the latest successful
// prediction is kept as a gauge:
//
//	planner_forecasts_total{mode="auto", outcome="success"} 12
//	planner_forecasts_total{mode="manual", outcome="error"} 1
//	planner_predicted_students{mode="auto"} 112
//
// Capacity calculations are counted by profile and rounding policy:
//
//	planner_capacity_calculations_total{profile="default", rounding="ceiling"} 7
//	planner_tutors_needed{profile="default"} 15
//	planner_capacity_over_recommended_load_total{profile="evening"} 2
//
// Request latency uses the mux route template, not the raw path, so label
// cardinality stays bounded:
//
//	planner_http_request_duration_seconds_bucket{route="/api/v1/forecast", method="POST", code="200", le="0.1"} 9
//
// # Usage Example
//
//	m := metrics.New()
//	store := assets.NewStore(loader, m.ObserveAssets)
//	f := forecast.NewForecaster(forecast.WithRecorder(m))
//	router.Handle("/metrics", m.Handler())
package metrics
