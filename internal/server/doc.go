// Package server implements the planner HTTP API.
//
// The server package exposes the planner Service over JSON and serves the
// Prometheus scrape endpoint. It owns request plumbing only: every decision is
// made by the planner.
//
// # Routes
//
//	GET    /healthz                 liveness, always 200
//	GET    /readyz                  200 once the model and history are loaded
//	GET    /api/v1/history          cleaned history with summary
//	POST   /api/v1/forecast         single-month forecast
//	POST   /api/v1/capacity         tutor capacity and fairness
//	GET    /api/v1/profiles         effective capacity profiles
//	POST   /api/v1/admin/reload     reload model and history now
//	DELETE /api/v1/admin/cache      drop cached assets, reload lazily
//	GET    /metrics                 Prometheus metrics
//
// # Request Flow
//
//  1. Assign a request ID (X-Request-ID is honoured when sent)
//  2. Attach a request-scoped logger to the context
//  3. Decode the JSON body, rejecting unknown fields
//  4. Call the planner
//  5. Encode the response and observe its duration per route template
//
// # Error Handling
//
// Every non-2xx response carries an ErrorResponse body:
//   - Malformed JSON or planner.ErrInvalidRequest: 400
//   - planner.ErrAssetsUnavailable: 503
//   - Anything else: 500
//
// A forecast whose predictor failed is still a 200; the failure is reported in
// the response's error field.
//
// # Usage
//
//	handler := server.NewHandler(svc, m)
//	srv := server.New(cfg.Server, handler)
//	if err := srv.Run(ctx); err != nil {
//		setupLog.Error(err, "server exited")
//	}
package server
