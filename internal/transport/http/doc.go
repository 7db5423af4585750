// Package http implements the REST surface of the tracker.
//
// Handlers are thin: they parse the request, call the compliance or
// health service and render the result. Errors become RFC 7807 problem
// documents through internal/errors.
//
// Routes:
//
//	GET  /api/health
//	POST /api/runs                  recompute from the input directory (rate limited)
//	GET  /api/runs/latest           summary of the last successful run
//	GET  /api/runs/latest/{table}   one report table, JSON or CSV (?format=csv)
//	GET  /metrics                   Prometheus exposition
package http
