// Package app wires the tracker together: configuration, telemetry, the
// compliance engine, the services and the HTTP server.
//
// The CLI drives it in one of three ways:
//
//	a, err := app.New(cfg, logger)
//	issues, err := a.Validate(ctx) // check inputs only
//	run, err := a.Build(ctx)       // full run and exports
//	err = a.Serve(ctx)             // HTTP API until SIGINT/SIGTERM
package app
