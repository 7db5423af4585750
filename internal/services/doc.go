// Package services sits between the transports and the compliance
// pipeline.
//
// ComplianceService owns a run from end to end: it loads the input
// directory, runs the engine, assembles the report tables and exports
// them, recording metrics and a span for every run. HealthService reports
// whether the service can run at all.
//
//	svc := services.NewComplianceService(loader, engine, exp, metrics, logger)
//	run, err := svc.Run(ctx)
//	if services.IsFatal(err) {
//	    for _, issue := range services.Issues(err) { ... }
//	}
package services
