package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"trainingtracker/internal/config"
)

// HealthService reports liveness and the state of the inputs
type HealthService struct {
	version   string
	paths     *config.Paths
	runs      *ComplianceService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    float64                  `json:"uptime_seconds"`
	GoVersion string                   `json:"go_version"`
	Services  map[string]ServiceHealth `json:"services"`
	LatestRun string                   `json:"latest_run,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version string, paths *config.Paths, runs *ComplianceService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		runs:      runs,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status. The service is degraded when
// the input directory is missing; runs would fail.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
		Uptime:    time.Since(hs.startTime).Seconds(),
		GoVersion: runtime.Version(),
		Services: map[string]ServiceHealth{
			"input": hs.checkInput(),
		},
	}

	if hs.runs != nil {
		if run, err := hs.runs.Latest(); err == nil {
			status.LatestRun = run.ID
			status.Services["runs"] = ServiceHealth{Status: "ready"}
		} else {
			status.Services["runs"] = ServiceHealth{Status: "ready", Message: err.Error()}
		}
	}

	for _, svc := range status.Services {
		if svc.Status != "ready" {
			status.Status = "degraded"
		}
	}

	hs.logger.DebugContext(ctx, "health check", slog.String("status", status.Status))
	return status
}

func (hs *HealthService) checkInput() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: "not_ready", Message: "paths not configured"}
	}
	if !config.FileExists(hs.paths.InputDir) {
		return ServiceHealth{Status: "not_ready", Message: "input directory not found: " + hs.paths.InputDir}
	}
	if !config.FileExists(hs.paths.HRDir()) {
		return ServiceHealth{Status: "not_ready", Message: "hr directory not found: " + hs.paths.HRDir()}
	}
	return ServiceHealth{Status: "ready"}
}
