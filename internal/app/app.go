package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trainingtracker/internal/compliance"
	"trainingtracker/internal/config"
	"trainingtracker/internal/exporter"
	"trainingtracker/internal/infrastructure"
	"trainingtracker/internal/ingest"
	"trainingtracker/internal/normalize"
	"trainingtracker/internal/services"
	handlers "trainingtracker/internal/transport/http"
	"trainingtracker/pkg/contracts/domain"
)

// Version is the build version, overridden with -ldflags
var Version = infrastructure.ServiceVersion

// Application holds every wired component of the tracker
type Application struct {
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
	Engine    *compliance.Engine
	Runs      *services.ComplianceService
	Health    *services.HealthService
	Router    http.Handler
	Server    *http.Server

	now func() time.Time
}

// New wires the application from cfg. The caller owns the logger.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	a := &Application{
		Config: cfg,
		Paths:  paths,
		Logger: logger,
		now:    time.Now,
	}

	if a.Telemetry, err = infrastructure.InitializeOTel(cfg.Telemetry, paths, logger); err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	a.Engine = compliance.NewEngine(a.engineOptions(), logger)
	a.Runs = services.NewComplianceService(
		ingest.NewLoader(paths, logger),
		a.Engine,
		exporter.New(paths, cfg.Export, logger),
		a.Telemetry.Metrics,
		logger,
	)
	a.Health = services.NewHealthService(Version, paths, a.Runs, logger)

	logger.Info("application configured",
		slog.String("version", Version),
		slog.String("config_file", cfg.File),
		slog.String("input_dir", paths.InputDir),
		slog.String("output_dir", paths.OutputDir),
		slog.String("evaluation_date", evaluationDateLabel(cfg.Pipeline)))
	return a, nil
}

func (a *Application) engineOptions() compliance.Options {
	p := a.Config.Pipeline
	// Validate already rejected unknown aliases
	aliases, _ := normalize.BuildStatusAliases(p.AllowedStatuses)
	return compliance.Options{
		EvaluationDate:    p.FixedDate(),
		Clock:             func() time.Time { return a.now() },
		DefaultRecurrence: p.DefaultRecurrence,
		Workers:           p.Workers,
		DateLayouts:       p.DateLayouts,
		StatusAliases:     aliases,
		DefaultCompany:    p.DefaultCompany,
	}
}

func evaluationDateLabel(p config.PipelineConfig) string {
	if p.EvaluationDate == "" {
		return "day of run"
	}
	return p.EvaluationDate
}

// Validate checks the input directory without evaluating or exporting
func (a *Application) Validate(ctx context.Context) ([]domain.Issue, error) {
	return a.Runs.Validate(ctx)
}

// Build performs one full run and, when configured, writes the metrics
// textfile afterwards. The textfile is written for failed runs too.
func (a *Application) Build(ctx context.Context) (*services.Run, error) {
	if err := a.Paths.EnsureOutputDirectories(); err != nil {
		return nil, err
	}

	run, err := a.Runs.Run(ctx)

	if name := a.Config.Telemetry.MetricsTextfile; name != "" {
		path := a.Paths.OutputPath(name)
		if werr := a.Telemetry.WriteMetricsTextfile(path); werr != nil {
			a.Logger.ErrorContext(ctx, "failed to write metrics textfile",
				slog.String("path", path),
				slog.String("error", werr.Error()))
		} else {
			a.Logger.InfoContext(ctx, "metrics textfile written", slog.String("path", path))
		}
	}
	return run, err
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Router = handlers.NewRouter(handlers.RouterDeps{
		Runs:           a.Runs,
		Health:         a.Health,
		Metrics:        a.Telemetry.Metrics,
		MetricsHandler: a.Telemetry.Handler(),
		Server:         a.Config.Server,
		Logger:         a.Logger,
	})
	a.Server = &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start begins serving on ln. Serve errors cancel the application
// through cancel.
func (a *Application) Start(ctx context.Context, ln net.Listener, cancel context.CancelFunc) error {
	if err := a.Paths.EnsureOutputDirectories(); err != nil {
		return err
	}
	a.createServer()

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	health := a.Health.HealthCheck(ctx)
	if health.Status != "ok" {
		a.Logger.WarnContext(ctx, "starting with degraded health",
			slog.Any("services", health.Services))
	}
	a.Logger.InfoContext(ctx, "server started",
		slog.String("address", ln.Addr().String()),
		slog.String("version", Version))
	return nil
}

// Stop gracefully stops the server and flushes telemetry. In-flight runs
// finish or hit the shutdown deadline.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}
	if err := a.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	a.Logger.InfoContext(ctx, "shutdown complete")
	return errors.Join(errs...)
}

// Close releases telemetry resources
func (a *Application) Close(ctx context.Context) error {
	if a.Telemetry == nil {
		return nil
	}
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry shutdown error: %w", err)
	}
	return nil
}

// Serve runs the HTTP API until ctx is cancelled or the process receives
// SIGINT or SIGTERM
func (a *Application) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Config.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Config.Server.Addr, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := a.Start(ctx, ln, cancel); err != nil {
		ln.Close()
		return err
	}

	<-ctx.Done()
	return a.Stop(context.Background())
}
