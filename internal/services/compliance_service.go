package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trainingtracker/internal/compliance"
	apierrors "trainingtracker/internal/errors"
	"trainingtracker/internal/infrastructure"
	"trainingtracker/internal/report"
	"trainingtracker/pkg/contracts/domain"
)

// SnapshotLoader reads the inputs of a run
type SnapshotLoader interface {
	Load(ctx context.Context) (domain.Snapshot, error)
}

// TableExporter writes the tables of a run
type TableExporter interface {
	Export(ctx context.Context, tables report.Tables, evaluationDate time.Time) ([]string, error)
}

// Run is one finished computation
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Result     *compliance.Result
	Tables     report.Tables
	Files      []string
}

// RunSummary is the wire view of a run
type RunSummary struct {
	ID             string                 `json:"id"`
	StartedAt      time.Time              `json:"started_at"`
	FinishedAt     time.Time              `json:"finished_at"`
	DurationMS     int64                  `json:"duration_ms"`
	EvaluationDate string                 `json:"evaluation_date"`
	Employees      int                    `json:"employees"`
	Units          int                    `json:"units"`
	Organizations  int                    `json:"organizations"`
	Companies      int                    `json:"companies"`
	Overall        domain.AggregateRecord `json:"overall"`
	IssueCounts    map[string]int         `json:"issue_counts"`
	Tables         []string               `json:"tables"`
	Files          []string               `json:"files,omitempty"`
}

// Summary condenses the run for API responses
func (r *Run) Summary() RunSummary {
	counts := make(map[string]int)
	for _, i := range r.Result.Issues {
		counts[string(i.Level)]++
	}
	return RunSummary{
		ID:             r.ID,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		DurationMS:     r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
		EvaluationDate: r.Result.EvaluationDate.Format(time.DateOnly),
		Employees:      len(r.Result.Employees),
		Units:          len(r.Result.Units),
		Organizations:  len(r.Result.Organizations),
		Companies:      len(r.Result.Companies),
		Overall:        r.Result.Overall,
		IssueCounts:    counts,
		Tables:         r.Tables.Names(),
		Files:          r.Files,
	}
}

// RunError is returned when a run is rejected. It keeps the diagnostics
// collected before the failure.
type RunError struct {
	RunID  string
	Issues []domain.Issue
	Err    error
}

func (e *RunError) Error() string { return e.Err.Error() }

func (e *RunError) Unwrap() error { return e.Err }

// ComplianceService loads inputs, runs the engine and exports reports.
// Only one run executes at a time; the last successful run is kept for
// the HTTP API.
type ComplianceService struct {
	loader   SnapshotLoader
	engine   *compliance.Engine
	exporter TableExporter
	metrics  *infrastructure.BusinessMetrics
	tracer   trace.Tracer
	logger   *slog.Logger

	running sync.Mutex

	mu     sync.RWMutex
	latest *Run
}

// NewComplianceService creates the run service. exporter and metrics may
// be nil.
func NewComplianceService(loader SnapshotLoader, engine *compliance.Engine, exporter TableExporter, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *ComplianceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComplianceService{
		loader:   loader,
		engine:   engine,
		exporter: exporter,
		metrics:  metrics,
		tracer:   otel.Tracer("trainingtracker.services"),
		logger:   logger.With(slog.String("component", "compliance_service")),
	}
}

// Run performs a full run. It fails fast with ErrRunInProgress when
// another run holds the service.
func (s *ComplianceService) Run(ctx context.Context) (*Run, error) {
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	ctx = infrastructure.EnsureRunID(ctx)
	run := &Run{ID: infrastructure.GetRunID(ctx), StartedAt: time.Now().UTC()}

	logger := s.logger.With(slog.String("run_id", run.ID))

	ctx, span := s.tracer.Start(ctx, "compliance.run",
		trace.WithAttributes(attribute.String("run.id", run.ID)))
	defer span.End()

	logger.InfoContext(ctx, "run started")

	err := s.execute(ctx, run)
	run.FinishedAt = time.Now().UTC()

	outcome := infrastructure.RunOutcome{
		Duration: run.FinishedAt.Sub(run.StartedAt),
		Err:      err,
	}
	if run.Result != nil {
		outcome.Employees = len(run.Result.Employees)
		outcome.Issues = run.Result.Issues
		outcome.Overall = run.Result.Overall.Percentage
	}
	s.metrics.RecordRun(ctx, outcome)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "run failed", slog.String("error", err.Error()))
		var issues []domain.Issue
		if run.Result != nil {
			issues = run.Result.Issues
		}
		return run, &RunError{RunID: run.ID, Issues: issues, Err: err}
	}

	s.mu.Lock()
	s.latest = run
	s.mu.Unlock()

	logger.InfoContext(ctx, "run finished",
		slog.String("evaluation_date", run.Result.EvaluationDate.Format(time.DateOnly)),
		slog.Duration("duration", outcome.Duration),
		slog.Int("employees", outcome.Employees),
		slog.Int("issues", len(outcome.Issues)),
		slog.Int("files", len(run.Files)))
	return run, nil
}

func (s *ComplianceService) execute(ctx context.Context, run *Run) error {
	snap, err := s.loader.Load(ctx)
	if err != nil {
		return err
	}

	result, err := s.engine.Run(ctx, snap)
	run.Result = result
	if err != nil {
		return err
	}

	run.Tables = report.Assemble(result)
	if s.exporter == nil {
		return nil
	}
	files, err := s.exporter.Export(ctx, run.Tables, result.EvaluationDate)
	run.Files = files
	if err != nil {
		return apierrors.NewStorageError("failed to export reports", err)
	}
	return nil
}

// Validate loads the inputs and checks them without evaluating
func (s *ComplianceService) Validate(ctx context.Context) ([]domain.Issue, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	ctx, span := s.tracer.Start(ctx, "compliance.validate")
	defer span.End()

	snap, err := s.loader.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	issues, err := s.engine.Check(ctx, snap)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logger.InfoContext(ctx, "inputs validated",
		slog.Int("issues", len(issues)),
		slog.Bool("fatal", err != nil))
	return issues, err
}

// Latest returns the last successful run
func (s *ComplianceService) Latest() (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoRunYet
	}
	return s.latest, nil
}

// LatestTable returns one table of the last successful run
func (s *ComplianceService) LatestTable(name string) (report.Table, error) {
	run, err := s.Latest()
	if err != nil {
		return report.Table{}, err
	}
	table, ok := run.Tables.Get(name)
	if !ok {
		return report.Table{}, ErrTableNotFound
	}
	return table, nil
}

// IsFatal reports whether err rejected the inputs rather than failing
// the machinery
func IsFatal(err error) bool {
	return apierrors.IsInput(err)
}

// Issues extracts the diagnostics carried by a run error
func Issues(err error) []domain.Issue {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Issues
	}
	return nil
}
