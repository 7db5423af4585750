package compliance

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "trainingtracker/internal/errors"
	"trainingtracker/internal/normalize"
	"trainingtracker/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of pipeline spans
const TracerName = "trainingtracker.compliance"

// Options configures the engine. Nothing is read from globals.
type Options struct {
	// EvaluationDate pins every run to one date. When zero each run is
	// evaluated as of the day it starts, read from Clock.
	EvaluationDate    time.Time
	Clock             func() time.Time
	DefaultRecurrence int // months, applied to courses without one
	Workers           int // parallel employee evaluations, GOMAXPROCS when zero

	DateLayouts    []string
	StatusAliases  map[string]domain.TrainingStatus
	DefaultCompany string
}

// Result is the complete output of a run
type Result struct {
	EvaluationDate time.Time                 `json:"evaluation_date"`
	Employees      []domain.ComplianceRecord `json:"employees"`
	Rollup
	Issues []domain.Issue `json:"issues"`
}

// Engine runs the pipeline: normalize, resolve, evaluate, aggregate
type Engine struct {
	opts   Options
	tracer trace.Tracer
	logger *slog.Logger
}

// NewEngine creates an Engine
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if !opts.EvaluationDate.IsZero() {
		opts.EvaluationDate = truncateDay(opts.EvaluationDate)
	}
	return &Engine{
		opts:   opts,
		tracer: otel.Tracer(TracerName),
		logger: logger.With(slog.String("component", "compliance_engine")),
	}
}

// EvaluationDate returns the date a run started now is evaluated against
func (e *Engine) EvaluationDate() time.Time {
	if !e.opts.EvaluationDate.IsZero() {
		return e.opts.EvaluationDate
	}
	return truncateDay(e.opts.Clock().UTC())
}

// run holds the stages bound to one evaluation date
type run struct {
	date       time.Time
	normalizer *normalize.Normalizer
	evaluator  *Evaluator
}

func (e *Engine) newRun() run {
	date := e.EvaluationDate()
	return run{
		date: date,
		normalizer: normalize.New(normalize.Options{
			EvaluationDate: date,
			DateLayouts:    e.opts.DateLayouts,
			StatusAliases:  e.opts.StatusAliases,
			DefaultCompany: e.opts.DefaultCompany,
		}, e.logger),
		evaluator: NewEvaluator(date),
	}
}

// Run computes the compliance result of a snapshot. A fatal input error
// stops the run before aggregation; the partial result still carries every
// diagnostic collected. The context is only checked between stages.
func (e *Engine) Run(ctx context.Context, snap domain.Snapshot) (*Result, error) {
	rn := e.newRun()
	result := &Result{EvaluationDate: rn.date}

	resolutions, statuses, err := e.prepare(ctx, rn, snap, result)
	if err != nil {
		return result, err
	}

	if err := stageGate(ctx, "evaluate"); err != nil {
		return result, err
	}
	ctx, span := e.tracer.Start(ctx, "compliance.evaluate",
		trace.WithAttributes(attribute.Int("compliance.employees", len(resolutions))))
	records, issues, err := rn.evaluator.EvaluateAll(ctx, resolutions, statuses, e.opts.Workers)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return result, apierrors.NewCanceledError("evaluate", err)
	}
	span.End()
	result.Issues = append(result.Issues, issues...)

	if err := stageGate(ctx, "aggregate"); err != nil {
		return result, err
	}
	_, span = e.tracer.Start(ctx, "compliance.aggregate")
	result.Employees = records
	result.Rollup = Aggregate(records)
	span.SetAttributes(
		attribute.Int("compliance.units", len(result.Units)),
		attribute.Int("compliance.organizations", len(result.Organizations)),
		attribute.Int("compliance.companies", len(result.Companies)),
	)
	span.End()

	e.logger.InfoContext(ctx, "compliance run completed",
		slog.String("evaluation_date", rn.date.Format(time.DateOnly)),
		slog.Int("employees", len(records)),
		slog.Int("units", len(result.Units)),
		slog.Int("organizations", len(result.Organizations)),
		slog.Int("companies", len(result.Companies)),
		slog.String("overall", result.Overall.Percentage.String()),
		slog.Int("issues", len(result.Issues)),
	)
	return result, nil
}

// Check normalizes and resolves a snapshot without evaluating it. It
// returns every diagnostic the first two stages produce.
func (e *Engine) Check(ctx context.Context, snap domain.Snapshot) ([]domain.Issue, error) {
	rn := e.newRun()
	result := &Result{EvaluationDate: rn.date}
	_, _, err := e.prepare(ctx, rn, snap, result)
	return result.Issues, err
}

func (e *Engine) prepare(ctx context.Context, rn run, snap domain.Snapshot, result *Result) ([]Resolution, []domain.CurriculumStatus, error) {
	if err := stageGate(ctx, "normalize"); err != nil {
		return nil, nil, err
	}
	_, span := e.tracer.Start(ctx, "compliance.normalize")
	ents, issues, err := rn.normalizer.Normalize(snap)
	result.Issues = append(result.Issues, issues...)
	span.SetAttributes(attribute.Int("compliance.issues", len(issues)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		e.logger.WarnContext(ctx, "snapshot rejected", slog.String("error", err.Error()))
		return nil, nil, err
	}
	span.End()

	if err := stageGate(ctx, "resolve"); err != nil {
		return nil, nil, err
	}
	_, span = e.tracer.Start(ctx, "compliance.resolve")
	employees := make([]domain.Employee, len(ents.Employees))
	copy(employees, ents.Employees)
	sort.SliceStable(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })

	resolutions, issues := ResolveRequirements(employees, ents.Roles, e.opts.DefaultRecurrence)
	result.Issues = append(result.Issues, issues...)
	span.SetAttributes(attribute.Int("compliance.missing_roles", len(issues)))
	span.End()
	return resolutions, ents.Statuses, nil
}

func stageGate(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return apierrors.NewCanceledError(stage, err)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
