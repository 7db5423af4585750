package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "trainingtracker/internal/errors"
	"trainingtracker/internal/exporter"
	"trainingtracker/internal/report"
	"trainingtracker/internal/services"
)

// RunService is the part of the compliance service the API needs
type RunService interface {
	Run(ctx context.Context) (*services.Run, error)
	Latest() (*services.Run, error)
	LatestTable(name string) (report.Table, error)
}

// RunsHandler exposes compliance runs
type RunsHandler struct {
	service    RunService
	errors     *apierrors.ErrorHandler
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewRunsHandler creates a runs handler. A zero runTimeout leaves runs
// bounded only by the request context.
func NewRunsHandler(service RunService, errorHandler *apierrors.ErrorHandler, runTimeout time.Duration, logger *slog.Logger) *RunsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &RunsHandler{
		service:    service,
		errors:     errorHandler,
		runTimeout: runTimeout,
		logger:     logger.With(slog.String("handler", "runs")),
	}
}

// TableResponse is the JSON form of a report table
type TableResponse struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Count   int        `json:"count"`
}

// StartRun handles POST /api/runs
func (h *RunsHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}

	run, err := h.service.Run(ctx)
	if err != nil {
		h.runFailed(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "run triggered over HTTP", slog.String("run_id", run.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, run.Summary())
}

func (h *RunsHandler) runFailed(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrRunInProgress):
		render.Render(w, r, apierrors.NewProblemDetails(http.StatusConflict, apierrors.TypeRunRunning,
			"Run In Progress", "Another run is still executing", r.URL.Path))
	case services.IsFatal(err):
		problem := apierrors.NewProblemDetails(http.StatusUnprocessableEntity, apierrors.TypeInput,
			"Unusable Input", err.Error(), r.URL.Path)
		issues := services.Issues(err)
		problem.WithExtension("issues", issues)
		var runErr *services.RunError
		if errors.As(err, &runErr) {
			problem.WithExtension("run_id", runErr.RunID)
		}
		h.logger.WarnContext(r.Context(), "run rejected",
			slog.String("error", err.Error()),
			slog.Int("issues", len(issues)))
		render.Render(w, r, problem)
	default:
		h.errors.HandleError(w, r, err)
	}
}

// GetLatest handles GET /api/runs/latest
func (h *RunsHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Latest()
	if err != nil {
		h.noRun(w, r, err)
		return
	}
	render.JSON(w, r, run.Summary())
}

// GetLatestTable handles GET /api/runs/latest/{table}. The table is sent
// as CSV when ?format=csv is given or the client accepts text/csv.
func (h *RunsHandler) GetLatestTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	table, err := h.service.LatestTable(name)
	if err != nil {
		h.noRun(w, r, err)
		return
	}

	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+table.Name+`.csv"`)
		err := exporter.Encode(w, exporter.WriteOptions{
			Headers: table.Headers(),
			Records: table.Rows,
		})
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to stream table",
				slog.String("table", table.Name),
				slog.String("error", err.Error()))
		}
		return
	}

	rows := table.Rows
	if rows == nil {
		rows = [][]string{}
	}
	render.JSON(w, r, TableResponse{
		Name:    table.Name,
		Columns: table.Headers(),
		Rows:    rows,
		Count:   len(rows),
	})
}

func (h *RunsHandler) noRun(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoRunYet):
		render.Render(w, r, apierrors.NewProblemDetails(http.StatusNotFound, apierrors.TypeNoRun,
			"No Run Yet", "No run has completed successfully; trigger one with POST /api/runs", r.URL.Path))
	case errors.Is(err, services.ErrTableNotFound):
		render.Render(w, r, apierrors.NewProblemDetails(http.StatusNotFound, apierrors.TypeNotFound,
			"Table Not Found", "Unknown table "+chi.URLParam(r, "table"), r.URL.Path).
			WithExtension("tables", tableNames(h.service)))
	default:
		h.errors.HandleError(w, r, err)
	}
}

func tableNames(service RunService) []string {
	run, err := service.Latest()
	if err != nil {
		return nil
	}
	return run.Tables.Names()
}

func wantsCSV(r *http.Request) bool {
	if format := r.URL.Query().Get("format"); format != "" {
		return strings.EqualFold(format, "csv")
	}
	return strings.Contains(r.Header.Get("Accept"), "text/csv")
}
