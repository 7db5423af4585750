package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trainingtracker/internal/compliance"
	"trainingtracker/internal/config"
	apierrors "trainingtracker/internal/errors"
	"trainingtracker/internal/infrastructure"
	"trainingtracker/internal/report"
	"trainingtracker/internal/services"
	"trainingtracker/internal/shared/testutil"
	"trainingtracker/pkg/contracts/domain"
)

type MockRunService struct {
	mock.Mock
}

func (m *MockRunService) Run(ctx context.Context) (*services.Run, error) {
	args := m.Called(ctx)
	run, _ := args.Get(0).(*services.Run)
	return run, args.Error(1)
}

func (m *MockRunService) Latest() (*services.Run, error) {
	args := m.Called()
	run, _ := args.Get(0).(*services.Run)
	return run, args.Error(1)
}

func (m *MockRunService) LatestTable(name string) (report.Table, error) {
	args := m.Called(name)
	return args.Get(0).(report.Table), args.Error(1)
}

type stubHealth struct{ status string }

func (s stubHealth) HealthCheck(context.Context) services.HealthStatus {
	return services.HealthStatus{Status: s.status, Version: "test"}
}

func sampleRun(t *testing.T) *services.Run {
	t.Helper()
	engine := compliance.NewEngine(compliance.Options{EvaluationDate: testutil.EvaluationDate}, nil)
	result, err := engine.Run(context.Background(), testutil.SampleSnapshot())
	require.NoError(t, err)
	started := time.Date(2024, 6, 30, 8, 0, 0, 0, time.UTC)
	return &services.Run{
		ID:         "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Result:     result,
		Tables:     report.Assemble(result),
	}
}

func newTestRouter(t *testing.T, runs RunService, server config.ServerConfig) http.Handler {
	logger, _ := testutil.NewTestLogger(t)
	return NewRouter(RouterDeps{
		Runs:   runs,
		Health: stubHealth{status: "ok"},
		Server: server,
		Logger: logger,
	})
}

func do(h http.Handler, method, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestRouter(t, new(MockRunService), config.ServerConfig{})
	rec := do(h, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestStartRun(t *testing.T) {
	runs := new(MockRunService)
	runs.On("Run", mock.Anything).Return(sampleRun(t), nil)
	h := newTestRouter(t, runs, config.ServerConfig{RunTimeout: time.Minute})

	rec := do(h, http.MethodPost, "/api/runs")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "run-1", body["id"])
	assert.Equal(t, "2024-06-30", body["evaluation_date"])
	assert.EqualValues(t, 5, body["employees"])
	assert.EqualValues(t, 1500, body["duration_ms"])
	overall := body["overall"].(map[string]any)
	assert.Equal(t, compliance.OverallID, overall["id"])

	ctx := runs.Calls[0].Arguments.Get(0).(context.Context)
	_, hasDeadline := ctx.Deadline()
	assert.True(t, hasDeadline, "run timeout applies")
}

func TestStartRunFailures(t *testing.T) {
	fatal := &services.RunError{
		RunID: "run-2",
		Issues: []domain.Issue{{
			Level:   domain.LevelError,
			Code:    domain.CodeMissingSource,
			Source:  domain.SourceRoles,
			Message: "no role requirements found",
		}},
		Err: apierrors.NewInputError("roles source is unusable", nil),
	}

	tests := []struct {
		name     string
		err      error
		status   int
		typ      string
		validate func(t *testing.T, body map[string]any)
	}{
		{
			name:   "in progress",
			err:    services.ErrRunInProgress,
			status: http.StatusConflict,
			typ:    apierrors.TypeRunRunning,
		},
		{
			name:   "fatal input",
			err:    fatal,
			status: http.StatusUnprocessableEntity,
			typ:    apierrors.TypeInput,
			validate: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "run-2", body["run_id"])
				issues := body["issues"].([]any)
				require.Len(t, issues, 1)
				assert.Equal(t, domain.CodeMissingSource, issues[0].(map[string]any)["code"])
			},
		},
		{
			name:   "storage failure",
			err:    &services.RunError{RunID: "run-3", Err: apierrors.NewStorageError("failed to export reports", errors.New("disk full"))},
			status: http.StatusInternalServerError,
			typ:    apierrors.TypeInternal,
			validate: func(t *testing.T, body map[string]any) {
				assert.Equal(t, string(apierrors.ErrTypeStorage), body["error_type"])
			},
		},
		{
			name:   "timeout",
			err:    context.DeadlineExceeded,
			status: http.StatusGatewayTimeout,
			typ:    apierrors.TypeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := new(MockRunService)
			runs.On("Run", mock.Anything).Return(nil, tt.err)
			h := newTestRouter(t, runs, config.ServerConfig{})

			rec := do(h, http.MethodPost, "/api/runs")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Equal(t, tt.typ, body["type"])
			if tt.validate != nil {
				tt.validate(t, body)
			}
		})
	}
}

func TestStartRunRateLimited(t *testing.T) {
	runs := new(MockRunService)
	runs.On("Run", mock.Anything).Return(sampleRun(t), nil)
	h := newTestRouter(t, runs, config.ServerConfig{
		RateLimit: config.RateLimitConfig{Enabled: true, RPS: 0.01, Burst: 1},
	})

	assert.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/api/runs").Code)
	rec := do(h, http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	runs.AssertNumberOfCalls(t, "Run", 1)

	runs.On("Latest").Return(sampleRun(t), nil)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/runs/latest").Code, "reads are not limited")
}

func TestGetLatest(t *testing.T) {
	t.Run("no run", func(t *testing.T) {
		runs := new(MockRunService)
		runs.On("Latest").Return(nil, services.ErrNoRunYet)
		rec := do(newTestRouter(t, runs, config.ServerConfig{}), http.MethodGet, "/api/runs/latest")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apierrors.TypeNoRun, decode(t, rec)["type"])
	})

	t.Run("summary", func(t *testing.T) {
		runs := new(MockRunService)
		runs.On("Latest").Return(sampleRun(t), nil)
		rec := do(newTestRouter(t, runs, config.ServerConfig{}), http.MethodGet, "/api/runs/latest")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "run-1", body["id"])
		assert.Len(t, body["tables"], 7)
	})
}

func TestGetLatestTable(t *testing.T) {
	run := sampleRun(t)
	table, ok := run.Tables.Get(report.OrganizationKPIs)
	require.True(t, ok)

	runs := new(MockRunService)
	runs.On("LatestTable", report.OrganizationKPIs).Return(table, nil)
	runs.On("LatestTable", "nope").Return(report.Table{}, services.ErrTableNotFound)
	runs.On("Latest").Return(run, nil)
	h := newTestRouter(t, runs, config.ServerConfig{})

	t.Run("json", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/runs/latest/"+report.OrganizationKPIs)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp TableResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, report.OrganizationKPIs, resp.Name)
		assert.Equal(t, table.Headers(), resp.Columns)
		assert.Equal(t, len(table.Rows), resp.Count)
	})

	t.Run("csv by query", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/runs/latest/"+report.OrganizationKPIs+"?format=csv")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		assert.Len(t, lines, len(table.Rows)+1)
		assert.Equal(t, strings.Join(table.Headers(), ","), strings.TrimRight(lines[0], "\r"))
	})

	t.Run("csv by accept", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/runs/latest/"+report.OrganizationKPIs, "Accept", "text/csv")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	})

	t.Run("unknown table", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/runs/latest/nope")
		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, apierrors.TypeNotFound, body["type"])
		assert.Len(t, body["tables"], 7)
	})
}

func TestUnknownRoute(t *testing.T) {
	h := newTestRouter(t, new(MockRunService), config.ServerConfig{})
	rec := do(h, http.MethodGet, "/api/nothing")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeNotFound, decode(t, rec)["type"])

	rec = do(h, http.MethodDelete, "/api/runs/latest")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	tel, err := infrastructure.InitializeOTel(config.TelemetryConfig{}, nil, nil)
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	h := NewRouter(RouterDeps{
		Runs:           new(MockRunService),
		Health:         stubHealth{status: "ok"},
		Metrics:        tel.Metrics,
		MetricsHandler: tel.Handler(),
	})
	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/health").Code)

	rec := do(h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/health"`)
}
