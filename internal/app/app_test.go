package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainingtracker/internal/config"
	"trainingtracker/internal/services"
	"trainingtracker/internal/shared/testutil"
	"trainingtracker/pkg/contracts/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.PathsConfig{
		InputDir:  filepath.Join(dir, "input"),
		OutputDir: filepath.Join(dir, "output"),
		LogsDir:   filepath.Join(dir, "logs"),
	}
	cfg.Pipeline.EvaluationDate = "2024-06-30"
	cfg.Telemetry.MetricsTextfile = config.DefaultMetricsTextfile
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestNewWiresEngineFromConfig(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)

	assert.Equal(t, testutil.EvaluationDate, a.Engine.EvaluationDate())
	assert.True(t, filepath.IsAbs(a.Paths.InputDir))
	assert.NotNil(t, a.Telemetry.Metrics)
}

func TestRunsFollowTheClockWithoutFixedDate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.EvaluationDate = ""
	a := newTestApp(t, cfg)
	testutil.WriteSampleInput(t, a.Paths.InputDir)

	now := testutil.EvaluationDate.Add(9 * time.Hour)
	a.now = func() time.Time { return now }

	first, err := a.Runs.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testutil.EvaluationDate, first.Result.EvaluationDate)
	assert.Equal(t, 40.0, first.Result.Overall.Percentage.Value)

	// a year on, the 12 month safety course of E001 has lapsed
	now = now.AddDate(1, 0, 0)
	second, err := a.Runs.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testutil.Date(2025, time.June, 30), second.Result.EvaluationDate)
	assert.Equal(t, "2025-06-30", second.Summary().EvaluationDate)
	assert.Less(t, second.Result.Overall.Percentage.Value, first.Result.Overall.Percentage.Value)
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)
	testutil.WriteSampleInput(t, a.Paths.InputDir)

	run, err := a.Build(context.Background())
	require.NoError(t, err)
	assert.Len(t, run.Files, 8)
	assert.Equal(t, 40.0, run.Result.Overall.Percentage.Value)

	assert.FileExists(t, filepath.Join(a.Paths.OutputDir, config.DefaultWorkbookName))
	content, err := os.ReadFile(filepath.Join(a.Paths.OutputDir, config.DefaultMetricsTextfile))
	require.NoError(t, err)
	assert.Contains(t, string(content), "tracker_runs_total")
}

func TestBuildFatalInputStillWritesMetrics(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)

	_, err := a.Build(context.Background())
	require.Error(t, err)
	assert.True(t, services.IsFatal(err))
	assert.FileExists(t, filepath.Join(a.Paths.OutputDir, config.DefaultMetricsTextfile))
}

func TestValidate(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)
	testutil.WriteSampleInput(t, a.Paths.InputDir)

	issues, err := a.Validate(context.Background())
	require.NoError(t, err)
	var codes []string
	for _, i := range issues {
		codes = append(codes, i.Code)
	}
	assert.Contains(t, codes, domain.CodeMissingRoleDefinition)
	assert.NoFileExists(t, filepath.Join(a.Paths.OutputDir, config.DefaultWorkbookName))
}

func TestStartServeAndStop(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)
	testutil.WriteSampleInput(t, a.Paths.InputDir)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx, ln, cancel))

	base := "http://" + ln.Addr().String()

	resp, err := http.Get(base + "/api/health")
	require.NoError(t, err)
	var health services.HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health.Status)

	resp, err = http.Post(base+"/api/runs", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(base + "/api/runs/latest/employee_kpis?format=csv")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, a.Stop(context.Background()))
	_, err = http.Get(base + "/api/health")
	assert.Error(t, err)
}
