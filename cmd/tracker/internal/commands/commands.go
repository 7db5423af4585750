package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"trainingtracker/internal/app"
	"trainingtracker/internal/config"
	"trainingtracker/internal/infrastructure"
)

// Globals are the flags shared by every command
type Globals struct {
	Config   string `help:"Configuration file (YAML)" type:"path" short:"c" env:"TRACKER_CONFIG_FILE"`
	Input    string `help:"Input directory, overrides paths.input_dir" type:"path"`
	Output   string `help:"Output directory, overrides paths.output_dir" type:"path"`
	Date     string `help:"Evaluation date YYYY-MM-DD, overrides pipeline.evaluation_date"`
	LogLevel string `help:"Log level (debug, info, warn, error)" name:"log-level"`

	Stdout io.Writer `kong:"-"`
}

// load reads the configuration and applies command line overrides
func (g *Globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Input != "" {
		cfg.Paths.InputDir = g.Input
	}
	if g.Output != "" {
		cfg.Paths.OutputDir = g.Output
	}
	if g.Date != "" {
		cfg.Pipeline.EvaluationDate = g.Date
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bootstrap loads configuration, sets up logging and wires the application
func (g *Globals) bootstrap() (*app.Application, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to start", slog.String("error", err.Error()))
		return nil, err
	}
	return a, nil
}

func (g *Globals) out() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// shutdown flushes telemetry and closes the log file
func shutdown(ctx context.Context, a *app.Application) {
	if err := a.Close(ctx); err != nil {
		a.Logger.Error("shutdown failed", slog.String("error", err.Error()))
	}
	_ = infrastructure.CloseLogFile()
}
