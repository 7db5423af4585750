package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trainingtracker/internal/config"
	"trainingtracker/internal/report"
)

// Exporter writes the tables of a run in every configured format
type Exporter struct {
	cfg      config.ExportConfig
	csv      *CSVWriter
	workbook *WorkbookWriter
	logger   *slog.Logger
}

// New creates an exporter writing below paths.OutputDir
func New(paths *config.Paths, cfg config.ExportConfig, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		cfg:      cfg,
		csv:      NewCSVWriter(paths, cfg.BOM, logger),
		workbook: NewWorkbookWriter(paths, cfg.WorkbookName, logger),
		logger:   logger,
	}
}

// Export writes all tables and returns the files written, in table order
// with the workbook last. Existing files are replaced.
func (e *Exporter) Export(ctx context.Context, tables report.Tables, evaluationDate time.Time) ([]string, error) {
	var files []string

	if e.cfg.HasFormat(config.FormatCSV) {
		for _, table := range tables {
			if err := ctx.Err(); err != nil {
				return files, err
			}
			path, err := e.csv.WriteTable(table)
			if err != nil {
				return files, fmt.Errorf("export %s: %w", table.Name, err)
			}
			files = append(files, path)
		}
	}

	if e.cfg.HasFormat(config.FormatXLSX) {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		path, err := e.workbook.Write(tables, evaluationDate)
		if err != nil {
			return files, fmt.Errorf("export workbook: %w", err)
		}
		files = append(files, path)
	}

	e.logger.InfoContext(ctx, "reports exported",
		slog.Int("files", len(files)),
		slog.Any("formats", e.cfg.Formats))
	return files, nil
}
