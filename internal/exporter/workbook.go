package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"trainingtracker/internal/config"
	"trainingtracker/internal/report"
	"trainingtracker/pkg/contracts/domain"
)

const (
	defaultSheet = "Sheet1"
	maxColWidth  = 48
	minColWidth  = 10
)

// WorkbookWriter writes all tables of a run into one workbook, one sheet
// per table.
type WorkbookWriter struct {
	paths  *config.Paths
	name   string
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer for <output>/<name>
func NewWorkbookWriter(paths *config.Paths, name string, logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if name == "" {
		name = config.DefaultWorkbookName
	}
	return &WorkbookWriter{paths: paths, name: name, logger: logger}
}

// Path returns where the workbook is written
func (w *WorkbookWriter) Path() string {
	return w.paths.OutputPath(w.name)
}

// Write saves the workbook and returns its path. stamp is recorded as the
// creation date so identical inputs give identical files.
func (w *WorkbookWriter) Write(tables report.Tables, stamp time.Time) (string, error) {
	path := w.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Build(tmp, tables, stamp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close workbook: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move workbook into place: %w", err)
	}

	w.logger.Debug("workbook written",
		slog.String("path", path),
		slog.Int("sheets", len(tables)))
	return path, nil
}

// Build renders tables as an xlsx workbook into out
func Build(out io.Writer, tables report.Tables, stamp time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	created := stamp.UTC().Format(time.RFC3339)
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:        config.AppName,
		LastModifiedBy: config.AppName,
		Title:          "Training compliance KPIs",
		Created:        created,
		Modified:       created,
	}); err != nil {
		return fmt.Errorf("failed to set workbook properties: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, table := range tables {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, table.Name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", table.Name, err)
			}
		} else if _, err := f.NewSheet(table.Name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", table.Name, err)
		}
		if err := writeSheet(f, table, headerStyle); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", table.Name, err)
		}
	}
	if len(tables) > 0 {
		f.SetActiveSheet(0)
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, table report.Table, headerStyle int) error {
	sheet := table.Name
	headers := table.Headers()
	header := make([]interface{}, len(headers))
	widths := make([]int, len(headers))
	for i, h := range headers {
		header[i] = h
		widths[i] = len(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for c, value := range row {
			cells[c] = typedCell(table.Columns[c].Type, value)
			if len(value) > widths[c] {
				widths[c] = len(value)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}

	if len(headers) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(clamp(w+2, minColWidth, maxColWidth))); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	lastRow, err := excelize.CoordinatesToCellName(len(headers), len(table.Rows)+1)
	if err != nil {
		return err
	}
	return f.AutoFilter(sheet, "A1:"+lastRow, nil)
}

// typedCell converts a formatted value into the spreadsheet type of its
// column. Values that do not parse (N/A, blanks) stay text.
func typedCell(kind report.ColumnType, value string) interface{} {
	switch kind {
	case report.ColumnInt:
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	case report.ColumnPercent:
		if value == domain.NotApplicable {
			return value
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	case report.ColumnBool:
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return value
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
