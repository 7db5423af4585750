package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"trainingtracker/internal/files"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is the content of one input file. Line holds the 1-based line or
// sheet row number of each record.
type Table struct {
	Header  []string
	Records [][]string
	Line    []int
}

// ReadFile reads the first worksheet of a workbook, or a CSV file
func ReadFile(file files.FileInfo) (*Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch file.Kind {
	case files.KindExcel:
		rows, err = readWorkbook(file.Path)
	case files.KindCSV:
		rows, err = readCSV(file.Path)
	default:
		return nil, fmt.Errorf("unsupported file type %q", file.Name)
	}
	if err != nil {
		return nil, err
	}
	return tabulate(rows), nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	// raw values keep dates as serial numbers instead of locale formatted text
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return parseCSV(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
}

func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// tabulate takes the first non-blank row as header and drops blank rows.
// Short records are padded to the header width.
func tabulate(rows [][]string) *Table {
	t := &Table{}
	start := -1
	for i, row := range rows {
		if !blank(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return t
	}

	t.Header = make([]string, len(rows[start]))
	for i, h := range rows[start] {
		t.Header[i] = strings.TrimSpace(h)
	}

	for i := start + 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		record := make([]string, len(t.Header))
		copy(record, row)
		t.Records = append(t.Records, record)
		t.Line = append(t.Line, i+1)
	}
	return t
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
