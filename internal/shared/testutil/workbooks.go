package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes rows to the first sheet of a new workbook at path
func WriteWorkbook(t *testing.T, path string, rows [][]any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

// WriteFile writes content to path, creating parent directories
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// WriteSampleInput lays out the records of SampleSnapshot as an input
// directory: a roster workbook, and Roles and Status files per
// organization folder.
func WriteSampleInput(t *testing.T, inputDir string) {
	t.Helper()

	WriteWorkbook(t, filepath.Join(inputDir, "hr", "roster.xlsx"), [][]any{
		{"Employee ID", "Full Name", "Job Title", "Organization", "Company"},
		{"E001", "Ana Ruiz", "OPERATOR", "PLANT-A", "ACME"},
		{"E002", "Luis Gomez", "OPERATOR;SUPERVISOR", "PLANT-A", "ACME"},
		{"E003", "Marta Diaz", "ANALYST", "FINANCE", "ACME"},
		{"E004", "Jon Perez", "GHOST", "LOGISTICS", "GLOBEX"},
		{"E005", "Eva Soto", "DRIVER", "LOGISTICS", "GLOBEX"},
	})

	org := func(name string) string { return filepath.Join(inputDir, "organizations", name) }
	roleHeader := []any{"Role ID", "Curriculum ID", "Required", "Recurrence Months"}

	WriteWorkbook(t, filepath.Join(org("PLANT-A"), "Roles", "roles.xlsx"), [][]any{
		{},
		roleHeader,
		{"OPERATOR", "SAFETY-101", "Mandatory", 12},
		{"OPERATOR", "FORKLIFT", "Mandatory", ""},
		{"SUPERVISOR", "SAFETY-101", "Mandatory", 6},
		{"SUPERVISOR", "LEADERSHIP", "Optional", ""},
	})
	WriteFile(t, filepath.Join(org("FINANCE"), "Roles", "roles.csv"),
		"\ufeffRole ID,Curriculum ID,Required,Recurrence Months\nANALYST,,NA,\n")
	WriteWorkbook(t, filepath.Join(org("LOGISTICS"), "Roles", "roles.xlsx"), [][]any{
		roleHeader,
		{"DRIVER", "DEFENSIVE-DRIVING", "Mandatory", 24},
	})

	statusHeader := []any{"Employee ID", "Curriculum ID", "Curriculum Complete", "Completion Date", "Due Date"}
	WriteWorkbook(t, filepath.Join(org("PLANT-A"), "Status", "status.xlsx"), [][]any{
		statusHeader,
		{"E001", "SAFETY-101", "Completed", "2024-01-15", ""},
		{"E001", "FORKLIFT", "In Progress", "", "2024-07-31"},
		{"E002", "SAFETY-101", "Completed", "2023-11-01", ""},
		{"E002", "SAFETY-101", "Completed", "2023-12-01", ""},
		{"E002", "FORKLIFT", "Completed", "2022-03-01", ""},
		{"E002", "LEADERSHIP", "Completed", "2024-02-01", ""},
	})
	WriteWorkbook(t, filepath.Join(org("LOGISTICS"), "Status", "status.xlsx"), [][]any{
		statusHeader,
		{"E005", "DEFENSIVE-DRIVING", "Completed", "2021-05-01", ""},
	})
}
