// Package report shapes compliance results into flat tables for BI tools.
// It formats values and nothing else.
package report

// Table names, also used as CSV file and worksheet names
const (
	EmployeeKPIs     = "employee_kpis"
	EmployeeDetail   = "employee_course_detail"
	UnitKPIs         = "unit_kpis"
	OrganizationKPIs = "organization_kpis"
	CompanyKPIs      = "company_kpis"
	OverallKPIs      = "overall_kpis"
	ValidationIssues = "validation_issues"
)

// ColumnType tells writers how a column may be typed in a spreadsheet
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnInt
	ColumnPercent
	ColumnDate
	ColumnBool
)

// Column is a table header with its type
type Column struct {
	Name string
	Type ColumnType
}

// Table is a named, fully formatted table
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]string
}

// Headers returns the column names
func (t Table) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Tables is the ordered set of tables of one run
type Tables []Table

// Get returns the table with the given name
func (ts Tables) Get(name string) (Table, bool) {
	for _, t := range ts {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Names lists table names in output order
func (ts Tables) Names() []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}
