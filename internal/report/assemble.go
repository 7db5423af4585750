package report

import (
	"strings"

	"trainingtracker/internal/compliance"
	"trainingtracker/pkg/contracts/domain"
)

var (
	employeeColumns = []Column{
		{"employee_id", ColumnText},
		{"name", ColumnText},
		{"company_id", ColumnText},
		{"company_name", ColumnText},
		{"org_id", ColumnText},
		{"org_name", ColumnText},
		{"unit_id", ColumnText},
		{"unit_name", ColumnText},
		{"manager", ColumnText},
		{"roles", ColumnText},
		{"required", ColumnInt},
		{"completed", ColumnInt},
		{"pending", ColumnInt},
		{"expired", ColumnInt},
		{"overdue", ColumnInt},
		{"completion_pct", ColumnPercent},
		{"segment", ColumnText},
		{"fully_compliant", ColumnBool},
		{"optional_required", ColumnInt},
		{"optional_completed", ColumnInt},
		{"warnings", ColumnText},
	}

	detailColumns = []Column{
		{"employee_id", ColumnText},
		{"name", ColumnText},
		{"company_id", ColumnText},
		{"org_id", ColumnText},
		{"course_id", ColumnText},
		{"course_title", ColumnText},
		{"mandatory", ColumnBool},
		{"recurrence_months", ColumnInt},
		{"assigned", ColumnBool},
		{"state", ColumnText},
		{"completed_on", ColumnDate},
		{"due_on", ColumnDate},
		{"expires_on", ColumnDate},
		{"overdue", ColumnBool},
	}

	// shared tail of every aggregate table
	aggregateColumns = []Column{
		{"employees", ColumnInt},
		{"applicable_employees", ColumnInt},
		{"required", ColumnInt},
		{"completed", ColumnInt},
		{"pending", ColumnInt},
		{"expired", ColumnInt},
		{"overdue", ColumnInt},
		{"completion_pct", ColumnPercent},
		{"fully_compliant", ColumnInt},
		{"full_compliance_pct", ColumnPercent},
		{"segment_high", ColumnInt},
		{"segment_medium", ColumnInt},
		{"segment_low", ColumnInt},
		{"warnings", ColumnText},
	}

	issueColumns = []Column{
		{"level", ColumnText},
		{"code", ColumnText},
		{"source", ColumnText},
		{"row", ColumnInt},
		{"origin", ColumnText},
		{"field", ColumnText},
		{"entity_id", ColumnText},
		{"message", ColumnText},
	}
)

// Assemble shapes a run result into its output tables, in output order
func Assemble(result *compliance.Result) Tables {
	return Tables{
		employeeTable(result.Employees),
		detailTable(result.Employees),
		aggregateTable(UnitKPIs, []Column{
			{"company_id", ColumnText},
			{"org_id", ColumnText},
			{"unit_id", ColumnText},
			{"unit_name", ColumnText},
		}, result.Units, func(a domain.AggregateRecord) []string {
			return []string{a.CompanyID, a.OrgID, a.ID, a.Name}
		}),
		aggregateTable(OrganizationKPIs, []Column{
			{"company_id", ColumnText},
			{"org_id", ColumnText},
			{"org_name", ColumnText},
		}, result.Organizations, func(a domain.AggregateRecord) []string {
			return []string{a.CompanyID, a.ID, a.Name}
		}),
		aggregateTable(CompanyKPIs, []Column{
			{"company_id", ColumnText},
			{"company_name", ColumnText},
		}, result.Companies, func(a domain.AggregateRecord) []string {
			return []string{a.ID, a.Name}
		}),
		aggregateTable(OverallKPIs, []Column{
			{"scope", ColumnText},
			{"name", ColumnText},
		}, []domain.AggregateRecord{result.Overall}, func(a domain.AggregateRecord) []string {
			return []string{a.ID, a.Name}
		}),
		IssueTable(result.Issues),
	}
}

func employeeTable(records []domain.ComplianceRecord) Table {
	t := Table{Name: EmployeeKPIs, Columns: employeeColumns, Rows: make([][]string, 0, len(records))}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{
			r.EmployeeID,
			r.Name,
			r.CompanyID,
			r.CompanyName,
			r.OrgID,
			r.OrgName,
			r.UnitID,
			r.UnitName,
			r.Manager,
			strings.Join(r.Roles, warningSeparator),
			formatInt(r.Required),
			formatInt(r.Completed),
			formatInt(r.Pending),
			formatInt(r.Expired),
			formatInt(r.Overdue),
			formatPercent(r.Percentage),
			domain.SegmentOf(r.Percentage),
			formatBool(r.FullyCompliant()),
			formatInt(r.OptionalRequired),
			formatInt(r.OptionalCompleted),
			joinWarnings(r.Warnings),
		})
	}
	return t
}

func detailTable(records []domain.ComplianceRecord) Table {
	t := Table{Name: EmployeeDetail, Columns: detailColumns}
	for _, r := range records {
		for _, c := range r.Courses {
			t.Rows = append(t.Rows, []string{
				r.EmployeeID,
				r.Name,
				r.CompanyID,
				r.OrgID,
				c.CourseID,
				c.Title,
				formatBool(c.Mandatory),
				formatInt(c.Recurrence),
				formatBool(c.Assigned),
				string(c.State),
				formatDate(c.CompletedOn),
				formatDate(c.DueOn),
				formatDate(c.ExpiresOn),
				formatBool(c.Overdue),
			})
		}
	}
	if t.Rows == nil {
		t.Rows = [][]string{}
	}
	return t
}

func aggregateTable(name string, head []Column, records []domain.AggregateRecord, ident func(domain.AggregateRecord) []string) Table {
	columns := make([]Column, 0, len(head)+len(aggregateColumns))
	columns = append(columns, head...)
	columns = append(columns, aggregateColumns...)

	t := Table{Name: name, Columns: columns, Rows: make([][]string, 0, len(records))}
	for _, a := range records {
		row := ident(a)
		row = append(row,
			formatInt(a.Employees),
			formatInt(a.ApplicableEmployees),
			formatInt(a.Required),
			formatInt(a.Completed),
			formatInt(a.Pending),
			formatInt(a.Expired),
			formatInt(a.Overdue),
			formatPercent(a.Percentage),
			formatInt(a.FullyCompliant),
			formatPercent(a.FullComplianceRate),
			formatInt(a.Segments.High),
			formatInt(a.Segments.Medium),
			formatInt(a.Segments.Low),
			joinWarnings(a.Warnings),
		)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// IssueTable lists diagnostics in the order they were raised. origin
// points at the file and line the row was read from.
func IssueTable(issues []domain.Issue) Table {
	t := Table{Name: ValidationIssues, Columns: issueColumns, Rows: make([][]string, 0, len(issues))}
	for _, i := range issues {
		row := ""
		if i.Row > 0 {
			row = formatInt(i.Row)
		}
		origin, _ := i.Details["origin"].(string)
		t.Rows = append(t.Rows, []string{
			string(i.Level),
			i.Code,
			string(i.Source),
			row,
			origin,
			i.Field,
			i.EntityID,
			i.Message,
		})
	}
	return t
}
