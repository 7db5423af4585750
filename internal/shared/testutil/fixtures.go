package testutil

import (
	"time"

	"trainingtracker/pkg/contracts/domain"
)

// EvaluationDate is the reference date used across fixture based tests
var EvaluationDate = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

// Date builds a UTC date
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr builds a pointer to a UTC date
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}

// BatchBuilder accumulates raw rows for one source, numbering them from 1
type BatchBuilder struct {
	batch domain.Batch
}

// NewBatch starts a batch for source
func NewBatch(source domain.Source) *BatchBuilder {
	return &BatchBuilder{batch: domain.Batch{Source: source, Origin: "fixture"}}
}

// Row appends a row built from alternating column/value pairs
func (b *BatchBuilder) Row(kv ...string) *BatchBuilder {
	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	b.batch.Rows = append(b.batch.Rows, domain.RawRow{
		Position: len(b.batch.Rows) + 1,
		Origin:   "fixture",
		Fields:   fields,
	})
	return b
}

// Build returns the accumulated batch
func (b *BatchBuilder) Build() *domain.Batch {
	out := b.batch
	out.Rows = append([]domain.RawRow(nil), b.batch.Rows...)
	return &out
}

// Employee returns an HR row for the given identifiers
func (b *BatchBuilder) Employee(id, name, roles, org, company string) *BatchBuilder {
	return b.Row("employee_id", id, "name", name, "roles", roles, "org_id", org, "company_id", company)
}

// Requirement returns a Roles row
func (b *BatchBuilder) Requirement(role, course, required, recurrence string) *BatchBuilder {
	return b.Row("role_id", role, "course_id", course, "required", required, "recurrence_months", recurrence)
}

// Status returns a Status row
func (b *BatchBuilder) Status(employee, course, status, completed, due string) *BatchBuilder {
	return b.Row("employee_id", employee, "course_id", course, "status", status,
		"completion_date", completed, "due_date", due)
}

// SampleSnapshot is a small but complete snapshot covering two companies,
// three organizations, a missing role, a duplicate status and an expired course.
func SampleSnapshot() domain.Snapshot {
	hr := NewBatch(domain.SourceHR).
		Employee("E001", "Ana Ruiz", "OPERATOR", "PLANT-A", "ACME").
		Employee("E002", "Luis Gomez", "OPERATOR;SUPERVISOR", "PLANT-A", "ACME").
		Employee("E003", "Marta Diaz", "ANALYST", "FINANCE", "ACME").
		Employee("E004", "Jon Perez", "GHOST", "LOGISTICS", "GLOBEX").
		Employee("E005", "Eva Soto", "DRIVER", "LOGISTICS", "GLOBEX").
		Build()
	roles := NewBatch(domain.SourceRoles).
		Requirement("OPERATOR", "SAFETY-101", "Mandatory", "12").
		Requirement("OPERATOR", "FORKLIFT", "Mandatory", "").
		Requirement("SUPERVISOR", "SAFETY-101", "Mandatory", "6").
		Requirement("SUPERVISOR", "LEADERSHIP", "Optional", "").
		Requirement("ANALYST", "", "NA", "").
		Requirement("DRIVER", "DEFENSIVE-DRIVING", "Mandatory", "24").
		Build()
	status := NewBatch(domain.SourceStatus).
		Status("E001", "SAFETY-101", "Completed", "2024-01-15", "").
		Status("E001", "FORKLIFT", "In Progress", "", "2024-07-31").
		Status("E002", "SAFETY-101", "Completed", "2023-11-01", "").
		Status("E002", "SAFETY-101", "Completed", "2023-12-01", "").
		Status("E002", "FORKLIFT", "Completed", "2022-03-01", "").
		Status("E002", "LEADERSHIP", "Completed", "2024-02-01", "").
		Status("E005", "DEFENSIVE-DRIVING", "Completed", "2021-05-01", "").
		Build()
	return domain.Snapshot{HR: hr, Roles: roles, Status: status}
}
