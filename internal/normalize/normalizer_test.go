package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "trainingtracker/internal/errors"
	"trainingtracker/internal/shared/testutil"
	"trainingtracker/pkg/contracts/domain"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	logger, _ := testutil.NewTestLogger(t)
	return New(Options{EvaluationDate: testutil.EvaluationDate}, logger)
}

func codes(issues []domain.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}

func minimalSnapshot() domain.Snapshot {
	return domain.Snapshot{
		HR:     testutil.NewBatch(domain.SourceHR).Employee("E1", "Ana", "OPS", "PLANT", "ACME").Build(),
		Roles:  testutil.NewBatch(domain.SourceRoles).Requirement("OPS", "C1", "Mandatory", "").Build(),
		Status: testutil.NewBatch(domain.SourceStatus).Status("E1", "C1", "Completed", "2024-01-01", "").Build(),
	}
}

func TestNormalizeSampleSnapshot(t *testing.T) {
	n := newTestNormalizer(t)

	ents, issues, err := n.Normalize(testutil.SampleSnapshot())
	require.NoError(t, err)
	assert.Empty(t, issues)

	require.Len(t, ents.Employees, 5)
	assert.Equal(t, []string{"OPERATOR", "SUPERVISOR"}, ents.Employees[1].Roles)
	assert.Equal(t, "PLANT-A", ents.Employees[0].OrgID)
	assert.Equal(t, "ACME", ents.Employees[0].CompanyID)

	require.Len(t, ents.Roles, 4)
	assert.Equal(t, "OPERATOR", ents.Roles[0].RoleID)
	assert.Len(t, ents.Roles[0].Courses, 2)
	assert.Equal(t, "ANALYST", ents.Roles[2].RoleID)
	assert.Empty(t, ents.Roles[2].Courses)

	supervisor := ents.Roles[1]
	require.Len(t, supervisor.Courses, 2)
	assert.True(t, supervisor.Courses[0].Mandatory)
	assert.Equal(t, 6, supervisor.Courses[0].Recurrence)
	assert.False(t, supervisor.Courses[1].Mandatory)

	assert.Len(t, ents.Statuses, 7)
}

func TestNormalizeFatalSources(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*domain.Snapshot)
		wantCode string
		source   domain.Source
	}{
		{
			name:     "missing hr",
			mutate:   func(s *domain.Snapshot) { s.HR = nil },
			wantCode: domain.CodeMissingSource,
			source:   domain.SourceHR,
		},
		{
			name:     "missing roles",
			mutate:   func(s *domain.Snapshot) { s.Roles = nil },
			wantCode: domain.CodeMissingSource,
			source:   domain.SourceRoles,
		},
		{
			name: "status without valid rows",
			mutate: func(s *domain.Snapshot) {
				s.Status = testutil.NewBatch(domain.SourceStatus).Status("E1", "C1", "maybe", "", "").Build()
			},
			wantCode: domain.CodeNoValidRows,
			source:   domain.SourceStatus,
		},
		{
			name:     "empty hr batch",
			mutate:   func(s *domain.Snapshot) { s.HR = &domain.Batch{Source: domain.SourceHR} },
			wantCode: domain.CodeNoValidRows,
			source:   domain.SourceHR,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := minimalSnapshot()
			tt.mutate(&snap)

			_, issues, err := newTestNormalizer(t).Normalize(snap)
			require.Error(t, err)
			assert.True(t, apierrors.IsInput(err))

			var found bool
			for _, i := range issues {
				if i.Code == tt.wantCode && i.Source == tt.source {
					assert.Equal(t, domain.LevelError, i.Level)
					found = true
				}
			}
			assert.True(t, found, "expected %s for %s in %v", tt.wantCode, tt.source, issues)
		})
	}
}

func TestNormalizeStatusAliases(t *testing.T) {
	tests := []struct {
		cell    string
		want    domain.TrainingStatus
		overdue bool
	}{
		{"Yes", domain.StatusCompleted, false},
		{"COMPLETE", domain.StatusCompleted, false},
		{"completed", domain.StatusCompleted, false},
		{"In Progress", domain.StatusInProgress, false},
		{"in-progress", domain.StatusInProgress, false},
		{"Overdue", domain.StatusInProgress, true},
		{"No", domain.StatusNotStarted, false},
		{"Not Started", domain.StatusNotStarted, false},
		{"Expired", domain.StatusExpired, false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			snap := minimalSnapshot()
			snap.Status = testutil.NewBatch(domain.SourceStatus).Status("E1", "C1", tt.cell, "", "").Build()

			ents, _, err := newTestNormalizer(t).Normalize(snap)
			require.NoError(t, err)
			require.Len(t, ents.Statuses, 1)
			assert.Equal(t, tt.want, ents.Statuses[0].Status)
			assert.Equal(t, tt.overdue, ents.Statuses[0].Overdue)
		})
	}
}

func TestNormalizeRowIssues(t *testing.T) {
	snap := minimalSnapshot()
	snap.Status = testutil.NewBatch(domain.SourceStatus).
		Status("E1", "C1", "Completed", "2024-01-01", "").
		Status("", "C1", "Completed", "", "").
		Status("E1", "C2", "sort of", "", "").
		Status("E1", "C3", "Completed", "yesterday", "").
		Status("E1", "C4", "In Progress", "2024-01-01", "").
		Status("E9", "C1", "Completed", "", "").
		Build()

	ents, issues, err := newTestNormalizer(t).Normalize(snap)
	require.NoError(t, err)

	assert.Equal(t, []string{
		domain.CodeMissingField,
		domain.CodeInvalidField,
		domain.CodeInvalidField,
		domain.CodeInconsistentField,
		domain.CodeUnknownEmployee,
	}, codes(issues))

	assert.Equal(t, "employee_id", issues[0].Field)
	assert.Equal(t, 2, issues[0].Row)
	assert.Equal(t, "status", issues[1].Field)
	assert.Equal(t, "completion_date", issues[2].Field)
	for _, i := range issues {
		assert.Equal(t, domain.LevelWarning, i.Level)
		assert.Equal(t, domain.SourceStatus, i.Source)
	}

	require.Len(t, ents.Statuses, 2)
	assert.Equal(t, "C4", ents.Statuses[1].CourseID)
	assert.Nil(t, ents.Statuses[1].CompletedOn)
}

func TestNormalizeDueDates(t *testing.T) {
	snap := minimalSnapshot()
	snap.Status = testutil.NewBatch(domain.SourceStatus).
		Row("employee_id", "E1", "course_id", "C1", "status", "In Progress", "days_remaining", "10").
		Row("employee_id", "E1", "course_id", "C2", "status", "In Progress", "days_remaining", "-3").
		Row("employee_id", "E1", "course_id", "C3", "status", "In Progress", "due_date", "07/15/2024", "days_remaining", "99").
		Build()

	ents, issues, err := newTestNormalizer(t).Normalize(snap)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, ents.Statuses, 3)

	assert.Equal(t, testutil.Date(2024, time.July, 10), *ents.Statuses[0].DueOn)
	assert.Equal(t, testutil.Date(2024, time.June, 27), *ents.Statuses[1].DueOn)
	assert.Equal(t, testutil.Date(2024, time.July, 15), *ents.Statuses[2].DueOn)
}

func TestNormalizeEmployees(t *testing.T) {
	snap := minimalSnapshot()
	snap.HR = testutil.NewBatch(domain.SourceHR).
		Employee("E1", "Ana", "OPS", "Producción", "ACME").
		Employee("e1", "Ana again", "OPS", "PLANT", "ACME").
		Employee("E2", "Bo", "", "PLANT", "ACME").
		Row("employee_id", "E3", "name", "Cy", "roles", "ops | Ops; QA", "org_id", "produccion").
		Build()

	n := New(Options{EvaluationDate: testutil.EvaluationDate, DefaultCompany: "Acme"}, nil)
	ents, issues, err := n.Normalize(snap)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.CodeDuplicateEmployee, domain.CodeMissingField}, codes(issues))
	assert.Equal(t, "roles", issues[1].Field)

	require.Len(t, ents.Employees, 2)
	assert.Equal(t, ents.Employees[0].OrgID, ents.Employees[1].OrgID)
	assert.Equal(t, "Producción", ents.Employees[0].OrgName)
	assert.Equal(t, "ACME", ents.Employees[1].CompanyID)
	assert.Equal(t, []string{"OPS", "QA"}, ents.Employees[1].Roles)
}

func TestNormalizeRosterWithoutIdentifiers(t *testing.T) {
	snap := domain.Snapshot{
		HR: testutil.NewBatch(domain.SourceHR).
			Row("Full Name", "Santana Mendoza Jorge", "Job Title", "Operador", "Org Code", "OPS",
				"Org Desc", "Producción", "Head of Department", "Lucía Vega").
			Row("Full Name", "Ruiz Ana", "Job Title", "Operador", "Org Code", "OPS",
				"Org Desc", "Empaque", "Head of Department", "Lucía Vega").
			Row("Full Name", "Ruiz Ana", "Job Title", "Operador", "Org Code", "OPS",
				"Org Desc", "Calidad", "Head of Department", "Lucía Vega").
			Build(),
		Roles: testutil.NewBatch(domain.SourceRoles).
			Row("Org Code", "OPS", "Org Desc", "Producción", "Job Title", "Operador",
				"Curriculum ID", "SAFE-1", "Curriculum Title", "Safety", "Required", "Mandatory").
			Build(),
		Status: testutil.NewBatch(domain.SourceStatus).
			Row("User Name", "JORGE, SANTANA MENDOZA", "Org Desc", "Producción",
				"Curriculum ID", "SAFE-1", "Curriculum Complete", "Yes", "Days Remaining", "12").
			Row("User Name", "Jorge, Santana Mendoza", "Curriculum ID", "SAFE-2", "Curriculum Complete", "No").
			Row("User Name", "ANA, RUIZ", "Curriculum ID", "SAFE-1", "Curriculum Complete", "No").
			Row("User Name", "ANA, RUIZ", "Org Desc", "Calidad", "Curriculum ID", "SAFE-1", "Curriculum Complete", "Yes").
			Row("User Name", "PEDRO, NADIE", "Curriculum ID", "SAFE-1", "Curriculum Complete", "Yes").
			Build(),
	}

	ents, issues, err := newTestNormalizer(t).Normalize(snap)
	require.NoError(t, err)

	require.Len(t, ents.Employees, 3)
	jorge := ents.Employees[0]
	assert.Equal(t, "SANTANA MENDOZA JORGE|OPS|PRODUCCION", jorge.ID)
	assert.Equal(t, "OPS", jorge.OrgID)
	assert.Equal(t, "PRODUCCION", jorge.UnitID)
	assert.Equal(t, "Producción", jorge.UnitName)
	assert.Equal(t, ImplicitCompany, jorge.CompanyID)
	assert.Equal(t, []string{"OPERADOR"}, jorge.Roles)
	assert.Equal(t, "Lucía Vega", jorge.Manager)

	assert.Equal(t, []string{domain.CodeAmbiguousEmployee, domain.CodeUnknownEmployee}, codes(issues))
	assert.Equal(t, 3, issues[0].Row)
	assert.Equal(t, "user_name", issues[0].Field)
	assert.Equal(t, []string{"RUIZ ANA|OPS|CALIDAD", "RUIZ ANA|OPS|EMPAQUE"}, issues[0].Details["candidates"])
	assert.Equal(t, "fixture", issues[0].Details["origin"])
	assert.Equal(t, "user_name", issues[1].Field)
	assert.Equal(t, 5, issues[1].Row)

	require.Len(t, ents.Statuses, 3)
	assert.Equal(t, jorge.ID, ents.Statuses[0].EmployeeID)
	assert.Equal(t, domain.StatusCompleted, ents.Statuses[0].Status)
	assert.Equal(t, testutil.Date(2024, time.July, 12), *ents.Statuses[0].DueOn)
	assert.Equal(t, jorge.ID, ents.Statuses[1].EmployeeID, "a status row without unit searches the whole roster")
	assert.Equal(t, "RUIZ ANA|OPS|CALIDAD", ents.Statuses[2].EmployeeID, "the unit settles homonyms")
}

func TestUserKeys(t *testing.T) {
	assert.Equal(t, "JORGE, SANTANA MENDOZA", UserKey(" jorge ,santana  mendoza"))
	assert.Equal(t, "JOSE MARIA, PENA", UserKey("José-María, Peña"))
	assert.Equal(t, "SOLO", UserKey("solo"))

	assert.Equal(t, []string{
		"JORGE, SANTANA MENDOZA",
		"MENDOZA JORGE, SANTANA",
	}, CandidateUserKeys("Santana Mendoza Jorge"))
	assert.Equal(t, []string{
		"E, A B C D",
		"D E, A B C",
		"C D E, A B",
	}, CandidateUserKeys("a b c d e"))
	assert.Empty(t, CandidateUserKeys("Cher"))
}

func TestNormalizeRoles(t *testing.T) {
	snap := minimalSnapshot()
	snap.Roles = testutil.NewBatch(domain.SourceRoles).
		Requirement("OPS", "C1", "Mandatory", "24").
		Requirement("OPS", "C1", "Optional", "12").
		Requirement("OPS", "C2", "Obligatorio", "").
		Requirement("OPS", "C3", "N/A", "").
		Requirement("QA", "", "", "").
		Requirement("QA", "C9", "sometimes", "").
		Requirement("QA", "C8", "Mandatory", "-1").
		Row("role_id", "OPS", "org_id", "Plant", "course_id", "C7").
		Build()

	ents, issues, err := newTestNormalizer(t).Normalize(snap)
	require.NoError(t, err)

	assert.Equal(t, []string{
		domain.CodeConflictingRequirement,
		domain.CodeInvalidField,
		domain.CodeInvalidField,
	}, codes(issues))
	assert.Equal(t, "required", issues[1].Field)
	assert.Equal(t, "recurrence_months", issues[2].Field)

	require.Len(t, ents.Roles, 3)
	ops := ents.Roles[0]
	assert.Equal(t, []domain.CourseRequirement{
		{CourseID: "C1", Recurrence: 12, Mandatory: true},
		{CourseID: "C2", Mandatory: true},
	}, ops.Courses)

	qa := ents.Roles[1]
	assert.Equal(t, "QA", qa.RoleID)
	assert.Empty(t, qa.Courses)

	scoped := ents.Roles[2]
	assert.Equal(t, "PLANT", scoped.OrgID)
	assert.Equal(t, []domain.CourseRequirement{{CourseID: "C7", Mandatory: true}}, scoped.Courses)
}

func TestCanonicalFields(t *testing.T) {
	got := CanonicalFields(map[string]string{
		"Cirriculum ID":      " SAFE-1 ",
		"Day Remaining":      "5",
		"Completion Status":  "Yes",
		"Head of Department": "Jo",
		"Organization":       "",
		"Organization Code":  "x",
		"Curriculum Title":   "Safety",
		"unrelated":          "ignored",
	})

	assert.Equal(t, "SAFE-1", got["course_id"])
	assert.Equal(t, "5", got["days_remaining"])
	assert.Equal(t, "Yes", got["status"])
	assert.Equal(t, "Jo", got["manager"])
	assert.Equal(t, "Safety", got["course_title"])
	v, ok := got["org_id"]
	assert.True(t, ok)
	assert.Equal(t, "", v)
	assert.NotContains(t, got, "unrelated")
}

func TestKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Producción ", "PRODUCCION"},
		{"operador  de\tmáquina", "OPERADOR DE MAQUINA"},
		{"SAFETY-101", "SAFETY-101"},
		{"Acme, Inc.", "ACME, INC."},
		{"a/b", "A B"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Key(tt.in), tt.in)
	}
	assert.Equal(t, "organization_description", CanonicalColumn("Organization  Description "))
	assert.Equal(t, "days_remaining", CanonicalColumn("Days-Remaining"))
}

func TestDateParser(t *testing.T) {
	p := NewDateParser(nil)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2023-06-01", testutil.Date(2023, time.June, 1)},
		{"06/01/2023", testutil.Date(2023, time.June, 1)},
		{"2023/06/01", testutil.Date(2023, time.June, 1)},
		{"01-Jun-2023", testutil.Date(2023, time.June, 1)},
		{"45292", testutil.Date(2024, time.January, 1)},
		{"45292.75", testutil.Date(2024, time.January, 1)},
	}
	for _, tt := range tests {
		got, err := p.Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "soon", "0", "-4"} {
		_, err := p.Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildStatusAliases(t *testing.T) {
	aliases, invalid := BuildStatusAliases(map[string]string{
		"Done":      "completed",
		"WIP":       "In Progress",
		"Pendiente": "not-started",
		"Lost":      "archived",
	})
	assert.Equal(t, []string{"Lost=archived"}, invalid)
	assert.Equal(t, domain.StatusCompleted, aliases["done"])
	assert.Equal(t, domain.StatusInProgress, aliases["wip"])
	assert.Equal(t, domain.StatusNotStarted, aliases["pendiente"])

	defaults, invalid := BuildStatusAliases(nil)
	assert.Nil(t, invalid)
	assert.Equal(t, DefaultStatusAliases, defaults)
}
