package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainingtracker/internal/shared/testutil"
	"trainingtracker/pkg/contracts/domain"
)

func resolution(id string, courses ...domain.CourseRequirement) Resolution {
	return Resolution{
		Employee: domain.Employee{ID: id, Name: "Name " + id, OrgID: "ORG", CompanyID: "CO", Roles: []string{"R"}},
		Courses:  courses,
	}
}

func status(emp, courseID string, st domain.TrainingStatus, completed, due *time.Time, row int) domain.CurriculumStatus {
	return domain.CurriculumStatus{
		EmployeeID:  emp,
		CourseID:    courseID,
		Status:      st,
		CompletedOn: completed,
		DueOn:       due,
		Row:         row,
	}
}

func TestEvaluateCounts(t *testing.T) {
	e := NewEvaluator(testutil.EvaluationDate)
	res := resolution("E1",
		course("A", 0, true),
		course("B", 0, true),
		course("C", 0, true),
		course("D", 0, true),
		course("E", 0, true),
		course("OPT1", 0, false),
		course("OPT2", 0, false),
	)
	statuses := []domain.CurriculumStatus{
		status("E1", "A", domain.StatusCompleted, testutil.DatePtr(2024, 1, 1), nil, 1),
		status("E1", "B", domain.StatusInProgress, nil, testutil.DatePtr(2024, 6, 1), 2),
		status("E1", "C", domain.StatusNotStarted, nil, testutil.DatePtr(2024, 12, 1), 3),
		status("E1", "D", domain.StatusExpired, testutil.DatePtr(2020, 1, 1), nil, 4),
		status("E1", "OPT1", domain.StatusCompleted, nil, nil, 5),
		status("E1", "UNRELATED", domain.StatusCompleted, nil, nil, 6),
	}

	rec, issues := e.Evaluate(res, statuses)
	assert.Empty(t, issues)

	assert.Equal(t, 5, rec.Required)
	assert.Equal(t, 1, rec.Completed)
	assert.Equal(t, 3, rec.Pending, "in-progress, not-started and unassigned")
	assert.Equal(t, 1, rec.Expired)
	assert.Equal(t, 1, rec.Overdue)
	assert.Equal(t, rec.Required, rec.Completed+rec.Pending+rec.Expired)
	assert.InDelta(t, 20.0, rec.Percentage.Value, 1e-9)
	assert.True(t, rec.Percentage.Applicable)

	assert.Equal(t, 2, rec.OptionalRequired)
	assert.Equal(t, 1, rec.OptionalCompleted)

	require.Len(t, rec.Courses, 7)
	assert.False(t, rec.Courses[4].Assigned)
	assert.Equal(t, domain.CourseNotStarted, rec.Courses[4].State)
	assert.True(t, rec.Courses[1].Overdue)
}

func TestEvaluateNoRequirementsIsNotApplicable(t *testing.T) {
	e := NewEvaluator(testutil.EvaluationDate)

	rec, _ := e.Evaluate(resolution("E1"), nil)
	assert.Equal(t, 0, rec.Required)
	assert.False(t, rec.Percentage.Applicable)
	assert.Equal(t, domain.NotApplicable, rec.Percentage.String())
	assert.False(t, rec.FullyCompliant())

	rec, _ = e.Evaluate(resolution("E2", course("OPT", 0, false)), []domain.CurriculumStatus{
		status("E2", "OPT", domain.StatusCompleted, nil, nil, 1),
	})
	assert.False(t, rec.Percentage.Applicable, "optional courses never form a denominator")
	assert.Equal(t, 1, rec.OptionalCompleted)
}

func TestEvaluateRecurrence(t *testing.T) {
	e := NewEvaluator(testutil.EvaluationDate)

	tests := []struct {
		name       string
		recurrence int
		completed  *time.Time
		want       domain.CourseState
		wantInfo   bool
	}{
		{"within window", 12, testutil.DatePtr(2023, 7, 15), domain.CourseCompleted, false},
		{"expires on evaluation date", 12, testutil.DatePtr(2023, 6, 30), domain.CourseCompleted, false},
		{"older than window", 12, testutil.DatePtr(2023, 6, 29), domain.CourseExpired, false},
		{"no recurrence never expires", 0, testutil.DatePtr(2001, 1, 1), domain.CourseCompleted, false},
		{"unknown completion date", 12, nil, domain.CourseCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, issues := e.Evaluate(resolution("E1", course("C", tt.recurrence, true)), []domain.CurriculumStatus{
				status("E1", "C", domain.StatusCompleted, tt.completed, nil, 7),
			})
			require.Len(t, rec.Courses, 1)
			assert.Equal(t, tt.want, rec.Courses[0].State)
			if tt.want == domain.CourseExpired {
				assert.Equal(t, 1, rec.Expired)
				assert.Equal(t, 0, rec.Completed)
			}
			if tt.wantInfo {
				require.Len(t, issues, 1)
				assert.Equal(t, domain.LevelInfo, issues[0].Level)
				assert.Equal(t, domain.CodeCompletionDateUnknown, issues[0].Code)
				assert.Equal(t, 7, issues[0].Row)
			} else {
				assert.Empty(t, issues)
			}
		})
	}
}

func TestEvaluateRecurrenceAtMonthEnd(t *testing.T) {
	e := NewEvaluator(testutil.Date(2023, time.March, 2))
	rec, _ := e.Evaluate(resolution("E1", course("C", 1, true)), []domain.CurriculumStatus{
		status("E1", "C", domain.StatusCompleted, testutil.DatePtr(2023, 1, 31), nil, 1),
	})
	require.Len(t, rec.Courses, 1)
	assert.Equal(t, testutil.Date(2023, time.February, 28), *rec.Courses[0].ExpiresOn)
	assert.Equal(t, domain.CourseExpired, rec.Courses[0].State)
	assert.Equal(t, 1, rec.Expired)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		from   time.Time
		months int
		want   time.Time
	}{
		{testutil.Date(2023, time.January, 31), 1, testutil.Date(2023, time.February, 28)},
		{testutil.Date(2024, time.January, 31), 1, testutil.Date(2024, time.February, 29)},
		{testutil.Date(2024, time.February, 29), 12, testutil.Date(2025, time.February, 28)},
		{testutil.Date(2023, time.August, 31), 6, testutil.Date(2024, time.February, 29)},
		{testutil.Date(2023, time.March, 15), 24, testutil.Date(2025, time.March, 15)},
		{testutil.Date(2023, time.October, 31), 1, testutil.Date(2023, time.November, 30)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AddMonths(tt.from, tt.months), "%s + %d", tt.from.Format(time.DateOnly), tt.months)
	}
}

func TestEvaluateDuplicateStatuses(t *testing.T) {
	e := NewEvaluator(testutil.EvaluationDate)
	res := resolution("E1", course("C", 0, true))

	t.Run("latest completion date wins", func(t *testing.T) {
		rec, issues := e.Evaluate(res, []domain.CurriculumStatus{
			status("E1", "C", domain.StatusCompleted, testutil.DatePtr(2023, 1, 1), nil, 1),
			status("E1", "C", domain.StatusCompleted, testutil.DatePtr(2023, 6, 1), nil, 2),
		})
		assert.Empty(t, issues)
		assert.Equal(t, testutil.Date(2023, 6, 1), *rec.Courses[0].CompletedOn)
	})

	t.Run("dated row beats undated row", func(t *testing.T) {
		rec, _ := e.Evaluate(res, []domain.CurriculumStatus{
			status("E1", "C", domain.StatusInProgress, nil, nil, 1),
			status("E1", "C", domain.StatusCompleted, testutil.DatePtr(2023, 6, 1), nil, 2),
		})
		assert.Equal(t, domain.CourseCompleted, rec.Courses[0].State)
	})

	t.Run("latest due date breaks ties", func(t *testing.T) {
		rec, issues := e.Evaluate(res, []domain.CurriculumStatus{
			status("E1", "C", domain.StatusNotStarted, nil, testutil.DatePtr(2024, 9, 1), 1),
			status("E1", "C", domain.StatusInProgress, nil, testutil.DatePtr(2024, 5, 1), 2),
		})
		assert.Empty(t, issues)
		assert.Equal(t, domain.CourseNotStarted, rec.Courses[0].State)
		assert.False(t, rec.Courses[0].Overdue)
	})

	t.Run("unresolvable tie keeps first row", func(t *testing.T) {
		rec, issues := e.Evaluate(res, []domain.CurriculumStatus{
			status("E1", "C", domain.StatusInProgress, nil, nil, 9),
			status("E1", "C", domain.StatusNotStarted, nil, nil, 4),
		})
		require.Len(t, issues, 1)
		assert.Equal(t, domain.CodeDuplicateStatusTie, issues[0].Code)
		assert.Equal(t, domain.LevelWarning, issues[0].Level)
		assert.Equal(t, 4, issues[0].Row)
		assert.Equal(t, []int{4, 9}, issues[0].Details["rows"])
		assert.Equal(t, domain.CourseNotStarted, rec.Courses[0].State)
		assert.Contains(t, rec.Warnings, domain.CodeDuplicateStatusTie+":C")
	})
}

func TestEvaluateOverdueFlag(t *testing.T) {
	e := NewEvaluator(testutil.EvaluationDate)
	st := status("E1", "C", domain.StatusInProgress, nil, nil, 1)
	st.Overdue = true

	rec, _ := e.Evaluate(resolution("E1", course("C", 0, true)), []domain.CurriculumStatus{st})
	assert.Equal(t, 1, rec.Pending)
	assert.Equal(t, 1, rec.Overdue)
}

func TestEvaluateAllPreservesOrder(t *testing.T) {
	e := NewEvaluator(testutil.EvaluationDate)

	var resolutions []Resolution
	var statuses []domain.CurriculumStatus
	for i := 0; i < 200; i++ {
		id := string(rune('A'+i%26)) + string(rune('0'+i/26))
		resolutions = append(resolutions, resolution(id, course("C", 0, true)))
		if i%2 == 0 {
			statuses = append(statuses, status(id, "C", domain.StatusCompleted, nil, nil, i+1))
		}
	}

	records, issues, err := e.EvaluateAll(context.Background(), resolutions, statuses, 8)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, records, len(resolutions))
	for i, rec := range records {
		assert.Equal(t, resolutions[i].Employee.ID, rec.EmployeeID)
		assert.Equal(t, i%2 == 0, rec.Completed == 1, rec.EmployeeID)
	}
}

func TestEvaluateAllCanceled(t *testing.T) {
	e := NewEvaluator(testutil.EvaluationDate)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := e.EvaluateAll(ctx, []Resolution{resolution("E1")}, nil, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
