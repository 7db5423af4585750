package compliance

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"trainingtracker/pkg/contracts/domain"
)

// Evaluator derives compliance records as of a fixed evaluation date
type Evaluator struct {
	evaluationDate time.Time
}

// NewEvaluator creates an Evaluator for the given evaluation date
func NewEvaluator(evaluationDate time.Time) *Evaluator {
	y, m, d := evaluationDate.Date()
	return &Evaluator{evaluationDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Evaluate computes the compliance record of one employee. statuses may
// contain rows for other courses; they are ignored.
func (e *Evaluator) Evaluate(res Resolution, statuses []domain.CurriculumStatus) (domain.ComplianceRecord, []domain.Issue) {
	emp := res.Employee
	rec := domain.ComplianceRecord{
		EmployeeID:  emp.ID,
		Name:        emp.DisplayName(),
		OrgID:       emp.OrgID,
		OrgName:     emp.OrgName,
		UnitID:      emp.UnitID,
		UnitName:    emp.UnitName,
		CompanyID:   emp.CompanyID,
		CompanyName: emp.CompanyName,
		Manager:     emp.Manager,
		Roles:       emp.Roles,
		Courses:     make([]domain.CourseResult, 0, len(res.Courses)),
	}
	for _, role := range res.MissingRoles {
		rec.Warnings = append(rec.Warnings, domain.CodeMissingRoleDefinition+":"+role)
	}

	byCourse := make(map[string][]domain.CurriculumStatus)
	for _, st := range statuses {
		byCourse[st.CourseID] = append(byCourse[st.CourseID], st)
	}

	var issues []domain.Issue
	for _, course := range res.Courses {
		result := domain.CourseResult{
			CourseID:   course.CourseID,
			Title:      course.Title,
			Mandatory:  course.Mandatory,
			Recurrence: course.Recurrence,
			State:      domain.CourseNotStarted,
		}

		if rows := byCourse[course.CourseID]; len(rows) > 0 {
			st, tied := authoritative(rows)
			if tied != nil {
				issues = append(issues, tieIssue(emp.ID, course.CourseID, st, tied))
				rec.Warnings = append(rec.Warnings, domain.CodeDuplicateStatusTie+":"+course.CourseID)
			}
			if issue, ok := e.apply(&result, st, emp.ID); ok {
				issues = append(issues, issue)
				rec.Warnings = append(rec.Warnings, domain.CodeCompletionDateUnknown+":"+course.CourseID)
			}
		}

		tally(&rec, result)
		rec.Courses = append(rec.Courses, result)
	}

	rec.Percentage = domain.Ratio(rec.Completed, rec.Required)
	return rec, issues
}

// apply sets the evaluated state of a course from its authoritative status.
// It returns an informational issue when a recurring course was completed
// on an unknown date.
func (e *Evaluator) apply(result *domain.CourseResult, st domain.CurriculumStatus, employeeID string) (domain.Issue, bool) {
	result.Assigned = true
	result.CompletedOn = st.CompletedOn
	result.DueOn = st.DueOn
	if result.Title == "" {
		result.Title = st.CourseTitle
	}

	switch st.Status {
	case domain.StatusCompleted:
		result.State = domain.CourseCompleted
		if result.Recurrence <= 0 {
			return domain.Issue{}, false
		}
		if st.CompletedOn == nil {
			return domain.Issue{
				Level:    domain.LevelInfo,
				Code:     domain.CodeCompletionDateUnknown,
				Source:   domain.SourceStatus,
				Row:      st.Row,
				Field:    "completion_date",
				EntityID: employeeID,
				Message: fmt.Sprintf("course %s is completed without a completion date; expiry after %d months cannot be checked",
					st.CourseID, result.Recurrence),
			}, true
		}
		expires := AddMonths(*st.CompletedOn, result.Recurrence)
		result.ExpiresOn = &expires
		if expires.Before(e.evaluationDate) {
			result.State = domain.CourseExpired
		}
	case domain.StatusExpired:
		result.State = domain.CourseExpired
	case domain.StatusInProgress:
		result.State = domain.CourseInProgress
	default:
		result.State = domain.CourseNotStarted
	}

	if result.State == domain.CourseInProgress || result.State == domain.CourseNotStarted {
		result.Overdue = st.Overdue || (st.DueOn != nil && st.DueOn.Before(e.evaluationDate))
	}
	return domain.Issue{}, false
}

// AddMonths moves t forward by n calendar months, clamping the day to the
// last day of the target month: Jan 31 plus one month is Feb 28 or 29.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func tally(rec *domain.ComplianceRecord, result domain.CourseResult) {
	if !result.Mandatory {
		rec.OptionalRequired++
		if result.State == domain.CourseCompleted {
			rec.OptionalCompleted++
		}
		return
	}

	rec.Required++
	switch result.State {
	case domain.CourseCompleted:
		rec.Completed++
	case domain.CourseExpired:
		rec.Expired++
	default:
		rec.Pending++
		if result.Overdue {
			rec.Overdue++
		}
	}
}

// authoritative picks the row that counts among duplicates for one course:
// latest completion date, then latest due date. A missing date sorts before
// any date. When the winner cannot be told apart from another row the first
// by input order is kept and the tied rows are returned.
func authoritative(rows []domain.CurriculumStatus) (domain.CurriculumStatus, []int) {
	ordered := make([]domain.CurriculumStatus, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Row < ordered[j].Row })

	best := ordered[0]
	var tied []int
	for _, st := range ordered[1:] {
		c := compareDates(st.CompletedOn, best.CompletedOn)
		if c == 0 {
			c = compareDates(st.DueOn, best.DueOn)
		}
		switch {
		case c > 0:
			best = st
			tied = nil
		case c == 0:
			if tied == nil {
				tied = []int{best.Row}
			}
			tied = append(tied, st.Row)
		}
	}
	return best, tied
}

func compareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

func tieIssue(employeeID, courseID string, kept domain.CurriculumStatus, rows []int) domain.Issue {
	return domain.Issue{
		Level:    domain.LevelWarning,
		Code:     domain.CodeDuplicateStatusTie,
		Source:   domain.SourceStatus,
		Row:      kept.Row,
		Field:    "course_id",
		EntityID: employeeID,
		Message: fmt.Sprintf("%d status rows for employee %s and course %s cannot be ordered; row %d kept",
			len(rows), employeeID, courseID, kept.Row),
		Details: map[string]any{"course_id": courseID, "rows": rows},
	}
}

// EvaluateAll evaluates every resolution, running up to workers employees
// at a time. Records come back in resolution order.
func (e *Evaluator) EvaluateAll(ctx context.Context, resolutions []Resolution, statuses []domain.CurriculumStatus, workers int) ([]domain.ComplianceRecord, []domain.Issue, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	byEmployee := make(map[string][]domain.CurriculumStatus, len(resolutions))
	for _, st := range statuses {
		byEmployee[st.EmployeeID] = append(byEmployee[st.EmployeeID], st)
	}

	records := make([]domain.ComplianceRecord, len(resolutions))
	perEmployee := make([][]domain.Issue, len(resolutions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range resolutions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := resolutions[i]
			records[i], perEmployee[i] = e.Evaluate(res, byEmployee[res.Employee.ID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var issues []domain.Issue
	for _, list := range perEmployee {
		issues = append(issues, list...)
	}
	return records, issues, nil
}
