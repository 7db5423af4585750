package compliance

import (
	"fmt"
	"sort"

	"trainingtracker/pkg/contracts/domain"
)

// Resolution is the effective requirement set of one employee
type Resolution struct {
	Employee     domain.Employee
	Courses      []domain.CourseRequirement // sorted by course id
	MissingRoles []string
}

type roleRef struct {
	org  string
	role string
}

// ResolveRequirements builds the requirement set of every employee as the
// union of the courses of their roles, deduplicated by course id. Across
// roles the shorter recurrence wins and mandatory beats optional. Courses
// without a recurrence take defaultRecurrence. A role with no definition is
// reported and contributes nothing; the employee is kept.
//
// Role definitions scoped to the employee's organization take precedence
// over unscoped ones.
func ResolveRequirements(employees []domain.Employee, roles []domain.RoleRequirement, defaultRecurrence int) ([]Resolution, []domain.Issue) {
	defs := make(map[roleRef]domain.RoleRequirement, len(roles))
	for _, r := range roles {
		defs[roleRef{org: r.OrgID, role: r.RoleID}] = r
	}

	var issues []domain.Issue
	out := make([]Resolution, 0, len(employees))
	for _, emp := range employees {
		res := Resolution{Employee: emp}
		merged := make(map[string]domain.CourseRequirement)

		for _, role := range emp.Roles {
			def, ok := defs[roleRef{org: emp.OrgID, role: role}]
			if !ok {
				def, ok = defs[roleRef{role: role}]
			}
			if !ok {
				res.MissingRoles = append(res.MissingRoles, role)
				issues = append(issues, domain.Issue{
					Level:    domain.LevelWarning,
					Code:     domain.CodeMissingRoleDefinition,
					Source:   domain.SourceRoles,
					Field:    "role_id",
					EntityID: emp.ID,
					Message:  fmt.Sprintf("role %s of employee %s has no requirement definition", role, emp.ID),
					Details: map[string]any{
						"role":       role,
						"org_id":     emp.OrgID,
						"company_id": emp.CompanyID,
					},
				})
				continue
			}

			for _, c := range def.Courses {
				if c.Recurrence <= 0 {
					c.Recurrence = defaultRecurrence
				}
				prev, seen := merged[c.CourseID]
				if !seen {
					merged[c.CourseID] = c
					continue
				}
				prev.Recurrence = domain.StricterRecurrence(prev.Recurrence, c.Recurrence)
				prev.Mandatory = prev.Mandatory || c.Mandatory
				if prev.Title == "" {
					prev.Title = c.Title
				}
				merged[c.CourseID] = prev
			}
		}

		res.Courses = make([]domain.CourseRequirement, 0, len(merged))
		for _, c := range merged {
			res.Courses = append(res.Courses, c)
		}
		sort.Slice(res.Courses, func(i, j int) bool {
			return res.Courses[i].CourseID < res.Courses[j].CourseID
		})
		out = append(out, res)
	}
	return out, issues
}
