package domain

// CourseRequirement is a single training course a role asks for.
// Recurrence is expressed in months; zero means the course never expires.
type CourseRequirement struct {
	CourseID   string `json:"course_id"`
	Title      string `json:"title,omitempty"`
	Recurrence int    `json:"recurrence_months,omitempty"`
	Mandatory  bool   `json:"mandatory"`
}

// RoleRequirement lists the courses required for a role.
// A role without courses is valid and trivially compliant. OrgID scopes the
// definition to one organization; empty means it applies everywhere.
type RoleRequirement struct {
	RoleID   string              `json:"role_id"`
	RoleName string              `json:"role_name,omitempty"`
	OrgID    string              `json:"org_id,omitempty"`
	Courses  []CourseRequirement `json:"courses"`
}

// StricterRecurrence returns the stricter of two recurrence intervals.
// A zero interval never expires and therefore loses against any positive one.
func StricterRecurrence(a, b int) int {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}
