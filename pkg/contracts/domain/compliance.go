package domain

import "time"

// CourseState is the evaluated state of one required course
type CourseState string

const (
	CourseCompleted  CourseState = "completed"
	CourseInProgress CourseState = "in-progress"
	CourseNotStarted CourseState = "not-started"
	CourseExpired    CourseState = "expired"
)

// CourseResult is the per-course detail behind a compliance record
type CourseResult struct {
	CourseID    string      `json:"course_id"`
	Title       string      `json:"title,omitempty"`
	Mandatory   bool        `json:"mandatory"`
	Recurrence  int         `json:"recurrence_months,omitempty"`
	Assigned    bool        `json:"assigned"` // a status record exists
	State       CourseState `json:"state"`
	CompletedOn *time.Time  `json:"completed_on,omitempty"`
	DueOn       *time.Time  `json:"due_on,omitempty"`
	ExpiresOn   *time.Time  `json:"expires_on,omitempty"`
	Overdue     bool        `json:"overdue"`
}

// ComplianceRecord is the derived compliance state of one employee.
// Completed+Pending+Expired always equals Required; optional courses are
// tallied apart and never enter the percentage.
type ComplianceRecord struct {
	EmployeeID  string   `json:"employee_id"`
	Name        string   `json:"name"`
	OrgID       string   `json:"org_id"`
	OrgName     string   `json:"org_name,omitempty"`
	UnitID      string   `json:"unit_id"`
	UnitName    string   `json:"unit_name,omitempty"`
	CompanyID   string   `json:"company_id"`
	CompanyName string   `json:"company_name,omitempty"`
	Manager     string   `json:"manager,omitempty"`
	Roles       []string `json:"roles"`

	Required   int        `json:"required"`
	Completed  int        `json:"completed"`
	Pending    int        `json:"pending"`
	Expired    int        `json:"expired"`
	Overdue    int        `json:"overdue"`
	Percentage Percentage `json:"percentage"`

	OptionalRequired  int `json:"optional_required"`
	OptionalCompleted int `json:"optional_completed"`

	Courses  []CourseResult `json:"courses"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Applicable reports whether the employee has anything to be measured against
func (r ComplianceRecord) Applicable() bool {
	return r.Required > 0
}

// FullyCompliant reports whether every mandatory course is completed
func (r ComplianceRecord) FullyCompliant() bool {
	return r.Required > 0 && r.Completed == r.Required
}

// Segment buckets used by the BI dashboards
const (
	SegmentHigh   = ">=90%"
	SegmentMedium = "70-89%"
	SegmentLow    = "<70%"
)

// SegmentOf places a percentage in its bucket; empty when not applicable
func SegmentOf(p Percentage) string {
	switch {
	case !p.Applicable:
		return ""
	case p.Value >= 90:
		return SegmentHigh
	case p.Value >= 70:
		return SegmentMedium
	default:
		return SegmentLow
	}
}

// Segments counts employees per completion bucket
type Segments struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Level names the scope of an aggregate
type Level string

const (
	LevelUnit         Level = "unit"
	LevelOrganization Level = "organization"
	LevelCompany      Level = "company"
	LevelOverall      Level = "overall"
)

// AggregateRecord is a weighted rollup over a group of employees. OrgID
// is only set on unit rollups, CompanyID on unit and organization rollups.
type AggregateRecord struct {
	Level     Level  `json:"level"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	OrgID     string `json:"org_id,omitempty"`
	CompanyID string `json:"company_id,omitempty"`

	Employees           int `json:"employees"`
	ApplicableEmployees int `json:"applicable_employees"`
	FullyCompliant      int `json:"fully_compliant"`

	Required  int `json:"required"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Expired   int `json:"expired"`
	Overdue   int `json:"overdue"`

	Percentage         Percentage `json:"percentage"`
	FullComplianceRate Percentage `json:"full_compliance_rate"`
	Segments           Segments   `json:"segments"`
	Warnings           []string   `json:"warnings,omitempty"`
}
