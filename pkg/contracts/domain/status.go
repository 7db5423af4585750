package domain

import "time"

// TrainingStatus is the state of an employee's curriculum for one course
type TrainingStatus string

const (
	StatusCompleted  TrainingStatus = "completed"
	StatusInProgress TrainingStatus = "in-progress"
	StatusNotStarted TrainingStatus = "not-started"
	StatusExpired    TrainingStatus = "expired"
)

// IsValid reports whether s is one of the four known statuses
func (s TrainingStatus) IsValid() bool {
	switch s {
	case StatusCompleted, StatusInProgress, StatusNotStarted, StatusExpired:
		return true
	}
	return false
}

// IsPending reports whether s counts towards the pending tally
func (s TrainingStatus) IsPending() bool {
	return s == StatusInProgress || s == StatusNotStarted
}

// CarriesCompletionDate reports whether a completion date is meaningful for s
func (s TrainingStatus) CarriesCompletionDate() bool {
	return s == StatusCompleted || s == StatusExpired
}

// CurriculumStatus is one validated row of the status source
type CurriculumStatus struct {
	EmployeeID  string         `json:"employee_id"`
	CourseID    string         `json:"course_id"`
	CourseTitle string         `json:"course_title,omitempty"`
	Status      TrainingStatus `json:"status"`
	CompletedOn *time.Time     `json:"completed_on,omitempty"`
	DueOn       *time.Time     `json:"due_on,omitempty"`
	Overdue     bool           `json:"overdue,omitempty"` // flagged overdue by the source
	Row         int            `json:"row"`
}
