package domain

import "fmt"

// IssueLevel grades a diagnostic
type IssueLevel string

const (
	LevelError   IssueLevel = "ERROR"
	LevelWarning IssueLevel = "WARNING"
	LevelInfo    IssueLevel = "INFO"
)

// Source names the input a record or issue originates from
type Source string

const (
	SourceHR       Source = "hr"
	SourceRoles    Source = "roles"
	SourceStatus   Source = "status"
	SourcePipeline Source = "pipeline"
)

// Issue codes emitted by the pipeline
const (
	CodeMissingSource          = "MISSING_SOURCE"
	CodeNoValidRows            = "NO_VALID_ROWS"
	CodeMissingField           = "MISSING_FIELD"
	CodeInvalidField           = "INVALID_FIELD"
	CodeInconsistentField      = "INCONSISTENT_FIELD"
	CodeDuplicateEmployee      = "DUPLICATE_EMPLOYEE"
	CodeUnknownEmployee        = "UNKNOWN_EMPLOYEE"
	CodeAmbiguousEmployee      = "AMBIGUOUS_EMPLOYEE"
	CodeConflictingRequirement = "CONFLICTING_REQUIREMENT"
	CodeMissingRoleDefinition  = "MISSING_ROLE_DEFINITION"
	CodeDuplicateStatusTie     = "DUPLICATE_STATUS_TIE"
	CodeCompletionDateUnknown  = "COMPLETION_DATE_UNKNOWN"
)

// Issue is a single data-quality diagnostic. Row is the 1-based position
// of the offending row within its source and zero when not row specific.
type Issue struct {
	Level    IssueLevel     `json:"level"`
	Code     string         `json:"code"`
	Source   Source         `json:"source"`
	Row      int            `json:"row,omitempty"`
	Field    string         `json:"field,omitempty"`
	EntityID string         `json:"entity_id,omitempty"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}

// String renders the issue the way the CLI prints it
func (i Issue) String() string {
	loc := string(i.Source)
	if i.Row > 0 {
		loc = fmt.Sprintf("%s:%d", loc, i.Row)
	}
	if i.Field != "" {
		loc = loc + " " + i.Field
	}
	return fmt.Sprintf("[%s] %s (%s): %s", i.Level, i.Code, loc, i.Message)
}

// HasErrors reports whether any issue is at ERROR level
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Level == LevelError {
			return true
		}
	}
	return false
}

// CountByLevel tallies issues per level
func CountByLevel(issues []Issue) map[IssueLevel]int {
	counts := make(map[IssueLevel]int, 3)
	for _, i := range issues {
		counts[i.Level]++
	}
	return counts
}
