package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Column aliases accepted on input, keyed by canonical column name
var columnAliases = map[string][]string{
	"employee_id":       {"employee_id", "employee", "emp_id", "local_id", "associate_id"},
	"user_name":         {"user_name", "username", "user"},
	"name":              {"name", "full_name", "employee_name"},
	"roles":             {"roles", "role", "role_id", "job_title", "job_titles"},
	"org_id":            {"org_id", "org_code", "organization", "organization_id"},
	"org_name":          {"org_name", "organization_name"},
	"unit":              {"unit", "unit_id", "org_desc", "organization_description", "department", "unit_name", "org_unit_abbr"},
	"company_id":        {"company_id", "company", "company_code"},
	"company_name":      {"company_name", "company_desc", "company_description"},
	"manager":           {"manager", "head_of_department"},
	"role_id":           {"role_id", "role", "job_title"},
	"role_name":         {"role_name", "role_title"},
	"course_id":         {"course_id", "curriculum_id", "cirriculum_id", "course"},
	"course_title":      {"course_title", "curriculum_title", "cirriculum_title", "title"},
	"required":          {"required", "requirement", "required_type", "is_mandatory", "mandatory"},
	"recurrence_months": {"recurrence_months", "recurrence", "recurrence_month", "renewal_months"},
	"status":            {"status", "curriculum_complete", "completion_status", "curriculum_status", "curriculum_completed"},
	"completion_date":   {"completion_date", "completed_on", "completed_date", "curriculum_completion_date"},
	"due_date":          {"due_date", "due_on", "expiry_date", "expiration_date"},
	"days_remaining":    {"days_remaining", "day_remaining"},
}

// CanonicalColumn lower-cases a column header and folds spaces, dashes
// and dots into underscores.
func CanonicalColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(stripMarks(name)))
	var b strings.Builder
	underscore := false
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// CanonicalFields rewrites the keys of a raw row into canonical column
// names, resolving aliases. Values are trimmed. The first non-empty value
// wins when two aliases of the same column are present; a column that is
// present but blank maps to "".
func CanonicalFields(fields map[string]string) map[string]string {
	byColumn := make(map[string]string, len(fields))
	for k, v := range fields {
		c := CanonicalColumn(k)
		if prev, ok := byColumn[c]; ok && prev != "" {
			continue
		}
		byColumn[c] = strings.TrimSpace(v)
	}
	out := make(map[string]string, len(columnAliases))
	for canonical, aliases := range columnAliases {
		for _, alias := range aliases {
			v, ok := byColumn[alias]
			if !ok {
				continue
			}
			if prev, seen := out[canonical]; !seen || prev == "" {
				out[canonical] = v
			}
		}
	}
	return out
}

// Key folds an identifier for matching: upper case, accents removed, runs
// of whitespace collapsed and anything outside letters, digits and
// ", . - _" replaced by a space.
func Key(s string) string {
	s = strings.ToUpper(stripMarks(s))
	var b strings.Builder
	space := false
	for _, r := range s {
		keep := unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(",.-_", r)
		if !keep {
			space = b.Len() > 0
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SplitRoles splits a role cell on ';', ',' or '|' and returns the folded
// role keys in order of first appearance.
func SplitRoles(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ';' || r == ',' || r == '|'
	})
	seen := make(map[string]bool, len(parts))
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		k := Key(p)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		roles = append(roles, k)
	}
	return roles
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
