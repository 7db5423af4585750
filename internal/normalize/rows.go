package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"trainingtracker/pkg/contracts/domain"
)

type issueLog []domain.Issue

func (l *issueLog) add(i domain.Issue) {
	*l = append(*l, i)
}

func (l *issueLog) warn(source domain.Source, row domain.RawRow, code, field, entity, msg string) {
	l.add(domain.Issue{
		Level:    domain.LevelWarning,
		Code:     code,
		Source:   source,
		Row:      row.Position,
		Field:    field,
		EntityID: entity,
		Message:  msg,
		Details:  originDetails(row),
	})
}

func originDetails(row domain.RawRow) map[string]any {
	if row.Origin == "" {
		return nil
	}
	return map[string]any{"origin": row.Origin}
}

// check validates a candidate and records one issue per failing field.
// It reports whether the row is usable.
func (n *Normalizer) check(candidate any, source domain.Source, row domain.RawRow, entity string, log *issueLog) bool {
	err := n.validate.Struct(candidate)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		log.warn(source, row, domain.CodeInvalidField, "", entity, err.Error())
		return false
	}
	for _, fe := range verrs {
		field := fe.Field()
		code := domain.CodeInvalidField
		if fe.Tag() == "required" {
			code = domain.CodeMissingField
		}
		log.warn(source, row, code, field, entity, describe(fe))
	}
	return false
}

// describe renders a validation failure for a data steward
func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "ident":
		return fmt.Sprintf("%s must be printable text of at most %d characters", field, maxIdentLen)
	case "status":
		return fmt.Sprintf("%s %q is not a recognized training status", field, fe.Value())
	case "date":
		return fmt.Sprintf("%s %q is not a recognized date", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s %q must be one of Mandatory, Optional or NA", field, fe.Value())
	case "number", "max":
		return fmt.Sprintf("%s %q must be a non-negative whole number of months", field, fe.Value())
	case "numeric":
		return fmt.Sprintf("%s %q must be a number of days", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func (n *Normalizer) employees(batch *domain.Batch, log *issueLog) []domain.Employee {
	if batch == nil {
		return nil
	}
	out := make([]domain.Employee, 0, len(batch.Rows))
	seen := make(map[string]int, len(batch.Rows))
	for _, row := range batch.Rows {
		f := CanonicalFields(row.Fields)
		company := firstNonEmpty(f["company_id"], n.opts.DefaultCompany, ImplicitCompany)
		roles := SplitRoles(f["roles"])
		if len(roles) == 0 {
			roles = nil
		}
		id := f["employee_id"]
		if id == "" && f["name"] != "" && f["org_id"] != "" {
			id = DerivedEmployeeID(f["name"], f["org_id"], f["unit"])
		}
		cand := employeeCandidate{
			ID:        id,
			Name:      f["name"],
			Roles:     roles,
			OrgID:     f["org_id"],
			Unit:      f["unit"],
			CompanyID: company,
		}
		if !n.check(cand, domain.SourceHR, row, cand.ID, log) {
			continue
		}

		key := Key(cand.ID)
		if first, dup := seen[key]; dup {
			log.warn(domain.SourceHR, row, domain.CodeDuplicateEmployee, "employee_id", cand.ID,
				fmt.Sprintf("employee %s already defined on row %d; row ignored", cand.ID, first))
			continue
		}
		seen[key] = row.Position

		orgName := firstNonEmpty(f["org_name"], cand.OrgID)
		out = append(out, domain.Employee{
			ID:          cand.ID,
			Name:        cand.Name,
			Roles:       roles,
			OrgID:       Key(cand.OrgID),
			OrgName:     orgName,
			UnitID:      Key(firstNonEmpty(cand.Unit, cand.OrgID)),
			UnitName:    firstNonEmpty(cand.Unit, orgName),
			CompanyID:   Key(company),
			CompanyName: firstNonEmpty(f["company_name"], company),
			Manager:     f["manager"],
			Row:         row.Position,
		})
	}
	return out
}

type roleKey struct {
	org  string
	role string
}

func (n *Normalizer) roles(batch *domain.Batch, log *issueLog) []domain.RoleRequirement {
	if batch == nil {
		return nil
	}
	var order []roleKey
	defs := make(map[roleKey]*domain.RoleRequirement)
	courseAt := make(map[roleKey]map[string]int)

	for _, row := range batch.Rows {
		f := CanonicalFields(row.Fields)
		required, present := f["required"]
		switch {
		case !present:
			// sheets without a required column list mandatory courses only
			required = requiredMandatory
		default:
			if alias, ok := requiredAliases[statusToken(required)]; ok {
				required = alias
			}
		}
		cand := roleCandidate{
			RoleID:     f["role_id"],
			OrgID:      f["org_id"],
			CourseID:   f["course_id"],
			Required:   required,
			Recurrence: f["recurrence_months"],
		}
		if !n.check(cand, domain.SourceRoles, row, cand.RoleID, log) {
			continue
		}

		k := roleKey{org: Key(cand.OrgID), role: Key(cand.RoleID)}
		def, ok := defs[k]
		if !ok {
			def = &domain.RoleRequirement{
				RoleID:   k.role,
				RoleName: firstNonEmpty(f["role_name"], cand.RoleID),
				OrgID:    k.org,
				Courses:  []domain.CourseRequirement{},
			}
			defs[k] = def
			courseAt[k] = make(map[string]int)
			order = append(order, k)
		}
		if cand.CourseID == "" || cand.Required == requiredNone {
			continue
		}

		recurrence := 0
		if cand.Recurrence != "" {
			recurrence, _ = strconv.Atoi(cand.Recurrence)
		}
		course := domain.CourseRequirement{
			CourseID:   Key(cand.CourseID),
			Title:      f["course_title"],
			Recurrence: recurrence,
			Mandatory:  cand.Required == requiredMandatory,
		}

		idx, dup := courseAt[k][course.CourseID]
		if !dup {
			courseAt[k][course.CourseID] = len(def.Courses)
			def.Courses = append(def.Courses, course)
			continue
		}
		prev := def.Courses[idx]
		if prev.Recurrence != course.Recurrence || prev.Mandatory != course.Mandatory {
			log.warn(domain.SourceRoles, row, domain.CodeConflictingRequirement, "course_id", k.role,
				fmt.Sprintf("course %s listed twice for role %s with different terms; the stricter terms apply",
					course.CourseID, k.role))
		}
		prev.Recurrence = domain.StricterRecurrence(prev.Recurrence, course.Recurrence)
		prev.Mandatory = prev.Mandatory || course.Mandatory
		if prev.Title == "" {
			prev.Title = course.Title
		}
		def.Courses[idx] = prev
	}

	out := make([]domain.RoleRequirement, 0, len(order))
	for _, k := range order {
		out = append(out, *defs[k])
	}
	return out
}

func (n *Normalizer) statuses(batch *domain.Batch, known *roster, checkKnown bool, log *issueLog) []domain.CurriculumStatus {
	if batch == nil {
		return nil
	}
	out := make([]domain.CurriculumStatus, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		f := CanonicalFields(row.Fields)
		// rows without an identifier are matched to the roster by user name
		byName := f["employee_id"] == "" && f["user_name"] != ""
		cand := statusCandidate{
			EmployeeID:     firstNonEmpty(f["employee_id"], f["user_name"]),
			CourseID:       f["course_id"],
			Status:         f["status"],
			CompletionDate: f["completion_date"],
			DueDate:        f["due_date"],
			DaysRemaining:  f["days_remaining"],
		}
		if !n.check(cand, domain.SourceStatus, row, cand.EmployeeID, log) {
			continue
		}

		employeeID := cand.EmployeeID
		if checkKnown {
			id, ok := n.match(known, cand.EmployeeID, f["unit"], byName, row, log)
			if !ok {
				continue
			}
			employeeID = id
		}

		token := statusToken(cand.Status)
		st := domain.CurriculumStatus{
			EmployeeID:  employeeID,
			CourseID:    Key(cand.CourseID),
			CourseTitle: f["course_title"],
			Status:      n.aliases[token],
			Overdue:     overdueTokens[token],
			Row:         row.Position,
		}

		if cand.CompletionDate != "" {
			if st.Status.CarriesCompletionDate() {
				st.CompletedOn = n.date(cand.CompletionDate)
			} else {
				log.warn(domain.SourceStatus, row, domain.CodeInconsistentField, "completion_date", employeeID,
					fmt.Sprintf("completion date %s ignored for status %s", cand.CompletionDate, st.Status))
			}
		}
		switch {
		case cand.DueDate != "":
			st.DueOn = n.date(cand.DueDate)
		case cand.DaysRemaining != "" && !n.opts.EvaluationDate.IsZero():
			days, _ := strconv.ParseFloat(cand.DaysRemaining, 64)
			due := truncateDay(n.opts.EvaluationDate).AddDate(0, 0, int(math.Round(days)))
			st.DueOn = &due
		}
		out = append(out, st)
	}
	return out
}

// match resolves a status row to a roster employee, logging why it cannot
func (n *Normalizer) match(known *roster, ref, unit string, byName bool, row domain.RawRow, log *issueLog) (string, bool) {
	if !byName {
		id, ok := known.byID[Key(ref)]
		if !ok {
			log.warn(domain.SourceStatus, row, domain.CodeUnknownEmployee, "employee_id", ref,
				fmt.Sprintf("employee %s is not in the HR roster; row ignored", ref))
		}
		return id, ok
	}

	ids := known.byUserName(ref, unit)
	switch len(ids) {
	case 1:
		return ids[0], true
	case 0:
		log.warn(domain.SourceStatus, row, domain.CodeUnknownEmployee, "user_name", ref,
			fmt.Sprintf("user %s matches no employee of the HR roster; row ignored", ref))
	default:
		issue := domain.Issue{
			Level:    domain.LevelWarning,
			Code:     domain.CodeAmbiguousEmployee,
			Source:   domain.SourceStatus,
			Row:      row.Position,
			Field:    "user_name",
			EntityID: ref,
			Message: fmt.Sprintf("user %s matches %d employees of the HR roster; row ignored",
				ref, len(ids)),
			Details: map[string]any{"candidates": ids},
		}
		if row.Origin != "" {
			issue.Details["origin"] = row.Origin
		}
		log.add(issue)
	}
	return "", false
}

func (n *Normalizer) date(value string) *time.Time {
	t, err := n.dates.Parse(value)
	if err != nil {
		return nil
	}
	return &t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
