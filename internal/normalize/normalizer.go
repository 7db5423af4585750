package normalize

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	apierrors "trainingtracker/internal/errors"
	"trainingtracker/pkg/contracts/domain"
)

// Options controls how raw rows are interpreted
type Options struct {
	// EvaluationDate anchors days_remaining to a calendar date
	EvaluationDate time.Time
	// DateLayouts are tried in order; DefaultDateLayouts when empty
	DateLayouts []string
	// StatusAliases maps folded spellings to statuses; DefaultStatusAliases when empty
	StatusAliases map[string]domain.TrainingStatus
	// DefaultCompany fills company_id on HR rows that lack it;
	// ImplicitCompany when empty
	DefaultCompany string
}

// Entities are the typed records produced from one snapshot
type Entities struct {
	Employees []domain.Employee
	Roles     []domain.RoleRequirement
	Statuses  []domain.CurriculumStatus
}

// Normalizer validates and canonicalizes the raw rows of a snapshot
type Normalizer struct {
	opts     Options
	dates    *DateParser
	aliases  map[string]domain.TrainingStatus
	validate *validator.Validate
	logger   *slog.Logger
}

// ImplicitCompany groups employees when neither the roster nor the
// configuration names a company
const ImplicitCompany = "COMPANY"

type employeeCandidate struct {
	ID        string   `col:"employee_id" validate:"required,ident"`
	Name      string   `col:"name" validate:"max=256"`
	Roles     []string `col:"roles" validate:"required,dive,ident"`
	OrgID     string   `col:"org_id" validate:"required,ident"`
	Unit      string   `col:"unit" validate:"omitempty,ident"`
	CompanyID string   `col:"company_id" validate:"required,ident"`
}

type roleCandidate struct {
	RoleID     string `col:"role_id" validate:"required,ident"`
	OrgID      string `col:"org_id" validate:"omitempty,ident"`
	CourseID   string `col:"course_id" validate:"omitempty,ident"`
	Required   string `col:"required" validate:"oneof=mandatory optional na"`
	Recurrence string `col:"recurrence_months" validate:"omitempty,number,max=4"`
}

type statusCandidate struct {
	EmployeeID     string `col:"employee_id" validate:"required,ident"`
	CourseID       string `col:"course_id" validate:"required,ident"`
	Status         string `col:"status" validate:"required,status"`
	CompletionDate string `col:"completion_date" validate:"omitempty,date"`
	DueDate        string `col:"due_date" validate:"omitempty,date"`
	DaysRemaining  string `col:"days_remaining" validate:"omitempty,numeric"`
}

// New creates a Normalizer
func New(opts Options, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	aliases := opts.StatusAliases
	if len(aliases) == 0 {
		aliases = DefaultStatusAliases
	}
	n := &Normalizer{
		opts:    opts,
		dates:   NewDateParser(opts.DateLayouts),
		aliases: aliases,
		logger:  logger.With(slog.String("component", "normalizer")),
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("col")
	})
	_ = v.RegisterValidation("ident", isIdentifier)
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		_, ok := n.aliases[statusToken(fl.Field().String())]
		return ok
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		return n.dates.Valid(fl.Field().String())
	})
	n.validate = v
	return n
}

// maxIdentLen leaves room for identifiers derived from name, org and unit
const maxIdentLen = 256

// isIdentifier accepts printable text of a sensible length
func isIdentifier(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.TrimSpace(s) == "" || len(s) > maxIdentLen {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Normalize turns a raw snapshot into typed entities. Row level problems
// become issues and the row is skipped. A missing source, or a source
// without a single valid row, is a fatal input error returned together with
// every issue gathered.
func (n *Normalizer) Normalize(snap domain.Snapshot) (Entities, []domain.Issue, error) {
	var (
		ents  Entities
		diags issueLog
	)

	employees := n.employees(snap.HR, &diags)
	ents.Employees = employees
	ents.Roles = n.roles(snap.Roles, &diags)

	known := newRoster(len(employees))
	for _, e := range employees {
		known.add(e.ID, e.Name, e.UnitID)
	}
	ents.Statuses = n.statuses(snap.Status, known, len(employees) > 0, &diags)

	var fatal []string
	for _, src := range []struct {
		source domain.Source
		batch  *domain.Batch
		valid  int
	}{
		{domain.SourceHR, snap.HR, len(ents.Employees)},
		{domain.SourceRoles, snap.Roles, len(ents.Roles)},
		{domain.SourceStatus, snap.Status, len(ents.Statuses)},
	} {
		switch {
		case src.batch == nil:
			diags.add(domain.Issue{
				Level:   domain.LevelError,
				Code:    domain.CodeMissingSource,
				Source:  src.source,
				Message: fmt.Sprintf("%s source is missing", src.source),
			})
			fatal = append(fatal, string(src.source))
		case src.valid == 0:
			diags.add(domain.Issue{
				Level:   domain.LevelError,
				Code:    domain.CodeNoValidRows,
				Source:  src.source,
				Message: fmt.Sprintf("%s source has no valid rows (%d read)", src.source, src.batch.Len()),
			})
			fatal = append(fatal, string(src.source))
		}
	}

	n.logger.Info("snapshot normalized",
		slog.Int("employees", len(ents.Employees)),
		slog.Int("roles", len(ents.Roles)),
		slog.Int("statuses", len(ents.Statuses)),
		slog.Int("issues", len(diags)),
	)

	if len(fatal) > 0 {
		err := apierrors.NewInputError("unusable input sources: "+strings.Join(fatal, ", "), nil).
			WithContext("sources", fatal)
		return ents, diags, err
	}
	return ents, diags, nil
}
