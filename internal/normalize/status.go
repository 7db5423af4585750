package normalize

import (
	"strings"

	"trainingtracker/pkg/contracts/domain"
)

// DefaultStatusAliases maps accepted status spellings (folded with
// statusToken) to the four canonical statuses.
var DefaultStatusAliases = map[string]domain.TrainingStatus{
	"completed":   domain.StatusCompleted,
	"complete":    domain.StatusCompleted,
	"yes":         domain.StatusCompleted,
	"y":           domain.StatusCompleted,
	"si":          domain.StatusCompleted,
	"true":        domain.StatusCompleted,
	"in progress": domain.StatusInProgress,
	"overdue":     domain.StatusInProgress,
	"not started": domain.StatusNotStarted,
	"no":          domain.StatusNotStarted,
	"n":           domain.StatusNotStarted,
	"false":       domain.StatusNotStarted,
	"expired":     domain.StatusExpired,
}

// overdueTokens are pending spellings that imply the due date has passed
var overdueTokens = map[string]bool{"overdue": true}

// Requirement flags of the roles source
const (
	requiredMandatory = "mandatory"
	requiredOptional  = "optional"
	requiredNone      = "na"
)

var requiredAliases = map[string]string{
	"mandatory":   requiredMandatory,
	"obligatorio": requiredMandatory,
	"required":    requiredMandatory,
	"yes":         requiredMandatory,
	"true":        requiredMandatory,
	"optional":    requiredOptional,
	"opcional":    requiredOptional,
	"no":          requiredOptional,
	"false":       requiredOptional,
	"na":          requiredNone,
	"n a":         requiredNone,
	"":            requiredNone,
}

// statusToken folds a status cell: lower case, accents removed, dashes and
// underscores read as spaces.
func statusToken(s string) string {
	s = strings.ToLower(stripMarks(s))
	s = strings.NewReplacer("-", " ", "_", " ", "/", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// BuildStatusAliases turns a configured alias list of the form
// "spelling=status" into an alias table. Unknown target statuses are
// reported back so configuration can reject them.
func BuildStatusAliases(entries map[string]string) (map[string]domain.TrainingStatus, []string) {
	if len(entries) == 0 {
		return DefaultStatusAliases, nil
	}
	aliases := make(map[string]domain.TrainingStatus, len(entries))
	var invalid []string
	for spelling, target := range entries {
		status := domain.TrainingStatus(statusToken(target))
		if status == "in progress" {
			status = domain.StatusInProgress
		} else if status == "not started" {
			status = domain.StatusNotStarted
		}
		if !status.IsValid() {
			invalid = append(invalid, spelling+"="+target)
			continue
		}
		aliases[statusToken(spelling)] = status
	}
	return aliases, invalid
}
