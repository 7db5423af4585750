package report

import (
	"strconv"
	"strings"
	"time"

	"trainingtracker/pkg/contracts/domain"
)

const (
	warningSeparator    = ";"
	percentagePrecision = 2
)

func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatPercent renders with two decimals, or N/A
func formatPercent(p domain.Percentage) string {
	return p.Format(percentagePrecision)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func joinWarnings(w []string) string {
	return strings.Join(w, warningSeparator)
}
