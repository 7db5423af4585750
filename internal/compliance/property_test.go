package compliance

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"trainingtracker/internal/shared/testutil"
	"trainingtracker/pkg/contracts/domain"
)

var statusChoices = []domain.TrainingStatus{
	domain.StatusCompleted,
	domain.StatusInProgress,
	domain.StatusNotStarted,
	domain.StatusExpired,
}

// buildCase turns generated integers into a resolution and status rows.
// Each course code encodes: bit 0 mandatory, bits 1-2 status, bit 3
// whether a status row exists, bits 4-5 recurrence bucket, bits 6+ age.
func buildCase(codes []int) (Resolution, []domain.CurriculumStatus) {
	res := resolution("E1")
	var statuses []domain.CurriculumStatus
	for i, code := range codes {
		id := fmt.Sprintf("C%02d", i)
		recurrence := []int{0, 6, 12, 24}[(code>>4)&3]
		res.Courses = append(res.Courses, course(id, recurrence, code&1 == 1))
		if code&8 == 0 {
			continue
		}
		completed := testutil.EvaluationDate.AddDate(0, -(code >> 6), 0)
		statuses = append(statuses, status("E1", id, statusChoices[(code>>1)&3], &completed, nil, i+1))
	}
	return res, statuses
}

func TestEvaluateCountsAlwaysAddUp(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	e := NewEvaluator(testutil.EvaluationDate)

	properties.Property("completed + pending + expired = required", prop.ForAll(
		func(codes []int) bool {
			rec, _ := e.Evaluate(buildCase(codes))
			return rec.Completed+rec.Pending+rec.Expired == rec.Required &&
				rec.Overdue <= rec.Pending &&
				rec.OptionalCompleted <= rec.OptionalRequired &&
				rec.Required+rec.OptionalRequired == len(codes)
		},
		gen.SliceOf(gen.IntRange(0, 4095)),
	))

	properties.Property("percentage is applicable exactly when something is required", prop.ForAll(
		func(codes []int) bool {
			rec, _ := e.Evaluate(buildCase(codes))
			if rec.Required == 0 {
				return !rec.Percentage.Applicable
			}
			return rec.Percentage.Applicable && rec.Percentage.Value >= 0 && rec.Percentage.Value <= 100
		},
		gen.SliceOf(gen.IntRange(0, 4095)),
	))

	properties.Property("rollup equals the sum of its parts", prop.ForAll(
		func(required, completed []int) bool {
			var records []domain.ComplianceRecord
			sumReq, sumDone := 0, 0
			for i := 0; i < len(required) && i < len(completed); i++ {
				req := required[i]
				done := completed[i] % (req + 1)
				records = append(records, record(fmt.Sprintf("E%03d", i), "CO", fmt.Sprintf("O%d", i%3), req, done))
				sumReq += req
				sumDone += done
			}
			overall := Aggregate(records).Overall
			return overall.Required == sumReq &&
				overall.Completed == sumDone &&
				overall.Percentage == domain.Ratio(sumDone, sumReq)
		},
		gen.SliceOf(gen.IntRange(0, 20)),
		gen.SliceOf(gen.IntRange(0, 20)),
	))

	properties.TestingRun(t)
}
