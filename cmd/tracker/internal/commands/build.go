package commands

import (
	"context"
	"fmt"

	"trainingtracker/internal/services"
	"trainingtracker/pkg/contracts/domain"
)

// BuildCmd performs a full run and writes the report tables
type BuildCmd struct{}

func (b *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.bootstrap()
	if err != nil {
		return err
	}
	defer shutdown(ctx, a)

	out := globals.out()
	run, err := a.Build(ctx)
	if err != nil {
		if services.IsFatal(err) {
			for _, i := range services.Issues(err) {
				if i.Level == domain.LevelError {
					fmt.Fprintln(out, i.String())
				}
			}
		}
		return err
	}

	summary := run.Summary()
	fmt.Fprintf(out, "run %s evaluated %d employees as of %s\n",
		summary.ID, summary.Employees, summary.EvaluationDate)
	fmt.Fprintf(out, "overall completion: %s\n", percentLabel(summary.Overall.Percentage))
	fmt.Fprintf(out, "issues: %d errors, %d warnings\n",
		summary.IssueCounts[string(domain.LevelError)], summary.IssueCounts[string(domain.LevelWarning)])
	for _, f := range run.Files {
		fmt.Fprintf(out, "wrote %s\n", f)
	}
	return nil
}

func percentLabel(p domain.Percentage) string {
	if !p.Applicable {
		return p.String()
	}
	return p.String() + "%"
}
