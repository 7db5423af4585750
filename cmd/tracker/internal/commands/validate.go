package commands

import (
	"context"
	"fmt"

	"trainingtracker/internal/services"
	"trainingtracker/pkg/contracts/domain"
)

// ValidateCmd checks the inputs without evaluating them
type ValidateCmd struct {
	Quiet bool `help:"Print only the summary line" short:"q"`
}

func (v *ValidateCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.bootstrap()
	if err != nil {
		return err
	}
	defer shutdown(ctx, a)

	issues, err := a.Validate(ctx)
	if err != nil && !services.IsFatal(err) {
		return err
	}

	out := globals.out()
	if !v.Quiet {
		for _, i := range issues {
			fmt.Fprintln(out, i.String())
		}
	}
	counts := domain.CountByLevel(issues)
	fmt.Fprintf(out, "%d issues: %d errors, %d warnings\n",
		len(issues), counts[domain.LevelError], counts[domain.LevelWarning])

	if err != nil {
		return fmt.Errorf("inputs are unusable: %w", err)
	}
	return nil
}
