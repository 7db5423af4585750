package commands

import (
	"context"
	"log/slog"

	"trainingtracker/internal/infrastructure"
)

// ServeCmd runs the HTTP API
type ServeCmd struct {
	Addr     string `help:"Listen address, overrides server.addr"`
	BuildNow bool   `help:"Run once before accepting requests" name:"build"`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.bootstrap()
	if err != nil {
		return err
	}
	if s.Addr != "" {
		a.Config.Server.Addr = s.Addr
	}

	if s.BuildNow {
		if _, err := a.Build(ctx); err != nil {
			a.Logger.WarnContext(ctx, "initial run failed; serving without results",
				slog.String("error", err.Error()))
		}
	}

	// Stop shuts telemetry down; only the log file is left
	defer infrastructure.CloseLogFile()
	return a.Serve(ctx)
}
