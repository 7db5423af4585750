package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"

	"trainingtracker/cmd/tracker/internal/commands"
	"trainingtracker/internal/app"
)

var cli struct {
	commands.Globals

	Validate commands.ValidateCmd `cmd:"" help:"Check the input directory and print validation issues"`
	Build    commands.BuildCmd    `cmd:"" help:"Compute KPIs and write the report tables"`
	Serve    commands.ServeCmd    `cmd:"" help:"Serve the HTTP API"`
	Version  kong.VersionFlag     `help:"Print the version and exit"`
}

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("tracker"),
		kong.Description("Training compliance KPIs from HR, role and status workbooks."),
		kong.UsageOnError(),
		kong.Vars{"version": app.Version},
		kong.BindTo(ctx, (*context.Context)(nil)))

	cli.Globals.Stdout = os.Stdout
	err := cmd.Run(&cli.Globals)
	cmd.FatalIfErrorf(err)
}
