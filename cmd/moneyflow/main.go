// Command moneyflow serves the finance dashboard API and offers a few
// maintenance commands around it.
package main

import (
	"github.com/alecthomas/kong"

	"moneyflow/internal/cli"
)

var app struct {
	Serve   serveCmd   `cmd:"" default:"1" help:"Run the dashboard API server."`
	Summary summaryCmd `cmd:"" help:"Print dashboard KPIs for a period."`
	Migrate migrateCmd `cmd:"" help:"Manage the SQLite schema."`
}

func main() {
	// kong reads env defaults, so .env must be loaded first.
	cli.LoadEnvFile()

	ctx := kong.Parse(&app,
		kong.Name("moneyflow"),
		kong.Description("Personal finance dashboard."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
