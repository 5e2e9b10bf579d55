package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"moneyflow/internal/cli"
	"moneyflow/internal/core"
	"moneyflow/internal/dashboard"
	"moneyflow/internal/finance"
	apphttp "moneyflow/internal/http"
	"moneyflow/internal/log"
)

type summaryCmd struct {
	Start string `help:"First day of the period (YYYY-MM-DD). Defaults to the first of this month."`
	End   string `help:"Last day of the period (YYYY-MM-DD). Defaults to the end of this month."`
	Days  int    `help:"Summarize the last N days instead of start and end."`
	JSON  bool   `name:"json" help:"Print the JSON payload served by /api/dashboard/summary."`
}

func (c *summaryCmd) Run() error {
	logger := cli.SetupLogger("warn", log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	period, err := apphttp.ParsePeriod(c.query(), time.Now())
	if err != nil {
		return err
	}

	backend := cli.InitBackend(ctx, logger, cfg)
	defer backend.Close()

	store := finance.NewStore(backend.Source, logger)
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("load finance data: %w", err)
	}
	categories, txs := store.Snapshot()
	resp := apphttp.NewSummaryResponse(dashboard.Summarize(txs, categories, period), cfg.DefaultCurrency)

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return printSummary(os.Stdout, resp)
}

func (c *summaryCmd) query() url.Values {
	q := url.Values{}
	if c.Days != 0 {
		q.Set("days", strconv.Itoa(c.Days))
	}
	if c.Start != "" {
		q.Set("start", c.Start)
	}
	if c.End != "" {
		q.Set("end", c.End)
	}
	return q
}

func printSummary(out io.Writer, resp apphttp.SummaryResponse) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Period\t%s .. %s\n", resp.Period.Start, resp.Period.End)
	fmt.Fprintf(tw, "Expenses\t%s\t(%d)\n", resp.Formatted.ExpenseTotal, resp.ExpenseCount)
	fmt.Fprintf(tw, "Income\t%s\n", resp.Formatted.IncomeTotal)
	fmt.Fprintf(tw, "Balance\t%s\n", resp.Formatted.Balance)
	fmt.Fprintf(tw, "Transactions\t%d\n", resp.TransactionCount)
	if resp.MultiCurrency {
		fmt.Fprintf(tw, "Currencies\t%v\t(totals are not converted)\n", resp.Currencies)
	}
	if m := resp.Months; m.Current != nil && m.Previous != nil {
		fmt.Fprintf(tw, "Month delta\t%s\t(%s vs %s)\n", resp.Formatted.MonthDelta, m.Current.Month, m.Previous.Month)
	}
	if len(resp.TopCategories) > 0 {
		fmt.Fprintln(tw, "Top categories")
		for _, row := range resp.TopCategories {
			fmt.Fprintf(tw, "  %s\t%s\n", row.Label, core.FormatMoney(row.Total, resp.Currency))
		}
	}
	return tw.Flush()
}
