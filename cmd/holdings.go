package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/lotledger/lotledger/renderer"
)

type holdingsCmd struct{}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "list holdings with their drift diagnostic" }
func (*holdingsCmd) Usage() string {
	return `holdings

  Lists every holding with its cached quantity, cost basis, and the
  drift against the lot-derived quantity. Nonzero drift means the
  cache is stale; run "sync" to recompute it.
`
}

func (*holdingsCmd) SetFlags(*flag.FlagSet) {}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	holdings, drifts, err := allHoldings(ctx, store)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	rows := make([]renderer.HoldingRow, len(holdings))
	for i, h := range holdings {
		rows[i] = renderer.HoldingRow{Holding: h, Drift: drifts[i]}
	}
	printMarkdown(renderer.HoldingsMarkdown(rows))
	return subcommands.ExitSuccess
}
