package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/lotledger/lotledger"
	"github.com/lotledger/lotledger/renderer"
)

type gainsCmd struct{}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "report realized gains and losses" }
func (*gainsCmd) Usage() string {
	return `gains

  Reports every recorded sale with its cost basis, realized gain and
  holding period, plus aggregate totals.
`
}

func (*gainsCmd) SetFlags(*flag.FlagSet) {}

func (c *gainsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	engine, store, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	sum, err := engine.RealizedGains(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	var sales []*lotledger.SaleRecord
	for _, k := range keys {
		more, err := store.SalesFor(ctx, k.Ticker, k.Account)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		sales = append(sales, more...)
	}

	printMarkdown(renderer.GainsMarkdown(sales, sum, engine.Method()))
	return subcommands.ExitSuccess
}
