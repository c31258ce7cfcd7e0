package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/lotledger/lotledger"
	"github.com/lotledger/lotledger/renderer"
)

type lotsCmd struct {
	ticker  string
	account string
	delete  string
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "list the lots of a position" }
func (*lotsCmd) Usage() string {
	return `lots -t <ticker> [-a <account>] [-delete <lot-id>]

  Lists the lots held for a ticker, or deletes one by id and recomputes
  the holding.
`
}

func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "Security ticker")
	f.StringVar(&c.account, "a", "", "Account or venue holding the lots")
	f.StringVar(&c.delete, "delete", "", "Delete the lot with this id instead of listing")
}

func (c *lotsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	engine, store, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.delete != "" {
		if err := engine.DeleteLot(ctx, c.delete); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if status := saveStore(store); status != subcommands.ExitSuccess {
			return status
		}
		fmt.Printf("Deleted lot %s\n", c.delete)
		return subcommands.ExitSuccess
	}

	if c.ticker == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	ticker := strings.ToUpper(c.ticker)
	lots, err := store.LotsFor(ctx, ticker, c.account)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	key := lotledger.PoolKey{Ticker: ticker, Account: c.account}
	printMarkdown(renderer.LotsMarkdown(key, lots))
	return subcommands.ExitSuccess
}
