package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/lotledger/lotledger"
)

type reassignCmd struct {
	ticker string
	from   string
	to     string
}

func (*reassignCmd) Name() string     { return "reassign" }
func (*reassignCmd) Synopsis() string { return "move a position to another account" }
func (*reassignCmd) Usage() string {
	return `reassign -t <ticker> -from <account> -to <account>

  Moves every lot and sale of a ticker from one account to another and
  recomputes both holdings.
`
}

func (c *reassignCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "Security ticker")
	f.StringVar(&c.from, "from", "", "Current account")
	f.StringVar(&c.to, "to", "", "New account")
}

func (c *reassignCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.from == c.to {
		f.Usage()
		return subcommands.ExitUsageError
	}
	store, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	rec := lotledger.NewReconciler(store)
	if err := rec.ReassignAccount(ctx, strings.ToUpper(c.ticker), c.from, c.to); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if status := saveStore(store); status != subcommands.ExitSuccess {
		return status
	}
	fmt.Printf("Reassigned %s from %q to %q\n", strings.ToUpper(c.ticker), c.from, c.to)
	return subcommands.ExitSuccess
}
