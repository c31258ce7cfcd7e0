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

type syncCmd struct {
	ticker  string
	account string
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "recompute holdings from lots" }
func (*syncCmd) Usage() string {
	return `sync [-t <ticker>] [-a <account>]

  Recomputes holding quantity and cost basis from the lots. Without
  flags every holding is reconciled.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "Reconcile only this ticker")
	f.StringVar(&c.account, "a", "", "Account of the ticker to reconcile")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	rec := lotledger.NewReconciler(store)

	if c.ticker != "" {
		h, err := rec.Reconcile(ctx, strings.ToUpper(c.ticker), c.account)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if status := saveStore(store); status != subcommands.ExitSuccess {
			return status
		}
		fmt.Printf("Reconciled %s: quantity %s, cost basis %s\n", h.Key(), h.Quantity, h.CostBasis)
		return subcommands.ExitSuccess
	}

	holdings, err := rec.ReconcileAll(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if status := saveStore(store); status != subcommands.ExitSuccess {
		return status
	}
	fmt.Printf("Reconciled %d holdings\n", len(holdings))
	return subcommands.ExitSuccess
}
