// Package cmd implements the CLI application to manage a lot ledger.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/lotledger/lotledger"
)

// Register the subcommands.
// A main package calls Register() to install them, and Execute() on the
// user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&importCmd{}, "transactions")

	c.Register(&lotsCmd{}, "reports")
	c.Register(&holdingsCmd{}, "reports")
	c.Register(&gainsCmd{}, "reports")

	c.Register(&syncCmd{}, "maintenance")
	c.Register(&reassignCmd{}, "maintenance")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var storeDir = flag.String("store-dir", ".lotledger", "Path to the ledger store folder (JSONL files)")
var methodFlag = flag.String("method", "fifo", "Cost basis method (fifo, lifo, hifo, average)")
var currencyFlag = flag.String("currency", "USD", "Currency code for prices and fees")

// openStore opens the app ledger store. A missing folder yields an
// empty store.
func openStore() (*lotledger.FileStore, error) {
	return lotledger.OpenFileStore(*storeDir)
}

// method parses the global cost basis method flag.
func method() (lotledger.CostBasisMethod, error) {
	return lotledger.ParseCostBasisMethod(*methodFlag)
}

// openEngine opens the store and wraps it in an engine under the
// selected method.
func openEngine() (*lotledger.Engine, *lotledger.FileStore, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	m, err := method()
	if err != nil {
		return nil, nil, err
	}
	return lotledger.NewEngine(store, m), store, nil
}

// saveStore persists the store, reporting failure as an exit status.
func saveStore(store *lotledger.FileStore) subcommands.ExitStatus {
	if err := store.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing ledger store %q: %v\n", *storeDir, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// allHoldings collects every holding with its drift diagnostic.
func allHoldings(ctx context.Context, store lotledger.LotStore) ([]lotledger.Holding, []lotledger.Quantity, error) {
	rec := lotledger.NewReconciler(store)
	keys, err := store.Keys(ctx)
	if err != nil {
		return nil, nil, err
	}
	var holdings []lotledger.Holding
	var drifts []lotledger.Quantity
	for _, k := range keys {
		h, ok, err := store.Holding(ctx, k.Ticker, k.Account)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			h = lotledger.Holding{Ticker: k.Ticker, Account: k.Account}
		}
		d, err := rec.Drift(ctx, k.Ticker, k.Account)
		if err != nil {
			return nil, nil, err
		}
		holdings = append(holdings, h)
		drifts = append(drifts, d)
	}
	return holdings, drifts, nil
}
