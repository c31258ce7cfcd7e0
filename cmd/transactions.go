package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/lotledger/lotledger"
)

// --- Buy Command ---

type buyCmd struct {
	date     string
	ticker   string
	account  string
	quantity float64
	price    float64
	fee      float64
	note     string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a purchase, minting a new lot" }
func (*buyCmd) Usage() string {
	return `buy -t <ticker> -q <quantity> -p <price> [-d <date>] [-a <account>] [-f <fee>] [-m <note>]

  Records a purchase. A new lot is created and the holding is recomputed.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", lotledger.Today().String(), "Purchase date (YYYY-MM-DD)")
	f.StringVar(&c.ticker, "t", "", "Security ticker")
	f.StringVar(&c.account, "a", "", "Account or venue holding the lot")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares")
	f.Float64Var(&c.price, "p", 0, "Price per share")
	f.Float64Var(&c.fee, "f", 0, "Transaction fee")
	f.StringVar(&c.note, "m", "", "An optional note for the transaction")
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.quantity <= 0 || c.price <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := lotledger.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	engine, store, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	lot, err := engine.RecordBuy(ctx, lotledger.RawTrade{
		Ticker:    c.ticker,
		Account:   c.account,
		Date:      day,
		Quantity:  lotledger.Q(c.quantity),
		UnitPrice: lotledger.M(c.price, *currencyFlag),
		Fees:      lotledger.M(c.fee, *currencyFlag),
		Note:      c.note,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if status := saveStore(store); status != subcommands.ExitSuccess {
		return status
	}
	fmt.Printf("Created lot %s: %s %s at %s\n", lot.ID, lot.OriginalQuantity, lot.Ticker, lot.UnitPrice)
	return subcommands.ExitSuccess
}

// --- Sell Command ---

type sellCmd struct {
	date     string
	ticker   string
	account  string
	quantity float64
	price    float64
	fee      float64
	note     string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sale matched against open lots" }
func (*sellCmd) Usage() string {
	return `sell -t <ticker> -q <quantity> -p <price> [-d <date>] [-a <account>] [-f <fee>] [-m <note>]

  Records a sale. Open lots are consumed under the selected cost basis
  method and the realized gain is reported.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", lotledger.Today().String(), "Sale date (YYYY-MM-DD)")
	f.StringVar(&c.ticker, "t", "", "Security ticker")
	f.StringVar(&c.account, "a", "", "Account or venue holding the lots")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares")
	f.Float64Var(&c.price, "p", 0, "Price per share")
	f.Float64Var(&c.fee, "f", 0, "Transaction fee")
	f.StringVar(&c.note, "m", "", "An optional note for the transaction")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.quantity <= 0 || c.price <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := lotledger.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	engine, store, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	sale, err := engine.RecordSell(ctx, lotledger.RawTrade{
		Ticker:    c.ticker,
		Account:   c.account,
		Date:      day,
		Quantity:  lotledger.Q(c.quantity),
		UnitPrice: lotledger.M(c.price, *currencyFlag),
		Fees:      lotledger.M(c.fee, *currencyFlag),
		Note:      c.note,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if status := saveStore(store); status != subcommands.ExitSuccess {
		return status
	}
	fmt.Printf("Sold %s %s: gain %s (%s)\n", sale.Quantity, sale.Ticker, sale.RealizedGain.SignedString(), sale.Period)
	if sale.Unmatched.IsPositive() {
		fmt.Printf("Warning: %s shares had no matching lot and were disposed at zero cost basis\n", sale.Unmatched)
	}
	return subcommands.ExitSuccess
}
