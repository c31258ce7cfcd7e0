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

type importCmd struct {
	file    string
	preview int

	colType    string
	colTicker  string
	colQty     string
	colPrice   string
	colDate    string
	colFee     string
	colAccount string
	colNotes   string
	colExtID   string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "bulk import transactions from a CSV file" }
func (*importCmd) Usage() string {
	return `import -file <csv> [-preview <n>] [column mapping flags]

  Imports a CSV of transactions. Rows are normalized, invalid rows are
  dropped and counted, the valid set is replayed against the existing
  lots, and the touched holdings are recomputed. With -preview only the
  first N normalized rows are shown and nothing is committed.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "CSV file to import")
	f.IntVar(&c.preview, "preview", 0, "Preview the first N rows instead of committing")

	f.StringVar(&c.colType, "type-col", "type", "Column holding the transaction type")
	f.StringVar(&c.colTicker, "ticker-col", "ticker", "Column holding the ticker")
	f.StringVar(&c.colQty, "quantity-col", "quantity", "Column holding the quantity")
	f.StringVar(&c.colPrice, "price-col", "price", "Column holding the unit price")
	f.StringVar(&c.colDate, "date-col", "date", "Column holding the date")
	f.StringVar(&c.colFee, "fee-col", "", "Column holding the fee (optional)")
	f.StringVar(&c.colAccount, "account-col", "", "Column holding the account (optional)")
	f.StringVar(&c.colNotes, "notes-col", "", "Column holding the notes (optional)")
	f.StringVar(&c.colExtID, "external-id-col", "", "Column holding the external id (optional)")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	store, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	m, err := method()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	src, err := os.Open(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening import file %q: %v\n", c.file, err)
		return subcommands.ExitFailure
	}
	defer src.Close()

	session := lotledger.NewImportSession(store, m, *currencyFlag)
	if err := session.Upload(src); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	mapping := lotledger.FieldMapping{
		Type:       c.colType,
		Ticker:     c.colTicker,
		Quantity:   c.colQty,
		Price:      c.colPrice,
		Date:       c.colDate,
		Fee:        c.colFee,
		Account:    c.colAccount,
		Notes:      c.colNotes,
		ExternalID: c.colExtID,
	}
	if err := session.MapFields(mapping); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.preview > 0 {
		rows, err := session.Preview(c.preview)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.PreviewMarkdown(rows))
		return subcommands.ExitSuccess
	}

	report, err := session.Commit(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if status := saveStore(store); status != subcommands.ExitSuccess {
		return status
	}
	printMarkdown(renderer.ImportMarkdown(report))
	return subcommands.ExitSuccess
}
