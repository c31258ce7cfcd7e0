// Package renderer turns ledger data into markdown reports for the
// terminal.
package renderer

import (
	"fmt"
	"strings"

	"github.com/lotledger/lotledger"
)

// HoldingRow is a holding paired with its drift diagnostic.
type HoldingRow struct {
	Holding lotledger.Holding
	Drift   lotledger.Quantity
}

// HoldingsMarkdown renders the holdings table. Nonzero drift is marked
// so stale cache entries stand out.
func HoldingsMarkdown(rows []HoldingRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Holdings\n\n")
	fmt.Fprintln(&b, "| Ticker | Account | Quantity | Cost Basis | Drift |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|")

	for _, r := range rows {
		drift := " "
		if !r.Drift.IsZero() {
			drift = fmt.Sprintf("**%s**", r.Drift)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			r.Holding.Ticker,
			r.Holding.Account,
			r.Holding.Quantity,
			r.Holding.CostBasis,
			drift,
		)
	}
	return b.String()
}
