package renderer

import (
	"fmt"
	"strings"

	"github.com/lotledger/lotledger"
)

// ImportMarkdown renders the outcome of a committed import session.
func ImportMarkdown(r *lotledger.ImportReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Import Report\n\n")

	fmt.Fprintln(&b, "| | |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Rows Read | %d |\n", r.RowsRead)
	fmt.Fprintf(&b, "| Buys | %d |\n", r.Stats.Buys)
	fmt.Fprintf(&b, "| Sells | %d |\n", r.Stats.Sells)
	fmt.Fprintf(&b, "| Realized Gains | %s |\n", r.Stats.RealizedGains.SignedString())
	fmt.Fprintf(&b, "| Realized Losses | %s |\n", r.Stats.RealizedLosses.SignedString())
	if r.InvalidRowsDropped > 0 {
		fmt.Fprintf(&b, "| **Rows Dropped** | %d |\n", r.InvalidRowsDropped)
	}
	if r.PersistenceFailures > 0 {
		fmt.Fprintf(&b, "| **Persistence Failures** | %d |\n", r.PersistenceFailures)
	}
	if r.Stats.UnmatchedSells > 0 {
		fmt.Fprintf(&b, "| **Unmatched Sells** | %d |\n", r.Stats.UnmatchedSells)
	}
	return b.String()
}

// PreviewMarkdown renders the normalized preview rows, flagging the
// ones that would be dropped at commit.
func PreviewMarkdown(rows []lotledger.PreviewRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Import Preview\n\n")
	fmt.Fprintln(&b, "| Line | Type | Ticker | Account | Date | Status |")
	fmt.Fprintln(&b, "|---:|:---|:---|:---|:---|:---|")

	for _, r := range rows {
		if r.Err != nil {
			fmt.Fprintf(&b, "| %d | | | | | **dropped: %v** |\n", r.Line, r.Err)
			continue
		}
		k := r.Trade.Key()
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | ok |\n",
			r.Line, r.Trade.What(), k.Ticker, k.Account, r.Trade.When())
	}
	return b.String()
}
