package renderer

import (
	"fmt"
	"strings"

	"github.com/lotledger/lotledger"
)

// GainsMarkdown renders a realized gains report over the given sales.
func GainsMarkdown(sales []*lotledger.SaleRecord, sum lotledger.GainsSummary, method lotledger.CostBasisMethod) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Realized Gains Report\n\n")
	fmt.Fprintf(&b, "Method: %s\n\n", method)

	fmt.Fprint(&b, "## Sales\n\n")
	fmt.Fprintln(&b, "| Date | Ticker | Account | Quantity | Proceeds | Cost Basis | Gain / Loss | Period | Unmatched |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|---:|---:|:---|---:|")

	for _, s := range sales {
		unmatched := " "
		if s.Unmatched.IsPositive() {
			unmatched = fmt.Sprintf("**%s**", s.Unmatched)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			s.SaleDate,
			s.Ticker,
			s.Account,
			s.Quantity,
			s.Proceeds(),
			s.CostBasis,
			s.RealizedGain.SignedString(),
			s.Period,
			unmatched,
		)
	}

	fmt.Fprint(&b, "\n## Summary\n\n")
	fmt.Fprintln(&b, "| | |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Sales | %d |\n", sum.Sales)
	fmt.Fprintf(&b, "| Realized Gains | %s |\n", sum.RealizedGains.SignedString())
	fmt.Fprintf(&b, "| Realized Losses | %s |\n", sum.RealizedLosses.SignedString())
	fmt.Fprintf(&b, "| Short Term | %d |\n", sum.ShortTermSells)
	fmt.Fprintf(&b, "| Long Term | %d |\n", sum.LongTermSells)
	if sum.UnmatchedSells > 0 {
		fmt.Fprintf(&b, "| **Unmatched Sells** | %d |\n", sum.UnmatchedSells)
	}
	return b.String()
}
