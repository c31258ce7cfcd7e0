package renderer

import (
	"fmt"
	"strings"

	"github.com/lotledger/lotledger"
)

// LotsMarkdown renders the open and closed lots of a pool.
func LotsMarkdown(key lotledger.PoolKey, lots []*lotledger.Lot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Lots for %s\n\n", key)
	fmt.Fprintln(&b, "| Purchased | Lot | Quantity | Remaining | Unit Price | Cost Basis |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|")

	for _, l := range lots {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			l.PurchaseDate,
			shortID(l.ID),
			l.OriginalQuantity,
			l.RemainingQuantity,
			l.UnitPrice,
			l.CostBasis(),
		)
	}
	return b.String()
}

// shortID keeps lot tables readable; the full identifier stays in the
// store.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
