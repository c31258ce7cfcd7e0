package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/lotledger/lotledger"
)

func TestHoldingsMarkdown_FlagsDrift(t *testing.T) {
	rows := []HoldingRow{
		{
			Holding: lotledger.Holding{Ticker: "BTC", Account: "main", Quantity: lotledger.Q(2), CostBasis: lotledger.M(20000, "USD")},
			Drift:   lotledger.Q(0),
		},
		{
			Holding: lotledger.Holding{Ticker: "ETH", Account: "main", Quantity: lotledger.Q(5), CostBasis: lotledger.M(10000, "USD")},
			Drift:   lotledger.Q(1),
		},
	}
	md := HoldingsMarkdown(rows)

	if !strings.Contains(md, "| BTC |") || !strings.Contains(md, "| ETH |") {
		t.Errorf("missing tickers in:\n%s", md)
	}
	if !strings.Contains(md, "**1**") {
		t.Errorf("nonzero drift not emphasized in:\n%s", md)
	}
}

func TestLotsMarkdown(t *testing.T) {
	lot := lotledger.NewLot("BTC", "main", lotledger.NewDate(2024, time.January, 1), lotledger.Q(2), lotledger.M(10000, "USD"), lotledger.M(0, "USD"))
	md := LotsMarkdown(lot.Key(), []*lotledger.Lot{lot})

	if !strings.Contains(md, "BTC@main") {
		t.Errorf("missing pool key in:\n%s", md)
	}
	if !strings.Contains(md, "2024-01-01") {
		t.Errorf("missing purchase date in:\n%s", md)
	}
}

func TestImportMarkdown_OmitsZeroWarnings(t *testing.T) {
	report := &lotledger.ImportReport{RowsRead: 3}
	md := ImportMarkdown(report)

	if strings.Contains(md, "Rows Dropped") {
		t.Errorf("zero dropped rows should not be reported:\n%s", md)
	}
	report.InvalidRowsDropped = 2
	if !strings.Contains(ImportMarkdown(report), "Rows Dropped") {
		t.Error("dropped rows missing from the report")
	}
}
