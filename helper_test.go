package lotledger

import "time"

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// NO is a helper for test to create money from const with no currency set
func NO(v float64) Money { return M(v, "") }

func day(y int, m time.Month, d int) Date { return NewDate(y, m, d) }

// testLot mints a USD lot for tests.
func testLot(ticker, account string, on Date, qty, price float64) *Lot {
	return NewLot(ticker, account, on, Q(qty), USD(price), USD(0))
}
