package lotledger

import "github.com/google/uuid"

// longTermDays is the holding period threshold: a consumed unit held
// for more than this many days counts as long term.
const longTermDays = 365

// HoldingPeriod classifies a sale for tax purposes.
type HoldingPeriod int

const (
	// ShortTerm applies when any consumed portion was held 365 days or
	// fewer. One tainting unit classifies the whole sale; this is a
	// deliberate simplification, not strict per-unit tax law.
	ShortTerm HoldingPeriod = iota
	// LongTerm applies when every consumed portion was held more than
	// 365 days.
	LongTerm
)

func (p HoldingPeriod) String() string {
	if p == LongTerm {
		return "long_term"
	}
	return "short_term"
}

// SaleRecord is a sell transaction together with the lots it consumed
// and the resulting realized gain or loss.
type SaleRecord struct {
	ID           string
	Ticker       string
	Account      string
	SaleDate     Date
	Quantity     Quantity
	UnitPrice    Money
	Fees         Money
	Consumptions []Consumption
	CostBasis    Money
	RealizedGain Money
	Period       HoldingPeriod
	// Unmatched is the portion of the sale the lot pool could not
	// cover. It contributed zero cost basis and needs user review.
	Unmatched Quantity
}

// NewSaleRecord mints a sale record with a fresh identifier.
func NewSaleRecord(ticker, account string, on Date, quantity Quantity, unitPrice, fees Money) *SaleRecord {
	return &SaleRecord{
		ID:        uuid.NewString(),
		Ticker:    ticker,
		Account:   account,
		SaleDate:  on,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Fees:      fees,
	}
}

// Proceeds returns quantity times sale price, less fees.
func (s *SaleRecord) Proceeds() Money {
	return s.UnitPrice.Mul(s.Quantity).Sub(s.Fees)
}

// ConsumedQuantity sums the quantity drawn from all referenced lots.
// It equals s.Quantity unless the pool was insufficient, in which case
// the difference is s.Unmatched.
func (s *SaleRecord) ConsumedQuantity() Quantity {
	var total Quantity
	for _, c := range s.Consumptions {
		total = total.Add(c.Quantity)
	}
	return total
}

// Key returns the pool this sale drew from.
func (s *SaleRecord) Key() PoolKey { return PoolKey{Ticker: s.Ticker, Account: s.Account} }

// Clone returns an independent copy of the sale record.
func (s *SaleRecord) Clone() *SaleRecord {
	c := *s
	c.Consumptions = append([]Consumption(nil), s.Consumptions...)
	return &c
}
