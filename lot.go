package lotledger

import (
	"fmt"

	"github.com/google/uuid"
)

// Lot is a single purchase of an asset, tracked separately for cost
// basis purposes. A lot belongs to exactly one (ticker, account) pool;
// an empty account is a degraded, unscoped state that the reconciler
// reports but never fixes silently.
type Lot struct {
	ID                string
	Ticker            string
	Account           string
	PurchaseDate      Date
	OriginalQuantity  Quantity
	RemainingQuantity Quantity
	UnitPrice         Money
	Fees              Money
}

// NewLot mints a lot with a fresh identifier and its full quantity
// remaining.
func NewLot(ticker, account string, on Date, quantity Quantity, unitPrice, fees Money) *Lot {
	return &Lot{
		ID:                uuid.NewString(),
		Ticker:            ticker,
		Account:           account,
		PurchaseDate:      on,
		OriginalQuantity:  quantity,
		RemainingQuantity: quantity,
		UnitPrice:         unitPrice,
		Fees:              fees,
	}
}

// CostBasis returns the acquisition cost of the whole lot:
// original quantity times unit price, plus fees.
func (l *Lot) CostBasis() Money {
	return l.UnitPrice.Mul(l.OriginalQuantity).Add(l.Fees)
}

// RemainingCostBasis returns the share of the lot's cost basis backing
// its unsold quantity.
func (l *Lot) RemainingCostBasis() Money {
	if l.OriginalQuantity.IsZero() {
		return M(0, l.UnitPrice.Currency())
	}
	return l.CostBasis().Mul(l.RemainingQuantity).Div(l.OriginalQuantity)
}

// Consume decrements the remaining quantity by q. The remaining
// quantity only ever decreases; it can never go negative or exceed the
// original quantity.
func (l *Lot) Consume(q Quantity) error {
	if q.IsNegative() {
		return fmt.Errorf("lot %s: cannot consume negative quantity %s", l.ID, q)
	}
	if l.RemainingQuantity.LessThan(q) {
		return fmt.Errorf("lot %s: cannot consume %s, only %s remaining", l.ID, q, l.RemainingQuantity)
	}
	l.RemainingQuantity = l.RemainingQuantity.Sub(q)
	return nil
}

// Clone returns an independent copy of the lot.
func (l *Lot) Clone() *Lot {
	c := *l
	return &c
}

// PoolKey identifies a lot pool. Lots for the same ticker in different
// accounts are never matched against each other.
type PoolKey struct {
	Ticker  string
	Account string
}

// Key returns the pool this lot belongs to.
func (l *Lot) Key() PoolKey { return PoolKey{Ticker: l.Ticker, Account: l.Account} }

func (k PoolKey) String() string {
	if k.Account == "" {
		return k.Ticker
	}
	return k.Ticker + "@" + k.Account
}

// Consumption records how much of one lot a sale drew from.
type Consumption struct {
	LotID    string
	Quantity Quantity
}
