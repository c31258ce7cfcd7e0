package lotledger

// Holding is the cached summary of a (ticker, account) position. It is
// a materialized view: the source of truth is the sum of remaining
// quantities over the backing lots, and only the Reconciler writes it.
// A stored quantity that disagrees with the lot-derived one is drift,
// an observable condition reported by Reconciler.Drift.
type Holding struct {
	Ticker    string
	Account   string
	Quantity  Quantity
	CostBasis Money
}

// Key returns the (ticker, account) pair this holding summarizes.
func (h Holding) Key() PoolKey { return PoolKey{Ticker: h.Ticker, Account: h.Account} }
