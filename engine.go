package lotledger

import (
	"context"
	"fmt"
)

// Engine is the interactive "manage lots" surface: single buys, sells,
// and lot edits entered one at a time. It talks to the Lot Store and
// the Reconciler directly; no replay is needed because each mutation
// is already applied in chronological reality.
//
// Bulk loads go through ImportSession instead, which replays the whole
// stream and must end up in the same ledger state as entering the same
// transactions here one by one.
type Engine struct {
	store      LotStore
	method     CostBasisMethod
	reconciler *Reconciler
}

// NewEngine creates an engine over the given store using the given
// cost basis method for sells.
func NewEngine(store LotStore, method CostBasisMethod) *Engine {
	return &Engine{store: store, method: method, reconciler: NewReconciler(store)}
}

// Reconciler exposes the engine's reconciler for diagnostics.
func (e *Engine) Reconciler() *Reconciler { return e.reconciler }

// Method returns the engine's cost basis method.
func (e *Engine) Method() CostBasisMethod { return e.method }

// RecordBuy mints a lot for a purchase and reconciles the holding.
func (e *Engine) RecordBuy(ctx context.Context, raw RawTrade) (*Lot, error) {
	raw.Type = string(TradeBuy)
	tr, err := NormalizeTrade(raw)
	if err != nil {
		return nil, err
	}
	buy := tr.(Buy)
	lot := NewLot(buy.Ticker, buy.Account, buy.Date, buy.Quantity, buy.UnitPrice, buy.Fees)
	if err := e.store.CreateLot(ctx, lot); err != nil {
		return nil, fmt.Errorf("record buy: %w", err)
	}
	if _, err := e.reconciler.Reconcile(ctx, lot.Ticker, lot.Account); err != nil {
		return nil, err
	}
	return lot, nil
}

// RecordSell matches a sale against the (ticker, account) pool under
// the engine's method, persists the consumption and the sale record,
// and reconciles the holding. An insufficient pool is not an error:
// the returned record carries the unmatched remainder for review.
func (e *Engine) RecordSell(ctx context.Context, raw RawTrade) (*SaleRecord, error) {
	raw.Type = string(TradeSell)
	tr, err := NormalizeTrade(raw)
	if err != nil {
		return nil, err
	}
	sell := tr.(Sell)

	pool, err := e.store.LotsFor(ctx, sell.Ticker, sell.Account)
	if err != nil {
		return nil, fmt.Errorf("record sell: %w", err)
	}
	m, err := Match(sell.Quantity, sell.Date, pool, e.method)
	if err != nil {
		return nil, err
	}
	if err := m.Apply(pool); err != nil {
		return nil, err
	}
	for _, c := range m.Consumptions {
		for _, l := range pool {
			if l.ID == c.LotID {
				if err := e.store.UpdateLot(ctx, l); err != nil {
					return nil, fmt.Errorf("record sell: %w", err)
				}
				break
			}
		}
	}

	sale := NewSaleRecord(sell.Ticker, sell.Account, sell.Date, sell.Quantity, sell.UnitPrice, sell.Fees)
	sale.Consumptions = m.Consumptions
	sale.CostBasis = m.CostBasis
	sale.RealizedGain = m.Gain(sell.Quantity, sell.UnitPrice, sell.Fees)
	sale.Period = m.Period
	sale.Unmatched = m.Unmatched
	if err := e.store.CreateSale(ctx, sale); err != nil {
		return nil, fmt.Errorf("record sell: %w", err)
	}
	if _, err := e.reconciler.Reconcile(ctx, sale.Ticker, sale.Account); err != nil {
		return nil, err
	}
	return sale, nil
}

// UpdateLot rewrites a lot in full (manual edit) and reconciles. The
// remaining quantity cannot be raised above the original quantity and
// never goes negative.
func (e *Engine) UpdateLot(ctx context.Context, l *Lot) error {
	if l.RemainingQuantity.IsNegative() || l.OriginalQuantity.LessThan(l.RemainingQuantity) {
		return fmt.Errorf("lot %s: remaining quantity %s out of range [0, %s]",
			l.ID, l.RemainingQuantity, l.OriginalQuantity)
	}
	if err := e.store.UpdateLot(ctx, l); err != nil {
		return err
	}
	_, err := e.reconciler.Reconcile(ctx, l.Ticker, l.Account)
	return err
}

// DeleteLot removes a lot and reconciles its holding.
func (e *Engine) DeleteLot(ctx context.Context, id string) error {
	l, err := e.store.Lot(ctx, id)
	if err != nil {
		return err
	}
	if err := e.store.DeleteLot(ctx, id); err != nil {
		return err
	}
	_, err = e.reconciler.Reconcile(ctx, l.Ticker, l.Account)
	return err
}

// GainsSummary aggregates realized gains over every recorded sale.
type GainsSummary struct {
	Sales          int
	RealizedGains  Money
	RealizedLosses Money
	ShortTermSells int
	LongTermSells  int
	UnmatchedSells int
}

// RealizedGains sums the outcomes of all recorded sales across every
// pool in the store.
func (e *Engine) RealizedGains(ctx context.Context) (GainsSummary, error) {
	var sum GainsSummary
	keys, err := e.store.Keys(ctx)
	if err != nil {
		return sum, err
	}
	for _, k := range keys {
		sales, err := e.store.SalesFor(ctx, k.Ticker, k.Account)
		if err != nil {
			return sum, err
		}
		for _, s := range sales {
			sum.Sales++
			if s.RealizedGain.IsNegative() {
				sum.RealizedLosses = sum.RealizedLosses.Add(s.RealizedGain)
			} else {
				sum.RealizedGains = sum.RealizedGains.Add(s.RealizedGain)
			}
			if s.Period == ShortTerm {
				sum.ShortTermSells++
			} else {
				sum.LongTermSells++
			}
			if s.Unmatched.IsPositive() {
				sum.UnmatchedSells++
			}
		}
	}
	return sum, nil
}
