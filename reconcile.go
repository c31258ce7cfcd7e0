package lotledger

import (
	"context"
	"fmt"
)

// Reconciler derives the authoritative quantity and cost basis of a
// holding from the lots that back it. The cached Holding record is a
// materialized view: only Reconcile writes it, and only Reconcile is
// allowed to correct drift.
type Reconciler struct {
	store LotStore
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(store LotStore) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile recomputes the holding for (ticker, account) from its lots
// and overwrites any independently stored value.
//
// Quantity is the sum of remaining quantities; cost basis is the
// pro-rata share of each lot's cost basis backing its unsold quantity.
func (r *Reconciler) Reconcile(ctx context.Context, ticker, account string) (Holding, error) {
	h, err := r.derive(ctx, ticker, account)
	if err != nil {
		return Holding{}, err
	}
	if err := r.store.PutHolding(ctx, h); err != nil {
		return Holding{}, fmt.Errorf("reconcile %s: %w", h.Key(), err)
	}
	return h, nil
}

// ReconcileAll reconciles every (ticker, account) pair in the store.
func (r *Reconciler) ReconcileAll(ctx context.Context) ([]Holding, error) {
	keys, err := r.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	holdings := make([]Holding, 0, len(keys))
	for _, k := range keys {
		h, err := r.Reconcile(ctx, k.Ticker, k.Account)
		if err != nil {
			return holdings, err
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

// Drift returns the stored holding quantity minus the lot-derived one.
// Nonzero drift means some code path wrote the holding without going
// through the lot layer. It is a reportable data-integrity condition;
// this method never corrects it. A pool that was never reconciled has
// no stored value to disagree with and reports zero drift.
func (r *Reconciler) Drift(ctx context.Context, ticker, account string) (Quantity, error) {
	stored, ok, err := r.store.Holding(ctx, ticker, account)
	if err != nil {
		return Quantity{}, err
	}
	if !ok {
		return Quantity{}, nil
	}
	derived, err := r.derive(ctx, ticker, account)
	if err != nil {
		return Quantity{}, err
	}
	return stored.Quantity.Sub(derived.Quantity), nil
}

// ReassignAccount moves a holding to another account and cascades the
// account change to every backing lot and sale record, keeping the
// (ticker, account) pool invariant intact. Both the old and the new
// key are reconciled afterwards.
func (r *Reconciler) ReassignAccount(ctx context.Context, ticker, from, to string) error {
	if from == to {
		return fmt.Errorf("reassign %s: source and target account are both %q", ticker, from)
	}
	lots, err := r.store.LotsFor(ctx, ticker, from)
	if err != nil {
		return err
	}
	for _, l := range lots {
		l.Account = to
		if err := r.store.UpdateLot(ctx, l); err != nil {
			return fmt.Errorf("reassign %s lot %s: %w", ticker, l.ID, err)
		}
	}
	sales, err := r.store.SalesFor(ctx, ticker, from)
	if err != nil {
		return err
	}
	for _, s := range sales {
		s.Account = to
		if err := r.store.UpdateSale(ctx, s); err != nil {
			return fmt.Errorf("reassign %s sale %s: %w", ticker, s.ID, err)
		}
	}
	if _, err := r.Reconcile(ctx, ticker, from); err != nil {
		return err
	}
	_, err = r.Reconcile(ctx, ticker, to)
	return err
}

func (r *Reconciler) derive(ctx context.Context, ticker, account string) (Holding, error) {
	lots, err := r.store.LotsFor(ctx, ticker, account)
	if err != nil {
		return Holding{}, fmt.Errorf("reconcile %s: %w", PoolKey{Ticker: ticker, Account: account}, err)
	}
	h := Holding{Ticker: ticker, Account: account}
	for _, l := range lots {
		h.Quantity = h.Quantity.Add(l.RemainingQuantity)
		h.CostBasis = h.CostBasis.Add(l.RemainingCostBasis())
	}
	return h, nil
}
