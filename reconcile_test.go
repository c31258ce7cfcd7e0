package lotledger

import (
	"context"
	"testing"
	"time"
)

func TestReconcile_DerivesHoldingFromLots(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := testLot("BTC", "main", day(2023, time.January, 1), 2, 10000)
	b := testLot("BTC", "main", day(2023, time.June, 1), 1, 30000)
	if err := b.Consume(Q(0.5)); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateLots(ctx, []*Lot{a, b}); err != nil {
		t.Fatalf("CreateLots() error = %v", err)
	}

	h, err := NewReconciler(store).Reconcile(ctx, "BTC", "main")
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !h.Quantity.Equal(Q(2.5)) {
		t.Errorf("quantity = %s, want 2.5", h.Quantity)
	}
	// 2x10000 plus the remaining half of the 30000 lot.
	if !h.CostBasis.Equal(USD(35000)) {
		t.Errorf("cost basis = %s, want 35000", h.CostBasis)
	}
}

func TestReconcile_Idempotence(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.CreateLot(ctx, testLot("BTC", "main", day(2023, time.January, 1), 3, 10000)); err != nil {
		t.Fatal(err)
	}
	rec := NewReconciler(store)

	first, err := rec.Reconcile(ctx, "BTC", "main")
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	second, err := rec.Reconcile(ctx, "BTC", "main")
	if err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}
	if !first.Quantity.Equal(second.Quantity) || !first.CostBasis.Equal(second.CostBasis) {
		t.Errorf("reconcile is not idempotent: %+v then %+v", first, second)
	}
}

func TestDrift_ReportsWithoutCorrecting(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.CreateLot(ctx, testLot("BTC", "main", day(2023, time.January, 1), 3, 10000)); err != nil {
		t.Fatal(err)
	}
	// A write that bypassed the lot layer.
	if err := store.PutHolding(ctx, Holding{Ticker: "BTC", Account: "main", Quantity: Q(5), CostBasis: USD(50000)}); err != nil {
		t.Fatal(err)
	}
	rec := NewReconciler(store)

	d, err := rec.Drift(ctx, "BTC", "main")
	if err != nil {
		t.Fatalf("Drift() error = %v", err)
	}
	if !d.Equal(Q(2)) {
		t.Errorf("drift = %s, want 2 (stored 5 - derived 3)", d)
	}

	// Drift is a diagnostic: the stored holding is untouched.
	h, ok, err := store.Holding(ctx, "BTC", "main")
	if err != nil || !ok {
		t.Fatalf("Holding() = %v, %v", ok, err)
	}
	if !h.Quantity.Equal(Q(5)) {
		t.Errorf("Drift() corrected the stored quantity to %s", h.Quantity)
	}

	// An explicit reconcile clears it.
	if _, err := rec.Reconcile(ctx, "BTC", "main"); err != nil {
		t.Fatal(err)
	}
	d, err = rec.Drift(ctx, "BTC", "main")
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsZero() {
		t.Errorf("drift after reconcile = %s, want 0", d)
	}
}

func TestDrift_NoStoredHolding(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.CreateLot(ctx, testLot("BTC", "main", day(2023, time.January, 1), 3, 10000)); err != nil {
		t.Fatal(err)
	}

	d, err := NewReconciler(store).Drift(ctx, "BTC", "main")
	if err != nil {
		t.Fatalf("Drift() error = %v", err)
	}
	if !d.IsZero() {
		t.Errorf("drift = %s, want 0 (no stored value to disagree with)", d)
	}
}

func TestReassignAccount_Cascades(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.CreateLot(ctx, testLot("BTC", "old", day(2023, time.January, 1), 2, 10000)); err != nil {
		t.Fatal(err)
	}
	sale := NewSaleRecord("BTC", "old", day(2024, time.January, 1), Q(1), USD(20000), USD(0))
	if err := store.CreateSale(ctx, sale); err != nil {
		t.Fatal(err)
	}
	rec := NewReconciler(store)
	if _, err := rec.Reconcile(ctx, "BTC", "old"); err != nil {
		t.Fatal(err)
	}

	if err := rec.ReassignAccount(ctx, "BTC", "old", "new"); err != nil {
		t.Fatalf("ReassignAccount() error = %v", err)
	}

	lots, err := store.LotsFor(ctx, "BTC", "new")
	if err != nil || len(lots) != 1 {
		t.Fatalf("lots under new account = %d, %v; want 1", len(lots), err)
	}
	sales, err := store.SalesFor(ctx, "BTC", "new")
	if err != nil || len(sales) != 1 {
		t.Fatalf("sales under new account = %d, %v; want 1", len(sales), err)
	}
	old, err := store.LotsFor(ctx, "BTC", "old")
	if err != nil || len(old) != 0 {
		t.Fatalf("lots left under old account = %d, %v; want 0", len(old), err)
	}

	// Both holdings were reconciled.
	h, ok, err := store.Holding(ctx, "BTC", "new")
	if err != nil || !ok {
		t.Fatalf("Holding(new) = %v, %v", ok, err)
	}
	if !h.Quantity.Equal(Q(2)) {
		t.Errorf("new holding quantity = %s, want 2", h.Quantity)
	}
	h, ok, err = store.Holding(ctx, "BTC", "old")
	if err != nil {
		t.Fatal(err)
	}
	if ok && !h.Quantity.IsZero() {
		t.Errorf("old holding still reports quantity %s", h.Quantity)
	}
}
