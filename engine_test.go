package lotledger

import (
	"context"
	"testing"
	"time"
)

func TestEngine_RecordBuyMintsLotAndReconciles(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	engine := NewEngine(store, FIFO)

	lot, err := engine.RecordBuy(ctx, rawBuy("btc", day(2024, time.January, 1), 2, 10000))
	if err != nil {
		t.Fatalf("RecordBuy() error = %v", err)
	}
	if lot.Ticker != "BTC" {
		t.Errorf("ticker = %q, want normalized BTC", lot.Ticker)
	}
	if !lot.RemainingQuantity.Equal(lot.OriginalQuantity) {
		t.Errorf("fresh lot remaining = %s, want %s", lot.RemainingQuantity, lot.OriginalQuantity)
	}

	h, ok, err := store.Holding(ctx, "BTC", "")
	if err != nil || !ok {
		t.Fatalf("Holding() = %v, %v", ok, err)
	}
	if !h.Quantity.Equal(Q(2)) {
		t.Errorf("holding quantity = %s, want 2", h.Quantity)
	}
}

func TestEngine_RecordSellConsumesAndRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	engine := NewEngine(store, FIFO)

	if _, err := engine.RecordBuy(ctx, rawBuy("BTC", day(2022, time.January, 1), 2, 10000)); err != nil {
		t.Fatal(err)
	}
	sale, err := engine.RecordSell(ctx, rawSell("BTC", day(2024, time.January, 1), 1, 30000))
	if err != nil {
		t.Fatalf("RecordSell() error = %v", err)
	}
	if !sale.RealizedGain.Equal(USD(20000)) {
		t.Errorf("gain = %s, want 20000", sale.RealizedGain)
	}
	if sale.Period != LongTerm {
		t.Errorf("period = %s, want long_term", sale.Period)
	}

	lots, err := store.LotsFor(ctx, "BTC", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(lots) != 1 || !lots[0].RemainingQuantity.Equal(Q(1)) {
		t.Errorf("persisted lot remaining = %s, want 1", lots[0].RemainingQuantity)
	}
	h, _, err := store.Holding(ctx, "BTC", "")
	if err != nil {
		t.Fatal(err)
	}
	if !h.Quantity.Equal(Q(1)) {
		t.Errorf("holding quantity = %s, want 1", h.Quantity)
	}
}

func TestEngine_RecordSellInsufficientLots(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(NewMemoryStore(), FIFO)

	sale, err := engine.RecordSell(ctx, rawSell("BTC", day(2024, time.January, 1), 3, 10000))
	if err != nil {
		t.Fatalf("RecordSell() error = %v; an empty pool is a warning, not a failure", err)
	}
	if !sale.Unmatched.Equal(Q(3)) {
		t.Errorf("unmatched = %s, want 3", sale.Unmatched)
	}
	// Zero-basis disposal: the full proceeds are the gain.
	if !sale.RealizedGain.Equal(USD(30000)) {
		t.Errorf("gain = %s, want 30000", sale.RealizedGain)
	}
}

func TestEngine_UpdateLotEnforcesInvariant(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	engine := NewEngine(store, FIFO)

	lot, err := engine.RecordBuy(ctx, rawBuy("BTC", day(2024, time.January, 1), 2, 10000))
	if err != nil {
		t.Fatal(err)
	}

	edit := lot.Clone()
	edit.RemainingQuantity = Q(5)
	if err := engine.UpdateLot(ctx, edit); err == nil {
		t.Error("UpdateLot() accepted remaining above the original quantity")
	}
	edit.RemainingQuantity = Q(-1)
	if err := engine.UpdateLot(ctx, edit); err == nil {
		t.Error("UpdateLot() accepted a negative remaining quantity")
	}
}

func TestEngine_DeleteLotReconciles(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	engine := NewEngine(store, FIFO)

	lot, err := engine.RecordBuy(ctx, rawBuy("BTC", day(2024, time.January, 1), 2, 10000))
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.DeleteLot(ctx, lot.ID); err != nil {
		t.Fatalf("DeleteLot() error = %v", err)
	}
	h, _, err := store.Holding(ctx, "BTC", "")
	if err != nil {
		t.Fatal(err)
	}
	if !h.Quantity.IsZero() {
		t.Errorf("holding quantity = %s after deleting the only lot, want 0", h.Quantity)
	}
}

func TestEngine_RealizedGains(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(NewMemoryStore(), FIFO)

	if _, err := engine.RecordBuy(ctx, rawBuy("BTC", day(2022, time.January, 1), 2, 10000)); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.RecordSell(ctx, rawSell("BTC", day(2024, time.January, 1), 1, 30000)); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.RecordSell(ctx, rawSell("BTC", day(2024, time.February, 1), 1, 5000)); err != nil {
		t.Fatal(err)
	}

	sum, err := engine.RealizedGains(ctx)
	if err != nil {
		t.Fatalf("RealizedGains() error = %v", err)
	}
	if sum.Sales != 2 {
		t.Errorf("sales = %d, want 2", sum.Sales)
	}
	if !sum.RealizedGains.Equal(USD(20000)) {
		t.Errorf("gains = %s, want 20000", sum.RealizedGains)
	}
	if !sum.RealizedLosses.Equal(USD(-5000)) {
		t.Errorf("losses = %s, want -5000", sum.RealizedLosses)
	}
	if sum.LongTermSells != 2 {
		t.Errorf("long term sells = %d, want 2", sum.LongTermSells)
	}
}
