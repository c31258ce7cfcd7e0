package lotledger

import (
	"testing"
	"time"
)

func TestMatch_FIFOConsumesOldestLot(t *testing.T) {
	pool := []*Lot{
		testLot("BTC", "", day(2023, time.January, 1), 1, 10000),
		testLot("BTC", "", day(2023, time.June, 1), 1, 30000),
	}

	m, err := Match(Q(1), day(2024, time.January, 1), pool, FIFO)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(m.Consumptions) != 1 {
		t.Fatalf("expected 1 consumption, got %d", len(m.Consumptions))
	}
	if m.Consumptions[0].LotID != pool[0].ID {
		t.Errorf("FIFO consumed lot %s, want the 2023-01-01 lot", m.Consumptions[0].LotID)
	}
	if !m.CostBasis.Equal(USD(10000)) {
		t.Errorf("cost basis = %s, want 10000", m.CostBasis)
	}
}

func TestMatch_LIFOConsumesNewestLot(t *testing.T) {
	pool := []*Lot{
		testLot("BTC", "", day(2023, time.January, 1), 1, 10000),
		testLot("BTC", "", day(2023, time.June, 1), 1, 30000),
	}

	m, err := Match(Q(1), day(2024, time.January, 1), pool, LIFO)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if m.Consumptions[0].LotID != pool[1].ID {
		t.Errorf("LIFO consumed lot %s, want the 2023-06-01 lot", m.Consumptions[0].LotID)
	}
	if !m.CostBasis.Equal(USD(30000)) {
		t.Errorf("cost basis = %s, want 30000", m.CostBasis)
	}
}

func TestMatch_HIFOConsumesPriciestLot(t *testing.T) {
	pool := []*Lot{
		testLot("BTC", "", day(2023, time.January, 1), 1, 10000),
		testLot("BTC", "", day(2023, time.June, 1), 1, 30000),
	}

	m, err := Match(Q(1), day(2024, time.January, 1), pool, HIFO)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if m.Consumptions[0].LotID != pool[1].ID {
		t.Errorf("HIFO consumed lot %s, want the 30000 lot", m.Consumptions[0].LotID)
	}
	if !m.CostBasis.Equal(USD(30000)) {
		t.Errorf("cost basis = %s, want 30000", m.CostBasis)
	}
}

func TestMatch_HIFOPriceTieIsDeterministic(t *testing.T) {
	// Same price everywhere: the documented tie-break is purchase date
	// ascending, then candidate list order.
	pool := []*Lot{
		testLot("BTC", "", day(2023, time.March, 1), 1, 10000),
		testLot("BTC", "", day(2023, time.January, 1), 1, 10000),
		testLot("BTC", "", day(2023, time.January, 1), 1, 10000),
	}

	for run := 0; run < 5; run++ {
		m, err := Match(Q(2), day(2024, time.January, 1), pool, HIFO)
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if len(m.Consumptions) != 2 {
			t.Fatalf("expected 2 consumptions, got %d", len(m.Consumptions))
		}
		if m.Consumptions[0].LotID != pool[1].ID || m.Consumptions[1].LotID != pool[2].ID {
			t.Errorf("run %d: tie-break picked %s then %s, want pool[1] then pool[2]",
				run, m.Consumptions[0].LotID, m.Consumptions[1].LotID)
		}
	}
}

func TestMatch_AverageCostProportionality(t *testing.T) {
	a := testLot("BTC", "", day(2023, time.January, 1), 2, 10000)
	b := testLot("BTC", "", day(2023, time.June, 1), 2, 20000)
	pool := []*Lot{a, b}

	m, err := Match(Q(1), day(2024, time.January, 1), pool, AverageCost)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	// Weighted average price is (2x10000 + 2x20000) / 4 = 15000.
	if !m.CostBasis.Equal(USD(15000)) {
		t.Errorf("cost basis = %s, want 15000", m.CostBasis)
	}
	if err := m.Apply(pool); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	// Each lot gives up a quarter of its units (the sale is 1/4 of the
	// 4-unit pool), half a unit each, not a whole unit from either lot.
	if !a.RemainingQuantity.Equal(Q(1.5)) {
		t.Errorf("lot a remaining = %s, want 1.5", a.RemainingQuantity)
	}
	if !b.RemainingQuantity.Equal(Q(1.5)) {
		t.Errorf("lot b remaining = %s, want 1.5", b.RemainingQuantity)
	}
}

func TestMatch_AverageCostConsumptionsSumExactly(t *testing.T) {
	// Thirds do not divide evenly in decimal; the consumed quantities
	// must still sum to the sale quantity exactly.
	pool := []*Lot{
		testLot("BTC", "", day(2023, time.January, 1), 1, 10000),
		testLot("BTC", "", day(2023, time.February, 1), 1, 10000),
		testLot("BTC", "", day(2023, time.March, 1), 1, 10000),
	}

	m, err := Match(Q(1), day(2024, time.January, 1), pool, AverageCost)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	var sum Quantity
	for _, c := range m.Consumptions {
		sum = sum.Add(c.Quantity)
	}
	if !sum.Equal(Q(1)) {
		t.Errorf("consumptions sum to %s, want exactly 1", sum)
	}
}

func TestMatch_HoldingPeriodTaint(t *testing.T) {
	on := day(2024, time.June, 1)
	old := testLot("BTC", "", on.Add(-400), 1, 10000)
	recent := testLot("BTC", "", on.Add(-10), 1, 20000)

	m, err := Match(Q(2), on, []*Lot{old, recent}, FIFO)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if m.Period != ShortTerm {
		t.Errorf("period = %s, want short_term: any recent unit taints the whole sale", m.Period)
	}

	// The old lot alone is long term.
	m, err = Match(Q(1), on, []*Lot{old.Clone(), recent.Clone()}, FIFO)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if m.Period != LongTerm {
		t.Errorf("period = %s, want long_term", m.Period)
	}
}

func TestMatch_InsufficientLotsLeavesUnmatchedRemainder(t *testing.T) {
	pool := []*Lot{testLot("BTC", "", day(2023, time.January, 1), 1, 10000)}

	m, err := Match(Q(3), day(2024, time.January, 1), pool, FIFO)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if !m.Unmatched.Equal(Q(2)) {
		t.Errorf("unmatched = %s, want 2", m.Unmatched)
	}
	// The remainder contributes zero cost basis.
	if !m.CostBasis.Equal(USD(10000)) {
		t.Errorf("cost basis = %s, want 10000", m.CostBasis)
	}
	gain := m.Gain(Q(3), USD(5000), USD(0))
	if !gain.Equal(USD(5000)) {
		t.Errorf("gain = %s, want 5000 (15000 proceeds - 10000 basis)", gain)
	}
}

func TestMatch_NoBackdatedLots(t *testing.T) {
	// A lot purchased after the sale date is never eligible.
	pool := []*Lot{
		testLot("BTC", "", day(2024, time.June, 1), 5, 10000),
	}

	m, err := Match(Q(1), day(2024, time.January, 1), pool, FIFO)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(m.Consumptions) != 0 {
		t.Errorf("consumed %d lots purchased after the sale date", len(m.Consumptions))
	}
	if !m.Unmatched.Equal(Q(1)) {
		t.Errorf("unmatched = %s, want 1", m.Unmatched)
	}
	if m.Period != ShortTerm {
		t.Errorf("pure zero-basis disposal classified %s, want short_term", m.Period)
	}
}

func TestMatch_NonNegativityAndConservation(t *testing.T) {
	for _, method := range Methods() {
		a := testLot("BTC", "", day(2023, time.January, 1), 2, 10000)
		b := testLot("BTC", "", day(2023, time.June, 1), 3, 20000)
		pool := []*Lot{a, b}

		m, err := Match(Q(4), day(2024, time.January, 1), pool, method)
		if err != nil {
			t.Fatalf("%s: Match() error = %v", method, err)
		}
		if err := m.Apply(pool); err != nil {
			t.Fatalf("%s: Apply() error = %v", method, err)
		}
		var consumed Quantity
		for _, c := range m.Consumptions {
			consumed = consumed.Add(c.Quantity)
		}
		for _, l := range pool {
			if l.RemainingQuantity.IsNegative() {
				t.Errorf("%s: lot %s remaining went negative: %s", method, l.ID, l.RemainingQuantity)
			}
		}
		total := a.OriginalQuantity.Sub(a.RemainingQuantity).Add(b.OriginalQuantity.Sub(b.RemainingQuantity))
		if !total.Equal(consumed) {
			t.Errorf("%s: pool lost %s units but consumptions say %s", method, total, consumed)
		}
	}
}

func TestMatch_PoolNotMutated(t *testing.T) {
	a := testLot("BTC", "", day(2023, time.January, 1), 2, 10000)

	if _, err := Match(Q(1), day(2024, time.January, 1), []*Lot{a}, FIFO); err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if !a.RemainingQuantity.Equal(Q(2)) {
		t.Errorf("Match mutated the pool: remaining = %s, want 2", a.RemainingQuantity)
	}
}

func TestMatch_RejectsNonPositiveQuantity(t *testing.T) {
	if _, err := Match(Q(0), day(2024, time.January, 1), nil, FIFO); err == nil {
		t.Error("Match() accepted a zero sale quantity")
	}
}
