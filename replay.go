package lotledger

import (
	"context"
	"fmt"
	"sort"
)

// PricedTrade is a trade annotated with the values the replay computed
// for it: the minted lot for a buy, or the consumptions, cost basis,
// realized gain and holding period for a sell.
type PricedTrade struct {
	Trade
	// LotID is set for buys: the identifier of the minted lot.
	LotID string
	// The remaining fields are set for sells.
	Consumptions []Consumption
	CostBasis    Money
	RealizedGain Money
	Period       HoldingPeriod
	Unmatched    Quantity
}

// ReplayStats aggregates what a replay did.
type ReplayStats struct {
	Buys           int
	Sells          int
	RealizedGains  Money // sum of positive outcomes
	RealizedLosses Money // sum of negative outcomes, as a negative value
	ShortTermSells int
	LongTermSells  int
	UnmatchedSells int // sells the pool could not fully cover
}

// ReplayResult is the outcome of replaying a trade stream.
type ReplayResult struct {
	// Trades are the input trades, chronologically sorted, each
	// annotated with the computed pricing.
	Trades []PricedTrade
	// Lots is the final lot pool: seeded lots with their consumption
	// applied, plus the lots minted by buys.
	Lots []*Lot
	// Sales are the sale records produced for every sell.
	Sales []*SaleRecord
	Stats ReplayStats
}

// Replay builds the lot pool incrementally from a chronological stream
// of trades and matches every sell against it.
//
// Seed lots enter the pool with their remaining quantity reset to the
// original quantity: replay starts from acquisitions and applies only
// the sells present in the input stream, it does not re-apply
// previously recorded historical sells.
//
// The combined stream is sorted chronologically (stable) before
// processing, so a sell can never consume a lot that did not yet exist.
func Replay(trades []Trade, seed []*Lot, method CostBasisMethod) (*ReplayResult, error) {
	return ReplayContext(context.Background(), trades, seed, method)
}

// ReplayContext is Replay with cancellation at trade granularity.
// When the context is cancelled the partial result processed so far is
// returned along with the context error; every processed trade left
// the pool consistent.
func ReplayContext(ctx context.Context, trades []Trade, seed []*Lot, method CostBasisMethod) (*ReplayResult, error) {
	result := &ReplayResult{
		Lots: make([]*Lot, 0, len(seed)+len(trades)),
	}
	for _, l := range seed {
		c := l.Clone()
		c.RemainingQuantity = c.OriginalQuantity
		result.Lots = append(result.Lots, c)
	}

	ordered := append([]Trade(nil), trades...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].When().Before(ordered[j].When())
	})

	pools := make(map[PoolKey][]*Lot)
	for _, l := range result.Lots {
		pools[l.Key()] = append(pools[l.Key()], l)
	}

	for _, tr := range ordered {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		switch v := tr.(type) {
		case Buy:
			lot := NewLot(v.Ticker, v.Account, v.Date, v.Quantity, v.UnitPrice, v.Fees)
			result.Lots = append(result.Lots, lot)
			pools[lot.Key()] = append(pools[lot.Key()], lot)
			result.Trades = append(result.Trades, PricedTrade{Trade: v, LotID: lot.ID})
			result.Stats.Buys++
		case Sell:
			pool := pools[v.Key()]
			m, err := Match(v.Quantity, v.Date, pool, method)
			if err != nil {
				return result, fmt.Errorf("sell %s on %s: %w", v.Ticker, v.Date, err)
			}
			if err := m.Apply(pool); err != nil {
				return result, fmt.Errorf("sell %s on %s: %w", v.Ticker, v.Date, err)
			}
			gain := m.Gain(v.Quantity, v.UnitPrice, v.Fees)

			sale := NewSaleRecord(v.Ticker, v.Account, v.Date, v.Quantity, v.UnitPrice, v.Fees)
			sale.Consumptions = m.Consumptions
			sale.CostBasis = m.CostBasis
			sale.RealizedGain = gain
			sale.Period = m.Period
			sale.Unmatched = m.Unmatched
			result.Sales = append(result.Sales, sale)

			result.Trades = append(result.Trades, PricedTrade{
				Trade:        v,
				Consumptions: m.Consumptions,
				CostBasis:    m.CostBasis,
				RealizedGain: gain,
				Period:       m.Period,
				Unmatched:    m.Unmatched,
			})

			result.Stats.Sells++
			if gain.IsNegative() {
				result.Stats.RealizedLosses = result.Stats.RealizedLosses.Add(gain)
			} else {
				result.Stats.RealizedGains = result.Stats.RealizedGains.Add(gain)
			}
			if m.Period == ShortTerm {
				result.Stats.ShortTermSells++
			} else {
				result.Stats.LongTermSells++
			}
			if m.Unmatched.IsPositive() {
				result.Stats.UnmatchedSells++
			}
		default:
			return result, fmt.Errorf("unsupported trade type %T", tr)
		}
	}
	return result, nil
}
