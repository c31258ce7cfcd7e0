package lotledger

import (
	"fmt"
	"sort"
)

// MatchResult describes which lots a sale consumes, the cost basis of
// the consumed units, and the holding-period classification.
//
// Match never mutates the candidate pool; callers apply the
// consumptions with Apply once they decide to go through with the sale.
type MatchResult struct {
	Consumptions []Consumption
	CostBasis    Money
	Period       HoldingPeriod
	// Unmatched is the part of the requested quantity the pool could
	// not cover. It contributes zero cost basis (a zero-cost-basis
	// disposal) and must be surfaced to the user, never swallowed.
	Unmatched Quantity
}

// Match selects lots for a sale of the given quantity on the given
// date, under the given cost basis method.
//
// Candidate lots are those with remaining quantity and a purchase date
// on or before the sale date; lots purchased after the sale are never
// eligible. The pool is left untouched.
func Match(quantity Quantity, on Date, pool []*Lot, method CostBasisMethod) (MatchResult, error) {
	if !quantity.IsPositive() {
		return MatchResult{}, fmt.Errorf("sale quantity must be positive, got %s", quantity)
	}

	candidates := make([]*Lot, 0, len(pool))
	for _, l := range pool {
		if l.RemainingQuantity.IsPositive() && !l.PurchaseDate.After(on) {
			candidates = append(candidates, l)
		}
	}

	if method == AverageCost {
		return matchAverage(quantity, on, candidates)
	}

	switch method {
	case FIFO:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].PurchaseDate.Before(candidates[j].PurchaseDate)
		})
	case LIFO:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].PurchaseDate.After(candidates[j].PurchaseDate)
		})
	case HIFO:
		sort.SliceStable(candidates, func(i, j int) bool {
			pi, pj := candidates[i].UnitPrice, candidates[j].UnitPrice
			if !pi.Equal(pj) {
				return pi.GreaterThan(pj)
			}
			// Documented tie-break: purchase date ascending, then the
			// candidate list order (stable sort keeps it).
			return candidates[i].PurchaseDate.Before(candidates[j].PurchaseDate)
		})
	default:
		return MatchResult{}, fmt.Errorf("unsupported cost basis method: %v", method)
	}

	var result MatchResult
	remaining := quantity
	long := true
	for _, l := range candidates {
		if remaining.IsZero() {
			break
		}
		take := remaining.Min(l.RemainingQuantity)
		result.Consumptions = append(result.Consumptions, Consumption{LotID: l.ID, Quantity: take})
		result.CostBasis = result.CostBasis.Add(l.UnitPrice.Mul(take))
		if heldShort(l.PurchaseDate, on) {
			long = false
		}
		remaining = remaining.Sub(take)
	}
	result.Unmatched = remaining
	result.Period = classify(long, result.Consumptions)
	return result, nil
}

// matchAverage prices the sale at the weighted mean price over all
// candidates and consumes every candidate pro-rata, so the per-lot
// average price is unchanged after the sale.
func matchAverage(quantity Quantity, on Date, candidates []*Lot) (MatchResult, error) {
	var total Quantity
	var totalValue Money
	for _, l := range candidates {
		total = total.Add(l.RemainingQuantity)
		totalValue = totalValue.Add(l.UnitPrice.Mul(l.RemainingQuantity))
	}

	var result MatchResult
	if total.IsZero() {
		result.Unmatched = quantity
		result.Period = classify(true, nil)
		return result, nil
	}

	matched := quantity.Min(total)
	avgPrice := totalValue.Div(total)
	result.CostBasis = avgPrice.Mul(matched)
	result.Unmatched = quantity.Sub(matched)

	// Pro-rata consumption. The last candidate takes the exact
	// remainder so the consumed quantities always sum to 'matched'
	// despite division rounding.
	long := true
	consumed := Q(0)
	for i, l := range candidates {
		var take Quantity
		if i == len(candidates)-1 {
			take = matched.Sub(consumed)
		} else {
			take = matched.Mul(l.RemainingQuantity).Div(total)
		}
		take = take.Min(l.RemainingQuantity)
		if !take.IsPositive() {
			continue
		}
		result.Consumptions = append(result.Consumptions, Consumption{LotID: l.ID, Quantity: take})
		if heldShort(l.PurchaseDate, on) {
			long = false
		}
		consumed = consumed.Add(take)
	}
	result.Period = classify(long, result.Consumptions)
	return result, nil
}

// Apply decrements the matched lots' remaining quantities in the pool.
func (r MatchResult) Apply(pool []*Lot) error {
	byID := make(map[string]*Lot, len(pool))
	for _, l := range pool {
		byID[l.ID] = l
	}
	for _, c := range r.Consumptions {
		l, ok := byID[c.LotID]
		if !ok {
			return fmt.Errorf("consumption references unknown lot %s", c.LotID)
		}
		if err := l.Consume(c.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Gain computes the realized gain or loss of a sale priced by this
// result: proceeds (quantity x price - fees) minus the cost basis
// consumed.
func (r MatchResult) Gain(quantity Quantity, unitPrice, fees Money) Money {
	proceeds := unitPrice.Mul(quantity).Sub(fees)
	return proceeds.Sub(r.CostBasis)
}

// heldShort reports whether a unit bought on 'purchase' and sold on
// 'sale' counts as short term.
func heldShort(purchase, sale Date) bool {
	return purchase.DaysUntil(sale) <= longTermDays
}

// classify turns the per-lot taint flag into a holding period. A sale
// that consumed nothing (pure zero-cost-basis disposal) defaults to
// short term, the conservative classification.
func classify(long bool, consumptions []Consumption) HoldingPeriod {
	if long && len(consumptions) > 0 {
		return LongTerm
	}
	return ShortTerm
}
