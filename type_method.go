package lotledger

import "fmt"

// CostBasisMethod defines the method used to select which lots a sale
// consumes, and therefore the cost basis of the sale.
type CostBasisMethod int

const (
	// AverageCost prices the sale at the weighted mean price across all
	// available lots and consumes every lot pro-rata.
	AverageCost CostBasisMethod = iota
	// FIFO (First-In, First-Out) consumes the oldest lots first.
	FIFO
	// LIFO (Last-In, First-Out) consumes the newest lots first.
	LIFO
	// HIFO (Highest-In, First-Out) consumes the highest-priced lots
	// first. Price ties break by purchase date ascending, then by the
	// order of the candidate list, so results are deterministic.
	HIFO
)

func (m CostBasisMethod) String() string {
	switch m {
	case AverageCost:
		return "average"
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	case HIFO:
		return "hifo"
	default:
		return "unknown"
	}
}

// ParseCostBasisMethod parses a string into a CostBasisMethod.
func ParseCostBasisMethod(s string) (CostBasisMethod, error) {
	switch s {
	case "average", "avg":
		return AverageCost, nil
	case "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	case "hifo":
		return HIFO, nil
	default:
		return 0, fmt.Errorf("unknown cost basis method: %q", s)
	}
}

// Methods lists every supported cost basis method.
func Methods() []CostBasisMethod {
	return []CostBasisMethod{AverageCost, FIFO, LIFO, HIFO}
}
