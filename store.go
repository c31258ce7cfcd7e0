package lotledger

import (
	"context"
	"errors"
	"fmt"
)

// Collection names used by the record store.
const (
	CollectionLots     = "lots"
	CollectionSales    = "sales"
	CollectionHoldings = "holdings"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// BulkFailure describes one record that failed inside a bulk write.
type BulkFailure struct {
	ID  string
	Err error
}

// BulkError is returned by bulk writes when some records failed. The
// records not listed were written successfully.
type BulkError struct {
	Failures []BulkFailure
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk write: %d records failed", len(e.Failures))
}

// LotStore is the repository for lots, sale records and holdings.
//
// Queries are scoped to a (ticker, account) pool; the interface never
// asks for a full-collection scan, so a real implementation can index
// by pool key. All writes are full-record rewrites keyed by ID.
type LotStore interface {
	// Lots.
	CreateLot(ctx context.Context, l *Lot) error
	CreateLots(ctx context.Context, lots []*Lot) error
	UpdateLot(ctx context.Context, l *Lot) error
	DeleteLot(ctx context.Context, id string) error
	Lot(ctx context.Context, id string) (*Lot, error)
	LotsFor(ctx context.Context, ticker, account string) ([]*Lot, error)

	// Sale records.
	CreateSale(ctx context.Context, s *SaleRecord) error
	CreateSales(ctx context.Context, sales []*SaleRecord) error
	UpdateSale(ctx context.Context, s *SaleRecord) error
	DeleteSale(ctx context.Context, id string) error
	SalesFor(ctx context.Context, ticker, account string) ([]*SaleRecord, error)

	// Holdings (the cached, reconciler-owned view).
	Holding(ctx context.Context, ticker, account string) (Holding, bool, error)
	PutHolding(ctx context.Context, h Holding) error

	// Keys lists every (ticker, account) pair that has lots, sales or
	// a holding.
	Keys(ctx context.Context) ([]PoolKey, error)
}
