package lotledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is a mutex-guarded in-memory LotStore. It serializes all
// mutations, so two clients cannot consume the same lot concurrently.
// Records are copied on the way in and out; callers never share memory
// with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	lots     map[string]*Lot
	sales    map[string]*SaleRecord
	holdings map[PoolKey]Holding
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lots:     make(map[string]*Lot),
		sales:    make(map[string]*SaleRecord),
		holdings: make(map[PoolKey]Holding),
	}
}

var _ LotStore = (*MemoryStore)(nil)

func (s *MemoryStore) CreateLot(_ context.Context, l *Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lots[l.ID]; ok {
		return fmt.Errorf("lot %s already exists", l.ID)
	}
	s.lots[l.ID] = l.Clone()
	return nil
}

func (s *MemoryStore) CreateLots(ctx context.Context, lots []*Lot) error {
	var failures []BulkFailure
	for _, l := range lots {
		if err := s.CreateLot(ctx, l); err != nil {
			failures = append(failures, BulkFailure{ID: l.ID, Err: err})
		}
	}
	if len(failures) > 0 {
		return &BulkError{Failures: failures}
	}
	return nil
}

func (s *MemoryStore) UpdateLot(_ context.Context, l *Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lots[l.ID]; !ok {
		return fmt.Errorf("update lot %s: %w", l.ID, ErrNotFound)
	}
	s.lots[l.ID] = l.Clone()
	return nil
}

func (s *MemoryStore) DeleteLot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lots[id]; !ok {
		return fmt.Errorf("delete lot %s: %w", id, ErrNotFound)
	}
	delete(s.lots, id)
	return nil
}

func (s *MemoryStore) Lot(_ context.Context, id string) (*Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lots[id]
	if !ok {
		return nil, fmt.Errorf("lot %s: %w", id, ErrNotFound)
	}
	return l.Clone(), nil
}

func (s *MemoryStore) LotsFor(_ context.Context, ticker, account string) ([]*Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Lot
	for _, l := range s.lots {
		if l.Ticker == ticker && l.Account == account {
			out = append(out, l.Clone())
		}
	}
	// Stable order: purchase date, then ID.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchaseDate.Before(out[j].PurchaseDate) && !out[j].PurchaseDate.Before(out[i].PurchaseDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].PurchaseDate.Before(out[j].PurchaseDate)
	})
	return out, nil
}

func (s *MemoryStore) CreateSale(_ context.Context, sale *SaleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sales[sale.ID]; ok {
		return fmt.Errorf("sale %s already exists", sale.ID)
	}
	s.sales[sale.ID] = sale.Clone()
	return nil
}

func (s *MemoryStore) CreateSales(ctx context.Context, sales []*SaleRecord) error {
	var failures []BulkFailure
	for _, sale := range sales {
		if err := s.CreateSale(ctx, sale); err != nil {
			failures = append(failures, BulkFailure{ID: sale.ID, Err: err})
		}
	}
	if len(failures) > 0 {
		return &BulkError{Failures: failures}
	}
	return nil
}

func (s *MemoryStore) UpdateSale(_ context.Context, sale *SaleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sales[sale.ID]; !ok {
		return fmt.Errorf("update sale %s: %w", sale.ID, ErrNotFound)
	}
	s.sales[sale.ID] = sale.Clone()
	return nil
}

func (s *MemoryStore) DeleteSale(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sales[id]; !ok {
		return fmt.Errorf("delete sale %s: %w", id, ErrNotFound)
	}
	delete(s.sales, id)
	return nil
}

func (s *MemoryStore) SalesFor(_ context.Context, ticker, account string) ([]*SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*SaleRecord
	for _, sale := range s.sales {
		if sale.Ticker == ticker && sale.Account == account {
			out = append(out, sale.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SaleDate.Before(out[j].SaleDate) && !out[j].SaleDate.Before(out[i].SaleDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].SaleDate.Before(out[j].SaleDate)
	})
	return out, nil
}

func (s *MemoryStore) Holding(_ context.Context, ticker, account string) (Holding, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.holdings[PoolKey{Ticker: ticker, Account: account}]
	return h, ok, nil
}

func (s *MemoryStore) PutHolding(_ context.Context, h Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings[h.Key()] = h
	return nil
}

func (s *MemoryStore) Keys(_ context.Context) ([]PoolKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[PoolKey]struct{})
	for _, l := range s.lots {
		seen[l.Key()] = struct{}{}
	}
	for _, sale := range s.sales {
		seen[sale.Key()] = struct{}{}
	}
	for k := range s.holdings {
		seen[k] = struct{}{}
	}
	keys := make([]PoolKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Ticker != keys[j].Ticker {
			return keys[i].Ticker < keys[j].Ticker
		}
		return keys[i].Account < keys[j].Account
	})
	return keys, nil
}
