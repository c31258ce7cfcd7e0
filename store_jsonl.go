package lotledger

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// FileStore is a LotStore persisted as one JSONL file per collection
// in a directory. The format stays human readable, diffable, and easy
// to merge into a database later.
//
// The store loads everything into memory on open; Save writes it back.
type FileStore struct {
	*MemoryStore
	dir string
}

// OpenFileStore opens (or initializes) a file store in dir.
func OpenFileStore(dir string) (*FileStore, error) {
	s := &FileStore{MemoryStore: NewMemoryStore(), dir: dir}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the directory backing this store.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".jsonl")
}

func (s *FileStore) load() error {
	ctx := context.Background()
	err := decodeJSONL(s.path(CollectionLots), func(line []byte) error {
		var j jsonLot
		if err := json.Unmarshal(line, &j); err != nil {
			return err
		}
		return s.MemoryStore.CreateLot(ctx, j.lot())
	})
	if err != nil {
		return err
	}
	err = decodeJSONL(s.path(CollectionSales), func(line []byte) error {
		var j jsonSale
		if err := json.Unmarshal(line, &j); err != nil {
			return err
		}
		return s.MemoryStore.CreateSale(ctx, j.sale())
	})
	if err != nil {
		return err
	}
	return decodeJSONL(s.path(CollectionHoldings), func(line []byte) error {
		var j jsonHolding
		if err := json.Unmarshal(line, &j); err != nil {
			return err
		}
		return s.MemoryStore.PutHolding(ctx, j.holding())
	})
}

// Save writes all collections back to disk.
func (s *FileStore) Save() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cannot create store directory: %w", err)
	}
	ctx := context.Background()
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	var lots []any
	var sales []any
	var holdings []any
	for _, k := range keys {
		ls, err := s.LotsFor(ctx, k.Ticker, k.Account)
		if err != nil {
			return err
		}
		for _, l := range ls {
			lots = append(lots, newJSONLot(l))
		}
		ss, err := s.SalesFor(ctx, k.Ticker, k.Account)
		if err != nil {
			return err
		}
		for _, sale := range ss {
			sales = append(sales, newJSONSale(sale))
		}
		if h, ok, err := s.Holding(ctx, k.Ticker, k.Account); err != nil {
			return err
		} else if ok {
			holdings = append(holdings, newJSONHolding(h))
		}
	}
	if err := encodeJSONL(s.path(CollectionLots), lots); err != nil {
		return err
	}
	if err := encodeJSONL(s.path(CollectionSales), sales); err != nil {
		return err
	}
	return encodeJSONL(s.path(CollectionHoldings), holdings)
}

// decodeJSONL reads a JSONL file line by line. A missing file is an
// empty collection, not an error.
func decodeJSONL(path string, each func(line []byte) error) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := each(line); err != nil {
			return fmt.Errorf("cannot parse line in %s: %q: %w", path, string(line), err)
		}
	}
	return scanner.Err()
}

func encodeJSONL(path string, records []any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("cannot marshal record for %s: %w", path, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return w.Flush()
}

// --- JSONL record shapes ---

type jsonLot struct {
	ID                string   `json:"id"`
	Ticker            string   `json:"ticker"`
	Account           string   `json:"account,omitempty"`
	PurchaseDate      Date     `json:"purchase_date"`
	OriginalQuantity  Quantity `json:"original_quantity"`
	RemainingQuantity Quantity `json:"remaining_quantity"`
	UnitPrice         Money    `json:"unit_price"`
	Fees              Money    `json:"fees"`
}

func newJSONLot(l *Lot) jsonLot {
	return jsonLot{
		ID:                l.ID,
		Ticker:            l.Ticker,
		Account:           l.Account,
		PurchaseDate:      l.PurchaseDate,
		OriginalQuantity:  l.OriginalQuantity,
		RemainingQuantity: l.RemainingQuantity,
		UnitPrice:         l.UnitPrice,
		Fees:              l.Fees,
	}
}

func (j jsonLot) lot() *Lot {
	return &Lot{
		ID:                j.ID,
		Ticker:            j.Ticker,
		Account:           j.Account,
		PurchaseDate:      j.PurchaseDate,
		OriginalQuantity:  j.OriginalQuantity,
		RemainingQuantity: j.RemainingQuantity,
		UnitPrice:         j.UnitPrice,
		Fees:              j.Fees,
	}
}

type jsonConsumption struct {
	LotID    string   `json:"lot_id"`
	Quantity Quantity `json:"quantity"`
}

type jsonSale struct {
	ID           string            `json:"id"`
	Ticker       string            `json:"ticker"`
	Account      string            `json:"account,omitempty"`
	SaleDate     Date              `json:"sale_date"`
	Quantity     Quantity          `json:"quantity"`
	UnitPrice    Money             `json:"unit_price"`
	Fees         Money             `json:"fees"`
	Consumptions []jsonConsumption `json:"consumptions,omitempty"`
	CostBasis    Money             `json:"cost_basis"`
	RealizedGain Money             `json:"realized_gain"`
	Period       string            `json:"holding_period"`
	Unmatched    Quantity          `json:"unmatched"`
}

func newJSONSale(s *SaleRecord) jsonSale {
	j := jsonSale{
		ID:           s.ID,
		Ticker:       s.Ticker,
		Account:      s.Account,
		SaleDate:     s.SaleDate,
		Quantity:     s.Quantity,
		UnitPrice:    s.UnitPrice,
		Fees:         s.Fees,
		CostBasis:    s.CostBasis,
		RealizedGain: s.RealizedGain,
		Period:       s.Period.String(),
		Unmatched:    s.Unmatched,
	}
	for _, c := range s.Consumptions {
		j.Consumptions = append(j.Consumptions, jsonConsumption{LotID: c.LotID, Quantity: c.Quantity})
	}
	return j
}

func (j jsonSale) sale() *SaleRecord {
	s := &SaleRecord{
		ID:           j.ID,
		Ticker:       j.Ticker,
		Account:      j.Account,
		SaleDate:     j.SaleDate,
		Quantity:     j.Quantity,
		UnitPrice:    j.UnitPrice,
		Fees:         j.Fees,
		CostBasis:    j.CostBasis,
		RealizedGain: j.RealizedGain,
		Unmatched:    j.Unmatched,
	}
	if j.Period == LongTerm.String() {
		s.Period = LongTerm
	}
	for _, c := range j.Consumptions {
		s.Consumptions = append(s.Consumptions, Consumption{LotID: c.LotID, Quantity: c.Quantity})
	}
	return s
}

type jsonHolding struct {
	Ticker    string   `json:"ticker"`
	Account   string   `json:"account,omitempty"`
	Quantity  Quantity `json:"quantity"`
	CostBasis Money    `json:"cost_basis"`
}

func newJSONHolding(h Holding) jsonHolding {
	return jsonHolding{Ticker: h.Ticker, Account: h.Account, Quantity: h.Quantity, CostBasis: h.CostBasis}
}

func (j jsonHolding) holding() Holding {
	return Holding{Ticker: j.Ticker, Account: j.Account, Quantity: j.Quantity, CostBasis: j.CostBasis}
}
