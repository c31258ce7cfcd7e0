package lotledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ImportState tracks where an import session is in its lifecycle. The
// progression is linear; the only backward transition is an explicit
// Back call, and a committed session is final.
type ImportState int

const (
	Uploaded ImportState = iota
	Mapped
	Previewed
	Committed
)

func (s ImportState) String() string {
	switch s {
	case Uploaded:
		return "uploaded"
	case Mapped:
		return "mapped"
	case Previewed:
		return "previewed"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("ImportState(%d)", int(s))
	}
}

var (
	// ErrEmptyFile is returned when the uploaded data has no header row.
	ErrEmptyFile = errors.New("import: file is empty")
	// ErrUnmappedFields is returned when commit or preview is attempted
	// before every required field is mapped to a source column.
	ErrUnmappedFields = errors.New("import: required fields are not mapped")
	// ErrCommitted is returned for any mutation on a committed session.
	ErrCommitted = errors.New("import: session is already committed")
)

// FieldMapping binds the logical transaction fields to source column
// names. Type, Ticker, Quantity, Price and Date are required; the rest
// are optional and left blank when unmapped.
type FieldMapping struct {
	Type     string
	Ticker   string
	Quantity string
	Price    string
	Date     string

	Fee        string
	Account    string
	Notes      string
	ExternalID string
}

func (m FieldMapping) missing() []string {
	var miss []string
	for _, f := range []struct{ name, col string }{
		{"type", m.Type},
		{"ticker", m.Ticker},
		{"quantity", m.Quantity},
		{"price", m.Price},
		{"date", m.Date},
	} {
		if strings.TrimSpace(f.col) == "" {
			miss = append(miss, f.name)
		}
	}
	return miss
}

// PreviewRow is one normalized row of a preview. Err is set when the
// row would be dropped at commit.
type PreviewRow struct {
	Line  int
	Trade Trade
	Err   error
}

// ImportReport summarizes a committed import.
type ImportReport struct {
	RowsRead int
	// InvalidRowsDropped counts rows excluded before replay: blank
	// ticker, unparseable numerics or dates, or non-positive quantity
	// or price.
	InvalidRowsDropped int
	// PersistenceFailures counts priced records the store refused even
	// after the row-by-row fallback.
	PersistenceFailures int
	Stats               ReplayStats
	Result              *ReplayResult
}

// ImportSession drives a bulk CSV load through its states: Upload the
// raw text, map its columns, preview the normalization, then commit.
// A session is single-use and not safe for concurrent access.
type ImportSession struct {
	id       string
	store    LotStore
	method   CostBasisMethod
	currency string
	log      zerolog.Logger

	state   ImportState
	header  []string
	rows    []map[string]string
	mapping FieldMapping
}

// NewImportSession creates a session that will commit into store using
// the given cost basis method. Prices parsed from rows carry currency.
func NewImportSession(store LotStore, method CostBasisMethod, currency string) *ImportSession {
	id := uuid.NewString()
	logger := zerolog.New(os.Stderr).With().
		Timestamp().
		Str("session", id).
		Logger()
	return &ImportSession{
		id:       id,
		store:    store,
		method:   method,
		currency: currency,
		log:      logger,
	}
}

// SetLogger replaces the session logger. Useful in tests and when the
// host application owns the log sink.
func (s *ImportSession) SetLogger(l zerolog.Logger) { s.log = l.With().Str("session", s.id).Logger() }

// ID returns the session identifier.
func (s *ImportSession) ID() string { return s.id }

// State returns the session's current state.
func (s *ImportSession) State() ImportState { return s.state }

// Header returns the column names of the uploaded data.
func (s *ImportSession) Header() []string { return append([]string(nil), s.header...) }

// Rows returns the number of data rows uploaded.
func (s *ImportSession) Rows() int { return len(s.rows) }

// Upload parses raw tabular text. The first record is the header; every
// following record becomes a map from column name to cell value. Quoted
// fields containing the delimiter are honored by the CSV reader.
func (s *ImportSession) Upload(r io.Reader) error {
	if s.state == Committed {
		return ErrCommitted
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("import: parse: %w", err)
	}
	if len(records) == 0 {
		return ErrEmptyFile
	}
	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	s.header, s.rows = header, rows
	s.state = Uploaded
	s.log.Info().Int("rows", len(rows)).Int("columns", len(header)).Msg("uploaded")
	return nil
}

// MapFields binds logical fields to source columns and advances the
// session to Mapped. All required fields must be bound, and every bound
// column must exist in the uploaded header.
func (s *ImportSession) MapFields(m FieldMapping) error {
	switch s.state {
	case Committed:
		return ErrCommitted
	case Uploaded, Mapped, Previewed:
	default:
		return fmt.Errorf("import: cannot map fields in state %s", s.state)
	}
	if miss := m.missing(); len(miss) > 0 {
		return fmt.Errorf("%w: %s", ErrUnmappedFields, strings.Join(miss, ", "))
	}
	known := make(map[string]bool, len(s.header))
	for _, col := range s.header {
		known[col] = true
	}
	for _, col := range []string{m.Type, m.Ticker, m.Quantity, m.Price, m.Date, m.Fee, m.Account, m.Notes, m.ExternalID} {
		if col != "" && !known[col] {
			return fmt.Errorf("import: column %q not found in header", col)
		}
	}
	s.mapping = m
	s.state = Mapped
	return nil
}

// Preview normalizes the first n rows exactly as Commit would and
// returns them, invalid rows included with their error. It advances
// the session to Previewed.
func (s *ImportSession) Preview(n int) ([]PreviewRow, error) {
	switch s.state {
	case Committed:
		return nil, ErrCommitted
	case Mapped, Previewed:
	default:
		return nil, fmt.Errorf("import: cannot preview in state %s", s.state)
	}
	if n > len(s.rows) {
		n = len(s.rows)
	}
	out := make([]PreviewRow, 0, n)
	for i := 0; i < n; i++ {
		tr, err := s.normalizeRow(s.rows[i])
		out = append(out, PreviewRow{Line: i + 2, Trade: tr, Err: err})
	}
	s.state = Previewed
	return out, nil
}

// Back moves the session one state backward: Previewed to Mapped,
// Mapped to Uploaded. A committed session is final.
func (s *ImportSession) Back() error {
	switch s.state {
	case Previewed:
		s.state = Mapped
	case Mapped:
		s.state = Uploaded
	case Committed:
		return ErrCommitted
	default:
		return fmt.Errorf("import: cannot go back from state %s", s.state)
	}
	return nil
}

// normalizeRow converts one source row into a Trade using the field
// mapping. It is the single normalization path shared by Preview and
// Commit.
func (s *ImportSession) normalizeRow(row map[string]string) (Trade, error) {
	qty, err := ParseQuantity(strings.TrimSpace(row[s.mapping.Quantity]))
	if err != nil {
		return nil, fmt.Errorf("quantity %q: %w", row[s.mapping.Quantity], err)
	}
	price, err := ParseMoney(strings.TrimSpace(row[s.mapping.Price]), s.currency)
	if err != nil {
		return nil, fmt.Errorf("price %q: %w", row[s.mapping.Price], err)
	}
	on, err := ParseDate(row[s.mapping.Date])
	if err != nil {
		return nil, err
	}
	fees := M(0, s.currency)
	if s.mapping.Fee != "" {
		if cell := strings.TrimSpace(row[s.mapping.Fee]); cell != "" {
			fees, err = ParseMoney(cell, s.currency)
			if err != nil {
				return nil, fmt.Errorf("fee %q: %w", cell, err)
			}
		}
	}
	raw := RawTrade{
		Type:      row[s.mapping.Type],
		Ticker:    row[s.mapping.Ticker],
		Date:      on,
		Quantity:  qty,
		UnitPrice: price,
		Fees:      fees,
	}
	if s.mapping.Account != "" {
		raw.Account = row[s.mapping.Account]
	}
	if s.mapping.Notes != "" {
		raw.Note = row[s.mapping.Notes]
	}
	if s.mapping.ExternalID != "" {
		raw.ExternalID = row[s.mapping.ExternalID]
	}
	return NormalizeTrade(raw)
}

// Commit normalizes every row, drops and counts the invalid ones, and
// replays the stream of existing plus newly imported transactions: the
// touched pools' recorded sales re-enter the replay as sells, so seed
// lots end at their true remaining quantity and an import can never
// raise a lot's remaining quantity above what interactive entry left.
// Persistence covers only what the import adds; it is attempted in
// bulk, and the store's bulk operations degrade to row-by-row and
// report per-record failures, which Commit counts rather than
// aborting. Every touched (ticker, account) holding is reconciled
// afterwards.
//
// The context is honored at row granularity during replay; a cancelled
// commit leaves the store untouched.
func (s *ImportSession) Commit(ctx context.Context) (*ImportReport, error) {
	switch s.state {
	case Previewed, Mapped:
	case Committed:
		return nil, ErrCommitted
	default:
		return nil, fmt.Errorf("import: cannot commit in state %s", s.state)
	}
	if miss := s.mapping.missing(); len(miss) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnmappedFields, strings.Join(miss, ", "))
	}

	report := &ImportReport{RowsRead: len(s.rows)}
	var imported []Trade
	for i, row := range s.rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tr, err := s.normalizeRow(row)
		if err != nil {
			report.InvalidRowsDropped++
			s.log.Warn().Int("line", i+2).Err(err).Msg("row dropped")
			continue
		}
		imported = append(imported, tr)
	}

	pools, err := s.loadPools(ctx, imported)
	if err != nil {
		return nil, err
	}

	stream := append(pools.history, imported...)
	result, err := ReplayContext(ctx, stream, pools.seed, s.method)
	if err != nil {
		return nil, err
	}
	report.Result = result
	newSales := splitSales(result, pools.histIDs, report)

	if err := s.persist(ctx, result, pools.seedIDs, newSales, report); err != nil {
		return nil, err
	}

	touched := make(map[PoolKey]bool)
	for _, tr := range result.Trades {
		touched[tr.Key()] = true
	}
	rec := NewReconciler(s.store)
	for k := range touched {
		if _, err := rec.Reconcile(ctx, k.Ticker, k.Account); err != nil {
			return nil, err
		}
	}

	s.state = Committed
	s.log.Info().
		Int("rows", report.RowsRead).
		Int("dropped", report.InvalidRowsDropped).
		Int("persistence_failures", report.PersistenceFailures).
		Int("buys", report.Stats.Buys).
		Int("sells", report.Stats.Sells).
		Msg("committed")
	return report, nil
}

// poolState is the recorded past of every pool an import touches: the
// existing lots that seed the replay, and the existing sales converted
// back into sell trades so the replay re-applies their consumption.
type poolState struct {
	seed    []*Lot
	seedIDs map[string]bool
	history []Trade
	histIDs map[string]bool
}

// loadPools gathers the existing lots and sales of every pool the
// imported trades touch. Each recorded sale becomes a Sell carrying the
// record's ID as its external id, which is how splitSales tells replayed
// history apart from the rows the import adds.
func (s *ImportSession) loadPools(ctx context.Context, trades []Trade) (poolState, error) {
	keys := make(map[PoolKey]bool)
	for _, tr := range trades {
		keys[tr.Key()] = true
	}
	ps := poolState{
		seedIDs: make(map[string]bool),
		histIDs: make(map[string]bool),
	}
	for k := range keys {
		lots, err := s.store.LotsFor(ctx, k.Ticker, k.Account)
		if err != nil {
			return poolState{}, err
		}
		for _, l := range lots {
			ps.seed = append(ps.seed, l)
			ps.seedIDs[l.ID] = true
		}
		sales, err := s.store.SalesFor(ctx, k.Ticker, k.Account)
		if err != nil {
			return poolState{}, err
		}
		for _, sale := range sales {
			ps.history = append(ps.history, Sell{tradeCmd{
				Ticker:     sale.Ticker,
				Account:    sale.Account,
				Date:       sale.SaleDate,
				Quantity:   sale.Quantity,
				UnitPrice:  sale.UnitPrice,
				Fees:       sale.Fees,
				ExternalID: sale.ID,
			}})
			ps.histIDs[sale.ID] = true
		}
	}
	return ps, nil
}

// splitSales walks the replayed trades in order, keeps the sale records
// minted for imported rows, and rebuilds the report statistics over
// them. Replayed historical sells are already on record; they are
// neither persisted nor counted again.
func splitSales(result *ReplayResult, histIDs map[string]bool, report *ImportReport) []*SaleRecord {
	var out []*SaleRecord
	si := 0
	for _, tr := range result.Trades {
		switch tr.What() {
		case TradeBuy:
			report.Stats.Buys++
		case TradeSell:
			sale := result.Sales[si]
			si++
			if sell, ok := tr.Trade.(Sell); ok && histIDs[sell.ExternalID] {
				continue
			}
			out = append(out, sale)
			report.Stats.Sells++
			if tr.RealizedGain.IsNegative() {
				report.Stats.RealizedLosses = report.Stats.RealizedLosses.Add(tr.RealizedGain)
			} else {
				report.Stats.RealizedGains = report.Stats.RealizedGains.Add(tr.RealizedGain)
			}
			if tr.Period == ShortTerm {
				report.Stats.ShortTermSells++
			} else {
				report.Stats.LongTermSells++
			}
			if tr.Unmatched.IsPositive() {
				report.Stats.UnmatchedSells++
			}
		}
	}
	return out
}

// persist writes the replay outcome: new lots are created in bulk along
// with the sale records of the imported rows, and seed lots consumed
// during replay are updated one by one. Bulk errors are partial by
// contract; their per-record failures are logged and counted.
func (s *ImportSession) persist(ctx context.Context, result *ReplayResult, seedIDs map[string]bool, sales []*SaleRecord, report *ImportReport) error {
	consumed := make(map[string]bool)
	for _, sale := range result.Sales {
		for _, c := range sale.Consumptions {
			consumed[c.LotID] = true
		}
	}

	var created []*Lot
	for _, l := range result.Lots {
		if !seedIDs[l.ID] {
			created = append(created, l)
			continue
		}
		if !consumed[l.ID] {
			continue
		}
		if err := s.store.UpdateLot(ctx, l); err != nil {
			report.PersistenceFailures++
			s.log.Error().Str("lot", l.ID).Err(err).Msg("lot update failed")
		}
	}

	if err := s.store.CreateLots(ctx, created); err != nil {
		var bulk *BulkError
		if !errors.As(err, &bulk) {
			return fmt.Errorf("import: persist lots: %w", err)
		}
		report.PersistenceFailures += len(bulk.Failures)
		for _, f := range bulk.Failures {
			s.log.Error().Str("lot", f.ID).Err(f.Err).Msg("lot create failed")
		}
	}
	if err := s.store.CreateSales(ctx, sales); err != nil {
		var bulk *BulkError
		if !errors.As(err, &bulk) {
			return fmt.Errorf("import: persist sales: %w", err)
		}
		report.PersistenceFailures += len(bulk.Failures)
		for _, f := range bulk.Failures {
			s.log.Error().Str("sale", f.ID).Err(f.Err).Msg("sale create failed")
		}
	}
	return nil
}
