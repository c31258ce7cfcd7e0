// Package lotledger implements the tax-lot accounting engine behind a
// personal wealth-tracking dashboard.
//
// The engine turns a stream of buy/sell trades into cost-basis lots,
// matches sales against those lots under a selectable accounting method
// (FIFO, LIFO, HIFO or average cost), reconciles cached holding
// quantities against the lots that back them, and replays the same
// logic during bulk CSV import so that an import produces the exact
// ledger state that one-at-a-time entry would have produced.
//
// Persistence is abstracted behind the LotStore interface; the package
// ships an in-memory store and a JSONL file store used by the llt CLI.
package lotledger
