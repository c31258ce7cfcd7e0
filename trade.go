package lotledger

import (
	"fmt"
	"strings"
)

// TradeType is a typed string identifying the side of a trade.
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// Trade is the tagged variant for a normalized transaction. Every
// field is statically required per variant; there are no optional,
// duck-typed records.
type Trade interface {
	What() TradeType // What returns the side of the trade.
	When() Date      // When returns the calendar date of the trade.
	Key() PoolKey    // Key returns the (ticker, account) pool.
}

// tradeCmd carries the fields common to both trade variants.
type tradeCmd struct {
	Ticker     string
	Account    string
	Date       Date
	Quantity   Quantity
	UnitPrice  Money
	Fees       Money
	Note       string
	ExternalID string
}

func (t tradeCmd) When() Date   { return t.Date }
func (t tradeCmd) Key() PoolKey { return PoolKey{Ticker: t.Ticker, Account: t.Account} }

// Buy represents a purchase; replaying it mints a new lot.
type Buy struct {
	tradeCmd
}

func (Buy) What() TradeType { return TradeBuy }

// Sell represents a disposal; replaying it consumes lots from the pool.
type Sell struct {
	tradeCmd
}

func (Sell) What() TradeType { return TradeSell }

// RawTrade is an un-normalized transaction as it arrives from a form
// submission or an import row, before type coercion.
type RawTrade struct {
	Type       string
	Ticker     string
	Account    string
	Date       Date
	Quantity   Quantity
	UnitPrice  Money
	Fees       Money
	Note       string
	ExternalID string
}

// NormalizeTrade coerces a raw transaction into a Trade.
//
// The type token matches case-insensitively: "sell", "sold", "sale" and
// "s" make a Sell; "buy", "bought", "purchase", "b" and anything else
// make a Buy. Defaulting unrecognized tokens to buy is intentional and
// preserved behavior, not an accident. The ticker is upper-cased.
func NormalizeTrade(raw RawTrade) (Trade, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw.Ticker))
	if ticker == "" {
		return nil, fmt.Errorf("trade on %s has no ticker", raw.Date)
	}
	if !raw.Quantity.IsPositive() {
		return nil, fmt.Errorf("trade %s on %s: quantity must be positive, got %s", ticker, raw.Date, raw.Quantity)
	}
	if !raw.UnitPrice.IsPositive() {
		return nil, fmt.Errorf("trade %s on %s: price must be positive, got %s", ticker, raw.Date, raw.UnitPrice)
	}
	cmd := tradeCmd{
		Ticker:     ticker,
		Account:    strings.TrimSpace(raw.Account),
		Date:       raw.Date,
		Quantity:   raw.Quantity,
		UnitPrice:  raw.UnitPrice,
		Fees:       raw.Fees,
		Note:       raw.Note,
		ExternalID: raw.ExternalID,
	}
	switch strings.ToLower(strings.TrimSpace(raw.Type)) {
	case "sell", "sold", "sale", "s":
		return Sell{cmd}, nil
	default:
		// includes "buy", "bought", "purchase", "b" and any
		// unrecognized token.
		return Buy{cmd}, nil
	}
}
