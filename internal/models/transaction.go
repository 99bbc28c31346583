package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind identifies the direction and origin of a ledger entry. It is a closed
// set: every fold over the ledger switches exhaustively on these four values.
type Kind string

const (
	KindBuy      Kind = "BUY"
	KindSell     Kind = "SELL"
	KindTradeIn  Kind = "TRADE_IN"
	KindTradeOut Kind = "TRADE_OUT"
)

// Valid reports whether k is one of the four known transaction kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBuy, KindSell, KindTradeIn, KindTradeOut:
		return true
	}
	return false
}

// Inflow reports whether the kind increases the held quantity.
func (k Kind) Inflow() bool {
	return k == KindBuy || k == KindTradeIn
}

// Transaction is a single-asset ledger entry. It is immutable once committed;
// the only supported correction path is delete-and-reproject. A user-level
// trade between two assets is stored as two transactions (a TRADE_OUT leg and
// a TRADE_IN leg) sharing the same OccurredAt and TradeGroupID.
type Transaction struct {
	ID           int             `json:"id"`
	Kind         Kind            `json:"kind"`
	AssetSymbol  string          `json:"asset_symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"` // zero for trade legs
	TotalAmount  decimal.Decimal `json:"total_amount"`   // quantity*price for buy/sell, zero for trade legs
	Fees         decimal.Decimal `json:"fees"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Exchange     string          `json:"exchange,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	TradeGroupID *uuid.UUID      `json:"trade_group_id,omitempty"`
	ExternalRef  string          `json:"external_ref,omitempty"`
	Source       string          `json:"source,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TradeEvent is the shape of externally-sourced trade messages consumed from
// Kafka (broker sync pipelines publish these).
type TradeEvent struct {
	EventType string         `json:"event_type"`
	Source    string         `json:"source"`
	Data      TradeEventData `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// TradeEventData carries the payload of a TRADE_DETECTED event. Numeric
// fields arrive as strings to avoid float truncation in transit.
type TradeEventData struct {
	OrderID      string  `json:"order_id"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Quantity     string  `json:"quantity"`
	AveragePrice string  `json:"average_price"`
	TotalAmount  string  `json:"total_amount"`
	Fees         string  `json:"fees"`
	Exchange     string  `json:"exchange"`
	ExecutedAt   *string `json:"executed_at"`
}

// LedgerEvent is published to Kafka after every successful ledger mutation.
type LedgerEvent struct {
	EventType    string         `json:"event_type"`
	Symbol       string         `json:"symbol"`
	Transaction  *Transaction   `json:"transaction,omitempty"`
	Transactions []*Transaction `json:"transactions,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Ledger event types.
const (
	EventTransactionRecorded = "TRANSACTION_RECORDED"
	EventTradeRecorded       = "TRADE_RECORDED"
	EventTransactionDeleted  = "TRANSACTION_DELETED"
)
