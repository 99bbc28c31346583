package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents the current position in a single asset. It is derived
// state: the projector recreates it from the full transaction history after
// every ledger mutation, and deletes it when the position closes. It is never
// authoritative.
type Holding struct {
	AssetSymbol   string          `json:"asset_symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	AvgCost       decimal.Decimal `json:"avg_cost"`
	Invested      decimal.Decimal `json:"invested"`
	MarketValue   decimal.Decimal `json:"market_value"`
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
