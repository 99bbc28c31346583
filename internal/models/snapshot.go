package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySnapshot is one asset's valuation on one calendar date, produced by
// replaying the ledger up to that date. Rows are immutable once written; a
// changed historical price requires deleting and regenerating the row.
type DailySnapshot struct {
	ID            int             `json:"id"`
	AssetSymbol   string          `json:"asset_symbol"`
	SnapshotDate  time.Time       `json:"snapshot_date"`
	Quantity      decimal.Decimal `json:"quantity"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit"`
	TotalValue    decimal.Decimal `json:"total_value"`
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
	CreatedAt     time.Time       `json:"created_at"`
}
