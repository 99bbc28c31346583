package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetPriceDaily is an authoritative historical price for an asset on a
// calendar date. When a row exists for a backfill date it takes precedence
// over the anchored-walk estimate.
type AssetPriceDaily struct {
	ID        int             `json:"id"`
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
