package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset categories.
const (
	CategoryCrypto = "crypto"
	CategoryEquity = "equity"
	CategoryETF    = "etf"
	CategoryOther  = "other"
)

// Asset is a registry entry for a tracked asset. LatestPrice is the last
// price the system learned from the external quote source; it is an input to
// valuation, never derived from the ledger. Assets referenced by a trade leg
// before being registered get a stub row with a defaulted category and a zero
// price.
type Asset struct {
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name,omitempty"`
	Category    string          `json:"category"`
	LatestPrice decimal.Decimal `json:"latest_price"`
	PricedAt    *time.Time      `json:"priced_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
