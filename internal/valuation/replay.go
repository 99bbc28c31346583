package valuation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jpradley/asset-ledger-service/internal/models"
)

// Valuation is an asset's position and worth as of a calendar date, derived
// by replaying the ledger. It is independent of current holdings.
type Valuation struct {
	AssetSymbol   string          `json:"asset_symbol"`
	AsOfDate      time.Time       `json:"as_of_date"`
	Quantity      decimal.Decimal `json:"quantity"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit"`
	Invested      decimal.Decimal `json:"invested"`
	TotalValue    decimal.Decimal `json:"total_value"`
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
}

// dateOnly truncates a timestamp to its UTC calendar date. The snapshot model
// is one valuation per day, so replay cuts off by date, not by fine-grained
// timestamp.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ReplayAsOf computes the position and valuation of an asset as of a calendar
// date, given the price on that date. It is a pure fold over the ledger:
// calling it twice with the same inputs yields identical output, which is
// what makes backfill re-runs safe.
//
// An asset not yet owned on the date has a well-defined zero valuation,
// never an error.
func ReplayAsOf(symbol string, txs []*models.Transaction, asOfDate time.Time, priceOnDate decimal.Decimal) Valuation {
	cutoff := dateOnly(asOfDate)

	quantity := decimal.Zero
	invested := decimal.Zero
	for _, t := range txs {
		if dateOnly(t.OccurredAt).After(cutoff) {
			continue
		}
		switch t.Kind {
		case models.KindBuy:
			quantity = quantity.Add(t.Quantity)
			invested = invested.Add(t.TotalAmount.Add(t.Fees))
		case models.KindTradeIn:
			// Inflow of units, but no fiat flow: trade legs carry no price,
			// so they grow the position without growing invested capital.
			quantity = quantity.Add(t.Quantity)
		case models.KindSell, models.KindTradeOut:
			quantity = quantity.Sub(t.Quantity)
		}
	}

	if !quantity.IsPositive() {
		return Valuation{
			AssetSymbol:   symbol,
			AsOfDate:      cutoff,
			Quantity:      decimal.Zero,
			PricePerUnit:  priceOnDate,
			Invested:      invested,
			TotalValue:    decimal.Zero,
			UnrealizedPnl: decimal.Zero,
		}
	}

	totalValue := quantity.Mul(priceOnDate)
	return Valuation{
		AssetSymbol:   symbol,
		AsOfDate:      cutoff,
		Quantity:      quantity,
		PricePerUnit:  priceOnDate,
		Invested:      invested,
		TotalValue:    totalValue,
		UnrealizedPnl: totalValue.Sub(invested),
	}
}

// Snapshot converts a valuation into its persistent daily-snapshot row.
func (v Valuation) Snapshot() *models.DailySnapshot {
	return &models.DailySnapshot{
		AssetSymbol:   v.AssetSymbol,
		SnapshotDate:  v.AsOfDate,
		Quantity:      v.Quantity,
		PricePerUnit:  v.PricePerUnit,
		TotalValue:    v.TotalValue,
		UnrealizedPnl: v.UnrealizedPnl,
	}
}
