package valuation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpradley/asset-ledger-service/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func tx(kind models.Kind, qty, price, fees string, occurredAt time.Time) *models.Transaction {
	q := dec(qty)
	p := dec(price)
	return &models.Transaction{
		Kind:         kind,
		AssetSymbol:  "BTC",
		Quantity:     q,
		PricePerUnit: p,
		TotalAmount:  q.Mul(p),
		Fees:         dec(fees),
		OccurredAt:   occurredAt,
	}
}

func TestReplayAsOf(t *testing.T) {
	t.Run("zero position before any transaction", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindBuy, "1", "100", "0", day(10)),
		}

		v := ReplayAsOf("BTC", txs, day(5), dec("99"))
		assert.True(t, v.Quantity.IsZero())
		assert.True(t, v.TotalValue.IsZero())
		assert.True(t, v.UnrealizedPnl.IsZero())
	})

	t.Run("cutoff is inclusive by calendar day", func(t *testing.T) {
		lateSameDay := time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC)
		nextDay := time.Date(2024, 6, 11, 0, 0, 1, 0, time.UTC)
		txs := []*models.Transaction{
			tx(models.KindBuy, "1", "100", "0", lateSameDay),
			tx(models.KindBuy, "1", "100", "0", nextDay),
		}

		v := ReplayAsOf("BTC", txs, day(10), dec("100"))
		assert.True(t, dec("1").Equal(v.Quantity), "quantity = %s", v.Quantity)
	})

	t.Run("values the position at the given price", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindBuy, "0.5", "60000", "10", day(1)),
		}

		v := ReplayAsOf("BTC", txs, day(2), dec("64000"))
		assert.True(t, dec("0.5").Equal(v.Quantity))
		assert.True(t, dec("32000").Equal(v.TotalValue))
		assert.True(t, dec("30010").Equal(v.Invested))
		assert.True(t, dec("1990").Equal(v.UnrealizedPnl))
	})

	t.Run("sells reduce quantity but not invested capital", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindBuy, "1", "100", "0", day(1)),
			tx(models.KindSell, "0.5", "200", "0", day(2)),
		}

		v := ReplayAsOf("BTC", txs, day(3), dec("200"))
		assert.True(t, dec("0.5").Equal(v.Quantity))
		assert.True(t, dec("100").Equal(v.Invested))
		assert.True(t, dec("0").Equal(v.UnrealizedPnl))
	})

	t.Run("trade inflow grows quantity without invested capital", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindTradeIn, "0.03", "0", "0", day(1)),
		}

		v := ReplayAsOf("BTC", txs, day(2), dec("70000"))
		assert.True(t, dec("0.03").Equal(v.Quantity))
		assert.True(t, v.Invested.IsZero())
		assert.True(t, dec("2100").Equal(v.TotalValue))
		assert.True(t, dec("2100").Equal(v.UnrealizedPnl))
	})

	t.Run("overselling clamps to zero valuation", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindBuy, "1", "100", "0", day(1)),
			tx(models.KindSell, "3", "100", "0", day(2)),
		}

		v := ReplayAsOf("BTC", txs, day(3), dec("100"))
		assert.True(t, v.Quantity.IsZero())
		assert.True(t, v.TotalValue.IsZero())
		assert.True(t, v.UnrealizedPnl.IsZero())
	})

	t.Run("backdated entries are ordered by occurrence, not insertion", func(t *testing.T) {
		// Slice order deliberately scrambled; only occurred_at matters.
		txs := []*models.Transaction{
			tx(models.KindSell, "1", "120", "0", day(20)),
			tx(models.KindBuy, "2", "100", "0", day(2)),
		}

		v := ReplayAsOf("BTC", txs, day(25), dec("120"))
		assert.True(t, dec("1").Equal(v.Quantity))
	})

	t.Run("replay is idempotent", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindBuy, "0.5", "60000", "10", day(1)),
			tx(models.KindSell, "0.2", "70000", "5", day(2)),
			tx(models.KindTradeIn, "0.1", "0", "0", day(3)),
		}

		a := ReplayAsOf("BTC", txs, day(4), dec("68000"))
		b := ReplayAsOf("BTC", txs, day(4), dec("68000"))
		require.Equal(t, a, b)
	})
}
