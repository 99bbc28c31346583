package ledger

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

func tx(kind models.Kind, qty, price, fees string, day int) *models.Transaction {
	q := dec(qty)
	p := dec(price)
	return &models.Transaction{
		Kind:         kind,
		AssetSymbol:  "BTC",
		Quantity:     q,
		PricePerUnit: p,
		TotalAmount:  q.Mul(p),
		Fees:         dec(fees),
		OccurredAt:   time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC),
	}
}

func TestProject(t *testing.T) {
	policy := EstimateCostBasisFromMarketPrice{}

	t.Run("single buy", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindBuy, "0.5", "60000", "10", 1),
		}

		h := Project("BTC", txs, dec("60000"), policy)
		require.NotNil(t, h)
		assert.True(t, dec("0.5").Equal(h.Quantity))
		assert.True(t, dec("60020").Equal(h.AvgCost), "avg_cost = %s", h.AvgCost)
		assert.True(t, dec("30010").Equal(h.Invested))
		assert.True(t, dec("30000").Equal(h.MarketValue))
		assert.True(t, dec("-10").Equal(h.UnrealizedPnl))
	})

	t.Run("buy then partial sell recomputes from full history", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindBuy, "0.5", "60000", "10", 1),
			tx(models.KindSell, "0.2", "70000", "5", 2),
		}

		h := Project("BTC", txs, dec("70000"), policy)
		require.NotNil(t, h)
		assert.True(t, dec("0.3").Equal(h.Quantity))
		// 30010 - (14000 - 5) = 16015
		assert.True(t, dec("16015").Equal(h.Invested))
		// 16015 / 0.3
		assert.True(t, h.AvgCost.Sub(dec("53383.33")).Abs().LessThan(dec("0.01")), "avg_cost = %s", h.AvgCost)
	})

	t.Run("sell everything closes the position", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindBuy, "1", "100", "0", 1),
			tx(models.KindSell, "1", "150", "0", 2),
		}

		assert.Nil(t, Project("BTC", txs, dec("150"), policy))
	})

	t.Run("overselling clamps to zero instead of going negative", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindBuy, "1", "100", "0", 1),
			tx(models.KindSell, "5", "100", "0", 2),
			tx(models.KindTradeOut, "2", "0", "0", 3),
		}

		assert.Nil(t, Project("BTC", txs, dec("100"), policy))
	})

	t.Run("trade-only position falls back to market price basis", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindTradeIn, "0.03", "0", "0", 1),
		}

		h := Project("BTC", txs, dec("65000"), policy)
		require.NotNil(t, h)
		assert.True(t, dec("0.03").Equal(h.Quantity))
		assert.True(t, dec("65000").Equal(h.AvgCost))
		assert.True(t, dec("1950").Equal(h.Invested))
		assert.True(t, h.UnrealizedPnl.IsZero())
	})

	t.Run("missing market price degrades to zero valuation", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindBuy, "2", "50", "0", 1),
		}

		h := Project("BTC", txs, decimal.Zero, policy)
		require.NotNil(t, h)
		assert.True(t, h.MarketValue.IsZero())
		assert.True(t, dec("-100").Equal(h.UnrealizedPnl))
	})

	t.Run("empty ledger projects no position", func(t *testing.T) {
		assert.Nil(t, Project("BTC", nil, dec("100"), policy))
	})

	t.Run("trade legs carry no fiat flow", func(t *testing.T) {
		txs := []*models.Transaction{
			tx(models.KindBuy, "1", "100", "0", 1),
			tx(models.KindTradeOut, "0.5", "0", "2", 2),
			tx(models.KindTradeIn, "0.1", "0", "2", 2),
		}

		h := Project("BTC", txs, dec("200"), policy)
		require.NotNil(t, h)
		// 1 - 0.5 + 0.1
		assert.True(t, dec("0.6").Equal(h.Quantity))
		// Only the buy contributes fiat.
		assert.True(t, dec("100").Equal(h.Invested))
	})
}
