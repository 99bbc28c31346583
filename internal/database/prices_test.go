package database

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpradley/asset-ledger-service/internal/models"
)

func TestPricesRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("CreatePriceDaily inserts authoritative price", func(t *testing.T) {
		testDB.TruncateAll(t)

		p := &models.AssetPriceDaily{
			Symbol: "BTC",
			Date:   date(2024, 6, 1),
			Price:  decimal.NewFromInt(60000),
			Source: "coingecko",
		}
		err := testDB.CreatePriceDaily(p)
		require.NoError(t, err)
		assert.NotZero(t, p.ID)
	})

	t.Run("CreatePriceDaily updates price on conflict", func(t *testing.T) {
		testDB.TruncateAll(t)

		p := &models.AssetPriceDaily{Symbol: "BTC", Date: date(2024, 6, 1), Price: decimal.NewFromInt(60000), Source: "coingecko"}
		require.NoError(t, testDB.CreatePriceDaily(p))

		// A corrected price for the same day replaces the old one.
		corrected := &models.AssetPriceDaily{Symbol: "BTC", Date: date(2024, 6, 1), Price: decimal.NewFromInt(60500), Source: "manual"}
		require.NoError(t, testDB.CreatePriceDaily(corrected))

		stored, err := testDB.GetPriceOnDate("BTC", date(2024, 6, 1))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(60500).Equal(stored.Price))
		assert.Equal(t, "manual", stored.Source)
	})

	t.Run("CreatePriceDailyBatch inserts rows in one transaction", func(t *testing.T) {
		testDB.TruncateAll(t)

		var prices []*models.AssetPriceDaily
		for d := 1; d <= 5; d++ {
			prices = append(prices, &models.AssetPriceDaily{
				Symbol: "ETH",
				Date:   date(2024, 6, d),
				Price:  decimal.NewFromInt(int64(3000 + d)),
				Source: "coingecko",
			})
		}
		require.NoError(t, testDB.CreatePriceDailyBatch(prices))

		stored, err := testDB.GetPriceRange("ETH", date(2024, 6, 1), date(2024, 6, 5))
		require.NoError(t, err)
		assert.Len(t, stored, 5)
	})

	t.Run("GetPriceOnDate returns ErrNotFound for missing day", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetPriceOnDate("BTC", date(2024, 6, 1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})

	t.Run("GetPriceRange is inclusive and oldest first", func(t *testing.T) {
		testDB.TruncateAll(t)

		for d := 1; d <= 10; d++ {
			p := &models.AssetPriceDaily{Symbol: "BTC", Date: date(2024, 6, d), Price: decimal.NewFromInt(int64(60000 + d))}
			require.NoError(t, testDB.CreatePriceDaily(p))
		}

		stored, err := testDB.GetPriceRange("BTC", date(2024, 6, 4), date(2024, 6, 6))
		require.NoError(t, err)
		require.Len(t, stored, 3)
		assert.Equal(t, date(2024, 6, 4), stored[0].Date.UTC())
		assert.Equal(t, date(2024, 6, 6), stored[2].Date.UTC())
	})

	t.Run("GetLatestStoredPrice returns most recent day", func(t *testing.T) {
		testDB.TruncateAll(t)

		for d := 1; d <= 3; d++ {
			p := &models.AssetPriceDaily{Symbol: "BTC", Date: date(2024, 6, d), Price: decimal.NewFromInt(int64(60000 * d))}
			require.NoError(t, testDB.CreatePriceDaily(p))
		}

		latest, err := testDB.GetLatestStoredPrice("BTC")
		require.NoError(t, err)
		assert.Equal(t, date(2024, 6, 3), latest.Date.UTC())
		assert.True(t, decimal.NewFromInt(180000).Equal(latest.Price))
	})

	t.Run("DeletePricesBySymbol clears history for one symbol", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.CreatePriceDaily(&models.AssetPriceDaily{Symbol: "BTC", Date: date(2024, 6, 1), Price: decimal.NewFromInt(60000)}))
		require.NoError(t, testDB.CreatePriceDaily(&models.AssetPriceDaily{Symbol: "ETH", Date: date(2024, 6, 1), Price: decimal.NewFromInt(3000)}))

		require.NoError(t, testDB.DeletePricesBySymbol("BTC"))

		_, err := testDB.GetLatestStoredPrice("BTC")
		assert.True(t, errors.Is(err, models.ErrNotFound))

		_, err = testDB.GetLatestStoredPrice("ETH")
		assert.NoError(t, err)
	})
}
