package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpradley/asset-ledger-service/internal/ledger"
	"github.com/jpradley/asset-ledger-service/internal/models"
)

// mockRecorder implements TradeRecorder for consumer tests
type mockRecorder struct {
	ingested map[string]ledger.TransactionInput // key: externalRef:source
	calls    int
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{ingested: make(map[string]ledger.TransactionInput)}
}

func (m *mockRecorder) IngestExternalTrade(_ context.Context, in ledger.TransactionInput) (*models.Transaction, bool, error) {
	m.calls++
	key := in.ExternalRef + ":" + in.Source
	if _, exists := m.ingested[key]; exists {
		return nil, false, nil
	}
	m.ingested[key] = in
	return &models.Transaction{
		ID:           len(m.ingested),
		Kind:         in.Kind,
		AssetSymbol:  in.AssetSymbol,
		Quantity:     in.Quantity,
		PricePerUnit: in.PricePerUnit,
	}, true, nil
}

func tradeEventMessage(t *testing.T, eventType, source, orderID, symbol, side, qty, price string, executedAt *string) kafka.Message {
	t.Helper()
	event := models.TradeEvent{
		EventType: eventType,
		Source:    source,
		Data: models.TradeEventData{
			OrderID:      orderID,
			Symbol:       symbol,
			Side:         side,
			Quantity:     qty,
			AveragePrice: price,
			Fees:         "1.50",
			Exchange:     "robinhood",
			ExecutedAt:   executedAt,
		},
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(symbol), Value: data}
}

func TestConsumerProcessMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests a detected trade", func(t *testing.T) {
		recorder := newMockRecorder()
		c := &Consumer{recorder: recorder, log: zerolog.Nop()}

		executedAt := "2024-06-10T14:30:00Z"
		msg := tradeEventMessage(t, "TRADE_DETECTED", "robinhood", "order-1", "AAPL", "buy", "10", "180.25", &executedAt)

		require.NoError(t, c.processMessage(ctx, msg))
		require.Len(t, recorder.ingested, 1)

		in := recorder.ingested["order-1:robinhood"]
		assert.Equal(t, models.KindBuy, in.Kind)
		assert.Equal(t, "AAPL", in.AssetSymbol)
		assert.True(t, decimal.RequireFromString("10").Equal(in.Quantity))
		assert.True(t, decimal.RequireFromString("180.25").Equal(in.PricePerUnit))
		assert.True(t, decimal.RequireFromString("1.50").Equal(in.Fees))
		assert.Equal(t, time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC), in.OccurredAt.UTC())
	})

	t.Run("re-delivered event does not double-record", func(t *testing.T) {
		recorder := newMockRecorder()
		c := &Consumer{recorder: recorder, log: zerolog.Nop()}

		msg := tradeEventMessage(t, "TRADE_DETECTED", "robinhood", "order-2", "MSFT", "SELL", "5", "400", nil)
		require.NoError(t, c.processMessage(ctx, msg))
		require.NoError(t, c.processMessage(ctx, msg))

		assert.Equal(t, 2, recorder.calls)
		assert.Len(t, recorder.ingested, 1)
	})

	t.Run("ignores other event types", func(t *testing.T) {
		recorder := newMockRecorder()
		c := &Consumer{recorder: recorder, log: zerolog.Nop()}

		msg := tradeEventMessage(t, "POSITION_SYNCED", "robinhood", "order-3", "AAPL", "BUY", "1", "100", nil)
		require.NoError(t, c.processMessage(ctx, msg))
		assert.Zero(t, recorder.calls)
	})

	t.Run("rejects invalid side", func(t *testing.T) {
		recorder := newMockRecorder()
		c := &Consumer{recorder: recorder, log: zerolog.Nop()}

		msg := tradeEventMessage(t, "TRADE_DETECTED", "robinhood", "order-4", "AAPL", "SHORT", "1", "100", nil)
		require.Error(t, c.processMessage(ctx, msg))
		assert.Zero(t, recorder.calls)
	})

	t.Run("rejects malformed quantity", func(t *testing.T) {
		recorder := newMockRecorder()
		c := &Consumer{recorder: recorder, log: zerolog.Nop()}

		msg := tradeEventMessage(t, "TRADE_DETECTED", "robinhood", "order-5", "AAPL", "BUY", "ten", "100", nil)
		require.Error(t, c.processMessage(ctx, msg))
		assert.Zero(t, recorder.calls)
	})

	t.Run("falls back to timezone-less timestamp format", func(t *testing.T) {
		recorder := newMockRecorder()
		c := &Consumer{recorder: recorder, log: zerolog.Nop()}

		executedAt := "2024-06-10T14:30:00"
		msg := tradeEventMessage(t, "TRADE_DETECTED", "robinhood", "order-6", "AAPL", "BUY", "1", "100", &executedAt)
		require.NoError(t, c.processMessage(ctx, msg))

		in := recorder.ingested["order-6:robinhood"]
		assert.Equal(t, 2024, in.OccurredAt.Year())
	})
}
