package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/jpradley/asset-ledger-service/internal/ledger"
	"github.com/jpradley/asset-ledger-service/internal/models"
)

// TradeRecorder is the slice of the ledger service the consumer needs.
type TradeRecorder interface {
	IngestExternalTrade(ctx context.Context, in ledger.TransactionInput) (*models.Transaction, bool, error)
}

// Consumer ingests externally-sourced trade events (broker sync pipelines)
// into the ledger. Ingestion is idempotent: a re-delivered event with a known
// (order_id, source) pair is skipped.
type Consumer struct {
	reader   *kafka.Reader
	recorder TradeRecorder
	log      zerolog.Logger
}

// NewConsumer creates a new Kafka consumer for trade events
func NewConsumer(brokers []string, topic, groupID string, recorder TradeRecorder, log zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:   reader,
		recorder: recorder,
		log:      log.With().Str("component", "kafka-consumer").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info().Str("topic", c.reader.Config().Topic).Msg("starting trade event consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("trade event consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				c.log.Error().Err(err).Msg("error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.log.Error().Err(err).Msg("error processing message")
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.TradeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal trade event: %w", err)
	}

	// Only process TRADE_DETECTED events
	if event.EventType != "TRADE_DETECTED" {
		c.log.Debug().Str("event_type", event.EventType).Msg("ignoring event")
		return nil
	}

	input, err := c.convertEvent(event)
	if err != nil {
		return fmt.Errorf("failed to convert trade event: %w", err)
	}

	t, created, err := c.recorder.IngestExternalTrade(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to ingest trade: %w", err)
	}
	if !created {
		c.log.Debug().
			Str("order_id", input.ExternalRef).
			Str("source", input.Source).
			Msg("trade already ingested, skipping")
		return nil
	}

	c.log.Info().
		Str("kind", string(t.Kind)).
		Str("symbol", t.AssetSymbol).
		Str("quantity", t.Quantity.String()).
		Str("price", t.PricePerUnit.String()).
		Str("order_id", input.ExternalRef).
		Msg("ingested external trade")

	return nil
}

// convertEvent maps a TradeEvent to a ledger transaction input
func (c *Consumer) convertEvent(event models.TradeEvent) (ledger.TransactionInput, error) {
	data := event.Data

	quantity, err := decimal.NewFromString(data.Quantity)
	if err != nil {
		return ledger.TransactionInput{}, fmt.Errorf("invalid quantity %s: %w", data.Quantity, err)
	}

	price, err := decimal.NewFromString(data.AveragePrice)
	if err != nil {
		return ledger.TransactionInput{}, fmt.Errorf("invalid price %s: %w", data.AveragePrice, err)
	}

	fees := decimal.Zero
	if data.Fees != "" {
		fees, _ = decimal.NewFromString(data.Fees)
	}

	var kind models.Kind
	switch strings.ToUpper(data.Side) {
	case string(models.KindBuy):
		kind = models.KindBuy
	case string(models.KindSell):
		kind = models.KindSell
	default:
		return ledger.TransactionInput{}, fmt.Errorf("invalid trade side: %s", data.Side)
	}

	var occurredAt time.Time
	if data.ExecutedAt != nil && *data.ExecutedAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, *data.ExecutedAt)
		if err != nil {
			// Try parsing without timezone
			occurredAt, err = time.Parse("2006-01-02T15:04:05", *data.ExecutedAt)
			if err != nil {
				occurredAt = time.Now()
			}
		}
	} else {
		occurredAt = time.Now()
	}

	return ledger.TransactionInput{
		Kind:         kind,
		AssetSymbol:  data.Symbol,
		Quantity:     quantity,
		PricePerUnit: price,
		Fees:         fees,
		OccurredAt:   occurredAt,
		Exchange:     data.Exchange,
		Notes:        fmt.Sprintf("synced from %s", event.Source),
		ExternalRef:  data.OrderID,
		Source:       event.Source,
	}, nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
