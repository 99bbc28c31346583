package ledger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jpradley/asset-ledger-service/internal/models"
)

// Store is the persistence surface the ledger service depends on.
type Store interface {
	CreateTransaction(t *models.Transaction) error
	CreateTradeLegs(out, in *models.Transaction) error
	GetTransactionByID(id int) (*models.Transaction, error)
	GetTransactionsBySymbol(symbol string) ([]*models.Transaction, error)
	DeleteTransaction(id int) error
	TransactionExistsByExternalRef(externalRef, source string) (bool, error)
	EnsureAsset(symbol string) error
	UpsertHolding(h *models.Holding) error
	DeleteHolding(symbol string) error
}

// PriceSource supplies the latest known market price for an asset.
type PriceSource interface {
	Latest(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// EventPublisher emits ledger events after successful mutations. Publishing
// is best-effort: a failed publish never fails the mutation.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event models.LedgerEvent) error
}

// TransactionInput is the caller-facing shape for recording a buy or sell.
type TransactionInput struct {
	Kind         models.Kind     `json:"kind"`
	AssetSymbol  string          `json:"asset_symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Fees         decimal.Decimal `json:"fees"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Exchange     string          `json:"exchange"`
	Notes        string          `json:"notes"`
	ExternalRef  string          `json:"-"`
	Source       string          `json:"-"`
}

// Service owns all ledger mutations. Every mutation synchronously reprojects
// the holdings of the affected asset(s); the projection runs under a
// per-symbol lock so concurrent mutations to the same asset cannot
// interleave their read-recompute-write cycles.
type Service struct {
	store     Store
	prices    PriceSource
	publisher EventPublisher
	policy    CostBasisPolicy
	locks     *symbolLocks
	log       zerolog.Logger
}

// NewService creates a ledger service. publisher may be nil when event
// publishing is disabled.
func NewService(store Store, prices PriceSource, publisher EventPublisher, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		prices:    prices,
		publisher: publisher,
		policy:    EstimateCostBasisFromMarketPrice{},
		locks:     newSymbolLocks(),
		log:       log.With().Str("component", "ledger").Logger(),
	}
}

// RecordTransaction validates and inserts a buy or sell, then reprojects the
// asset's holdings.
func (s *Service) RecordTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, error) {
	if err := validateTransactionInput(in); err != nil {
		return nil, err
	}

	t := &models.Transaction{
		Kind:         in.Kind,
		AssetSymbol:  in.AssetSymbol,
		Quantity:     in.Quantity,
		PricePerUnit: in.PricePerUnit,
		TotalAmount:  in.Quantity.Mul(in.PricePerUnit),
		Fees:         in.Fees,
		OccurredAt:   in.OccurredAt,
		Exchange:     in.Exchange,
		Notes:        in.Notes,
		ExternalRef:  in.ExternalRef,
		Source:       in.Source,
	}

	if err := s.store.EnsureAsset(t.AssetSymbol); err != nil {
		return nil, err
	}
	if err := s.store.CreateTransaction(t); err != nil {
		return nil, err
	}

	s.reproject(ctx, t.AssetSymbol)
	s.publish(ctx, models.LedgerEvent{
		EventType:   models.EventTransactionRecorded,
		Symbol:      t.AssetSymbol,
		Transaction: t,
		Timestamp:   time.Now(),
	})

	return t, nil
}

// RecordTrade normalizes a user-level trade into two legs, inserts both
// atomically, and reprojects the holdings of both assets.
func (s *Service) RecordTrade(ctx context.Context, in TradeInput) (*models.Transaction, *models.Transaction, error) {
	out, inLeg, err := NormalizeTrade(in)
	if err != nil {
		return nil, nil, err
	}

	for _, symbol := range []string{out.AssetSymbol, inLeg.AssetSymbol} {
		if err := s.store.EnsureAsset(symbol); err != nil {
			return nil, nil, err
		}
	}
	if err := s.store.CreateTradeLegs(out, inLeg); err != nil {
		return nil, nil, err
	}

	s.reproject(ctx, out.AssetSymbol)
	s.reproject(ctx, inLeg.AssetSymbol)
	s.publish(ctx, models.LedgerEvent{
		EventType:    models.EventTradeRecorded,
		Symbol:       inLeg.AssetSymbol,
		Transactions: []*models.Transaction{out, inLeg},
		Timestamp:    time.Now(),
	})

	return out, inLeg, nil
}

// DeleteTransaction removes a ledger entry and reprojects the affected
// asset. Deleting one leg of a trade does not cascade to the paired leg.
func (s *Service) DeleteTransaction(ctx context.Context, id int) error {
	t, err := s.store.GetTransactionByID(id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(id); err != nil {
		return err
	}

	s.reproject(ctx, t.AssetSymbol)
	s.publish(ctx, models.LedgerEvent{
		EventType:   models.EventTransactionDeleted,
		Symbol:      t.AssetSymbol,
		Transaction: t,
		Timestamp:   time.Now(),
	})

	return nil
}

// IngestExternalTrade records a broker-sourced transaction once. Re-delivered
// events with a known (external_ref, source) pair are skipped.
func (s *Service) IngestExternalTrade(ctx context.Context, in TransactionInput) (*models.Transaction, bool, error) {
	if in.ExternalRef != "" && in.Source != "" {
		exists, err := s.store.TransactionExistsByExternalRef(in.ExternalRef, in.Source)
		if err != nil {
			return nil, false, err
		}
		if exists {
			return nil, false, nil
		}
	}

	t, err := s.RecordTransaction(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

// ProjectHoldings recomputes and persists the current position for an asset
// from its full transaction history.
func (s *Service) ProjectHoldings(ctx context.Context, symbol string) (*models.Holding, error) {
	mu := s.locks.lock(symbol)
	defer mu.Unlock()

	txs, err := s.store.GetTransactionsBySymbol(symbol)
	if err != nil {
		return nil, err
	}

	latest, err := s.prices.Latest(ctx, symbol)
	if err != nil {
		// A missing market price degrades valuation to zero, it never
		// blocks the projection.
		latest = decimal.Zero
	}

	h := Project(symbol, txs, latest, s.policy)
	if h == nil {
		if err := s.store.DeleteHolding(symbol); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := s.store.UpsertHolding(h); err != nil {
		return nil, err
	}
	return h, nil
}

// reproject runs the projector after a ledger mutation. The ledger write is
// the durable fact; a failed projection is staleness, not data loss, so it is
// logged and never rolls the mutation back.
func (s *Service) reproject(ctx context.Context, symbol string) {
	if _, err := s.ProjectHoldings(ctx, symbol); err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("holdings projection failed")
	}
}

func (s *Service) publish(ctx context.Context, event models.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", event.EventType).Msg("failed to publish ledger event")
	}
}

func validateTransactionInput(in TransactionInput) error {
	if in.Kind != models.KindBuy && in.Kind != models.KindSell {
		return &models.ValidationError{Field: "kind", Reason: "must be BUY or SELL"}
	}
	if in.AssetSymbol == "" {
		return &models.ValidationError{Field: "asset_symbol", Reason: "is required"}
	}
	if !in.Quantity.IsPositive() {
		return &models.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if in.PricePerUnit.IsNegative() {
		return &models.ValidationError{Field: "price_per_unit", Reason: "must not be negative"}
	}
	if in.Fees.IsNegative() {
		return &models.ValidationError{Field: "fees", Reason: "must not be negative"}
	}
	return nil
}
