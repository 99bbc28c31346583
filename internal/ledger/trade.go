package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jpradley/asset-ledger-service/internal/models"
)

// TradeInput describes a user-level asset-for-asset trade before
// normalization into ledger legs.
type TradeInput struct {
	FromSymbol   string          `json:"from_symbol"`
	FromQuantity decimal.Decimal `json:"from_quantity"`
	ToSymbol     string          `json:"to_symbol"`
	ToQuantity   decimal.Decimal `json:"to_quantity"`
	Exchange     string          `json:"exchange"`
	Fees         decimal.Decimal `json:"fees"`
	Notes        string          `json:"notes"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// NormalizeTrade splits a user-level trade into an outflow leg and an inflow
// leg so the ledger only ever contains single-asset movements. Both legs
// carry a zero price and a zero total: a trade has no fiat reference price
// unless the caller supplies one, and the system does not require one. Fees
// are split evenly between the legs; the split is a policy choice, not a
// physical attribution. The legs share OccurredAt and a generated
// TradeGroupID.
func NormalizeTrade(in TradeInput) (*models.Transaction, *models.Transaction, error) {
	if in.FromSymbol == "" {
		return nil, nil, &models.ValidationError{Field: "from_symbol", Reason: "is required"}
	}
	if in.ToSymbol == "" {
		return nil, nil, &models.ValidationError{Field: "to_symbol", Reason: "is required"}
	}
	if !in.FromQuantity.IsPositive() {
		return nil, nil, &models.ValidationError{Field: "from_quantity", Reason: "must be positive"}
	}
	if !in.ToQuantity.IsPositive() {
		return nil, nil, &models.ValidationError{Field: "to_quantity", Reason: "must be positive"}
	}
	if in.Exchange == "" {
		return nil, nil, &models.ValidationError{Field: "exchange", Reason: "is required"}
	}
	if in.Fees.IsNegative() {
		return nil, nil, &models.ValidationError{Field: "fees", Reason: "must not be negative"}
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	groupID := uuid.New()
	feePerLeg := in.Fees.Div(decimal.NewFromInt(2))

	notes := in.Notes
	if notes == "" {
		notes = fmt.Sprintf("trade %s %s -> %s %s", in.FromQuantity, in.FromSymbol, in.ToQuantity, in.ToSymbol)
	}

	out := &models.Transaction{
		Kind:         models.KindTradeOut,
		AssetSymbol:  in.FromSymbol,
		Quantity:     in.FromQuantity,
		PricePerUnit: decimal.Zero,
		TotalAmount:  decimal.Zero,
		Fees:         feePerLeg,
		OccurredAt:   occurredAt,
		Exchange:     in.Exchange,
		Notes:        notes,
		TradeGroupID: &groupID,
	}
	inLeg := &models.Transaction{
		Kind:         models.KindTradeIn,
		AssetSymbol:  in.ToSymbol,
		Quantity:     in.ToQuantity,
		PricePerUnit: decimal.Zero,
		TotalAmount:  decimal.Zero,
		Fees:         feePerLeg,
		OccurredAt:   occurredAt,
		Exchange:     in.Exchange,
		Notes:        notes,
		TradeGroupID: &groupID,
	}

	return out, inLeg, nil
}
