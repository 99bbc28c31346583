package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jpradley/asset-ledger-service/internal/models"
)

// CostBasisPolicy decides the cost basis for a position whose net fiat flow
// is zero, i.e. one built entirely through asset-for-asset trades.
type CostBasisPolicy interface {
	// CostBasis returns (avgCost, invested) for a position of netQuantity
	// units with no fiat flow behind it.
	CostBasis(netQuantity, latestPrice decimal.Decimal) (avgCost, invested decimal.Decimal)
}

// EstimateCostBasisFromMarketPrice prices a trade-only position at the
// current market price, redefining invested capital as quantity * price.
// The resulting cost basis moves with the market even when no new
// transactions arrive. That is a deliberate approximation, not accounting:
// swap the policy if a historical basis is ever needed.
type EstimateCostBasisFromMarketPrice struct{}

func (EstimateCostBasisFromMarketPrice) CostBasis(netQuantity, latestPrice decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return latestPrice, netQuantity.Mul(latestPrice)
}

// signedQuantity folds the ledger into the net number of units held. The
// switch is exhaustive over the closed Kind set.
func signedQuantity(txs []*models.Transaction) decimal.Decimal {
	net := decimal.Zero
	for _, t := range txs {
		switch t.Kind {
		case models.KindBuy, models.KindTradeIn:
			net = net.Add(t.Quantity)
		case models.KindSell, models.KindTradeOut:
			net = net.Sub(t.Quantity)
		}
	}
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// fiatFlow folds the ledger into the net fiat capital committed to the
// position. Trade legs contribute nothing: they carry no fiat price.
func fiatFlow(txs []*models.Transaction) decimal.Decimal {
	net := decimal.Zero
	for _, t := range txs {
		switch t.Kind {
		case models.KindBuy:
			net = net.Add(t.TotalAmount.Add(t.Fees))
		case models.KindSell:
			net = net.Sub(t.TotalAmount.Sub(t.Fees))
		case models.KindTradeIn, models.KindTradeOut:
		}
	}
	return net
}

// Project derives the current position from an asset's full transaction
// history. It is a pure function: the ledger is the only source of truth and
// latestPrice is an explicit input, never ambient state. A nil result means
// the position is closed and any holding row should be deleted.
func Project(symbol string, txs []*models.Transaction, latestPrice decimal.Decimal, policy CostBasisPolicy) *models.Holding {
	netQty := signedQuantity(txs)
	if !netQty.IsPositive() {
		return nil
	}

	netInvested := fiatFlow(txs)

	var avgCost, invested decimal.Decimal
	if netInvested.IsPositive() {
		avgCost = netInvested.Div(netQty)
		invested = netInvested
	} else {
		avgCost, invested = policy.CostBasis(netQty, latestPrice)
	}

	marketValue := netQty.Mul(latestPrice)

	return &models.Holding{
		AssetSymbol:   symbol,
		Quantity:      netQty,
		AvgCost:       avgCost,
		Invested:      invested,
		MarketValue:   marketValue,
		UnrealizedPnl: marketValue.Sub(invested),
	}
}
