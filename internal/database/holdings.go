package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jpradley/asset-ledger-service/internal/models"
)

// UpsertHolding writes the projected position for an asset, replacing any
// previous row
func (db *DB) UpsertHolding(h *models.Holding) error {
	query := `
		INSERT INTO holdings (asset_symbol, quantity, avg_cost, invested, market_value, unrealized_pnl, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (asset_symbol) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			avg_cost = EXCLUDED.avg_cost,
			invested = EXCLUDED.invested,
			market_value = EXCLUDED.market_value,
			unrealized_pnl = EXCLUDED.unrealized_pnl,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	_, err := db.conn.Exec(query,
		h.AssetSymbol, h.Quantity, h.AvgCost, h.Invested, h.MarketValue, h.UnrealizedPnl, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	h.UpdatedAt = now
	return nil
}

// GetHolding retrieves the current position for an asset
func (db *DB) GetHolding(symbol string) (*models.Holding, error) {
	query := `
		SELECT asset_symbol, quantity, avg_cost, invested, market_value, unrealized_pnl, updated_at
		FROM holdings
		WHERE asset_symbol = $1
	`
	var h models.Holding
	err := db.conn.QueryRow(query, symbol).Scan(
		&h.AssetSymbol, &h.Quantity, &h.AvgCost, &h.Invested, &h.MarketValue, &h.UnrealizedPnl, &h.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("holding %s: %w", symbol, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &h, nil
}

// GetAllHoldings retrieves every open position
func (db *DB) GetAllHoldings() ([]*models.Holding, error) {
	query := `
		SELECT asset_symbol, quantity, avg_cost, invested, market_value, unrealized_pnl, updated_at
		FROM holdings
		ORDER BY market_value DESC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []*models.Holding
	for rows.Next() {
		var h models.Holding
		err := rows.Scan(
			&h.AssetSymbol, &h.Quantity, &h.AvgCost, &h.Invested, &h.MarketValue, &h.UnrealizedPnl, &h.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, &h)
	}
	return holdings, nil
}

// DeleteHolding removes the position row for an asset. Deleting an absent row
// is not an error: a closed position stays closed.
func (db *DB) DeleteHolding(symbol string) error {
	query := `DELETE FROM holdings WHERE asset_symbol = $1`
	_, err := db.conn.Exec(query, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete holding for %s: %w", symbol, err)
	}
	return nil
}
