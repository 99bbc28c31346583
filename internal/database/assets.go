package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jpradley/asset-ledger-service/internal/models"
)

// CreateAsset registers an asset, updating the descriptive fields if the
// symbol already exists
func (db *DB) CreateAsset(a *models.Asset) error {
	query := `
		INSERT INTO assets (symbol, name, category, latest_price, priced_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	if a.Category == "" {
		a.Category = models.CategoryOther
	}

	_, err := db.conn.Exec(query, a.Symbol, a.Name, a.Category, a.LatestPrice, a.PricedAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// EnsureAsset creates a stub registry row for a symbol if absent. Trade legs
// may reference assets the user never registered explicitly; those get a
// defaulted category and a zero price.
func (db *DB) EnsureAsset(symbol string) error {
	query := `
		INSERT INTO assets (symbol, category, latest_price, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $3)
		ON CONFLICT (symbol) DO NOTHING
	`
	_, err := db.conn.Exec(query, symbol, models.CategoryOther, time.Now())
	if err != nil {
		return fmt.Errorf("failed to ensure asset %s: %w", symbol, err)
	}
	return nil
}

// GetAsset retrieves a registry entry by symbol
func (db *DB) GetAsset(symbol string) (*models.Asset, error) {
	query := `
		SELECT symbol, name, category, latest_price, priced_at, created_at, updated_at
		FROM assets
		WHERE symbol = $1
	`
	var a models.Asset
	var pricedAt sql.NullTime

	err := db.conn.QueryRow(query, symbol).Scan(
		&a.Symbol, &a.Name, &a.Category, &a.LatestPrice, &pricedAt, &a.CreatedAt, &a.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("asset %s: %w", symbol, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	if pricedAt.Valid {
		a.PricedAt = &pricedAt.Time
	}
	return &a, nil
}

// GetAllAssets retrieves every registered asset
func (db *DB) GetAllAssets() ([]*models.Asset, error) {
	query := `
		SELECT symbol, name, category, latest_price, priced_at, created_at, updated_at
		FROM assets
		ORDER BY symbol
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		var a models.Asset
		var pricedAt sql.NullTime

		err := rows.Scan(&a.Symbol, &a.Name, &a.Category, &a.LatestPrice, &pricedAt, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}

		if pricedAt.Valid {
			a.PricedAt = &pricedAt.Time
		}
		assets = append(assets, &a)
	}
	return assets, nil
}

// UpdateAssetPrice records the latest known market price for an asset
func (db *DB) UpdateAssetPrice(symbol string, price decimal.Decimal) error {
	query := `UPDATE assets SET latest_price = $2, priced_at = $3, updated_at = $3 WHERE symbol = $1`
	result, err := db.conn.Exec(query, symbol, price, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update asset price: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("asset %s: %w", symbol, models.ErrNotFound)
	}
	return nil
}

// DeleteAsset removes a registry entry
func (db *DB) DeleteAsset(symbol string) error {
	query := `DELETE FROM assets WHERE symbol = $1`
	result, err := db.conn.Exec(query, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("asset %s: %w", symbol, models.ErrNotFound)
	}
	return nil
}
