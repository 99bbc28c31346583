package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jpradley/asset-ledger-service/internal/models"
)

// CreatePriceDaily inserts an authoritative historical price, updating the
// row if one exists for the same (symbol, date)
func (db *DB) CreatePriceDaily(p *models.AssetPriceDaily) error {
	query := `
		INSERT INTO asset_prices_daily (symbol, date, price, source, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol, date) DO UPDATE SET
			price = EXCLUDED.price,
			source = EXCLUDED.source
		RETURNING id
	`
	err := db.conn.QueryRow(query, p.Symbol, p.Date, p.Price, p.Source, time.Now()).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create daily price: %w", err)
	}
	return nil
}

// CreatePriceDailyBatch inserts multiple historical prices in one transaction
func (db *DB) CreatePriceDailyBatch(prices []*models.AssetPriceDaily) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO asset_prices_daily (symbol, date, price, source, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol, date) DO UPDATE SET
			price = EXCLUDED.price,
			source = EXCLUDED.source
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range prices {
		if _, err := stmt.Exec(p.Symbol, p.Date, p.Price, p.Source, now); err != nil {
			return fmt.Errorf("failed to insert daily price for %s: %w", p.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPriceOnDate retrieves the authoritative price for a symbol on a date
func (db *DB) GetPriceOnDate(symbol string, date time.Time) (*models.AssetPriceDaily, error) {
	query := `
		SELECT id, symbol, date, price, source, created_at
		FROM asset_prices_daily
		WHERE symbol = $1 AND date = $2
	`
	var p models.AssetPriceDaily
	err := db.conn.QueryRow(query, symbol, date).Scan(
		&p.ID, &p.Symbol, &p.Date, &p.Price, &p.Source, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("price %s %s: %w", symbol, date.Format("2006-01-02"), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily price: %w", err)
	}
	return &p, nil
}

// GetPriceRange retrieves historical prices for a symbol within a date range,
// oldest first
func (db *DB) GetPriceRange(symbol string, startDate, endDate time.Time) ([]*models.AssetPriceDaily, error) {
	query := `
		SELECT id, symbol, date, price, source, created_at
		FROM asset_prices_daily
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, symbol, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily price range: %w", err)
	}
	defer rows.Close()

	var prices []*models.AssetPriceDaily
	for rows.Next() {
		var p models.AssetPriceDaily
		if err := rows.Scan(&p.ID, &p.Symbol, &p.Date, &p.Price, &p.Source, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		prices = append(prices, &p)
	}
	return prices, nil
}

// GetLatestStoredPrice retrieves the most recent historical price for a symbol
func (db *DB) GetLatestStoredPrice(symbol string) (*models.AssetPriceDaily, error) {
	query := `
		SELECT id, symbol, date, price, source, created_at
		FROM asset_prices_daily
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`
	var p models.AssetPriceDaily
	err := db.conn.QueryRow(query, symbol).Scan(
		&p.ID, &p.Symbol, &p.Date, &p.Price, &p.Source, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("price %s: %w", symbol, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest stored price: %w", err)
	}
	return &p, nil
}

// DeletePricesBySymbol removes all historical prices for a symbol
func (db *DB) DeletePricesBySymbol(symbol string) error {
	query := `DELETE FROM asset_prices_daily WHERE symbol = $1`
	_, err := db.conn.Exec(query, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete daily prices for %s: %w", symbol, err)
	}
	return nil
}
