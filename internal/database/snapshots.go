package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jpradley/asset-ledger-service/internal/models"
)

// InsertSnapshot writes a daily valuation row. Snapshots are immutable: the
// insert uses ON CONFLICT DO NOTHING so a concurrent backfiller racing on the
// same (asset, date) cell degrades to a skip. Returns false when the row
// already existed.
func (db *DB) InsertSnapshot(s *models.DailySnapshot) (bool, error) {
	query := `
		INSERT INTO daily_snapshots (asset_symbol, snapshot_date, quantity, price_per_unit, total_value, unrealized_pnl, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (asset_symbol, snapshot_date) DO NOTHING
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query,
		s.AssetSymbol, s.SnapshotDate, s.Quantity, s.PricePerUnit, s.TotalValue, s.UnrealizedPnl, now,
	).Scan(&s.ID)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	s.CreatedAt = now
	return true, nil
}

// SnapshotExists checks for a snapshot row on a given calendar date
func (db *DB) SnapshotExists(symbol string, date time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM daily_snapshots WHERE asset_symbol = $1 AND snapshot_date = $2)`
	var exists bool
	err := db.conn.QueryRow(query, symbol, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check snapshot existence: %w", err)
	}
	return exists, nil
}

// GetSnapshot retrieves the snapshot for an asset on a specific date
func (db *DB) GetSnapshot(symbol string, date time.Time) (*models.DailySnapshot, error) {
	query := `
		SELECT id, asset_symbol, snapshot_date, quantity, price_per_unit, total_value, unrealized_pnl, created_at
		FROM daily_snapshots
		WHERE asset_symbol = $1 AND snapshot_date = $2
	`
	var s models.DailySnapshot
	err := db.conn.QueryRow(query, symbol, date).Scan(
		&s.ID, &s.AssetSymbol, &s.SnapshotDate, &s.Quantity, &s.PricePerUnit, &s.TotalValue, &s.UnrealizedPnl, &s.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %s %s: %w", symbol, date.Format("2006-01-02"), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &s, nil
}

// GetSnapshotRange retrieves snapshots for an asset within a date range,
// oldest first
func (db *DB) GetSnapshotRange(symbol string, startDate, endDate time.Time) ([]*models.DailySnapshot, error) {
	query := `
		SELECT id, asset_symbol, snapshot_date, quantity, price_per_unit, total_value, unrealized_pnl, created_at
		FROM daily_snapshots
		WHERE asset_symbol = $1 AND snapshot_date >= $2 AND snapshot_date <= $3
		ORDER BY snapshot_date ASC
	`
	rows, err := db.conn.Query(query, symbol, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot range: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.DailySnapshot
	for rows.Next() {
		var s models.DailySnapshot
		err := rows.Scan(
			&s.ID, &s.AssetSymbol, &s.SnapshotDate, &s.Quantity, &s.PricePerUnit, &s.TotalValue, &s.UnrealizedPnl, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &s)
	}
	return snapshots, nil
}

// DeleteSnapshot removes the snapshot for an asset on a specific date. A
// changed historical price is corrected by deleting the row and re-running
// the backfill, never by updating in place.
func (db *DB) DeleteSnapshot(symbol string, date time.Time) error {
	query := `DELETE FROM daily_snapshots WHERE asset_symbol = $1 AND snapshot_date = $2`
	result, err := db.conn.Exec(query, symbol, date)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("snapshot %s %s: %w", symbol, date.Format("2006-01-02"), models.ErrNotFound)
	}
	return nil
}
