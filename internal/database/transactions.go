package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jpradley/asset-ledger-service/internal/models"
)

const transactionColumns = `id, kind, asset_symbol, quantity, price_per_unit, total_amount, fees,
       occurred_at, exchange, notes, trade_group_id, external_ref, source, created_at`

// CreateTransaction inserts a new ledger entry
func (db *DB) CreateTransaction(t *models.Transaction) error {
	query := `
		INSERT INTO transactions (
			kind, asset_symbol, quantity, price_per_unit, total_amount, fees,
			occurred_at, exchange, notes, trade_group_id, external_ref, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	now := time.Now()
	occurredAt := t.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	err := db.conn.QueryRow(query,
		t.Kind, t.AssetSymbol, t.Quantity, t.PricePerUnit, t.TotalAmount, t.Fees,
		occurredAt, t.Exchange, t.Notes, t.TradeGroupID, nullString(t.ExternalRef), nullString(t.Source), now,
	).Scan(&t.ID)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	t.OccurredAt = occurredAt
	t.CreatedAt = now
	return nil
}

// CreateTradeLegs inserts both legs of a trade atomically
func (db *DB) CreateTradeLegs(out, in *models.Transaction) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO transactions (
			kind, asset_symbol, quantity, price_per_unit, total_amount, fees,
			occurred_at, exchange, notes, trade_group_id, external_ref, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	now := time.Now()
	for _, leg := range []*models.Transaction{out, in} {
		err := tx.QueryRow(query,
			leg.Kind, leg.AssetSymbol, leg.Quantity, leg.PricePerUnit, leg.TotalAmount, leg.Fees,
			leg.OccurredAt, leg.Exchange, leg.Notes, leg.TradeGroupID,
			nullString(leg.ExternalRef), nullString(leg.Source), now,
		).Scan(&leg.ID)
		if err != nil {
			return fmt.Errorf("failed to create trade leg for %s: %w", leg.AssetSymbol, err)
		}
		leg.CreatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trade legs: %w", err)
	}
	return nil
}

// GetTransactionByID retrieves a ledger entry by ID
func (db *DB) GetTransactionByID(id int) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return db.scanSingleTransaction(db.conn.QueryRow(query, id))
}

// GetTransactionsBySymbol retrieves the full ledger for an asset ordered by
// occurrence time. Insertion order is not reliable (backdated entries are
// allowed), so every consumer of this method depends on the occurred_at sort.
func (db *DB) GetTransactionsBySymbol(symbol string) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE asset_symbol = $1
		ORDER BY occurred_at ASC, id ASC
	`
	return db.scanTransactions(db.conn.Query(query, symbol))
}

// GetAllTransactions retrieves recent ledger entries across all assets
func (db *DB) GetAllTransactions(limit int) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`
	return db.scanTransactions(db.conn.Query(query, limit))
}

// GetSymbolsWithTransactions returns every asset symbol that appears in the ledger
func (db *DB) GetSymbolsWithTransactions() ([]string, error) {
	query := `SELECT DISTINCT asset_symbol FROM transactions ORDER BY asset_symbol`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, nil
}

// TransactionExistsByExternalRef checks whether an externally-sourced trade
// was already ingested (idempotency for the Kafka consumer)
func (db *DB) TransactionExistsByExternalRef(externalRef, source string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE external_ref = $1 AND source = $2)`
	var exists bool
	err := db.conn.QueryRow(query, externalRef, source).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}
	return exists, nil
}

// DeleteTransaction removes a ledger entry by ID
func (db *DB) DeleteTransaction(id int) error {
	query := `DELETE FROM transactions WHERE id = $1`
	result, err := db.conn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (db *DB) scanSingleTransaction(row *sql.Row) (*models.Transaction, error) {
	var t models.Transaction
	var tradeGroupID sql.NullString
	var externalRef, source sql.NullString

	err := row.Scan(
		&t.ID, &t.Kind, &t.AssetSymbol, &t.Quantity, &t.PricePerUnit, &t.TotalAmount, &t.Fees,
		&t.OccurredAt, &t.Exchange, &t.Notes, &tradeGroupID, &externalRef, &source, &t.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	applyTransactionNulls(&t, tradeGroupID, externalRef, source)
	return &t, nil
}

func (db *DB) scanTransactions(rows *sql.Rows, err error) ([]*models.Transaction, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		var tradeGroupID sql.NullString
		var externalRef, source sql.NullString

		err := rows.Scan(
			&t.ID, &t.Kind, &t.AssetSymbol, &t.Quantity, &t.PricePerUnit, &t.TotalAmount, &t.Fees,
			&t.OccurredAt, &t.Exchange, &t.Notes, &tradeGroupID, &externalRef, &source, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		applyTransactionNulls(&t, tradeGroupID, externalRef, source)
		txs = append(txs, &t)
	}

	return txs, nil
}

func applyTransactionNulls(t *models.Transaction, tradeGroupID, externalRef, source sql.NullString) {
	if tradeGroupID.Valid {
		if id, err := uuid.Parse(tradeGroupID.String); err == nil {
			t.TradeGroupID = &id
		}
	}
	if externalRef.Valid {
		t.ExternalRef = externalRef.String
	}
	if source.Valid {
		t.Source = source.String
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
