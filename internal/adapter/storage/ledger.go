package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
)

// LedgerRepository persists card balances and the append-only transaction
// log. The balance column lives on the users row.
type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) GetAccount(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	query := `SELECT id, username, card_balance FROM users WHERE id = $1`

	var acc domain.Account
	err := r.db.QueryRow(ctx, query, userID).Scan(&acc.ID, &acc.Owner, &acc.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &acc, nil
}

func (r *LedgerRepository) ListTransactions(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	query := `
		SELECT id, user_id, amount, transaction_type, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		if err := rows.Scan(&txn.ID, &txn.UserID, &txn.Amount, &txn.Kind, &txn.Description, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// CommitMutation applies the balance delta and appends the transaction
// record inside one database transaction: both writes commit or neither
// does. The row lock taken by FOR UPDATE serializes concurrent mutations on
// the same account at the storage level.
func (r *LedgerRepository) CommitMutation(ctx context.Context, userID uuid.UUID, delta decimal.Decimal, txn *domain.Transaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT card_balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}

	if balance.Add(delta).IsNegative() {
		return domain.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `UPDATE users SET card_balance = card_balance + $1 WHERE id = $2`, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, amount, transaction_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		txn.ID, txn.UserID, txn.Amount, txn.Kind, txn.Description, txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return tx.Commit(ctx)
}
