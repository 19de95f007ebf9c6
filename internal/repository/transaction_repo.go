package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pyramid_empire/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `id, user_id, kind, tx_hash, item_id, amount, status,
	failure_reason, meta, created_at, confirmed_at`

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func marshalMeta(meta map[string]interface{}) []byte {
	if meta == nil {
		return []byte("{}")
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return []byte("{}")
	}
	return b
}

// BeginPurchase inserts a pending purchase for t.TxHash. A hash whose earlier
// attempt failed is taken over and reset to pending so the buyer can retry
// once the transfer confirms. A hash that is pending or confirmed returns
// ErrDuplicate.
func (r *TransactionRepository) BeginPurchase(ctx context.Context, t *domain.Transaction) error {
	t.Kind = domain.TransactionKindPurchase
	t.Status = domain.TransactionPending

	err := r.db.QueryRow(ctx,
		`INSERT INTO transactions (user_id, kind, tx_hash, item_id, amount, status, meta)
		 VALUES ($1, $2, $3, $4, $5, 'pending', $6)
		 ON CONFLICT (tx_hash) DO UPDATE
		 SET user_id = EXCLUDED.user_id, item_id = EXCLUDED.item_id, amount = EXCLUDED.amount,
		     status = 'pending', failure_reason = '', meta = EXCLUDED.meta, created_at = NOW()
		 WHERE transactions.status = 'failed'
		 RETURNING id, created_at`,
		t.UserID, t.Kind, t.TxHash, t.ItemID, t.Amount, marshalMeta(t.Meta),
	).Scan(&t.ID, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetByHash returns the transaction recorded for a chain hash.
func (r *TransactionRepository) GetByHash(ctx context.Context, hash string) (*domain.Transaction, error) {
	return scanTransaction(r.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE tx_hash = $1`, hash))
}

// MarkFailed moves a pending transaction to failed.
func (r *TransactionRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE transactions SET status = 'failed', failure_reason = $2
		 WHERE id = $1 AND status = 'pending'`,
		id, reason,
	)
	return err
}

// ConfirmWithTx moves a pending transaction to confirmed. It returns
// ErrDuplicate when the row is no longer pending, e.g. expired by the
// housekeeping job while the chain was being checked.
func (r *TransactionRepository) ConfirmWithTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	err := tx.QueryRow(ctx,
		`UPDATE transactions SET status = 'confirmed', confirmed_at = NOW(), meta = $2
		 WHERE id = $1 AND status = 'pending'
		 RETURNING confirmed_at`,
		t.ID, marshalMeta(t.Meta),
	).Scan(&t.ConfirmedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	t.Status = domain.TransactionConfirmed
	return nil
}

// CreateWithTx inserts an already settled internal transaction, e.g. a claim.
func (r *TransactionRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	return tx.QueryRow(ctx,
		`INSERT INTO transactions (user_id, kind, item_id, amount, status, meta, confirmed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $5 = 'confirmed' THEN NOW() END)
		 RETURNING id, created_at, confirmed_at`,
		t.UserID, t.Kind, t.ItemID, t.Amount, t.Status, marshalMeta(t.Meta),
	).Scan(&t.ID, &t.CreatedAt, &t.ConfirmedAt)
}

// GetByUserID returns recent transactions for a user
func (r *TransactionRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *TransactionRepository) CountConfirmedPurchases(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions
		 WHERE user_id = $1 AND kind = 'purchase' AND status = 'confirmed'`,
		userID,
	).Scan(&n)
	return n, err
}

// ExpirePending fails purchases that stayed pending since before cutoff and
// returns how many were expired.
func (r *TransactionRepository) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE transactions SET status = 'failed', failure_reason = $2
		 WHERE status = 'pending' AND created_at < $1`,
		cutoff, string(domain.ReasonTimeout),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PurchaseCounts is the revenue part of the admin stats.
type PurchaseCounts struct {
	Confirmed    int64 `json:"confirmed"`
	Failed       int64 `json:"failed"`
	Pending      int64 `json:"pending"`
	RevenueUnits int64 `json:"revenue_units"`
}

func (r *TransactionRepository) PurchaseCounts(ctx context.Context) (PurchaseCounts, error) {
	var c PurchaseCounts
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE status = 'confirmed'),
		        COUNT(*) FILTER (WHERE status = 'failed'),
		        COUNT(*) FILTER (WHERE status = 'pending'),
		        COALESCE(SUM(amount) FILTER (WHERE status = 'confirmed'), 0)
		 FROM transactions WHERE kind = 'purchase'`,
	).Scan(&c.Confirmed, &c.Failed, &c.Pending, &c.RevenueUnits)
	return c, err
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t        domain.Transaction
		metaJSON []byte
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Kind, &t.TxHash, &t.ItemID, &t.Amount, &t.Status,
		&t.FailureReason, &metaJSON, &t.CreatedAt, &t.ConfirmedAt); err != nil {
		return nil, notFound(err)
	}
	if len(metaJSON) > 0 {
		_ = json.Unmarshal(metaJSON, &t.Meta)
	}
	return &t, nil
}
