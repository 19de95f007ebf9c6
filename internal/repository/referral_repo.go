package repository

import (
	"context"

	"pyramid_empire/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// createReferral links referredID to referrerID. A user is referred at most once.
func createReferral(ctx context.Context, tx pgx.Tx, referrerID, referredID int64) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO referrals (referrer_id, referred_id)
		 VALUES ($1, $2)
		 ON CONFLICT (referred_id) DO NOTHING`,
		referrerID, referredID,
	)
	return err
}

// ActivateWithTx flips the referral edge of referredID. It is a no-op when
// the user was not referred or the edge is already active.
func (r *ReferralRepository) ActivateWithTx(ctx context.Context, tx pgx.Tx, referredID int64) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE referrals SET activated = TRUE, activated_at = NOW()
		 WHERE referred_id = $1 AND NOT activated`,
		referredID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountActivatedWithTx counts the activated referrals of referrerID.
func (r *ReferralRepository) CountActivatedWithTx(ctx context.Context, tx pgx.Tx, referrerID int64) (int, error) {
	var n int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM referrals WHERE referrer_id = $1 AND activated`,
		referrerID,
	).Scan(&n)
	return n, err
}

func (r *ReferralRepository) Stats(ctx context.Context, referrerID int64) (domain.ReferralStats, error) {
	var s domain.ReferralStats
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE activated)
		 FROM referrals WHERE referrer_id = $1`,
		referrerID,
	).Scan(&s.Total, &s.Activated)
	return s, err
}

// GetByReferrer lists the users brought in by referrerID, newest first.
func (r *ReferralRepository) GetByReferrer(ctx context.Context, referrerID int64, limit int) ([]domain.Referral, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, referrer_id, referred_id, activated, activated_at, created_at
		 FROM referrals
		 WHERE referrer_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		referrerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []domain.Referral
	for rows.Next() {
		var ref domain.Referral
		if err := rows.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.Activated, &ref.ActivatedAt, &ref.CreatedAt); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
