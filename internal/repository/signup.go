package repository

import (
	"context"
	"fmt"

	"pyramid_empire/internal/domain"

	"github.com/jackc/pgx/v5"
)

// Register creates the user, the starting progress row and, when
// u.ReferredBy is set, the referral edge in one transaction. p.UserID is
// filled in from the new user.
func (r *UserRepository) Register(ctx context.Context, u *domain.User, p *domain.GameProgress) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.CreateWithTx(ctx, tx, u); err != nil {
		return err
	}

	p.UserID = u.ID
	if err := createProgress(ctx, tx, p); err != nil {
		return fmt.Errorf("create progress: %w", err)
	}

	if u.ReferredBy != nil {
		if err := createReferral(ctx, tx, *u.ReferredBy, u.ID); err != nil {
			return fmt.Errorf("create referral: %w", err)
		}
	}

	return tx.Commit(ctx)
}
