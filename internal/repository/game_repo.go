package repository

import (
	"context"
	"fmt"

	"pyramid_empire/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const progressColumns = `user_id, bricks, level, energy, last_tap_at, total_taps,
	total_bricks_earned, boost_multiplier, boost_expires_at, boost_type,
	quest_bonus_multiplier, quest_bonus_expires_at, updated_at`

// ProgressRepository stores game_progress rows.
type ProgressRepository struct {
	db    *pgxpool.Pool
	users *UserRepository
}

func NewProgressRepository(db *pgxpool.Pool, users *UserRepository) *ProgressRepository {
	return &ProgressRepository{db: db, users: users}
}

func scanProgress(row pgx.Row) (*domain.GameProgress, error) {
	var p domain.GameProgress
	if err := row.Scan(
		&p.UserID,
		&p.Bricks,
		&p.Level,
		&p.Energy,
		&p.LastTapAt,
		&p.TotalTaps,
		&p.TotalBricksEarned,
		&p.BoostMultiplier,
		&p.BoostExpiresAt,
		&p.BoostType,
		&p.QuestBonusMultiplier,
		&p.QuestBonusExpiresAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// createProgress inserts the starting row for a new user.
func createProgress(ctx context.Context, tx pgx.Tx, p *domain.GameProgress) error {
	return tx.QueryRow(ctx,
		`INSERT INTO game_progress (user_id, bricks, level, energy)
		 VALUES ($1, $2, $3, $4)
		 RETURNING updated_at`,
		p.UserID, p.Bricks, p.Level, p.Energy,
	).Scan(&p.UpdatedAt)
}

func (r *ProgressRepository) Get(ctx context.Context, userID int64) (*domain.GameProgress, error) {
	return scanProgress(r.db.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM game_progress WHERE user_id = $1`, userID))
}

func (r *ProgressRepository) GetForUpdateWithTx(ctx context.Context, tx pgx.Tx, userID int64) (*domain.GameProgress, error) {
	return scanProgress(tx.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM game_progress WHERE user_id = $1 FOR UPDATE`, userID))
}

const updateProgress = `UPDATE game_progress SET
	bricks = $2, level = $3, energy = $4, last_tap_at = $5, total_taps = $6,
	total_bricks_earned = $7, boost_multiplier = $8, boost_expires_at = $9,
	boost_type = $10, quest_bonus_multiplier = $11, quest_bonus_expires_at = $12,
	updated_at = NOW()
	WHERE user_id = $1
	RETURNING updated_at`

func progressArgs(p *domain.GameProgress) []any {
	return []any{
		p.UserID, p.Bricks, p.Level, p.Energy, p.LastTapAt, p.TotalTaps,
		p.TotalBricksEarned, p.BoostMultiplier, p.BoostExpiresAt, p.BoostType,
		p.QuestBonusMultiplier, p.QuestBonusExpiresAt,
	}
}

func (r *ProgressRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, p *domain.GameProgress) error {
	return notFound(tx.QueryRow(ctx, updateProgress, progressArgs(p)...).Scan(&p.UpdatedAt))
}

// LockedFunc mutates a locked user and progress in place.
type LockedFunc func(tx pgx.Tx, u *domain.User, p *domain.GameProgress) error

// WithLock runs fn inside one transaction holding FOR UPDATE locks on the
// user and progress rows, then persists both. Any error from fn rolls back.
func (r *ProgressRepository) WithLock(ctx context.Context, userID int64, fn LockedFunc) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	u, err := r.users.GetForUpdateWithTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	p, err := r.GetForUpdateWithTx(ctx, tx, userID)
	if err != nil {
		return err
	}

	if err := fn(tx, u, p); err != nil {
		return err
	}

	if err := r.UpdateWithTx(ctx, tx, p); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if err := r.users.UpdateEntitlementsWithTx(ctx, tx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return tx.Commit(ctx)
}

// Leaderboard returns the top users by bricks; ties go to the older account.
func (r *ProgressRepository) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.wallet_address, p.level, p.bricks, u.is_premium,
		        COALESCE(u.battle_pass_expires_at > NOW(), FALSE)
		 FROM game_progress p
		 JOIN users u ON u.id = p.user_id
		 WHERE NOT u.is_banned
		 ORDER BY p.bricks DESC, u.id ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.WalletAddress, &e.Level, &e.Bricks, &e.IsPremium, &e.HasBattlePass); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Rank is 1 + the number of players holding more bricks.
func (r *ProgressRepository) Rank(ctx context.Context, bricks int64) (int64, error) {
	var ahead int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM game_progress p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.bricks > $1 AND NOT u.is_banned`,
		bricks,
	).Scan(&ahead)
	return ahead + 1, err
}
