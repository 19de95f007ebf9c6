package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"pyramid_empire/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, wallet_address, referral_code, referred_by, is_premium,
	battle_pass_expires_at, is_banned, token_balance, created_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// GenerateReferralCode returns a random 12 character hex code.
func GenerateReferralCode() string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.WalletAddress,
		&u.ReferralCode,
		&u.ReferredBy,
		&u.IsPremium,
		&u.BattlePassExpiresAt,
		&u.IsBanned,
		&u.TokenBalance,
		&u.CreatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByWallet looks up a user by lower-cased wallet address.
func (r *UserRepository) GetByWallet(ctx context.Context, wallet string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE wallet_address = $1`,
		strings.ToLower(wallet),
	))
}

func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE referral_code = $1`,
		strings.ToLower(code),
	))
}

// GetForUpdateWithTx loads and row-locks a user.
func (r *UserRepository) GetForUpdateWithTx(ctx context.Context, tx pgx.Tx, id int64) (*domain.User, error) {
	return scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

// CreateWithTx inserts u, generating a referral code when empty. A
// concurrent signup of the same wallet returns ErrDuplicate.
func (r *UserRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, u *domain.User) error {
	u.WalletAddress = strings.ToLower(u.WalletAddress)
	if u.ReferralCode == "" {
		u.ReferralCode = GenerateReferralCode()
	}

	err := tx.QueryRow(ctx,
		`INSERT INTO users (wallet_address, referral_code, referred_by)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		u.WalletAddress, u.ReferralCode, u.ReferredBy,
	).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateEntitlementsWithTx persists premium, battle pass and token balance.
func (r *UserRepository) UpdateEntitlementsWithTx(ctx context.Context, tx pgx.Tx, u *domain.User) error {
	_, err := tx.Exec(ctx,
		`UPDATE users
		 SET is_premium = $2, battle_pass_expires_at = $3, token_balance = $4
		 WHERE id = $1`,
		u.ID, u.IsPremium, u.BattlePassExpiresAt, u.TokenBalance,
	)
	return err
}

func (r *UserRepository) SetBanned(ctx context.Context, id int64, banned bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_banned = $2 WHERE id = $1`, id, banned)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UserCounts is the user part of the admin stats.
type UserCounts struct {
	Total      int64 `json:"total"`
	Premium    int64 `json:"premium"`
	BattlePass int64 `json:"battle_pass"`
	Banned     int64 `json:"banned"`
}

func (r *UserRepository) Counts(ctx context.Context) (UserCounts, error) {
	var c UserCounts
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE is_premium),
		        COUNT(*) FILTER (WHERE battle_pass_expires_at > NOW()),
		        COUNT(*) FILTER (WHERE is_banned)
		 FROM users`,
	).Scan(&c.Total, &c.Premium, &c.BattlePass, &c.Banned)
	return c, err
}
