package service

import (
	"context"
	"time"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/repository"

	"github.com/jackc/pgx/v5"
)

// The interfaces below are the slices of the repositories each service
// needs. The *repository types satisfy them; tests use in-memory fakes.

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByWallet(ctx context.Context, wallet string) (*domain.User, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.User, error)
	Register(ctx context.Context, u *domain.User, p *domain.GameProgress) error
	SetBanned(ctx context.Context, id int64, banned bool) error
}

type ProgressStore interface {
	Get(ctx context.Context, userID int64) (*domain.GameProgress, error)
	WithLock(ctx context.Context, userID int64, fn repository.LockedFunc) error
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	Rank(ctx context.Context, bricks int64) (int64, error)
}

type TapEventStore interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, ev *domain.TapEvent) error
}

type ReferralStore interface {
	ActivateWithTx(ctx context.Context, tx pgx.Tx, referredID int64) (bool, error)
	CountActivatedWithTx(ctx context.Context, tx pgx.Tx, referrerID int64) (int, error)
	Stats(ctx context.Context, referrerID int64) (domain.ReferralStats, error)
}

type TransactionStore interface {
	BeginPurchase(ctx context.Context, t *domain.Transaction) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	ConfirmWithTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	CreateWithTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	GetByUserID(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error)
	GetByHash(ctx context.Context, hash string) (*domain.Transaction, error)
	CountConfirmedPurchases(ctx context.Context, userID int64) (int, error)
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}

type QuestStore interface {
	GetActive(ctx context.Context) ([]*domain.Quest, error)
	GetByID(ctx context.Context, id int64) (*domain.Quest, error)
	IsCompleted(ctx context.Context, userID, questID int64) (bool, error)
	CompletedQuestIDs(ctx context.Context, userID int64) (map[int64]bool, error)
	CompleteWithTx(ctx context.Context, tx pgx.Tx, c *domain.QuestCompletion) error
}

type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// Publisher pushes live updates to a user's open sockets.
type Publisher interface {
	PublishToUser(userID int64, msgType string, data any)
}

type nopPublisher struct{}

func (nopPublisher) PublishToUser(int64, string, any) {}
