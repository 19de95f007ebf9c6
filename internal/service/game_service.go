package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/game"
	"pyramid_empire/internal/logger"
	"pyramid_empire/internal/metrics"

	"github.com/jackc/pgx/v5"
)

const (
	// MinClaimBricks is the smallest balance that can be claimed as tokens.
	MinClaimBricks = 100

	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

// GameService runs taps, claims and boost grants against row-locked progress.
type GameService struct {
	users     UserStore
	progress  ProgressStore
	taps      TapEventStore
	referrals ReferralStore
	txs       TransactionStore
	audit     *AuditService
	publisher Publisher
	now       func() time.Time
}

func NewGameService(
	users UserStore,
	progress ProgressStore,
	taps TapEventStore,
	referrals ReferralStore,
	txs TransactionStore,
	audit *AuditService,
	publisher Publisher,
) *GameService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &GameService{
		users:     users,
		progress:  progress,
		taps:      taps,
		referrals: referrals,
		txs:       txs,
		audit:     audit,
		publisher: publisher,
		now:       time.Now,
	}
}

// TapMeta is optional request context stored with the tap analytics row.
type TapMeta struct {
	SessionID string
	IP        string
}

// TapResult is returned to the client and pushed on the live feed.
type TapResult struct {
	Progress      *domain.GameProgress `json:"progress"`
	BricksEarned  int64                `json:"bricks_earned"`
	LeveledUp     bool                 `json:"leveled_up"`
	NewLevel      *int                 `json:"new_level,omitempty"`
	XP            game.XPProgress      `json:"xp"`
	IsLevelCapped bool                 `json:"is_level_capped"`
	Multiplier    float64              `json:"multiplier"`
	Energy        int                  `json:"energy"`
}

// Tap applies one tap. The whole read-modify-write runs under a row lock so
// parallel taps of one user serialize instead of losing updates.
func (s *GameService) Tap(ctx context.Context, userID int64, meta TapMeta) (*TapResult, error) {
	var result *TapResult

	err := s.progress.WithLock(ctx, userID, func(tx pgx.Tx, u *domain.User, p *domain.GameProgress) error {
		if u.IsBanned {
			return domain.ErrUserBanned
		}

		now := s.now()
		referrals := 0
		if u.HasBattlePass(now) {
			n, err := s.referrals.CountActivatedWithTx(ctx, tx, u.ID)
			if err != nil {
				return fmt.Errorf("count referrals: %w", err)
			}
			referrals = n
		}

		out, err := game.ApplyTap(game.TapInput{
			User:               *u,
			Progress:           *p,
			ActivatedReferrals: referrals,
			Now:                now,
		})
		if err != nil {
			return err
		}
		*p = out.Progress

		ev := &domain.TapEvent{
			UserID:         u.ID,
			Reward:         out.Reward,
			Multiplier:     out.Multiplier,
			EnergyConsumed: out.EnergyConsumed,
			SessionID:      meta.SessionID,
			IP:             meta.IP,
		}
		if err := s.taps.CreateWithTx(ctx, tx, ev); err != nil {
			return fmt.Errorf("record tap: %w", err)
		}

		result = &TapResult{
			Progress:      p,
			BricksEarned:  out.Reward,
			LeveledUp:     out.LeveledUp,
			XP:            out.XP,
			IsLevelCapped: out.IsLevelCapped,
			Multiplier:    out.Multiplier,
			Energy:        p.Energy,
		}
		if out.LeveledUp {
			level := p.Level
			result.NewLevel = &level
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCooldownActive):
			metrics.TapRejections.WithLabelValues("cooldown").Inc()
		case errors.Is(err, domain.ErrNoEnergy):
			metrics.TapRejections.WithLabelValues("no_energy").Inc()
		}
		return nil, err
	}

	metrics.Taps.Inc()
	s.publisher.PublishToUser(userID, "tap", result)
	return result, nil
}

// ProgressView is the read model behind GET /api/game/progress.
type ProgressView struct {
	Progress      *domain.GameProgress `json:"progress"`
	Rank          int64                `json:"rank"`
	XP            game.XPProgress      `json:"xp"`
	IsLevelCapped bool                 `json:"is_level_capped"`
	TapState      game.TapState        `json:"tap_state"`
	CooldownMs    int64                `json:"cooldown_ms"`
	MaxEnergy     int                  `json:"max_energy"`
	Boost         game.BoostStatus     `json:"boost"`
	QuestBonus    game.BoostStatus     `json:"quest_bonus"`
	Multiplier    float64              `json:"multiplier"`
	IsPremium     bool                 `json:"is_premium"`
	HasBattlePass bool                 `json:"has_battle_pass"`
	TokenBalance  int64                `json:"token_balance"`
}

// GetProgress returns the user's progress. Level drift and lapsed boosts
// are repaired and persisted before the snapshot is returned.
func (s *GameService) GetProgress(ctx context.Context, userID int64) (*ProgressView, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.progress.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	check := *p
	if changed, _ := game.Heal(&check, u, now); changed {
		err := s.progress.WithLock(ctx, userID, func(_ pgx.Tx, lu *domain.User, lp *domain.GameProgress) error {
			game.Heal(lp, lu, now)
			u, p = lu, lp
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("heal progress: %w", err)
		}
		logger.Debug("progress healed", "user_id", userID, "level", p.Level)
	}

	rank, err := s.progress.Rank(ctx, p.Bricks)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	stats, err := s.referrals.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("referral stats: %w", err)
	}

	battlePass := u.HasBattlePass(now)
	_, capped := game.ResolveLevel(p.Bricks, u.IsPremium, battlePass)
	state, wait := game.Readiness(p, u.Unlimited(now), now)
	boost, _ := game.EffectiveBoost(p, now)
	m := game.Multipliers{
		Boost:              boost,
		BattlePass:         battlePass,
		ActivatedReferrals: stats.Activated,
		QuestBonus:         game.EffectiveQuestBonus(p, now),
	}

	return &ProgressView{
		Progress:      p,
		Rank:          rank,
		XP:            game.Progress(p.Bricks, p.Level),
		IsLevelCapped: capped,
		TapState:      state,
		CooldownMs:    wait.Milliseconds(),
		MaxEnergy:     game.MaxEnergy,
		Boost:         game.BoostStatusOf(p, now),
		QuestBonus:    game.QuestBonusStatusOf(p, now),
		Multiplier:    m.Total(),
		IsPremium:     u.IsPremium,
		HasBattlePass: battlePass,
		TokenBalance:  u.TokenBalance,
	}, nil
}

// ClaimResult reports a bricks to token conversion.
type ClaimResult struct {
	Claimed      int64                `json:"claimed"`
	TokenBalance int64                `json:"token_balance"`
	Progress     *domain.GameProgress `json:"progress"`
	Transaction  *domain.Transaction  `json:"transaction"`
}

// Claim converts all bricks 1:1 into tokens and restarts the user at level 1.
func (s *GameService) Claim(ctx context.Context, userID int64) (*ClaimResult, error) {
	var result *ClaimResult

	err := s.progress.WithLock(ctx, userID, func(tx pgx.Tx, u *domain.User, p *domain.GameProgress) error {
		if u.IsBanned {
			return domain.ErrUserBanned
		}
		if p.Bricks < MinClaimBricks {
			return domain.ErrInsufficientBricks
		}

		amount := p.Bricks
		u.TokenBalance += amount
		p.Bricks = 0
		p.Level = 1

		t := &domain.Transaction{
			UserID: u.ID,
			Kind:   domain.TransactionKindClaim,
			Amount: amount,
			Status: domain.TransactionConfirmed,
			Meta:   map[string]interface{}{"token_balance": u.TokenBalance},
		}
		if err := s.txs.CreateWithTx(ctx, tx, t); err != nil {
			return fmt.Errorf("record claim: %w", err)
		}

		result = &ClaimResult{Claimed: amount, TokenBalance: u.TokenBalance, Progress: p, Transaction: t}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, userID, domain.AuditActionClaim, domain.AuditCategoryGame, map[string]interface{}{
		"amount": result.Claimed,
	})
	return result, nil
}

// ClampLeaderboardLimit applies the default and the upper bound.
func ClampLeaderboardLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}

func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	entries, err := s.progress.Leaderboard(ctx, ClampLeaderboardLimit(limit))
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].WalletAddress = ShortenWallet(entries[i].WalletAddress)
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}

// ShortenWallet renders 0x1234...abcd.
func ShortenWallet(wallet string) string {
	if len(wallet) <= 12 {
		return wallet
	}
	return wallet[:6] + "..." + wallet[len(wallet)-4:]
}

// ApplyBoost replaces the user's boost with multiplier for hours.
func (s *GameService) ApplyBoost(ctx context.Context, userID int64, multiplier float64, hours int) (*domain.GameProgress, error) {
	if multiplier < 1 || hours <= 0 {
		return nil, fmt.Errorf("%w: boost needs multiplier >= 1 and hours > 0", domain.ErrValidation)
	}
	var out *domain.GameProgress
	err := s.progress.WithLock(ctx, userID, func(_ pgx.Tx, _ *domain.User, p *domain.GameProgress) error {
		game.GrantBoost(p, multiplier, time.Duration(hours)*time.Hour, s.now())
		out = p
		return nil
	})
	return out, err
}

// SetQuestBonus replaces the user's quest bonus window.
func (s *GameService) SetQuestBonus(ctx context.Context, userID int64, multiplier float64, days int) (*domain.GameProgress, error) {
	var out *domain.GameProgress
	err := s.progress.WithLock(ctx, userID, func(_ pgx.Tx, _ *domain.User, p *domain.GameProgress) error {
		if err := setQuestBonus(p, multiplier, days, s.now()); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// setQuestBonus is the locked write shared by SetQuestBonus and partner
// quest completion. Replaces, never stacks.
func setQuestBonus(p *domain.GameProgress, multiplier float64, days int, now time.Time) error {
	if multiplier < 1 || days <= 0 {
		return fmt.Errorf("%w: quest bonus needs multiplier >= 1 and days > 0", domain.ErrValidation)
	}
	game.GrantQuestBonus(p, multiplier, time.Duration(days)*24*time.Hour, now)
	return nil
}
