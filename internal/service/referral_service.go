package service

import (
	"context"
	"time"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/game"
)

type ReferralService struct {
	users     UserStore
	referrals ReferralStore
	baseLink  string
	now       func() time.Time
}

// NewReferralService builds invite links as baseLink + "?ref=" + code.
func NewReferralService(users UserStore, referrals ReferralStore, baseLink string) *ReferralService {
	return &ReferralService{users: users, referrals: referrals, baseLink: baseLink, now: time.Now}
}

type ReferralInfo struct {
	Code      string  `json:"code"`
	Link      string  `json:"link"`
	Total     int     `json:"total"`
	Activated int     `json:"activated"`
	Bonus     float64 `json:"bonus_multiplier"`
	// BonusActive is false without a battle pass; activated referrals only
	// pay out to battle pass holders.
	BonusActive bool `json:"bonus_active"`
}

func (s *ReferralService) Info(ctx context.Context, userID int64) (*ReferralInfo, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.referrals.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildReferralInfo(u, stats, s.baseLink, s.now()), nil
}

func buildReferralInfo(u *domain.User, stats domain.ReferralStats, baseLink string, now time.Time) *ReferralInfo {
	m := game.Multipliers{BattlePass: true, ActivatedReferrals: stats.Activated}
	link := ""
	if baseLink != "" {
		link = baseLink + "?ref=" + u.ReferralCode
	}
	return &ReferralInfo{
		Code:        u.ReferralCode,
		Link:        link,
		Total:       stats.Total,
		Activated:   stats.Activated,
		Bonus:       m.ReferralFactor(),
		BonusActive: u.HasBattlePass(now),
	}
}
