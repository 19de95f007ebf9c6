package service

import (
	"context"
	"fmt"
	"time"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/game"

	"github.com/jackc/pgx/v5"
)

// DefaultQuestBonusDays applies when a partner quest has no bonus_days set.
const DefaultQuestBonusDays = 7

// PartnerVerifier asks the partner API about a wallet; *partner.Client implements it.
type PartnerVerifier interface {
	Verify(ctx context.Context, wallet string, questID int64) (bool, error)
}

type QuestService struct {
	quests    QuestStore
	users     UserStore
	progress  ProgressStore
	referrals ReferralStore
	txs       TransactionStore
	partner   PartnerVerifier
	partnerID map[int64]bool
	audit     *AuditService
	now       func() time.Time
}

// NewQuestService builds the quest flow. partnerQuestIDs marks extra quests
// as partner verified regardless of their stored verification type.
func NewQuestService(
	quests QuestStore,
	users UserStore,
	progress ProgressStore,
	referrals ReferralStore,
	txs TransactionStore,
	partner PartnerVerifier,
	partnerQuestIDs []int64,
	audit *AuditService,
) *QuestService {
	ids := make(map[int64]bool, len(partnerQuestIDs))
	for _, id := range partnerQuestIDs {
		ids[id] = true
	}
	return &QuestService{
		quests:    quests,
		users:     users,
		progress:  progress,
		referrals: referrals,
		txs:       txs,
		partner:   partner,
		partnerID: ids,
		audit:     audit,
		now:       time.Now,
	}
}

func (s *QuestService) isPartner(q *domain.Quest) bool {
	return q.VerificationType == domain.VerificationPartner || s.partnerID[q.ID]
}

// Stats gathers the counters quest requirements are checked against.
func (s *QuestService) Stats(ctx context.Context, userID int64) (game.QuestStats, error) {
	p, err := s.progress.Get(ctx, userID)
	if err != nil {
		return game.QuestStats{}, err
	}
	refs, err := s.referrals.Stats(ctx, userID)
	if err != nil {
		return game.QuestStats{}, fmt.Errorf("referral stats: %w", err)
	}
	purchases, err := s.txs.CountConfirmedPurchases(ctx, userID)
	if err != nil {
		return game.QuestStats{}, fmt.Errorf("count purchases: %w", err)
	}
	return game.QuestStats{
		Level:     p.Level,
		TotalTaps: p.TotalTaps,
		Referrals: refs.Total,
		Bricks:    p.Bricks,
		Purchases: purchases,
	}, nil
}

// QuestView is a quest as listed for one user.
type QuestView struct {
	*domain.Quest
	Completed bool `json:"completed"`
	Eligible  bool `json:"eligible"`
}

func (s *QuestService) List(ctx context.Context, userID int64) ([]QuestView, error) {
	quests, err := s.quests.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	done, err := s.quests.CompletedQuestIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]QuestView, 0, len(quests))
	for _, q := range quests {
		eligible := !done[q.ID]
		if eligible && !s.isPartner(q) {
			eligible = game.RequirementMet(q, stats)
		}
		views = append(views, QuestView{Quest: q, Completed: done[q.ID], Eligible: eligible})
	}
	return views, nil
}

type CompleteResult struct {
	Quest        *domain.Quest        `json:"quest"`
	RewardBricks int64                `json:"reward_bricks"`
	QuestBonus   *game.BoostStatus    `json:"quest_bonus,omitempty"`
	Progress     *domain.GameProgress `json:"progress"`
	LeveledUp    bool                 `json:"leveled_up"`
}

// Complete checks the quest requirement and grants its reward once.
func (s *QuestService) Complete(ctx context.Context, userID, questID int64) (*CompleteResult, error) {
	q, err := s.quests.GetByID(ctx, questID)
	if err != nil {
		return nil, err
	}
	if !q.IsActive {
		return nil, domain.ErrNotFound
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsBanned {
		return nil, domain.ErrUserBanned
	}

	completed, err := s.quests.IsCompleted(ctx, userID, questID)
	if err != nil {
		return nil, err
	}
	if completed {
		return nil, domain.ErrAlreadyCompleted
	}

	partner := s.isPartner(q)
	if partner {
		if err := s.verifyPartner(ctx, u, q); err != nil {
			return nil, err
		}
	} else if q.VerificationType != domain.VerificationManual {
		stats, err := s.Stats(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !game.RequirementMet(q, stats) {
			return nil, domain.ErrRequirementsNotMet
		}
	}

	var result *CompleteResult
	err = s.progress.WithLock(ctx, userID, func(tx pgx.Tx, lu *domain.User, p *domain.GameProgress) error {
		now := s.now()
		c := &domain.QuestCompletion{UserID: userID, QuestID: q.ID}
		result = &CompleteResult{Quest: q, Progress: p}

		if partner {
			days := q.BonusDays
			if days <= 0 {
				days = DefaultQuestBonusDays
			}
			if err := setQuestBonus(p, game.QuestBonus, days, now); err != nil {
				return err
			}
			status := game.QuestBonusStatusOf(p, now)
			result.QuestBonus = &status
		} else {
			oldLevel := p.Level
			c.RewardBricks = q.RewardBricks
			p.Bricks += q.RewardBricks
			p.TotalBricksEarned += q.RewardBricks
			level, capped := game.ResolveLevel(p.Bricks, lu.IsPremium, lu.HasBattlePass(now))
			p.Level = level
			result.RewardBricks = q.RewardBricks
			result.LeveledUp = level > oldLevel && !capped
		}

		return s.quests.CompleteWithTx(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, userID, domain.AuditActionQuestComplete, domain.AuditCategoryGame, map[string]interface{}{
		"quest_id": q.ID,
		"reward":   result.RewardBricks,
		"partner":  partner,
	})
	return result, nil
}

func (s *QuestService) verifyPartner(ctx context.Context, u *domain.User, q *domain.Quest) error {
	if s.partner == nil {
		return fmt.Errorf("%w: partner verification is not configured", domain.ErrServiceUnavailable)
	}
	ok, err := s.partner.Verify(ctx, u.WalletAddress, q.ID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrRequirementsNotMet
	}
	return nil
}
