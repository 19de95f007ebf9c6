package service

import (
	"context"
	"fmt"
	"strings"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/game"
	"pyramid_empire/internal/repository"

	"github.com/jackc/pgx/v5"
)

// AdminQuestStore is the quest catalog as edited by admins.
type AdminQuestStore interface {
	GetAll(ctx context.Context) ([]*domain.Quest, error)
	GetByID(ctx context.Context, id int64) (*domain.Quest, error)
	Create(ctx context.Context, q *domain.Quest) error
	Update(ctx context.Context, q *domain.Quest) error
	Delete(ctx context.Context, id int64) error
}

// StatsSource provides the aggregate counters for the admin dashboard.
type StatsSource interface {
	UserCounts(ctx context.Context) (repository.UserCounts, error)
	TapCounts(ctx context.Context) (repository.TapCounts, error)
	PurchaseCounts(ctx context.Context) (repository.PurchaseCounts, error)
}

// AdminService backs the /api/admin endpoints.
type AdminService struct {
	quests    AdminQuestStore
	users     UserStore
	progress  ProgressStore
	referrals ReferralStore
	game      *GameService
	stats     StatsSource
	audit     *AuditService
}

func NewAdminService(
	quests AdminQuestStore,
	users UserStore,
	progress ProgressStore,
	referrals ReferralStore,
	gameSvc *GameService,
	stats StatsSource,
	audit *AuditService,
) *AdminService {
	return &AdminService{
		quests:    quests,
		users:     users,
		progress:  progress,
		referrals: referrals,
		game:      gameSvc,
		stats:     stats,
		audit:     audit,
	}
}

// Stats represents platform statistics
type Stats struct {
	Users     repository.UserCounts     `json:"users"`
	Taps      repository.TapCounts      `json:"taps"`
	Purchases repository.PurchaseCounts `json:"purchases"`
}

func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.Users, err = s.stats.UserCounts(ctx); err != nil {
		return nil, fmt.Errorf("user counts: %w", err)
	}
	if st.Taps, err = s.stats.TapCounts(ctx); err != nil {
		return nil, fmt.Errorf("tap counts: %w", err)
	}
	if st.Purchases, err = s.stats.PurchaseCounts(ctx); err != nil {
		return nil, fmt.Errorf("purchase counts: %w", err)
	}
	return &st, nil
}

func (s *AdminService) ListQuests(ctx context.Context) ([]*domain.Quest, error) {
	quests, err := s.quests.GetAll(ctx)
	if quests == nil && err == nil {
		quests = []*domain.Quest{}
	}
	return quests, err
}

// ValidateQuest normalizes q and rejects incomplete definitions.
func ValidateQuest(q *domain.Quest) error {
	q.Title = strings.TrimSpace(q.Title)
	if q.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if q.VerificationType == "" {
		q.VerificationType = domain.VerificationInternal
	}
	switch q.VerificationType {
	case domain.VerificationManual, domain.VerificationInternal, domain.VerificationPartner:
	default:
		return fmt.Errorf("%w: unknown verification type %q", domain.ErrValidation, q.VerificationType)
	}
	if q.RewardBricks < 0 || q.RequirementValue < 0 || q.BonusDays < 0 {
		return fmt.Errorf("%w: negative values are not allowed", domain.ErrValidation)
	}
	if q.VerificationType == domain.VerificationInternal && game.CategoryOf(q.RequirementType) == game.RequirementNone && q.RequirementValue > 0 {
		return fmt.Errorf("%w: requirement type %q matches no counter", domain.ErrValidation, q.RequirementType)
	}
	return nil
}

func (s *AdminService) CreateQuest(ctx context.Context, adminID int64, q *domain.Quest) error {
	if err := ValidateQuest(q); err != nil {
		return err
	}
	if err := s.quests.Create(ctx, q); err != nil {
		return err
	}
	s.audit.Log(ctx, adminID, domain.AuditActionAdminQuestCreate, domain.AuditCategoryAdmin, map[string]interface{}{"quest_id": q.ID})
	return nil
}

func (s *AdminService) UpdateQuest(ctx context.Context, adminID int64, q *domain.Quest) error {
	if err := ValidateQuest(q); err != nil {
		return err
	}
	if err := s.quests.Update(ctx, q); err != nil {
		return err
	}
	s.audit.Log(ctx, adminID, domain.AuditActionAdminQuestUpdate, domain.AuditCategoryAdmin, map[string]interface{}{"quest_id": q.ID})
	return nil
}

func (s *AdminService) DeleteQuest(ctx context.Context, adminID, questID int64) error {
	if err := s.quests.Delete(ctx, questID); err != nil {
		return err
	}
	s.audit.Log(ctx, adminID, domain.AuditActionAdminQuestDelete, domain.AuditCategoryAdmin, map[string]interface{}{"quest_id": questID})
	return nil
}

func (s *AdminService) SetBanned(ctx context.Context, adminID, userID int64, banned bool) error {
	if err := s.users.SetBanned(ctx, userID, banned); err != nil {
		return err
	}
	action := domain.AuditActionAdminUnbanUser
	if banned {
		action = domain.AuditActionAdminBanUser
	}
	s.audit.LogAdmin(ctx, adminID, action, userID, nil)
	return nil
}

func (s *AdminService) GrantBoost(ctx context.Context, adminID, userID int64, multiplier float64, hours int) (*domain.GameProgress, error) {
	p, err := s.game.ApplyBoost(ctx, userID, multiplier, hours)
	if err != nil {
		return nil, err
	}
	s.audit.LogAdmin(ctx, adminID, domain.AuditActionAdminGrantBoost, userID, map[string]interface{}{
		"multiplier": multiplier,
		"hours":      hours,
	})
	return p, nil
}

// GrantQuestBonus opens the standard quest bonus window for days, replacing
// any active one.
func (s *AdminService) GrantQuestBonus(ctx context.Context, adminID, userID int64, days int) (*domain.GameProgress, error) {
	p, err := s.game.SetQuestBonus(ctx, userID, game.QuestBonus, days)
	if err != nil {
		return nil, err
	}
	s.audit.LogAdmin(ctx, adminID, domain.AuditActionAdminGrantQuestBonus, userID, map[string]interface{}{
		"days": days,
	})
	return p, nil
}

// GrantPremium sets the permanent premium flag, lifts the level cap and
// activates the user's referral edge.
func (s *AdminService) GrantPremium(ctx context.Context, adminID, userID int64) (*domain.User, error) {
	var out *domain.User
	err := s.progress.WithLock(ctx, userID, func(tx pgx.Tx, u *domain.User, p *domain.GameProgress) error {
		u.IsPremium = true
		// premium alone lifts the cap
		p.Level, _ = game.ResolveLevel(p.Bricks, true, false)
		if _, err := s.referrals.ActivateWithTx(ctx, tx, u.ID); err != nil {
			return fmt.Errorf("activate referral: %w", err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.LogAdmin(ctx, adminID, domain.AuditActionAdminGrantPremium, userID, nil)
	return out, nil
}
