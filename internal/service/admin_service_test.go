package service

import (
	"context"
	"testing"
	"time"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminFixture(t *testing.T) (*AdminService, *memStore) {
	t.Helper()
	m := newMemStore()
	audit := NewAuditService(m)
	gameSvc := NewGameService(m, m, memTaps{m}, m, memTxs{m}, audit, nil)
	gameSvc.now = func() time.Time { return testNow }
	return NewAdminService(nil, m, m, m, gameSvc, nil, audit), m
}

func TestValidateQuest(t *testing.T) {
	tests := []struct {
		name    string
		quest   domain.Quest
		wantErr bool
	}{
		{"defaults to internal", domain.Quest{Title: " Tap ", RequirementType: "tap_count", RequirementValue: 10}, false},
		{"missing title", domain.Quest{Title: "  "}, true},
		{"unknown verification", domain.Quest{Title: "x", VerificationType: "oracle"}, true},
		{"negative reward", domain.Quest{Title: "x", RewardBricks: -1, VerificationType: domain.VerificationManual}, true},
		{"unmatched counter", domain.Quest{Title: "x", RequirementType: "dance", RequirementValue: 3}, true},
		{"partner", domain.Quest{Title: "x", VerificationType: domain.VerificationPartner, BonusDays: 7}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.quest
			err := ValidateQuest(&q)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, q.VerificationType)
		})
	}

	q := domain.Quest{Title: " Tap ", RequirementType: "tap_count"}
	require.NoError(t, ValidateQuest(&q))
	assert.Equal(t, "Tap", q.Title)
	assert.Equal(t, domain.VerificationInternal, q.VerificationType)
}

func TestAdminService_GrantPremium(t *testing.T) {
	svc, m := newAdminFixture(t)
	admin := m.addUser(domain.User{WalletAddress: "0xadmin"}, domain.GameProgress{})
	referrer := m.addUser(domain.User{WalletAddress: "0xref"}, domain.GameProgress{})
	u := m.addUser(domain.User{WalletAddress: "0xuser", ReferredBy: &referrer.ID}, domain.GameProgress{Bricks: 5000, Level: game.FreeLevelCap})
	m.referrals = append(m.referrals, &domain.Referral{ReferrerID: referrer.ID, ReferredID: u.ID})

	out, err := svc.GrantPremium(context.Background(), admin.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, out.IsPremium)
	assert.True(t, m.user(u.ID).IsPremium)
	assert.Equal(t, game.LevelFromXP(5000), m.prog(u.ID).Level)

	stats, err := m.Stats(context.Background(), referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Activated)
	assert.Contains(t, m.auditActions(), domain.AuditActionAdminGrantPremium)
}

func TestAdminService_BanBlocksTaps(t *testing.T) {
	svc, m := newAdminFixture(t)
	admin := m.addUser(domain.User{WalletAddress: "0xadmin"}, domain.GameProgress{})
	u := m.addUser(domain.User{WalletAddress: "0xuser"}, domain.GameProgress{Energy: 10})

	require.NoError(t, svc.SetBanned(context.Background(), admin.ID, u.ID, true))
	_, err := svc.game.Tap(context.Background(), u.ID, TapMeta{})
	assert.ErrorIs(t, err, domain.ErrUserBanned)

	require.NoError(t, svc.SetBanned(context.Background(), admin.ID, u.ID, false))
	_, err = svc.game.Tap(context.Background(), u.ID, TapMeta{})
	assert.NoError(t, err)

	assert.Equal(t, []string{domain.AuditActionAdminBanUser, domain.AuditActionAdminUnbanUser}, m.auditActions())
}

func TestAdminService_GrantBoost(t *testing.T) {
	svc, m := newAdminFixture(t)
	u := m.addUser(domain.User{WalletAddress: "0xuser"}, domain.GameProgress{})

	p, err := svc.GrantBoost(context.Background(), 1, u.ID, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, "x5", p.BoostType)

	_, err = svc.GrantBoost(context.Background(), 1, u.ID, 5, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAdminService_GrantQuestBonus(t *testing.T) {
	svc, m := newAdminFixture(t)
	u := m.addUser(domain.User{WalletAddress: "0xuser"}, domain.GameProgress{})

	p, err := svc.GrantQuestBonus(context.Background(), 1, u.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, game.QuestBonus, p.QuestBonusMultiplier)
	require.NotNil(t, p.QuestBonusExpiresAt)
	assert.True(t, p.QuestBonusExpiresAt.Equal(testNow.Add(7*24*time.Hour)))
	assert.Equal(t, []string{domain.AuditActionAdminGrantQuestBonus}, m.auditActions())

	_, err = svc.GrantQuestBonus(context.Background(), 1, u.ID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, m.auditActions(), 1)
}
