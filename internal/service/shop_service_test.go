package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	buyerWallet = "0x00000000000000000000000000000000000000b1"
	hashA       = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hashB       = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newShopFixture(t *testing.T) (*ShopService, *memStore, *fakeVerifier, *recordingPublisher) {
	t.Helper()
	m := newMemStore()
	v := &fakeVerifier{}
	pub := &recordingPublisher{}
	svc := NewShopService(m, m, m, memTxs{m}, v, NewAuditService(m), pub)
	svc.now = func() time.Time { return testNow }
	return svc, m, v, pub
}

func paymentReason(t *testing.T, err error) domain.PaymentReason {
	t.Helper()
	var pe *domain.PaymentError
	require.True(t, errors.As(err, &pe), "expected PaymentError, got %v", err)
	return pe.Reason
}

func TestShopService_PurchasePremium(t *testing.T) {
	svc, m, v, pub := newShopFixture(t)
	referrer := m.addUser(domain.User{WalletAddress: "0x00000000000000000000000000000000000000a1"}, domain.GameProgress{})
	buyer := m.addUser(domain.User{WalletAddress: buyerWallet, ReferredBy: &referrer.ID}, domain.GameProgress{Bricks: 5000, Level: game.FreeLevelCap})
	m.referrals = append(m.referrals, &domain.Referral{ReferrerID: referrer.ID, ReferredID: buyer.ID})

	res, err := svc.Purchase(context.Background(), buyer.ID, game.ItemPremium, strings.ToUpper(hashA[:2])+hashA[2:])
	require.Error(t, err, "0X prefix is not a hash")

	res, err = svc.Purchase(context.Background(), buyer.ID, game.ItemPremium, hashA)
	require.NoError(t, err)
	assert.Equal(t, 1, v.calls)
	assert.True(t, res.Effect.PremiumGranted)
	assert.Equal(t, domain.TransactionConfirmed, res.Transaction.Status)

	stored := m.user(buyer.ID)
	assert.True(t, stored.IsPremium)
	assert.Greater(t, m.prog(buyer.ID).Level, game.FreeLevelCap, "premium lifts the level cap")

	stats, err := m.Stats(context.Background(), referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Activated)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "purchase", pub.sent[0].msgType)
	assert.Contains(t, m.auditActions(), domain.AuditActionPurchase)
}

func TestShopService_ReplayIsRejected(t *testing.T) {
	svc, m, v, _ := newShopFixture(t)
	buyer := m.addUser(domain.User{WalletAddress: buyerWallet}, domain.GameProgress{})

	_, err := svc.Purchase(context.Background(), buyer.ID, game.ItemBoostX2, hashA)
	require.NoError(t, err)

	_, err = svc.Purchase(context.Background(), buyer.ID, game.ItemBoostX10, hashA)
	require.Error(t, err)
	assert.Equal(t, domain.ReasonAlreadyProcessed, paymentReason(t, err))
	assert.ErrorIs(t, err, domain.ErrPaymentVerification)
	assert.Equal(t, 1, v.calls, "replay must not reach the chain")

	p := m.prog(buyer.ID)
	assert.Equal(t, 2.0, p.BoostMultiplier)
}

func TestShopService_FailedVerificationCanBeRetried(t *testing.T) {
	svc, m, v, _ := newShopFixture(t)
	buyer := m.addUser(domain.User{WalletAddress: buyerWallet}, domain.GameProgress{Energy: 0})

	v.err = domain.NewPaymentError(domain.ReasonInsufficientConfirmations, "1 of 3")
	_, err := svc.Purchase(context.Background(), buyer.ID, game.ItemEnergyRefill, hashB)
	require.Error(t, err)
	assert.Equal(t, domain.ReasonInsufficientConfirmations, paymentReason(t, err))

	require.Len(t, m.txs, 1)
	assert.Equal(t, domain.TransactionFailed, m.txs[0].Status)
	assert.Equal(t, string(domain.ReasonInsufficientConfirmations), m.txs[0].FailureReason)
	assert.Equal(t, 0, m.prog(buyer.ID).Energy)
	assert.Contains(t, m.auditActions(), domain.AuditActionPurchaseFailed)

	v.err = nil
	res, err := svc.Purchase(context.Background(), buyer.ID, game.ItemEnergyRefill, hashB)
	require.NoError(t, err)
	assert.True(t, res.Effect.EnergyRefilled)
	assert.Equal(t, game.MaxEnergy, m.prog(buyer.ID).Energy)
	require.Len(t, m.txs, 1)
	assert.Equal(t, domain.TransactionConfirmed, m.txs[0].Status)
}

func TestShopService_ChainUnavailableMarksFailed(t *testing.T) {
	svc, m, v, _ := newShopFixture(t)
	buyer := m.addUser(domain.User{WalletAddress: buyerWallet}, domain.GameProgress{})

	v.err = domain.ErrServiceUnavailable
	_, err := svc.Purchase(context.Background(), buyer.ID, game.ItemPremium, hashA)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	require.Len(t, m.txs, 1)
	assert.Equal(t, "ServiceUnavailable", m.txs[0].FailureReason)
	assert.False(t, m.user(buyer.ID).IsPremium)
}

func TestShopService_ExpiredWhileVerifying(t *testing.T) {
	svc, m, v, _ := newShopFixture(t)
	buyer := m.addUser(domain.User{WalletAddress: buyerWallet}, domain.GameProgress{})

	v.onVerify = func() {
		_, err := memTxs{m}.ExpirePending(context.Background(), time.Now().Add(time.Hour))
		require.NoError(t, err)
	}
	_, err := svc.Purchase(context.Background(), buyer.ID, game.ItemPremium, hashA)
	require.Error(t, err)
	assert.Equal(t, domain.ReasonTimeout, paymentReason(t, err))
	assert.False(t, m.user(buyer.ID).IsPremium)
}

func TestShopService_BattlePassExtends(t *testing.T) {
	svc, m, _, _ := newShopFixture(t)
	current := testNow.Add(10 * 24 * time.Hour)
	buyer := m.addUser(domain.User{WalletAddress: buyerWallet, BattlePassExpiresAt: &current}, domain.GameProgress{})

	_, err := svc.Purchase(context.Background(), buyer.ID, game.ItemBattlePass, hashA)
	require.NoError(t, err)

	u := m.user(buyer.ID)
	require.NotNil(t, u.BattlePassExpiresAt)
	assert.True(t, u.BattlePassExpiresAt.Equal(current.Add(game.BattlePassDuration)))
}

func TestShopService_PurchaseValidation(t *testing.T) {
	svc, m, v, _ := newShopFixture(t)
	buyer := m.addUser(domain.User{WalletAddress: buyerWallet}, domain.GameProgress{})
	banned := m.addUser(domain.User{WalletAddress: "0x00000000000000000000000000000000000000b2", IsBanned: true}, domain.GameProgress{})

	_, err := svc.Purchase(context.Background(), buyer.ID, "golden_pyramid", hashA)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Purchase(context.Background(), buyer.ID, game.ItemPremium, "0x1234")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Purchase(context.Background(), banned.ID, game.ItemPremium, hashA)
	assert.ErrorIs(t, err, domain.ErrUserBanned)

	assert.Zero(t, v.calls)
	assert.Empty(t, m.txs)

	disabled := NewShopService(m, m, m, memTxs{m}, nil, nil, nil)
	_, err = disabled.Purchase(context.Background(), buyer.ID, game.ItemPremium, hashA)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestShopService_ItemsSortedByPrice(t *testing.T) {
	svc, _, _, _ := newShopFixture(t)
	items := svc.Items()
	require.NotEmpty(t, items)
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].PriceUnits, items[i].PriceUnits)
	}
}

func TestShopService_TransactionByHash(t *testing.T) {
	svc, m, v, _ := newShopFixture(t)
	buyer := m.addUser(domain.User{WalletAddress: buyerWallet}, domain.GameProgress{})
	other := m.addUser(domain.User{WalletAddress: "0x00000000000000000000000000000000000000c1"}, domain.GameProgress{})

	v.err = domain.NewPaymentError(domain.ReasonInsufficientConfirmations, "1 of 2")
	_, err := svc.Purchase(context.Background(), buyer.ID, game.ItemEnergyRefill, hashA)
	require.Error(t, err)

	tx, err := svc.TransactionByHash(context.Background(), buyer.ID, hashA[:2]+strings.ToUpper(hashA[2:]))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionFailed, tx.Status)
	assert.Equal(t, string(domain.ReasonInsufficientConfirmations), tx.FailureReason)

	_, err = svc.TransactionByHash(context.Background(), other.ID, hashA)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.TransactionByHash(context.Background(), buyer.ID, hashB)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.TransactionByHash(context.Background(), buyer.ID, "0x12")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
