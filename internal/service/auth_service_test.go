package service

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"testing"
	"time"

	"pyramid_empire/internal/cache"
	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/game"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testWallet struct {
	key     *ecdsa.PrivateKey
	address string
}

func newTestWallet(t *testing.T) testWallet {
	t.Helper()
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	return testWallet{key: key, address: ethcrypto.PubkeyToAddress(key.PublicKey).Hex()}
}

func (w testWallet) sign(t *testing.T, message string) string {
	t.Helper()
	sig, err := ethcrypto.Sign(accounts.TextHash([]byte(message)), w.key)
	require.NoError(t, err)
	sig[ethcrypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func newAuthFixture(t *testing.T) (*AuthService, *memStore) {
	t.Helper()
	InitJWT("test-secret", time.Hour)
	nonces, err := cache.NewMemoryStore(64)
	require.NoError(t, err)
	m := newMemStore()
	return NewAuthService(m, nonces, time.Minute, NewAuditService(m)), m
}

func login(t *testing.T, svc *AuthService, w testWallet, referral string) (*LoginResult, error) {
	t.Helper()
	n, err := svc.Nonce(context.Background(), w.address)
	require.NoError(t, err)
	return svc.Verify(context.Background(), w.address, w.sign(t, n.Message), referral)
}

func TestAuthService_FirstLoginRegisters(t *testing.T) {
	svc, m := newAuthFixture(t)
	w := newTestWallet(t)

	res, err := login(t, svc, w, "")
	require.NoError(t, err)
	assert.True(t, res.IsNew)
	assert.Equal(t, strings.ToLower(w.address), res.User.WalletAddress)

	claims, err := ParseJWT(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, res.User.WalletAddress, claims.Wallet)

	p := m.prog(res.User.ID)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, game.MaxEnergy, p.Energy)
	assert.Contains(t, m.auditActions(), domain.AuditActionLogin)

	again, err := login(t, svc, w, "")
	require.NoError(t, err)
	assert.False(t, again.IsNew)
	assert.Equal(t, res.User.ID, again.User.ID)
}

func TestAuthService_NonceIsSingleUse(t *testing.T) {
	svc, _ := newAuthFixture(t)
	w := newTestWallet(t)

	n, err := svc.Nonce(context.Background(), w.address)
	require.NoError(t, err)
	sig := w.sign(t, n.Message)

	_, err = svc.Verify(context.Background(), w.address, sig, "")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), w.address, sig, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_NewNonceReplacesOld(t *testing.T) {
	svc, _ := newAuthFixture(t)
	w := newTestWallet(t)

	first, err := svc.Nonce(context.Background(), w.address)
	require.NoError(t, err)
	_, err = svc.Nonce(context.Background(), w.address)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), w.address, w.sign(t, first.Message), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_RejectsForeignSignature(t *testing.T) {
	svc, _ := newAuthFixture(t)
	owner, attacker := newTestWallet(t), newTestWallet(t)

	n, err := svc.Nonce(context.Background(), owner.address)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), owner.address, attacker.sign(t, n.Message), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_InvalidAddress(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Nonce(context.Background(), "not-a-wallet")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Verify(context.Background(), "0x123", "0x00", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthService_ReferralCode(t *testing.T) {
	svc, m := newAuthFixture(t)
	referrer, err := login(t, svc, newTestWallet(t), "")
	require.NoError(t, err)

	invited, err := login(t, svc, newTestWallet(t), referrer.User.ReferralCode)
	require.NoError(t, err)
	require.NotNil(t, invited.User.ReferredBy)
	assert.Equal(t, referrer.User.ID, *invited.User.ReferredBy)

	stats, err := m.Stats(context.Background(), referrer.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Zero(t, stats.Activated)

	stranger, err := login(t, svc, newTestWallet(t), "no-such-code")
	require.NoError(t, err)
	assert.Nil(t, stranger.User.ReferredBy)
}

func TestAuthService_BannedUser(t *testing.T) {
	svc, m := newAuthFixture(t)
	w := newTestWallet(t)
	m.addUser(domain.User{WalletAddress: w.address, IsBanned: true}, domain.GameProgress{})

	_, err := login(t, svc, w, "")
	assert.ErrorIs(t, err, domain.ErrUserBanned)
}

func TestAuthService_LoginAuditRecordsClient(t *testing.T) {
	svc, m := newAuthFixture(t)
	w := newTestWallet(t)

	n, err := svc.Nonce(context.Background(), w.address)
	require.NoError(t, err)
	ctx := WithClientInfo(context.Background(), ClientInfo{IP: "203.0.113.7", UserAgent: "wallet-app/1.0"})
	res, err := svc.Verify(ctx, w.address, w.sign(t, n.Message), "")
	require.NoError(t, err)

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.audits, 1)
	log := m.audits[0]
	assert.Equal(t, domain.AuditActionLogin, log.Action)
	assert.Equal(t, res.User.ID, log.UserID)
	assert.Equal(t, "203.0.113.7", log.IP)
	assert.Equal(t, "wallet-app/1.0", log.UserAgent)
}
