package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pyramid_empire/internal/cache"
	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/game"
	"pyramid_empire/internal/logger"
	"pyramid_empire/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// AuthService implements nonce based wallet login.
type AuthService struct {
	users    UserStore
	nonces   cache.Store
	nonceTTL time.Duration
	audit    *AuditService
}

func NewAuthService(users UserStore, nonces cache.Store, nonceTTL time.Duration, audit *AuditService) *AuthService {
	return &AuthService{users: users, nonces: nonces, nonceTTL: nonceTTL, audit: audit}
}

type NonceResult struct {
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

func normalizeWallet(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: invalid wallet address", domain.ErrValidation)
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}

// Nonce issues a single-use login nonce for address. A new nonce replaces
// any earlier one.
func (s *AuthService) Nonce(ctx context.Context, address string) (*NonceResult, error) {
	wallet, err := normalizeWallet(address)
	if err != nil {
		return nil, err
	}

	nonce := uuid.NewString()
	if err := s.nonces.Set(ctx, wallet, nonce, s.nonceTTL); err != nil {
		return nil, fmt.Errorf("%w: store nonce: %v", domain.ErrServiceUnavailable, err)
	}
	return &NonceResult{
		Nonce:     nonce,
		Message:   SignInMessage(nonce),
		ExpiresAt: time.Now().Add(s.nonceTTL),
	}, nil
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
	IsNew bool         `json:"is_new"`
}

// Verify consumes the nonce, checks the signature and returns a session
// token, creating the user on first login.
func (s *AuthService) Verify(ctx context.Context, address, signature, referralCode string) (*LoginResult, error) {
	wallet, err := normalizeWallet(address)
	if err != nil {
		return nil, err
	}

	nonce, ok, err := s.nonces.Take(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: load nonce: %v", domain.ErrServiceUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: nonce expired or missing", domain.ErrUnauthorized)
	}
	if err := VerifyWalletSignature(wallet, SignInMessage(nonce), signature); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	u, isNew, err := s.getOrCreate(ctx, wallet, referralCode)
	if err != nil {
		return nil, err
	}
	if u.IsBanned {
		return nil, domain.ErrUserBanned
	}

	token, err := GenerateJWT(u.ID, u.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	ci := clientInfoFrom(ctx)
	s.audit.LogWithRequest(ctx, u.ID, domain.AuditActionLogin, domain.AuditCategoryAuth, ci.IP, ci.UserAgent, map[string]interface{}{
		"new_user": isNew,
	})
	return &LoginResult{Token: token, User: u, IsNew: isNew}, nil
}

func (s *AuthService) getOrCreate(ctx context.Context, wallet, referralCode string) (*domain.User, bool, error) {
	u, err := s.users.GetByWallet(ctx, wallet)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	u = &domain.User{WalletAddress: wallet}
	if code := strings.TrimSpace(referralCode); code != "" {
		referrer, err := s.users.GetByReferralCode(ctx, code)
		switch {
		case err == nil && referrer.WalletAddress != wallet:
			u.ReferredBy = &referrer.ID
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, false, err
		default:
			logger.Debug("ignoring referral code", "code", code, "wallet", wallet)
		}
	}

	p := &domain.GameProgress{Level: 1, Energy: game.MaxEnergy, BoostMultiplier: 1, QuestBonusMultiplier: 1}
	if err := s.users.Register(ctx, u, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with a parallel first login
			u, err = s.users.GetByWallet(ctx, wallet)
			return u, false, err
		}
		return nil, false, fmt.Errorf("register user: %w", err)
	}

	logger.Info("user registered", "user_id", u.ID, "wallet", wallet, "referred", u.ReferredBy != nil)
	return u, true, nil
}
