package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"pyramid_empire/internal/chain"
	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/game"
	"pyramid_empire/internal/logger"
	"pyramid_empire/internal/metrics"
	"pyramid_empire/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// PaymentVerifier checks an on-chain transfer; *chain.Verifier implements it.
type PaymentVerifier interface {
	Verify(ctx context.Context, exp chain.Expectation) (*chain.Transfer, error)
}

type ShopService struct {
	users     UserStore
	progress  ProgressStore
	referrals ReferralStore
	txs       TransactionStore
	verifier  PaymentVerifier
	audit     *AuditService
	publisher Publisher
	now       func() time.Time
}

// NewShopService builds the shop. A nil verifier disables purchases.
func NewShopService(
	users UserStore,
	progress ProgressStore,
	referrals ReferralStore,
	txs TransactionStore,
	verifier PaymentVerifier,
	audit *AuditService,
	publisher Publisher,
) *ShopService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &ShopService{
		users:     users,
		progress:  progress,
		referrals: referrals,
		txs:       txs,
		verifier:  verifier,
		audit:     audit,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *ShopService) Items() []game.ShopItem {
	return game.Items()
}

func (s *ShopService) Transactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	txs, err := s.txs.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}
	return txs, nil
}

// TransactionByHash lets a client poll the outcome of a submitted purchase.
// Hashes recorded for other users read as not found.
func (s *ShopService) TransactionByHash(ctx context.Context, userID int64, txHash string) (*domain.Transaction, error) {
	if !txHashPattern.MatchString(txHash) {
		return nil, fmt.Errorf("%w: malformed transaction hash", domain.ErrValidation)
	}
	t, err := s.txs.GetByHash(ctx, strings.ToLower(txHash))
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

type PurchaseResult struct {
	Transaction *domain.Transaction  `json:"transaction"`
	Effect      game.Effect          `json:"effect"`
	Progress    *domain.GameProgress `json:"progress"`
	User        *domain.User         `json:"user"`
}

// Purchase verifies txHash as payment for itemID and grants the item.
// Each hash can grant at most one item; a hash whose verification failed may
// be submitted again once the transfer is final.
func (s *ShopService) Purchase(ctx context.Context, userID int64, itemID, txHash string) (*PurchaseResult, error) {
	item, ok := game.LookupItem(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown item %q", domain.ErrValidation, itemID)
	}
	if !txHashPattern.MatchString(txHash) {
		return nil, fmt.Errorf("%w: malformed transaction hash", domain.ErrValidation)
	}
	if s.verifier == nil {
		return nil, fmt.Errorf("%w: payments are not configured", domain.ErrServiceUnavailable)
	}
	txHash = strings.ToLower(txHash)

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsBanned {
		return nil, domain.ErrUserBanned
	}

	t := &domain.Transaction{
		UserID: userID,
		TxHash: &txHash,
		ItemID: item.ID,
		Amount: item.PriceUnits,
	}
	if err := s.txs.BeginPurchase(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.Purchases.WithLabelValues(string(domain.ReasonAlreadyProcessed)).Inc()
			return nil, domain.NewPaymentError(domain.ReasonAlreadyProcessed, "")
		}
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	transfer, err := s.verifier.Verify(ctx, chain.Expectation{
		TxHash:    common.HexToHash(txHash),
		From:      common.HexToAddress(u.WalletAddress),
		MinAmount: big.NewInt(item.PriceUnits),
	})
	if err != nil {
		return nil, s.fail(ctx, t, err)
	}

	result, err := s.grant(ctx, t, item, transfer)
	if err != nil {
		return nil, err
	}

	metrics.Purchases.WithLabelValues("confirmed").Inc()
	s.audit.Log(ctx, userID, domain.AuditActionPurchase, domain.AuditCategoryPayment, map[string]interface{}{
		"item":    item.ID,
		"tx_hash": txHash,
		"amount":  transfer.Value.String(),
	})
	s.publisher.PublishToUser(userID, "purchase", result)
	return result, nil
}

// fail marks the pending row failed and returns err for the caller.
func (s *ShopService) fail(ctx context.Context, t *domain.Transaction, err error) error {
	reason := "ServiceUnavailable"
	var pe *domain.PaymentError
	if errors.As(err, &pe) {
		reason = string(pe.Reason)
	}
	metrics.Purchases.WithLabelValues(reason).Inc()

	if markErr := s.txs.MarkFailed(context.WithoutCancel(ctx), t.ID, reason); markErr != nil {
		logger.Error("failed to mark purchase failed", "tx_id", t.ID, "error", markErr)
	}
	s.audit.Log(ctx, t.UserID, domain.AuditActionPurchaseFailed, domain.AuditCategoryPayment, map[string]interface{}{
		"item":    t.ItemID,
		"tx_hash": *t.TxHash,
		"reason":  reason,
	})
	return err
}

// grant confirms the transaction and applies the item in one locked transaction.
func (s *ShopService) grant(ctx context.Context, t *domain.Transaction, item game.ShopItem, transfer *chain.Transfer) (*PurchaseResult, error) {
	var result *PurchaseResult
	t.Meta = map[string]interface{}{
		"from":         transfer.From.Hex(),
		"value":        transfer.Value.String(),
		"block_number": transfer.BlockNumber,
	}

	err := s.progress.WithLock(ctx, t.UserID, func(tx pgx.Tx, u *domain.User, p *domain.GameProgress) error {
		if err := s.txs.ConfirmWithTx(ctx, tx, t); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.NewPaymentError(domain.ReasonTimeout, "pending purchase expired, submit the hash again")
			}
			return fmt.Errorf("confirm purchase: %w", err)
		}

		effect := game.ApplyItem(item, u, p, s.now())
		if effect.PremiumGranted || effect.BattlePassGranted {
			if _, err := s.referrals.ActivateWithTx(ctx, tx, u.ID); err != nil {
				return fmt.Errorf("activate referral: %w", err)
			}
		}

		result = &PurchaseResult{Transaction: t, Effect: effect, Progress: p, User: u}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
