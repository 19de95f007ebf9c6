package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/metrics"
)

// ReceiptSource is the part of a chain RPC the payment verifier reads.
// Lookups of unknown transactions return nil without an error.
type ReceiptSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error)
	TransactionTo(ctx context.Context, hash common.Hash) (*common.Address, error)
}

// EthSource reads receipts over JSON-RPC. Every call gets its own timeout and
// transport failures are reported as domain.ErrServiceUnavailable.
type EthSource struct {
	client  *ethclient.Client
	timeout time.Duration
}

func Dial(ctx context.Context, rpcURL string, timeout time.Duration) (*EthSource, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}
	return &EthSource{client: client, timeout: timeout}, nil
}

func (s *EthSource) Close() {
	s.client.Close()
}

func (s *EthSource) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, done := s.call(ctx, "eth_blockNumber")
	defer done()

	n, err := s.client.BlockNumber(ctx)
	if err != nil {
		return 0, unavailable("block number", err)
	}
	return n, nil
}

func (s *EthSource) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	ctx, done := s.call(ctx, "eth_getTransactionReceipt")
	defer done()

	receipt, err := s.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("transaction receipt", err)
	}
	return receipt, nil
}

func (s *EthSource) TransactionTo(ctx context.Context, hash common.Hash) (*common.Address, error) {
	ctx, done := s.call(ctx, "eth_getTransactionByHash")
	defer done()

	tx, _, err := s.client.TransactionByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("transaction", err)
	}
	return tx.To(), nil
}

func (s *EthSource) call(ctx context.Context, method string) (context.Context, func()) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	timer := metrics.ChainRPCDuration.WithLabelValues(method)
	start := time.Now()
	return ctx, func() {
		cancel()
		timer.Observe(time.Since(start).Seconds())
	}
}

func unavailable(what string, err error) error {
	return fmt.Errorf("%w: chain rpc %s: %v", domain.ErrServiceUnavailable, what, err)
}
