package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"pyramid_empire/internal/domain"
)

const erc20TransferABI = `[{"anonymous":false,"inputs":[
{"indexed":true,"name":"from","type":"address"},
{"indexed":true,"name":"to","type":"address"},
{"indexed":false,"name":"value","type":"uint256"}],
"name":"Transfer","type":"event"}]`

var erc20ABI = mustParseABI(erc20TransferABI)

// TransferTopic is the log topic of Transfer(address,address,uint256).
var TransferTopic = erc20ABI.Events["Transfer"].ID

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Transfer is a decoded ERC-20 Transfer event.
type Transfer struct {
	From        common.Address
	To          common.Address
	Value       *big.Int
	BlockNumber uint64
}

type VerifierConfig struct {
	Token            common.Address
	ShopWallet       common.Address
	MinConfirmations uint64
}

// Expectation is what a purchase claims the transaction paid.
type Expectation struct {
	TxHash    common.Hash
	From      common.Address
	MinAmount *big.Int
}

type Verifier struct {
	source ReceiptSource
	cfg    VerifierConfig
}

func NewVerifier(source ReceiptSource, cfg VerifierConfig) *Verifier {
	return &Verifier{source: source, cfg: cfg}
}

// Verify checks that the transaction is a confirmed token transfer from the
// buyer to the shop wallet for at least the expected amount. Rejections are
// *domain.PaymentError; RPC failures wrap domain.ErrServiceUnavailable.
func (v *Verifier) Verify(ctx context.Context, exp Expectation) (*Transfer, error) {
	receipt, err := v.source.TransactionReceipt(ctx, exp.TxHash)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, domain.NewPaymentError(domain.ReasonNotFound, "")
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, domain.NewPaymentError(domain.ReasonTxFailed, "")
	}

	head, err := v.source.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	block := receipt.BlockNumber.Uint64()
	var confirmations uint64
	if head > block {
		confirmations = head - block
	}
	if confirmations < v.cfg.MinConfirmations {
		return nil, domain.NewPaymentError(domain.ReasonInsufficientConfirmations,
			fmt.Sprintf("%d of %d", confirmations, v.cfg.MinConfirmations))
	}

	to, err := v.source.TransactionTo(ctx, exp.TxHash)
	if err != nil {
		return nil, err
	}
	if to == nil || *to != v.cfg.Token {
		return nil, domain.NewPaymentError(domain.ReasonWrongContract, "")
	}

	transfers := v.decodeTransfers(receipt.Logs)
	if len(transfers) != 1 {
		return nil, domain.NewPaymentError(domain.ReasonNoTransferEvent,
			fmt.Sprintf("%d transfer events", len(transfers)))
	}
	transfer := transfers[0]
	transfer.BlockNumber = block

	if transfer.From != exp.From {
		return nil, domain.NewPaymentError(domain.ReasonSenderMismatch, transfer.From.Hex())
	}
	if transfer.To != v.cfg.ShopWallet {
		return nil, domain.NewPaymentError(domain.ReasonRecipientMismatch, transfer.To.Hex())
	}
	if exp.MinAmount != nil && transfer.Value.Cmp(exp.MinAmount) < 0 {
		return nil, domain.NewPaymentError(domain.ReasonAmountTooLow,
			fmt.Sprintf("paid %s, need %s", transfer.Value, exp.MinAmount))
	}
	return &transfer, nil
}

// decodeTransfers returns the Transfer events emitted by the token contract.
func (v *Verifier) decodeTransfers(logs []*ethtypes.Log) []Transfer {
	var out []Transfer
	for _, l := range logs {
		if l == nil || l.Address != v.cfg.Token || len(l.Topics) != 3 || l.Topics[0] != TransferTopic {
			continue
		}
		var ev struct{ Value *big.Int }
		if err := erc20ABI.UnpackIntoInterface(&ev, "Transfer", l.Data); err != nil || ev.Value == nil {
			continue
		}
		out = append(out, Transfer{
			From:  common.BytesToAddress(l.Topics[1].Bytes()),
			To:    common.BytesToAddress(l.Topics[2].Bytes()),
			Value: ev.Value,
		})
	}
	return out
}
