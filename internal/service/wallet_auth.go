package service

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var errBadSignature = errors.New("signature does not match address")

// SignInMessage is the personal_sign payload a wallet signs to log in.
func SignInMessage(nonce string) string {
	return "Sign in to Pyramid Meme Empire\nNonce: " + nonce
}

// VerifyWalletSignature checks that hexSignature is an EIP-191 personal_sign
// signature of message by address.
func VerifyWalletSignature(address, message, hexSignature string) error {
	signature, err := hexutil.Decode(hexSignature)
	if err != nil {
		return err
	}
	if len(signature) != ethcrypto.SignatureLength {
		return errBadSignature
	}

	// wallets return V as 27/28, SigToPub wants 0/1
	if signature[ethcrypto.RecoveryIDOffset] == 27 || signature[ethcrypto.RecoveryIDOffset] == 28 {
		signature[ethcrypto.RecoveryIDOffset] -= 27
	}

	recovered, err := ethcrypto.SigToPub(accounts.TextHash([]byte(message)), signature)
	if err != nil {
		return err
	}
	if ethcrypto.PubkeyToAddress(*recovered) != common.HexToAddress(address) {
		return errBadSignature
	}
	return nil
}
