package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrCooldownActive      = errors.New("tap cooldown active")
	ErrNoEnergy            = errors.New("no energy left")
	ErrAlreadyCompleted    = errors.New("quest already completed")
	ErrRequirementsNotMet  = errors.New("quest requirements not met")
	ErrPaymentVerification = errors.New("payment verification failed")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrValidation          = errors.New("validation error")
	ErrUserBanned          = errors.New("user is banned")
	ErrInsufficientBricks  = errors.New("not enough bricks")
	ErrUnauthorized        = errors.New("unauthorized")
)

// PaymentReason is the machine readable cause of a rejected purchase.
type PaymentReason string

const (
	ReasonAlreadyProcessed          PaymentReason = "AlreadyProcessed"
	ReasonNotFound                  PaymentReason = "NotFound"
	ReasonTxFailed                  PaymentReason = "TxFailed"
	ReasonInsufficientConfirmations PaymentReason = "InsufficientConfirmations"
	ReasonWrongContract             PaymentReason = "WrongContract"
	ReasonNoTransferEvent           PaymentReason = "NoTransferEvent"
	ReasonSenderMismatch            PaymentReason = "SenderMismatch"
	ReasonRecipientMismatch         PaymentReason = "RecipientMismatch"
	ReasonAmountTooLow              PaymentReason = "AmountTooLow"
	ReasonTimeout                   PaymentReason = "Timeout"
)

var paymentMessages = map[PaymentReason]string{
	ReasonAlreadyProcessed:          "transaction already processed",
	ReasonNotFound:                  "transaction not found on chain",
	ReasonTxFailed:                  "transaction reverted",
	ReasonInsufficientConfirmations: "transaction does not have enough confirmations yet",
	ReasonWrongContract:             "transaction is not a USDC transfer",
	ReasonNoTransferEvent:           "no USDC transfer found in transaction",
	ReasonSenderMismatch:            "transfer was not sent from your wallet",
	ReasonRecipientMismatch:         "transfer was not sent to the shop wallet",
	ReasonAmountTooLow:              "transfer amount is below the item price",
	ReasonTimeout:                   "payment was not confirmed in time",
}

// PaymentError is returned by the purchase flow when a transaction hash does
// not prove payment for the requested item.
type PaymentError struct {
	Reason PaymentReason
	Detail string
}

func NewPaymentError(reason PaymentReason, detail string) *PaymentError {
	return &PaymentError{Reason: reason, Detail: detail}
}

func (e *PaymentError) Error() string {
	msg, ok := paymentMessages[e.Reason]
	if !ok {
		msg = string(e.Reason)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

func (e *PaymentError) Unwrap() error {
	return ErrPaymentVerification
}

// Message returns the user facing text without internal detail.
func (e *PaymentError) Message() string {
	if msg, ok := paymentMessages[e.Reason]; ok {
		return msg
	}
	return string(e.Reason)
}
