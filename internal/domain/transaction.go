package domain

import "time"

// TransactionStatus moves pending -> confirmed|failed and never back.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionConfirmed TransactionStatus = "confirmed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction kinds
const (
	TransactionKindPurchase = "purchase"
	TransactionKindClaim    = "claim"
)

// Transaction is an on-chain payment attempt or an internal token claim.
// TxHash is unique for purchases; claims carry no hash.
type Transaction struct {
	ID            int64                  `db:"id" json:"id"`
	UserID        int64                  `db:"user_id" json:"user_id"`
	Kind          string                 `db:"kind" json:"kind"`
	TxHash        *string                `db:"tx_hash" json:"tx_hash,omitempty"`
	ItemID        string                 `db:"item_id" json:"item_id,omitempty"`
	Amount        int64                  `db:"amount" json:"amount"`
	Status        TransactionStatus      `db:"status" json:"status"`
	FailureReason string                 `db:"failure_reason" json:"failure_reason,omitempty"`
	Meta          map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt     time.Time              `db:"created_at" json:"created_at"`
	ConfirmedAt   *time.Time             `db:"confirmed_at" json:"confirmed_at,omitempty"`
}
