package domain

import "time"

// Referral is the edge between a referrer and the user they brought in.
type Referral struct {
	ID          int64      `db:"id" json:"id"`
	ReferrerID  int64      `db:"referrer_id" json:"referrer_id"`
	ReferredID  int64      `db:"referred_id" json:"referred_id"`
	Activated   bool       `db:"activated" json:"activated"`
	ActivatedAt *time.Time `db:"activated_at" json:"activated_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

type ReferralStats struct {
	Total     int `json:"total"`
	Activated int `json:"activated"`
}
