package domain

import "time"

// User is a player identified by wallet address.
type User struct {
	ID                  int64      `db:"id" json:"id"`
	WalletAddress       string     `db:"wallet_address" json:"wallet_address"`
	ReferralCode        string     `db:"referral_code" json:"referral_code"`
	ReferredBy          *int64     `db:"referred_by" json:"referred_by,omitempty"`
	IsPremium           bool       `db:"is_premium" json:"is_premium"`
	BattlePassExpiresAt *time.Time `db:"battle_pass_expires_at" json:"battle_pass_expires_at,omitempty"`
	IsBanned            bool       `db:"is_banned" json:"is_banned"`
	TokenBalance        int64      `db:"token_balance" json:"token_balance"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}

// HasBattlePass reports whether the battle pass is active at now.
func (u *User) HasBattlePass(now time.Time) bool {
	return u.BattlePassExpiresAt != nil && now.Before(*u.BattlePassExpiresAt)
}

// Unlimited reports whether the user skips the tap cooldown and energy checks.
func (u *User) Unlimited(now time.Time) bool {
	return u.IsPremium || u.HasBattlePass(now)
}
