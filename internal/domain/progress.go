package domain

import "time"

// GameProgress is the per-user tap state. Level is derived from Bricks and
// must always equal the capped level for the owner's entitlements.
type GameProgress struct {
	UserID               int64      `db:"user_id" json:"user_id"`
	Bricks               int64      `db:"bricks" json:"bricks"`
	Level                int        `db:"level" json:"level"`
	Energy               int        `db:"energy" json:"energy"`
	LastTapAt            *time.Time `db:"last_tap_at" json:"last_tap_at,omitempty"`
	TotalTaps            int64      `db:"total_taps" json:"total_taps"`
	TotalBricksEarned    int64      `db:"total_bricks_earned" json:"total_bricks_earned"`
	BoostMultiplier      float64    `db:"boost_multiplier" json:"boost_multiplier"`
	BoostExpiresAt       *time.Time `db:"boost_expires_at" json:"boost_expires_at,omitempty"`
	BoostType            string     `db:"boost_type" json:"boost_type,omitempty"`
	QuestBonusMultiplier float64    `db:"quest_bonus_multiplier" json:"quest_bonus_multiplier"`
	QuestBonusExpiresAt  *time.Time `db:"quest_bonus_expires_at" json:"quest_bonus_expires_at,omitempty"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// TapEvent is the analytics record appended for every successful tap.
type TapEvent struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	Reward         int64     `db:"reward" json:"reward"`
	Multiplier     float64   `db:"multiplier" json:"multiplier"`
	EnergyConsumed int       `db:"energy_consumed" json:"energy_consumed"`
	SessionID      string    `db:"session_id" json:"session_id,omitempty"`
	IP             string    `db:"ip" json:"ip,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// LeaderboardEntry is one row of the bricks leaderboard.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        int64  `json:"user_id"`
	WalletAddress string `json:"wallet_address"`
	Level         int    `json:"level"`
	Bricks        int64  `json:"bricks"`
	IsPremium     bool   `json:"is_premium"`
	HasBattlePass bool   `json:"has_battle_pass"`
}
