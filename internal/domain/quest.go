package domain

import "time"

// VerificationType tells how a quest completion is checked.
type VerificationType string

const (
	// VerificationManual quests (social follows) are trusted on the client trigger.
	VerificationManual VerificationType = "manual"
	// VerificationInternal quests compare a progress counter with RequirementValue.
	VerificationInternal VerificationType = "internal"
	// VerificationPartner quests are confirmed by the partner API and grant a quest bonus.
	VerificationPartner VerificationType = "partner"
)

// Quest is a catalog entry edited only through the admin API.
type Quest struct {
	ID               int64            `db:"id" json:"id"`
	Title            string           `db:"title" json:"title"`
	Description      string           `db:"description" json:"description"`
	RequirementType  string           `db:"requirement_type" json:"requirement_type"`
	RequirementValue int64            `db:"requirement_value" json:"requirement_value"`
	RewardBricks     int64            `db:"reward_bricks" json:"reward_bricks"`
	VerificationType VerificationType `db:"verification_type" json:"verification_type"`
	ExternalURL      string           `db:"external_url" json:"external_url,omitempty"`
	BonusDays        int              `db:"bonus_days" json:"bonus_days,omitempty"`
	IsActive         bool             `db:"is_active" json:"is_active"`
	SortOrder        int              `db:"sort_order" json:"sort_order"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// QuestCompletion records that a user completed a quest. At most one per (user, quest).
type QuestCompletion struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	QuestID      int64     `db:"quest_id" json:"quest_id"`
	RewardBricks int64     `db:"reward_bricks" json:"reward_bricks"`
	CompletedAt  time.Time `db:"completed_at" json:"completed_at"`
}
