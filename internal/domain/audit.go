package domain

import "time"

// AuditLog represents an audit log entry for tracking important actions
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryAuth    = "auth"
	AuditCategoryGame    = "game"
	AuditCategoryPayment = "payment"
	AuditCategoryAdmin   = "admin"
)

// Audit actions
const (
	AuditActionLogin = "login"

	AuditActionClaim         = "claim"
	AuditActionQuestComplete = "quest_complete"

	AuditActionPurchase       = "purchase"
	AuditActionPurchaseFailed = "purchase_failed"

	AuditActionAdminBanUser         = "admin_ban_user"
	AuditActionAdminUnbanUser       = "admin_unban_user"
	AuditActionAdminGrantBoost      = "admin_grant_boost"
	AuditActionAdminGrantQuestBonus = "admin_grant_quest_bonus"
	AuditActionAdminGrantPremium    = "admin_grant_premium"
	AuditActionAdminQuestCreate     = "admin_quest_create"
	AuditActionAdminQuestUpdate     = "admin_quest_update"
	AuditActionAdminQuestDelete     = "admin_quest_delete"
)
