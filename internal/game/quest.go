package game

import (
	"strings"

	"pyramid_empire/internal/domain"
)

// RequirementCategory names the progress counter a quest is checked against.
type RequirementCategory string

const (
	RequirementLevel    RequirementCategory = "level"
	RequirementTaps     RequirementCategory = "tap"
	RequirementReferral RequirementCategory = "referral"
	RequirementBricks   RequirementCategory = "bricks"
	RequirementPurchase RequirementCategory = "purchase"
	RequirementNone     RequirementCategory = "none"
)

// CategoryOf matches requirementType by substring; the first match wins.
func CategoryOf(requirementType string) RequirementCategory {
	t := strings.ToLower(requirementType)
	switch {
	case strings.Contains(t, "level"):
		return RequirementLevel
	case strings.Contains(t, "tap"):
		return RequirementTaps
	case strings.Contains(t, "referral"):
		return RequirementReferral
	case strings.Contains(t, "brick"), strings.Contains(t, "stack"):
		return RequirementBricks
	case strings.Contains(t, "purchase"):
		return RequirementPurchase
	}
	return RequirementNone
}

// QuestStats are the counters quests are checked against.
type QuestStats struct {
	Level     int   `json:"level"`
	TotalTaps int64 `json:"total_taps"`
	Referrals int   `json:"referrals"`
	Bricks    int64 `json:"bricks"`
	Purchases int   `json:"purchases"`
}

// Counter returns the stat for category; ok is false for RequirementNone.
func (s QuestStats) Counter(category RequirementCategory) (value int64, ok bool) {
	switch category {
	case RequirementLevel:
		return int64(s.Level), true
	case RequirementTaps:
		return s.TotalTaps, true
	case RequirementReferral:
		return int64(s.Referrals), true
	case RequirementBricks:
		return s.Bricks, true
	case RequirementPurchase:
		return int64(s.Purchases), true
	}
	return 0, false
}

// RequirementMet reports whether the user's stats satisfy q. Manual and
// partner quests are not counter gated; partner checks happen remotely.
func RequirementMet(q *domain.Quest, s QuestStats) bool {
	if q.VerificationType == domain.VerificationManual || q.VerificationType == domain.VerificationPartner {
		return true
	}
	value, ok := s.Counter(CategoryOf(q.RequirementType))
	if !ok {
		return q.RequirementValue <= 0
	}
	return value >= q.RequirementValue
}
