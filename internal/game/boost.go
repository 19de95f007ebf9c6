package game

import (
	"strconv"
	"time"

	"pyramid_empire/internal/domain"
)

// EffectiveBoost returns the boost multiplier in force at now. expired is
// true when a stored boost has lapsed and the row should be cleared.
func EffectiveBoost(p *domain.GameProgress, now time.Time) (multiplier float64, expired bool) {
	if p.BoostExpiresAt == nil {
		return 1, false
	}
	if now.After(*p.BoostExpiresAt) {
		return 1, true
	}
	if p.BoostMultiplier <= 0 {
		return 1, false
	}
	return p.BoostMultiplier, false
}

// ClearBoost resets the boost fields to the no-boost state.
func ClearBoost(p *domain.GameProgress) {
	p.BoostMultiplier = 1
	p.BoostExpiresAt = nil
	p.BoostType = ""
}

// EffectiveQuestBonus returns the quest bonus multiplier in force at now.
func EffectiveQuestBonus(p *domain.GameProgress, now time.Time) float64 {
	if p.QuestBonusExpiresAt == nil || now.After(*p.QuestBonusExpiresAt) {
		return 1
	}
	if p.QuestBonusMultiplier <= 0 {
		return 1
	}
	return p.QuestBonusMultiplier
}

// GrantBoost replaces any current boost. Boosts never stack.
func GrantBoost(p *domain.GameProgress, multiplier float64, duration time.Duration, now time.Time) {
	expires := now.Add(duration)
	p.BoostMultiplier = multiplier
	p.BoostExpiresAt = &expires
	p.BoostType = BoostTypeFor(multiplier)
}

// GrantQuestBonus replaces any current quest bonus window.
func GrantQuestBonus(p *domain.GameProgress, multiplier float64, duration time.Duration, now time.Time) {
	expires := now.Add(duration)
	p.QuestBonusMultiplier = multiplier
	p.QuestBonusExpiresAt = &expires
}

// BoostTypeFor derives the label stored next to a boost, e.g. "x5".
func BoostTypeFor(multiplier float64) string {
	return "x" + strconv.FormatFloat(multiplier, 'f', -1, 64)
}

// BoostStatus is the read-side view of a boost or quest bonus window.
type BoostStatus struct {
	Active     bool       `json:"active"`
	Multiplier float64    `json:"multiplier"`
	Type       string     `json:"type,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Remaining  int64      `json:"remaining_seconds"`
}

func boostStatus(multiplier float64, expiresAt *time.Time, label string, now time.Time) BoostStatus {
	if expiresAt == nil || now.After(*expiresAt) || multiplier <= 1 {
		return BoostStatus{Multiplier: 1}
	}
	return BoostStatus{
		Active:     true,
		Multiplier: multiplier,
		Type:       label,
		ExpiresAt:  expiresAt,
		Remaining:  int64(expiresAt.Sub(now).Seconds()),
	}
}

func BoostStatusOf(p *domain.GameProgress, now time.Time) BoostStatus {
	return boostStatus(p.BoostMultiplier, p.BoostExpiresAt, p.BoostType, now)
}

func QuestBonusStatusOf(p *domain.GameProgress, now time.Time) BoostStatus {
	return boostStatus(p.QuestBonusMultiplier, p.QuestBonusExpiresAt, "", now)
}
