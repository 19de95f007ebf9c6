package game

import "math"

const (
	// BaseTapReward is the bricks one tap yields before multipliers.
	BaseTapReward = 1
	// BattlePassBoostFloor is the minimum boost for battle pass holders.
	BattlePassBoostFloor = 5.0
	// BattlePassBonus is the flat bonus applied on top of the boost.
	BattlePassBonus = 1.1
	// ReferralBonusStep is added per activated referral (battle pass holders only).
	ReferralBonusStep = 0.1
	// QuestBonus is the multiplier granted by partner quests while active.
	QuestBonus = 1.2

	floorEpsilon = 1e-9
)

// Multipliers are the inputs combined into the reward of a single tap.
// Zero values mean "absent" and count as 1.
type Multipliers struct {
	Boost              float64 `json:"boost"`
	BattlePass         bool    `json:"battle_pass"`
	ActivatedReferrals int     `json:"activated_referrals"`
	QuestBonus         float64 `json:"quest_bonus"`
}

// EffectiveBoost applies the battle pass floor to the stored boost.
func (m Multipliers) EffectiveBoost() float64 {
	boost := m.Boost
	if boost == 0 {
		boost = 1
	}
	if m.BattlePass && boost < BattlePassBoostFloor {
		boost = BattlePassBoostFloor
	}
	return boost
}

func (m Multipliers) BattlePassFactor() float64 {
	if m.BattlePass {
		return BattlePassBonus
	}
	return 1
}

// ReferralFactor is 1 + 0.1 per activated referral for battle pass holders.
func (m Multipliers) ReferralFactor() float64 {
	if !m.BattlePass || m.ActivatedReferrals <= 0 {
		return 1
	}
	return 1 + ReferralBonusStep*float64(m.ActivatedReferrals)
}

func (m Multipliers) QuestFactor() float64 {
	if m.QuestBonus == 0 {
		return 1
	}
	return m.QuestBonus
}

// Total is the combined multiplier recorded with each tap.
func (m Multipliers) Total() float64 {
	return m.EffectiveBoost() * m.BattlePassFactor() * m.ReferralFactor() * m.QuestFactor()
}

// TapReward is floor(BaseTapReward * Total()), never less than 1.
func (m Multipliers) TapReward() int64 {
	reward := int64(math.Floor(BaseTapReward*m.Total() + floorEpsilon))
	if reward < 1 {
		return 1
	}
	return reward
}
