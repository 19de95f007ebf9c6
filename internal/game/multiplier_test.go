package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTapReward(t *testing.T) {
	cases := []struct {
		name   string
		m      Multipliers
		reward int64
	}{
		{"zero value", Multipliers{}, 1},
		{"plain", Multipliers{Boost: 1, QuestBonus: 1}, 1},
		{"quest bonus alone rounds down", Multipliers{QuestBonus: QuestBonus}, 1},
		{"x2 boost", Multipliers{Boost: 2}, 2},
		{"x2 boost with quest bonus", Multipliers{Boost: 2, QuestBonus: QuestBonus}, 2},
		{"x10 boost", Multipliers{Boost: 10}, 10},
		{"battle pass floor", Multipliers{BattlePass: true}, 5},
		{"battle pass keeps larger boost", Multipliers{Boost: 10, BattlePass: true}, 11},
		{"battle pass with referrals", Multipliers{BattlePass: true, ActivatedReferrals: 2}, 6},
		{"referrals ignored without battle pass", Multipliers{Boost: 2, ActivatedReferrals: 5}, 2},
		{"battle pass stacks everything", Multipliers{Boost: 10, BattlePass: true, ActivatedReferrals: 10, QuestBonus: QuestBonus}, 26},
		{"fractional boost floors to one", Multipliers{Boost: 0.01, QuestBonus: 0.5}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.reward, tc.m.TapReward())
		})
	}
}

func TestMultipliersFactors(t *testing.T) {
	m := Multipliers{Boost: 2, BattlePass: true, ActivatedReferrals: 3, QuestBonus: QuestBonus}
	assert.Equal(t, BattlePassBoostFloor, m.EffectiveBoost())
	assert.Equal(t, BattlePassBonus, m.BattlePassFactor())
	assert.InDelta(t, 1.3, m.ReferralFactor(), 1e-9)
	assert.Equal(t, QuestBonus, m.QuestFactor())
	assert.InDelta(t, 5*1.1*1.3*1.2, m.Total(), 1e-9)

	free := Multipliers{ActivatedReferrals: 3}
	assert.Equal(t, 1.0, free.ReferralFactor())
	assert.Equal(t, 1.0, free.Total())
}
