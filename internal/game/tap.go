package game

import (
	"time"

	"pyramid_empire/internal/domain"
)

const (
	TapCooldown  = 2 * time.Second
	MaxEnergy    = 100
	EnergyPerTap = 1
)

// TapState is derived on every call and never stored.
type TapState string

const (
	TapReady       TapState = "ready"
	TapCoolingDown TapState = "cooling_down"
	TapOutOfEnergy TapState = "out_of_energy"
)

// Readiness derives whether a tap may proceed. wait is the remaining cooldown
// when the state is TapCoolingDown. Unlimited users are always ready.
func Readiness(p *domain.GameProgress, unlimited bool, now time.Time) (state TapState, wait time.Duration) {
	if unlimited {
		return TapReady, 0
	}
	if p.LastTapAt != nil {
		if elapsed := now.Sub(*p.LastTapAt); elapsed < TapCooldown {
			return TapCoolingDown, TapCooldown - elapsed
		}
	}
	if p.Energy <= 0 {
		return TapOutOfEnergy, 0
	}
	return TapReady, 0
}

// TapInput is everything ApplyTap needs; Progress is not modified.
type TapInput struct {
	User               domain.User
	Progress           domain.GameProgress
	ActivatedReferrals int
	Now                time.Time
}

// TapOutcome is the result of one accepted tap.
type TapOutcome struct {
	Progress       domain.GameProgress
	Reward         int64
	Multipliers    Multipliers
	Multiplier     float64
	EnergyConsumed int
	OldLevel       int
	LeveledUp      bool
	IsLevelCapped  bool
	BoostExpired   bool
	XP             XPProgress
}

// ApplyTap validates readiness and computes the progress after one tap.
func ApplyTap(in TapInput) (*TapOutcome, error) {
	now := in.Now
	unlimited := in.User.Unlimited(now)

	switch state, _ := Readiness(&in.Progress, unlimited, now); state {
	case TapCoolingDown:
		return nil, domain.ErrCooldownActive
	case TapOutOfEnergy:
		return nil, domain.ErrNoEnergy
	}

	p := in.Progress
	out := &TapOutcome{OldLevel: in.Progress.Level}

	boost, expired := EffectiveBoost(&p, now)
	if expired {
		ClearBoost(&p)
		out.BoostExpired = true
	}

	battlePass := in.User.HasBattlePass(now)
	m := Multipliers{
		Boost:              boost,
		BattlePass:         battlePass,
		ActivatedReferrals: in.ActivatedReferrals,
		QuestBonus:         EffectiveQuestBonus(&p, now),
	}
	reward := m.TapReward()

	consumed := EnergyPerTap
	if unlimited {
		consumed = 0
	}
	p.Energy -= consumed
	if p.Energy < 0 {
		p.Energy = 0
	}

	p.Bricks += reward
	p.TotalTaps++
	p.TotalBricksEarned += reward

	level, capped := ResolveLevel(p.Bricks, in.User.IsPremium, battlePass)
	p.Level = level
	tappedAt := now
	p.LastTapAt = &tappedAt

	out.Progress = p
	out.Reward = reward
	out.Multipliers = m
	out.Multiplier = m.Total()
	out.EnergyConsumed = consumed
	out.IsLevelCapped = capped
	out.LeveledUp = level > out.OldLevel && !capped
	out.XP = Progress(p.Bricks, level)
	return out, nil
}

// Heal recomputes the derived level and clears a lapsed boost. It reports
// whether p changed and must be written back.
func Heal(p *domain.GameProgress, u *domain.User, now time.Time) (changed, capped bool) {
	if _, expired := EffectiveBoost(p, now); expired {
		ClearBoost(p)
		changed = true
	}
	level, capped := ResolveLevel(p.Bricks, u.IsPremium, u.HasBattlePass(now))
	if level != p.Level {
		p.Level = level
		changed = true
	}
	if p.Energy > MaxEnergy {
		p.Energy = MaxEnergy
		changed = true
	}
	return changed, capped
}
