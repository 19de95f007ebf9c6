package game

import "math"

const (
	// BaseXP is the XP needed to leave level 1.
	BaseXP = 100
	// XPExponent shapes the curve: XPForLevel(n) = floor(BaseXP * n^XPExponent).
	XPExponent = 1.5
	// FreeLevelCap is the highest level shown to users without premium or battle pass.
	FreeLevelCap = 3
)

// XPProgress describes how far a user is into the current level.
type XPProgress struct {
	Current int64 `json:"current"`
	Needed  int64 `json:"needed"`
	Percent int   `json:"percent"`
}

// XPForLevel returns the XP required to advance from level to level+1.
func XPForLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(math.Floor(BaseXP * math.Pow(float64(level), XPExponent)))
}

// TotalXPForLevel returns the cumulative XP needed to reach level.
func TotalXPForLevel(level int) int64 {
	var total int64
	for i := 1; i < level; i++ {
		total += XPForLevel(i)
	}
	return total
}

// LevelFromXP returns the highest level whose cumulative threshold is <= totalXP.
func LevelFromXP(totalXP int64) int {
	level := 1
	var acc int64
	for {
		next := acc + XPForLevel(level)
		if totalXP < next {
			return level
		}
		acc = next
		level++
	}
}

// Progress splits totalXP into the part earned inside level and the amount
// the level requires. Percent is clamped to [0, 100]; capped users can sit
// far beyond the displayed level.
func Progress(totalXP int64, level int) XPProgress {
	current := totalXP - TotalXPForLevel(level)
	if current < 0 {
		current = 0
	}
	needed := XPForLevel(level)

	percent := int(current * 100 / needed)
	if percent > 100 {
		percent = 100
	}

	return XPProgress{Current: current, Needed: needed, Percent: percent}
}

// ApplyLevelCap clamps level to FreeLevelCap for users without premium or
// battle pass. capped is true only when the clamp lowered the value.
func ApplyLevelCap(level int, premium, battlePass bool) (int, bool) {
	if premium || battlePass {
		return level, false
	}
	if level > FreeLevelCap {
		return FreeLevelCap, true
	}
	return level, false
}

// ResolveLevel is the level a progress row must store for the given bricks.
func ResolveLevel(bricks int64, premium, battlePass bool) (int, bool) {
	return ApplyLevelCap(LevelFromXP(bricks), premium, battlePass)
}
