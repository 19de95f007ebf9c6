package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXPForLevel(t *testing.T) {
	assert.Equal(t, int64(100), XPForLevel(1))
	assert.Equal(t, int64(282), XPForLevel(2))
	assert.Equal(t, int64(519), XPForLevel(3))
	assert.Equal(t, int64(800), XPForLevel(4))
	assert.Equal(t, XPForLevel(1), XPForLevel(0))
	assert.Equal(t, XPForLevel(1), XPForLevel(-5))

	for n := 1; n < 200; n++ {
		require.Greater(t, XPForLevel(n+1), XPForLevel(n), "level %d", n)
	}
}

func TestTotalXPForLevel(t *testing.T) {
	assert.Equal(t, int64(0), TotalXPForLevel(1))
	assert.Equal(t, int64(0), TotalXPForLevel(0))
	assert.Equal(t, int64(100), TotalXPForLevel(2))
	assert.Equal(t, int64(382), TotalXPForLevel(3))
	assert.Equal(t, int64(901), TotalXPForLevel(4))
}

func TestLevelFromXP(t *testing.T) {
	cases := []struct {
		xp    int64
		level int
	}{
		{0, 1},
		{-10, 1},
		{99, 1},
		{100, 2},
		{381, 2},
		{382, 3},
		{900, 3},
		{901, 4},
		{2000, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, LevelFromXP(tc.xp), "xp %d", tc.xp)
	}
}

func TestLevelFromXPBrackets(t *testing.T) {
	for _, x := range []int64{0, 1, 50, 99, 100, 101, 381, 382, 1000, 12345, 999_999, 50_000_000} {
		level := LevelFromXP(x)
		require.GreaterOrEqual(t, level, 1)
		require.LessOrEqual(t, TotalXPForLevel(level), x, "xp %d", x)
		require.Less(t, x, TotalXPForLevel(level+1), "xp %d", x)
	}
}

func TestProgress(t *testing.T) {
	p := Progress(0, 1)
	assert.Equal(t, XPProgress{Current: 0, Needed: 100, Percent: 0}, p)

	p = Progress(241, 2)
	assert.Equal(t, int64(141), p.Current)
	assert.Equal(t, int64(282), p.Needed)
	assert.Equal(t, 50, p.Percent)

	// capped users sit far past their displayed level
	p = Progress(50_000, FreeLevelCap)
	assert.Equal(t, 100, p.Percent)

	// level ahead of bricks never goes negative
	p = Progress(10, 4)
	assert.Equal(t, int64(0), p.Current)
	assert.Equal(t, 0, p.Percent)
}

func TestProgressPercentBounds(t *testing.T) {
	for x := int64(0); x < 5000; x += 37 {
		for level := 1; level <= 6; level++ {
			p := Progress(x, level)
			require.GreaterOrEqual(t, p.Percent, 0)
			require.LessOrEqual(t, p.Percent, 100)
		}
	}
}

func TestApplyLevelCap(t *testing.T) {
	for level := 1; level <= 50; level++ {
		capped, _ := ApplyLevelCap(level, false, false)
		require.LessOrEqual(t, capped, FreeLevelCap)

		premium, wasCapped := ApplyLevelCap(level, true, false)
		require.Equal(t, level, premium)
		require.False(t, wasCapped)

		bp, wasCapped := ApplyLevelCap(level, false, true)
		require.Equal(t, level, bp)
		require.False(t, wasCapped)
	}

	level, capped := ApplyLevelCap(3, false, false)
	assert.Equal(t, 3, level)
	assert.False(t, capped, "reaching the cap exactly is not capped")

	level, capped = ApplyLevelCap(4, false, false)
	assert.Equal(t, 3, level)
	assert.True(t, capped)
}

func TestResolveLevel(t *testing.T) {
	level, capped := ResolveLevel(2000, false, false)
	assert.Equal(t, 3, level)
	assert.True(t, capped)

	level, capped = ResolveLevel(2000, true, false)
	assert.Equal(t, 5, level)
	assert.False(t, capped)
}
