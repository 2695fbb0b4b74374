package progression

import "math"

// Leveling curve: each level requires floor(100 * 1.5^(level-1)) EXP.
const (
	baseExpRequirement = 100
	expGrowthFactor    = 1.5
)

// ExpToNextLevel returns the EXP required to advance from level to level+1.
// The status view and the leveling loop both call this, so the reported
// "progress needed" can never drift from the level-up math.
func ExpToNextLevel(level int) int64 {
	return int64(baseExpRequirement * math.Pow(expGrowthFactor, float64(level-1)))
}

// ApplyExp grants EXP on top of the current level/exp pair and runs the
// level-up loop. The threshold subtracted at each step is the one checked
// before the increment, truncated to an integer, so a single large grant can
// produce several level-ups. The returned exp is always below the new level's
// threshold.
func ApplyExp(level int, exp, gained int64) (newLevel int, newExp int64) {
	newLevel = level
	newExp = exp + gained

	for threshold := ExpToNextLevel(newLevel); newExp >= threshold; threshold = ExpToNextLevel(newLevel) {
		newLevel++
		newExp -= threshold
	}
	return newLevel, newExp
}
