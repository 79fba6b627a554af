package skills

import "math"

// Level returns the level reached with totalXP. Reaching level N costs
// BaseXP * N^LevelExponent on top of level N-1.
func Level(totalXP int64) int {
	level, _ := levelAndNextXP(totalXP)
	return level
}

// XPForLevel returns the cumulative XP required to reach level from level 0
func XPForLevel(level int) int64 {
	if level <= 0 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}

	cumulative := int64(0)
	for i := 1; i <= level; i++ {
		cumulative += stepXP(i)
	}
	return cumulative
}

// Progress returns the current level and the XP still needed for the next one.
// At MaxLevel the remaining XP is zero.
func Progress(totalXP int64) (level int, xpToNext int64) {
	level, next := levelAndNextXP(totalXP)
	if level >= MaxLevel {
		return level, 0
	}
	return level, next - totalXP
}

// levelAndNextXP computes the level and the cumulative XP required for the next level
func levelAndNextXP(totalXP int64) (int, int64) {
	if totalXP <= 0 {
		return 0, stepXP(1)
	}

	level := 0
	cumulative := int64(0)
	for level < MaxLevel {
		step := stepXP(level + 1)
		if cumulative+step > totalXP {
			return level, cumulative + step
		}
		cumulative += step
		level++
	}
	return level, cumulative
}

func stepXP(level int) int64 {
	return int64(BaseXP * math.Pow(float64(level), LevelExponent))
}
