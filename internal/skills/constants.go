package skills

const (
	// BaseXP is the base XP value used in level calculations
	BaseXP = 83.0

	// LevelExponent is the exponent used in the XP formula: XP = BaseXP * (Level ^ LevelExponent)
	LevelExponent = 1.5

	// MaxLevel caps the level curve
	MaxLevel = 99

	// MaxAward bounds a single award
	MaxAward = 1_000_000
)

// Log messages
const (
	LogMsgXPAwarded = "Awarded skill XP"
	LogMsgLevelUp   = "Skill level up"
)
