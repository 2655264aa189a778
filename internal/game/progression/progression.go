// Package progression implements the experience curve, level resolution and
// level-up stat point rewards.
package progression

import "math"

const (
	// MaxLevel is the highest level a character can reach.
	MaxLevel = 100

	// BaseExperience is the experience required to go from level 1 to level 2.
	BaseExperience = 1000
	// GrowthFactor is the exponential growth of the per-level requirement.
	GrowthFactor = 1.15
	// LinearExperience is added per level above 2 so early levels do not flatten out.
	LinearExperience = 500

	// BaseStatPoints is the stat point reward for every level gained.
	BaseStatPoints = 5
	// MilestoneStatPoints is the bonus reward for reaching a milestone level.
	MilestoneStatPoints = 10
	// MilestoneInterval is the spacing of milestone levels.
	MilestoneInterval = 10
)

// cumulative[l] holds TotalExperienceForLevel(l) for l in [0, MaxLevel].
var cumulative = buildCumulative()

func buildCumulative() [MaxLevel + 1]int64 {
	var table [MaxLevel + 1]int64
	for l := 2; l <= MaxLevel; l++ {
		table[l] = table[l-1] + ExperienceForLevel(l)
	}
	return table
}

// ExperienceForLevel returns the experience needed to advance from level-1 to level.
//
// Postcondition: Returns 0 for level <= 1; otherwise
// floor(BaseExperience * GrowthFactor^(level-2) + LinearExperience*(level-2)).
func ExperienceForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	n := float64(level - 2)
	return int64(math.Floor(BaseExperience*math.Pow(GrowthFactor, n) + LinearExperience*n))
}

// TotalExperienceForLevel returns the cumulative experience needed to reach level.
//
// Postcondition: Returns the sum of ExperienceForLevel(i) for i in [2, level];
// 0 for level <= 1.
func TotalExperienceForLevel(level int) int64 {
	switch {
	case level <= 1:
		return 0
	case level <= MaxLevel:
		return cumulative[level]
	}
	total := cumulative[MaxLevel]
	for l := MaxLevel + 1; l <= level; l++ {
		total += ExperienceForLevel(l)
	}
	return total
}

// LevelFromExperience resolves the level supported by totalExp.
//
// Postcondition: Returns a level in [1, MaxLevel] with
// TotalExperienceForLevel(level) <= totalExp (for totalExp >= 0); the result
// never decreases as totalExp grows.
func LevelFromExperience(totalExp int64) int {
	level := 1
	for level < MaxLevel && cumulative[level+1] <= totalExp {
		level++
	}
	return level
}

// Progress describes how far a character is into its current level.
type Progress struct {
	Level int
	// Current is the experience earned since reaching Level.
	Current int64
	// Required is the experience Level+1 costs; 0 at MaxLevel.
	Required int64
	// Percent is Current/Required as a percentage in [0, 100].
	Percent float64
}

// LevelProgress reports the level and in-level progress for totalExp.
//
// Postcondition: Percent is in [0, 100]; at MaxLevel Required is 0 and Percent is 100.
func LevelProgress(totalExp int64) Progress {
	level := LevelFromExperience(totalExp)
	p := Progress{
		Level:   level,
		Current: totalExp - TotalExperienceForLevel(level),
	}
	if level >= MaxLevel {
		p.Percent = 100
		return p
	}
	p.Required = ExperienceForLevel(level + 1)
	p.Percent = clampPercent(float64(p.Current) / float64(p.Required) * 100)
	return p
}

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// StatPointsForLevel returns the stat point reward for reaching level.
//
// Postcondition: Returns BaseStatPoints, plus MilestoneStatPoints when level is
// a multiple of MilestoneInterval.
func StatPointsForLevel(level int) int {
	points := BaseStatPoints
	if level%MilestoneInterval == 0 {
		points += MilestoneStatPoints
	}
	return points
}

// LevelUp summarizes the effect of an experience change.
type LevelUp struct {
	OldLevel   int
	NewLevel   int
	LeveledUp  bool
	StatPoints int
}

// CheckLevelUp compares the levels resolved before and after an experience gain.
//
// Precondition: newExp >= oldExp.
// Postcondition: StatPoints is the sum of StatPointsForLevel over every level in
// (OldLevel, NewLevel]; zero when LeveledUp is false.
func CheckLevelUp(oldExp, newExp int64) LevelUp {
	lu := LevelUp{
		OldLevel: LevelFromExperience(oldExp),
		NewLevel: LevelFromExperience(newExp),
	}
	if lu.NewLevel <= lu.OldLevel {
		return lu
	}
	lu.LeveledUp = true
	for l := lu.OldLevel + 1; l <= lu.NewLevel; l++ {
		lu.StatPoints += StatPointsForLevel(l)
	}
	return lu
}
