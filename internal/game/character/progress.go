package character

import (
	"math"

	"github.com/cory-johannsen/farmspot/internal/game/progression"
)

// GainExperience adds amount to the character's experience and applies any
// resulting level-ups: the level is re-resolved from the new total and the
// stat point rewards are credited.
//
// Precondition: amount >= 0; negative amounts are ignored.
// Postcondition: Experience never decreases; Level == progression.LevelFromExperience(Experience).
func (c *Character) GainExperience(amount int64) progression.LevelUp {
	if amount < 0 {
		amount = 0
	}
	old := c.Experience
	c.Experience += amount
	lu := progression.CheckLevelUp(old, c.Experience)
	if lu.LeveledUp {
		c.Level = lu.NewLevel
		c.StatPoints += lu.StatPoints
		c.Recalculate()
	}
	return lu
}

// Regenerate applies one regeneration tick to health and mana using the
// character's regen rates. A character in combat does not regenerate.
//
// Postcondition: Returns true iff a pool changed; pools never exceed their maxima.
func (c *Character) Regenerate() bool {
	if c.InCombat {
		return false
	}
	hp, mp := c.CurrentHealth, c.CurrentMana
	c.CurrentHealth += int(math.Round(c.HealthRegen))
	c.CurrentMana += int(math.Round(c.ManaRegen))
	c.Clamp()
	return hp != c.CurrentHealth || mp != c.CurrentMana
}
