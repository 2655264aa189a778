package character_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/farmspot/internal/game/character"
	"github.com/cory-johannsen/farmspot/internal/game/progression"
)

func newHero(t *testing.T) *character.Character {
	t.Helper()
	c, err := character.New("Hero", "warrior", character.Attributes{Strength: 10, Dexterity: 5, Vitality: 5, Energy: 4})
	require.NoError(t, err)
	return c
}

func TestAttributes_Value(t *testing.T) {
	a := character.Attributes{Strength: 1, Dexterity: 2, Intelligence: 3, Vitality: 4, Energy: 5, Luck: 6}
	for i, name := range character.AttributeNames {
		assert.Equal(t, i+1, a.Value(name), name)
	}
	assert.Zero(t, a.Value("charisma"))
}

func TestAllocate_RaisesAttributeAndPools(t *testing.T) {
	c := newHero(t)
	c.StatPoints = 5
	require.NoError(t, c.Allocate(character.Vitality, 3))
	assert.Equal(t, 8, c.Attributes.Vitality)
	assert.Equal(t, 2, c.StatPoints)
	assert.Equal(t, 180, c.MaxHealth)
}

func TestAllocate_Errors(t *testing.T) {
	c := newHero(t)
	c.StatPoints = 2

	err := c.Allocate(character.Luck, 3)
	assert.True(t, errors.Is(err, character.ErrInsufficientStatPoints))

	err = c.Allocate("charisma", 1)
	assert.True(t, errors.Is(err, character.ErrUnknownAttribute))

	assert.Error(t, c.Allocate(character.Luck, 0))
	assert.Equal(t, 2, c.StatPoints)
}

func TestRecalculate_ClampsPools(t *testing.T) {
	c := newHero(t)
	c.CurrentHealth = 10_000
	c.CurrentMana = -4
	c.Recalculate()
	assert.Equal(t, c.MaxHealth, c.CurrentHealth)
	assert.Zero(t, c.CurrentMana)
}

func TestGainExperience_LevelsUpAndCreditsPoints(t *testing.T) {
	c := newHero(t)
	lu := c.GainExperience(progression.TotalExperienceForLevel(3))
	require.True(t, lu.LeveledUp)
	assert.Equal(t, 3, c.Level)
	assert.Equal(t, 10, c.StatPoints)
}

func TestGainExperience_IgnoresNegative(t *testing.T) {
	c := newHero(t)
	c.Experience = 500
	lu := c.GainExperience(-100)
	assert.False(t, lu.LeveledUp)
	assert.Equal(t, int64(500), c.Experience)
}

func TestGainExperience_ExperienceNeverDecreases(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c, err := character.New("Hero", "mage", character.Attributes{})
		require.NoError(rt, err)
		gains := rapid.SliceOfN(rapid.Int64Range(-1000, 50_000), 1, 20).Draw(rt, "gains")
		for _, g := range gains {
			before := c.Experience
			c.GainExperience(g)
			assert.GreaterOrEqual(rt, c.Experience, before)
			assert.Equal(rt, progression.LevelFromExperience(c.Experience), c.Level)
		}
	})
}

func TestRegenerate(t *testing.T) {
	c := newHero(t)
	c.CurrentHealth = 10
	c.CurrentMana = 0
	assert.True(t, c.Regenerate())
	assert.Equal(t, 12, c.CurrentHealth) // 1 + 5*0.1 + 1*0.05 = 1.55 -> 2
	assert.Equal(t, 1, c.CurrentMana)    // 1 + 4*0.1 = 1.4 -> 1
}

func TestRegenerate_SkippedInCombat(t *testing.T) {
	c := newHero(t)
	c.CurrentHealth = 10
	c.InCombat = true
	assert.False(t, c.Regenerate())
	assert.Equal(t, 10, c.CurrentHealth)
}

func TestRegenerate_NeverExceedsMax(t *testing.T) {
	c := newHero(t)
	assert.False(t, c.Regenerate())
	assert.Equal(t, c.MaxHealth, c.CurrentHealth)
	assert.True(t, c.IsFullyRecovered())
}

func TestUpdate_Apply(t *testing.T) {
	c := newHero(t)
	hp := 1
	gold := int64(40)
	inCombat := true
	upd := character.Update{CurrentHealth: &hp, Gold: &gold, InCombat: &inCombat}
	assert.False(t, upd.IsEmpty())
	upd.Apply(c)
	assert.Equal(t, 1, c.CurrentHealth)
	assert.Equal(t, int64(40), c.Gold)
	assert.True(t, c.InCombat)
	assert.Equal(t, 1, c.Level)
	assert.True(t, character.Update{}.IsEmpty())
}
