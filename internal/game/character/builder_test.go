package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/farmspot/internal/game/character"
)

func TestNew_FullPoolsAtLevelOne(t *testing.T) {
	c, err := character.New("Hero", "warrior", character.Attributes{Strength: 10, Vitality: 5, Energy: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, c.Level)
	assert.Equal(t, "warrior", c.Class)
	assert.Equal(t, 150, c.MaxHealth)
	assert.Equal(t, 150, c.CurrentHealth)
	assert.Equal(t, 60, c.MaxMana)
	assert.Equal(t, 60, c.CurrentMana)
	assert.Equal(t, c.MaxStamina, c.CurrentStamina)
	assert.Zero(t, c.Experience)
	assert.Zero(t, c.StatPoints)
}

func TestNew_RejectsEmptyName(t *testing.T) {
	_, err := character.New("  ", "warrior", character.Attributes{})
	assert.Error(t, err)
}

func TestNew_RejectsEmptyClass(t *testing.T) {
	_, err := character.New("Hero", "", character.Attributes{})
	assert.Error(t, err)
}

func TestNew_RejectsNegativeAttribute(t *testing.T) {
	_, err := character.New("Hero", "mage", character.Attributes{Luck: -1})
	assert.Error(t, err)
}

func TestNew_PoolsMatchDerivedStats(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		attrs := drawAttributes(rt)
		c, err := character.New("Hero", "rogue", attrs)
		require.NoError(rt, err)
		s := character.Derive(attrs, 1)
		assert.Equal(rt, s.MaxHealth, c.CurrentHealth)
		assert.Equal(rt, s.MaxMana, c.CurrentMana)
		assert.Equal(rt, s.MaxStamina, c.CurrentStamina)
	})
}

func TestAttributeLabel(t *testing.T) {
	assert.Equal(t, "STR", character.AttributeLabel(character.Strength))
	assert.Equal(t, "LUK", character.AttributeLabel(character.Luck))
	assert.Equal(t, "<charm>", character.AttributeLabel("charm"))
}

func drawAttributes(rt *rapid.T) character.Attributes {
	return character.Attributes{
		Strength:     rapid.IntRange(0, 500).Draw(rt, "str"),
		Dexterity:    rapid.IntRange(0, 500).Draw(rt, "dex"),
		Intelligence: rapid.IntRange(0, 500).Draw(rt, "int"),
		Vitality:     rapid.IntRange(0, 500).Draw(rt, "vit"),
		Energy:       rapid.IntRange(0, 500).Draw(rt, "ene"),
		Luck:         rapid.IntRange(0, 500).Draw(rt, "luk"),
	}
}
