package character

import (
	"errors"
	"strings"
)

// New constructs a level 1 character of class with the given starting
// attributes and full pools.
//
// Precondition: name and class must be non-empty; attributes must be non-negative.
// Postcondition: Returns a Character ready for persistence, or a non-nil error.
func New(name, class string, attrs Attributes) (*Character, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("character name must not be empty")
	}
	if class == "" {
		return nil, errors.New("character class must not be empty")
	}
	for _, n := range AttributeNames {
		if attrs.Value(n) < 0 {
			return nil, errors.New("attribute " + n + " must not be negative")
		}
	}

	c := &Character{
		Name:       name,
		Class:      class,
		Level:      1,
		Attributes: attrs,
	}
	c.Recalculate()
	c.CurrentHealth = c.MaxHealth
	c.CurrentMana = c.MaxMana
	c.CurrentStamina = c.MaxStamina
	return c, nil
}

// AttributeLabel returns the short display label for an attribute name.
func AttributeLabel(name string) string {
	labels := map[string]string{
		Strength:     "STR",
		Dexterity:    "DEX",
		Intelligence: "INT",
		Vitality:     "VIT",
		Energy:       "ENE",
		Luck:         "LUK",
	}
	if l, ok := labels[name]; ok {
		return l
	}
	return "<" + name + ">"
}
