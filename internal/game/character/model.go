// Package character defines the character domain model, the derived stat
// calculator and the pure mutations applied by progression and combat.
package character

import (
	"errors"
	"fmt"
	"time"
)

// Attribute names accepted by Attributes.Value and Character.Allocate.
const (
	Strength     = "strength"
	Dexterity    = "dexterity"
	Intelligence = "intelligence"
	Vitality     = "vitality"
	Energy       = "energy"
	Luck         = "luck"
)

// AttributeNames lists the six allocatable attributes in display order.
var AttributeNames = []string{Strength, Dexterity, Intelligence, Vitality, Energy, Luck}

// ErrUnknownAttribute is returned when an attribute name is not one of AttributeNames.
var ErrUnknownAttribute = errors.New("unknown attribute")

// ErrInsufficientStatPoints is returned when an allocation exceeds the unspent stat points.
var ErrInsufficientStatPoints = errors.New("insufficient stat points")

// ErrCharacterNotFound is returned by character stores when no character has the requested ID.
var ErrCharacterNotFound = errors.New("character not found")

// Attributes holds the six player-allocated base attributes.
type Attributes struct {
	Strength     int `yaml:"strength"`
	Dexterity    int `yaml:"dexterity"`
	Intelligence int `yaml:"intelligence"`
	Vitality     int `yaml:"vitality"`
	Energy       int `yaml:"energy"`
	Luck         int `yaml:"luck"`
}

// Value returns the attribute named name, or 0 for an unknown name.
func (a Attributes) Value(name string) int {
	if p := a.field(name); p != nil {
		return *p
	}
	return 0
}

func (a *Attributes) field(name string) *int {
	switch name {
	case Strength:
		return &a.Strength
	case Dexterity:
		return &a.Dexterity
	case Intelligence:
		return &a.Intelligence
	case Vitality:
		return &a.Vitality
	case Energy:
		return &a.Energy
	case Luck:
		return &a.Luck
	}
	return nil
}

// Character represents a player character's persistent state.
//
// ID is set by the persistence layer; zero indicates an unsaved character.
type Character struct {
	ID    int64
	Name  string
	Class string // class ID
	Level int

	Attributes Attributes

	CurrentHealth  int
	MaxHealth      int
	CurrentMana    int
	MaxMana        int
	CurrentStamina int
	MaxStamina     int
	HealthRegen    float64
	ManaRegen      float64

	Experience int64
	StatPoints int
	Gold       int64

	InCombat   bool
	AFKFarming bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats returns the derived combat stats for the character's current attributes and level.
func (c *Character) Stats() DerivedStats {
	return Derive(c.Attributes, c.Level)
}

// Recalculate refreshes the pool maxima and regen rates from the attributes,
// then clamps every current pool into [0, max].
//
// Postcondition: 0 <= Current* <= Max* for health, mana and stamina.
func (c *Character) Recalculate() {
	s := c.Stats()
	c.MaxHealth = s.MaxHealth
	c.MaxMana = s.MaxMana
	c.MaxStamina = s.MaxStamina
	c.HealthRegen = s.HealthRegen
	c.ManaRegen = s.ManaRegen
	c.Clamp()
}

// Clamp forces every current pool into [0, max].
func (c *Character) Clamp() {
	c.CurrentHealth = clamp(c.CurrentHealth, c.MaxHealth)
	c.CurrentMana = clamp(c.CurrentMana, c.MaxMana)
	c.CurrentStamina = clamp(c.CurrentStamina, c.MaxStamina)
}

func clamp(v, upper int) int {
	if v < 0 {
		return 0
	}
	if v > upper {
		return upper
	}
	return v
}

// Allocate spends points unspent stat points on the named attribute and
// recalculates the derived pools.
//
// Precondition: points > 0.
// Postcondition: On success StatPoints decreases by points and the attribute
// increases by points; on error the character is unchanged.
func (c *Character) Allocate(attribute string, points int) error {
	if points <= 0 {
		return fmt.Errorf("allocating %d points: must be positive", points)
	}
	p := c.Attributes.field(attribute)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	if points > c.StatPoints {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientStatPoints, points, c.StatPoints)
	}
	*p += points
	c.StatPoints -= points
	c.Recalculate()
	return nil
}

// IsFullyRecovered reports whether health and mana are both at their maxima.
func (c *Character) IsFullyRecovered() bool {
	return c.CurrentHealth >= c.MaxHealth && c.CurrentMana >= c.MaxMana
}

// Update is a partial write to a persisted character. Nil fields are left untouched.
type Update struct {
	Level         *int
	Attributes    *Attributes
	CurrentHealth *int
	CurrentMana   *int
	Experience    *int64
	StatPoints    *int
	Gold          *int64
	InCombat      *bool
	AFKFarming    *bool
}

// IsEmpty reports whether u changes nothing.
func (u Update) IsEmpty() bool {
	return u == Update{}
}

// Apply copies every non-nil field of u onto c and recalculates the pools.
//
// Postcondition: Pools are clamped to the recalculated maxima.
func (u Update) Apply(c *Character) {
	if u.Level != nil {
		c.Level = *u.Level
	}
	if u.Attributes != nil {
		c.Attributes = *u.Attributes
	}
	if u.CurrentHealth != nil {
		c.CurrentHealth = *u.CurrentHealth
	}
	if u.CurrentMana != nil {
		c.CurrentMana = *u.CurrentMana
	}
	if u.Experience != nil {
		c.Experience = *u.Experience
	}
	if u.StatPoints != nil {
		c.StatPoints = *u.StatPoints
	}
	if u.Gold != nil {
		c.Gold = *u.Gold
	}
	if u.InCombat != nil {
		c.InCombat = *u.InCombat
	}
	if u.AFKFarming != nil {
		c.AFKFarming = *u.AFKFarming
	}
	c.Recalculate()
}
