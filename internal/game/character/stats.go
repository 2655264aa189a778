package character

import "math"

// CritChanceCap is the hard cap on critical chance, in percent.
const CritChanceCap = 50.0

// DerivedStats holds the combat-facing attributes computed from base
// attributes and level. Percent-based fields use 100 as the baseline.
type DerivedStats struct {
	MaxHealth  int
	MaxMana    int
	MaxStamina int

	AttackDamage    int
	MagicDamage     float64
	Defense         float64
	MagicResistance float64
	CritChance      float64
	CritDamage      float64
	AttackSpeed     float64
	MovementSpeed   float64

	HealthRegen float64
	ManaRegen   float64
}

// Derive computes DerivedStats from attrs and level.
//
// Postcondition: The result depends only on attrs and level; CritChance <= CritChanceCap.
func Derive(attrs Attributes, level int) DerivedStats {
	str := float64(attrs.Strength)
	dex := float64(attrs.Dexterity)
	intl := float64(attrs.Intelligence)
	vit := float64(attrs.Vitality)
	eng := float64(attrs.Energy)
	luck := float64(attrs.Luck)

	return DerivedStats{
		MaxHealth:  attrs.Vitality*10 + 100,
		MaxMana:    attrs.Energy*5 + 50,
		MaxStamina: attrs.Vitality*5 + attrs.Dexterity*3 + 100,

		AttackDamage:    attrs.Strength*2 + attrs.Dexterity,
		MagicDamage:     intl * 2.5,
		Defense:         vit*1.5 + str*0.5,
		MagicResistance: eng + intl*0.3,
		CritChance:      math.Min(luck*0.1+dex*0.05, CritChanceCap),
		CritDamage:      150 + str*0.5,
		AttackSpeed:     100 + dex*0.8,
		MovementSpeed:   100 + dex*0.5,

		HealthRegen: 1 + vit*0.1 + float64(level)*0.05,
		ManaRegen:   1 + eng*0.1 + intl*0.05,
	}
}
