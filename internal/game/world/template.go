package world

import "fmt"

// MaxArchetypes bounds the archetype table of a single zone.
const MaxArchetypes = 4

// Archetype is a mob blueprint whose stats scale linearly with level.
type Archetype struct {
	ID         string
	Name       string
	Icon       string
	Rarity     Rarity
	Speed      int
	HealthMul  float64
	AttackMul  float64
	DefenseMul float64
	ExpMul     float64
	GoldMul    float64
}

// ZoneTemplate is the static description of a zone used both to assemble the
// world and to generate its mobs.
type ZoneTemplate struct {
	ID            string
	ContinentID   string
	Name          string
	Description   string
	MinLevel      int
	MaxLevel      int
	UnlockLevel   int
	BalanceFactor float64
	Archetypes    []Archetype
	SpotNames     []string
}

// Validate checks zone template invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (z *ZoneTemplate) Validate() error {
	if z.ID == "" {
		return fmt.Errorf("zone ID must not be empty")
	}
	if z.Name == "" {
		return fmt.Errorf("zone %q: name must not be empty", z.ID)
	}
	if z.MinLevel < 1 || z.MaxLevel < z.MinLevel {
		return fmt.Errorf("zone %q: level range [%d, %d] is invalid", z.ID, z.MinLevel, z.MaxLevel)
	}
	if z.UnlockLevel < 1 {
		return fmt.Errorf("zone %q: unlock_level must be >= 1", z.ID)
	}
	if z.BalanceFactor <= 0 {
		return fmt.Errorf("zone %q: balance_factor must be > 0", z.ID)
	}
	if len(z.Archetypes) == 0 || len(z.Archetypes) > MaxArchetypes {
		return fmt.Errorf("zone %q: must define 1-%d archetypes, got %d", z.ID, MaxArchetypes, len(z.Archetypes))
	}
	seen := make(map[string]bool, len(z.Archetypes))
	for _, a := range z.Archetypes {
		if a.ID == "" || a.Name == "" {
			return fmt.Errorf("zone %q: archetype id and name must not be empty", z.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("zone %q: duplicate archetype %q", z.ID, a.ID)
		}
		seen[a.ID] = true
		if !a.Rarity.IsKnown() {
			return fmt.Errorf("zone %q: archetype %q: unknown rarity %q", z.ID, a.ID, a.Rarity)
		}
		if a.HealthMul <= 0 || a.AttackMul < 0 || a.DefenseMul < 0 || a.ExpMul < 0 || a.GoldMul < 0 {
			return fmt.Errorf("zone %q: archetype %q: multipliers must be non-negative and health_mul > 0", z.ID, a.ID)
		}
	}
	return nil
}
