// Package world provides the static world hierarchy (continents, zones,
// farm spots) and the procedural mob generator that populates it.
package world

// Rarity tags a mob archetype for display and reward expectations.
type Rarity string

const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RarityElite    Rarity = "elite"
	RarityBoss     Rarity = "boss"
)

// IsKnown reports whether r is one of the defined rarities.
func (r Rarity) IsKnown() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityElite, RarityBoss:
		return true
	}
	return false
}

// Mob is a single enemy. Mob has value semantics: copying a Mob yields an
// independent instance, so a slice copy of a pull is a deep copy.
type Mob struct {
	ID         string
	TemplateID string
	Name       string
	Level      int

	Health    int
	MaxHealth int
	Attack    int
	Defense   int
	Speed     int

	ExperienceReward int
	GoldReward       int

	Rarity Rarity
	Icon   string
}

// IsDead reports whether the mob has zero or fewer hit points.
func (m Mob) IsDead() bool {
	return m.Health <= 0
}

// FarmSpot is a grid cell of a zone holding a pre-generated pull of mobs.
// The Mobs slice is a template: callers must not mutate it.
type FarmSpot struct {
	ID       string
	ZoneID   string
	Name     string
	X        int
	Y        int
	Mobs     []Mob
	MinLevel int
	MaxLevel int
}

// CloneMobs returns an independent copy of the spot's pull at full health.
//
// Postcondition: Mutating the result never affects f.Mobs.
func (f *FarmSpot) CloneMobs() []Mob {
	out := make([]Mob, len(f.Mobs))
	copy(out, f.Mobs)
	for i := range out {
		out[i].Health = out[i].MaxHealth
	}
	return out
}

// Rewards returns the summed experience and gold of the pull.
func (f *FarmSpot) Rewards() (experience, gold int64) {
	for _, m := range f.Mobs {
		experience += int64(m.ExperienceReward)
		gold += int64(m.GoldReward)
	}
	return experience, gold
}

// Zone is a themed area of a continent containing farm spots.
type Zone struct {
	ID          string
	ContinentID string
	Name        string
	Description string
	MinLevel    int
	MaxLevel    int
	UnlockLevel int
	Spots       []*FarmSpot
}

// IsUnlocked reports whether a character of playerLevel may farm in z.
func (z *Zone) IsUnlocked(playerLevel int) bool {
	return playerLevel >= z.UnlockLevel
}

// Spot returns the farm spot with the given ID.
//
// Postcondition: Returns (spot, true) if found, or (nil, false) otherwise.
func (z *Zone) Spot(id string) (*FarmSpot, bool) {
	for _, s := range z.Spots {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Continent groups zones under a shared level band.
type Continent struct {
	ID          string
	Name        string
	Description string
	MinLevel    int
	MaxLevel    int
	UnlockLevel int
	Zones       []*Zone
}

// IsUnlocked reports whether a character of playerLevel may travel to c.
func (c *Continent) IsUnlocked(playerLevel int) bool {
	return playerLevel >= c.UnlockLevel
}
