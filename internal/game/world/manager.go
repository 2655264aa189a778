package world

import (
	"fmt"
	"sort"
	"sync"
)

// Manager provides thread-safe access to the assembled world.
// It indexes zones and farm spots across all continents for O(1) lookup.
type Manager struct {
	mu         sync.RWMutex
	continents []*Continent
	byID       map[string]*Continent
	zones      map[string]*Zone
	spots      map[string]*FarmSpot
}

// NewManager creates a Manager from the given continents.
//
// Postcondition: Returns a Manager with every zone and farm spot indexed by
// ID, or an error on a duplicate continent, zone or spot ID.
func NewManager(continents []*Continent) (*Manager, error) {
	m := &Manager{
		continents: continents,
		byID:       make(map[string]*Continent, len(continents)),
		zones:      make(map[string]*Zone),
		spots:      make(map[string]*FarmSpot),
	}
	for _, c := range continents {
		if _, exists := m.byID[c.ID]; exists {
			return nil, fmt.Errorf("duplicate continent ID: %q", c.ID)
		}
		m.byID[c.ID] = c
		for _, z := range c.Zones {
			if existing, exists := m.zones[z.ID]; exists {
				return nil, fmt.Errorf("duplicate zone ID %q: in continent %q and %q", z.ID, existing.ContinentID, c.ID)
			}
			m.zones[z.ID] = z
			for _, s := range z.Spots {
				if existing, exists := m.spots[s.ID]; exists {
					return nil, fmt.Errorf("duplicate farm spot ID %q: in zone %q and %q", s.ID, existing.ZoneID, z.ID)
				}
				m.spots[s.ID] = s
			}
		}
	}
	return m, nil
}

// Assemble builds the Continent→Zone→FarmSpot hierarchy for def, populating
// every zone with a gridSize×gridSize grid generated at the zone's minimum level.
//
// Precondition: def must be valid; gen must have been built from def's templates.
// Postcondition: Returns a Manager covering every zone of def, or an error.
func Assemble(def *Definition, gen *Generator, gridSize int) (*Manager, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("assembling world: %w", err)
	}
	continents := make([]*Continent, 0, len(def.Continents))
	for _, ct := range def.Continents {
		c := &Continent{
			ID:          ct.ID,
			Name:        ct.Name,
			Description: ct.Description,
			MinLevel:    ct.MinLevel,
			MaxLevel:    ct.MaxLevel,
			UnlockLevel: ct.UnlockLevel,
		}
		for _, zt := range ct.Zones {
			if _, ok := gen.templates[zt.ID]; !ok {
				return nil, fmt.Errorf("assembling world: zone %q unknown to generator", zt.ID)
			}
			c.Zones = append(c.Zones, &Zone{
				ID:          zt.ID,
				ContinentID: ct.ID,
				Name:        zt.Name,
				Description: zt.Description,
				MinLevel:    zt.MinLevel,
				MaxLevel:    zt.MaxLevel,
				UnlockLevel: zt.UnlockLevel,
				Spots:       gen.CreateFarmSpots(zt.ID, zt.MinLevel, gridSize),
			})
		}
		continents = append(continents, c)
	}
	return NewManager(continents)
}

// Zone returns the zone with the given ID.
//
// Postcondition: Returns (zone, true) if found, or (nil, false) otherwise.
func (m *Manager) Zone(id string) (*Zone, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.zones[id]
	return z, ok
}

// Continent returns the continent with the given ID.
func (m *Manager) Continent(id string) (*Continent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byID[id]
	return c, ok
}

// FarmSpot returns the farm spot with the given ID and the zone owning it.
//
// Postcondition: Returns (spot, zone, true) if found, or (nil, nil, false) otherwise.
func (m *Manager) FarmSpot(id string) (*FarmSpot, *Zone, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.spots[id]
	if !ok {
		return nil, nil, false
	}
	return s, m.zones[s.ZoneID], true
}

// Continents returns every continent in definition order.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (m *Manager) Continents() []*Continent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Continent, len(m.continents))
	copy(out, m.continents)
	return out
}

// UnlockedZones returns the zones a character of playerLevel may farm,
// ordered by unlock level then ID.
//
// Postcondition: Every returned zone and its continent are unlocked at playerLevel.
func (m *Manager) UnlockedZones(playerLevel int) []*Zone {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Zone, 0, len(m.zones))
	for _, z := range m.zones {
		c := m.byID[z.ContinentID]
		if z.IsUnlocked(playerLevel) && (c == nil || c.IsUnlocked(playerLevel)) {
			out = append(out, z)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnlockLevel != out[j].UnlockLevel {
			return out[i].UnlockLevel < out[j].UnlockLevel
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ZoneCount returns the number of zones.
func (m *Manager) ZoneCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.zones)
}

// FarmSpotCount returns the total number of farm spots across all zones.
func (m *Manager) FarmSpotCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.spots)
}
