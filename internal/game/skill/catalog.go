package skill

import (
	"fmt"
	"sort"
)

// Class groups the skills available to one character class.
type Class struct {
	ID     string   `yaml:"class"`
	Name   string   `yaml:"name"`
	Skills []*Skill `yaml:"skills"`
}

// Catalog provides lookup of skills by class and level. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	classes map[string]*Class
	skills  map[string]map[string]*Skill
}

// NewCatalog indexes classes into a Catalog.
//
// Precondition: every class must have a non-empty ID.
// Postcondition: Returns a Catalog or an error on an invalid skill or a
// duplicate class or skill ID.
func NewCatalog(classes []*Class) (*Catalog, error) {
	c := &Catalog{
		classes: make(map[string]*Class, len(classes)),
		skills:  make(map[string]map[string]*Skill, len(classes)),
	}
	for _, cls := range classes {
		if cls.ID == "" {
			return nil, fmt.Errorf("skill catalog: class id must not be empty")
		}
		if _, dup := c.classes[cls.ID]; dup {
			return nil, fmt.Errorf("skill catalog: duplicate class %q", cls.ID)
		}
		byID := make(map[string]*Skill, len(cls.Skills))
		for _, s := range cls.Skills {
			s.Class = cls.ID
			if err := s.Validate(); err != nil {
				return nil, fmt.Errorf("class %q: %w", cls.ID, err)
			}
			if _, dup := byID[s.ID]; dup {
				return nil, fmt.Errorf("class %q: duplicate skill %q", cls.ID, s.ID)
			}
			byID[s.ID] = s
		}
		c.classes[cls.ID] = cls
		c.skills[cls.ID] = byID
	}
	return c, nil
}

// Lookup returns the skill id of class.
//
// Postcondition: Returns (skill, true) if found, or (nil, false) otherwise.
func (c *Catalog) Lookup(class, id string) (*Skill, bool) {
	s, ok := c.skills[class][id]
	return s, ok
}

// Class returns the class definition for id.
func (c *Catalog) Class(id string) (*Class, bool) {
	cls, ok := c.classes[id]
	return cls, ok
}

// ClassIDs returns all class IDs in sorted order.
func (c *Catalog) ClassIDs() []string {
	ids := make([]string, 0, len(c.classes))
	for id := range c.classes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Available returns the skills class has unlocked at level, ordered by
// MinLevel then ID. An unknown class yields an empty slice.
func (c *Catalog) Available(class string, level int) []*Skill {
	var out []*Skill
	for _, s := range c.skills[class] {
		if s.MinLevel <= level {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MinLevel != out[j].MinLevel {
			return out[i].MinLevel < out[j].MinLevel
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Active returns the active subset of Available.
func (c *Catalog) Active(class string, level int) []*Skill {
	var out []*Skill
	for _, s := range c.Available(class, level) {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out
}

// DefaultLoadout returns the IDs of the active skills class can use at level,
// highest base damage first. It is the priority list used when a player has
// not configured one.
func (c *Catalog) DefaultLoadout(class string, level int) []string {
	active := c.Active(class, level)
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].BaseDamage > active[j].BaseDamage
	})
	ids := make([]string, len(active))
	for i, s := range active {
		ids[i] = s.ID
	}
	return ids
}
