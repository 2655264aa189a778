// Package skill provides skill definitions and the per-class skill catalog.
package skill

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/farmspot/internal/game/character"
)

// Kind distinguishes skills the combat engine can cast from passive ones.
type Kind string

const (
	KindActive  Kind = "active"
	KindPassive Kind = "passive"
)

// Skill is a single skill definition loaded from catalog content.
type Skill struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        Kind   `yaml:"kind"`
	// Class is filled from the enclosing class file.
	Class    string `yaml:"-"`
	MinLevel int    `yaml:"min_level"`
	// Cooldown is in seconds.
	Cooldown    float64 `yaml:"cooldown"`
	ManaCost    int     `yaml:"mana_cost"`
	BaseDamage  int     `yaml:"base_damage"`
	ScalingStat string  `yaml:"scaling_stat"`
	AOE         bool    `yaml:"aoe"`
}

// CooldownDuration returns Cooldown as a time.Duration.
func (s *Skill) CooldownDuration() time.Duration {
	return time.Duration(s.Cooldown * float64(time.Second))
}

// IsActive reports whether the combat engine may cast s.
func (s *Skill) IsActive() bool {
	return s.Kind == KindActive
}

// Validate checks that the skill satisfies basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, Kind is known,
// numeric fields are non-negative, and ScalingStat (if set) names an attribute.
func (s *Skill) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("skill: id must not be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("skill %q: name must not be empty", s.ID)
	}
	if s.Kind != KindActive && s.Kind != KindPassive {
		return fmt.Errorf("skill %q: kind must be active or passive, got %q", s.ID, s.Kind)
	}
	if s.MinLevel < 1 {
		return fmt.Errorf("skill %q: min_level must be >= 1", s.ID)
	}
	if s.Cooldown < 0 || s.ManaCost < 0 || s.BaseDamage < 0 {
		return fmt.Errorf("skill %q: cooldown, mana_cost and base_damage must not be negative", s.ID)
	}
	if s.ScalingStat != "" {
		known := false
		for _, n := range character.AttributeNames {
			if n == s.ScalingStat {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("skill %q: unknown scaling_stat %q", s.ID, s.ScalingStat)
		}
	}
	return nil
}
