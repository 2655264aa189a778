// Package combat implements the auto-combat engine that resolves farm spot
// encounters round by round.
package combat

import (
	"time"

	"github.com/cory-johannsen/farmspot/internal/game/character"
)

// State is the lifecycle state of an encounter.
type State int

const (
	Idle State = iota
	Running
	Victory
	Defeat
)

// String returns a human-readable state label.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether s ends an encounter.
func (s State) IsTerminal() bool {
	return s == Victory || s == Defeat
}

// StopReason explains why an encounter ended.
type StopReason string

const (
	ReasonVictory   StopReason = "victory"
	ReasonDefeated  StopReason = "defeated"
	ReasonExhausted StopReason = "exhausted"
	ReasonLowHealth StopReason = "low_health"
	ReasonLowMana   StopReason = "low_mana"
	ReasonCancelled StopReason = "cancelled"
	ReasonNoSkills  StopReason = "no_skills"
)

const (
	// LowHealthThreshold is the fraction of max health below which a
	// low-health stop trips.
	LowHealthThreshold = 0.20
	// LowManaThreshold is the fraction of max mana below which a low-mana stop trips.
	LowManaThreshold = 0.10
	// ScalingMultiplier converts a skill's scaling attribute into bonus damage.
	ScalingMultiplier = 2.0
	// MitigationFactor is the share of the player's defense subtracted from
	// each mob hit.
	MitigationFactor = 0.5
)

// Combatant is the player's snapshot for a single encounter. The engine owns
// its copy; changes never reach the persisted character.
type Combatant struct {
	Name       string
	Class      string
	Level      int
	Attributes character.Attributes
	Stats      character.DerivedStats

	CurrentHealth int
	MaxHealth     int
	CurrentMana   int
	MaxMana       int
}

// SnapshotOf captures c's current state as a Combatant.
//
// Precondition: c must be non-nil.
func SnapshotOf(c *character.Character) Combatant {
	return Combatant{
		Name:          c.Name,
		Class:         c.Class,
		Level:         c.Level,
		Attributes:    c.Attributes,
		Stats:         c.Stats(),
		CurrentHealth: c.CurrentHealth,
		MaxHealth:     c.MaxHealth,
		CurrentMana:   c.CurrentMana,
		MaxMana:       c.MaxMana,
	}
}

// IsDead reports whether the combatant has no health left.
func (c *Combatant) IsDead() bool {
	return c.CurrentHealth <= 0
}

// Options tune a single encounter.
type Options struct {
	// MaxRounds ends the encounter as exhausted when reached. Values <= 0 use
	// the default.
	MaxRounds       int
	StopOnLowHealth bool
	StopOnLowMana   bool
	// RoundDelay paces rounds for presentation; zero runs rounds back to back.
	RoundDelay time.Duration
	// RoundDuration is the nominal game time one round takes. When positive,
	// cooldowns are measured on a per-encounter timeline that starts at one
	// clock read and advances by RoundDuration each round, independent of
	// RoundDelay. Zero reads the engine clock once per round instead.
	RoundDuration time.Duration
}

const (
	// DefaultMaxRounds is the round limit applied when Options.MaxRounds <= 0.
	DefaultMaxRounds = 100
	// DefaultRoundDuration is the nominal length of one round.
	DefaultRoundDuration = time.Second
)

// DefaultOptions returns the standard encounter options.
func DefaultOptions() Options {
	return Options{
		MaxRounds:       DefaultMaxRounds,
		StopOnLowHealth: true,
		RoundDuration:   DefaultRoundDuration,
	}
}

// Result is the outcome of an encounter.
//
// Experience and Gold are non-zero only when Success is true.
type Result struct {
	Success    bool
	State      State
	StopReason StopReason
	Rounds     int

	Experience int64
	Gold       int64
	// Items is reserved for loot and is always empty.
	Items []string

	MobsDefeated int
	TotalDamage  int64
	DamageTaken  int64
	ManaUsed     int64
	// SkillsUsed lists skill IDs in the order they were cast. Basic attacks
	// are not recorded.
	SkillsUsed []string

	FinalHealth int
	FinalMana   int
}
