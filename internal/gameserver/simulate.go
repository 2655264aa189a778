package gameserver

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/farmspot/internal/game/character"
	"github.com/cory-johannsen/farmspot/internal/game/combat"
)

// DefaultMaxRestTicks bounds the regeneration ticks spent resting between
// two simulated encounters.
const DefaultMaxRestTicks = 1000

// LoadoutSource supplies the default skill priority list for a class at a level.
type LoadoutSource interface {
	DefaultLoadout(class string, level int) []string
}

// SimConfig controls a simulation run.
type SimConfig struct {
	Encounters int
	SpotID     string
	// Skills is the fixed priority list; empty uses the class default
	// loadout for the character's current level before every encounter.
	Skills []string
	// Focus is the attribute that receives every stat point earned; empty
	// leaves points unspent.
	Focus string
	// Rest regenerates the character to full pools between encounters.
	Rest         bool
	MaxRestTicks int
}

// SimSummary aggregates the outcome of a simulation run.
type SimSummary struct {
	Encounters  int
	Victories   int
	Defeats     int
	Rounds      int
	Experience  int64
	Gold        int64
	DamageDealt int64
	DamageTaken int64
	StartLevel  int
	EndLevel    int
	LevelUps    int
	RestTicks   int
	// Skipped counts encounters never fought because the character had no
	// usable skills; they are excluded from Encounters and Defeats.
	Skipped     int
	StopReasons map[combat.StopReason]int
}

// WinRate returns the fraction of encounters won, or 0 when none ran.
func (s SimSummary) WinRate() float64 {
	if s.Encounters == 0 {
		return 0
	}
	return float64(s.Victories) / float64(s.Encounters)
}

// Simulator replays farm encounters back to back for balance testing.
type Simulator struct {
	farm     *FarmService
	store    CharacterStore
	loadouts LoadoutSource
}

// NewSimulator creates a Simulator.
//
// Precondition: farm, store and loadouts must be non-nil; store must be the
// store farm was built with.
func NewSimulator(farm *FarmService, store CharacterStore, loadouts LoadoutSource) *Simulator {
	return &Simulator{farm: farm, store: store, loadouts: loadouts}
}

// Run executes cfg.Encounters encounters for characterID, stopping early
// when ctx is cancelled.
//
// Postcondition: Returns the aggregated summary of every encounter that ran,
// or the first error from the farm service or store.
func (s *Simulator) Run(ctx context.Context, characterID int64, cfg SimConfig) (SimSummary, error) {
	if cfg.MaxRestTicks <= 0 {
		cfg.MaxRestTicks = DefaultMaxRestTicks
	}
	c, err := s.store.Get(ctx, characterID)
	if err != nil {
		return SimSummary{}, fmt.Errorf("loading character %d: %w", characterID, err)
	}
	sum := SimSummary{
		StartLevel:  c.Level,
		EndLevel:    c.Level,
		StopReasons: make(map[combat.StopReason]int),
	}

	for i := 0; i < cfg.Encounters && ctx.Err() == nil; i++ {
		skills := cfg.Skills
		if len(skills) == 0 {
			skills = s.loadouts.DefaultLoadout(c.Class, c.Level)
		}
		if len(skills) == 0 {
			// the level cannot change without fighting
			sum.Skipped += cfg.Encounters - i
			break
		}

		if cfg.Rest {
			ticks, err := s.rest(ctx, c, cfg.MaxRestTicks)
			if err != nil {
				return sum, err
			}
			sum.RestTicks += ticks
		}

		rep, err := s.farm.RunEncounter(ctx, characterID, cfg.SpotID, skills)
		if err != nil {
			return sum, err
		}
		sum.add(rep)
		c = rep.Character

		if cfg.Focus != "" && c.StatPoints > 0 {
			if c, err = s.spend(ctx, c, cfg.Focus); err != nil {
				return sum, err
			}
		}
	}
	sum.EndLevel = c.Level
	return sum, nil
}

func (sum *SimSummary) add(rep *EncounterReport) {
	r := rep.Result
	sum.Encounters++
	if r.Success {
		sum.Victories++
	} else {
		sum.Defeats++
	}
	sum.Rounds += r.Rounds
	sum.Experience += r.Experience
	sum.Gold += r.Gold
	sum.DamageDealt += r.TotalDamage
	sum.DamageTaken += r.DamageTaken
	sum.StopReasons[r.StopReason]++
	if rep.LevelUp.LeveledUp {
		sum.LevelUps += rep.LevelUp.NewLevel - rep.LevelUp.OldLevel
	}
}

// rest regenerates c until its pools are full, nothing changes, or limit
// ticks have elapsed. c is refreshed from the store.
func (s *Simulator) rest(ctx context.Context, c *character.Character, limit int) (int, error) {
	ticks := 0
	for ticks < limit {
		fresh, err := s.store.Get(ctx, c.ID)
		if err != nil {
			return ticks, fmt.Errorf("resting character %d: %w", c.ID, err)
		}
		*c = *fresh
		if c.IsFullyRecovered() {
			break
		}
		changed, err := s.store.Regenerate(ctx, c.ID)
		if err != nil {
			return ticks, fmt.Errorf("resting character %d: %w", c.ID, err)
		}
		if !changed {
			break
		}
		ticks++
	}
	return ticks, nil
}

func (s *Simulator) spend(ctx context.Context, c *character.Character, focus string) (*character.Character, error) {
	if err := c.Allocate(focus, c.StatPoints); err != nil {
		return nil, fmt.Errorf("allocating stat points: %w", err)
	}
	updated, err := s.store.Update(ctx, c.ID, character.Update{Attributes: &c.Attributes, StatPoints: &c.StatPoints})
	if err != nil {
		return nil, fmt.Errorf("saving allocation for character %d: %w", c.ID, err)
	}
	return updated, nil
}
