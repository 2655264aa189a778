package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/farmspot/internal/game/character"
	"github.com/cory-johannsen/farmspot/internal/game/combat"
	"github.com/cory-johannsen/farmspot/internal/game/progression"
	"github.com/cory-johannsen/farmspot/internal/game/world"
)

var (
	// ErrAlreadyInCombat is returned when a character starts an encounter while one is in progress.
	ErrAlreadyInCombat = errors.New("character is already in combat")
	// ErrFarmSpotNotFound is returned for an unknown farm spot ID.
	ErrFarmSpotNotFound = errors.New("farm spot not found")
	// ErrZoneLocked is returned when the character's level is below the zone's unlock level.
	ErrZoneLocked = errors.New("zone is locked")
)

// EncounterReport is the outcome of one farm encounter as applied to the character.
type EncounterReport struct {
	Result    combat.Result
	LevelUp   progression.LevelUp
	Character *character.Character
}

// FarmService runs farm spot encounters for persisted characters.
type FarmService struct {
	store  CharacterStore
	world  *world.Manager
	engine *combat.Engine
	opts   combat.Options
	logger *zap.Logger

	// active guards against two concurrent encounters for one character.
	active sync.Map
}

// NewFarmService creates a FarmService.
//
// Precondition: store, worldMgr and engine must be non-nil.
func NewFarmService(store CharacterStore, worldMgr *world.Manager, engine *combat.Engine, opts combat.Options, logger *zap.Logger) *FarmService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FarmService{
		store:  store,
		world:  worldMgr,
		engine: engine,
		opts:   opts,
		logger: logger,
	}
}

// RunEncounter fights the pull at spotID with characterID using activeSkills
// in priority order, then persists health, mana, experience, level, stat
// points and gold.
//
// Precondition: characterID must exist.
// Postcondition: On success the character is out of combat and the report
// reflects the persisted state. When the result cannot be persisted the
// in-combat flag is still cleared on a best-effort basis. An empty activeSkills yields a failed result
// with StopReason no_skills and leaves the character untouched.
func (s *FarmService) RunEncounter(ctx context.Context, characterID int64, spotID string, activeSkills []string) (*EncounterReport, error) {
	if _, busy := s.active.LoadOrStore(characterID, struct{}{}); busy {
		return nil, ErrAlreadyInCombat
	}
	defer s.active.Delete(characterID)

	c, err := s.store.Get(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("loading character %d: %w", characterID, err)
	}
	if c.InCombat {
		return nil, ErrAlreadyInCombat
	}

	spot, zone, ok := s.world.FarmSpot(spotID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFarmSpotNotFound, spotID)
	}
	if !s.unlocked(zone, c.Level) {
		return nil, fmt.Errorf("%w: %s requires level %d", ErrZoneLocked, zone.ID, zone.UnlockLevel)
	}

	if len(activeSkills) == 0 {
		return &EncounterReport{
			Result: combat.Result{
				State:       combat.Defeat,
				StopReason:  combat.ReasonNoSkills,
				Items:       []string{},
				SkillsUsed:  []string{},
				FinalHealth: c.CurrentHealth,
				FinalMana:   c.CurrentMana,
			},
			LevelUp:   progression.LevelUp{OldLevel: c.Level, NewLevel: c.Level},
			Character: c,
		}, nil
	}

	inCombat := true
	if _, err := s.store.Update(ctx, characterID, character.Update{InCombat: &inCombat}); err != nil {
		return nil, fmt.Errorf("marking character %d in combat: %w", characterID, err)
	}

	result := s.engine.Execute(ctx, combat.SnapshotOf(c), spot.CloneMobs(), activeSkills, s.opts)

	// Persist even when ctx was cancelled so the in-combat flag is cleared.
	report, err := s.apply(context.WithoutCancel(ctx), c, result)
	if err != nil {
		s.release(context.WithoutCancel(ctx), characterID)
		return nil, err
	}
	s.logger.Info("farm encounter applied",
		zap.Int64("character", characterID),
		zap.String("spot", spotID),
		zap.Bool("success", result.Success),
		zap.Int64("experience", result.Experience),
		zap.Int64("gold", result.Gold),
		zap.Bool("leveled_up", report.LevelUp.LeveledUp),
	)
	return report, nil
}

// release makes a best-effort attempt to clear the in-combat flag after the
// encounter result could not be persisted.
func (s *FarmService) release(ctx context.Context, characterID int64) {
	notInCombat := false
	if _, err := s.store.Update(ctx, characterID, character.Update{InCombat: &notInCombat}); err != nil {
		s.logger.Warn("clearing in-combat flag after failed encounter",
			zap.Int64("character", characterID),
			zap.Error(err),
		)
	}
}

// ClearStaleCombat clears the in-combat flag of every stored character that
// has no encounter running in this service, such as flags left behind by a
// crash mid-encounter.
//
// Postcondition: Returns the number of characters cleared. Per-character
// failures are logged at Warn and skipped; only a failed List is returned.
func (s *FarmService) ClearStaleCombat(ctx context.Context) (int, error) {
	chars, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing characters: %w", err)
	}
	cleared := 0
	notInCombat := false
	for _, c := range chars {
		if !c.InCombat {
			continue
		}
		if _, running := s.active.Load(c.ID); running {
			continue
		}
		if _, err := s.store.Update(ctx, c.ID, character.Update{InCombat: &notInCombat}); err != nil {
			s.logger.Warn("clearing stale in-combat flag",
				zap.Int64("character", c.ID),
				zap.Error(err),
			)
			continue
		}
		cleared++
	}
	if cleared > 0 {
		s.logger.Info("cleared stale in-combat flags", zap.Int("characters", cleared))
	}
	return cleared, nil
}

func (s *FarmService) unlocked(z *world.Zone, level int) bool {
	if !z.IsUnlocked(level) {
		return false
	}
	if cont, ok := s.world.Continent(z.ContinentID); ok {
		return cont.IsUnlocked(level)
	}
	return true
}

func (s *FarmService) apply(ctx context.Context, c *character.Character, r combat.Result) (*EncounterReport, error) {
	lu := c.GainExperience(r.Experience)
	c.Gold += r.Gold

	notInCombat := false
	u := character.Update{
		CurrentHealth: &r.FinalHealth,
		CurrentMana:   &r.FinalMana,
		InCombat:      &notInCombat,
	}
	if r.Success {
		u.Level = &c.Level
		u.Experience = &c.Experience
		u.StatPoints = &c.StatPoints
		u.Gold = &c.Gold
	}
	updated, err := s.store.Update(ctx, c.ID, u)
	if err != nil {
		return nil, fmt.Errorf("applying encounter result to character %d: %w", c.ID, err)
	}
	return &EncounterReport{Result: r, LevelUp: lu, Character: updated}, nil
}
