// Package app wires configuration into the running object graph shared by
// the farmd daemon and the farmsim CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/farmspot/internal/config"
	"github.com/cory-johannsen/farmspot/internal/game/combat"
	"github.com/cory-johannsen/farmspot/internal/game/dice"
	"github.com/cory-johannsen/farmspot/internal/game/skill"
	"github.com/cory-johannsen/farmspot/internal/game/world"
	"github.com/cory-johannsen/farmspot/internal/gameserver"
	"github.com/cory-johannsen/farmspot/internal/scripting"
	"github.com/cory-johannsen/farmspot/internal/storage/memory"
	"github.com/cory-johannsen/farmspot/internal/storage/postgres"
)

// App holds the assembled components.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	World   *world.Manager
	Catalog *skill.Catalog
	Store   gameserver.CharacterStore
	Engine  *combat.Engine
	Farm    *gameserver.FarmService
	Regen   *gameserver.RegenTicker // nil when regeneration is disabled

	health  func(ctx context.Context) error
	closers []func()
}

// Build assembles every component described by cfg.
//
// Precondition: cfg must be valid; logger must be non-nil.
// Postcondition: Returns a ready App or a non-nil error; on error every
// partially acquired resource is released.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := a.buildWorld(); err != nil {
		return nil, err
	}
	if err := a.buildCatalog(); err != nil {
		return nil, err
	}
	if err := a.buildStore(ctx); err != nil {
		return nil, err
	}

	a.Engine = combat.NewEngine(a.Catalog, combat.SystemClock{}, logger.Named("combat"))
	a.Farm = gameserver.NewFarmService(a.Store, a.World, a.Engine, CombatOptions(cfg.Combat), logger.Named("farm"))
	if cfg.Regen.Enabled {
		a.Regen = gameserver.NewRegenTicker(a.Store, cfg.Regen.Interval, logger.Named("regen"))
	}
	return a, nil
}

// CombatOptions converts the combat configuration section to engine options.
func CombatOptions(c config.CombatConfig) combat.Options {
	return combat.Options{
		MaxRounds:       c.MaxRounds,
		StopOnLowHealth: c.StopOnLowHealth,
		StopOnLowMana:   c.StopOnLowMana,
		RoundDelay:      c.RoundDelay,
		RoundDuration:   c.RoundDuration,
	}
}

// RandomSource returns a reproducible source for a non-zero seed and a
// crypto-backed source otherwise.
func RandomSource(seed uint64) dice.Source {
	if seed != 0 {
		return dice.NewSeededSource(seed)
	}
	return dice.NewCryptoSource()
}

func (a *App) buildWorld() error {
	start := time.Now()
	wc := a.Config.World

	def := world.DefaultDefinition()
	if wc.ContentFile != "" {
		var err error
		if def, err = world.LoadDefinitionFromFile(wc.ContentFile); err != nil {
			return fmt.Errorf("loading world content: %w", err)
		}
	}

	opts := []world.GeneratorOption{world.WithLogger(a.Logger.Named("world"))}
	if wc.BalanceScript != "" {
		scripts := scripting.NewManager(wc.ScriptInstructionLimit, a.Logger.Named("scripting"))
		a.closers = append(a.closers, scripts.Close)
		if err := scripts.LoadTree(wc.BalanceScript); err != nil {
			return fmt.Errorf("loading balance scripts: %w", err)
		}
		opts = append(opts, world.WithBalance(scripts.BalanceFactor))
	}

	gen, err := world.NewGeneratorFromDefinition(def, RandomSource(wc.Seed), opts...)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}
	if a.World, err = world.Assemble(def, gen, wc.GridSize); err != nil {
		return err
	}
	a.Logger.Info("world generated",
		zap.Int("zones", a.World.ZoneCount()),
		zap.Int("farm_spots", a.World.FarmSpotCount()),
		zap.Bool("seeded", wc.Seed != 0),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (a *App) buildCatalog() error {
	if a.Config.World.SkillsDir == "" {
		a.Catalog = skill.DefaultCatalog()
		return nil
	}
	cat, err := skill.LoadCatalogDir(a.Config.World.SkillsDir)
	if err != nil {
		return fmt.Errorf("loading skills: %w", err)
	}
	a.Catalog = cat
	a.Logger.Info("skills loaded",
		zap.String("dir", a.Config.World.SkillsDir),
		zap.Int("classes", len(cat.ClassIDs())),
	)
	return nil
}

func (a *App) buildStore(ctx context.Context) error {
	switch a.Config.Storage.Driver {
	case config.DriverPostgres:
		start := time.Now()
		pool, err := postgres.NewPool(ctx, a.Config.Storage.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.health = func(ctx context.Context) error { return pool.Health(ctx, 5*time.Second) }
		a.Store = postgres.NewCharacterRepository(pool.DB())
		a.Logger.Info("database connected",
			zap.String("host", a.Config.Storage.Database.Host),
			zap.Duration("elapsed", time.Since(start)),
		)
	case config.DriverMemory:
		a.Store = memory.NewCharacterStore()
		a.Logger.Info("using in-memory character store")
	default:
		return fmt.Errorf("unknown storage driver %q", a.Config.Storage.Driver)
	}
	return nil
}

// Health checks the backing store. It always succeeds for the memory store.
func (a *App) Health(ctx context.Context) error {
	if a.health == nil {
		return nil
	}
	return a.health(ctx)
}

// Close releases held resources in reverse acquisition order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
