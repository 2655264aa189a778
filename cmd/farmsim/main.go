// Package main provides a balance simulation CLI: it creates a character and
// runs a number of back-to-back farm encounters against one farm spot,
// printing an aggregate summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/farmspot/internal/app"
	"github.com/cory-johannsen/farmspot/internal/config"
	"github.com/cory-johannsen/farmspot/internal/game/character"
	"github.com/cory-johannsen/farmspot/internal/game/combat"
	"github.com/cory-johannsen/farmspot/internal/game/progression"
	"github.com/cory-johannsen/farmspot/internal/gameserver"
	"github.com/cory-johannsen/farmspot/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	zoneID := flag.String("zone", "", "zone to farm; empty = first zone unlocked at -level")
	spotID := flag.String("spot", "", "farm spot to farm; overrides -zone")
	class := flag.String("class", "warrior", "character class ID")
	name := flag.String("name", "", "character name; empty = generated")
	level := flag.Int("level", 1, "starting level")
	encounters := flag.Int("encounters", 100, "number of encounters to run")
	skills := flag.String("skills", "", "comma-separated skill priority list; empty = class default loadout")
	focus := flag.String("focus", character.Strength, "attribute receiving earned stat points; empty = unspent")
	rest := flag.Bool("rest", true, "regenerate to full pools between encounters")
	persist := flag.Bool("persist", false, "use the configured store instead of an in-memory one")
	str := flag.Int("str", 10, "starting strength")
	dex := flag.Int("dex", 5, "starting dexterity")
	intl := flag.Int("int", 5, "starting intelligence")
	vit := flag.Int("vit", 10, "starting vitality")
	eng := flag.Int("eng", 5, "starting energy")
	luck := flag.Int("luck", 5, "starting luck")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if !*persist {
		cfg.Storage.Driver = config.DriverMemory
		cfg.Regen.Enabled = false
	}

	logger, err := observability.NewLogger(cfg.Logging, "farmsim")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	a, err := app.Build(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("building application", zap.Error(err))
	}
	defer a.Close()

	if _, ok := a.Catalog.Class(*class); !ok {
		logger.Fatal("unknown class",
			zap.String("class", *class),
			zap.Strings("known", a.Catalog.ClassIDs()),
		)
	}

	c, err := character.New(characterName(*name), *class, character.Attributes{
		Strength: *str, Dexterity: *dex, Intelligence: *intl,
		Vitality: *vit, Energy: *eng, Luck: *luck,
	})
	if err != nil {
		logger.Fatal("creating character", zap.Error(err))
	}
	if *level > 1 {
		c.Level = min(*level, progression.MaxLevel)
		c.Experience = progression.TotalExperienceForLevel(c.Level)
		c.Recalculate()
		c.CurrentHealth, c.CurrentMana = c.MaxHealth, c.MaxMana
	}
	created, err := a.Store.Create(ctx, c)
	if err != nil {
		logger.Fatal("saving character", zap.Error(err))
	}

	spot := *spotID
	if spot == "" {
		if spot, err = pickSpot(a, *zoneID, created.Level); err != nil {
			logger.Fatal("choosing farm spot", zap.Error(err))
		}
	}

	var loadout []string
	if *skills != "" {
		loadout = strings.Split(*skills, ",")
	}

	sim := gameserver.NewSimulator(a.Farm, a.Store, a.Catalog)
	sum, err := sim.Run(ctx, created.ID, gameserver.SimConfig{
		Encounters: *encounters,
		SpotID:     spot,
		Skills:     loadout,
		Focus:      *focus,
		Rest:       *rest,
	})
	if err != nil {
		logger.Error("simulation stopped", zap.Error(err))
	}
	printSummary(created, spot, sum, cfg.Regen.Interval, time.Since(start))
}

func characterName(name string) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("sim-%d", time.Now().UnixNano())
}

// pickSpot returns the first farm spot of zoneID, or of the first zone
// unlocked at level when zoneID is empty.
func pickSpot(a *app.App, zoneID string, level int) (string, error) {
	if zoneID == "" {
		zones := a.World.UnlockedZones(level)
		if len(zones) == 0 {
			return "", fmt.Errorf("no zone unlocked at level %d", level)
		}
		zoneID = zones[0].ID
	}
	z, ok := a.World.Zone(zoneID)
	if !ok {
		return "", fmt.Errorf("unknown zone %q", zoneID)
	}
	if len(z.Spots) == 0 {
		return "", fmt.Errorf("zone %q has no farm spots", zoneID)
	}
	return z.Spots[0].ID, nil
}

func printSummary(c *character.Character, spot string, sum gameserver.SimSummary, regenInterval, elapsed time.Duration) {
	w := os.Stdout
	fmt.Fprintf(w, "character   %s (%s)\n", c.Name, c.Class)
	fmt.Fprintf(w, "farm spot   %s\n", spot)
	fmt.Fprintf(w, "encounters  %d (%d won, %d lost, %.1f%% win rate)\n",
		sum.Encounters, sum.Victories, sum.Defeats, 100*sum.WinRate())
	if sum.Skipped > 0 {
		fmt.Fprintf(w, "skipped     %d (no usable skills at level %d)\n", sum.Skipped, sum.EndLevel)
	}
	fmt.Fprintf(w, "level       %d -> %d (+%d)\n", sum.StartLevel, sum.EndLevel, sum.LevelUps)
	fmt.Fprintf(w, "experience  %d\n", sum.Experience)
	fmt.Fprintf(w, "gold        %d\n", sum.Gold)
	if sum.Encounters > 0 {
		fmt.Fprintf(w, "rounds      %d (%.1f per encounter)\n", sum.Rounds, float64(sum.Rounds)/float64(sum.Encounters))
	}
	fmt.Fprintf(w, "damage      %d dealt, %d taken\n", sum.DamageDealt, sum.DamageTaken)
	if sum.RestTicks > 0 {
		fmt.Fprintf(w, "resting     %d ticks (%s at %s per tick)\n",
			sum.RestTicks, time.Duration(sum.RestTicks)*regenInterval, regenInterval)
	}

	reasons := make([]combat.StopReason, 0, len(sum.StopReasons))
	for r := range sum.StopReasons {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	for _, r := range reasons {
		fmt.Fprintf(w, "  %-12s %d\n", r, sum.StopReasons[r])
	}
	fmt.Fprintf(w, "[%s]\n", elapsed)
}
