package gameserver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/farmspot/internal/game/character"
	"github.com/cory-johannsen/farmspot/internal/game/combat"
	"github.com/cory-johannsen/farmspot/internal/gameserver"
)

type staticLoadouts []string

func (s staticLoadouts) DefaultLoadout(string, int) []string { return s }

func TestSimulator_AggregatesVictories(t *testing.T) {
	f := newFixture(t)
	sim := gameserver.NewSimulator(f.svc, f.store, staticLoadouts{"slam"})

	sum, err := sim.Run(context.Background(), f.char.ID, gameserver.SimConfig{Encounters: 3, SpotID: "meadow-0-0"})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Encounters)
	assert.Equal(t, 3, sum.Victories)
	assert.Zero(t, sum.Defeats)
	assert.Equal(t, 3, sum.Rounds)
	assert.Equal(t, int64(3600), sum.Experience)
	assert.Equal(t, int64(21), sum.Gold)
	assert.Equal(t, int64(90), sum.DamageDealt)
	assert.Equal(t, 1, sum.StartLevel)
	assert.Equal(t, 3, sum.EndLevel)
	assert.Equal(t, 2, sum.LevelUps)
	assert.Equal(t, 3, sum.StopReasons[combat.ReasonVictory])
	assert.Equal(t, 1.0, sum.WinRate())
}

func TestSimulator_FocusSpendsStatPoints(t *testing.T) {
	f := newFixture(t)
	sim := gameserver.NewSimulator(f.svc, f.store, staticLoadouts{"slam"})

	_, err := sim.Run(context.Background(), f.char.ID, gameserver.SimConfig{
		Encounters: 1, SpotID: "meadow-0-0", Focus: character.Strength,
	})
	require.NoError(t, err)

	got, err := f.store.Get(context.Background(), f.char.ID)
	require.NoError(t, err)
	assert.Zero(t, got.StatPoints)
	assert.Equal(t, 15, got.Attributes.Strength)
}

func TestSimulator_UnknownFocusFails(t *testing.T) {
	f := newFixture(t)
	sim := gameserver.NewSimulator(f.svc, f.store, staticLoadouts{"slam"})
	_, err := sim.Run(context.Background(), f.char.ID, gameserver.SimConfig{
		Encounters: 1, SpotID: "meadow-0-0", Focus: "charisma",
	})
	assert.ErrorIs(t, err, character.ErrUnknownAttribute)
}

func TestSimulator_RestRecoversBetweenEncounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hp := 30
	_, err := f.store.Update(ctx, f.char.ID, character.Update{CurrentHealth: &hp})
	require.NoError(t, err)

	sim := gameserver.NewSimulator(f.svc, f.store, staticLoadouts{"slam"})
	sum, err := sim.Run(ctx, f.char.ID, gameserver.SimConfig{Encounters: 1, SpotID: "meadow-0-0", Rest: true})
	require.NoError(t, err)

	// health_regen 1.55 rounds to 2: 60 ticks from 30 to 150
	assert.Equal(t, 60, sum.RestTicks)
	got, err := f.store.Get(ctx, f.char.ID)
	require.NoError(t, err)
	assert.Equal(t, got.MaxHealth, got.CurrentHealth)
}

func TestSimulator_DefaultLoadoutUsedWhenSkillsEmpty(t *testing.T) {
	f := newFixture(t)
	sim := gameserver.NewSimulator(f.svc, f.store, staticLoadouts(nil))

	sum, err := sim.Run(context.Background(), f.char.ID, gameserver.SimConfig{Encounters: 2, SpotID: "meadow-0-0", Rest: true})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Skipped)
	assert.Zero(t, sum.Encounters)
	assert.Zero(t, sum.Defeats)
	assert.Zero(t, sum.RestTicks)
	assert.Empty(t, sum.StopReasons)
	assert.Zero(t, sum.WinRate())
}

func TestSimulator_StopsOnError(t *testing.T) {
	f := newFixture(t)
	sim := gameserver.NewSimulator(f.svc, f.store, staticLoadouts{"slam"})
	sum, err := sim.Run(context.Background(), f.char.ID, gameserver.SimConfig{Encounters: 3, SpotID: "crypt-0-0"})
	assert.ErrorIs(t, err, gameserver.ErrZoneLocked)
	assert.Zero(t, sum.Encounters)
}

func TestSimulator_CancelledContextRunsNothing(t *testing.T) {
	f := newFixture(t)
	sim := gameserver.NewSimulator(f.svc, f.store, staticLoadouts{"slam"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := sim.Run(ctx, f.char.ID, gameserver.SimConfig{Encounters: 5, SpotID: "meadow-0-0"})
	require.NoError(t, err)
	assert.Zero(t, sum.Encounters)
	assert.Equal(t, sum.StartLevel, sum.EndLevel)
}
