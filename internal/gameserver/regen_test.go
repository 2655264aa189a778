package gameserver_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/farmspot/internal/game/character"
	"github.com/cory-johannsen/farmspot/internal/gameserver"
	"github.com/cory-johannsen/farmspot/internal/storage/memory"
)

// wounded creates a character at 10 health and 10 mana with
// health_regen 1.55 and mana_regen 1.5.
func wounded(t *testing.T, store *memory.CharacterStore, name string) *character.Character {
	t.Helper()
	c, err := character.New(name, "fighter", character.Attributes{Vitality: 5, Energy: 5})
	require.NoError(t, err)
	c.CurrentHealth, c.CurrentMana = 10, 10
	created, err := store.Create(context.Background(), c)
	require.NoError(t, err)
	return created
}

func TestNewRegenTicker_PanicsOnZeroInterval(t *testing.T) {
	assert.Panics(t, func() {
		gameserver.NewRegenTicker(memory.NewCharacterStore(), 0, nil)
	})
}

func TestRegenTicker_TickRegeneratesIdleCharacters(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCharacterStore()
	idle := wounded(t, store, "Idle")
	busy := wounded(t, store, "Busy")
	inCombat := true
	_, err := store.Update(ctx, busy.ID, character.Update{InCombat: &inCombat})
	require.NoError(t, err)

	r := gameserver.NewRegenTicker(store, time.Second, nil)
	changed, ran := r.Tick(ctx)
	assert.True(t, ran)
	assert.Equal(t, 1, changed)

	got, err := store.Get(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.CurrentHealth)
	assert.Equal(t, 12, got.CurrentMana)

	got, err = store.Get(ctx, busy.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.CurrentHealth)
	assert.Equal(t, 10, got.CurrentMana)
}

func TestRegenTicker_FullCharactersDoNotCount(t *testing.T) {
	store := memory.NewCharacterStore()
	c, err := character.New("Fresh", "fighter", character.Attributes{})
	require.NoError(t, err)
	_, err = store.Create(context.Background(), c)
	require.NoError(t, err)

	changed, ran := gameserver.NewRegenTicker(store, time.Second, nil).Tick(context.Background())
	assert.True(t, ran)
	assert.Zero(t, changed)
}

// flakyStore fails Regenerate for one character ID.
type flakyStore struct {
	*memory.CharacterStore
	failID int64
}

func (s *flakyStore) Regenerate(ctx context.Context, id int64) (bool, error) {
	if id == s.failID {
		return false, errors.New("connection reset")
	}
	return s.CharacterStore.Regenerate(ctx, id)
}

func TestRegenTicker_LogsAndContinuesOnError(t *testing.T) {
	mem := memory.NewCharacterStore()
	bad := wounded(t, mem, "Bad")
	good := wounded(t, mem, "Good")

	core, logs := observer.New(zapcore.WarnLevel)
	r := gameserver.NewRegenTicker(&flakyStore{CharacterStore: mem, failID: bad.ID}, time.Second, zap.New(core))

	changed, ran := r.Tick(context.Background())
	assert.True(t, ran)
	assert.Equal(t, 1, changed)

	got, err := mem.Get(context.Background(), good.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.CurrentHealth)

	entries := logs.FilterMessage("regenerating character").All()
	require.Len(t, entries, 1)
	assert.Equal(t, bad.ID, entries[0].ContextMap()["character"])
}

// blockingStore holds List until release is closed.
type blockingStore struct {
	*memory.CharacterStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) List(ctx context.Context) ([]*character.Character, error) {
	close(s.entered)
	<-s.release
	return s.CharacterStore.List(ctx)
}

func TestRegenTicker_SkipsOverlappingTick(t *testing.T) {
	store := &blockingStore{
		CharacterStore: memory.NewCharacterStore(),
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	r := gameserver.NewRegenTicker(store, time.Second, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, ran := r.Tick(context.Background())
		assert.True(t, ran)
	}()
	<-store.entered

	_, ran := r.Tick(context.Background())
	assert.False(t, ran, "second tick must be skipped while the first is running")

	close(store.release)
	wg.Wait()
}

func TestRegenTicker_RunStopsOnCancel(t *testing.T) {
	store := memory.NewCharacterStore()
	c := wounded(t, store, "Runner")
	r := gameserver.NewRegenTicker(store, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		got, err := store.Get(context.Background(), c.ID)
		return err == nil && got.CurrentHealth > 10
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
