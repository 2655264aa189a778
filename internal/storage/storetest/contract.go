// Package storetest holds the behavioral contract shared by every character
// store implementation. Each store's tests run it against a fresh instance.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/farmspot/internal/game/character"
)

// Store is the method set under test.
type Store interface {
	Create(ctx context.Context, c *character.Character) (*character.Character, error)
	Get(ctx context.Context, id int64) (*character.Character, error)
	List(ctx context.Context) ([]*character.Character, error)
	Update(ctx context.Context, id int64, u character.Update) (*character.Character, error)
	Regenerate(ctx context.Context, id int64) (bool, error)
}

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) Store

// RunCharacterStoreContract runs the character store contract against stores
// produced by newStore. errNameTaken is the store's duplicate-name sentinel.
func RunCharacterStoreContract(t *testing.T, newStore Factory, errNameTaken error) {
	t.Run("CreateAssignsIDAndRecalculates", func(t *testing.T) {
		s := newStore(t)
		c := NewCharacter(t, "Aria")
		c.MaxHealth = 1

		created, err := s.Create(context.Background(), c)
		require.NoError(t, err)
		assert.Greater(t, created.ID, int64(0))
		assert.Equal(t, "Aria", created.Name)
		assert.Equal(t, "fighter", created.Class)
		assert.Equal(t, 1, created.Level)
		assert.Equal(t, 200, created.MaxHealth)
		assert.Equal(t, 200, created.CurrentHealth)
		assert.InDelta(t, 2.05, created.HealthRegen, 1e-9)
		assert.False(t, created.CreatedAt.IsZero())
		assert.Zero(t, c.ID, "input must not be modified")
	})

	t.Run("CreateDuplicateName", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(context.Background(), NewCharacter(t, "Twin"))
		require.NoError(t, err)
		_, err = s.Create(context.Background(), NewCharacter(t, "Twin"))
		assert.ErrorIs(t, err, errNameTaken)
	})

	t.Run("GetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(context.Background(), NewCharacter(t, "Bram"))
		require.NoError(t, err)

		got, err := s.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Attributes, got.Attributes)
		assert.Equal(t, created.CurrentMana, got.CurrentMana)
		assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Millisecond)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), 424242)
		assert.ErrorIs(t, err, character.ErrCharacterNotFound)
	})

	t.Run("ListOrderedByID", func(t *testing.T) {
		s := newStore(t)
		got, err := s.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)

		for i := range 3 {
			_, err := s.Create(context.Background(), NewCharacter(t, fmt.Sprintf("Hero%d", i)))
			require.NoError(t, err)
		}
		got, err = s.List(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 3)
		for i := 1; i < len(got); i++ {
			assert.Less(t, got[i-1].ID, got[i].ID)
		}
	})

	t.Run("UpdatePartialFields", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(context.Background(), NewCharacter(t, "Cato"))
		require.NoError(t, err)

		gold := int64(99)
		inCombat := true
		updated, err := s.Update(context.Background(), created.ID, character.Update{Gold: &gold, InCombat: &inCombat})
		require.NoError(t, err)
		assert.Equal(t, int64(99), updated.Gold)
		assert.True(t, updated.InCombat)
		assert.Equal(t, created.CurrentHealth, updated.CurrentHealth, "untouched fields keep their values")
		assert.Equal(t, created.Experience, updated.Experience)
	})

	t.Run("UpdateAttributesRecalculatesAndClamps", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(context.Background(), NewCharacter(t, "Dara"))
		require.NoError(t, err)

		attrs := created.Attributes
		attrs.Vitality = 0
		updated, err := s.Update(context.Background(), created.ID, character.Update{Attributes: &attrs})
		require.NoError(t, err)
		assert.Equal(t, 100, updated.MaxHealth)
		assert.Equal(t, 100, updated.CurrentHealth)

		huge := 1_000_000
		updated, err = s.Update(context.Background(), created.ID, character.Update{CurrentHealth: &huge})
		require.NoError(t, err)
		assert.Equal(t, updated.MaxHealth, updated.CurrentHealth)
	})

	t.Run("UpdateEmptyIsNoop", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(context.Background(), NewCharacter(t, "Eda"))
		require.NoError(t, err)
		got, err := s.Update(context.Background(), created.ID, character.Update{})
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, created.CurrentHealth, got.CurrentHealth)
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		s := newStore(t)
		gold := int64(1)
		_, err := s.Update(context.Background(), 424242, character.Update{Gold: &gold})
		assert.ErrorIs(t, err, character.ErrCharacterNotFound)
	})

	t.Run("ConcurrentUpdatesSerialize", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(context.Background(), NewCharacter(t, "Fen"))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				gold := int64(i)
				_, err := s.Update(context.Background(), created.ID, character.Update{Gold: &gold})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Gold, int64(0))
		assert.Less(t, got.Gold, int64(10))
	})

	t.Run("RegenerateAppliesRates", func(t *testing.T) {
		s := newStore(t)
		c := NewCharacter(t, "Gil")
		c.CurrentHealth, c.CurrentMana = 10, 10
		created, err := s.Create(context.Background(), c)
		require.NoError(t, err)

		changed, err := s.Regenerate(context.Background(), created.ID)
		require.NoError(t, err)
		assert.True(t, changed)

		got, err := s.Get(context.Background(), created.ID)
		require.NoError(t, err)
		// health_regen 2.05 and mana_regen 1.75 both round to 2
		assert.Equal(t, 12, got.CurrentHealth)
		assert.Equal(t, 12, got.CurrentMana)
	})

	t.Run("RegenerateClampsAtMax", func(t *testing.T) {
		s := newStore(t)
		c := NewCharacter(t, "Hale")
		c.CurrentHealth = c.MaxHealth - 1
		created, err := s.Create(context.Background(), c)
		require.NoError(t, err)

		changed, err := s.Regenerate(context.Background(), created.ID)
		require.NoError(t, err)
		assert.True(t, changed)
		got, err := s.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, got.MaxHealth, got.CurrentHealth)

		changed, err = s.Regenerate(context.Background(), created.ID)
		require.NoError(t, err)
		assert.False(t, changed, "full pools do not change")
	})

	t.Run("RegenerateSkipsInCombat", func(t *testing.T) {
		s := newStore(t)
		c := NewCharacter(t, "Ivo")
		c.CurrentHealth = 10
		c.InCombat = true
		created, err := s.Create(context.Background(), c)
		require.NoError(t, err)

		changed, err := s.Regenerate(context.Background(), created.ID)
		require.NoError(t, err)
		assert.False(t, changed)
		got, err := s.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.CurrentHealth)
	})

	t.Run("RegenerateNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Regenerate(context.Background(), 424242)
		assert.ErrorIs(t, err, character.ErrCharacterNotFound)
	})
}

// NewCharacter returns an unsaved level 1 fighter named name with
// vitality 10, energy 5 and intelligence 5.
func NewCharacter(t *testing.T, name string) *character.Character {
	t.Helper()
	c, err := character.New(name, "fighter", character.Attributes{
		Strength: 12, Dexterity: 8, Intelligence: 5, Vitality: 10, Energy: 5, Luck: 3,
	})
	require.NoError(t, err)
	return c
}
