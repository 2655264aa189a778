package postgres_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/farmspot/internal/game/character"
	"github.com/cory-johannsen/farmspot/internal/storage/postgres"
	"github.com/cory-johannsen/farmspot/internal/storage/storetest"
	"github.com/cory-johannsen/farmspot/internal/testutil"
)

func truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE characters RESTART IDENTITY`)
	require.NoError(t, err)
}

func TestCharacterRepository_Contract(t *testing.T) {
	pool := testutil.NewPool(t)
	storetest.RunCharacterStoreContract(t, func(t *testing.T) storetest.Store {
		truncate(t, pool)
		return postgres.NewCharacterRepository(pool)
	}, postgres.ErrCharacterNameTaken)
}

func TestCharacterRepository_CheckConstraintRejectsBadLevel(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCharacterRepository(pool)

	created, err := repo.Create(context.Background(), storetest.NewCharacter(t, "Orla"))
	require.NoError(t, err)

	level := 0
	_, err = repo.Update(context.Background(), created.ID, character.Update{Level: &level})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, character.ErrCharacterNotFound)

	got, err := repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Level, "failed update rolls back")
}

func TestCharacterRepository_RegenerateMatchesInProcessRounding(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewCharacterRepository(pool)

	// vitality 5 at level 10: health_regen 2.0; energy 5: mana_regen 1.5
	c, err := character.New("Pell", "fighter", character.Attributes{Vitality: 5, Energy: 5})
	require.NoError(t, err)
	c.Level = 10
	c.CurrentHealth, c.CurrentMana = 1, 1
	created, err := repo.Create(context.Background(), c)
	require.NoError(t, err)

	want := *created
	want.Regenerate()

	changed, err := repo.Regenerate(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, want.CurrentHealth, got.CurrentHealth)
	assert.Equal(t, want.CurrentMana, got.CurrentMana)
}
