package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/farmspot/internal/game/dice"
	"github.com/cory-johannsen/farmspot/internal/game/world"
)

// fixedSource returns values from a fixed sequence, wrapping modulo n.
type fixedSource struct {
	vals []int
	i    int
}

func (f *fixedSource) Intn(n int) int {
	v := f.vals[f.i%len(f.vals)]
	f.i++
	return v % n
}

func testTemplate() *world.ZoneTemplate {
	return &world.ZoneTemplate{
		ID:            "meadow",
		ContinentID:   "home",
		Name:          "Meadow",
		MinLevel:      1,
		MaxLevel:      10,
		UnlockLevel:   1,
		BalanceFactor: 1.5,
		SpotNames:     []string{"North Field", "South Field"},
		Archetypes: []world.Archetype{
			{ID: "slime", Name: "Slime", Rarity: world.RarityCommon, Speed: 80, HealthMul: 10, AttackMul: 2.5, DefenseMul: 0.5, ExpMul: 4, GoldMul: 1.5},
			{ID: "beetle", Name: "Beetle", Rarity: world.RarityUncommon, Speed: 90, HealthMul: 12, AttackMul: 3, DefenseMul: 1, ExpMul: 0.1, GoldMul: 0},
			{ID: "hornet", Name: "Hornet", Rarity: world.RarityRare, Speed: 130, HealthMul: 0.2, AttackMul: 4, DefenseMul: 0, ExpMul: 6, GoldMul: 2},
		},
	}
}

func newTestGenerator(t *testing.T, src dice.Source, opts ...world.GeneratorOption) *world.Generator {
	t.Helper()
	gen, err := world.NewGenerator([]*world.ZoneTemplate{testTemplate()}, "meadow", src, opts...)
	require.NoError(t, err)
	return gen
}

func TestNewGenerator_Errors(t *testing.T) {
	src := dice.NewSeededSource(1)
	_, err := world.NewGenerator([]*world.ZoneTemplate{testTemplate()}, "nowhere", src)
	assert.ErrorContains(t, err, "fallback zone")

	_, err = world.NewGenerator([]*world.ZoneTemplate{testTemplate(), testTemplate()}, "meadow", src)
	assert.ErrorContains(t, err, "duplicate zone")

	_, err = world.NewGenerator([]*world.ZoneTemplate{testTemplate()}, "meadow", nil)
	assert.Error(t, err)

	bad := testTemplate()
	bad.Archetypes = nil
	_, err = world.NewGenerator([]*world.ZoneTemplate{bad}, "meadow", src)
	assert.Error(t, err)
}

func TestGenerateZoneMobs_Formulas(t *testing.T) {
	gen := newTestGenerator(t, dice.NewSeededSource(1))
	mobs := gen.GenerateZoneMobs("meadow", 4)
	require.Len(t, mobs, 3)

	slime := mobs[0]
	assert.Equal(t, "meadow:slime", slime.ID)
	assert.Equal(t, "slime", slime.TemplateID)
	assert.Equal(t, 4, slime.Level)
	assert.Equal(t, 40, slime.Health)
	assert.Equal(t, 40, slime.MaxHealth)
	assert.Equal(t, 10, slime.Attack)
	assert.Equal(t, 2, slime.Defense)
	assert.Equal(t, 24, slime.ExperienceReward) // floor(4 * 4 * 1.5)
	assert.Equal(t, 6, slime.GoldReward)

	beetle := mobs[1]
	assert.Equal(t, 5, beetle.Level)
	assert.Equal(t, world.MinExperienceReward, beetle.ExperienceReward) // floor(0.1*5*1.5) = 0
	assert.Equal(t, 0, beetle.GoldReward)

	hornet := mobs[2]
	assert.Equal(t, 6, hornet.Level)
	assert.Equal(t, 1, hornet.Health) // floor(0.2*6) = 1
}

func TestGenerateZoneMobs_UnknownZoneUsesFallback(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gen := newTestGenerator(t, dice.NewSeededSource(1), world.WithLogger(zap.New(core)))

	mobs := gen.GenerateZoneMobs("atlantis", 1)
	require.Len(t, mobs, 3)
	assert.Equal(t, "meadow:slime", mobs[0].ID)
	assert.Equal(t, 1, logs.FilterMessage("unknown zone, using fallback template").Len())
}

func TestGenerateZoneMobs_BalanceOverride(t *testing.T) {
	var gotZone string
	var gotStatic float64
	gen := newTestGenerator(t, dice.NewSeededSource(1), world.WithBalance(func(zoneID string, level int, static float64) float64 {
		gotZone, gotStatic = zoneID, static
		return 2.0
	}))
	mobs := gen.GenerateZoneMobs("meadow", 4)
	assert.Equal(t, "meadow", gotZone)
	assert.Equal(t, 1.5, gotStatic)
	assert.Equal(t, 32, mobs[0].ExperienceReward) // floor(4 * 4 * 2.0)
}

func TestGenerateZoneMobs_InvalidBalanceFallsBackToStatic(t *testing.T) {
	gen := newTestGenerator(t, dice.NewSeededSource(1), world.WithBalance(func(string, int, float64) float64 {
		return -3
	}))
	assert.Equal(t, 24, gen.GenerateZoneMobs("meadow", 4)[0].ExperienceReward)
}

func TestCreateFarmSpots_GridLayout(t *testing.T) {
	gen := newTestGenerator(t, dice.NewSeededSource(7))
	spots := gen.CreateFarmSpots("meadow", 3, 3)
	require.Len(t, spots, 9)

	assert.Equal(t, "meadow-0-0", spots[0].ID)
	assert.Equal(t, "North Field", spots[0].Name)
	assert.Equal(t, "South Field", spots[1].Name)
	assert.Equal(t, "Spot 3-1", spots[2].Name)
	assert.Equal(t, "Spot 1-2", spots[3].Name)
	assert.Equal(t, 0, spots[3].X)
	assert.Equal(t, 1, spots[3].Y)
	for _, s := range spots {
		assert.Equal(t, "meadow", s.ZoneID)
	}
}

func TestCreateFarmSpots_DefaultGridSize(t *testing.T) {
	gen := newTestGenerator(t, dice.NewSeededSource(7))
	assert.Len(t, gen.CreateFarmSpots("meadow", 1, 0), world.DefaultGridSize*world.DefaultGridSize)
	assert.Len(t, gen.CreateFarmSpots("meadow", 1, -2), world.DefaultGridSize*world.DefaultGridSize)
}

func TestCreateFarmSpots_RescalesToJitteredLevel(t *testing.T) {
	// archetype 0, group size 1, jitter +1
	src := &fixedSource{vals: []int{0, 0, 2}}
	gen := newTestGenerator(t, src)
	spots := gen.CreateFarmSpots("meadow", 4, 1)
	require.Len(t, spots, 1)
	require.Len(t, spots[0].Mobs, 1)

	m := spots[0].Mobs[0]
	assert.Equal(t, 5, m.Level)
	assert.Equal(t, 50, m.MaxHealth) // floor(40 * 5/4)
	assert.Equal(t, m.MaxHealth, m.Health)
	assert.Equal(t, 12, m.Attack) // floor(10 * 5/4)
	assert.Equal(t, 30, m.ExperienceReward)
	assert.Equal(t, 5, spots[0].MinLevel)
	assert.Equal(t, 5, spots[0].MaxLevel)
	assert.Len(t, m.ID, 36)
}

func TestCreateFarmSpots_InstanceIDsAreUnique(t *testing.T) {
	gen := newTestGenerator(t, dice.NewSeededSource(3))
	seen := make(map[string]bool)
	for _, s := range gen.CreateFarmSpots("meadow", 5, 4) {
		for _, m := range s.Mobs {
			assert.False(t, seen[m.ID], "duplicate mob id %s", m.ID)
			seen[m.ID] = true
		}
	}
}

func TestCreateFarmSpots_Invariants(t *testing.T) {
	gen := newTestGenerator(t, dice.NewCryptoSource())
	for i := 0; i < 1000; i++ {
		base := 1 + i%60
		for _, s := range gen.CreateFarmSpots("meadow", base, 2) {
			require.GreaterOrEqual(t, len(s.Mobs), 1)
			require.LessOrEqual(t, len(s.Mobs), world.MaxGroupSize)
			for _, m := range s.Mobs {
				require.GreaterOrEqual(t, m.Level, max(1, base-1))
				require.LessOrEqual(t, m.Level, base+world.MaxLevelSpread)
				require.GreaterOrEqual(t, m.Health, 1)
				require.GreaterOrEqual(t, m.ExperienceReward, world.MinExperienceReward)
				require.GreaterOrEqual(t, m.GoldReward, 0)
			}
		}
	}
}

func TestCreateFarmSpots_SeededSourceIsReproducible(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		base := rapid.IntRange(1, 80).Draw(rt, "base")
		a := newTestGenerator(t, dice.NewSeededSource(seed)).CreateFarmSpots("meadow", base, 3)
		b := newTestGenerator(t, dice.NewSeededSource(seed)).CreateFarmSpots("meadow", base, 3)
		require.Len(rt, b, len(a))
		for i := range a {
			require.Len(rt, b[i].Mobs, len(a[i].Mobs))
			for j := range a[i].Mobs {
				assert.Equal(rt, a[i].Mobs[j].TemplateID, b[i].Mobs[j].TemplateID)
				assert.Equal(rt, a[i].Mobs[j].Level, b[i].Mobs[j].Level)
			}
		}
	})
}

func TestFarmSpot_CloneMobsIsIndependent(t *testing.T) {
	gen := newTestGenerator(t, dice.NewSeededSource(11))
	spot := gen.CreateFarmSpots("meadow", 3, 1)[0]
	clone := spot.CloneMobs()
	clone[0].Health = 0
	assert.Equal(t, spot.Mobs[0].MaxHealth, spot.Mobs[0].Health)
}
