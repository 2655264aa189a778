package world

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/farmspot/internal/game/dice"
)

const (
	// DefaultGridSize is the side length of a zone's farm spot grid.
	DefaultGridSize = 4
	// MaxGroupSize bounds the number of mobs in a single pull.
	MaxGroupSize = 4
	// MinExperienceReward is the floor applied to every mob's experience reward.
	MinExperienceReward = 1
	// LevelJitter is the maximum level offset applied to a spawned mob.
	LevelJitter = 1
	// MaxLevelSpread is how far above the zone base level a spawned mob may be.
	MaxLevelSpread = 3
)

// BalanceFunc returns the experience balance factor for zoneID at level.
// static is the factor from the zone template.
type BalanceFunc func(zoneID string, level int, static float64) float64

// Generator produces mobs and farm spots from zone templates.
// It is safe for concurrent use when its Source is.
type Generator struct {
	templates map[string]*ZoneTemplate
	fallback  *ZoneTemplate
	src       dice.Source
	balance   BalanceFunc
	logger    *zap.Logger
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithBalance overrides the per-zone balance factor lookup.
func WithBalance(fn BalanceFunc) GeneratorOption {
	return func(g *Generator) { g.balance = fn }
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(logger *zap.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = logger }
}

// NewGenerator creates a Generator over templates.
//
// Precondition: src must be non-nil; every template must be valid.
// Postcondition: Returns a Generator or an error if fallbackID is unknown or a
// template is invalid or duplicated.
func NewGenerator(templates []*ZoneTemplate, fallbackID string, src dice.Source, opts ...GeneratorOption) (*Generator, error) {
	if src == nil {
		return nil, fmt.Errorf("world generator: source must not be nil")
	}
	g := &Generator{
		templates: make(map[string]*ZoneTemplate, len(templates)),
		src:       src,
		logger:    zap.NewNop(),
	}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("world generator: %w", err)
		}
		if _, dup := g.templates[t.ID]; dup {
			return nil, fmt.Errorf("world generator: duplicate zone ID: %q", t.ID)
		}
		g.templates[t.ID] = t
	}
	fb, ok := g.templates[fallbackID]
	if !ok {
		return nil, fmt.Errorf("world generator: fallback zone %q not found", fallbackID)
	}
	g.fallback = fb
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NewGeneratorFromDefinition creates a Generator over every zone of def.
func NewGeneratorFromDefinition(def *Definition, src dice.Source, opts ...GeneratorOption) (*Generator, error) {
	return NewGenerator(def.ZoneTemplates(), def.FallbackZone, src, opts...)
}

// template resolves zoneID, falling back to the default zone for unknown IDs.
func (g *Generator) template(zoneID string) *ZoneTemplate {
	if t, ok := g.templates[zoneID]; ok {
		return t
	}
	g.logger.Debug("unknown zone, using fallback template",
		zap.String("zone", zoneID),
		zap.String("fallback", g.fallback.ID),
	)
	return g.fallback
}

func (g *Generator) balanceFactor(t *ZoneTemplate, level int) float64 {
	if g.balance == nil {
		return t.BalanceFactor
	}
	f := g.balance(t.ID, level, t.BalanceFactor)
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return t.BalanceFactor
	}
	return f
}

// GenerateZoneMobs returns one template mob per archetype of zoneID. The
// archetype at index i is generated at level baseLevel+i. Unknown zones use
// the fallback template.
//
// Postcondition: len(result) == number of archetypes; every mob has
// Health >= 1, ExperienceReward >= MinExperienceReward and GoldReward >= 0.
func (g *Generator) GenerateZoneMobs(zoneID string, baseLevel int) []Mob {
	return g.zoneMobs(g.template(zoneID), baseLevel)
}

func (g *Generator) zoneMobs(t *ZoneTemplate, baseLevel int) []Mob {
	if baseLevel < 1 {
		baseLevel = 1
	}
	mobs := make([]Mob, 0, len(t.Archetypes))
	for i, a := range t.Archetypes {
		mobs = append(mobs, g.mobAt(t, a, baseLevel+i))
	}
	return mobs
}

func (g *Generator) mobAt(t *ZoneTemplate, a Archetype, level int) Mob {
	lvl := float64(level)
	hp := max(1, floorInt(a.HealthMul*lvl))
	return Mob{
		ID:               t.ID + ":" + a.ID,
		TemplateID:       a.ID,
		Name:             a.Name,
		Level:            level,
		Health:           hp,
		MaxHealth:        hp,
		Attack:           floorInt(a.AttackMul * lvl),
		Defense:          floorInt(a.DefenseMul * lvl),
		Speed:            a.Speed,
		ExperienceReward: max(MinExperienceReward, floorInt(a.ExpMul*lvl*g.balanceFactor(t, level))),
		GoldReward:       max(0, floorInt(a.GoldMul*lvl)),
		Rarity:           a.Rarity,
		Icon:             a.Icon,
	}
}

// CreateFarmSpots builds a gridSize×gridSize grid of farm spots for zoneID.
// Each spot holds a pull of 1..MaxGroupSize copies of one random archetype
// with level jitter of ±LevelJitter, its stats rescaled to the jittered level.
// gridSize <= 0 uses DefaultGridSize.
//
// Postcondition: len(result) == gridSize²; every pull has 1..MaxGroupSize mobs
// with levels in [max(1, baseLevel-1), baseLevel+MaxLevelSpread].
func (g *Generator) CreateFarmSpots(zoneID string, baseLevel, gridSize int) []*FarmSpot {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	if baseLevel < 1 {
		baseLevel = 1
	}
	t := g.template(zoneID)
	templates := g.zoneMobs(t, baseLevel)

	spots := make([]*FarmSpot, 0, gridSize*gridSize)
	for y := 0; y < gridSize; y++ {
		for x := 0; x < gridSize; x++ {
			spot := &FarmSpot{
				ID:     fmt.Sprintf("%s-%d-%d", t.ID, x, y),
				ZoneID: t.ID,
				Name:   spotName(t.SpotNames, y*gridSize+x, x, y),
				X:      x,
				Y:      y,
				Mobs:   g.pull(templates, baseLevel),
			}
			spot.MinLevel, spot.MaxLevel = levelRange(spot.Mobs)
			spots = append(spots, spot)
		}
	}
	return spots
}

func (g *Generator) pull(templates []Mob, baseLevel int) []Mob {
	base := templates[g.src.Intn(len(templates))]
	size := 1 + g.src.Intn(MaxGroupSize)
	lo, hi := max(1, baseLevel-LevelJitter), baseLevel+MaxLevelSpread

	mobs := make([]Mob, 0, size)
	for i := 0; i < size; i++ {
		level := min(hi, max(lo, base.Level+dice.Jitter(g.src, LevelJitter)))
		mobs = append(mobs, rescale(base, level))
	}
	return mobs
}

// rescale returns a fresh instance of m at level with stats and rewards
// scaled by level/m.Level. The ratio is against the generated mob's own level,
// not the zone base level, since m is already scaled to the base level.
func rescale(m Mob, level int) Mob {
	ratio := float64(level) / float64(m.Level)
	out := m
	out.ID = uuid.NewString()
	out.Level = level
	out.MaxHealth = max(1, floorInt(float64(m.MaxHealth)*ratio))
	out.Health = out.MaxHealth
	out.Attack = floorInt(float64(m.Attack) * ratio)
	out.Defense = floorInt(float64(m.Defense) * ratio)
	out.ExperienceReward = max(MinExperienceReward, floorInt(float64(m.ExperienceReward)*ratio))
	out.GoldReward = max(0, floorInt(float64(m.GoldReward)*ratio))
	return out
}

func spotName(pool []string, idx, x, y int) string {
	if idx < len(pool) {
		return pool[idx]
	}
	return fmt.Sprintf("Spot %d-%d", x+1, y+1)
}

func levelRange(mobs []Mob) (lo, hi int) {
	for i, m := range mobs {
		if i == 0 || m.Level < lo {
			lo = m.Level
		}
		if m.Level > hi {
			hi = m.Level
		}
	}
	return lo, hi
}

func floorInt(v float64) int {
	return int(math.Floor(v))
}
