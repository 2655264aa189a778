package combat

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/farmspot/internal/game/character"
	"github.com/cory-johannsen/farmspot/internal/game/skill"
	"github.com/cory-johannsen/farmspot/internal/game/world"
)

// SkillSource resolves a class's skill by ID.
type SkillSource interface {
	Lookup(class, id string) (*skill.Skill, bool)
}

// Engine resolves encounters. It holds no per-encounter state and is safe for
// concurrent use when its SkillSource and Clock are.
type Engine struct {
	skills SkillSource
	clock  Clock
	logger *zap.Logger
}

// NewEngine creates an Engine.
//
// Precondition: skills must be non-nil. A nil clock uses SystemClock; a nil
// logger discards output.
func NewEngine(skills SkillSource, clock Clock, logger *zap.Logger) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{skills: skills, clock: clock, logger: logger}
}

// encounter is the mutable state of one Execute call.
type encounter struct {
	player     Combatant
	mobs       []world.Mob
	loadout    []*skill.Skill
	lastUsed   map[string]time.Time
	start      time.Time
	result     Result
	rewardExp  int64
	rewardGold int64
}

// Execute runs an encounter of player against mobs until a terminal state.
// mobs is copied and never modified. activeSkills is the priority order in
// which skills are tried each round; IDs unknown to the class are skipped and
// an empty list fights with basic attacks.
//
// Postcondition: Result.State is Victory or Defeat. Experience and Gold are
// the sums over every mob in mobs on Victory and zero otherwise.
func (e *Engine) Execute(ctx context.Context, player Combatant, mobs []world.Mob, activeSkills []string, opts Options) Result {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	enc := &encounter{
		player:   player,
		mobs:     make([]world.Mob, len(mobs)),
		loadout:  e.resolveLoadout(player, activeSkills),
		lastUsed: make(map[string]time.Time),
		result:   Result{State: Running, Items: []string{}, SkillsUsed: []string{}},
	}
	copy(enc.mobs, mobs)
	for _, m := range mobs {
		enc.rewardExp += int64(m.ExperienceReward)
		enc.rewardGold += int64(m.GoldReward)
	}

	log := e.logger.With(
		zap.String("player", player.Name),
		zap.String("class", player.Class),
		zap.Int("mobs", len(mobs)),
	)

	e.run(ctx, enc, opts, log)

	r := enc.result
	r.FinalHealth = enc.player.CurrentHealth
	r.FinalMana = enc.player.CurrentMana
	if r.State == Victory {
		r.Success = true
		r.Experience = enc.rewardExp
		r.Gold = enc.rewardGold
	}
	log.Info("encounter finished",
		zap.Stringer("state", r.State),
		zap.String("reason", string(r.StopReason)),
		zap.Int("rounds", r.Rounds),
		zap.Int("mobs_defeated", r.MobsDefeated),
		zap.Int64("experience", r.Experience),
		zap.Int64("gold", r.Gold),
	)
	return r
}

func (e *Engine) run(ctx context.Context, enc *encounter, opts Options, log *zap.Logger) {
	if allDead(enc.mobs) {
		enc.finish(Victory, ReasonVictory)
		return
	}
	if opts.RoundDuration > 0 {
		enc.start = e.clock.Now()
	}
	for {
		if enc.result.Rounds > 0 && !pace(ctx, opts.RoundDelay) {
			enc.finish(Defeat, ReasonCancelled)
			return
		}
		if ctx.Err() != nil {
			enc.finish(Defeat, ReasonCancelled)
			return
		}
		// stop conditions take precedence over the round limit
		if reason, stop := stopCondition(&enc.player, opts); stop {
			enc.finish(Defeat, reason)
			return
		}
		if enc.result.Rounds >= opts.MaxRounds {
			enc.finish(Defeat, ReasonExhausted)
			return
		}

		e.round(enc, e.roundTime(enc, opts), log)

		switch {
		case allDead(enc.mobs):
			enc.finish(Victory, ReasonVictory)
			return
		case enc.player.IsDead():
			enc.finish(Defeat, ReasonDefeated)
			return
		}
	}
}

// roundTime returns the time the next round is resolved at. With a positive
// RoundDuration the encounter runs on its own timeline, start plus one
// RoundDuration per completed round; otherwise the clock is read once.
func (e *Engine) roundTime(enc *encounter, opts Options) time.Time {
	if opts.RoundDuration > 0 {
		return enc.start.Add(time.Duration(enc.result.Rounds) * opts.RoundDuration)
	}
	return e.clock.Now()
}

// round resolves one player action at now followed by mob retaliation.
func (e *Engine) round(enc *encounter, now time.Time, log *zap.Logger) {
	enc.result.Rounds++
	p := &enc.player

	sk := enc.selectSkill(now)
	dealt := 0
	if sk != nil {
		p.CurrentMana = max(0, p.CurrentMana-sk.ManaCost)
		enc.result.ManaUsed += int64(sk.ManaCost)
		enc.result.SkillsUsed = append(enc.result.SkillsUsed, sk.ID)
		enc.lastUsed[sk.ID] = now
		for _, i := range enc.targets(sk.AOE) {
			dealt += enc.hit(i, SkillDamage(sk, p.Attributes, enc.mobs[i].Defense))
		}
	} else if i := enc.firstLiving(); i >= 0 {
		dealt += enc.hit(i, BasicDamage(p.Stats, enc.mobs[i].Defense))
	}

	taken := 0
	for _, m := range enc.mobs {
		if !m.IsDead() {
			taken += RetaliationDamage(m.Attack, p.Stats.Defense)
		}
	}
	p.CurrentHealth = max(0, p.CurrentHealth-taken)
	enc.result.DamageTaken += int64(taken)

	skillID := "basic_attack"
	if sk != nil {
		skillID = sk.ID
	}
	log.Debug("round resolved",
		zap.Int("round", enc.result.Rounds),
		zap.String("action", skillID),
		zap.Int("damage_dealt", dealt),
		zap.Int("damage_taken", taken),
		zap.Int("health", p.CurrentHealth),
		zap.Int("mana", p.CurrentMana),
	)
}

// hit applies damage to mob i and returns the computed damage.
func (enc *encounter) hit(i, damage int) int {
	m := &enc.mobs[i]
	m.Health = max(0, m.Health-damage)
	enc.result.TotalDamage += int64(damage)
	if m.IsDead() {
		enc.result.MobsDefeated++
	}
	return damage
}

func (enc *encounter) finish(s State, reason StopReason) {
	enc.result.State = s
	enc.result.StopReason = reason
}

// selectSkill returns the first loadout skill that is affordable and off
// cooldown at now, or nil for a basic attack.
func (enc *encounter) selectSkill(now time.Time) *skill.Skill {
	for _, sk := range enc.loadout {
		if sk.ManaCost > enc.player.CurrentMana {
			continue
		}
		if last, used := enc.lastUsed[sk.ID]; used && now.Sub(last) < sk.CooldownDuration() {
			continue
		}
		return sk
	}
	return nil
}

// targets returns the indices of the living mobs an action hits.
func (enc *encounter) targets(aoe bool) []int {
	if !aoe {
		if i := enc.firstLiving(); i >= 0 {
			return []int{i}
		}
		return nil
	}
	var out []int
	for i, m := range enc.mobs {
		if !m.IsDead() {
			out = append(out, i)
		}
	}
	return out
}

func (enc *encounter) firstLiving() int {
	for i, m := range enc.mobs {
		if !m.IsDead() {
			return i
		}
	}
	return -1
}

// resolveLoadout maps ids to the player's usable active skills in order,
// dropping unknown, passive and above-level entries.
func (e *Engine) resolveLoadout(p Combatant, ids []string) []*skill.Skill {
	out := make([]*skill.Skill, 0, len(ids))
	for _, id := range ids {
		sk, ok := e.skills.Lookup(p.Class, id)
		if !ok {
			e.logger.Debug("skipping unknown skill", zap.String("class", p.Class), zap.String("skill", id))
			continue
		}
		if !sk.IsActive() || sk.MinLevel > p.Level {
			continue
		}
		out = append(out, sk)
	}
	return out
}

func stopCondition(p *Combatant, opts Options) (StopReason, bool) {
	if opts.StopOnLowHealth && float64(p.CurrentHealth) < LowHealthThreshold*float64(p.MaxHealth) {
		return ReasonLowHealth, true
	}
	if opts.StopOnLowMana && float64(p.CurrentMana) < LowManaThreshold*float64(p.MaxMana) {
		return ReasonLowMana, true
	}
	return "", false
}

// pace waits d between rounds and reports false if ctx ends first.
func pace(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func allDead(mobs []world.Mob) bool {
	for _, m := range mobs {
		if !m.IsDead() {
			return false
		}
	}
	return true
}

// SkillDamage returns the damage sk deals to a target with the given defense.
//
// Postcondition: Returns max(1, base + round(scaling × ScalingMultiplier) - defense).
func SkillDamage(sk *skill.Skill, attrs character.Attributes, defense int) int {
	bonus := int(math.Round(float64(attrs.Value(sk.ScalingStat)) * ScalingMultiplier))
	return max(1, sk.BaseDamage+bonus-defense)
}

// BasicDamage returns the damage of a skill-less attack.
//
// Postcondition: Returns max(1, attack damage - defense).
func BasicDamage(stats character.DerivedStats, defense int) int {
	return max(1, stats.AttackDamage-defense)
}

// RetaliationDamage returns the damage a mob with attack deals to a player
// with the given defense.
//
// Postcondition: Returns max(1, attack - round(defense × MitigationFactor)).
func RetaliationDamage(attack int, defense float64) int {
	return max(1, attack-int(math.Round(defense*MitigationFactor)))
}
