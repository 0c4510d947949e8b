// Package combat implements dice-based damage resolution and on-hit effects.
package combat

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/dice"
	"github.com/davidpendergast/skeletris-sub001/internal/game/event"
	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
	"github.com/davidpendergast/skeletris-sub001/internal/game/stat"
	"github.com/davidpendergast/skeletris-sub001/internal/game/status"
)

const (
	// AttackDieSides is the face count of attack dice.
	AttackDieSides = 6
	// DefenseDieSides is the face count of defense dice.
	DefenseDieSides = 4
)

// ResolveDice counts the attack dice left unblocked by the defense dice.
//
// Both pools are sorted ascending. The smallest remaining defense die is
// popped repeatedly: when it is >= the smallest remaining attack die, that
// attack die is blocked; otherwise the defense die is spent without effect.
// This greedy pass yields a maximum matching under the "defense >= attack"
// compatibility rule. Inputs are not modified.
//
// Postcondition: 0 <= result <= len(attack).
func ResolveDice(attack, defense []int) int {
	att := append([]int(nil), attack...)
	def := append([]int(nil), defense...)
	sort.Ints(att)
	sort.Ints(def)

	blocked := 0
	for _, d := range def {
		if blocked == len(att) {
			break
		}
		if d >= att[blocked] {
			blocked++
		}
	}
	return len(att) - blocked
}

// HitResult is the transient outcome of ApplyDamageAndHitEffects. It is
// consumed once by the invoking action.
type HitResult struct {
	Missed     bool
	ShouldSwap bool
	Killed     bool
}

// Hit describes one landed (or missed) attack.
type Hit struct {
	Damage   int
	Attacker *actor.Actor // nil for environmental damage
	Defender *actor.Actor
	Item     item.Item // weapon or thrown item; nil when unarmed
	Thrown   bool
	Melee    bool
	Tick     int
}

// Resolver rolls damage and applies its consequences.
type Resolver struct {
	statuses  *status.Registry
	roller    *dice.Roller
	bus       *event.Bus
	presenter event.Presenter
	logger    *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: every argument must be non-nil.
func NewResolver(statuses *status.Registry, roller *dice.Roller, bus *event.Bus, presenter event.Presenter, logger *zap.Logger) *Resolver {
	if statuses == nil || roller == nil || bus == nil || presenter == nil || logger == nil {
		panic("combat.NewResolver: all dependencies must be non-nil")
	}
	return &Resolver{statuses: statuses, roller: roller, bus: bus, presenter: presenter, logger: logger}
}

// DetermineDamageDealt rolls attacker's pool of d6 against defender's pool of
// d4 and returns the unblocked count. Thrown attacks deal at least 1 so that
// thrown items always trigger their on-hit effects.
//
// Postcondition: 0 <= result <= attacker.AttackValue(it, thrown), or 1 when
// thrown and the attack pool is empty.
func (r *Resolver) DetermineDamageDealt(attacker, defender *actor.State, it item.Item, thrown bool) int {
	attack := r.roller.Pool("attack", attacker.AttackValue(it, thrown), AttackDieSides)
	defense := r.roller.Pool("defense", defender.Defense(), DefenseDieSides)
	dmg := ResolveDice(attack, defense)
	if thrown && dmg < 1 {
		dmg = 1
	}
	r.logger.Debug("damage determined",
		zap.String("attacker", attacker.Name),
		zap.String("defender", defender.Name),
		zap.Ints("attack", attack),
		zap.Ints("defense", defense),
		zap.Bool("thrown", thrown),
		zap.Int("damage", dmg),
	)
	return dmg
}

// onHitEffect binds an on-hit stat to the status effect it grants.
type onHitEffect struct {
	stat      stat.Type
	status    string
	meleeOnly bool
}

var attackerOnHit = []onHitEffect{
	{stat: stat.PlusDefenseOnHit, status: status.DefenseUp},
}

var defenderOnHit = []onHitEffect{
	{stat: stat.PoisonOnHit, status: status.Poisoned},
	{stat: stat.ConfusionOnHit, status: status.Confused},
	{stat: stat.BlindnessOnHit, status: status.Blinded},
	{stat: stat.FlinchOnHit, status: status.Flinched},
	{stat: stat.SlowOnHit, status: status.Slowed},
	{stat: stat.ChillOnHit, status: status.Chilled},
	{stat: stat.GraspOnMeleeHit, status: status.Grasped, meleeOnly: true},
}

// onHitValue reads an on-hit stat. Thrown attacks carry only the thrown
// item's own stats; other attacks use the attacker's global stats, which
// already include any equipped weapon.
func onHitValue(h Hit, t stat.Type) int {
	if h.Thrown {
		if h.Item == nil {
			return 0
		}
		return h.Item.StatValue(t, true)
	}
	if h.Attacker == nil {
		return 0
	}
	return h.Attacker.State.Stat(t)
}

// ApplyDamageAndHitEffects commits h to the defender.
//
// A non-positive damage is a miss with no further effect. Otherwise hp is
// reduced, the swap decision is made (SWAP_ON_HIT on the attacker or
// SWAPS_WHEN_HIT on the defender, vetoed by UNSWAPPABLE on either side), a
// kill publishes ActorKilled and heals the attacker by HP_ON_KILL, and
// on-hit status effects are granted. Blocked status effects are skipped
// silently.
//
// Precondition: h.Defender must be non-nil.
func (r *Resolver) ApplyDamageAndHitEffects(h Hit) HitResult {
	def := h.Defender
	if h.Damage <= 0 {
		r.presenter.FloatingText(def.Pos, "miss", "white")
		return HitResult{Missed: true}
	}

	wasAlive := def.IsAlive()
	def.State.SetHP(def.State.HP() - h.Damage)
	r.presenter.FloatingText(def.Pos, fmt.Sprintf("-%d", h.Damage), "red")
	r.presenter.DamageTaken(def.ID)

	var res HitResult
	swapRequested := onHitValue(h, stat.SwapOnHit) > 0 || def.State.Stat(stat.SwapsWhenHit) > 0
	vetoed := def.State.Stat(stat.Unswappable) > 0 ||
		(h.Attacker != nil && h.Attacker.State.Stat(stat.Unswappable) > 0)
	res.ShouldSwap = swapRequested && !vetoed && h.Attacker != nil

	if wasAlive && !def.IsAlive() {
		res.Killed = true
		var killer actor.ID
		if h.Attacker != nil {
			killer = h.Attacker.ID
		}
		r.bus.Publish(event.Event{Kind: event.ActorKilled, Tick: h.Tick, VictimID: def.ID, KillerID: killer})
		if h.Attacker != nil && h.Attacker.IsAlive() {
			if heal := onHitValue(h, stat.HPOnKill); heal > 0 {
				h.Attacker.State.SetHP(h.Attacker.State.HP() + heal)
				r.presenter.FloatingText(h.Attacker.Pos, fmt.Sprintf("+%d", heal), "green")
			}
		}
	}

	if h.Attacker != nil && h.Attacker.IsAlive() {
		r.grant(h.Attacker, h, attackerOnHit)
	}
	if def.IsAlive() {
		r.grant(def, h, defenderOnHit)
	}
	return res
}

func (r *Resolver) grant(target *actor.Actor, h Hit, effects []onHitEffect) {
	for _, e := range effects {
		if e.meleeOnly && !h.Melee {
			continue
		}
		duration := onHitValue(h, e.stat)
		if duration <= 0 {
			continue
		}
		def, ok := r.statuses.Get(e.status)
		if !ok {
			r.logger.Warn("on-hit status effect not registered", zap.String("status", e.status))
			continue
		}
		if target.State.AddStatusEffect(def, duration) {
			r.presenter.FloatingText(target.Pos, def.Name, def.Color)
		}
	}
}

// ApplyStatus grants the status effect id to target, returning false when it
// is unknown or blocked.
func (r *Resolver) ApplyStatus(target *actor.Actor, id string, duration int) bool {
	def, ok := r.statuses.Get(id)
	if !ok {
		r.logger.Warn("status effect not registered", zap.String("status", id))
		return false
	}
	if !target.State.AddStatusEffect(def, duration) {
		return false
	}
	r.presenter.FloatingText(target.Pos, def.Name, def.Color)
	return true
}

// Statuses returns the status registry.
func (r *Resolver) Statuses() *status.Registry { return r.statuses }

// Roller returns the logged dice roller.
func (r *Resolver) Roller() *dice.Roller { return r.roller }
