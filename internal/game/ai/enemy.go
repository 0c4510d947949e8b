package ai

import (
	"sort"

	"github.com/davidpendergast/skeletris-sub001/internal/game/action"
	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/dice"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
	"github.com/davidpendergast/skeletris-sub001/internal/game/stat"
)

// EnemyConfig holds the enemy AI tunables.
type EnemyConfig struct {
	// AttackRadius bounds the Manhattan distance of attack targets.
	AttackRadius int
	// SmartPathingRange bounds the path search toward the player.
	SmartPathingRange int
	// PathingSkill is the chance to path smartly, indexed by intelligence-1.
	PathingSkill []float64
	// SpawnChance is the chance a visible spawner summons on its turn.
	SpawnChance float64
}

// DefaultEnemyConfig returns the stock tunables.
func DefaultEnemyConfig() EnemyConfig {
	return EnemyConfig{
		AttackRadius:      8,
		SmartPathingRange: 12,
		PathingSkill:      []float64{0.25, 0.5, 0.75, 0.9, 1.0},
		SpawnChance:       0.3,
	}
}

// EnemyController picks enemy actions with a fixed decision order: boss
// ambush guard, item use when visible, attack, spawn, movement, skip.
type EnemyController struct {
	cfg EnemyConfig
}

// NewEnemyController creates an EnemyController.
//
// Precondition: cfg.PathingSkill must be non-empty.
func NewEnemyController(cfg EnemyConfig) *EnemyController {
	if len(cfg.PathingSkill) == 0 {
		panic("ai.NewEnemyController: PathingSkill must not be empty")
	}
	return &EnemyController{cfg: cfg}
}

// NextAction returns the first possible action of the decision order.
//
// Postcondition: never returns nil.
func (e *EnemyController) NextAction(ctx *action.GameContext, a *actor.Actor) action.Action {
	w := ctx.World
	hidden := w.IsHidden(a.Pos)
	if a.State.Boss && hidden {
		return action.NewSkipTurn(a.ID, true)
	}
	if w.IsVisible(a.Pos) {
		if act := e.tryConsume(ctx, a); act != nil {
			return act
		}
		if act := e.tryThrow(ctx, a); act != nil {
			return act
		}
	}
	if act := e.tryAttack(ctx, a); act != nil {
		return act
	}
	if act := e.trySpawn(ctx, a); act != nil {
		return act
	}
	if act := e.tryMove(ctx, a, hidden); act != nil {
		return act
	}
	return action.NewSkipTurn(a.ID, true)
}

// potionKind classifies a consumable by what it does to whoever it hits.
type potionKind int

const (
	potionNone potionKind = iota
	potionHeal
	potionBuff
	potionDebuff
)

func classify(ctx *action.GameContext, it item.Item) potionKind {
	eff, ok := it.ConsumeEffect()
	if !ok {
		return potionNone
	}
	if eff.Heal != "" {
		return potionHeal
	}
	if eff.Status == "" {
		return potionNone
	}
	def, ok := ctx.Combat.Statuses().Get(eff.Status)
	switch {
	case !ok:
		return potionNone
	case def.StatValue(stat.HEALING, false) > 0:
		return potionHeal
	case def.HasTag("debuff"):
		return potionDebuff
	case def.HasTag("buff"):
		return potionBuff
	}
	return potionNone
}

// wounded reports hp <= 2/3 of max.
func wounded(a *actor.Actor) bool {
	return 3*a.State.HP() <= 2*a.State.MaxHP()
}

func (e *EnemyController) tryConsume(ctx *action.GameContext, a *actor.Actor) action.Action {
	if !wounded(a) || a.State.Stat(stat.PotionAffinity) < 1 {
		return nil
	}
	for _, it := range a.State.Inventory.Items() {
		if classify(ctx, it) != potionHeal {
			continue
		}
		if act := action.NewConsumeItem(a.ID, it); act.IsPossible(ctx) {
			return act
		}
	}
	return nil
}

func (e *EnemyController) tryThrow(ctx *action.GameContext, a *actor.Actor) action.Action {
	st := a.State
	foes := e.targets(ctx, a, func(o *actor.Actor) bool { return a.IsEnemyOf(o) })
	items := st.Inventory.Items()

	if st.Stat(stat.ThrowAffinity) > 0 {
		for _, it := range items {
			if it.IsConsumable() || !it.IsThrowable() {
				continue
			}
			for _, t := range foes {
				if geom.Manhattan(a.Pos, t.Pos) < 2 {
					continue
				}
				if act := action.NewThrowItem(a.ID, it, t.Pos); act.IsPossible(ctx) {
					return act
				}
			}
		}
	}
	if st.Stat(stat.PotionAffinity) >= 3 {
		if act := e.throwPotion(ctx, a, items, potionDebuff, foes); act != nil {
			return act
		}
	}
	if st.Stat(stat.PotionAffinity) >= 2 {
		allies := e.targets(ctx, a, func(o *actor.Actor) bool {
			return !a.IsEnemyOf(o) && wounded(o)
		})
		if act := e.throwPotion(ctx, a, items, potionBuff, allies); act != nil {
			return act
		}
		if act := e.throwPotion(ctx, a, items, potionHeal, allies); act != nil {
			return act
		}
	}
	return nil
}

func (e *EnemyController) throwPotion(ctx *action.GameContext, a *actor.Actor, items []item.Item, kind potionKind, targets []*actor.Actor) action.Action {
	for _, it := range items {
		if !it.IsThrowable() || classify(ctx, it) != kind {
			continue
		}
		for _, t := range targets {
			if act := action.NewThrowItem(a.ID, it, t.Pos); act.IsPossible(ctx) {
				return act
			}
		}
	}
	return nil
}

// targets returns the living actors other than a within AttackRadius that
// satisfy keep, nearest first; ties keep world order.
func (e *EnemyController) targets(ctx *action.GameContext, a *actor.Actor, keep func(*actor.Actor) bool) []*actor.Actor {
	var out []*actor.Actor
	for _, o := range ctx.World.Actors() {
		if o.ID == a.ID || !o.IsAlive() || o.State.Interactable != "" {
			continue
		}
		if geom.Manhattan(a.Pos, o.Pos) > e.cfg.AttackRadius || !keep(o) {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return geom.Manhattan(a.Pos, out[i].Pos) < geom.Manhattan(a.Pos, out[j].Pos)
	})
	return out
}

func (e *EnemyController) tryAttack(ctx *action.GameContext, a *actor.Actor) action.Action {
	for _, t := range e.targets(ctx, a, func(o *actor.Actor) bool { return a.IsEnemyOf(o) }) {
		if act := action.AttackFor(a, t.Pos); act.IsPossible(ctx) {
			return act
		}
	}
	return nil
}

func (e *EnemyController) trySpawn(ctx *action.GameContext, a *actor.Actor) action.Action {
	if a.State.Spawns == "" || !ctx.World.IsVisible(a.Pos) || !dice.Chance(ctx.Roller, e.cfg.SpawnChance) {
		return nil
	}
	cells := geom.Neighbors(a.Pos)
	dice.Shuffle(ctx.Roller, cells)
	for _, c := range cells {
		if act := action.NewSpawnActor(a.ID, c); act.IsPossible(ctx) {
			return act
		}
	}
	return nil
}

func (e *EnemyController) pathingSkill(a *actor.Actor) float64 {
	i := min(a.State.Intelligence(), len(e.cfg.PathingSkill)) - 1
	return e.cfg.PathingSkill[i]
}

func (e *EnemyController) tryMove(ctx *action.GameContext, a *actor.Actor, hidden bool) action.Action {
	w := ctx.World
	if player, ok := w.Player(); ok && !hidden && dice.Chance(ctx.Roller, e.pathingSkill(a)) {
		passable := func(p geom.Point) bool { return !w.IsSolid(p, true) }
		path := w.PathBetween(a.Pos, player.Pos, passable, e.cfg.SmartPathingRange)
		if len(path) >= 3 && a.State.Leaps {
			if act := action.NewFrogLeap(a.ID, path[1]); act.IsPossible(ctx) {
				return act
			}
		}
		if len(path) > 0 {
			if act := action.NewMoveTo(a.ID, path[0]); act.IsPossible(ctx) {
				return act
			}
		}
	}

	cells := geom.Neighbors(a.Pos)
	dice.Shuffle(ctx.Roller, cells)
	for _, c := range cells {
		if hidden && nextToDoor(w, c) {
			continue
		}
		if act := action.NewMoveTo(a.ID, c); act.IsPossible(ctx) {
			return act
		}
	}
	return nil
}

func nextToDoor(w action.World, p geom.Point) bool {
	for _, n := range geom.Neighbors(p) {
		if w.IsDoor(n) {
			return true
		}
	}
	return false
}
