package action

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/combat"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
)

// strike is the state shared by melee and projectile attacks: the target
// captured at start, the rolled damage, and the one-shot hit.
type strike struct {
	victim actor.ID
	damage int
	hit    Once
}

// capture resolves the victim at cell and rolls damage.
func (s *strike) capture(ctx *GameContext, attacker actor.ID, cell geom.Point, it item.Item, thrown bool) error {
	a, ok := ctx.living(attacker)
	if !ok {
		return fmt.Errorf("attacker %s vanished before start", attacker)
	}
	victim, ok := ctx.World.ActorAt(cell)
	if !ok {
		return nil
	}
	s.victim = victim.ID
	s.damage = ctx.Combat.DetermineDamageDealt(a.State, victim.State, it, thrown)
	return nil
}

// land applies the captured damage once. The victim is re-fetched; a victim
// that is gone or already dead makes this a no-op.
func (s *strike) land(ctx *GameContext, attacker actor.ID, it item.Item, thrown, melee bool) (combat.HitResult, bool) {
	var (
		res    combat.HitResult
		landed bool
	)
	s.hit.Run(func() {
		if s.victim == "" {
			return
		}
		victim, ok := ctx.living(s.victim)
		if !ok {
			return
		}
		att, _ := ctx.World.Actor(attacker)
		res = ctx.Combat.ApplyDamageAndHitEffects(combat.Hit{
			Damage:   s.damage,
			Attacker: att,
			Defender: victim,
			Item:     it,
			Thrown:   thrown,
			Melee:    melee,
			Tick:     ctx.Tick,
		})
		landed = true
		if res.ShouldSwap && att != nil && att.IsAlive() && victim.IsAlive() {
			if err := ctx.World.SwapActors(att.ID, victim.ID); err != nil {
				ctx.Logger.Warn("swap after hit failed", zap.Error(err))
			}
		}
	})
	return res, landed
}

// attackRange returns the reach of a's attack with it (nil = unarmed).
func attackRange(a *actor.Actor, it item.Item) int {
	if it != nil {
		return it.AttackRange()
	}
	return a.State.UnarmedRange()
}

// validTarget reports whether cell holds a living hostile actor a may attack.
func validTarget(ctx *GameContext, a *actor.Actor, cell geom.Point) bool {
	victim, ok := ctx.World.ActorAt(cell)
	if !ok || !victim.IsAlive() || victim.ID == a.ID {
		return false
	}
	return a.IsEnemyOf(victim) && victim.State.Interactable == ""
}

// MeleeAttack strikes a target in a straight line within weapon or unarmed
// reach. Damage lands mid-lunge.
type MeleeAttack struct {
	Base
	strike
}

// NewMeleeAttack creates a melee attack with it (nil = unarmed).
func NewMeleeAttack(id actor.ID, it item.Item, target geom.Point) *MeleeAttack {
	return &MeleeAttack{Base: Base{Actor: id, Used: it, Cell: target, HasTarget: true, Frames: FramesMelee}}
}

func (m *MeleeAttack) Name() string     { return "melee_attack" }
func (m *MeleeAttack) CausesTurn() bool { return true }

func (m *MeleeAttack) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(m.Actor)
	if !ok || !validTarget(ctx, a, m.Cell) {
		return false
	}
	if m.Used != nil && !a.State.Inventory.IsEquipped(m.Used) {
		return false
	}
	_, dist, ok := geom.StraightLine(a.Pos, m.Cell)
	if !ok || dist > attackRange(a, m.Used) {
		return false
	}
	return ctx.lineClear(a.Pos, m.Cell)
}

func (m *MeleeAttack) start(ctx *GameContext) error {
	return m.capture(ctx, m.Actor, m.Cell, m.Used, false)
}

func (m *MeleeAttack) animate(ctx *GameContext, progress float64) error {
	if progress >= 0.5 {
		m.resolve(ctx)
	}
	return nil
}

func (m *MeleeAttack) finalize(ctx *GameContext) error {
	m.resolve(ctx)
	return nil
}

func (m *MeleeAttack) resolve(ctx *GameContext) {
	if res, ok := m.land(ctx, m.Actor, m.Used, false, true); ok && !res.Missed {
		ctx.Presenter.Sound("hit")
	}
}

// ProjectileAttack fires at a target within range and line of sight.
// Damage lands when the projectile arrives.
type ProjectileAttack struct {
	Base
	strike
}

// NewProjectileAttack creates a projectile attack with it (nil = unarmed).
func NewProjectileAttack(id actor.ID, it item.Item, target geom.Point) *ProjectileAttack {
	return &ProjectileAttack{Base: Base{Actor: id, Used: it, Cell: target, HasTarget: true, Frames: FramesProjectile}}
}

func (p *ProjectileAttack) Name() string     { return "projectile_attack" }
func (p *ProjectileAttack) CausesTurn() bool { return true }

func (p *ProjectileAttack) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(p.Actor)
	if !ok || !validTarget(ctx, a, p.Cell) {
		return false
	}
	if p.Used != nil && !a.State.Inventory.IsEquipped(p.Used) {
		return false
	}
	if d := geom.Manhattan(a.Pos, p.Cell); d < 1 || d > attackRange(a, p.Used) {
		return false
	}
	return ctx.lineClear(a.Pos, p.Cell)
}

func (p *ProjectileAttack) start(ctx *GameContext) error {
	ctx.Presenter.Sound("shoot")
	return p.capture(ctx, p.Actor, p.Cell, p.Used, false)
}

func (p *ProjectileAttack) animate(ctx *GameContext, progress float64) error {
	if progress >= 1 {
		p.resolve(ctx)
	}
	return nil
}

func (p *ProjectileAttack) finalize(ctx *GameContext) error {
	p.resolve(ctx)
	return nil
}

func (p *ProjectileAttack) resolve(ctx *GameContext) {
	if res, ok := p.land(ctx, p.Actor, p.Used, false, false); ok {
		ctx.Presenter.Effect("projectile_impact", p.Cell)
		if !res.Missed {
			ctx.Presenter.Sound("hit")
		}
	}
}

// AttackFor builds the attack a would make at target with its equipped
// weapon, projectile or melee as the weapon (or unarmed stats) dictate.
func AttackFor(a *actor.Actor, target geom.Point) Action {
	w := a.State.Inventory.Weapon()
	projectile := a.State.UnarmedProjectile
	if w != nil {
		projectile = w.IsProjectile()
	}
	if projectile {
		return NewProjectileAttack(a.ID, w, target)
	}
	return NewMeleeAttack(a.ID, w, target)
}
