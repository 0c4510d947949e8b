package action

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
)

// applyConsumeEffect applies it's consume effect to target. Failures are
// logged and skipped.
func applyConsumeEffect(ctx *GameContext, user, target *actor.Actor, it item.Item) {
	eff, ok := it.ConsumeEffect()
	if !ok {
		return
	}
	if eff.Heal != "" {
		roll, err := ctx.Roller.RollExpr(eff.Heal)
		if err != nil {
			ctx.Logger.Warn("bad heal expression", zap.String("item", it.TemplateID()), zap.Error(err))
		} else if n := roll.Total(); n > 0 {
			target.State.SetHP(target.State.HP() + n)
			ctx.Presenter.FloatingText(target.Pos, fmt.Sprintf("+%d", n), "green")
		}
	}
	if eff.Status != "" {
		ctx.Combat.ApplyStatus(target, eff.Status, eff.Duration)
	}
	if eff.Script != "" {
		if ctx.Scripts == nil {
			ctx.Logger.Warn("no script host for consume hook", zap.String("hook", eff.Script))
			return
		}
		if err := ctx.Scripts.RunHook(eff.Script, HookCall{Ctx: ctx, Actor: user, Target: target, Item: it}); err != nil {
			ctx.Logger.Warn("consume hook failed", zap.String("hook", eff.Script), zap.Error(err))
		}
	}
}

// ConsumeItem drinks or eats a consumable the actor carries.
type ConsumeItem struct {
	Base
	effect Once
}

func NewConsumeItem(id actor.ID, it item.Item) *ConsumeItem {
	return &ConsumeItem{Base: Base{Actor: id, Used: it, Frames: FramesConsume}}
}

func (c *ConsumeItem) Name() string { return "consume_item" }

func (c *ConsumeItem) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(c.Actor)
	if !ok || c.Used == nil || !c.Used.IsConsumable() {
		return false
	}
	return ctx.holds(a, c.Used)
}

func (c *ConsumeItem) start(ctx *GameContext) error {
	a, ok := ctx.World.Actor(c.Actor)
	if !ok {
		return nil
	}
	if !ctx.release(a, c.Used) {
		ctx.Logger.Warn("consumed item already gone",
			zap.String("actor", string(c.Actor)),
			zap.String("item", c.Used.ID()),
		)
	}
	ctx.Presenter.Sound("drink")
	return nil
}

func (c *ConsumeItem) animate(ctx *GameContext, progress float64) error {
	if progress >= 0.5 {
		c.apply(ctx)
	}
	return nil
}

func (c *ConsumeItem) finalize(ctx *GameContext) error {
	c.apply(ctx)
	return nil
}

func (c *ConsumeItem) apply(ctx *GameContext) {
	c.effect.Run(func() {
		if a, ok := ctx.living(c.Actor); ok {
			applyConsumeEffect(ctx, a, a, c.Used)
		}
	})
}

// ThrowItem hurls a carried item at a cell. A hit on a foe always deals at
// least one damage and a consumable then applies its effect to the victim.
// A consumable thrown at a friendly actor applies its effect without damage.
// Consumables shatter; anything else lands on the target cell.
type ThrowItem struct {
	Base
	strike
	landing Once
}

func NewThrowItem(id actor.ID, it item.Item, target geom.Point) *ThrowItem {
	return &ThrowItem{Base: Base{Actor: id, Used: it, Cell: target, HasTarget: true, Frames: FramesThrow}}
}

func (t *ThrowItem) Name() string     { return "throw_item" }
func (t *ThrowItem) CausesTurn() bool { return true }

func (t *ThrowItem) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(t.Actor)
	if !ok || t.Used == nil || !t.Used.IsThrowable() || !ctx.holds(a, t.Used) {
		return false
	}
	d := geom.Manhattan(a.Pos, t.Cell)
	if d < 1 || d > ctx.ThrowRange || !ctx.World.InBounds(t.Cell) {
		return false
	}
	if ctx.World.IsSolid(t.Cell, false) {
		return false
	}
	return ctx.lineClear(a.Pos, t.Cell)
}

func (t *ThrowItem) start(ctx *GameContext) error {
	a, ok := ctx.World.Actor(t.Actor)
	if !ok {
		return nil
	}
	if !ctx.release(a, t.Used) {
		ctx.Logger.Warn("thrown item already gone",
			zap.String("actor", string(t.Actor)),
			zap.String("item", t.Used.ID()),
		)
	}
	ctx.Presenter.Sound("throw")
	return t.capture(ctx, t.Actor, t.Cell, t.Used, true)
}

func (t *ThrowItem) animate(ctx *GameContext, progress float64) error {
	if progress >= 1 {
		t.resolve(ctx)
	}
	return nil
}

func (t *ThrowItem) finalize(ctx *GameContext) error {
	t.resolve(ctx)
	return nil
}

func (t *ThrowItem) resolve(ctx *GameContext) {
	t.landing.Run(func() {
		if t.Used.IsConsumable() {
			if friend, ok := t.friendlyVictim(ctx); ok {
				user, _ := ctx.World.Actor(t.Actor)
				applyConsumeEffect(ctx, user, friend, t.Used)
				ctx.Presenter.Effect("shatter", t.Cell)
				return
			}
		}
		res, landed := t.land(ctx, t.Actor, t.Used, true, false)
		if landed && !res.Missed && t.Used.IsConsumable() {
			if victim, ok := ctx.living(t.victim); ok {
				user, _ := ctx.World.Actor(t.Actor)
				applyConsumeEffect(ctx, user, victim, t.Used)
			}
		}
		if t.Used.IsConsumable() {
			ctx.Presenter.Effect("shatter", t.Cell)
			return
		}
		ctx.World.PlaceItem(t.Cell, t.Used)
	})
}

// friendlyVictim returns the captured victim when it is alive and on the
// thrower's team.
func (t *ThrowItem) friendlyVictim(ctx *GameContext) (*actor.Actor, bool) {
	if t.victim == "" {
		return nil, false
	}
	victim, ok := ctx.living(t.victim)
	if !ok {
		return nil, false
	}
	user, ok := ctx.World.Actor(t.Actor)
	if !ok || user.IsEnemyOf(victim) {
		return nil, false
	}
	return victim, true
}

// TradeItem hands a carried item to an adjacent, friendly actor with a free
// inventory cell.
type TradeItem struct {
	Base
}

func NewTradeItem(id actor.ID, it item.Item, to geom.Point) *TradeItem {
	return &TradeItem{Base{Actor: id, Used: it, Cell: to, HasTarget: true, Frames: FramesTrade}}
}

func (t *TradeItem) Name() string     { return "trade_item" }
func (t *TradeItem) CausesTurn() bool { return true }

func (t *TradeItem) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(t.Actor)
	if !ok || t.Used == nil || !ctx.holds(a, t.Used) || !geom.IsAdjacent(a.Pos, t.Cell) {
		return false
	}
	other, ok := ctx.World.ActorAt(t.Cell)
	if !ok || !other.IsAlive() || (a.IsEnemyOf(other) && other.State.Interactable == "") {
		return false
	}
	return other.State.Inventory.HasRoom()
}

func (t *TradeItem) start(ctx *GameContext) error {
	a, _ := ctx.World.Actor(t.Actor)
	other, _ := ctx.World.ActorAt(t.Cell)
	if !ctx.release(a, t.Used) {
		return fmt.Errorf("trade: %s no longer holds %s: %w", t.Actor, t.Used.ID(), item.ErrNotInGrid)
	}
	if err := other.State.Inventory.Add(t.Used); err != nil {
		return fmt.Errorf("trade: giving %s to %s: %w", t.Used.ID(), other.ID, err)
	}
	ctx.Presenter.FloatingText(other.Pos, t.Used.Name(), "white")
	return nil
}

// PickUpItem lifts an item from the actor's cell into the held-item slot.
type PickUpItem struct {
	Base
}

func NewPickUpItem(id actor.ID, it item.Item) *PickUpItem {
	return &PickUpItem{Base{Actor: id, Used: it, Frames: FramesInstant}}
}

func (p *PickUpItem) Name() string { return "pick_up_item" }
func (p *PickUpItem) IsFree() bool { return true }

func (p *PickUpItem) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(p.Actor)
	if !ok || !a.Player || p.Used == nil || ctx.Held != nil {
		return false
	}
	for _, it := range ctx.World.ItemsAt(a.Pos) {
		if it.ID() == p.Used.ID() {
			return true
		}
	}
	return false
}

func (p *PickUpItem) start(ctx *GameContext) error {
	a, _ := ctx.World.Actor(p.Actor)
	if !ctx.World.TakeItem(a.Pos, p.Used) {
		return fmt.Errorf("pick up: %s not at %s", p.Used.ID(), a.Pos)
	}
	ctx.Held = p.Used
	return nil
}

// DropItem puts the held item on the ground at the actor's cell.
type DropItem struct {
	Base
}

func NewDropItem(id actor.ID, it item.Item) *DropItem {
	return &DropItem{Base{Actor: id, Used: it, Frames: FramesInstant}}
}

func (d *DropItem) Name() string { return "drop_item" }
func (d *DropItem) IsFree() bool { return true }

func (d *DropItem) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(d.Actor)
	return ok && a.Player && d.Used != nil && ctx.Held != nil && ctx.Held.ID() == d.Used.ID()
}

func (d *DropItem) start(ctx *GameContext) error {
	a, _ := ctx.World.Actor(d.Actor)
	ctx.Held = nil
	ctx.World.PlaceItem(a.Pos, d.Used)
	return nil
}

// AddItemToGrid moves the held item into the actor's inventory grid, or its
// equip grid when Equip is set. Cell < 0 picks the first free cell.
type AddItemToGrid struct {
	Base
	GridCell int
	Equip    bool
	commit   Once
}

func NewAddItemToGrid(id actor.ID, it item.Item, cell int, equip bool) *AddItemToGrid {
	return &AddItemToGrid{Base: Base{Actor: id, Used: it, Frames: FramesInstant}, GridCell: cell, Equip: equip}
}

func (g *AddItemToGrid) Name() string { return "add_item_to_grid" }
func (g *AddItemToGrid) IsFree() bool { return true }

func (g *AddItemToGrid) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(g.Actor)
	if !ok || !a.Player || g.Used == nil || ctx.Held == nil || ctx.Held.ID() != g.Used.ID() {
		return false
	}
	inv := a.State.Inventory
	switch {
	case g.Equip:
		return g.Used.IsEquippable() && inv.SlotFree(g.Used.Slot())
	case g.GridCell >= 0:
		return inv.CellFree(g.GridCell)
	default:
		return inv.HasRoom()
	}
}

func (g *AddItemToGrid) start(*GameContext) error { return nil }

func (g *AddItemToGrid) finalize(ctx *GameContext) error {
	return g.commit.Do(func() error {
		a, ok := ctx.World.Actor(g.Actor)
		if !ok {
			return fmt.Errorf("add to grid: actor %s vanished", g.Actor)
		}
		inv := a.State.Inventory
		var err error
		switch {
		case g.Equip:
			err = inv.Equip(g.Used)
		case g.GridCell >= 0:
			err = inv.Place(g.Used, g.GridCell)
		default:
			err = inv.Add(g.Used)
		}
		if err != nil {
			return fmt.Errorf("add %s to grid: %w", g.Used.ID(), err)
		}
		ctx.Held = nil
		a.State.ClampHP()
		return nil
	})
}

// RemoveItemFromGrid lifts an item out of the actor's equip or inventory
// grid into the held-item slot.
type RemoveItemFromGrid struct {
	Base
	commit Once
}

func NewRemoveItemFromGrid(id actor.ID, it item.Item) *RemoveItemFromGrid {
	return &RemoveItemFromGrid{Base: Base{Actor: id, Used: it, Frames: FramesInstant}}
}

func (g *RemoveItemFromGrid) Name() string { return "remove_item_from_grid" }
func (g *RemoveItemFromGrid) IsFree() bool { return true }

func (g *RemoveItemFromGrid) IsPossible(ctx *GameContext) bool {
	a, ok := ctx.living(g.Actor)
	return ok && a.Player && g.Used != nil && ctx.Held == nil && a.State.Inventory.Contains(g.Used)
}

func (g *RemoveItemFromGrid) start(*GameContext) error { return nil }

func (g *RemoveItemFromGrid) finalize(ctx *GameContext) error {
	return g.commit.Do(func() error {
		a, ok := ctx.World.Actor(g.Actor)
		if !ok {
			return fmt.Errorf("remove from grid: actor %s vanished", g.Actor)
		}
		if err := a.State.Inventory.RemoveFromGrid(g.Used); err != nil {
			return fmt.Errorf("remove from grid: %w", err)
		}
		ctx.Held = g.Used
		a.State.ClampHP()
		return nil
	})
}
