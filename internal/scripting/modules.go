package scripting

import (
	"strconv"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/davidpendergast/skeletris-sub001/internal/game/action"
	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
)

// RegisterModules registers the engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L with log, dice and the
// actor-facing functions.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	logTbl := L.NewTable()
	for level, fn := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	} {
		L.SetField(logTbl, level, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)

	diceTbl := L.NewTable()
	L.SetField(diceTbl, "roll", L.NewFunction(m.luaRoll))
	L.SetField(engine, "dice", diceTbl)

	L.SetField(engine, "actor", L.NewFunction(m.luaActor))
	L.SetField(engine, "heal", L.NewFunction(m.luaHeal))
	L.SetField(engine, "add_status", L.NewFunction(m.luaAddStatus))
	L.SetField(engine, "say", L.NewFunction(m.luaSay))
	L.SetField(engine, "give_item", L.NewFunction(m.luaGiveItem))

	L.SetGlobal("engine", engine)
}

// engine.dice.roll(expr) -> {total, dice, modifier}
func (m *Manager) luaRoll(L *lua.LState) int {
	res, err := m.roller.RollExpr(L.CheckString(1))
	if err != nil {
		L.RaiseError("engine.dice.roll: %s", err.Error())
		return 0
	}
	tbl := L.NewTable()
	L.SetField(tbl, "total", lua.LNumber(res.Total()))
	L.SetField(tbl, "modifier", lua.LNumber(res.Modifier))
	faces := L.NewTable()
	for _, d := range res.Dice {
		faces.Append(lua.LNumber(d))
	}
	L.SetField(tbl, "dice", faces)
	L.Push(tbl)
	return 1
}

// lookup resolves an actor id argument against the hook call in progress.
func (m *Manager) lookup(L *lua.LState, fn string) *actor.Actor {
	if m.call == nil || m.call.Ctx == nil {
		L.RaiseError("%s: only available inside a game hook", fn)
		return nil
	}
	id := actor.ID(L.CheckString(1))
	a, ok := m.call.Ctx.World.Actor(id)
	if !ok {
		L.RaiseError("%s: unknown actor %q", fn, id)
		return nil
	}
	return a
}

// engine.actor(id) -> actor table or nil
func (m *Manager) luaActor(L *lua.LState) int {
	if m.call == nil || m.call.Ctx == nil {
		L.Push(lua.LNil)
		return 1
	}
	a, ok := m.call.Ctx.World.Actor(actor.ID(L.CheckString(1)))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(m.actorTable(a))
	return 1
}

// engine.heal(id, amount) -> new hp
func (m *Manager) luaHeal(L *lua.LState) int {
	a := m.lookup(L, "engine.heal")
	amount := L.CheckInt(2)
	before := a.State.HP()
	a.State.SetHP(before + amount)
	if gained := a.State.HP() - before; gained > 0 {
		m.call.Ctx.Presenter.FloatingText(a.Pos, "+"+strconv.Itoa(gained), "green")
	}
	L.Push(lua.LNumber(a.State.HP()))
	return 1
}

// engine.add_status(id, status_id, duration) -> applied
func (m *Manager) luaAddStatus(L *lua.LState) int {
	a := m.lookup(L, "engine.add_status")
	applied := m.call.Ctx.Combat.ApplyStatus(a, L.CheckString(2), L.CheckInt(3))
	L.Push(lua.LBool(applied))
	return 1
}

// engine.say(id, text[, color])
func (m *Manager) luaSay(L *lua.LState) int {
	a := m.lookup(L, "engine.say")
	m.call.Ctx.Presenter.FloatingText(a.Pos, L.CheckString(2), L.OptString(3, "white"))
	return 0
}

// engine.give_item(id, template_id) -> added
func (m *Manager) luaGiveItem(L *lua.LState) int {
	a := m.lookup(L, "engine.give_item")
	templateID := L.CheckString(2)
	if m.call.Ctx.Catalog == nil {
		L.RaiseError("engine.give_item: no item catalog loaded")
		return 0
	}
	it, err := m.call.Ctx.Catalog.Spawn(templateID)
	if err != nil {
		L.RaiseError("engine.give_item: %s", err.Error())
		return 0
	}
	if err := a.State.Inventory.Add(it); err != nil {
		m.logger.Info("engine.give_item: inventory full",
			zap.String("actor", string(a.ID)),
			zap.String("template", templateID),
		)
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LTrue)
	return 1
}

func (m *Manager) actorTable(a *actor.Actor) lua.LValue {
	if a == nil {
		return lua.LNil
	}
	tbl := m.L.NewTable()
	m.L.SetField(tbl, "id", lua.LString(a.ID))
	m.L.SetField(tbl, "name", lua.LString(a.State.Name))
	m.L.SetField(tbl, "template", lua.LString(a.TemplateID))
	m.L.SetField(tbl, "hp", lua.LNumber(a.State.HP()))
	m.L.SetField(tbl, "max_hp", lua.LNumber(a.State.MaxHP()))
	m.L.SetField(tbl, "x", lua.LNumber(a.Pos.X))
	m.L.SetField(tbl, "y", lua.LNumber(a.Pos.Y))
	m.L.SetField(tbl, "player", lua.LBool(a.Player))
	return tbl
}

func (m *Manager) itemTable(call action.HookCall) lua.LValue {
	if call.Item == nil {
		return lua.LNil
	}
	tbl := m.L.NewTable()
	m.L.SetField(tbl, "id", lua.LString(call.Item.ID()))
	m.L.SetField(tbl, "template", lua.LString(call.Item.TemplateID()))
	m.L.SetField(tbl, "name", lua.LString(call.Item.Name()))
	return tbl
}
