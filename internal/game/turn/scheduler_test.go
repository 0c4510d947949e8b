package turn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/davidpendergast/skeletris-sub001/internal/game/action"
	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/combat"
	"github.com/davidpendergast/skeletris-sub001/internal/game/dice"
	"github.com/davidpendergast/skeletris-sub001/internal/game/event"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
	"github.com/davidpendergast/skeletris-sub001/internal/game/stat"
	"github.com/davidpendergast/skeletris-sub001/internal/game/status"
	"github.com/davidpendergast/skeletris-sub001/internal/game/turn"
	"github.com/davidpendergast/skeletris-sub001/internal/game/world"
)

type scripted func(ctx *action.GameContext, a *actor.Actor) action.Action

func (f scripted) NextAction(ctx *action.GameContext, a *actor.Actor) action.Action { return f(ctx, a) }

func skipper(_ *action.GameContext, a *actor.Actor) action.Action {
	return action.NewSkipTurn(a.ID, true)
}

type fixture struct {
	ctx   *action.GameContext
	grid  *world.Grid
	bus   *event.Bus
	sched *turn.Scheduler
	ctrl  map[actor.ID]turn.Controller
}

func newFixture(t *testing.T, rows []string, cfg turn.Config) *fixture {
	t.Helper()
	g, err := world.Parse(rows)
	require.NoError(t, err)
	logger := zap.NewNop()
	bus := event.NewBus(128)
	roller := dice.NewLoggedRoller(dice.NewSeededSource(7), logger)
	res := combat.NewResolver(status.Defaults(), roller, bus, event.NopPresenter{}, logger)
	ctx := action.NewGameContext(g, bus, event.NopPresenter{}, res, roller, logger)
	f := &fixture{ctx: ctx, grid: g, bus: bus, ctrl: make(map[actor.ID]turn.Controller)}
	f.sched = turn.NewScheduler(ctx, func(a *actor.Actor) turn.Controller {
		if c, ok := f.ctrl[a.ID]; ok {
			return c
		}
		return scripted(skipper)
	}, cfg)
	return f
}

var field = []string{
	"##########",
	"#........#",
	"#........#",
	"#........#",
	"##########",
}

func (f *fixture) spawn(t *testing.T, id string, pos geom.Point, base stat.Table, player bool) *actor.Actor {
	t.Helper()
	if _, ok := base[stat.VIT]; !ok {
		base[stat.VIT] = 10
	}
	alignment := 1
	if player {
		alignment = actor.PlayerAlignment
	}
	a := &actor.Actor{ID: actor.ID(id), Pos: pos, Player: player,
		State: actor.NewState(id, 1, base, item.NewInventory(2), alignment)}
	require.NoError(t, f.sched.Add(a))
	return a
}

func TestTick_Energy(t *testing.T) {
	f := newFixture(t, field, turn.DefaultConfig())
	a := f.spawn(t, "a", geom.Pt(1, 1), stat.Table{stat.SPEED: 3}, false)

	f.sched.Tick()
	assert.Equal(t, 3, a.State.Energy())
	f.sched.Tick()
	assert.Equal(t, 6, a.State.Energy())
	assert.False(t, a.State.ReadyToAct)
	f.sched.Tick()
	assert.True(t, a.State.ReadyToAct)
	assert.Equal(t, 1, a.State.Energy())
	f.sched.Tick()
	assert.Equal(t, 1, a.State.Energy(), "ready actors do not accumulate")
	assert.Equal(t, 4, f.ctx.Tick)
}

func TestTick_ActivationsMatchProjection(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t, field, turn.DefaultConfig())
		speed := rapid.IntRange(-3, 12).Draw(rt, "speed")
		start := rapid.IntRange(0, 7).Draw(rt, "energy")
		n := rapid.IntRange(0, 40).Draw(rt, "ticks")
		a := f.spawn(t, "a", geom.Pt(1, 1), stat.Table{stat.SPEED: speed}, false)
		a.State.SetEnergy(start)

		want := a.State.ActivationsAfterNRounds(n)
		got := 0
		for i := 0; i < n; i++ {
			f.sched.Tick()
			if a.State.ReadyToAct {
				got++
				a.State.ReadyToAct = false
			}
			if e := a.State.Energy(); e < 0 || e >= actor.MaxEnergy {
				rt.Fatalf("energy %d out of [0, %d)", e, actor.MaxEnergy)
			}
		}
		if got != want {
			rt.Fatalf("activations: got %d, projected %d", got, want)
		}
	})
}

func TestUpdate_TurnFlow(t *testing.T) {
	f := newFixture(t, field, turn.DefaultConfig())
	p := f.spawn(t, "player", geom.Pt(1, 1), stat.Table{stat.SPEED: 8}, true)
	rat := f.spawn(t, "rat", geom.Pt(5, 3), stat.Table{stat.SPEED: 4}, false)
	moved := false
	f.ctrl[p.ID] = scripted(func(_ *action.GameContext, a *actor.Actor) action.Action {
		if !moved {
			moved = true
			return action.NewMoveTo(a.ID, geom.Pt(2, 1))
		}
		return action.NewPlayerWait(a.ID)
	})

	frames, err := f.sched.RunUntilIdle(100)
	require.NoError(t, err)
	assert.Equal(t, 10, frames)
	assert.True(t, f.sched.Waiting())
	assert.Equal(t, geom.Pt(2, 1), p.Pos)
	assert.Equal(t, 1, f.sched.Turns())
	assert.True(t, rat.State.ReadyToAct)
	assert.Nil(t, f.sched.Current())
	assert.Equal(t, 2, f.bus.Count(event.ActionStarted))
}

func TestUpdate_OneActionInFlight(t *testing.T) {
	f := newFixture(t, field, turn.DefaultConfig())
	a := f.spawn(t, "a", geom.Pt(1, 1), stat.Table{stat.SPEED: 8}, false)
	b := f.spawn(t, "b", geom.Pt(3, 1), stat.Table{stat.SPEED: 8}, false)

	require.NoError(t, f.sched.Update()) // tick
	require.NoError(t, f.sched.Update()) // a starts
	require.NotNil(t, f.sched.Current())
	assert.Equal(t, a.ID, f.sched.Current().ActorID())
	require.NoError(t, f.sched.Update())
	assert.Equal(t, a.ID, f.sched.Current().ActorID(), "b waits for a")
	require.NoError(t, f.sched.Update()) // a finalizes
	assert.False(t, a.State.ReadyToAct)
	require.NoError(t, f.sched.Update()) // b starts
	assert.Equal(t, b.ID, f.sched.Current().ActorID())
}

func TestIntercept_Flinched(t *testing.T) {
	f := newFixture(t, field, turn.DefaultConfig())
	a := f.spawn(t, "a", geom.Pt(1, 1), stat.Table{}, true)
	require.True(t, f.ctx.Combat.ApplyStatus(a, status.Flinched, 2))

	got := f.sched.Intercept(a, action.NewMoveTo(a.ID, geom.Pt(2, 1)))
	require.IsType(t, &action.SkipTurn{}, got)
	assert.False(t, got.(*action.SkipTurn).Intentional)

	wait := action.NewPlayerWait(a.ID)
	assert.Same(t, wait, f.sched.Intercept(a, wait), "free actions bypass")
	skip := action.NewSkipTurn(a.ID, true)
	assert.Same(t, skip, f.sched.Intercept(a, skip), "skips pass through")
}

func TestIntercept_Grasped(t *testing.T) {
	f := newFixture(t, field, turn.DefaultConfig())
	a := f.spawn(t, "a", geom.Pt(1, 1), stat.Table{}, false)
	require.True(t, f.ctx.Combat.ApplyStatus(a, status.Grasped, 2))

	assert.IsType(t, &action.SkipTurn{}, f.sched.Intercept(a, action.NewMoveTo(a.ID, geom.Pt(2, 1))))
	attack := action.NewMeleeAttack(a.ID, nil, geom.Pt(2, 1))
	assert.Same(t, attack, f.sched.Intercept(a, attack))
}

func TestIntercept_ConfusedRedirectsMove(t *testing.T) {
	cfg := turn.DefaultConfig()
	cfg.ConfusionChance = 1
	f := newFixture(t, field, cfg)
	a := f.spawn(t, "a", geom.Pt(4, 2), stat.Table{}, false)
	require.True(t, f.ctx.Combat.ApplyStatus(a, status.Confused, 3))

	for i := 0; i < 20; i++ {
		got := f.sched.Intercept(a, action.NewMoveTo(a.ID, geom.Pt(5, 2)))
		require.True(t, action.IsMove(got))
		cell, _ := got.Target()
		assert.True(t, geom.IsAdjacent(a.Pos, cell))
		assert.True(t, got.IsPossible(f.ctx))
	}
}

func TestIntercept_ConfusionChanceZero(t *testing.T) {
	cfg := turn.DefaultConfig()
	cfg.ConfusionChance = 0
	f := newFixture(t, field, cfg)
	a := f.spawn(t, "a", geom.Pt(4, 2), stat.Table{}, false)
	require.True(t, f.ctx.Combat.ApplyStatus(a, status.Confused, 3))

	mv := action.NewMoveTo(a.ID, geom.Pt(5, 2))
	assert.Same(t, mv, f.sched.Intercept(a, mv))
}

func TestIntercept_ConfusedPlayerPrefersDoor(t *testing.T) {
	cfg := turn.DefaultConfig()
	cfg.ConfusionChance = 1
	f := newFixture(t, []string{
		"#####",
		"#.#.#",
		"#.+.#",
		"#####",
	}, cfg)
	p := f.spawn(t, "player", geom.Pt(1, 2), stat.Table{}, true)
	f.spawn(t, "ally", geom.Pt(1, 1), stat.Table{}, false)
	require.True(t, f.ctx.Combat.ApplyStatus(p, status.Confused, 3))

	got := f.sched.Intercept(p, action.NewMoveTo(p.ID, geom.Pt(1, 1)))
	require.IsType(t, &action.OpenDoor{}, got)
	cell, _ := got.Target()
	assert.Equal(t, geom.Pt(2, 2), cell)
}

func TestEndOfTurn_PoisonKills(t *testing.T) {
	f := newFixture(t, field, turn.DefaultConfig())
	rat := f.spawn(t, "rat", geom.Pt(1, 1), stat.Table{stat.SPEED: 8}, false)
	rat.State.SetHP(1)
	require.True(t, f.ctx.Combat.ApplyStatus(rat, status.Poisoned, 3))

	for i := 0; i < 10; i++ {
		require.NoError(t, f.sched.Update())
	}
	_, ok := f.grid.Actor(rat.ID)
	assert.False(t, ok, "dead enemies are reaped")
	kills := 0
	for _, e := range f.bus.History() {
		if e.Kind == event.ActorKilled {
			kills++
			assert.Equal(t, rat.ID, e.VictimID)
			assert.Empty(t, e.KillerID)
		}
	}
	assert.Equal(t, 1, kills)
}

func TestEndOfTurn_Regeneration(t *testing.T) {
	f := newFixture(t, field, turn.DefaultConfig())
	a := f.spawn(t, "a", geom.Pt(1, 1), stat.Table{stat.SPEED: 8}, false)
	a.State.SetHP(5)
	require.True(t, f.ctx.Combat.ApplyStatus(a, status.Regeneration, 2))

	for i := 0; i < 4; i++ { // tick, start, animate, finalize
		require.NoError(t, f.sched.Update())
	}
	assert.Equal(t, 6, a.State.HP())
	assert.Equal(t, 1, a.State.Statuses().Remaining(status.Regeneration))
}

func TestEndOfTurn_FlinchResistGrantsUnflinching(t *testing.T) {
	f := newFixture(t, field, turn.DefaultConfig())
	a := f.spawn(t, "a", geom.Pt(1, 1), stat.Table{stat.SPEED: 8, stat.FlinchResist: 2}, false)
	f.ctrl[a.ID] = scripted(func(_ *action.GameContext, a *actor.Actor) action.Action {
		return action.NewMoveTo(a.ID, geom.Pt(2, 1))
	})
	require.True(t, f.ctx.Combat.ApplyStatus(a, status.Flinched, 1))

	for i := 0; i < 4; i++ {
		require.NoError(t, f.sched.Update())
	}
	assert.Equal(t, geom.Pt(1, 1), a.Pos, "flinch forced a skip")
	assert.False(t, a.State.HasStatus(status.Flinched))
	assert.Equal(t, 2, a.State.Statuses().Remaining(status.Unflinching))
}

func TestRunUntilIdle_PlayerDeath(t *testing.T) {
	f := newFixture(t, field, turn.DefaultConfig())
	p := f.spawn(t, "player", geom.Pt(1, 1), stat.Table{stat.SPEED: 8}, true)
	p.State.SetHP(1)
	require.True(t, f.ctx.Combat.ApplyStatus(p, status.Poisoned, 3))
	f.ctrl[p.ID] = scripted(skipper)

	_, err := f.sched.RunUntilIdle(50)
	assert.ErrorIs(t, err, turn.ErrPlayerDead)
	assert.True(t, f.sched.PlayerDead())
	_, ok := f.grid.Actor(p.ID)
	assert.True(t, ok, "the player stays in the world")
	require.NoError(t, f.sched.Update(), "no-op once the player is dead")
}

func TestProjections(t *testing.T) {
	f := newFixture(t, field, turn.DefaultConfig())
	slow := f.spawn(t, "slow", geom.Pt(1, 1), stat.Table{stat.SPEED: 2}, false)
	fast := f.spawn(t, "fast", geom.Pt(2, 1), stat.Table{stat.SPEED: 5}, false)

	next, ticks := f.sched.NextToAct()
	assert.Equal(t, fast.ID, next.ID)
	assert.Equal(t, 2, ticks)

	acts := f.sched.ActivationsAfter(8)
	assert.Equal(t, 2, acts[slow.ID])
	assert.Equal(t, 5, acts[fast.ID])
	assert.Equal(t, 0, slow.State.Energy(), "projections do not mutate")
}
