package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/combat"
	"github.com/davidpendergast/skeletris-sub001/internal/game/dice"
	"github.com/davidpendergast/skeletris-sub001/internal/game/event"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
	"github.com/davidpendergast/skeletris-sub001/internal/game/stat"
	"github.com/davidpendergast/skeletris-sub001/internal/game/status"
)

type fixture struct {
	resolver  *combat.Resolver
	bus       *event.Bus
	presenter *event.Recorder
}

func newFixture(src dice.Source) fixture {
	logger := zap.NewNop()
	bus := event.NewBus(16)
	rec := &event.Recorder{}
	r := combat.NewResolver(status.Defaults(), dice.NewLoggedRoller(src, logger), bus, rec, logger)
	return fixture{resolver: r, bus: bus, presenter: rec}
}

func newActor(id string, pos geom.Point, base stat.Table, alignment int) *actor.Actor {
	return &actor.Actor{
		ID:    actor.ID(id),
		Pos:   pos,
		State: actor.NewState(id, 1, base, item.NewInventory(4), alignment),
	}
}

func TestResolveDice_GreedyBlocking(t *testing.T) {
	assert.Equal(t, 2, combat.ResolveDice([]int{2, 5, 6}, []int{4, 4}), "4 blocks 2; second 4 cannot block 5")
	assert.Equal(t, 1, combat.ResolveDice([]int{2, 3, 6}, []int{4, 4}))
	assert.Equal(t, 2, combat.ResolveDice([]int{1, 4, 6}, []int{3}))
	assert.Equal(t, 0, combat.ResolveDice([]int{1, 1}, []int{1, 2, 3}))
	assert.Equal(t, 3, combat.ResolveDice([]int{6, 5, 4}, nil))
	assert.Equal(t, 0, combat.ResolveDice(nil, []int{4}))
}

func TestResolveDice_InputsUntouched(t *testing.T) {
	att := []int{6, 1, 3}
	def := []int{4, 2}
	combat.ResolveDice(att, def)
	assert.Equal(t, []int{6, 1, 3}, att)
	assert.Equal(t, []int{4, 2}, def)
}

func TestResolveDice_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		att := rapid.SliceOfN(rapid.IntRange(1, 6), 0, 12).Draw(t, "att")
		def := rapid.SliceOfN(rapid.IntRange(1, 4), 0, 12).Draw(t, "def")
		got := combat.ResolveDice(att, def)
		if got < 0 || got > len(att) {
			t.Fatalf("damage %d out of [0, %d]", got, len(att))
		}
		if got < len(att)-len(def) {
			t.Fatalf("each defense die blocks at most one attack die: got %d", got)
		}
		// An extra defense die never increases damage.
		extra := rapid.IntRange(1, 4).Draw(t, "extra")
		if more := combat.ResolveDice(att, append(append([]int(nil), def...), extra)); more > got {
			t.Fatalf("adding defense die %d raised damage %d -> %d", extra, got, more)
		}
		// An extra attack die never decreases damage.
		bonus := rapid.IntRange(1, 6).Draw(t, "bonus")
		if more := combat.ResolveDice(append(append([]int(nil), att...), bonus), def); more < got {
			t.Fatalf("adding attack die %d lowered damage %d -> %d", bonus, got, more)
		}
	})
}

func TestDetermineDamageDealt_ScriptedRolls(t *testing.T) {
	f := newFixture(dice.Faces(1, 4, 6, 3))
	att := newActor("a", geom.Pt(0, 0), stat.Table{stat.VIT: 5, stat.UnarmedATT: 3}, 0)
	def := newActor("d", geom.Pt(1, 0), stat.Table{stat.VIT: 5, stat.DEF: 1}, 1)

	assert.Equal(t, 2, f.resolver.DetermineDamageDealt(att.State, def.State, nil, false))
}

func TestDetermineDamageDealt_ThrownMinimumOne(t *testing.T) {
	f := newFixture(dice.Faces(1, 4))
	att := newActor("a", geom.Pt(0, 0), stat.Table{stat.VIT: 5}, 0)
	def := newActor("d", geom.Pt(1, 0), stat.Table{stat.VIT: 5, stat.DEF: 1}, 1)
	rock := item.New(&item.Template{ID: "rock", Name: "Rock", Kind: item.KindMisc, Throwable: true})

	assert.Equal(t, 1, f.resolver.DetermineDamageDealt(att.State, def.State, rock, true))
	assert.Equal(t, 0, f.resolver.DetermineDamageDealt(att.State, def.State, nil, false))
}

func TestApplyDamage_Miss(t *testing.T) {
	f := newFixture(dice.Faces(1))
	def := newActor("d", geom.Pt(1, 0), stat.Table{stat.VIT: 5}, 1)

	res := f.resolver.ApplyDamageAndHitEffects(combat.Hit{Damage: 0, Defender: def})
	assert.True(t, res.Missed)
	assert.Equal(t, 5, def.State.HP())
	assert.Equal(t, 1, f.presenter.Count("text", "miss"))
	assert.Equal(t, 0, f.presenter.Count("damage", ""))
}

func TestApplyDamage_HitReducesHPAndNotifiesOnce(t *testing.T) {
	f := newFixture(dice.Faces(1))
	att := newActor("a", geom.Pt(0, 0), stat.Table{stat.VIT: 5}, 0)
	def := newActor("d", geom.Pt(1, 0), stat.Table{stat.VIT: 5}, 1)

	res := f.resolver.ApplyDamageAndHitEffects(combat.Hit{Damage: 2, Attacker: att, Defender: def, Melee: true})
	assert.False(t, res.Missed)
	assert.False(t, res.Killed)
	assert.Equal(t, 3, def.State.HP())
	assert.Equal(t, 1, f.presenter.Count("text", "-2"))
	assert.Equal(t, 1, f.presenter.Count("damage", ""))
}

func TestApplyDamage_KillPublishesAndHeals(t *testing.T) {
	f := newFixture(dice.Faces(1))
	att := newActor("a", geom.Pt(0, 0), stat.Table{stat.VIT: 10, stat.HPOnKill: 3}, 0)
	att.State.SetHP(4)
	def := newActor("d", geom.Pt(1, 0), stat.Table{stat.VIT: 2}, 1)

	res := f.resolver.ApplyDamageAndHitEffects(combat.Hit{Damage: 5, Attacker: att, Defender: def, Melee: true, Tick: 7})
	require.True(t, res.Killed)
	assert.False(t, def.IsAlive())
	assert.Equal(t, 7, att.State.HP())

	hist := f.bus.History()
	require.Len(t, hist, 1)
	assert.Equal(t, event.ActorKilled, hist[0].Kind)
	assert.Equal(t, actor.ID("d"), hist[0].VictimID)
	assert.Equal(t, actor.ID("a"), hist[0].KillerID)
	assert.Equal(t, 7, hist[0].Tick)
}

func TestApplyDamage_EnvironmentKillHasNoKiller(t *testing.T) {
	f := newFixture(dice.Faces(1))
	def := newActor("d", geom.Pt(1, 0), stat.Table{stat.VIT: 1}, 1)

	res := f.resolver.ApplyDamageAndHitEffects(combat.Hit{Damage: 1, Defender: def})
	require.True(t, res.Killed)
	assert.False(t, res.ShouldSwap)
	assert.Empty(t, f.bus.History()[0].KillerID)
}

func TestApplyDamage_OnHitStatuses(t *testing.T) {
	f := newFixture(dice.Faces(1))
	att := newActor("a", geom.Pt(0, 0), stat.Table{
		stat.VIT: 5, stat.PoisonOnHit: 3, stat.PlusDefenseOnHit: 2, stat.GraspOnMeleeHit: 2,
	}, 0)
	def := newActor("d", geom.Pt(1, 0), stat.Table{stat.VIT: 10}, 1)

	f.resolver.ApplyDamageAndHitEffects(combat.Hit{Damage: 1, Attacker: att, Defender: def, Melee: true})
	assert.Equal(t, 3, def.State.Statuses().Remaining(status.Poisoned))
	assert.True(t, def.State.HasStatus(status.Grasped))
	assert.Equal(t, 2, att.State.Statuses().Remaining(status.DefenseUp))
}

func TestApplyDamage_GraspRequiresMelee(t *testing.T) {
	f := newFixture(dice.Faces(1))
	att := newActor("a", geom.Pt(0, 0), stat.Table{stat.VIT: 5, stat.GraspOnMeleeHit: 2}, 0)
	def := newActor("d", geom.Pt(3, 0), stat.Table{stat.VIT: 10}, 1)

	f.resolver.ApplyDamageAndHitEffects(combat.Hit{Damage: 1, Attacker: att, Defender: def})
	assert.False(t, def.State.HasStatus(status.Grasped))
}

func TestApplyDamage_ThrownUsesItemStats(t *testing.T) {
	f := newFixture(dice.Faces(1))
	att := newActor("a", geom.Pt(0, 0), stat.Table{stat.VIT: 5, stat.PoisonOnHit: 4}, 0)
	def := newActor("d", geom.Pt(3, 0), stat.Table{stat.VIT: 10}, 1)
	flask := item.New(&item.Template{ID: "f", Name: "Flask", Kind: item.KindMisc, Throwable: true,
		Stats: stat.Table{stat.ConfusionOnHit: 2}})

	f.resolver.ApplyDamageAndHitEffects(combat.Hit{Damage: 1, Attacker: att, Defender: def, Item: flask, Thrown: true})
	assert.False(t, def.State.HasStatus(status.Poisoned))
	assert.Equal(t, 2, def.State.Statuses().Remaining(status.Confused))
}

func TestApplyDamage_BlockedStatusSkipped(t *testing.T) {
	f := newFixture(dice.Faces(1))
	att := newActor("a", geom.Pt(0, 0), stat.Table{stat.VIT: 5, stat.FlinchOnHit: 2}, 0)
	def := newActor("d", geom.Pt(1, 0), stat.Table{stat.VIT: 10}, 1)
	require.True(t, f.resolver.ApplyStatus(def, status.Unflinching, 3))

	f.resolver.ApplyDamageAndHitEffects(combat.Hit{Damage: 1, Attacker: att, Defender: def, Melee: true})
	assert.False(t, def.State.HasStatus(status.Flinched))
	assert.Equal(t, 9, def.State.HP())
}

func TestApplyDamage_Swap(t *testing.T) {
	cases := []struct {
		name     string
		attStats stat.Table
		defStats stat.Table
		want     bool
	}{
		{"attacker swaps", stat.Table{stat.SwapOnHit: 1}, nil, true},
		{"defender swaps when hit", nil, stat.Table{stat.SwapsWhenHit: 1}, true},
		{"defender unswappable", stat.Table{stat.SwapOnHit: 1}, stat.Table{stat.Unswappable: 1}, false},
		{"attacker unswappable", stat.Table{stat.SwapOnHit: 1, stat.Unswappable: 1}, nil, false},
		{"no swap stats", nil, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(dice.Faces(1))
			as := stat.Table{stat.VIT: 5}
			for k, v := range tc.attStats {
				as[k] = v
			}
			ds := stat.Table{stat.VIT: 10}
			for k, v := range tc.defStats {
				ds[k] = v
			}
			att := newActor("a", geom.Pt(0, 0), as, 0)
			def := newActor("d", geom.Pt(1, 0), ds, 1)
			res := f.resolver.ApplyDamageAndHitEffects(combat.Hit{Damage: 1, Attacker: att, Defender: def, Melee: true})
			assert.Equal(t, tc.want, res.ShouldSwap)
		})
	}
}

func TestApplyStatus_Unknown(t *testing.T) {
	f := newFixture(dice.Faces(1))
	def := newActor("d", geom.Pt(1, 0), stat.Table{stat.VIT: 10}, 1)
	assert.False(t, f.resolver.ApplyStatus(def, "NOPE", 2))
}
