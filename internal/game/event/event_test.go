package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davidpendergast/skeletris-sub001/internal/game/event"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
)

func TestBus_DeliversByKind(t *testing.T) {
	b := event.NewBus(10)
	var killed, all int
	b.Subscribe(event.ActorKilled, func(event.Event) { killed++ })
	b.SubscribeAll(func(event.Event) { all++ })

	b.Publish(event.Event{Kind: event.ActionStarted, Action: "move"})
	b.Publish(event.Event{Kind: event.ActorKilled, VictimID: "v"})

	assert.Equal(t, 1, killed)
	assert.Equal(t, 2, all)
	assert.Equal(t, 1, b.Count(event.ActorKilled))
}

func TestBus_HistoryBounded(t *testing.T) {
	b := event.NewBus(2)
	for i := 0; i < 5; i++ {
		b.Publish(event.Event{Kind: event.ActionFinished, Tick: i})
	}
	h := b.History()
	assert.Len(t, h, 2)
	assert.Equal(t, 3, h[0].Tick)
	assert.Equal(t, 4, h[1].Tick)
}

func TestBus_NoHistory(t *testing.T) {
	b := event.NewBus(0)
	b.Publish(event.Event{Kind: event.ActionFinished})
	assert.Empty(t, b.History())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "actor_killed", event.ActorKilled.String())
	assert.Equal(t, "unknown", event.KindUnknown.String())
}

func TestRecorder_Count(t *testing.T) {
	r := &event.Recorder{}
	r.FloatingText(geom.Pt(1, 1), "-2", "red")
	r.DamageTaken("a")
	r.Sound("hit")
	assert.Equal(t, 1, r.Count("text", "-2"))
	assert.Equal(t, 1, r.Count("damage", ""))
	assert.Equal(t, 0, r.Count("effect", ""))
}
