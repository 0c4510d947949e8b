// Package event carries engine notifications outward: the event bus for
// gameplay events and the fire-and-forget presentation collaborator.
package event

import (
	"fmt"

	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
)

// Kind identifies an event type.
type Kind int

const (
	KindUnknown Kind = iota
	ActionStarted
	ActionFinished
	ActorKilled
)

// String returns a human-readable kind label.
func (k Kind) String() string {
	switch k {
	case ActionStarted:
		return "action_started"
	case ActionFinished:
		return "action_finished"
	case ActorKilled:
		return "actor_killed"
	default:
		return "unknown"
	}
}

// Event is one notification published on the Bus.
//
// For ActionStarted/ActionFinished, ActorID and Action are set. For
// ActorKilled, VictimID is set and KillerID may be empty.
type Event struct {
	Kind     Kind
	Tick     int
	Action   string
	ActorID  actor.ID
	VictimID actor.ID
	KillerID actor.ID
}

func (e Event) String() string {
	switch e.Kind {
	case ActorKilled:
		return fmt.Sprintf("%s victim=%s killer=%s tick=%d", e.Kind, e.VictimID, e.KillerID, e.Tick)
	default:
		return fmt.Sprintf("%s action=%s actor=%s tick=%d", e.Kind, e.Action, e.ActorID, e.Tick)
	}
}

// Handler receives published events.
type Handler func(Event)

// Bus is a synchronous, single-threaded event bus. Handlers run in
// subscription order during Publish; every event is also kept in a bounded
// history for inspection.
type Bus struct {
	handlers map[Kind][]Handler
	all      []Handler
	history  []Event
	limit    int
}

// NewBus creates a Bus keeping at most historyLimit events (0 = keep none).
func NewBus(historyLimit int) *Bus {
	return &Bus{handlers: make(map[Kind][]Handler), limit: historyLimit}
}

// Subscribe registers h for events of kind k.
func (b *Bus) Subscribe(k Kind, h Handler) {
	b.handlers[k] = append(b.handlers[k], h)
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) {
	b.all = append(b.all, h)
}

// Publish delivers e to matching handlers.
func (b *Bus) Publish(e Event) {
	if b.limit > 0 {
		b.history = append(b.history, e)
		if over := len(b.history) - b.limit; over > 0 {
			b.history = b.history[over:]
		}
	}
	for _, h := range b.handlers[e.Kind] {
		h(e)
	}
	for _, h := range b.all {
		h(e)
	}
}

// History returns a copy of retained events, oldest first.
func (b *Bus) History() []Event {
	out := make([]Event, len(b.history))
	copy(out, b.history)
	return out
}

// Count returns how many retained events have kind k.
func (b *Bus) Count(k Kind) int {
	n := 0
	for _, e := range b.history {
		if e.Kind == k {
			n++
		}
	}
	return n
}
