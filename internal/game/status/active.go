package status

import (
	"sort"

	"github.com/davidpendergast/skeletris-sub001/internal/game/stat"
)

// Active is one effect applied to an actor with its remaining turns.
type Active struct {
	Def       *Definition
	Remaining int
}

// ActiveSet maps effect identity to remaining turns for a single actor.
// It is not safe for concurrent use; the scheduler serialises access.
//
// Invariant: every stored Remaining is > 0.
type ActiveSet struct {
	effects map[string]*Active
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{effects: make(map[string]*Active)}
}

// Add applies def for duration turns.
//
// The add is rejected, leaving the set untouched, when duration <= 0 or any
// active effect blocks def. Otherwise every active effect blocked by def is
// removed and def is stored with max(existing, duration) remaining turns.
//
// Postcondition: returns true iff Has(def.ID) holds afterwards because of this call.
func (s *ActiveSet) Add(def *Definition, duration int) bool {
	if def == nil || duration <= 0 {
		return false
	}
	for _, a := range s.effects {
		if def.IsBlockedBy(a.Def) {
			return false
		}
	}
	for id, a := range s.effects {
		if a.Def.IsBlockedBy(def) {
			delete(s.effects, id)
		}
	}
	if existing, ok := s.effects[def.ID]; ok {
		existing.Remaining = max(existing.Remaining, duration)
		return true
	}
	s.effects[def.ID] = &Active{Def: def, Remaining: duration}
	return true
}

// Remove deletes the effect with id. Removing an absent effect is a no-op.
func (s *ActiveSet) Remove(id string) {
	delete(s.effects, id)
}

// Clear removes every effect.
func (s *ActiveSet) Clear() {
	clear(s.effects)
}

// Has reports whether the effect with id is active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.effects[id]
	return ok
}

// Remaining returns the remaining turns of id, or 0 when inactive.
func (s *ActiveSet) Remaining(id string) int {
	if a, ok := s.effects[id]; ok {
		return a.Remaining
	}
	return 0
}

// Len returns the number of active effects.
func (s *ActiveSet) Len() int { return len(s.effects) }

// Countdown decrements every effect by one turn and removes those reaching 0.
//
// Postcondition: returns the expired definitions sorted by ID; none of them is active.
func (s *ActiveSet) Countdown() []*Definition {
	var expired []*Definition
	for id, a := range s.effects {
		a.Remaining--
		if a.Remaining <= 0 {
			expired = append(expired, a.Def)
			delete(s.effects, id)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	return expired
}

// StatValue sums the contribution of t over all active effects.
func (s *ActiveSet) StatValue(t stat.Type, local bool) int {
	total := 0
	for _, a := range s.effects {
		total += a.Def.StatValue(t, local)
	}
	return total
}

// All returns a snapshot of the active effects sorted by ID. The returned
// values are copies.
func (s *ActiveSet) All() []Active {
	out := make([]Active, 0, len(s.effects))
	for _, a := range s.effects {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Def.ID < out[j].Def.ID })
	return out
}
