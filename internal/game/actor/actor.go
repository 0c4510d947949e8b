package actor

import (
	"fmt"

	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
)

// ID uniquely identifies an actor in the world.
type ID string

// Actor is an entity occupying one grid cell. It exclusively owns its State.
type Actor struct {
	ID         ID
	TemplateID string
	Pos        geom.Point
	State      *State
	// Player marks the actor driven by player input.
	Player bool
}

// IsAlive reports whether the actor has hp left.
func (a *Actor) IsAlive() bool { return a.State.IsAlive() }

// IsEnemyOf reports whether a and other are on different teams.
func (a *Actor) IsEnemyOf(other *Actor) bool {
	return a.State.Alignment != other.State.Alignment
}

func (a *Actor) String() string {
	return fmt.Sprintf("%s(%s)@%s", a.State.Name, a.ID, a.Pos)
}
