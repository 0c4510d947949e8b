package event

import (
	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
)

// Presenter receives presentation notifications. Calls are fire-and-forget:
// the engine never reads anything back.
type Presenter interface {
	FloatingText(at geom.Point, text, color string)
	DamageTaken(id actor.ID)
	Sound(name string)
	Effect(name string, at geom.Point)
}

// NopPresenter ignores every notification.
type NopPresenter struct{}

func (NopPresenter) FloatingText(geom.Point, string, string) {}
func (NopPresenter) DamageTaken(actor.ID)                    {}
func (NopPresenter) Sound(string)                            {}
func (NopPresenter) Effect(string, geom.Point)               {}

// Cue is one recorded presentation notification.
type Cue struct {
	Kind  string // "text", "damage", "sound", "effect"
	Text  string
	Color string
	At    geom.Point
	Actor actor.ID
}

// Recorder is a Presenter that keeps every cue in order. The headless
// simulator uses it to print a transcript.
type Recorder struct {
	Cues []Cue
}

func (r *Recorder) FloatingText(at geom.Point, text, color string) {
	r.Cues = append(r.Cues, Cue{Kind: "text", Text: text, Color: color, At: at})
}

func (r *Recorder) DamageTaken(id actor.ID) {
	r.Cues = append(r.Cues, Cue{Kind: "damage", Actor: id})
}

func (r *Recorder) Sound(name string) {
	r.Cues = append(r.Cues, Cue{Kind: "sound", Text: name})
}

func (r *Recorder) Effect(name string, at geom.Point) {
	r.Cues = append(r.Cues, Cue{Kind: "effect", Text: name, At: at})
}

// Count returns how many cues have the given kind and, when text is
// non-empty, the given text.
func (r *Recorder) Count(kind, text string) int {
	n := 0
	for _, c := range r.Cues {
		if c.Kind == kind && (text == "" || c.Text == text) {
			n++
		}
	}
	return n
}
