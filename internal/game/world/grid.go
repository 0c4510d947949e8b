// Package world provides Grid, an in-memory tile map that implements the
// action package's World capability.
package world

import (
	"errors"
	"fmt"
	"strings"

	"github.com/davidpendergast/skeletris-sub001/internal/game/actor"
	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/item"
)

// Tile is the terrain of one cell.
type Tile int

const (
	Floor Tile = iota
	Wall
	DoorClosed
	DoorOpen
)

// Map legend for Parse and String.
const (
	glyphFloor       = '.'
	glyphWall        = '#'
	glyphDoorClosed  = '+'
	glyphDoorOpen    = '/'
	glyphHiddenFloor = ','
)

// DefaultVisionRadius is how far the player sees, in Manhattan distance.
const DefaultVisionRadius = 8

var (
	// ErrOccupied is returned when placing an actor onto a solid cell.
	ErrOccupied = errors.New("cell occupied")
	// ErrUnknownActor is returned for operations on an actor not in the grid.
	ErrUnknownActor = errors.New("unknown actor")
)

// Grid is a rectangular tile map with actors and ground items.
//
// Invariant: at most one actor occupies a cell, and no actor stands on a
// wall or closed door.
type Grid struct {
	width, height int
	tiles         []Tile
	hidden        map[geom.Point]bool
	actors        map[actor.ID]*actor.Actor
	order         []actor.ID
	items         map[geom.Point][]item.Item

	// VisionRadius bounds IsVisible.
	VisionRadius int
}

// NewGrid creates an all-floor grid.
//
// Precondition: width > 0 and height > 0.
func NewGrid(width, height int) *Grid {
	if width <= 0 || height <= 0 {
		panic("world.NewGrid: dimensions must be positive")
	}
	return &Grid{
		width:        width,
		height:       height,
		tiles:        make([]Tile, width*height),
		hidden:       make(map[geom.Point]bool),
		actors:       make(map[actor.ID]*actor.Actor),
		items:        make(map[geom.Point][]item.Item),
		VisionRadius: DefaultVisionRadius,
	}
}

// Parse builds a grid from ASCII rows: '#' wall, '.' floor, '+' closed
// door, '/' open door, ',' floor in a hidden region. Short rows are padded
// with walls.
func Parse(rows []string) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("world: empty map")
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	if width == 0 {
		return nil, fmt.Errorf("world: empty map")
	}
	g := NewGrid(width, len(rows))
	for y, r := range rows {
		for x := 0; x < width; x++ {
			p := geom.Pt(x, y)
			ch := byte(glyphWall)
			if x < len(r) {
				ch = r[x]
			}
			switch ch {
			case glyphFloor:
				g.SetTile(p, Floor)
			case glyphWall:
				g.SetTile(p, Wall)
			case glyphDoorClosed:
				g.SetTile(p, DoorClosed)
			case glyphDoorOpen:
				g.SetTile(p, DoorOpen)
			case glyphHiddenFloor:
				g.SetTile(p, Floor)
				g.hidden[p] = true
			default:
				return nil, fmt.Errorf("world: unknown glyph %q at %s", ch, p)
			}
		}
	}
	return g, nil
}

// ParseString is Parse over newline-separated rows; blank lines are ignored.
func ParseString(s string) (*Grid, error) {
	var rows []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			rows = append(rows, strings.TrimRight(line, " \t\r"))
		}
	}
	return Parse(rows)
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) InBounds(p geom.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.width && p.Y < g.height
}

// Tile returns the terrain at p; out-of-bounds cells read as Wall.
func (g *Grid) Tile(p geom.Point) Tile {
	if !g.InBounds(p) {
		return Wall
	}
	return g.tiles[p.Y*g.width+p.X]
}

// SetTile sets the terrain at p.
func (g *Grid) SetTile(p geom.Point, t Tile) {
	if g.InBounds(p) {
		g.tiles[p.Y*g.width+p.X] = t
	}
}

// Hide marks p as part of an unrevealed region.
func (g *Grid) Hide(p geom.Point) { g.hidden[p] = true }

func (g *Grid) IsSolid(p geom.Point, includingEntities bool) bool {
	switch g.Tile(p) {
	case Wall, DoorClosed:
		return true
	}
	if includingEntities {
		_, occupied := g.ActorAt(p)
		return occupied
	}
	return false
}

func (g *Grid) IsDoor(p geom.Point) bool {
	t := g.Tile(p)
	return t == DoorClosed || t == DoorOpen
}

// OpenDoor opens the closed door at p and reveals the hidden regions it
// borders.
func (g *Grid) OpenDoor(p geom.Point) bool {
	if g.Tile(p) != DoorClosed {
		return false
	}
	g.SetTile(p, DoorOpen)
	for _, n := range geom.Neighbors(p) {
		g.reveal(n)
	}
	return true
}

// reveal flood-fills the hidden region containing p.
func (g *Grid) reveal(p geom.Point) {
	if !g.hidden[p] {
		return
	}
	queue := []geom.Point{p}
	delete(g.hidden, p)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range geom.Neighbors(cur) {
			if g.hidden[n] {
				delete(g.hidden, n)
				queue = append(queue, n)
			}
		}
	}
}

func (g *Grid) IsHidden(p geom.Point) bool { return g.hidden[p] }

// IsVisible reports whether the player can see p: revealed, within
// VisionRadius, and not behind a wall or closed door.
func (g *Grid) IsVisible(p geom.Point) bool {
	pl, ok := g.Player()
	if !ok || g.IsHidden(p) || !g.InBounds(p) {
		return false
	}
	if geom.Manhattan(pl.Pos, p) > g.VisionRadius {
		return false
	}
	for _, c := range geom.CellsBetween(pl.Pos, p) {
		if g.IsSolid(c, false) {
			return false
		}
	}
	return true
}

func (g *Grid) Actor(id actor.ID) (*actor.Actor, bool) {
	a, ok := g.actors[id]
	return a, ok
}

func (g *Grid) ActorAt(p geom.Point) (*actor.Actor, bool) {
	for _, id := range g.order {
		if a := g.actors[id]; a.Pos == p {
			return a, true
		}
	}
	return nil, false
}

// Actors returns every actor in insertion order.
func (g *Grid) Actors() []*actor.Actor {
	out := make([]*actor.Actor, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.actors[id])
	}
	return out
}

func (g *Grid) Player() (*actor.Actor, bool) {
	for _, id := range g.order {
		if a := g.actors[id]; a.Player {
			return a, true
		}
	}
	return nil, false
}

// AddActor places a at a.Pos.
func (g *Grid) AddActor(a *actor.Actor) error {
	if _, dup := g.actors[a.ID]; dup {
		return fmt.Errorf("world: actor %s already present", a.ID)
	}
	if !g.InBounds(a.Pos) || g.IsSolid(a.Pos, true) {
		return fmt.Errorf("world: adding %s at %s: %w", a.ID, a.Pos, ErrOccupied)
	}
	g.actors[a.ID] = a
	g.order = append(g.order, a.ID)
	return nil
}

func (g *Grid) RemoveActor(id actor.ID) {
	if _, ok := g.actors[id]; !ok {
		return
	}
	delete(g.actors, id)
	for i, o := range g.order {
		if o == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

func (g *Grid) MoveActor(id actor.ID, to geom.Point) error {
	a, ok := g.actors[id]
	if !ok {
		return fmt.Errorf("world: move %s: %w", id, ErrUnknownActor)
	}
	if !g.InBounds(to) || g.IsSolid(to, true) {
		return fmt.Errorf("world: move %s to %s: %w", id, to, ErrOccupied)
	}
	a.Pos = to
	return nil
}

func (g *Grid) SwapActors(a, b actor.ID) error {
	x, ok := g.actors[a]
	if !ok {
		return fmt.Errorf("world: swap %s: %w", a, ErrUnknownActor)
	}
	y, ok := g.actors[b]
	if !ok {
		return fmt.Errorf("world: swap %s: %w", b, ErrUnknownActor)
	}
	x.Pos, y.Pos = y.Pos, x.Pos
	return nil
}

func (g *Grid) CellsBetween(a, b geom.Point) []geom.Point { return geom.CellsBetween(a, b) }

// PathBetween runs a breadth-first search from start to end. Cells other
// than end must satisfy passable.
func (g *Grid) PathBetween(start, end geom.Point, passable func(geom.Point) bool, maxLen int) []geom.Point {
	if start == end || !g.InBounds(end) {
		return nil
	}
	prev := map[geom.Point]geom.Point{start: start}
	depth := map[geom.Point]int{start: 0}
	queue := []geom.Point{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == end {
			break
		}
		if depth[cur] >= maxLen {
			continue
		}
		for _, n := range geom.Neighbors(cur) {
			if _, seen := prev[n]; seen || !g.InBounds(n) {
				continue
			}
			if n != end && !passable(n) {
				continue
			}
			prev[n] = cur
			depth[n] = depth[cur] + 1
			queue = append(queue, n)
		}
	}
	if _, ok := prev[end]; !ok {
		return nil
	}
	var path []geom.Point
	for p := end; p != start; p = prev[p] {
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (g *Grid) ItemsAt(p geom.Point) []item.Item {
	return append([]item.Item(nil), g.items[p]...)
}

func (g *Grid) PlaceItem(p geom.Point, it item.Item) {
	g.items[p] = append(g.items[p], it)
}

func (g *Grid) TakeItem(p geom.Point, it item.Item) bool {
	cell := g.items[p]
	for i, c := range cell {
		if c.ID() == it.ID() {
			g.items[p] = append(cell[:i], cell[i+1:]...)
			if len(g.items[p]) == 0 {
				delete(g.items, p)
			}
			return true
		}
	}
	return false
}

// String renders the grid with actors as '@' (player) or the first letter
// of their name, and ground items as '*'.
func (g *Grid) String() string {
	var sb strings.Builder
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			p := geom.Pt(x, y)
			if a, ok := g.ActorAt(p); ok {
				switch {
				case a.Player:
					sb.WriteByte('@')
				case a.State.Name != "":
					sb.WriteByte(a.State.Name[0])
				default:
					sb.WriteByte('?')
				}
				continue
			}
			if len(g.items[p]) > 0 {
				sb.WriteByte('*')
				continue
			}
			switch g.Tile(p) {
			case Wall:
				sb.WriteByte(glyphWall)
			case DoorClosed:
				sb.WriteByte(glyphDoorClosed)
			case DoorOpen:
				sb.WriteByte(glyphDoorOpen)
			default:
				if g.hidden[p] {
					sb.WriteByte(glyphHiddenFloor)
				} else {
					sb.WriteByte(glyphFloor)
				}
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
