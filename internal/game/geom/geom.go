// Package geom provides integer grid coordinates for the dungeon.
package geom

import "fmt"

// Point is a cell position on the dungeon grid.
type Point struct {
	X int
	Y int
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

// String returns "(x, y)".
func (p Point) String() string { return fmt.Sprintf("(%d, %d)", p.X, p.Y) }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Cardinal holds the four unit offsets in N, E, S, W order.
var Cardinal = [4]Point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Manhattan returns |a.X-b.X| + |a.Y-b.Y|.
func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Neighbors returns the four cardinal neighbors of p in N, E, S, W order.
func Neighbors(p Point) []Point {
	out := make([]Point, 0, len(Cardinal))
	for _, d := range Cardinal {
		out = append(out, p.Add(d))
	}
	return out
}

// IsAdjacent reports whether a and b share an edge.
func IsAdjacent(a, b Point) bool { return Manhattan(a, b) == 1 }

// StraightLine reports whether a and b lie on the same row or column and differ.
// When true, dir is the unit step from a toward b and dist the number of steps.
func StraightLine(a, b Point) (dir Point, dist int, ok bool) {
	switch {
	case a == b:
		return Point{}, 0, false
	case a.X == b.X:
		return Point{0, sign(b.Y - a.Y)}, abs(b.Y - a.Y), true
	case a.Y == b.Y:
		return Point{sign(b.X - a.X), 0}, abs(b.X - a.X), true
	}
	return Point{}, 0, false
}

// CellsBetween returns the cells strictly between a and b along a Bresenham line.
// Neither endpoint is included.
//
// Postcondition: len(result) == max(|dx|, |dy|) - 1 when a != b.
func CellsBetween(a, b Point) []Point {
	var out []Point
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := sign(b.X-a.X), sign(b.Y-a.Y)
	err := dx + dy
	x, y := a.X, a.Y
	for {
		if x == b.X && y == b.Y {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
		if x == b.X && y == b.Y {
			break
		}
		out = append(out, Point{x, y})
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
