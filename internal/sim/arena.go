package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/davidpendergast/skeletris-sub001/internal/game/geom"
	"github.com/davidpendergast/skeletris-sub001/internal/game/world"
)

// Placement puts one actor template at a cell.
type Placement struct {
	Template string `yaml:"template"`
	At       [2]int `yaml:"at"`
}

// Pos returns the placement cell.
func (p Placement) Pos() geom.Point { return geom.Pt(p.At[0], p.At[1]) }

// Arena is a YAML arena description: a glyph map plus actor placements.
type Arena struct {
	Name   string      `yaml:"name"`
	Map    string      `yaml:"map"`
	Player Placement   `yaml:"player"`
	Actors []Placement `yaml:"actors"`
	// Items are item template IDs dropped at cells.
	Items []Placement `yaml:"items"`
}

// ParseArena decodes and validates an arena.
func ParseArena(data []byte) (*Arena, error) {
	var a Arena
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("parsing arena: %w", err)
	}
	if a.Player.Template == "" {
		return nil, fmt.Errorf("arena %q: player template must not be empty", a.Name)
	}
	if _, err := a.Grid(); err != nil {
		return nil, fmt.Errorf("arena %q: %w", a.Name, err)
	}
	return &a, nil
}

// LoadArena reads an arena file.
func LoadArena(path string) (*Arena, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading arena %q: %w", path, err)
	}
	return ParseArena(data)
}

// Grid builds a fresh grid from the arena map.
func (a *Arena) Grid() (*world.Grid, error) {
	return world.ParseString(a.Map)
}
