package item

import (
	"errors"
	"fmt"
	"sort"

	"github.com/davidpendergast/skeletris-sub001/internal/game/stat"
)

var (
	// ErrGridFull is returned when no inventory cell is free.
	ErrGridFull = errors.New("inventory grid is full")
	// ErrNotInGrid is returned when removing an item the grid does not hold.
	// Callers treat it as corrupted grid state.
	ErrNotInGrid = errors.New("item not in grid")
	// ErrCellOccupied is returned when placing onto an occupied cell or slot.
	ErrCellOccupied = errors.New("grid cell occupied")
	// ErrNotEquippable is returned when equipping an item without a slot.
	ErrNotEquippable = errors.New("item is not equippable")
)

// Inventory holds an actor's equip grid (one item per slot) and inventory grid
// (a fixed number of cells).
//
// Invariant: an item occupies at most one equip slot or one inventory cell.
type Inventory struct {
	cells    []Item
	equipped map[string]Item
}

// NewInventory creates an Inventory with capacity inventory cells.
//
// Precondition: capacity >= 0.
func NewInventory(capacity int) *Inventory {
	return &Inventory{
		cells:    make([]Item, capacity),
		equipped: make(map[string]Item),
	}
}

// Capacity returns the number of inventory cells.
func (inv *Inventory) Capacity() int { return len(inv.cells) }

// Add places it into the first free inventory cell.
func (inv *Inventory) Add(it Item) error {
	for i, c := range inv.cells {
		if c == nil {
			inv.cells[i] = it
			return nil
		}
	}
	return ErrGridFull
}

// Place puts it into inventory cell idx.
func (inv *Inventory) Place(it Item, idx int) error {
	if idx < 0 || idx >= len(inv.cells) {
		return fmt.Errorf("inventory cell %d out of range [0, %d)", idx, len(inv.cells))
	}
	if inv.cells[idx] != nil {
		return fmt.Errorf("inventory cell %d: %w", idx, ErrCellOccupied)
	}
	inv.cells[idx] = it
	return nil
}

// Equip puts it into its slot of the equip grid.
func (inv *Inventory) Equip(it Item) error {
	if !it.IsEquippable() {
		return fmt.Errorf("%s: %w", it.Name(), ErrNotEquippable)
	}
	if cur, ok := inv.equipped[it.Slot()]; ok && cur != nil {
		return fmt.Errorf("slot %q: %w", it.Slot(), ErrCellOccupied)
	}
	inv.equipped[it.Slot()] = it
	return nil
}

// Remove takes it out of whichever grid holds it.
//
// Postcondition: returns false, leaving the inventory untouched, if it was not held.
func (inv *Inventory) Remove(it Item) bool {
	for i, c := range inv.cells {
		if c != nil && c.ID() == it.ID() {
			inv.cells[i] = nil
			return true
		}
	}
	for slot, c := range inv.equipped {
		if c != nil && c.ID() == it.ID() {
			delete(inv.equipped, slot)
			return true
		}
	}
	return false
}

// RemoveFromGrid is Remove with the absence reported as ErrNotInGrid.
func (inv *Inventory) RemoveFromGrid(it Item) error {
	if !inv.Remove(it) {
		return fmt.Errorf("%s: %w", it.Name(), ErrNotInGrid)
	}
	return nil
}

// Contains reports whether it is held in either grid.
func (inv *Inventory) Contains(it Item) bool {
	return inv.IsEquipped(it) || inv.InInventory(it)
}

// InInventory reports whether it occupies an inventory cell.
func (inv *Inventory) InInventory(it Item) bool {
	for _, c := range inv.cells {
		if c != nil && c.ID() == it.ID() {
			return true
		}
	}
	return false
}

// IsEquipped reports whether it occupies an equip slot.
func (inv *Inventory) IsEquipped(it Item) bool {
	for _, c := range inv.equipped {
		if c != nil && c.ID() == it.ID() {
			return true
		}
	}
	return false
}

// HasRoom reports whether at least one inventory cell is free.
func (inv *Inventory) HasRoom() bool {
	for _, c := range inv.cells {
		if c == nil {
			return true
		}
	}
	return false
}

// CellFree reports whether inventory cell idx exists and is empty.
func (inv *Inventory) CellFree(idx int) bool {
	return idx >= 0 && idx < len(inv.cells) && inv.cells[idx] == nil
}

// SlotFree reports whether nothing is equipped in slot.
func (inv *Inventory) SlotFree(slot string) bool {
	return inv.equipped[slot] == nil
}

// Items returns inventory-grid items in cell order followed by equipped items
// in slot order.
func (inv *Inventory) Items() []Item {
	var out []Item
	for _, c := range inv.cells {
		if c != nil {
			out = append(out, c)
		}
	}
	return append(out, inv.Equipped()...)
}

// Equipped returns equipped items sorted by slot name.
func (inv *Inventory) Equipped() []Item {
	slots := make([]string, 0, len(inv.equipped))
	for s := range inv.equipped {
		slots = append(slots, s)
	}
	sort.Strings(slots)
	out := make([]Item, 0, len(slots))
	for _, s := range slots {
		out = append(out, inv.equipped[s])
	}
	return out
}

// Weapon returns the equipped weapon, or nil.
func (inv *Inventory) Weapon() Item {
	for _, it := range inv.Equipped() {
		if it.Kind() == KindWeapon {
			return it
		}
	}
	return nil
}

// EquippedStat sums the local contribution of t over equipped items.
func (inv *Inventory) EquippedStat(t stat.Type) int {
	total := 0
	for _, it := range inv.equipped {
		total += it.StatValue(t, true)
	}
	return total
}

// FindByID returns the held item with id.
func (inv *Inventory) FindByID(id string) (Item, bool) {
	for _, it := range inv.Items() {
		if it.ID() == id {
			return it, true
		}
	}
	return nil, false
}
