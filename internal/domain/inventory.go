package domain

import "fmt"

// SlotCount is the fixed number of inventory slots per player.
const SlotCount = 28

// Stack is a quantity of one item type occupying a slot.
// Name and Description are denormalized copies from the catalog.
type Stack struct {
	ItemType    string `json:"itemType"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// Clone returns a copy of s, or nil for a nil stack.
func (s *Stack) Clone() *Stack {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Inventory is a player's slot array. A nil entry is an empty slot.
type Inventory [SlotCount]*Stack

// SlotWrite is one persisted slot state; a nil Stack clears the slot.
type SlotWrite struct {
	PlayerID string
	Index    int
	Stack    *Stack
}

// ValidSlot reports whether i addresses a slot.
func ValidSlot(i int) bool {
	return i >= 0 && i < SlotCount
}

// Clone deep-copies the slot array.
func (inv *Inventory) Clone() Inventory {
	var out Inventory
	for i, s := range inv {
		out[i] = s.Clone()
	}
	return out
}

// FirstEmpty returns the lowest empty slot index or -1.
func (inv *Inventory) FirstEmpty() int {
	for i, s := range inv {
		if s == nil {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether no slot holds anything.
func (inv *Inventory) IsEmpty() bool {
	for _, s := range inv {
		if s != nil {
			return false
		}
	}
	return true
}

// Count returns the total quantity of typeID across all slots.
func (inv *Inventory) Count(typeID string) int {
	total := 0
	for _, s := range inv {
		if s != nil && s.ItemType == typeID {
			total += s.Quantity
		}
	}
	return total
}

// PickupSlot picks where qty units of t land on pickup: an existing stack of
// the same type that can absorb all of them, else the first empty slot.
// Partial merges are never planned.
func (inv *Inventory) PickupSlot(t ItemType, qty int) (int, bool) {
	if t.Stackable {
		for i, s := range inv {
			if s != nil && s.ItemType == t.ID && s.Quantity+qty <= t.MaxStack {
				return i, true
			}
		}
	}
	if qty > t.MaxStack {
		return -1, false
	}
	if i := inv.FirstEmpty(); i >= 0 {
		return i, true
	}
	return -1, false
}

// Deposit adds qty units of t, topping up existing stacks first and then
// filling empty slots in maxStack-sized chunks. It returns the touched slot
// indexes. If the whole quantity does not fit, inv is left unchanged and
// ErrInventoryFull is returned.
func (inv *Inventory) Deposit(t ItemType, qty int) ([]int, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity %d", ErrInvalidInput, qty)
	}
	maxStack := t.MaxStack
	if !t.Stackable || maxStack < 1 {
		maxStack = 1
	}

	work := inv.Clone()
	remaining := qty
	var touched []int

	if t.Stackable {
		for i, s := range work {
			if remaining == 0 {
				break
			}
			if s == nil || s.ItemType != t.ID || s.Quantity >= maxStack {
				continue
			}
			add := min(maxStack-s.Quantity, remaining)
			s.Quantity += add
			remaining -= add
			touched = append(touched, i)
		}
	}

	for i := range work {
		if remaining == 0 {
			break
		}
		if work[i] != nil {
			continue
		}
		put := min(maxStack, remaining)
		work[i] = t.NewStack(put)
		remaining -= put
		touched = append(touched, i)
	}

	if remaining > 0 {
		return nil, ErrInventoryFull
	}
	*inv = work
	return touched, nil
}

// Withdraw removes qty units from slot, clearing it when it reaches zero.
func (inv *Inventory) Withdraw(slot, qty int) error {
	if !ValidSlot(slot) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	s := inv[slot]
	if s == nil || qty < 1 || s.Quantity < qty {
		return fmt.Errorf("%w: slot %d", ErrItemUnavailable, slot)
	}
	s.Quantity -= qty
	if s.Quantity == 0 {
		inv[slot] = nil
	}
	return nil
}

// Writes converts the given slot indexes into persisted slot states.
func (inv *Inventory) Writes(playerID string, slots ...int) []SlotWrite {
	out := make([]SlotWrite, 0, len(slots))
	seen := make(map[int]bool, len(slots))
	for _, i := range slots {
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, SlotWrite{PlayerID: playerID, Index: i, Stack: inv[i].Clone()})
	}
	return out
}

// AllWrites returns the persisted state of every slot.
func (inv *Inventory) AllWrites(playerID string) []SlotWrite {
	slots := make([]int, SlotCount)
	for i := range slots {
		slots[i] = i
	}
	return inv.Writes(playerID, slots...)
}
