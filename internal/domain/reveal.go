package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RevealSlot is one segment of the reveal animation
type RevealSlot struct {
	Label    string
	Discount int
}

// RevealTable is the closed set of slots a drawn discount can be shown as.
// It must contain exactly one zero-discount slot, used as the fallback.
type RevealTable struct {
	slots    []RevealSlot
	fallback int
}

// DefaultRevealSlots matches the discounts the backend can issue
var DefaultRevealSlots = []RevealSlot{
	{Label: "5%", Discount: 5},
	{Label: "7%", Discount: 7},
	{Label: "8%", Discount: 8},
	{Label: "10%", Discount: 10},
	{Label: "12%", Discount: 12},
	{Label: "15%", Discount: 15},
	{Label: "No prize", Discount: 0},
}

// NewRevealTable validates and builds a reveal table
func NewRevealTable(slots []RevealSlot) (*RevealTable, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("reveal table has no slots")
	}

	fallback := -1
	seen := make(map[int]bool, len(slots))
	for i, slot := range slots {
		if slot.Discount < 0 || slot.Discount > 100 {
			return nil, fmt.Errorf("slot %q: discount %d out of range 0-100", slot.Label, slot.Discount)
		}
		if seen[slot.Discount] {
			return nil, fmt.Errorf("slot %q: duplicate discount %d", slot.Label, slot.Discount)
		}
		seen[slot.Discount] = true
		if slot.Discount == 0 {
			fallback = i
		}
	}
	if fallback == -1 {
		return nil, fmt.Errorf("reveal table needs a zero-discount slot")
	}

	return &RevealTable{
		slots:    append([]RevealSlot(nil), slots...),
		fallback: fallback,
	}, nil
}

// DefaultRevealTable returns the table built from DefaultRevealSlots
func DefaultRevealTable() *RevealTable {
	table, err := NewRevealTable(DefaultRevealSlots)
	if err != nil {
		panic(err)
	}
	return table
}

// ParseRevealSlots parses a comma separated discount list like "5,7,10,0".
// Zero gets the "No prize" label, everything else "<n>%".
func ParseRevealSlots(list string) ([]RevealSlot, error) {
	var slots []RevealSlot
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		discount, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid reveal slot %q: %w", part, err)
		}
		label := fmt.Sprintf("%d%%", discount)
		if discount == 0 {
			label = "No prize"
		}
		slots = append(slots, RevealSlot{Label: label, Discount: discount})
	}
	return slots, nil
}

// SlotFor maps a drawn discount to the first slot with exactly that value.
// Unknown values land on the zero slot; matched is false in that case.
// This only affects presentation, the drawn code keeps its real discount.
func (t *RevealTable) SlotFor(discount int) (index int, slot RevealSlot, matched bool) {
	for i, s := range t.slots {
		if s.Discount == discount {
			return i, s, true
		}
	}
	return t.fallback, t.slots[t.fallback], false
}

// Slots returns a copy of the table
func (t *RevealTable) Slots() []RevealSlot {
	return append([]RevealSlot(nil), t.slots...)
}
