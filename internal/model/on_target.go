package model

import (
	"encoding/json"
	"fmt"
)

// Attachment side names as used on the wire.
const (
	SidePlug = "plug"
	SideSlot = "slot"
)

// OnTargetSet records which ends of a connection belong to the target snap.
// Only three values are meaningful: both sides, slot only, or plug only.
type OnTargetSet struct {
	Plug bool
	Slot bool
}

// OnTargetBoth, OnTargetSlot and OnTargetPlug are the meaningful OnTargetSet values.
var (
	OnTargetBoth = OnTargetSet{Plug: true, Slot: true}
	OnTargetSlot = OnTargetSet{Slot: true}
	OnTargetPlug = OnTargetSet{Plug: true}
)

// IsEmpty reports whether neither side is on the target.
func (s OnTargetSet) IsEmpty() bool {
	return !s.Plug && !s.Slot
}

// Rank orders connections by how much of them is local to the target:
// 0 when the target supplies both ends, 1 for slot only, 2 otherwise.
func (s OnTargetSet) Rank() int {
	switch s {
	case OnTargetBoth:
		return 0
	case OnTargetSlot:
		return 1
	default:
		return 2
	}
}

// Sides returns the wire representation, plug before slot.
func (s OnTargetSet) Sides() []string {
	sides := make([]string, 0, 2)
	if s.Plug {
		sides = append(sides, SidePlug)
	}
	if s.Slot {
		sides = append(sides, SideSlot)
	}
	return sides
}

// String returns a set-like representation such as "{plug,slot}".
func (s OnTargetSet) String() string {
	switch s {
	case OnTargetBoth:
		return "{plug,slot}"
	case OnTargetSlot:
		return "{slot}"
	case OnTargetPlug:
		return "{plug}"
	default:
		return "{}"
	}
}

// MarshalJSON encodes the set as an array of side names.
func (s OnTargetSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sides())
}

// UnmarshalJSON decodes an array of side names. Duplicates are tolerated.
func (s *OnTargetSet) UnmarshalJSON(data []byte) error {
	var sides []string
	if err := json.Unmarshal(data, &sides); err != nil {
		return err
	}
	var set OnTargetSet
	for _, side := range sides {
		switch side {
		case SidePlug:
			set.Plug = true
		case SideSlot:
			set.Slot = true
		default:
			return fmt.Errorf("%w: %q", ErrInvalidOnTarget, side)
		}
	}
	*s = set
	return nil
}
