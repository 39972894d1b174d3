package model

import "fmt"

// SimulationResult is the engine's answer for one auto-connections run.
// It is produced atomically by the engine and consumed once by the renderer.
type SimulationResult struct {
	// Error is set when the simulation itself failed. Nothing else is
	// meaningful in that case.
	Error string `json:"error,omitempty"`

	// Installing has one entry per snap considered by the simulation.
	Installing []InstallEntry `json:"installing"`

	// Connections are the auto-connections that would be made.
	// The engine may omit it (null) when there are none.
	Connections []Connection `json:"connections"`

	// Plugs are the plugs declared by the target snap.
	Plugs []PlugEntry `json:"plugs"`

	// PlugCandidates maps a target plug name to the slots considered for it.
	PlugCandidates map[string][]Candidate `json:"plug-candidates,omitempty"`

	// SlotCandidates maps a target slot name to the plugs considered for it.
	SlotCandidates map[string][]Candidate `json:"slot-candidates,omitempty"`
}

// InstallEntry is the outcome of the installation policy check for one snap.
type InstallEntry struct {
	SnapName string `json:"snap-name"`

	// Error is empty when the snap would install.
	Error string `json:"error"`

	// BadInterfaces lists interface problems reported while reading the snap.
	BadInterfaces []string `json:"bad-interfaces,omitempty"`
}

// OK reports whether the snap would install.
func (e InstallEntry) OK() bool {
	return e.Error == ""
}

// PlugRef identifies a plug of a snap.
type PlugRef struct {
	Snap string `json:"snap"`
	Plug string `json:"plug"`
}

// String returns "<snap>:<plug>".
func (r PlugRef) String() string {
	return r.Snap + ":" + r.Plug
}

// SlotRef identifies a slot of a snap.
type SlotRef struct {
	Snap string `json:"snap"`
	Slot string `json:"slot"`
}

// String returns "<snap>:<slot>".
func (r SlotRef) String() string {
	return r.Snap + ":" + r.Slot
}

// Connection is one auto-connection the simulation would make.
type Connection struct {
	Interface string      `json:"interface"`
	OnTarget  OnTargetSet `json:"on-target"`
	Plug      PlugRef     `json:"plug"`
	Slot      SlotRef     `json:"slot"`
}

// PlugEntry is a plug declared by the target snap.
type PlugEntry struct {
	Name      string `json:"name"`
	Interface string `json:"interface"`
}

// Candidate is one potential plug/slot pairing the simulation considered.
type Candidate struct {
	Interface string `json:"interface"`

	// CheckError is the reason the pairing was rejected, empty if compatible.
	CheckError string `json:"check-error,omitempty"`

	// SlotsPerPlugAny is set when the pairing was allowed by a
	// slots-per-plug: * rule.
	SlotsPerPlugAny bool `json:"slots-per-plug-any,omitempty"`

	Plug PlugRef `json:"plug"`
	Slot SlotRef `json:"slot"`

	// PlugStaticAttrs and SlotStaticAttrs map an interface name to the
	// distinguishing static attribute of that end, e.g. the content tag.
	PlugStaticAttrs map[string]any `json:"plug-static-attrs,omitempty"`
	SlotStaticAttrs map[string]any `json:"slot-static-attrs,omitempty"`
}

// Rejected reports whether the pairing failed the policy check.
func (c Candidate) Rejected() bool {
	return c.CheckError != ""
}

// Validate checks the structural contract of the result.
// A result carrying Error is valid regardless of its other fields.
func (r *SimulationResult) Validate() error {
	if r.Error != "" {
		return nil
	}
	for i, inst := range r.Installing {
		if inst.SnapName == "" {
			return fmt.Errorf("%w: installing[%d] has no snap-name", ErrMalformedResult, i)
		}
	}
	for i, conn := range r.Connections {
		if conn.OnTarget.IsEmpty() {
			return fmt.Errorf("%w: connection %d (%s) has no on-target side", ErrMalformedResult, i, conn.Interface)
		}
		if conn.Plug.Plug == "" || conn.Slot.Slot == "" {
			return fmt.Errorf("%w: connection %d (%s) lacks a plug or slot name", ErrMalformedResult, i, conn.Interface)
		}
	}
	for i, plug := range r.Plugs {
		if plug.Name == "" {
			return fmt.Errorf("%w: plugs[%d] has no name", ErrMalformedResult, i)
		}
	}
	return nil
}
