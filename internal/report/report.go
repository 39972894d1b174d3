package report

import (
	"fmt"
	"strings"
)

// indentUnit is the indentation prepended per depth level in text output.
const indentUnit = "  "

// LineKind classifies a rendered line.
type LineKind int

const (
	// LineInstall is an "installing <snap>: <status>" line.
	LineInstall LineKind = iota

	// LineBadInterfaces lists the bad interfaces of the preceding install line.
	LineBadInterfaces

	// LineConnection is an auto-connection, "<snap>:<plug> < <slot>" or
	// "<snap>:<slot> > <plug>".
	LineConnection

	// LineDangling is an unconnected target plug, ": <plug>".
	LineDangling

	// LineAttrLabel is the static attribute label of the target end, printed
	// once before a candidate block.
	LineAttrLabel

	// LineCandidate is the other end of a candidate pairing.
	LineCandidate

	// LineVerdict is the "=> ..." outcome of the preceding candidate.
	LineVerdict
)

// String returns the kind name used in JSON output.
func (k LineKind) String() string {
	switch k {
	case LineInstall:
		return "install"
	case LineBadInterfaces:
		return "bad-interfaces"
	case LineConnection:
		return "connection"
	case LineDangling:
		return "dangling"
	case LineAttrLabel:
		return "attr-label"
	case LineCandidate:
		return "candidate"
	case LineVerdict:
		return "verdict"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k LineKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *LineKind) UnmarshalText(text []byte) error {
	for kind := LineInstall; kind <= LineVerdict; kind++ {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown line kind %q", text)
}

// Line is one line of the report.
type Line struct {
	Kind LineKind `json:"kind"`

	// Depth is the indentation level.
	Depth int `json:"depth"`

	// Text is the line content without indentation.
	Text string `json:"text"`

	// Snap is the snap an install line refers to.
	Snap string `json:"snap,omitempty"`

	// Interface is the interface of connection, dangling and candidate lines.
	Interface string `json:"interface,omitempty"`
}

// String returns the indented text.
func (l Line) String() string {
	return strings.Repeat(indentUnit, l.Depth) + l.Text
}

// Report is the rendered result of one simulation.
type Report struct {
	// TargetSnap is the snap whose installation was simulated.
	TargetSnap string `json:"target-snap"`

	// Interface is the interface filter in effect, if any.
	Interface string `json:"interface,omitempty"`

	// Lines are the report lines in output order.
	Lines []Line `json:"lines"`

	connectedPlugs *orderedSet
	connectedSlots *orderedSet
}

// ConnectedPlugs returns the target plugs that got connected, in render order.
func (r *Report) ConnectedPlugs() []string {
	return r.connectedPlugs.Items()
}

// ConnectedSlots returns the target slots that got connected, in render order.
func (r *Report) ConnectedSlots() []string {
	return r.connectedSlots.Items()
}

// LinesOf returns the lines of the given kind, in output order.
func (r *Report) LinesOf(kind LineKind) []Line {
	var out []Line
	for _, l := range r.Lines {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}

// Text returns the report as newline-terminated text.
func (r *Report) Text() string {
	var sb strings.Builder
	for _, l := range r.Lines {
		sb.WriteString(l.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// SimulationError is returned by Render when the engine reported that the
// simulation itself failed. Its message is the engine's error text.
type SimulationError struct {
	Message string
}

// Error implements error.
func (e *SimulationError) Error() string {
	return e.Message
}

// newSimulationError wraps the engine's error text.
func newSimulationError(msg string) error {
	return &SimulationError{Message: msg}
}

// formatBadInterfaces renders the follow-up line of an install entry.
func formatBadInterfaces(bad []string) string {
	return fmt.Sprintf("bad-interfaces: %s", strings.Join(bad, ", "))
}
