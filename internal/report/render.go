package report

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/nao1215/ifacetool/internal/model"
)

// Options configures Render.
type Options struct {
	// TargetSnap is the snap whose installation was simulated.
	TargetSnap string

	// ContextSnaps are the snaps considered alongside the target.
	// Their install status is listed before the target's.
	ContextSnaps []string

	// Interface, when set, restricts connections, plugs and candidates to
	// this interface.
	Interface string

	// ShowCandidates enables candidate blocks.
	ShowCandidates bool
}

// Verdict texts.
const (
	verdictOK          = "=> ok"
	verdictOKAnySlots  = "=> ok slots-per-plug:*"
	verdictRepeatedErr = "=> //"
)

// renderer accumulates the lines of one Render call.
type renderer struct {
	opts           Options
	res            *model.SimulationResult
	lines          []Line
	connectedPlugs *orderedSet
	connectedSlots *orderedSet
}

// Render interprets a simulation result.
//
// If the engine reported a failure, Render returns a *SimulationError and no
// report. A result that breaks its contract (for example a snap without an
// install entry) yields an error wrapping model.ErrMalformedResult.
func Render(res *model.SimulationResult, opts Options) (*Report, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: nil result", model.ErrMalformedResult)
	}
	if res.Error != "" {
		return nil, newSimulationError(res.Error)
	}

	r := &renderer{
		opts:           opts,
		res:            res,
		connectedPlugs: newOrderedSet(),
		connectedSlots: newOrderedSet(),
	}

	if err := r.renderInstalling(); err != nil {
		return nil, err
	}
	r.renderConnections()
	r.renderDangling()

	return &Report{
		TargetSnap:     opts.TargetSnap,
		Interface:      opts.Interface,
		Lines:          r.lines,
		connectedPlugs: r.connectedPlugs,
		connectedSlots: r.connectedSlots,
	}, nil
}

func (r *renderer) emit(l Line) {
	r.lines = append(r.lines, l)
}

// matches applies the interface filter.
func (r *renderer) matches(iface string) bool {
	return r.opts.Interface == "" || r.opts.Interface == iface
}

// renderInstalling lists context snaps first, then the target.
func (r *renderer) renderInstalling() error {
	entries := make(map[string]model.InstallEntry, len(r.res.Installing))
	for _, inst := range r.res.Installing {
		entries[inst.SnapName] = inst
	}

	seen := newOrderedSet()
	names := make([]string, 0, len(r.opts.ContextSnaps)+1)
	for _, name := range r.opts.ContextSnaps {
		if name == r.opts.TargetSnap {
			continue
		}
		names = append(names, name)
	}
	names = append(names, r.opts.TargetSnap)

	for _, name := range names {
		if !seen.Add(name) {
			continue
		}
		inst, ok := entries[name]
		if !ok {
			return fmt.Errorf("%w: no install entry for %q", model.ErrMalformedResult, name)
		}
		status := "OK"
		if !inst.OK() {
			status = inst.Error
		}
		r.emit(Line{
			Kind: LineInstall,
			Text: fmt.Sprintf("installing %s: %s", name, status),
			Snap: name,
		})
		if len(inst.BadInterfaces) > 0 {
			r.emit(Line{
				Kind:  LineBadInterfaces,
				Depth: 1,
				Text:  formatBadInterfaces(inst.BadInterfaces),
				Snap:  name,
			})
		}
	}
	return nil
}

// connectionKey is the sort key of a connection. The trailing fields only
// break ties the canonical key leaves open, keeping the order total.
type connectionKey struct {
	rank                int
	first, second, last string
	rest, iface         string
}

func keyOf(c model.Connection) connectionKey {
	rank := c.OnTarget.Rank()
	if rank < 2 {
		return connectionKey{
			rank: rank, first: c.Plug.Snap, second: c.Plug.Plug, last: c.Slot.Slot,
			rest: c.Slot.Snap, iface: c.Interface,
		}
	}
	return connectionKey{
		rank: rank, first: c.Slot.Snap, second: c.Slot.Slot, last: c.Plug.Plug,
		rest: c.Plug.Snap, iface: c.Interface,
	}
}

func compareConnectionKeys(a, b connectionKey) int {
	return cmp.Or(
		cmp.Compare(a.rank, b.rank),
		cmp.Compare(a.first, b.first),
		cmp.Compare(a.second, b.second),
		cmp.Compare(a.last, b.last),
		cmp.Compare(a.rest, b.rest),
		cmp.Compare(a.iface, b.iface),
	)
}

// sortConnections returns a sorted copy; the input is not modified.
func sortConnections(conns []model.Connection) []model.Connection {
	sorted := slices.Clone(conns)
	slices.SortStableFunc(sorted, func(a, b model.Connection) int {
		return compareConnectionKeys(keyOf(a), keyOf(b))
	})
	return sorted
}

func (r *renderer) renderConnections() {
	for _, conn := range sortConnections(r.res.Connections) {
		if !r.matches(conn.Interface) {
			continue
		}
		if conn.OnTarget.Slot {
			r.emit(Line{
				Kind:      LineConnection,
				Text:      fmt.Sprintf("%s < %s", conn.Plug, conn.Slot.Slot),
				Interface: conn.Interface,
			})
			r.connectedSlots.Add(conn.Slot.Slot)
			if r.opts.ShowCandidates {
				r.renderCandidates(r.res.SlotCandidates[conn.Slot.Slot], model.SidePlug, true)
			}
		} else {
			r.emit(Line{
				Kind:      LineConnection,
				Text:      fmt.Sprintf("%s > %s", conn.Slot, conn.Plug.Plug),
				Interface: conn.Interface,
			})
			if r.opts.ShowCandidates {
				r.renderCandidates(r.res.PlugCandidates[conn.Plug.Plug], model.SideSlot, true)
			}
		}
		// A plug of the target snap is connected even if its side is unmarked.
		if conn.OnTarget.Plug || (r.opts.TargetSnap != "" && conn.Plug.Snap == r.opts.TargetSnap) {
			r.connectedPlugs.Add(conn.Plug.Plug)
		}
	}
}

func (r *renderer) renderDangling() {
	plugs := slices.Clone(r.res.Plugs)
	slices.SortStableFunc(plugs, func(a, b model.PlugEntry) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Interface, b.Interface))
	})

	for _, plug := range plugs {
		if !r.matches(plug.Interface) || r.connectedPlugs.Has(plug.Name) {
			continue
		}
		r.emit(Line{
			Kind:      LineDangling,
			Text:      ": " + plug.Name,
			Interface: plug.Interface,
		})
		if r.opts.ShowCandidates {
			r.renderCandidates(r.res.PlugCandidates[plug.Name], model.SideSlot, false)
		}
	}
}

// candidateOrder puts rejected pairings first and slots-per-plug: * ones last.
func candidateOrder(c model.Candidate) int {
	switch {
	case c.Rejected():
		return 0
	case !c.SlotsPerPlugAny:
		return 1
	default:
		return 2
	}
}

// end returns the snap and the plug or slot name of the given side.
func end(c model.Candidate, side string) (snap, name string) {
	if side == model.SidePlug {
		return c.Plug.Snap, c.Plug.Plug
	}
	return c.Slot.Snap, c.Slot.Slot
}

// opposite returns the other attachment side.
func opposite(side string) string {
	if side == model.SidePlug {
		return model.SideSlot
	}
	return model.SidePlug
}

// attributeLabel returns "{<interface>: <value>}" for the static attribute of
// the given side, or "" when there is none.
func attributeLabel(c model.Candidate, side string) string {
	attrs := c.SlotStaticAttrs
	if side == model.SidePlug {
		attrs = c.PlugStaticAttrs
	}
	v, ok := attrs[c.Interface]
	if !ok || v == nil {
		return ""
	}
	s := fmt.Sprint(v)
	if s == "" {
		return ""
	}
	return fmt.Sprintf("{%s: %s}", c.Interface, s)
}

// verdict returns the verdict text for c given the last error text rendered
// in the block, and the last error text to carry to the next candidate.
func verdict(c model.Candidate, lastErr string) (text, nextErr string) {
	switch {
	case c.Rejected() && c.CheckError == lastErr:
		return verdictRepeatedErr, lastErr
	case c.Rejected():
		return "=> " + c.CheckError, c.CheckError
	case c.SlotsPerPlugAny:
		return verdictOKAnySlots, ""
	default:
		return verdictOK, ""
	}
}

// renderCandidates renders a ranked candidate block. otherSide is the end
// that is not on the target. A happy block belongs to a connection that was
// made; a single candidate there explains nothing and is suppressed.
func (r *renderer) renderCandidates(candidates []model.Candidate, otherSide string, happy bool) {
	var filtered []model.Candidate
	for _, c := range candidates {
		if r.matches(c.Interface) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 || (happy && len(filtered) == 1) {
		return
	}

	slices.SortStableFunc(filtered, func(a, b model.Candidate) int {
		aSnap, aName := end(a, otherSide)
		bSnap, bName := end(b, otherSide)
		return cmp.Or(
			cmp.Compare(candidateOrder(a), candidateOrder(b)),
			cmp.Compare(aSnap, bSnap),
			cmp.Compare(aName, bName),
			cmp.Compare(a.CheckError, b.CheckError),
		)
	})

	side := opposite(otherSide)
	if label := attributeLabel(filtered[0], side); label != "" {
		r.emit(Line{Kind: LineAttrLabel, Depth: 1, Text: label, Interface: filtered[0].Interface})
	}

	seen := newOrderedSet()
	lastErr := ""
	for _, c := range filtered {
		snap, name := end(c, otherSide)
		other := snap + ":" + name
		if !seen.Add(other) {
			continue
		}
		text := other
		if label := attributeLabel(c, otherSide); label != "" {
			text += " " + label
		}
		r.emit(Line{Kind: LineCandidate, Depth: 1, Text: text, Interface: c.Interface})

		var v string
		v, lastErr = verdict(c, lastErr)
		r.emit(Line{Kind: LineVerdict, Depth: 2, Text: v, Interface: c.Interface})
	}
}
