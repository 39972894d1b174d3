package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SnapRef is the resolved store identity of a snap.
// It is stored as <name>/.snap.json in the workspace, which the engine reads.
type SnapRef struct {
	SnapName    string `json:"snap-name"`
	SnapID      string `json:"snap-id"`
	PublisherID string `json:"publisher-id"`
}

// RevisionKind tells how a Revision should be interpreted.
type RevisionKind int

const (
	// RevisionUnset means "latest" for store snaps.
	RevisionUnset RevisionKind = iota

	// RevisionRemote is a store revision number.
	RevisionRemote

	// RevisionLocal is a path to a local .snap archive or snap.yaml file.
	RevisionLocal
)

// Revision is either unset, a store revision number, or a local path.
type Revision struct {
	kind   RevisionKind
	number int
	path   string
}

// RemoteRevision returns a store revision.
func RemoteRevision(n int) Revision {
	return Revision{kind: RevisionRemote, number: n}
}

// LocalPath returns a revision that points at a local file.
func LocalPath(path string) Revision {
	return Revision{kind: RevisionLocal, path: path}
}

// Kind returns the revision kind.
func (r Revision) Kind() RevisionKind {
	return r.kind
}

// Number returns the store revision number, or 0 if r is not remote.
func (r Revision) Number() int {
	return r.number
}

// Path returns the local path, or "" if r is not local.
func (r Revision) Path() string {
	return r.path
}

// String returns the revision as used in store URLs and the revision file.
func (r Revision) String() string {
	switch r.kind {
	case RevisionRemote:
		return strconv.Itoa(r.number)
	case RevisionLocal:
		return r.path
	default:
		return "latest"
	}
}

// SnapAtRev names a snap, optionally pinned to a revision.
type SnapAtRev struct {
	Name     string
	Revision Revision
}

// String returns "<name>" or "<name>@<rev>".
func (s SnapAtRev) String() string {
	if s.Revision.Kind() == RevisionUnset {
		return s.Name
	}
	return s.Name + "@" + s.Revision.String()
}

// ParseSnapAtRev parses a "<snap>[@<rev>]" token.
// The revision, when present, must be a positive integer.
func ParseSnapAtRev(token string) (SnapAtRev, error) {
	name, rev, found := cutLast(token, "@")
	if name == "" {
		return SnapAtRev{}, fmt.Errorf("%w: %q", ErrEmptySnapName, token)
	}
	if !found {
		return SnapAtRev{Name: name}, nil
	}
	n, err := strconv.Atoi(rev)
	if err != nil || n <= 0 {
		return SnapAtRev{}, fmt.Errorf("%w: %q in %q", ErrInvalidRevision, rev, token)
	}
	return SnapAtRev{Name: name, Revision: RemoteRevision(n)}, nil
}

// cutLast slices s around the last instance of sep.
func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
