// Package cache provides SQLite-based storage for resolved snap identities.
//
// Resolving a snap name to its snap-id and publisher-id needs an
// authenticated store round trip. The IdentityDB keeps the answers in
// the XDG cache directory so that new workspaces can skip the store.
// Identities never change for a given snap name, so entries do not expire.
//
// The database is a single file opened through modernc.org/sqlite, which
// is CGO-free.
package cache
