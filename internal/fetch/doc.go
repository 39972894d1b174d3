// Package fetch prepares the workspace the simulation engine reads.
//
// Every snap gets a directory named after it holding:
//
//	.snap.json  store identity (snap-name, snap-id, publisher-id)
//	snap.yaml   metadata of the fetched revision
//	revision    the revision number, or the local path it came from
//
// Identities come from the workspace first, then the identity cache, then
// the store. Snaps may also be taken from local .snap archives or snap.yaml
// files, which get a synthetic identity derived from their content.
package fetch
