// Package engine runs the ifacetool-engine simulation program.
//
// The engine is invoked as "ifacetool-engine <op> <json-params>" in the
// workspace directory and answers on stdout. Two ops are used:
// fetch-decls downloads snap-declaration assertions for fetched snaps and
// auto-connections simulates installing a target snap.
package engine
