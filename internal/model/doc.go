// Package model defines the data structures exchanged with the interface
// simulation engine and used throughout ifacetool.
//
// This package contains the following main types:
//   - SimulationResult: The engine's answer for one auto-connections run
//   - Connection, Candidate, InstallEntry, PlugEntry: Its building blocks
//   - OnTargetSet: Which ends of a connection sit on the target snap
//   - SnapRef, SnapAtRev, Revision: Snap identities and fetch targets
//
// The JSON tags follow the engine's wire names (kebab-case), so values decode
// directly from the engine's stdout and encode back for the JSON report.
package model
