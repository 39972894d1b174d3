// Package main provides the entry point for the ifacetool CLI.
//
// ifacetool fetches snap metadata and snap-declarations from the snap store
// and simulates which interfaces get auto-connected when a snap is installed
// next to others on a given device model.
//
// Usage:
//
//	ifacetool fetch core network-manager@1234
//	ifacetool auto-connections network-manager core --candidates
//
// See --help for all available options.
package main

// main is the entry point for ifacetool.
func main() {
	Execute()
}
