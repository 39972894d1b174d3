// Package config provides configuration structures and utilities for ifacetool.
// It defines the options shared by the fetch and auto-connections commands,
// the on-disk .ifacetool file, and the XDG locations used for caching.
package config
