package config

import (
	"slices"
	"time"

	lev "github.com/agnivade/levenshtein"
)

// maxSuggestDistance is the largest edit distance Suggest accepts.
const maxSuggestDistance = 2

// File represents the structure of the .ifacetool configuration file.
// Every field is optional; unset fields leave the Config untouched.
type File struct {
	// Model is the default <brand>/<model>.
	Model string `yaml:"model,omitempty"`

	// Store is the default brand store id.
	Store string `yaml:"store,omitempty"`

	// Classic simulates a classic system by default.
	Classic bool `yaml:"classic,omitempty"`

	// Candidates shows candidate blocks by default.
	Candidates bool `yaml:"candidates,omitempty"`

	// EnginePath is the path to ifacetool-engine.
	EnginePath string `yaml:"engine_path,omitempty"`

	// StoreURL overrides the store base URL.
	StoreURL string `yaml:"store_url,omitempty"`

	// Timeout bounds a single store request, e.g. "30s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Concurrency is the number of snaps fetched in parallel.
	Concurrency int `yaml:"concurrency,omitempty"`

	// CacheDir holds the identity database.
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Aliases maps short names to snap names, e.g. nm: network-manager.
	Aliases map[string]string `yaml:"aliases,omitempty"`
}

// Apply copies the set fields of the file into cfg.
// Flags are applied afterwards so they take precedence.
func (cf *File) Apply(cfg *Config) {
	if cf.Model != "" {
		cfg.Model = cf.Model
	}
	if cf.Store != "" {
		cfg.Store = cf.Store
	}
	if cf.Classic {
		cfg.Classic = true
	}
	if cf.Candidates {
		cfg.ShowCandidates = true
	}
	if cf.EnginePath != "" {
		cfg.EnginePath = cf.EnginePath
	}
	if cf.StoreURL != "" {
		cfg.StoreURL = cf.StoreURL
	}
	if cf.Timeout != 0 {
		cfg.Timeout = cf.Timeout
	}
	if cf.Concurrency != 0 {
		cfg.Concurrency = cf.Concurrency
	}
	if cf.CacheDir != "" {
		cfg.CacheDir = cf.CacheDir
	}
}

// Resolve returns the snap name an alias stands for, or name itself.
func (cf *File) Resolve(name string) string {
	if target, ok := cf.Aliases[name]; ok && target != "" {
		return target
	}
	return name
}

// Suggest returns the alias or aliased snap name closest to name, or "" when
// nothing is within maxSuggestDistance edits.
func (cf *File) Suggest(name string) string {
	known := make([]string, 0, 2*len(cf.Aliases))
	for alias, target := range cf.Aliases {
		known = append(known, alias)
		if target != "" {
			known = append(known, target)
		}
	}
	slices.Sort(known)

	best, bestDist := "", maxSuggestDistance+1
	for _, candidate := range slices.Compact(known) {
		if candidate == name {
			continue
		}
		if d := lev.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
