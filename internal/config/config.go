package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "ifacetool"

	// DefaultModel is the <brand>/<model> used when none is given.
	DefaultModel = "brand/model"

	// DefaultStoreURL is the base URL of the snap store dashboard API.
	DefaultStoreURL = "https://dashboard.snapcraft.io"

	// DefaultUserAgent is sent with every store request.
	DefaultUserAgent = "ifacetool"

	// DefaultTimeout bounds a single store request.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of snaps fetched in parallel.
	// The store rate-limits aggressive clients, so keep this small.
	DefaultConcurrency = 4

	// EngineName is the executable name of the simulation engine.
	EngineName = "ifacetool-engine"

	// CredentialsEnv holds base64-encoded store credentials.
	CredentialsEnv = "SNAPCRAFT_STORE_CREDENTIALS"
)

// Config holds all configuration options for ifacetool.
// It is populated from the config file and CLI flags and passed through
// the application explicitly rather than via global state.
type Config struct {
	// WorkDir is the workspace holding one directory per fetched snap.
	// Empty means the current directory.
	WorkDir string

	// Model is the device model as <brand>/<model>.
	Model string

	// Store is the optional brand store id.
	Store string

	// Interface restricts the report to one interface.
	Interface string

	// ShowCandidates renders candidate blocks under connections and
	// dangling plugs.
	ShowCandidates bool

	// Classic simulates a classic system rather than a Core device.
	Classic bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .ifacetool in the workdir
	// and then in the user's home directory.
	ConfigFilePath string

	// JSONReport selects JSON report output. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown report output. Mutually exclusive
	// with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// TargetSnap is the snap whose installation is simulated.
	TargetSnap string

	// ContextSnaps are installed alongside the target.
	ContextSnaps []string

	// EnginePath overrides the engine executable lookup.
	EnginePath string

	// StoreURL is the base URL of the store API.
	StoreURL string

	// UserAgent is the User-Agent header sent to the store.
	UserAgent string

	// Timeout bounds a single store request.
	Timeout time.Duration

	// Concurrency is the number of snaps fetched in parallel.
	Concurrency int

	// CacheDir holds the snap identity database. Empty disables the cache.
	CacheDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Model:       DefaultModel,
		StoreURL:    DefaultStoreURL,
		UserAgent:   DefaultUserAgent,
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		CacheDir:    XDGCacheDir(),
	}
}

// XDGCacheDir returns the XDG cache directory for ifacetool.
// On Linux: ~/.cache/ifacetool
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// XDGConfigDir returns the XDG config directory for ifacetool.
// On Linux: ~/.config/ifacetool
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// BrandModel splits Model into its brand and model parts.
func (c *Config) BrandModel() (brand, model string, err error) {
	brand, model, ok := strings.Cut(c.Model, "/")
	if !ok || brand == "" || model == "" || strings.Contains(model, "/") {
		return "", "", ErrInvalidModel
	}
	return brand, model, nil
}

// Validate checks the options shared by all commands.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.StoreURL == "" {
		return ErrInvalidStoreURL
	}
	return nil
}

// ValidateAutoConnect additionally checks the auto-connections options.
func (c *Config) ValidateAutoConnect() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.TargetSnap == "" {
		return ErrNoTarget
	}
	if _, _, err := c.BrandModel(); err != nil {
		return err
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
