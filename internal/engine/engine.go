package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/nao1215/ifacetool/internal/model"
)

// Name is the engine executable name.
const Name = "ifacetool-engine"

// Engine operations.
const (
	OpFetchDecls      = "fetch-decls"
	OpAutoConnections = "auto-connections"
)

// Options configures an Engine.
type Options struct {
	// Path is an explicit engine executable. Empty means look it up.
	Path string

	// WorkDir is the workspace the engine reads snaps from.
	WorkDir string

	// Logger receives invocation logs. Nil uses slog.Default().
	Logger *slog.Logger
}

// Engine invokes the simulation engine.
type Engine struct {
	path    string
	workDir string
	logger  *slog.Logger
}

// New locates the engine and returns an Engine running in opts.WorkDir.
func New(opts Options) (*Engine, error) {
	path, err := Resolve(opts.Path)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{path: path, workDir: opts.WorkDir, logger: logger}, nil
}

// Resolve returns the engine executable to run. An explicit path must exist.
// Otherwise the engine is looked for next to the running executable, then
// on PATH.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %w", ErrEngineNotFound, err)
		}
		return explicit, nil
	}

	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), Name)
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			return sibling, nil
		}
	}

	path, err := exec.LookPath(Name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEngineNotFound, err)
	}
	return path, nil
}

// Path returns the engine executable in use.
func (e *Engine) Path() string {
	return e.path
}

// Run runs op with params encoded as JSON and returns the engine's stdout.
func (e *Engine) Run(ctx context.Context, op string, params any) ([]byte, error) {
	param, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s params: %w", op, err)
	}

	cmd := exec.CommandContext(ctx, e.path, op, string(param)) //nolint:gosec // engine path comes from config or lookup
	cmd.Dir = e.workDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("running engine", "engine", e.path, "op", op, "params", string(param))
	start := time.Now()

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{Op: op, Code: exitErr.ExitCode(), Stderr: stderr.String(), Err: err}
		}
		return nil, fmt.Errorf("failed to run engine %s: %w", op, err)
	}

	e.logger.Debug("engine finished", "op", op, "elapsed", time.Since(start), "stdout_bytes", stdout.Len())
	return stdout.Bytes(), nil
}

// AutoConnectRequest are the auto-connections params.
type AutoConnectRequest struct {
	Brand      string   `json:"brand"`
	Model      string   `json:"model"`
	Store      string   `json:"store,omitempty"`
	TargetSnap string   `json:"target-snap"`
	Snaps      []string `json:"snaps"`
	Interface  string   `json:"interface,omitempty"`
	Classic    bool     `json:"classic"`
}

// AutoConnections simulates installing req.TargetSnap.
// A result reporting an engine-level error is returned as is; otherwise it
// must have an install entry for every snap involved.
func (e *Engine) AutoConnections(ctx context.Context, req AutoConnectRequest) (*model.SimulationResult, error) {
	if req.TargetSnap == "" {
		return nil, model.ErrEmptySnapName
	}
	if req.Snaps == nil {
		req.Snaps = []string{}
	}

	out, err := e.Run(ctx, OpAutoConnections, req)
	if err != nil {
		return nil, err
	}

	var res model.SimulationResult
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, fmt.Errorf("failed to decode engine result: %w", err)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if res.Error != "" {
		return &res, nil
	}

	installed := make(map[string]bool, len(res.Installing))
	for _, inst := range res.Installing {
		installed[inst.SnapName] = true
	}
	for _, name := range append([]string{req.TargetSnap}, req.Snaps...) {
		if !installed[name] {
			return nil, fmt.Errorf("%w: no install entry for %q", model.ErrMalformedResult, name)
		}
	}

	return &res, nil
}

// fetchDeclsRequest are the fetch-decls params.
type fetchDeclsRequest struct {
	Snaps []string `json:"snaps"`
}

// FetchDecls asks the engine to download the snap-declarations of names.
func (e *Engine) FetchDecls(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	_, err := e.Run(ctx, OpFetchDecls, fetchDeclsRequest{Snaps: names})
	return err
}
