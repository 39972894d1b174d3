package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nao1215/ifacetool/internal/model"
)

// stubScript records its params in <dir>/<op>.params and prints
// <dir>/<op>.out. The op "fail" exits 3 with a message on stderr.
const stubScript = `#!/bin/sh
dir=$(dirname "$0")
if [ "$1" = "fail" ]; then
	echo "error: boom" >&2
	exit 3
fi
printf '%s' "$2" > "$dir/$1.params"
pwd > "$dir/$1.pwd"
if [ -f "$dir/$1.out" ]; then
	cat "$dir/$1.out"
fi
`

// newStubEngine writes the stub engine to a temp dir and returns an Engine
// running it, plus the stub's directory.
func newStubEngine(t *testing.T) (*Engine, string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("stub engine is a shell script")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, Name)
	if err := os.WriteFile(path, []byte(stubScript), 0o755); err != nil { //nolint:gosec // test executable
		t.Fatalf("failed to write stub engine: %v", err)
	}

	e, err := New(Options{
		Path:    path,
		WorkDir: t.TempDir(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return e, dir
}

// writeOutput sets what the stub prints for op.
func writeOutput(t *testing.T, dir, op, out string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, op+".out"), []byte(out), 0o600); err != nil {
		t.Fatalf("failed to write stub output: %v", err)
	}
}

// readParams returns what the stub received for op.
func readParams(t *testing.T, dir, op string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, op+".params")) //nolint:gosec // test file
	if err != nil {
		t.Fatalf("failed to read stub params: %v", err)
	}
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		t.Fatalf("stub params are not JSON: %v: %s", err, data)
	}
	return params
}

// TestResolve tests engine lookup.
func TestResolve(t *testing.T) {
	t.Run("explicit existing path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "engine")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		got, err := Resolve(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != path {
			t.Errorf("got %q, want %q", got, path)
		}
	})

	t.Run("explicit missing path", func(t *testing.T) {
		_, err := Resolve(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, ErrEngineNotFound) {
			t.Errorf("expected ErrEngineNotFound, got %v", err)
		}
	})

	t.Run("not on PATH", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())
		_, err := Resolve("")
		if !errors.Is(err, ErrEngineNotFound) {
			t.Errorf("expected ErrEngineNotFound, got %v", err)
		}
	})
}

// TestEngine_AutoConnections tests the auto-connections op.
func TestEngine_AutoConnections(t *testing.T) {
	t.Parallel()

	t.Run("sends request and decodes result", func(t *testing.T) {
		t.Parallel()

		e, dir := newStubEngine(t)
		writeOutput(t, dir, OpAutoConnections, `{
			"installing": [
				{"snap-name": "core", "error": ""},
				{"snap-name": "network-manager", "error": ""}
			],
			"connections": [
				{"interface": "network", "on-target": ["plug"],
				 "plug": {"snap": "network-manager", "plug": "network"},
				 "slot": {"snap": "core", "slot": "network"}}
			],
			"plugs": [{"name": "network", "interface": "network"}]
		}`)

		res, err := e.AutoConnections(context.Background(), AutoConnectRequest{
			Brand:      "canonical",
			Model:      "pc",
			TargetSnap: "network-manager",
			Snaps:      []string{"core"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Connections) != 1 || res.Connections[0].Plug.Plug != "network" {
			t.Errorf("unexpected connections %+v", res.Connections)
		}

		params := readParams(t, dir, OpAutoConnections)
		if params["brand"] != "canonical" || params["model"] != "pc" || params["target-snap"] != "network-manager" {
			t.Errorf("unexpected params %v", params)
		}
		if _, ok := params["store"]; ok {
			t.Errorf("expected empty store to be omitted, got %v", params)
		}
		if params["classic"] != false {
			t.Errorf("expected classic false, got %v", params["classic"])
		}

		pwd, err := os.ReadFile(filepath.Join(dir, OpAutoConnections+".pwd")) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("failed to read pwd: %v", err)
		}
		wantDir, _ := filepath.EvalSymlinks(e.workDir) //nolint:errcheck // temp dir exists
		gotDir, _ := filepath.EvalSymlinks(strings.TrimSpace(string(pwd))) //nolint:errcheck // reported by the stub
		if gotDir != wantDir {
			t.Errorf("engine ran in %q, want %q", gotDir, wantDir)
		}
	})

	t.Run("nil snaps are sent as an empty list", func(t *testing.T) {
		t.Parallel()

		e, dir := newStubEngine(t)
		writeOutput(t, dir, OpAutoConnections, `{"installing": [{"snap-name": "foo", "error": ""}]}`)

		if _, err := e.AutoConnections(context.Background(), AutoConnectRequest{Brand: "b", Model: "m", TargetSnap: "foo"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		snaps, ok := readParams(t, dir, OpAutoConnections)["snaps"].([]any)
		if !ok || len(snaps) != 0 {
			t.Errorf("expected empty snaps list, got %v", snaps)
		}
	})

	t.Run("simulation error is returned as a result", func(t *testing.T) {
		t.Parallel()

		e, dir := newStubEngine(t)
		writeOutput(t, dir, OpAutoConnections, `{"error": "cannot find snap-declaration for foo"}`)

		res, err := e.AutoConnections(context.Background(), AutoConnectRequest{TargetSnap: "foo"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Error != "cannot find snap-declaration for foo" {
			t.Errorf("unexpected error text %q", res.Error)
		}
	})

	t.Run("missing install entry is malformed", func(t *testing.T) {
		t.Parallel()

		e, dir := newStubEngine(t)
		writeOutput(t, dir, OpAutoConnections, `{"installing": [{"snap-name": "foo", "error": ""}]}`)

		_, err := e.AutoConnections(context.Background(), AutoConnectRequest{TargetSnap: "foo", Snaps: []string{"bar"}})
		if !errors.Is(err, model.ErrMalformedResult) {
			t.Errorf("expected ErrMalformedResult, got %v", err)
		}
	})

	t.Run("empty on-target is malformed", func(t *testing.T) {
		t.Parallel()

		e, dir := newStubEngine(t)
		writeOutput(t, dir, OpAutoConnections, `{
			"installing": [{"snap-name": "foo", "error": ""}],
			"connections": [{"interface": "x", "on-target": [],
				"plug": {"snap": "foo", "plug": "x"}, "slot": {"snap": "core", "slot": "x"}}]
		}`)

		_, err := e.AutoConnections(context.Background(), AutoConnectRequest{TargetSnap: "foo"})
		if !errors.Is(err, model.ErrMalformedResult) {
			t.Errorf("expected ErrMalformedResult, got %v", err)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		t.Parallel()

		e, dir := newStubEngine(t)
		writeOutput(t, dir, OpAutoConnections, `not json`)

		if _, err := e.AutoConnections(context.Background(), AutoConnectRequest{TargetSnap: "foo"}); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("empty target is rejected", func(t *testing.T) {
		t.Parallel()

		e, _ := newStubEngine(t)
		if _, err := e.AutoConnections(context.Background(), AutoConnectRequest{}); !errors.Is(err, model.ErrEmptySnapName) {
			t.Errorf("expected ErrEmptySnapName, got %v", err)
		}
	})
}

// TestEngine_FetchDecls tests the fetch-decls op.
func TestEngine_FetchDecls(t *testing.T) {
	t.Parallel()

	t.Run("sends snap names", func(t *testing.T) {
		t.Parallel()

		e, dir := newStubEngine(t)
		if err := e.FetchDecls(context.Background(), []string{"core", "pc"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		snaps, ok := readParams(t, dir, OpFetchDecls)["snaps"].([]any)
		if !ok || len(snaps) != 2 || snaps[0] != "core" || snaps[1] != "pc" {
			t.Errorf("unexpected snaps %v", snaps)
		}
	})

	t.Run("no names does not run the engine", func(t *testing.T) {
		t.Parallel()

		e, dir := newStubEngine(t)
		if err := e.FetchDecls(context.Background(), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, OpFetchDecls+".params")); !os.IsNotExist(err) {
			t.Error("expected engine not to run")
		}
	})
}

// TestEngine_Run_ExitError tests that a failing engine surfaces its stderr.
func TestEngine_Run_ExitError(t *testing.T) {
	t.Parallel()

	e, _ := newStubEngine(t)

	_, err := e.Run(context.Background(), "fail", map[string]string{})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("unexpected exit code %d", exitErr.Code)
	}
	if !strings.Contains(exitErr.Error(), "error: boom") {
		t.Errorf("expected stderr in message, got %q", exitErr.Error())
	}
}

// TestEngine_Run_Canceled tests that a canceled context stops the engine.
func TestEngine_Run_Canceled(t *testing.T) {
	t.Parallel()

	e, _ := newStubEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Run(ctx, OpFetchDecls, nil); err == nil {
		t.Error("expected error for canceled context")
	}
}
