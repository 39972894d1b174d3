package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/nao1215/ifacetool/internal/fetch"
)

// testEnv is a workspace, a stub engine and a config file pointing at both.
type testEnv struct {
	workDir    string
	engineDir  string
	configPath string
}

// newTestEnv creates the environment. The stub engine prints engineDir/<op>.out
// and records its params in engineDir/<op>.params.
func newTestEnv(t *testing.T, storeURL string) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub engine is a shell script")
	}

	root := t.TempDir()
	env := &testEnv{
		workDir:    filepath.Join(root, "work"),
		engineDir:  filepath.Join(root, "engine"),
		configPath: filepath.Join(root, "ifacetool.yaml"),
	}
	for _, dir := range []string{env.workDir, env.engineDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	enginePath := filepath.Join(env.engineDir, "ifacetool-engine")
	script := fmt.Sprintf(`#!/bin/sh
printf '%%s' "$2" > "%[1]s/$1.params"
if [ -f "%[1]s/$1.out" ]; then cat "%[1]s/$1.out"; fi
`, env.engineDir)
	if err := os.WriteFile(enginePath, []byte(script), 0700); err != nil { //nolint:gosec // test engine must be executable
		t.Fatalf("failed to write stub engine: %v", err)
	}

	cfg := fmt.Sprintf("model: acme/gadget\nengine_path: %s\ncache_dir: %s\nstore_url: %s\naliases:\n  nm: network-manager\n",
		enginePath, filepath.Join(root, "cache"), storeURL)
	if err := os.WriteFile(env.configPath, []byte(cfg), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return env
}

// addIdentity writes a snap identity into the workspace.
func (e *testEnv) addIdentity(t *testing.T, name string) {
	t.Helper()
	dir := filepath.Join(e.workDir, name)
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	data := fmt.Sprintf(`{"snap-name": %q, "snap-id": "%s-id", "publisher-id": "canonical"}`, name, name)
	if err := os.WriteFile(filepath.Join(dir, fetch.IdentityFile), []byte(data), 0600); err != nil {
		t.Fatalf("failed to write identity: %v", err)
	}
}

// setEngineOutput sets what the stub engine prints for op.
func (e *testEnv) setEngineOutput(t *testing.T, op, out string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.engineDir, op+".out"), []byte(out), 0600); err != nil {
		t.Fatalf("failed to write engine output: %v", err)
	}
}

// engineParams returns the params the stub engine received for op.
func (e *testEnv) engineParams(t *testing.T, op string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.engineDir, op+".params")) //nolint:gosec // test file
	if err != nil {
		t.Fatalf("engine was not run with %s: %v", op, err)
	}
	return string(data)
}

// run executes the root command with the environment's config and workdir.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"-c", e.configPath, "-C", e.workDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}
