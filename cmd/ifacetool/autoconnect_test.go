package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/ifacetool/internal/config"
	"github.com/nao1215/ifacetool/internal/engine"
	"github.com/nao1215/ifacetool/internal/model"
	"github.com/nao1215/ifacetool/internal/report"
)

const networkManagerResult = `{
  "installing": [
    {"snap-name": "network-manager", "error": ""},
    {"snap-name": "core", "error": ""}
  ],
  "connections": [
    {
      "interface": "network",
      "on-target": ["plug"],
      "plug": {"snap": "network-manager", "plug": "network"},
      "slot": {"snap": "core", "slot": "network"}
    }
  ],
  "plugs": [
    {"name": "network", "interface": "network"},
    {"name": "modem-manager", "interface": "modem-manager"}
  ],
  "plug-candidates": {
    "modem-manager": [
      {
        "interface": "modem-manager",
        "check-error": "auto-connection denied by slot rule of interface \"modem-manager\"",
        "plug": {"snap": "network-manager", "plug": "modem-manager"},
        "slot": {"snap": "modem-manager", "slot": "service"}
      }
    ]
  }
}`

const networkManagerText = `installing core: OK
installing network-manager: OK
core:network > network
: modem-manager
`

func TestNewAutoConnectionsCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAutoConnectionsCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"model", "m", config.DefaultModel},
		{"store", "s", ""},
		{"interface", "i", ""},
		{"candidates", "", "false"},
		{"classic", "", "false"},
		{"json", "j", "false"},
		{"markdown", "", "false"},
		{"output", "o", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

func TestRunAutoConnectionsCmd(t *testing.T) {
	t.Parallel()

	newEnv := func(t *testing.T, result string) *testEnv {
		t.Helper()
		// Identities are in the workspace, so the store is never contacted.
		env := newTestEnv(t, "http://127.0.0.1:1")
		env.addIdentity(t, "network-manager")
		env.addIdentity(t, "core")
		env.setEngineOutput(t, engine.OpAutoConnections, result)
		return env
	}

	t.Run("renders plain text", func(t *testing.T) {
		t.Parallel()

		env := newEnv(t, networkManagerResult)
		out, err := env.run(t, "auto-connections", "nm", "core")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != networkManagerText {
			t.Errorf("unexpected output:\n%s\nwant:\n%s", out, networkManagerText)
		}
	})

	t.Run("sends the request to the engine", func(t *testing.T) {
		t.Parallel()

		env := newEnv(t, networkManagerResult)
		if _, err := env.run(t, "auto-connections", "--store", "acme-store", "--classic", "network-manager", "core"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var req engine.AutoConnectRequest
		if err := json.Unmarshal([]byte(env.engineParams(t, engine.OpAutoConnections)), &req); err != nil {
			t.Fatalf("invalid params: %v", err)
		}
		want := engine.AutoConnectRequest{
			Brand:      "acme",
			Model:      "gadget",
			Store:      "acme-store",
			TargetSnap: "network-manager",
			Snaps:      []string{"core"},
			Classic:    true,
		}
		if req.Brand != want.Brand || req.Model != want.Model || req.Store != want.Store ||
			req.TargetSnap != want.TargetSnap || req.Classic != want.Classic ||
			len(req.Snaps) != 1 || req.Snaps[0] != "core" {
			t.Errorf("got %+v, want %+v", req, want)
		}
	})

	t.Run("shows candidates", func(t *testing.T) {
		t.Parallel()

		env := newEnv(t, networkManagerResult)
		out, err := env.run(t, "auto-connections", "--candidates", "network-manager", "core")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := networkManagerText +
			"  modem-manager:service\n" +
			"    => auto-connection denied by slot rule of interface \"modem-manager\"\n"
		if out != want {
			t.Errorf("unexpected output:\n%s\nwant:\n%s", out, want)
		}
	})

	t.Run("filters by interface", func(t *testing.T) {
		t.Parallel()

		env := newEnv(t, networkManagerResult)
		out, err := env.run(t, "auto-connections", "-i", "network", "network-manager", "core")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(out, "modem-manager") {
			t.Errorf("expected modem-manager to be filtered out:\n%s", out)
		}
		if !strings.Contains(out, "core:network > network") {
			t.Errorf("expected the network connection:\n%s", out)
		}
	})

	t.Run("returns the simulation error", func(t *testing.T) {
		t.Parallel()

		env := newEnv(t, `{"error": "cannot find model assertion"}`)
		out, err := env.run(t, "auto-connections", "network-manager", "core")

		var simErr *report.SimulationError
		if !errors.As(err, &simErr) {
			t.Fatalf("expected SimulationError, got %v", err)
		}
		if simErr.Error() != "cannot find model assertion" {
			t.Errorf("unexpected message %q", simErr.Error())
		}
		if out != "" {
			t.Errorf("expected no output, got %q", out)
		}
	})

	t.Run("rejects a result missing a snap", func(t *testing.T) {
		t.Parallel()

		env := newEnv(t, `{"installing": [{"snap-name": "network-manager", "error": ""}], "connections": [], "plugs": []}`)
		_, err := env.run(t, "auto-connections", "network-manager", "core")
		if !errors.Is(err, model.ErrMalformedResult) {
			t.Errorf("expected ErrMalformedResult, got %v", err)
		}
	})

	t.Run("rejects an invalid model", func(t *testing.T) {
		t.Parallel()

		env := newEnv(t, networkManagerResult)
		_, err := env.run(t, "auto-connections", "--model", "gadget", "network-manager")
		if !errors.Is(err, config.ErrInvalidModel) {
			t.Errorf("expected ErrInvalidModel, got %v", err)
		}
	})

	t.Run("rejects conflicting formats", func(t *testing.T) {
		t.Parallel()

		env := newEnv(t, networkManagerResult)
		_, err := env.run(t, "auto-connections", "--json", "--markdown", "network-manager")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("writes a markdown report file", func(t *testing.T) {
		t.Parallel()

		env := newEnv(t, networkManagerResult)
		outputPath := filepath.Join(t.TempDir(), "reports", "nm.md")
		out, err := env.run(t, "auto-connections", "--markdown", "-o", outputPath, "network-manager", "core")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != networkManagerText {
			t.Errorf("expected plain text on stdout, got:\n%s", out)
		}

		content, err := os.ReadFile(outputPath) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(content), "# Auto-connections: network-manager") {
			t.Errorf("unexpected markdown:\n%s", content)
		}

		info, err := os.Stat(outputPath)
		if err != nil {
			t.Fatalf("failed to stat report: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}
	})

	t.Run("writes json to stdout", func(t *testing.T) {
		t.Parallel()

		env := newEnv(t, networkManagerResult)
		out, err := env.run(t, "auto-connections", "--json", "network-manager", "core")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var rep report.Report
		if err := json.Unmarshal([]byte(out), &rep); err != nil {
			t.Fatalf("invalid json: %v\n%s", err, out)
		}
		if rep.TargetSnap != "network-manager" {
			t.Errorf("unexpected target %q", rep.TargetSnap)
		}
		if rep.Text() != networkManagerText {
			t.Errorf("unexpected lines:\n%s", rep.Text())
		}
	})
}
