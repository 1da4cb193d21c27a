package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/statekit/config"
)

func TestRunSimulate(t *testing.T) {
	var out bytes.Buffer
	err := runSimulate(&out, simulateOptions{clicks: 3, metrics: true})
	if err != nil {
		t.Fatalf("runSimulate() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		`State:   {"label":"ready","ticks":3,"clicks":2}`,
		"Toasts:  click #1, click #2",
		"statekit_events_total",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunSimulate_ExcludedClicksAllPass(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "screen.json")
	data := `{"debounce": {"exclude": "action == \"click\""}, "container": {"observer": "noop"}, "events": {"observer": "noop"}}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runSimulate(&out, simulateOptions{configFile: path, clicks: 2}); err != nil {
		t.Fatalf("runSimulate() error = %v", err)
	}
	if !strings.Contains(out.String(), `"clicks":3`) {
		t.Errorf("expected every click to pass:\n%s", out.String())
	}
}

func TestConfigCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := configCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	var cfg config.Config
	if err := json.Unmarshal(out.Bytes(), &cfg); err != nil {
		t.Fatalf("output is not a config: %v\n%s", err, out.String())
	}
	if cfg.Debounce.WindowMillis != config.DefaultDebounceMillis {
		t.Errorf("window_ms = %d, want %d", cfg.Debounce.WindowMillis, config.DefaultDebounceMillis)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("loadConfig() of a missing file should fail")
	}
}
