package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigHasAllGPIOPins(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.GPIO.ModePin == "" || cfg.GPIO.ActionPin == "" || cfg.GPIO.LeftPausePin == "" ||
		cfg.GPIO.RightClearPin == "" || cfg.GPIO.TouchPin == "" {
		t.Fatalf("default config missing a GPIO pin assignment: %+v", cfg.GPIO)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := DefaultConfig()
	cfg.MIDIOutHint = "My Synth"
	cfg.SuperLooper = SuperLooperDefaults{Enabled: true, DurationS: 4.0}

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.MIDIOutHint != "My Synth" {
		t.Fatalf("MIDIOutHint = %q, want %q", loaded.MIDIOutHint, "My Synth")
	}
	if !loaded.SuperLooper.Enabled || loaded.SuperLooper.DurationS != 4.0 {
		t.Fatalf("SuperLooper = %+v, want enabled with 4.0", loaded.SuperLooper)
	}

	path, _ := Path()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file at %s: %v", path, err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SessionDir != DefaultConfig().SessionDir {
		t.Fatalf("SessionDir = %q, want default", cfg.SessionDir)
	}
}

func TestLoadCorruptFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfgDir := filepath.Join(dir, ".config", "tenloop")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected Load to surface a JSON parse error")
	}
}

func TestConfigMarshalsCleanly(t *testing.T) {
	cfg := DefaultConfig()
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty JSON")
	}
}
