// Package config loads tenloop's JSON configuration: GPIO pin
// assignments, MIDI port name hints, autosave paths, and Super Looper
// defaults. Grounded on grahamseamans/go-sequence's config package,
// the retrieval pack's own MIDI-sequencer-domain precedent for
// encoding/json + os.UserHomeDir configuration — no third-party config
// library is warranted since the in-domain example already establishes
// the idiom.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/tenloop/tenloop/control"
)

// Config is tenloop's top-level configuration.
type Config struct {
	GPIO        control.PinConfig `json:"gpio"`
	LEDPins     map[string]string `json:"ledPins,omitempty"`
	MIDIOutHint string            `json:"midiOutHint,omitempty"`
	MIDIInHint  string            `json:"midiInHint,omitempty"`
	SessionDir  string            `json:"sessionDir,omitempty"`
	SuperLooper SuperLooperDefaults `json:"superLooper,omitempty"`
}

// SuperLooperDefaults seeds the engine's SuperLooperConfig at startup.
type SuperLooperDefaults struct {
	Enabled   bool    `json:"enabled,omitempty"`
	DurationS float64 `json:"durationS,omitempty"`
}

// DefaultConfig returns the pin assignments and hints matching
// original_source/Looper.py's setup_gpio constants.
func DefaultConfig() *Config {
	return &Config{
		GPIO: control.PinConfig{
			ModePin:       "GPIO5",
			ActionPin:     "GPIO6",
			LeftPausePin:  "GPIO13",
			RightClearPin: "GPIO19",
			TouchPin:      "GPIO26",
		},
		LEDPins: map[string]string{
			"mode_rec":   "GPIO17",
			"mode_play":  "GPIO27",
			"pause":      "GPIO22",
			"clear":      "GPIO23",
			"delete_all": "GPIO24",
		},
		SessionDir: "sessions",
	}
}

// Dir returns the config directory, ~/.config/tenloop.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tenloop"), nil
}

// Path returns the full path to config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if the file
// does not exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk, creating its directory if needed.
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := Path()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
