// Package session persists and restores the ten-track loop store as
// JSON, on the transport-idle boundaries the Transport Controller
// drives. Grounded on the teacher's sequence.Save/Load/List/Delete
// (encoding/json, os.MkdirAll, os.WriteFile), extended from a single
// step-pattern file to the richer two-file (normal / super-looper)
// schema of spec.md §6, and superseding original_source/Looper.py's
// autosave_tracks/autoload_tracks.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tenloop/tenloop/midi"
	"github.com/tenloop/tenloop/track"
	"github.com/tenloop/tenloop/transport"
)

// NormalFileName and SuperLooperFileName are the two session files
// spec.md §6 specifies; which one a Save writes depends on whether the
// Super Looper configuration passed to it is enabled.
const (
	NormalFileName      = "session.json"
	SuperLooperFileName = "session_superlooper.json"
)

// eventFile is the JSON shape of one recorded event.
type eventFile struct {
	Time     float64 `json:"time"`
	Type     string  `json:"type"`
	Channel  uint8   `json:"channel"`
	Note     *uint8  `json:"note,omitempty"`
	Velocity *uint8  `json:"velocity,omitempty"`
	Control  *uint8  `json:"control,omitempty"`
	Value    *uint8  `json:"value,omitempty"`
	Program  *uint8  `json:"program,omitempty"`
	Pitch    *int16  `json:"pitch,omitempty"`
}

// file is the top-level JSON shape of a session file.
type file struct {
	Tracks                [][]eventFile `json:"tracks"`
	Durations             []float64     `json:"durations"`
	Programs              []uint8       `json:"programs"`
	Channels              []uint8       `json:"channels"`
	BankMSB               []uint8       `json:"bank_msb"`
	BankLSB               []uint8       `json:"bank_lsb"`
	SuperLooperEnabled    bool          `json:"super_looper_enabled"`
	SuperLooperDuration   float64       `json:"super_looper_duration"`
	SuperLooperDurationSet bool         `json:"super_looper_duration_set"`
}

func u8(v uint8) *uint8  { return &v }
func i16(v int16) *int16 { return &v }

func toEventFile(e track.Event) eventFile {
	ef := eventFile{Time: e.Offset, Channel: e.Message.Channel}
	m := e.Message
	switch m.Kind {
	case midi.KindNoteOn:
		ef.Type = "note_on"
		ef.Note = u8(m.Note)
		ef.Velocity = u8(m.Velocity)
	case midi.KindNoteOff:
		ef.Type = "note_off"
		ef.Note = u8(m.Note)
	case midi.KindControlChange:
		ef.Type = "control_change"
		ef.Control = u8(m.Control)
		ef.Value = u8(m.Value)
	case midi.KindProgramChange:
		ef.Type = "program_change"
		ef.Program = u8(m.Program)
	case midi.KindPitchWheel:
		ef.Type = "pitchwheel"
		ef.Pitch = i16(m.Pitch)
	default:
		ef.Type = "other"
	}
	return ef
}

// fromEventFile decodes one event. Unknown types are skipped on load
// per spec.md §6, signaled by a false second return.
func fromEventFile(ef eventFile) (track.Event, bool) {
	var m midi.Message
	switch ef.Type {
	case "note_on":
		if ef.Note == nil || ef.Velocity == nil {
			return track.Event{}, false
		}
		m = midi.NoteOn(ef.Channel, *ef.Note, *ef.Velocity)
	case "note_off":
		if ef.Note == nil {
			return track.Event{}, false
		}
		m = midi.NoteOff(ef.Channel, *ef.Note)
	case "control_change":
		if ef.Control == nil || ef.Value == nil {
			return track.Event{}, false
		}
		m = midi.ControlChange(ef.Channel, *ef.Control, *ef.Value)
	case "program_change":
		if ef.Program == nil {
			return track.Event{}, false
		}
		m = midi.ProgramChange(ef.Channel, *ef.Program)
	case "pitchwheel":
		if ef.Pitch == nil {
			return track.Event{}, false
		}
		m = midi.PitchWheel(ef.Channel, *ef.Pitch)
	default:
		return track.Event{}, false
	}
	return track.Event{Offset: ef.Time, Message: m}, true
}

// Store persists and restores sessions under dir.
type Store struct {
	dir string
	log *zap.Logger
}

// New returns a Store rooted at dir, creating it if necessary on first
// Save.
func New(log *zap.Logger, dir string) *Store {
	return &Store{dir: dir, log: log}
}

func (s *Store) path(superLooper bool) string {
	name := NormalFileName
	if superLooper {
		name = SuperLooperFileName
	}
	return filepath.Join(s.dir, name)
}

// Save writes every track plus the Super Looper configuration to the
// file selected by looper.Enabled.
func (s *Store) Save(tracks *track.Store, looper transport.SuperLooperConfig) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	f := file{
		Tracks:                 make([][]eventFile, track.NumTracks),
		Durations:              make([]float64, track.NumTracks),
		Programs:               make([]uint8, track.NumTracks),
		Channels:               make([]uint8, track.NumTracks),
		BankMSB:                make([]uint8, track.NumTracks),
		BankLSB:                make([]uint8, track.NumTracks),
		SuperLooperEnabled:     looper.Enabled,
		SuperLooperDuration:    looper.DurationS,
		SuperLooperDurationSet: looper.DurationFixed,
	}

	for i := 0; i < track.NumTracks; i++ {
		t := tracks.Get(i)
		events := make([]eventFile, len(t.Events))
		for j, e := range t.Events {
			events[j] = toEventFile(e)
		}
		f.Tracks[i] = events
		f.Durations[i] = t.DurationS
		f.Programs[i] = t.Program
		f.Channels[i] = t.Channel
		f.BankMSB[i] = t.BankMSB
		f.BankLSB[i] = t.BankLSB
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.WriteFile(s.path(looper.Enabled), data, 0644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Load reads the session file for the given Super Looper mode and
// replaces every track in tracks; a track missing from the file's
// tracks array is left empty. Any read or parse failure degrades to an
// empty ten-track session, logged at Warn unless the file does not
// exist, per spec.md §7.
func (s *Store) Load(tracks *track.Store, superLooper bool) transport.SuperLooperConfig {
	data, err := os.ReadFile(s.path(superLooper))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read session file", zap.Error(err))
		}
		tracks.ClearAll()
		return transport.SuperLooperConfig{}
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		s.log.Warn("failed to parse session file", zap.Error(err))
		tracks.ClearAll()
		return transport.SuperLooperConfig{}
	}

	for i := 0; i < track.NumTracks; i++ {
		var events []track.Event
		if i < len(f.Tracks) {
			for _, ef := range f.Tracks[i] {
				if e, ok := fromEventFile(ef); ok {
					events = append(events, e)
				}
			}
		}

		duration := 0.0
		if i < len(f.Durations) {
			duration = f.Durations[i]
		} else if len(events) > 0 {
			duration = events[len(events)-1].Offset
		}

		var program, bankMSB, bankLSB uint8
		if i < len(f.Programs) {
			program = f.Programs[i]
		}
		if i < len(f.BankMSB) {
			bankMSB = f.BankMSB[i]
		}
		if i < len(f.BankLSB) {
			bankLSB = f.BankLSB[i]
		}

		tracks.Replace(i, events, duration, program, bankMSB, bankLSB)
	}

	return transport.SuperLooperConfig{
		Enabled:       f.SuperLooperEnabled,
		DurationS:     f.SuperLooperDuration,
		DurationFixed: f.SuperLooperDurationSet,
	}
}
