package session

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/tenloop/tenloop/midi"
	"github.com/tenloop/tenloop/track"
	"github.com/tenloop/tenloop/transport"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := New(zap.NewNop(), dir)

	tracks := track.NewStore()
	tracks.Append(0, 0.5, midi.NoteOn(0, 60, 100))
	tracks.Append(0, 1.5, midi.NoteOff(0, 60))
	tracks.SetDuration(0, 2.0)
	tracks.SetTone(0, 5, 1, 2)

	looper := transport.SuperLooperConfig{Enabled: false}
	if err := store.Save(tracks, looper); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := track.NewStore()
	gotLooper := store.Load(loaded, false)
	if gotLooper.Enabled {
		t.Fatalf("loaded looper config unexpectedly enabled: %+v", gotLooper)
	}

	tr := loaded.Get(0)
	if len(tr.Events) != 2 {
		t.Fatalf("len(Events) = %d, want 2", len(tr.Events))
	}
	if tr.Events[0].Offset != 0.5 || tr.Events[0].Message.Kind != midi.KindNoteOn {
		t.Fatalf("event 0 mismatch: %+v", tr.Events[0])
	}
	if tr.DurationS != 2.0 {
		t.Fatalf("DurationS = %v, want 2.0", tr.DurationS)
	}
	if tr.Program != 5 || tr.BankMSB != 1 || tr.BankLSB != 2 {
		t.Fatalf("tone mismatch: %+v", tr)
	}
}

func TestSaveSelectsFileBySuperLooperMode(t *testing.T) {
	dir := t.TempDir()
	store := New(zap.NewNop(), dir)
	tracks := track.NewStore()

	if err := store.Save(tracks, transport.SuperLooperConfig{Enabled: true}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(store.path(true)); err != nil {
		t.Fatalf("expected Super Looper session file: %v", err)
	}
	if _, err := os.Stat(store.path(false)); !os.IsNotExist(err) {
		t.Fatalf("normal session file should not be written in Super Looper mode, stat err = %v", err)
	}
}

func TestLoadMissingFileDegradesToEmptySession(t *testing.T) {
	dir := t.TempDir()
	store := New(zap.NewNop(), dir)
	tracks := track.NewStore()
	tracks.Append(0, 0, midi.NoteOn(0, 60, 100))

	looper := store.Load(tracks, false)
	if looper.Enabled || looper.DurationFixed {
		t.Fatalf("expected zero-value looper config, got %+v", looper)
	}
	if tracks.HasContent(0) {
		t.Fatal("Load of a missing file should clear existing tracks")
	}
}

func TestLoadCorruptFileDegradesToEmptySession(t *testing.T) {
	dir := t.TempDir()
	store := New(zap.NewNop(), dir)

	if err := os.WriteFile(filepath.Join(dir, NormalFileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	tracks := track.NewStore()
	tracks.Append(3, 0, midi.NoteOn(3, 60, 100))
	store.Load(tracks, false)

	if tracks.HasContent(3) {
		t.Fatal("corrupt session file should degrade to an empty session")
	}
}

func TestUnknownEventTypeIsSkipped(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`{
		"tracks": [[{"time":0,"type":"sysex","channel":0}]],
		"durations": [0],
		"programs": [0],
		"channels": [0],
		"bank_msb": [0],
		"bank_lsb": [0],
		"super_looper_enabled": false,
		"super_looper_duration": 0,
		"super_looper_duration_set": false
	}`)
	if err := os.WriteFile(filepath.Join(dir, NormalFileName), data, 0644); err != nil {
		t.Fatal(err)
	}

	store := New(zap.NewNop(), dir)
	tracks := track.NewStore()
	store.Load(tracks, false)

	if tracks.HasContent(0) {
		t.Fatal("unknown event type should be skipped, leaving track empty")
	}
}
