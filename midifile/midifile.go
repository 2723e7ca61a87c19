// Package midifile implements Standard MIDI File export and import per
// spec.md §6: 480 ticks per beat, 120 BPM, a set_tempo meta message
// written first, merged-or-per-track export, and delta-accumulating
// import that respects in-stream tempo changes. Grounded on
// leafo/songtool's gm_export.go (smf.NewSMF1, track.Add,
// smf.MetaTempo, smf.MetaTrackSequenceName) and icco/genidi's
// sequencer (smf.ReadFile, rd.TempoChanges(), msg.GetNoteOn). This
// supersedes original_source/Looper.py's export_midi_merged/
// export_midi_separate/import_midi_to_track, which wrote headerless,
// single-tempo files; this package produces proper SMF headers and
// tempo meta events instead.
package midifile

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/tenloop/tenloop/midi"
	"github.com/tenloop/tenloop/track"
)

// TicksPerBeat and MicrosecondsPerBeat fix the file's timing: 480
// ticks/beat at 120 BPM (500000 µs/beat), per spec.md §6.
const (
	TicksPerBeat        = 480
	MicrosecondsPerBeat = 500000
	beatsPerSecond      = 1000000.0 / MicrosecondsPerBeat
)

func ticksPerSecond() float64 {
	return TicksPerBeat * beatsPerSecond
}

func secondsToTicks(seconds float64) uint32 {
	if seconds < 0 {
		seconds = 0
	}
	return uint32(seconds*ticksPerSecond() + 0.5)
}

func ticksToSeconds(ticks uint32) float64 {
	return float64(ticks) / ticksPerSecond()
}

func timeFormat() smf.MetricTicks {
	return smf.MetricTicks(TicksPerBeat)
}

// namedTrack pairs a track's events with its source index, used while
// building absolute-time orderings for export.
type namedTrack struct {
	index  int
	events []track.Event
}

// ExportMerged writes every non-empty track into one MIDI track, events
// sorted by absolute time, note-offs preceding note-ons that share a
// timestamp (so a new note-on never appears to cut off the same key's
// note-off).
func ExportMerged(path string, store *track.Store) error {
	sm := smf.New()
	sm.TimeFormat = timeFormat()

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(float64(60_000_000)/MicrosecondsPerBeat))
	tr.Add(0, smf.MetaTrackSequenceName("tenloop"))

	type absEvent struct {
		tick uint32
		msg  midi.Message
	}
	var all []absEvent
	for i := 0; i < track.NumTracks; i++ {
		t := store.Get(i)
		for _, e := range t.Events {
			all = append(all, absEvent{tick: secondsToTicks(e.Offset), msg: e.Message})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].tick != all[j].tick {
			return all[i].tick < all[j].tick
		}
		return all[i].msg.Kind == midi.KindNoteOff && all[j].msg.Kind != midi.KindNoteOff
	})

	var lastTick uint32
	for _, e := range all {
		delta := e.tick - lastTick
		tr.Add(delta, gomidi.Message(e.msg.Raw))
		lastTick = e.tick
	}
	tr.Close(0)

	if err := sm.Add(tr); err != nil {
		return fmt.Errorf("add merged track: %w", err)
	}
	if err := sm.WriteFile(path); err != nil {
		return fmt.Errorf("write merged MIDI file: %w", err)
	}
	return nil
}

// ExportSeparate writes one file per non-empty track into dir, named
// "<sanitized name>-track-<i>.mid". name is operator-supplied (e.g.
// typed at the command surface) and is sanitized before touching the
// filesystem.
func ExportSeparate(dir, name string, store *track.Store) error {
	base := sanitizeFilename(name)

	for i := 0; i < track.NumTracks; i++ {
		t := store.Get(i)
		if len(t.Events) == 0 {
			continue
		}

		sm := smf.New()
		sm.TimeFormat = timeFormat()

		var tr smf.Track
		tr.Add(0, smf.MetaTempo(float64(60_000_000)/MicrosecondsPerBeat))
		tr.Add(0, smf.MetaTrackSequenceName(fmt.Sprintf("track-%d", i)))

		var lastTick uint32
		for _, e := range t.Events {
			tick := secondsToTicks(e.Offset)
			tr.Add(tick-lastTick, gomidi.Message(e.Message.Raw))
			lastTick = tick
		}
		tr.Close(0)

		if err := sm.Add(tr); err != nil {
			return fmt.Errorf("add track %d: %w", i, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%s-track-%d.mid", base, i))
		if err := sm.WriteFile(path); err != nil {
			return fmt.Errorf("write MIDI file for track %d: %w", i, err)
		}
	}
	return nil
}

// sanitizeFilename strips an operator-supplied export name down to
// filesystem-safe characters. Mirrors the teacher's
// sequence.sanitizeFilename.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	var sb strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			sb.WriteRune(r)
		}
	}
	result := sb.String()
	if result == "" {
		return "unnamed"
	}
	return result
}

// Import reads a Standard MIDI File and replaces the destination
// track's events. Absolute times are reconstructed by accumulating
// deltas, respecting in-stream tempo changes; a program_change updates
// the destination track's tone; duration is set to the last event's
// time plus 0.5 seconds per spec.md §6.
func Import(path string, store *track.Store, destIdx int) error {
	rd, err := smf.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read MIDI file: %w", err)
	}

	tempoChanges := rd.TempoChanges()
	channel := store.Get(destIdx).Channel

	var events []track.Event
	var program, bankMSB, bankLSB uint8

	for _, tr := range rd.Tracks {
		var tick uint32
		for _, ev := range tr {
			tick += ev.Delta
			seconds := secondsAtTick(tick, tempoChanges)

			raw := gomidi.Message(ev.Message)
			m := midi.FromGoMidi(raw)
			if m.Kind == midi.KindOther {
				continue // meta/sysex events carry no playable payload
			}
			remapped := m.WithChannel(channel)
			events = append(events, track.Event{Offset: seconds, Message: remapped})

			switch remapped.Kind {
			case midi.KindProgramChange:
				program = remapped.Program
			case midi.KindControlChange:
				switch remapped.Control {
				case 0:
					bankMSB = remapped.Value
				case 32:
					bankLSB = remapped.Value
				}
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Offset < events[j].Offset })

	duration := 0.0
	if len(events) > 0 {
		duration = events[len(events)-1].Offset + 0.5
	}

	store.Replace(destIdx, events, duration, program, bankMSB, bankLSB)
	return nil
}

// secondsAtTick converts an absolute tick count into seconds, applying
// whichever tempo was in effect at that tick. smf.TempoChanges returns
// changes in ascending tick order; tempoChanges[0]'s BPM also applies
// before the first change. With no tempo changes at all, the fixed
// 120 BPM conversion is used.
func secondsAtTick(tick uint32, tempoChanges []smf.TempoChange) float64 {
	if len(tempoChanges) == 0 {
		return ticksToSeconds(tick)
	}

	var seconds float64
	var lastTick uint32
	bpm := tempoChanges[0].BPM

	for _, tc := range tempoChanges {
		if tc.AbsTicks >= uint64(tick) {
			break
		}
		deltaTicks := uint32(tc.AbsTicks) - lastTick
		seconds += float64(deltaTicks) / (TicksPerBeat * bpm / 60.0)
		lastTick = uint32(tc.AbsTicks)
		bpm = tc.BPM
	}

	deltaTicks := tick - lastTick
	seconds += float64(deltaTicks) / (TicksPerBeat * bpm / 60.0)
	return seconds
}
