// Package track holds the ten-track loop store: ordered Events per
// track, each track's duration and last-known tone, and the snapshot
// operation the Sequencer reads against. Modeled on the teacher's
// sequence.Pattern (single sync.RWMutex guarding a struct of slices),
// generalized from a fixed 16-step grid to free-running timestamped
// events.
package track

import (
	"sync"

	"github.com/tenloop/tenloop/midi"
)

// NumTracks is the fixed number of tracks, one per MIDI channel 0-9.
const NumTracks = 10

// Event is an immutable MIDI message plus its offset in seconds from
// the track's loop origin.
type Event struct {
	Offset  float64
	Message midi.Message
}

// Track is one loop: its recorded events, loop duration, last-known
// tone selection, and fixed channel assignment.
type Track struct {
	Events     []Event
	DurationS  float64
	Program    uint8
	BankMSB    uint8
	BankLSB    uint8
	Channel    uint8
}

func empty(channel uint8) Track {
	return Track{Channel: channel}
}

// PlaybackTrack is a read-only view handed to the Sequencer by
// SnapshotForPlayback. It carries its own copy of Events so the
// Sequencer never races with concurrent Append calls.
type PlaybackTrack struct {
	Index     int
	Events    []Event
	DurationS float64
	Channel   uint8
}

// Store owns all ten tracks behind a single RWMutex, the same
// concurrency shape as the teacher's sequence.Pattern.
type Store struct {
	mu     sync.RWMutex
	tracks [NumTracks]Track
}

// NewStore returns a Store with ten empty tracks, channel assigned by
// index.
func NewStore() *Store {
	s := &Store{}
	for i := range s.tracks {
		s.tracks[i] = empty(uint8(i))
	}
	return s
}

// SnapshotForPlayback returns a read-only copy of every eligible track.
// If excludeIdx is non-negative, that track is omitted — used to keep
// the currently-recording track out of playback.
func (s *Store) SnapshotForPlayback(excludeIdx int) []PlaybackTrack {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PlaybackTrack, 0, NumTracks)
	for i, t := range s.tracks {
		if i == excludeIdx {
			continue
		}
		events := make([]Event, len(t.Events))
		copy(events, t.Events)
		out = append(out, PlaybackTrack{
			Index:     i,
			Events:    events,
			DurationS: t.DurationS,
			Channel:   t.Channel,
		})
	}
	return out
}

// Append adds an event to track idx. The caller must have already
// rewritten the message's channel to match the track.
func (s *Store) Append(idx int, offset float64, m midi.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks[idx].Events = append(s.tracks[idx].Events, Event{Offset: offset, Message: m})
}

// SetDuration sets track idx's loop duration.
func (s *Store) SetDuration(idx int, seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks[idx].DurationS = seconds
}

// Clear empties a single track back to its zero state, preserving its
// channel assignment.
func (s *Store) Clear(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := s.tracks[idx].Channel
	s.tracks[idx] = empty(ch)
}

// ClearAll empties every track.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tracks {
		s.tracks[i] = empty(uint8(i))
	}
}

// SetTone records the last-known program/bank selectors for idx.
func (s *Store) SetTone(idx int, program, bankMSB, bankLSB uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks[idx].Program = program
	s.tracks[idx].BankMSB = bankMSB
	s.tracks[idx].BankLSB = bankLSB
}

// Get returns a copy of track idx, for inspection (session save, UI
// state, tests) outside the playback hot path.
func (s *Store) Get(idx int) Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.tracks[idx]
	events := make([]Event, len(t.Events))
	copy(events, t.Events)
	t.Events = events
	return t
}

// Replace bulk-replaces track idx's events and duration, used by
// session/MIDI-file import. The caller is responsible for ensuring
// events are sorted by offset and duration >= the last event's offset.
func (s *Store) Replace(idx int, events []Event, duration float64, program, bankMSB, bankLSB uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks[idx].Events = events
	s.tracks[idx].DurationS = duration
	s.tracks[idx].Program = program
	s.tracks[idx].BankMSB = bankMSB
	s.tracks[idx].BankLSB = bankLSB
}

// HasContent reports whether track idx has recorded events, used by
// the Indicators computation.
func (s *Store) HasContent(idx int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks[idx].Events) > 0
}
