// Package sequencer drives playback of every eligible track against
// song time while the transport is non-idle. A time.Ticker-driven loop
// checks the Controller's state before each tick and stops when it
// returns to Idle; it plays ten independently-looping tracks with
// per-track play cursors.
package sequencer

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/tenloop/tenloop/clock"
	"github.com/tenloop/tenloop/midi"
	"github.com/tenloop/tenloop/track"
	"github.com/tenloop/tenloop/transport"
)

const (
	tickInterval      = time.Millisecond
	pausedTickInterval = 50 * time.Millisecond
	ceremonySpacing    = 10 * time.Millisecond
)

// cursor is the Sequencer's thread-local play position for one track;
// it is never shared outside the goroutine that owns it.
type cursor struct {
	nextEventIndex   int
	lastWrapPosition float64
}

// Sequencer owns no shared mutable state of its own: it reads the
// TrackStore snapshot once at start and the Clock/Controller on every
// tick.
type Sequencer struct {
	log   *zap.Logger
	clock *clock.Clock
	store *track.Store
	port  midi.Sender
	ctrl  *transport.Controller
}

// New returns a Sequencer wired to the given collaborators.
func New(log *zap.Logger, c *clock.Clock, store *track.Store, port midi.Sender, ctrl *transport.Controller) *Sequencer {
	return &Sequencer{log: log, clock: c, store: store, port: port, ctrl: ctrl}
}

// Run executes one playback session: the start ceremony, then the main
// loop until the Controller's state returns to Idle, then a terminal
// panic. excludeIdx omits the currently-recording track from playback
// (-1 means no exclusion). Run is intended to be launched in its own
// goroutine by the Transport Controller's onEnterNonIdle hook.
func (s *Sequencer) Run(excludeIdx int) {
	snapshot := s.store.SnapshotForPlayback(excludeIdx)
	s.runStartCeremony(snapshot)

	cursors := make(map[int]*cursor, len(snapshot))
	for _, t := range snapshot {
		cursors[t.Index] = &cursor{}
	}

	paused := false
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for range ticker.C {
		state, _ := s.ctrl.Snapshot()
		if state == transport.Idle {
			break
		}

		if isPaused(state) {
			if !paused {
				s.port.Panic()
				paused = true
			}
			time.Sleep(pausedTickInterval)
			continue
		}
		paused = false

		songTime := s.clock.SongTime()
		for _, t := range snapshot {
			if t.DurationS <= 0 {
				continue
			}
			s.advance(t, cursors[t.Index], songTime)
		}
	}

	s.port.Panic()
}

func isPaused(state transport.State) bool {
	return state == transport.PausedPlaying || state == transport.PausedRecording
}

func (s *Sequencer) advance(t track.PlaybackTrack, c *cursor, songTime float64) {
	pos := math.Mod(songTime, t.DurationS)
	if pos < c.lastWrapPosition {
		c.nextEventIndex = 0
	}
	c.lastWrapPosition = pos

	for c.nextEventIndex < len(t.Events) && t.Events[c.nextEventIndex].Offset <= pos {
		if err := s.port.Send(t.Events[c.nextEventIndex].Message); err != nil {
			s.log.Warn("midi send failed during playback",
				zap.Int("track", t.Index), zap.Error(err))
		}
		c.nextEventIndex++
	}
}

// runStartCeremony sends sustain-off and, where a tone was selected,
// the bank/program ceremony for every non-empty track, spaced ~10ms
// apart per spec.md §4.3.
func (s *Sequencer) runStartCeremony(snapshot []track.PlaybackTrack) {
	for _, t := range snapshot {
		if len(t.Events) == 0 {
			continue
		}
		full := s.store.Get(t.Index)

		s.sendCeremony(midi.ControlChange(full.Channel, 64, 0))

		if full.Program != 0 || full.BankMSB != 0 || full.BankLSB != 0 {
			s.sendCeremony(midi.ControlChange(full.Channel, 0, full.BankMSB))
			s.sendCeremony(midi.ControlChange(full.Channel, 32, full.BankLSB))
			s.sendCeremony(midi.ProgramChange(full.Channel, full.Program))
		}
	}
}

func (s *Sequencer) sendCeremony(m midi.Message) {
	if err := s.port.Send(m); err != nil {
		s.log.Warn("midi send failed during start ceremony", zap.Error(err))
	}
	time.Sleep(ceremonySpacing)
}
