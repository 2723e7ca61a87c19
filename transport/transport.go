// Package transport implements the Transport Controller state machine:
// the five debounced control edges (MODE, ACTION, LEFT/PAUSE,
// RIGHT/CLEAR, TOUCH) and the TransportState they drive. TransportState
// is the second-sequencer-thread guard per spec.md's design notes: a
// CAS-style transition from Idle to a non-idle state is the only way a
// playback session can start, and only on success is the Sequencer
// spawned.
package transport

import (
	"sync"

	"go.uber.org/zap"

	"github.com/tenloop/tenloop/clock"
	"github.com/tenloop/tenloop/midi"
	"github.com/tenloop/tenloop/track"
)

// State is the transport's tagged state.
type State int

const (
	Idle State = iota
	Playing
	Recording
	PausedPlaying
	PausedRecording
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Playing:
		return "PLAYING"
	case Recording:
		return "RECORDING"
	case PausedPlaying:
		return "PAUSED_PLAYING"
	case PausedRecording:
		return "PAUSED_RECORDING"
	default:
		return "UNKNOWN"
	}
}

// Mode is the IDLE-only display mode that picks which non-idle state
// ACTION enters next.
type Mode int

const (
	ModeRec Mode = iota
	ModePlay
)

// PendingTone is the most recent program/bank selection observed on
// the input while the transport was idle. The Recorder writes to it via
// SetPendingProgram/SetPendingBankMSB/SetPendingBankLSB; the Controller
// consumes it into prefix events on RECORDING entry.
type PendingTone struct {
	Program    uint8
	BankMSB    uint8
	BankLSB    uint8
	HasProgram bool
	HasBankMSB bool
	HasBankLSB bool
}

// SuperLooperConfig forces every track to share one loop period once
// the first recording under it has closed.
type SuperLooperConfig struct {
	Enabled       bool
	DurationS     float64
	DurationFixed bool
}

// Controller owns TransportState, the current track selection, mode,
// PendingTone, and SuperLooperConfig, and serializes all transitions
// behind one mutex as spec.md's concurrency caveat requires.
type Controller struct {
	mu sync.Mutex

	state   State
	mode    Mode
	current int
	pending PendingTone
	looper  SuperLooperConfig

	recordStart float64 // song time at which the current recording began

	clock *clock.Clock
	store *track.Store
	port  midi.Sender
	log   *zap.Logger

	onEnterNonIdle func(excludeIdx int, recording bool)
	onEnterIdle    func()
	onPersist      func()
}

// New returns a Controller in state IDLE, mode REC, track 0 selected.
func New(log *zap.Logger, c *clock.Clock, store *track.Store, port midi.Sender) *Controller {
	return &Controller{log: log, clock: c, store: store, port: port}
}

// SetHooks wires the Sequencer start/stop callbacks and the session
// persistence callback. Called once during engine assembly; kept
// separate from New to avoid an import cycle between transport and the
// packages that implement sequencing and persistence.
func (c *Controller) SetHooks(onEnterNonIdle func(excludeIdx int, recording bool), onEnterIdle func(), onPersist func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEnterNonIdle = onEnterNonIdle
	c.onEnterIdle = onEnterIdle
	c.onPersist = onPersist
}

// EnableSuperLooper turns Super Looper on or off. Disabling clears the
// fixed duration so a later re-enable starts fresh.
func (c *Controller) EnableSuperLooper(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.looper.Enabled = enabled
	if !enabled {
		c.looper.DurationFixed = false
		c.looper.DurationS = 0
	}
}

// RestoreSuperLooperDuration sets a previously-fixed Super Looper
// duration without going through a live recording. Used when loading a
// persisted session whose Super Looper duration was already fixed.
func (c *Controller) RestoreSuperLooperDuration(durationS float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.looper.DurationS = durationS
	c.looper.DurationFixed = true
}

// SuperLooper returns a copy of the current Super Looper configuration.
func (c *Controller) SuperLooper() SuperLooperConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.looper
}

// Snapshot returns the current state and selected track index.
func (c *Controller) Snapshot() (State, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.current
}

// SetPendingProgram records a program_change observed on the input.
// Per spec.md §4.4 this observation happens regardless of transport
// state.
func (c *Controller) SetPendingProgram(program uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.Program = program
	c.pending.HasProgram = true
}

// SetPendingBankMSB records a CC0 bank-select-MSB observed on the input.
func (c *Controller) SetPendingBankMSB(value uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.BankMSB = value
	c.pending.HasBankMSB = true
}

// SetPendingBankLSB records a CC32 bank-select-LSB observed on the input.
func (c *Controller) SetPendingBankLSB(value uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.BankLSB = value
	c.pending.HasBankLSB = true
}

// HandleMode handles the MODE edge: toggles REC/PLAY while idle, a
// no-op otherwise.
func (c *Controller) HandleMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		return
	}
	if c.mode == ModeRec {
		c.mode = ModePlay
	} else {
		c.mode = ModeRec
	}
}

// HandleLeft handles the LEFT/PAUSE edge: selects the previous track
// while idle, toggles pause while running.
func (c *Controller) HandleLeft() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Idle:
		c.current = (c.current + track.NumTracks - 1) % track.NumTracks
	case Playing:
		c.state = PausedPlaying
		c.clock.Pause()
		c.port.Panic()
	case Recording:
		c.state = PausedRecording
		c.clock.Pause()
		c.port.Panic()
	case PausedPlaying:
		c.state = Playing
		c.clock.Resume()
	case PausedRecording:
		c.state = Recording
		c.clock.Resume()
	}
}

// HandleRight handles the RIGHT/CLEAR edge: selects the next track
// while idle, clears the current track while playing, and is a no-op
// while recording.
func (c *Controller) HandleRight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Idle:
		c.current = (c.current + 1) % track.NumTracks
	case Playing:
		idx := c.current
		c.store.Clear(idx)
		c.port.Panic()
		c.persistLocked()
	case Recording:
		// no effect
	}
}

// HandleAction handles the ACTION edge: in IDLE it starts a session
// according to the current mode; while running it closes the session.
func (c *Controller) HandleAction() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Idle:
		if c.mode == ModeRec {
			c.enterRecordingLocked()
		} else {
			c.enterPlayingLocked()
		}
	case Playing, Recording, PausedPlaying, PausedRecording:
		c.closeLocked()
	}
}

func (c *Controller) enterRecordingLocked() {
	idx := c.current
	c.store.Clear(idx)
	c.injectPendingToneLocked(idx)
	c.clock.Reset()
	c.recordStart = c.clock.SongTime()
	c.state = Recording
	if c.onEnterNonIdle != nil {
		c.onEnterNonIdle(idx, true)
	}
}

func (c *Controller) enterPlayingLocked() {
	c.clock.Reset()
	c.state = Playing
	if c.onEnterNonIdle != nil {
		c.onEnterNonIdle(-1, false)
	}
}

// injectPendingToneLocked synthesizes the bank-select and program-change
// prefix events per spec.md §4.4's recording entry ceremony: bank
// selects before the program change, both at offset 0, on the track's
// own channel.
func (c *Controller) injectPendingToneLocked(idx int) {
	if !c.pending.HasProgram && !c.pending.HasBankMSB && !c.pending.HasBankLSB {
		return
	}
	ch := c.store.Get(idx).Channel
	if c.pending.HasBankMSB {
		c.store.Append(idx, 0, midi.ControlChange(ch, 0, c.pending.BankMSB))
	}
	if c.pending.HasBankLSB {
		c.store.Append(idx, 0, midi.ControlChange(ch, 32, c.pending.BankLSB))
	}
	if c.pending.HasProgram {
		c.store.Append(idx, 0, midi.ProgramChange(ch, c.pending.Program))
	}
	c.store.SetTone(idx, c.pending.Program, c.pending.BankMSB, c.pending.BankLSB)
}

// closeLocked implements the RECORDING/PLAYING → IDLE transition
// (including from either paused state): finalize duration if recording,
// panic, persist, return to idle.
func (c *Controller) closeLocked() {
	wasRecording := c.state == Recording || c.state == PausedRecording
	if c.state == PausedPlaying || c.state == PausedRecording {
		c.clock.Resume()
	}
	if wasRecording {
		c.finalizeDurationLocked()
	}
	c.port.Panic()
	c.persistLocked()
	c.state = Idle
	if c.onEnterIdle != nil {
		c.onEnterIdle()
	}
}

// finalizeDurationLocked implements spec.md §4.6a.
func (c *Controller) finalizeDurationLocked() {
	idx := c.current
	recorded := c.clock.SongTime() - c.recordStart

	switch {
	case !c.looper.Enabled:
		c.store.SetDuration(idx, recorded)
	case c.looper.Enabled && c.looper.DurationFixed:
		c.store.SetDuration(idx, c.looper.DurationS)
	case c.looper.Enabled && !c.looper.DurationFixed && recorded > 0:
		c.looper.DurationS = recorded
		c.looper.DurationFixed = true
		c.store.SetDuration(idx, recorded)
	}
}

func (c *Controller) persistLocked() {
	if c.onPersist != nil {
		c.onPersist()
	}
}

// HandleTouch handles the TOUCH edge: from any state, force idle, panic,
// clear every track, and if Super Looper is active reset its duration
// so the next recording re-establishes it.
func (c *Controller) HandleTouch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == PausedPlaying || c.state == PausedRecording {
		c.clock.Resume()
	}
	c.port.Panic()
	c.store.ClearAll()
	if c.looper.Enabled {
		c.looper.DurationFixed = false
		c.looper.DurationS = 0
	}
	c.state = Idle
	if c.onEnterIdle != nil {
		c.onEnterIdle()
	}
	c.persistLocked()
}

// CurrentIndex returns the currently selected track.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Mode returns the current IDLE-only display mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}
