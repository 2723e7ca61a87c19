// Package recorder turns an inbound MIDI stream into PendingTone
// observations and, while the transport is recording, appended Track
// events. It is deliberately stateless with respect to transport mode:
// it reads the current TransportState from the Transport Controller on
// every message rather than tracking its own copy, so the Controller
// remains the single source of truth. It ranges over the decoded
// stream that midi.Port's ListenTo callback fills, applying
// capture-with-remap to each message.
package recorder

import (
	"go.uber.org/zap"

	"github.com/tenloop/tenloop/clock"
	"github.com/tenloop/tenloop/midi"
	"github.com/tenloop/tenloop/track"
	"github.com/tenloop/tenloop/transport"
)

// Recorder consumes a midi.Port's Receive channel and mutates the
// TrackStore and the Controller's PendingTone accordingly.
type Recorder struct {
	log   *zap.Logger
	clock *clock.Clock
	store *track.Store
	ctrl  *transport.Controller
}

// New returns a Recorder wired to the given Clock, TrackStore, and
// Transport Controller.
func New(log *zap.Logger, c *clock.Clock, store *track.Store, ctrl *transport.Controller) *Recorder {
	return &Recorder{log: log, clock: c, store: store, ctrl: ctrl}
}

// Run blocks consuming in until it is closed, processing each message
// per spec: observation always, capture only while RECORDING.
func (r *Recorder) Run(in <-chan midi.Message) {
	for m := range in {
		r.observe(m)
		r.capture(m)
	}
}

func (r *Recorder) observe(m midi.Message) {
	switch m.Kind {
	case midi.KindProgramChange:
		r.ctrl.SetPendingProgram(m.Program)
	case midi.KindControlChange:
		switch m.Control {
		case 0:
			r.ctrl.SetPendingBankMSB(m.Value)
		case 32:
			r.ctrl.SetPendingBankLSB(m.Value)
		}
	}
}

func (r *Recorder) capture(m midi.Message) {
	state, idx := r.ctrl.Snapshot()
	if state != transport.Recording {
		return
	}

	t := r.clock.SongTime()
	if t < 0 {
		r.log.Warn("dropped pre-origin event during recording", zap.Float64("song_time", t))
		return
	}

	current := r.store.Get(idx)
	remapped := m.WithChannel(current.Channel)
	r.store.Append(idx, t, remapped)

	switch remapped.Kind {
	case midi.KindProgramChange:
		r.store.SetTone(idx, remapped.Program, current.BankMSB, current.BankLSB)
	case midi.KindControlChange:
		switch remapped.Control {
		case 0:
			r.store.SetTone(idx, current.Program, remapped.Value, current.BankLSB)
		case 32:
			r.store.SetTone(idx, current.Program, current.BankMSB, remapped.Value)
		}
	}
}
