// Package engine assembles the owned state bundle spec.md §9
// describes — Clock, TrackStore, SuperLooperConfig, TransportState,
// PendingTone, all reachable through one Controller — and wires the
// four long-lived goroutines of spec.md §5: input poll, MIDI recorder,
// sequencer (spawned/stopped by the Transport Controller's hooks), and
// LED indicator blink.
package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/tenloop/tenloop/clock"
	"github.com/tenloop/tenloop/control"
	"github.com/tenloop/tenloop/indicator"
	"github.com/tenloop/tenloop/midi"
	"github.com/tenloop/tenloop/recorder"
	"github.com/tenloop/tenloop/sequencer"
	"github.com/tenloop/tenloop/session"
	"github.com/tenloop/tenloop/track"
	"github.com/tenloop/tenloop/transport"
)

const blinkInterval = 250 * time.Millisecond // ~2Hz on/off -> ~4 toggles/sec half-period; see blinkLoop's ticker usage

// Engine owns every long-lived collaborator and goroutine.
type Engine struct {
	log *zap.Logger

	Clock      *clock.Clock
	Store      *track.Store
	Controller *transport.Controller
	Port       midi.PortLike
	Recorder   *recorder.Recorder
	Sequencer  *sequencer.Sequencer
	Sessions   *session.Store

	surface control.Surface
	leds    indicator.Indicators

	stop chan struct{}
	done chan struct{}
}

// New assembles an Engine from its collaborators. Port must already be
// open; surface and leds select the real-hardware or simulated
// adapters.
func New(log *zap.Logger, port midi.PortLike, sessions *session.Store, surface control.Surface, leds indicator.Indicators) *Engine {
	c := clock.New()
	store := track.NewStore()
	ctrl := transport.New(log, c, store, port)
	rec := recorder.New(log, c, store, ctrl)
	seq := sequencer.New(log, c, store, port, ctrl)

	e := &Engine{
		log:        log,
		Clock:      c,
		Store:      store,
		Controller: ctrl,
		Port:       port,
		Recorder:   rec,
		Sequencer:  seq,
		Sessions:   sessions,
		surface:    surface,
		leds:       leds,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	ctrl.SetHooks(e.onEnterNonIdle, e.onEnterIdle, e.onPersist)
	return e
}

func (e *Engine) onEnterNonIdle(excludeIdx int, recording bool) {
	go e.Sequencer.Run(excludeIdx)
}

func (e *Engine) onEnterIdle() {
	// The Sequencer's own Run loop observes the Idle transition on its
	// next tick and exits; nothing further to do here.
}

func (e *Engine) onPersist() {
	looper := e.Controller.SuperLooper()
	if err := e.Sessions.Save(e.Store, looper); err != nil {
		e.log.Warn("failed to persist session", zap.Error(err))
	}
}

// LoadSession restores whichever session file matches superLooper
// and applies it to the Controller's SuperLooperConfig.
func (e *Engine) LoadSession(superLooper bool) {
	looper := e.Sessions.Load(e.Store, superLooper)
	e.Controller.EnableSuperLooper(looper.Enabled)
	// Controller.EnableSuperLooper(false) clears duration bookkeeping,
	// so restore the loaded fixed duration only when still enabled.
	if looper.Enabled && looper.DurationFixed {
		e.Controller.RestoreSuperLooperDuration(looper.DurationS)
	}
}

// Run starts the input poll, MIDI recorder, and LED indicator
// goroutines and blocks until Shutdown is called.
func (e *Engine) Run() {
	go e.Recorder.Run(e.Port.Receive())
	go e.inputLoop()
	go e.blinkLoop()
	<-e.done
}

func (e *Engine) inputLoop() {
	for {
		select {
		case <-e.stop:
			return
		case edge, ok := <-e.surface.Edges():
			if !ok {
				return
			}
			switch edge {
			case control.Mode:
				e.Controller.HandleMode()
			case control.Action:
				e.Controller.HandleAction()
			case control.LeftPause:
				e.Controller.HandleLeft()
			case control.RightClear:
				e.Controller.HandleRight()
			case control.Touch:
				e.Controller.HandleTouch()
			}
		}
	}
}

func (e *Engine) blinkLoop() {
	ticker := time.NewTicker(blinkInterval)
	defer ticker.Stop()

	phase := false
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			phase = !phase
			e.renderIndicators(phase)
		}
	}
}

func (e *Engine) renderIndicators(phase bool) {
	state, idx := e.Controller.Snapshot()
	var content [10]bool
	for i := 0; i < track.NumTracks; i++ {
		content[i] = e.Store.HasContent(i)
	}
	indicator.Render(e.leds, indicator.State{
		Mode:            e.Controller.Mode(),
		TransportState:  state,
		SelectedTrack:   idx,
		TrackHasContent: content,
		BlinkPhase:      phase,
	})
}

// Shutdown executes the guaranteed exit-path sequence of spec.md §7:
// panic MIDI, stop goroutines, close the port.
func (e *Engine) Shutdown() {
	e.Port.Panic()
	close(e.stop)
	e.Port.Close()
	close(e.done)
}
