package control

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"go.uber.org/zap"
)

// PinConfig names the five GPIO lines the control surface polls.
// Button pins are active-low (pulled up, pressed = Low); Touch is
// active-high (pulled down, touched = High), matching
// original_source/Looper.py's setup_gpio wiring.
type PinConfig struct {
	ModePin       string
	ActionPin     string
	LeftPausePin  string
	RightClearPin string
	TouchPin      string
}

// GPIOSurface polls five periph.io pins at ~20Hz and emits an Edge each
// time a button's active level is newly observed, debounced by
// comparison to the prior sample. Grounded on
// original_source/Looper.py's handle_buttons polling loop, replacing
// RPi.GPIO with periph's typed gpio.PinIO.
type GPIOSurface struct {
	log *zap.Logger

	pins [5]gpio.PinIn
	kind [5]Edge
	// activeLevel[i] is the level that counts as "pressed" for pins[i].
	activeLevel [5]gpio.Level
	prev        [5]gpio.Level

	edges chan Edge
	stop  chan struct{}
	done  chan struct{}
}

// NewGPIOSurface initializes periph's host drivers and opens the five
// configured pins.
func NewGPIOSurface(log *zap.Logger, cfg PinConfig) (*GPIOSurface, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initialize periph host: %w", err)
	}

	s := &GPIOSurface{
		log:   log,
		kind:  [5]Edge{Mode, Action, LeftPause, RightClear, Touch},
		edges: make(chan Edge, 16),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	names := [5]string{cfg.ModePin, cfg.ActionPin, cfg.LeftPausePin, cfg.RightClearPin, cfg.TouchPin}
	// The first four are pull-up active-low buttons; TOUCH is
	// pull-down active-high, per spec.md §6.
	pulls := [5]gpio.Pull{gpio.PullUp, gpio.PullUp, gpio.PullUp, gpio.PullUp, gpio.PullDown}
	active := [5]gpio.Level{gpio.Low, gpio.Low, gpio.Low, gpio.Low, gpio.High}

	for i, name := range names {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("GPIO pin %q not found", name)
		}
		if err := pin.In(pulls[i], gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure GPIO pin %q as input: %w", name, err)
		}
		s.pins[i] = pin
		s.activeLevel[i] = active[i]
		s.prev[i] = pin.Read()
	}

	go s.poll()
	return s, nil
}

const pollInterval = 50 * time.Millisecond

func (s *GPIOSurface) poll() {
	defer close(s.done)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			for i, pin := range s.pins {
				level := pin.Read()
				if level == s.activeLevel[i] && s.prev[i] != s.activeLevel[i] {
					select {
					case s.edges <- s.kind[i]:
					default:
						s.log.Warn("dropped control edge, channel full", zap.Stringer("edge", s.kind[i]))
					}
				}
				s.prev[i] = level
			}
		}
	}
}

// Edges returns the channel of debounced edges.
func (s *GPIOSurface) Edges() <-chan Edge {
	return s.edges
}

// Close stops the polling goroutine and releases no hardware resources
// beyond that (periph pins are not individually closeable).
func (s *GPIOSurface) Close() error {
	close(s.stop)
	<-s.done
	close(s.edges)
	return nil
}
