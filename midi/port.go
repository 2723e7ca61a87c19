package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // auto-register RtMIDI driver
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ListOutPorts returns the available MIDI output port names.
func ListOutPorts() []string {
	ports := gomidi.GetOutPorts()
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names
}

// ListInPorts returns the available MIDI input port names.
func ListInPorts() []string {
	ports := gomidi.GetInPorts()
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names
}

// Sender is the subset of Port's behavior the Sequencer and Transport
// Controller depend on. Defined as an interface so both can be driven
// by a fake in tests without opening a real MIDI port.
type Sender interface {
	Send(m Message) error
	Panic()
}

// PortLike is the full Port contract the engine package depends on,
// defined as an interface so the engine can be exercised in tests
// against a fake instead of a real MIDI port.
type PortLike interface {
	Sender
	Receive() <-chan Message
	Close() error
}

// Port is the bidirectional MIDI port pair the sequencer engine drives:
// one output for dispatch and panic, one input for recording.
type Port struct {
	log *zap.Logger

	out     drivers.Out
	send    func(gomidi.Message) error
	sendMu  sync.Mutex

	in       drivers.In
	stopIn   func()
	received chan Message
}

// Open opens the output port by index and, if inIndex >= 0, the input
// port by index. Grounded on the teacher's midi.Open for the output side;
// the input side follows odaacabeef/midi-cable and madpsy/ka9q_ubersdr's
// use of midi.ListenTo, which the teacher never implemented.
func Open(log *zap.Logger, outIndex, inIndex int) (*Port, error) {
	outPort, err := gomidi.OutPort(outIndex)
	if err != nil {
		return nil, fmt.Errorf("open MIDI out port %d: %w", outIndex, err)
	}
	send, err := gomidi.SendTo(outPort)
	if err != nil {
		return nil, fmt.Errorf("create MIDI sender: %w", err)
	}

	p := &Port{
		log:      log,
		out:      outPort,
		send:     send,
		received: make(chan Message, 256),
	}

	if inIndex >= 0 {
		inPort, err := gomidi.InPort(inIndex)
		if err != nil {
			return nil, fmt.Errorf("open MIDI in port %d: %w", inIndex, err)
		}
		stop, err := gomidi.ListenTo(inPort, p.onRawMessage)
		if err != nil {
			return nil, fmt.Errorf("listen on MIDI in port %d: %w", inIndex, err)
		}
		p.in = inPort
		p.stopIn = stop
	}

	return p, nil
}

func (p *Port) onRawMessage(raw gomidi.Message, _ int32) {
	select {
	case p.received <- FromGoMidi(raw):
	default:
		p.log.Warn("dropped inbound MIDI message, receive buffer full")
	}
}

// Receive returns the channel of decoded inbound messages. The Recorder
// ranges over this channel; it is closed when the port is closed.
func (p *Port) Receive() <-chan Message {
	return p.received
}

// Send transmits a single message. Errors are returned to the caller,
// who is responsible for deciding whether the failure is transient
// (logged, continue) per the error taxonomy.
func (p *Port) Send(m Message) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	return p.send(m.Raw)
}

// Panic silences every channel: for channel 0..15 it sends All Notes Off
// (CC 123), All Sound Off (CC 120), and Note Off for all 128 notes. A
// failure on one channel must not prevent the sweep across the rest, so
// failures are accumulated with multierr and logged, never returned as a
// reason to stop early.
func (p *Port) Panic() {
	var errs error
	for ch := uint8(0); ch < 16; ch++ {
		if err := p.Send(ControlChange(ch, 123, 0)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("channel %d all-notes-off: %w", ch, err))
		}
		if err := p.Send(ControlChange(ch, 120, 0)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("channel %d all-sound-off: %w", ch, err))
		}
		for note := uint8(0); note < 128; note++ {
			if err := p.Send(NoteOff(ch, note)); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("channel %d note %d off: %w", ch, note, err))
			}
		}
	}
	if errs != nil {
		p.log.Error("midi panic encountered send errors", zap.Error(errs))
	}
}

// Close releases the port pair.
func (p *Port) Close() error {
	if p.stopIn != nil {
		p.stopIn()
	}
	var errs error
	if p.in != nil {
		errs = multierr.Append(errs, p.in.Close())
	}
	if p.out != nil {
		errs = multierr.Append(errs, p.out.Close())
	}
	if p.received != nil {
		close(p.received)
	}
	return errs
}
