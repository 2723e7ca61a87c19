package engine

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tenloop/tenloop/control"
	"github.com/tenloop/tenloop/indicator"
	"github.com/tenloop/tenloop/midi"
	"github.com/tenloop/tenloop/session"
)

type fakePort struct {
	received chan midi.Message
	sent     []midi.Message
	panics   int
}

func newFakePort() *fakePort {
	return &fakePort{received: make(chan midi.Message, 16)}
}

func (f *fakePort) Send(m midi.Message) error {
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakePort) Panic()                            { f.panics++ }
func (f *fakePort) Receive() <-chan midi.Message       { return f.received }
func (f *fakePort) Close() error {
	close(f.received)
	return nil
}

func TestEngineActionEdgeEntersRecording(t *testing.T) {
	port := newFakePort()
	sessions := session.New(zap.NewNop(), t.TempDir())
	surface := control.NewSimSurface(zap.NewNop(), strings.NewReader("action\n"))
	leds := indicator.NewSimIndicators(zap.NewNop())

	e := New(zap.NewNop(), port, sessions, surface, leds)
	go e.Run()
	defer e.Shutdown()

	deadline := time.After(time.Second)
	for {
		state, _ := e.Controller.Snapshot()
		if state.String() == "RECORDING" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("engine never entered RECORDING, state=%v", state)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEngineRecorderCapturesInboundMIDI(t *testing.T) {
	port := newFakePort()
	sessions := session.New(zap.NewNop(), t.TempDir())
	surface := control.NewSimSurface(zap.NewNop(), strings.NewReader("action\n"))
	leds := indicator.NewSimIndicators(zap.NewNop())

	e := New(zap.NewNop(), port, sessions, surface, leds)
	go e.Run()
	defer e.Shutdown()

	deadline := time.After(time.Second)
	for {
		state, _ := e.Controller.Snapshot()
		if state.String() == "RECORDING" {
			break
		}
		time.Sleep(5 * time.Millisecond)
		select {
		case <-deadline:
			t.Fatal("engine never entered RECORDING")
		default:
		}
	}

	port.received <- midi.NoteOn(9, 60, 100)
	time.Sleep(20 * time.Millisecond)

	if !e.Store.HasContent(0) {
		t.Fatal("expected captured note on track 0")
	}
}
