package control

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"
)

// SimSurface turns typed commands ("mode", "action", "left", "right",
// "touch") read from an io.Reader into the same Edge stream a real
// control surface emits. Grounded on the teacher's commands.Handler /
// readline loop, repurposed from directly mutating sequencer state to
// emitting Control Surface edges.
type SimSurface struct {
	log   *zap.Logger
	edges chan Edge
	done  chan struct{}
}

var simCommands = map[string]Edge{
	"mode":   Mode,
	"action": Action,
	"left":   LeftPause,
	"pause":  LeftPause,
	"right":  RightClear,
	"clear":  RightClear,
	"touch":  Touch,
}

// NewSimSurface starts a goroutine reading newline-delimited commands
// from r until it returns EOF or an error.
func NewSimSurface(log *zap.Logger, r io.Reader) *SimSurface {
	s := &SimSurface{
		log:   log,
		edges: make(chan Edge, 16),
		done:  make(chan struct{}),
	}
	go s.readLoop(r)
	return s
}

func (s *SimSurface) readLoop(r io.Reader) {
	defer close(s.done)
	defer close(s.edges)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}
		edge, ok := simCommands[line]
		if !ok {
			s.log.Warn("unrecognized simulated control command", zap.String("command", line))
			continue
		}
		s.edges <- edge
	}
}

// Edges returns the channel of simulated edges.
func (s *SimSurface) Edges() <-chan Edge {
	return s.edges
}

// Close is a no-op: the read loop exits on its own when r is exhausted.
// It exists to satisfy the Surface interface symmetrically with
// GPIOSurface.
func (s *SimSurface) Close() error {
	return nil
}
