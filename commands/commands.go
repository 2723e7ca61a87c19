// Package commands is the interactive development/testing harness for
// driving the Transport Controller without real hardware: a readline
// REPL that translates typed commands into control.Edge values on the
// same channel a real control surface would produce. Kept as a
// development aid, not a primary feature, per spec.md §1's scoping of
// the interactive text command surface out of the core engine.
// Grounded on the teacher's main.go readline.New/rl.Readline() port
// selection prompt and commands.Handler's ReadLoop, repurposed from
// directly mutating sequencer state to emitting edges.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/tenloop/tenloop/control"
)

// REPL reads commands interactively via chzyer/readline and forwards
// them as control.Edge values. It satisfies control.Surface.
type REPL struct {
	log   *zap.Logger
	rl    *readline.Instance
	edges chan control.Edge
	done  chan struct{}
}

// IsInteractive reports whether stdin is a real terminal, mirroring the
// teacher's main.go isTerminal helper.
func IsInteractive(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewREPL starts a readline-backed command loop. No banner is printed;
// an unrecognized command prints the list of recognized commands.
func NewREPL(log *zap.Logger) (*REPL, error) {
	rl, err := readline.New("tenloop> ")
	if err != nil {
		return nil, fmt.Errorf("create readline instance: %w", err)
	}

	r := &REPL{
		log:   log,
		rl:    rl,
		edges: make(chan control.Edge, 16),
		done:  make(chan struct{}),
	}
	go r.loop()
	return r, nil
}

var replCommands = map[string]control.Edge{
	"mode":   control.Mode,
	"action": control.Action,
	"left":   control.LeftPause,
	"pause":  control.LeftPause,
	"right":  control.RightClear,
	"clear":  control.RightClear,
	"touch":  control.Touch,
}

func (r *REPL) loop() {
	defer close(r.done)
	defer close(r.edges)

	for {
		line, err := r.rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return
		}
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		edge, ok := replCommands[line]
		if !ok {
			fmt.Printf("unrecognized command %q (mode|action|left|right|touch|quit)\n", line)
			continue
		}
		r.edges <- edge
	}
}

// Edges returns the channel of edges typed at the prompt.
func (r *REPL) Edges() <-chan control.Edge {
	return r.edges
}

// Close stops the readline instance.
func (r *REPL) Close() error {
	return r.rl.Close()
}

// ProcessBatch reads newline-delimited commands from r without a
// prompt, for piped/scripted input — mirrors the teacher's
// processBatchInput, emitting edges onto out instead of mutating state
// directly.
func ProcessBatch(in io.Reader, out chan<- control.Edge) error {
	surface := control.NewSimSurface(zap.NewNop(), in)
	for edge := range surface.Edges() {
		out <- edge
	}
	return nil
}
